// Package logging builds the process-wide zap logger used by every
// other package. All output goes to stderr through a single locked
// writer so interleaved goroutines never tear a line in half.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the root logger. debug enables zap's Debug level; the
// default is Info.
func New(debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		level,
	)
	return zap.New(core)
}

// ForConn returns a child logger tagged with a connection ID, so every
// line emitted while handling one session can be grepped out of the
// interleaved log of all sessions.
func ForConn(base *zap.Logger, id uint64) *zap.Logger {
	return base.With(zap.String("conn", fmt.Sprintf("%d", id)))
}
