package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/acceptor"
	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/config"
	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/dialect"
	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/logging"
	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/redirect"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load("mitigator.ini")
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		return 1
	}

	log := logging.New(cfg.Mitigator.Debug)
	defer log.Sync()

	table, err := dialect.Resolve(nil)
	if err != nil {
		log.Error("resolving dialect networks", zap.Error(err))
		return 1
	}

	opts := acceptor.Options{
		PortMin:                cfg.Mitigator.ListenPortMin,
		PortMax:                cfg.Mitigator.ListenPortMax,
		UpstreamConnectTimeout: cfg.Mitigator.UpstreamConnectTimeout(),
		IdleReadTimeout:        cfg.Mitigator.IdleReadTimeout(),
		ExtraDelay:             cfg.Mitigator.ExtraDelay(),
	}

	acc, err := acceptor.New(table, opts, log)
	if err != nil {
		log.Error("binding listener", zap.Error(err))
		return 1
	}

	rule, err := redirect.Install(cfg.Mitigator.IptablesPath, table.Networks(), acc.Port())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	log.Info("listening", zap.Int("port", acc.Port()))
	go acc.Serve()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	acc.Shutdown()

	if err := rule.Remove(); err != nil {
		log.Error("removing redirection rule", zap.Error(err))
		return 1
	}

	log.Info("cleanup complete")
	return 0
}
