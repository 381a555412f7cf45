package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/codec"
	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/dialect"
	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/tracker"
)

// direction identifies which half-duplex loop is observing a bundle.
type direction int

const (
	clientToServer direction = iota
	serverToClient
)

// observeBundle walks every IPC-carrying message in b, lets the
// tracker react to the four opcodes it cares about, and rewrites the
// animation-lock duration in place when the tracker says to. Any
// decode failure on a single message is swallowed; that message is
// left untouched and the rest of the bundle is still processed.
func observeBundle(b codec.Bundle, dir direction, d dialect.Dialect, trk *tracker.Tracker, now time.Time, log *zap.Logger) codec.Bundle {
	for i := range b.Messages {
		msg := b.Messages[i]
		if msg.SegmentType != codec.SegmentTypeIPC {
			continue
		}

		ipc, err := codec.DecodeIPC(msg.Data)
		if err != nil || ipc.Type != codec.IPCTypeInterested {
			continue
		}

		switch dir {
		case clientToServer:
			observeRequest(ipc, d, trk, now)
		case serverToClient:
			if msg.SourceActor != msg.TargetActor {
				continue
			}
			if rewritten, ok := observeResponse(ipc, d, trk, now, log); ok {
				msg.Data = rewritten
				b.Messages[i] = msg
			}
		}
	}
	return b
}

func observeRequest(ipc codec.IPC, d dialect.Dialect, trk *tracker.Tracker, now time.Time) {
	if ipc.Subtype != d.RequestAction {
		return
	}
	if _, err := codec.DecodeRequestActionID(ipc.Data); err != nil {
		return
	}
	trk.ObserveRequest(now)
}

// observeResponse returns the re-encoded message payload and true when
// the tracker rewrote the animation-lock duration; otherwise ok is
// false and the caller must leave the original bytes untouched.
func observeResponse(ipc codec.IPC, d dialect.Dialect, trk *tracker.Tracker, now time.Time, log *zap.Logger) ([]byte, bool) {
	switch {
	case ipc.Subtype == d.ResponseActorCast:
		trk.ObserveCast()

	case ipc.Subtype == d.ResponseActorControl:
		ctl, err := codec.DecodeActorControl(ipc.Data)
		if err != nil {
			return nil, false
		}
		if ctl.Category == codec.CategoryCancelCast {
			trk.ObserveCancelCast()
		}

	case ipc.Subtype == d.ResponseActorControlSelf:
		self, err := codec.DecodeActorControlSelf(ipc.Data)
		if err != nil {
			return nil, false
		}
		if self.Category == codec.CategoryRollback {
			trk.ObserveRollback()
		}

	case d.IsActionResult(ipc.Subtype):
		effect, err := codec.DecodeActionEffect(ipc.Data)
		if err != nil {
			return nil, false
		}
		result := trk.ObserveActionResult(effect.ActionID, effect.AnimationLockDuration, now)
		if !result.Rewrite {
			return nil, false
		}
		log.Debug("rewriting animation lock",
			zap.Uint32("action_id", effect.ActionID),
			zap.Float32("reported", effect.AnimationLockDuration),
			zap.Float32("rewritten", result.NewDuration),
		)
		effect.AnimationLockDuration = result.NewDuration
		ipc.Data = append(effect.Encode(), ipc.Data[codec.ActionEffectSize:]...)
		return ipc.Encode(), true
	}

	return nil, false
}
