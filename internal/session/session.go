// Package session implements the bidirectional relay pump: two
// half-duplex loops driving the framer and tracker between a
// transparently-redirected client socket and the real upstream.
package session

import (
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/dialect"
	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/framer"
	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/tracker"
)

// readChunk is the maximum number of bytes pulled off a socket per read.
const readChunk = 64 * 1024

// Session owns one client connection and its matched upstream
// connection, plus the shared tracker state both direction loops
// observe and mutate.
type Session struct {
	ID uint64

	client      net.Conn
	upstream    net.Conn
	log         *zap.Logger
	idleTimeout time.Duration

	// game reports whether this connection was classified into a
	// known datacenter dialect. Non-game connections are relayed as an
	// opaque byte pipe with no framing or observation.
	game    bool
	dialect dialect.Dialect
	tracker *tracker.Tracker

	wg        sync.WaitGroup
	closeOnce sync.Once
	broken    chan struct{}
}

// New wires a session for a connection already classified by the
// acceptor. dlct and ok come straight from dialect.Table.Classify; when
// ok is false the session degrades to a plain byte-for-byte relay.
// extraDelay is the tracker's configured safety margin; idleTimeout
// bounds how long either direction may sit without inbound data.
func New(id uint64, client, upstream net.Conn, dlct dialect.Dialect, ok bool, extraDelay, idleTimeout time.Duration, log *zap.Logger) *Session {
	return &Session{
		ID:          id,
		client:      client,
		upstream:    upstream,
		log:         log,
		idleTimeout: idleTimeout,
		game:        ok,
		dialect:     dlct,
		tracker:     tracker.New(extraDelay),
		broken:      make(chan struct{}),
	}
}

// Run drives both direction loops and blocks until the session ends,
// then closes both sockets.
func (s *Session) Run() {
	s.wg.Add(2)
	go s.pump(s.client, s.upstream, clientToServer)
	go s.pump(s.upstream, s.client, serverToClient)
	s.wg.Wait()

	s.client.Close()
	s.upstream.Close()
}

// Break signals both loops to unwind on their next I/O turn, used for
// process-wide shutdown.
func (s *Session) Break() {
	s.closeOnce.Do(func() { close(s.broken) })
	s.client.Close()
	s.upstream.Close()
}

func (s *Session) pump(src, dst net.Conn, dir direction) {
	defer s.wg.Done()
	defer s.Break()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("recovered from panic in relay loop", zap.Any("panic", r))
		}
	}()

	var acc []byte
	buf := make([]byte, readChunk)

	for {
		select {
		case <-s.broken:
			return
		default:
		}

		_ = src.SetReadDeadline(time.Now().Add(s.idleTimeout))
		n, err := src.Read(buf)
		if n > 0 {
			if !s.game {
				if _, werr := dst.Write(buf[:n]); werr != nil {
					s.log.Debug("write failed", zap.Error(werr))
					return
				}
			} else {
				acc = append(acc, buf[:n]...)
				var ok bool
				acc, ok = s.drain(acc, dst, dir)
				if !ok {
					return
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				s.log.Debug("read failed", zap.Error(err))
			}
			if len(acc) > 0 {
				_, _ = dst.Write(acc)
			}
			return
		}
	}
}

// drain runs the framer over acc, forwards every item it yields, and
// returns the unconsumed tail. ok is false once a write to dst fails,
// at which point the caller must tear the session down.
func (s *Session) drain(acc []byte, dst net.Conn, dir direction) ([]byte, bool) {
	items, tail := framer.Find(acc)
	for _, item := range items {
		if !item.IsBundle {
			if len(item.Discarded) > 0 {
				s.log.Warn("discarding unframeable bytes", zap.Int("len", len(item.Discarded)))
				if _, err := dst.Write(item.Discarded); err != nil {
					return nil, false
				}
			}
			continue
		}

		bundle := observeBundle(item.Bundle, dir, s.dialect, s.tracker, time.Now(), s.log)
		if _, err := dst.Write(bundle.Encode()); err != nil {
			s.log.Debug("relay write failed", zap.Error(err))
			return nil, false
		}
	}
	return tail, true
}
