// Package acceptor listens on the proxy's ephemeral port, recovers each
// redirected connection's true destination, classifies it against the
// dialect table, and spawns a session for it.
package acceptor

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/dialect"
	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/logging"
	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/session"
)

// Options carries the tunables the acceptor and the sessions it spawns
// need, sourced from config.MitigatorConfig.
type Options struct {
	PortMin                int
	PortMax                int
	UpstreamConnectTimeout time.Duration
	IdleReadTimeout        time.Duration
	ExtraDelay             time.Duration
}

// Acceptor owns the listening socket and the registry of live sessions,
// used only for enumeration during shutdown.
type Acceptor struct {
	log     *zap.Logger
	table   *dialect.Table
	opts    Options
	nextID  uint64
	ln      net.Listener
	port    int
	wg      sync.WaitGroup
	mu      sync.Mutex
	clients map[uint64]*session.Session
}

// New binds a listener on a random port in [opts.PortMin, opts.PortMax],
// retrying on conflict.
func New(table *dialect.Table, opts Options, log *zap.Logger) (*Acceptor, error) {
	a := &Acceptor{
		log:     log,
		table:   table,
		opts:    opts,
		clients: make(map[uint64]*session.Session),
	}

	const maxAttempts = 64
	for attempt := 0; attempt < maxAttempts; attempt++ {
		port := opts.PortMin + rand.Intn(opts.PortMax-opts.PortMin+1)
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			if isAddrInUse(err) {
				continue
			}
			return nil, fmt.Errorf("acceptor: listen: %w", err)
		}
		a.ln = ln
		a.port = port
		return a, nil
	}
	return nil, errors.New("acceptor: exhausted bind attempts")
}

// Port returns the port the listener is bound to.
func (a *Acceptor) Port() int { return a.port }

// Serve accepts connections until the listener is closed by Shutdown.
func (a *Acceptor) Serve() {
	for {
		conn, err := a.ln.Accept()
		if err != nil {
			return
		}
		a.wg.Add(1)
		go a.handle(conn)
	}
}

func (a *Acceptor) handle(conn net.Conn) {
	defer a.wg.Done()

	id := atomic.AddUint64(&a.nextID, 1)
	log := logging.ForConn(a.log, id)

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		log.Error("accepted non-TCP connection")
		conn.Close()
		return
	}

	dst, err := originalDestination(tcpConn)
	if err != nil {
		log.Error("original destination lookup failed", zap.Error(err))
		conn.Close()
		return
	}

	dlct, isGame := a.table.Classify(dst.IP)
	if isGame {
		log.Info("accepted game connection", zap.String("dialect", dlct.Name), zap.Stringer("dst", dst))
	} else {
		log.Info("accepted non-game connection, relaying opaquely", zap.Stringer("dst", dst))
	}

	upstream, err := net.DialTimeout("tcp", dst.String(), a.opts.UpstreamConnectTimeout)
	if err != nil {
		log.Error("upstream connect failed", zap.Error(err))
		conn.Close()
		return
	}

	sess := session.New(id, conn, upstream, dlct, isGame, a.opts.ExtraDelay, a.opts.IdleReadTimeout, log)
	a.register(id, sess)
	defer a.unregister(id)

	sess.Run()
}

func (a *Acceptor) register(id uint64, sess *session.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clients[id] = sess
}

func (a *Acceptor) unregister(id uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.clients, id)
}

// Shutdown stops accepting, breaks every live session, and waits for
// all of their goroutines to unwind.
func (a *Acceptor) Shutdown() {
	a.ln.Close()

	a.mu.Lock()
	for _, sess := range a.clients {
		sess.Break()
	}
	a.mu.Unlock()

	a.wg.Wait()
}

func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}
