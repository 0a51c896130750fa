// Package respserver provides the RESP protocol server for MistKV.
//
// Each accepted connection gets its own worker goroutine running the
// decode → interpret → execute → reply loop against the shared store.
package respserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/mistkv/mistkv-go/internal/command"
	"github.com/mistkv/mistkv-go/internal/resp"
	"github.com/mistkv/mistkv-go/internal/store"
	"github.com/mistkv/mistkv-go/internal/telemetry/metric"
)

// Config holds the RESP server configuration.
type Config struct {
	// Addr is the listen address.
	Addr string
	// ReadTimeout is the timeout for reading a command once its first
	// byte has arrived (default: 30s). Helps prevent slowloris attacks.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing a response (default: 30s).
	WriteTimeout time.Duration
	// IdleTimeout is the timeout for idle connections (default: 5m).
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per IP.
	// Set to 0 to disable rate limiting.
	RateLimit int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		RateLimit:    0,
	}
}

// Server is the RESP protocol server.
type Server struct {
	cfg      *Config
	store    *store.Store
	logger   *slog.Logger
	metrics  *metric.Registry
	limiters *ipLimiters
	ln       net.Listener
	running  atomic.Bool
	wg       sync.WaitGroup
}

// Conn represents a single client connection.
type Conn struct {
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer
	id      string
	closed  atomic.Bool
}

func newConn(c net.Conn) *Conn {
	return &Conn{
		netConn: c,
		br:      bufio.NewReader(c),
		bw:      bufio.NewWriter(c),
		id:      ulid.Make().String(),
	}
}

// Close closes the underlying connection once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// New creates a new RESP server. logger and metrics may be nil.
func New(cfg *Config, st *store.Store, logger *slog.Logger, metrics *metric.Registry) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		store:   st,
		logger:  logger,
		metrics: metrics,
	}

	if cfg.RateLimit > 0 {
		s.limiters = newIPLimiters(cfg.RateLimit)
	}

	return s
}

// Start binds the listener and begins accepting connections.
// The accept loop runs in its own goroutine; binding errors are
// returned synchronously.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.running.Store(true)

	s.logger.Info("resp server listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("resp server accept error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown closes the listener and waits for workers to drain.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil {
			firstErr = err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, newConn(c))
		}()
	}
}

// serveConn runs the per-connection worker loop.
//
// Only an I/O failure (including clean closure) terminates the loop.
// A request that fails protocol decoding or interpretation is
// abandoned without any reply; the worker logs it and waits for the
// next request.
func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer c.Close()

	log := s.logger.With("conn_id", c.id, "remote", c.RemoteAddr().String())
	log.Debug("connection opened")

	if s.metrics != nil {
		s.metrics.ConnectionsTotal.Inc()
		s.metrics.ConnectionsActive.Inc()
		defer s.metrics.ConnectionsActive.Dec()
	}

	readTimeout := s.cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := s.cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 30 * time.Second
	}
	idleTimeout := s.cfg.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 5 * time.Minute
	}

	var limiter *rate.Limiter
	if s.limiters != nil {
		limiter = s.limiters.get(clientIP(c.RemoteAddr()))
	}

	dec := resp.NewDecoder(c.br)

	for {
		// First byte: allow idle timeout (connection can stay idle
		// between commands).
		if err := c.netConn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			logConnEnd(log, err)
			return
		}

		// After first byte: tighten to per-command read timeout.
		if err := c.netConn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		msg, err := dec.DecodeMessage()
		if err != nil {
			switch {
			case errors.Is(err, resp.ErrLimitExceeded):
				// An oversized frame leaves the stream unusable.
				log.Warn("protocol limit exceeded", "error", err)
				s.dropRequest("protocol")
				return
			case errors.Is(err, resp.ErrProtocol):
				log.Warn("malformed request abandoned", "error", err)
				s.dropRequest("protocol")
				continue
			default:
				logConnEnd(log, err)
				return
			}
		}

		cmd, err := command.Parse(msg)
		if err != nil {
			// Documented deviation: no error reply is sent; the client
			// sees nothing for this request and the connection stays open.
			kind := "argument"
			if errors.Is(err, command.ErrConversion) {
				kind = "conversion"
			}
			log.Warn("request dropped", "kind", kind, "error", err)
			s.dropRequest(kind)
			continue
		}

		reply := s.execute(cmd)

		if s.metrics != nil {
			s.metrics.CommandsTotal.WithLabelValues(verbName(cmd.Kind)).Inc()
		}

		if err := c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}
		if err := resp.Write(c.bw, reply); err != nil {
			logConnEnd(log, err)
			return
		}
		if err := c.bw.Flush(); err != nil {
			logConnEnd(log, err)
			return
		}
	}
}

func (s *Server) dropRequest(kind string) {
	if s.metrics != nil {
		s.metrics.RequestsDropped.WithLabelValues(kind).Inc()
	}
}

// logConnEnd logs why a connection's worker loop is terminating.
func logConnEnd(log *slog.Logger, err error) {
	if errors.Is(err, io.EOF) {
		log.Debug("connection closed by peer")
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		log.Debug("connection timed out")
		return
	}
	log.Debug("connection read error", "error", err)
}

// clientIP strips the port from a remote address.
func clientIP(addr net.Addr) string {
	host := addr.String()
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

// ipLimiters hands out one token-bucket limiter per client IP.
type ipLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newIPLimiters(requestsPerSecond int) *ipLimiters {
	return &ipLimiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(requestsPerSecond),
		burst:    requestsPerSecond,
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}
