// Package gnetx binds the stoplight framer to the gnet event engine, for
// deployments that want a multicore reactor instead of the built-in epoll
// loop. The framing semantics are identical: one request, one response,
// then hang up.
package gnetx

import (
	"context"
	"log/slog"

	"github.com/panjf2000/gnet/v2"

	"github.com/Zereker/stoplight"
)

// Config holds the gnet transport settings.
type Config struct {
	Addr      string
	Multicore bool
	Responder stoplight.Responder
	Logger    stoplight.Logger
}

// Server implements gnet.EventHandler for the stoplight protocol. Each
// connection carries its own decoder in the gnet connection context.
type Server struct {
	gnet.BuiltinEventEngine

	addr      string
	multicore bool
	responder stoplight.Responder
	logger    stoplight.Logger

	eng   gnet.Engine
	ready chan struct{}
}

// NewServer creates a stoplight server on the gnet engine.
func NewServer(cfg Config) *Server {
	if cfg.Responder == nil {
		cfg.Responder = stoplight.StatusResponder()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Server{
		addr:      cfg.Addr,
		multicore: cfg.Multicore,
		responder: cfg.Responder,
		logger:    cfg.Logger,
		ready:     make(chan struct{}),
	}
}

// Run starts the engine and blocks until it stops.
func (s *Server) Run() error {
	return gnet.Run(s, "tcp://"+s.addr,
		gnet.WithMulticore(s.multicore),
		gnet.WithTCPNoDelay(gnet.TCPNoDelay),
	)
}

// Stop gracefully stops a running engine.
func (s *Server) Stop(ctx context.Context) error {
	<-s.ready
	return s.eng.Stop(ctx)
}

// Ready is closed once the engine is accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// OnBoot captures the engine handle for shutdown.
func (s *Server) OnBoot(eng gnet.Engine) gnet.Action {
	s.eng = eng
	s.logger.Info("engine started", "addr", s.addr)
	close(s.ready)
	return gnet.None
}

// OnOpen attaches a fresh decoder to the new connection.
func (s *Server) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	c.SetContext(stoplight.NewDecoder())
	s.logger.Debug("connection accepted", "addr", c.RemoteAddr().String())
	return nil, gnet.None
}

// OnTraffic feeds inbound bytes through the decoder and, once the request
// completes, sends the response and closes the connection.
func (s *Server) OnTraffic(c gnet.Conn) gnet.Action {
	dec, ok := c.Context().(*stoplight.Decoder)
	if !ok {
		return gnet.Close
	}

	buf, err := c.Next(-1)
	if err != nil {
		s.logger.Error("read failed", "addr", c.RemoteAddr().String(), "error", err)
		return gnet.Close
	}
	dec.Feed(buf)

	if err = dec.Advance(); err != nil {
		s.logger.Error("decode failed", "addr", c.RemoteAddr().String(), "error", err)
		return gnet.Close
	}
	if !dec.Complete() {
		return gnet.None
	}

	resp, err := stoplight.BuildResponse(s.responder, dec.Payload())
	if err != nil {
		s.logger.Error("response failed", "addr", c.RemoteAddr().String(), "error", err)
		return gnet.Close
	}

	// One request, one response: hang up once the write lands.
	err = c.AsyncWrite(resp, func(c gnet.Conn, _ error) error {
		return c.Close()
	})
	if err != nil {
		s.logger.Error("write failed", "addr", c.RemoteAddr().String(), "error", err)
		return gnet.Close
	}
	return gnet.None
}

// OnClose logs connection teardown.
func (s *Server) OnClose(c gnet.Conn, err error) gnet.Action {
	if err != nil {
		s.logger.Debug("connection closed", "error", err)
	}
	return gnet.None
}
