//go:build linux

package stoplight

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// Server accepts stoplight connections and drives their framers from a
// single epoll loop. The server owns the fd-to-connection map; connections
// never hold a reference back to the server or to each other.
type Server struct {
	listenFD int
	addr     *net.TCPAddr
	poller   *epollPoller
	logger   Logger
	opts     options

	conns map[int]*Conn
}

// NewServer binds addr and registers the listening socket with a fresh
// epoll instance. Connection options apply to every accepted connection.
func NewServer(addr string, opt ...Option) (*Server, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}
	checkOptions(&opts)

	fd, bound, err := listenNonblock(addr)
	if err != nil {
		return nil, err
	}

	poller, err := newEpollPoller()
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err = poller.Register(fd, ReadInterest); err != nil {
		poller.close()
		unix.Close(fd)
		return nil, errors.Wrap(err, "register listener")
	}

	return &Server{
		listenFD: fd,
		addr:     bound,
		poller:   poller,
		logger:   opts.logger,
		opts:     opts,
		conns:    make(map[int]*Conn),
	}, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() *net.TCPAddr {
	return s.addr
}

// Serve runs the event loop until ctx is canceled or the loop fails. On
// return every connection and the listener have been torn down.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("server started", "addr", s.addr.String())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, child := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-child.Done()
		// Closing the epoll fd unblocks the wait below.
		_ = s.poller.close()
		return nil
	})

	group.Go(func() error {
		defer cancel()
		return s.loop()
	})

	err := group.Wait()
	s.shutdown()

	if err != nil {
		s.logger.Error("server stopped with error", "error", err)
		return err
	}
	s.logger.Info("server stopped", "addr", s.addr.String())
	return nil
}

// loop dispatches readiness events until the poller is torn down.
func (s *Server) loop() error {
	events := make([]unix.EpollEvent, 64)
	for {
		n, err := s.poller.wait(events, -1)
		if err != nil {
			if err == unix.EBADF {
				// Poller closed during shutdown.
				return nil
			}
			return errors.Wrap(err, "poll wait")
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == s.listenFD {
				s.accept()
				continue
			}
			s.dispatch(fd, events[i].Events)
		}
	}
}

// accept drains the listen backlog, registering each new connection for
// both readiness directions.
func (s *Server) accept() {
	for {
		fd, sa, err := unix.Accept4(s.listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return
		}
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			s.logger.Error("accept failed", "error", err)
			return
		}

		addr := tcpAddrOf(sa).String()
		conn := newConn(fd, &fdSocket{fd: fd}, addr, s.poller, s.opts)
		if err = s.poller.Register(fd, ReadWriteInterest); err != nil {
			s.logger.Error("register connection failed", "addr", addr, "error", err)
			conn.Close()
			continue
		}

		s.conns[fd] = conn
		s.logger.Info("connection accepted", "addr", addr)
	}
}

// dispatch routes one readiness event to the owning connection.
func (s *Server) dispatch(fd int, events uint32) {
	conn, ok := s.conns[fd]
	if !ok {
		return
	}

	if events&(unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		conn.Close()
	}
	if !conn.Closed() && events&unix.EPOLLIN != 0 {
		if err := conn.HandleReadable(); err != nil {
			s.fail(conn, err)
		}
	}
	if !conn.Closed() && events&unix.EPOLLOUT != 0 {
		if err := conn.HandleWritable(); err != nil {
			s.fail(conn, err)
		}
	}

	if conn.Closed() {
		delete(s.conns, fd)
	}
}

// fail tears down one connection. Other connections are unaffected.
func (s *Server) fail(conn *Conn, err error) {
	if errors.Is(err, ErrPeerClosed) {
		s.logger.Debug("peer closed", "addr", conn.Addr())
	} else {
		s.logger.Error("connection failed", "addr", conn.Addr(), "error", err)
	}
	conn.Close()
}

// shutdown releases every connection, the listener, and the poller.
func (s *Server) shutdown() {
	for fd, conn := range s.conns {
		conn.Close()
		delete(s.conns, fd)
	}
	if err := unix.Close(s.listenFD); err != nil {
		s.logger.Error("listener close failed", "error", err)
	}
	_ = s.poller.close()
}
