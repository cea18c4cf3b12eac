//go:build linux

package stoplight

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// fdSocket is the nonblocking fd-backed transport. EAGAIN surfaces as
// ErrWouldBlock so callers never deal in errno-level control flow.
type fdSocket struct {
	fd int
}

func (s *fdSocket) Read(p []byte) (int, error) {
	n, err := unix.Read(s.fd, p)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, ErrWouldBlock
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *fdSocket) Write(p []byte) (int, error) {
	n, err := unix.Write(s.fd, p)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, ErrWouldBlock
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *fdSocket) Close() error {
	return unix.Close(s.fd)
}

// listenNonblock opens a nonblocking listening socket on a TCP address and
// returns its fd along with the bound address.
func listenNonblock(addr string) (int, *net.TCPAddr, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return -1, nil, errors.Wrap(err, "resolve address")
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, nil, errors.Wrap(err, "socket")
	}
	if err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, nil, errors.Wrap(err, "setsockopt")
	}

	sa := &unix.SockaddrInet4{Port: tcpAddr.Port}
	if ip := tcpAddr.IP.To4(); ip != nil {
		copy(sa.Addr[:], ip)
	}
	if err = unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, nil, errors.Wrap(err, "bind")
	}
	if err = unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return -1, nil, errors.Wrap(err, "listen")
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return -1, nil, errors.Wrap(err, "getsockname")
	}
	return fd, tcpAddrOf(bound), nil
}

// tcpAddrOf converts a kernel sockaddr into a net.TCPAddr.
func tcpAddrOf(sa unix.Sockaddr) *net.TCPAddr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(a.Addr[:]), Port: a.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(a.Addr[:]), Port: a.Port}
	default:
		return &net.TCPAddr{}
	}
}
