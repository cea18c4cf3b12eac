//go:build linux

package stoplight

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// epollPoller implements Poller on top of epoll.
type epollPoller struct {
	fd int
}

func newEpollPoller() (*epollPoller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "epoll_create1")
	}
	return &epollPoller{fd: fd}, nil
}

func epollEvents(interest Interest) uint32 {
	var ev uint32
	if interest&ReadInterest != 0 {
		ev |= unix.EPOLLIN
	}
	if interest&WriteInterest != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func (p *epollPoller) ctl(op, fd int, interest Interest) error {
	return unix.EpollCtl(p.fd, op, fd, &unix.EpollEvent{
		Events: epollEvents(interest),
		Fd:     int32(fd),
	})
}

func (p *epollPoller) Register(fd int, interest Interest) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, interest)
}

func (p *epollPoller) Modify(fd int, interest Interest) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, interest)
}

func (p *epollPoller) Unregister(fd int) error {
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil)
}

// wait blocks for up to msec milliseconds (-1 means forever) and fills
// events. Interrupted waits report zero events instead of an error.
func (p *epollPoller) wait(events []unix.EpollEvent, msec int) (int, error) {
	n, err := unix.EpollWait(p.fd, events, msec)
	if err == unix.EINTR {
		return 0, nil
	}
	return n, err
}

func (p *epollPoller) close() error {
	return unix.Close(p.fd)
}
