//go:build linux

package transport

import (
	"sync"

	"golang.org/x/sys/unix"
)

// Canceller is the cancellation primitive for raw-fd transports
// (serial, USB) whose blocking reads aren't already cancellable via a
// net.Conn-style deadline. It multiplexes a data fd with an eventfd
// wakeup handle through epoll, the same join-a-wakeup-fd-with-the-data-fd
// shape the teacher uses to race context cancellation against
// io_uring completions, adapted here to race an explicit Cancel()
// call against a blocking read(2) on a plain fd.
//
// Once fired, Canceller stays fired: a later WaitReadable call
// returns immediately, matching spec's "sticky for the handle's life"
// rule. This is deliberate and is why Close tears the whole
// transport down rather than trying to un-signal the eventfd.
type Canceller struct {
	epfd      int
	eventfd   int
	dataFd    int
	once      sync.Once
	cancelled bool
	mu        sync.Mutex
}

// NewCanceller wires an epoll instance watching both dataFd and a
// fresh eventfd.
func NewCanceller(dataFd int) (*Canceller, error) {
	efd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		unix.Close(efd)
		return nil, err
	}

	c := &Canceller{epfd: epfd, eventfd: efd, dataFd: dataFd}

	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, dataFd, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(dataFd)}); err != nil {
		c.Close()
		return nil, err
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, efd, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(efd)}); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Cancel fires the wakeup handle. Idempotent and safe from any
// goroutine.
func (c *Canceller) Cancel() {
	c.once.Do(func() {
		c.mu.Lock()
		c.cancelled = true
		c.mu.Unlock()
		buf := make([]byte, 8)
		buf[0] = 1
		_, _ = unix.Write(c.eventfd, buf)
	})
}

// Cancelled reports whether Cancel has ever been called.
func (c *Canceller) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// WaitReadable blocks (honoring timeoutMs, -1 for forever) until
// dataFd is readable or Cancel fires, returning true iff dataFd is
// readable. A sticky cancellation makes every subsequent call return
// false immediately.
func (c *Canceller) WaitReadable(timeoutMs int) (readable bool, err error) {
	if c.Cancelled() {
		return false, nil
	}

	events := make([]unix.EpollEvent, 2)
	n, err := unix.EpollWait(c.epfd, events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, err
	}

	for i := 0; i < n; i++ {
		if int(events[i].Fd) == c.eventfd {
			return false, nil
		}
	}
	return n > 0, nil
}

// Close releases the epoll instance and eventfd. It does not close
// dataFd; the owning Transport does that.
func (c *Canceller) Close() error {
	if c.eventfd != 0 {
		unix.Close(c.eventfd)
	}
	if c.epfd != 0 {
		unix.Close(c.epfd)
	}
	return nil
}
