// Package ring provides a batched io_uring submission path for local
// buffer I/O. The local backend uses it whenever a ring can be created
// and falls back to plain read(2)/write(2) otherwise.
package ring

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/pawelgaczynski/giouring"
	"golang.org/x/sys/unix"

	"github.com/openiio/goiio/internal/logging"
)

// CancelUserData tags the completion of the cancel-watch read armed by
// ArmCancelWatch, distinguishing a Cancel wakeup from a real I/O
// completion in WaitCompletion's results.
const CancelUserData = ^uint64(0)

// Ring batches read(2)/write(2) submissions against one buffer chardev
// fd and flushes them with a single io_uring_enter call, mirroring the
// batched-submit-then-flush shape used elsewhere in this codebase for
// kernel command queues. Cancellation is multiplexed through the same
// ring: ArmCancelWatch stages a read on a private eventfd alongside
// the real I/O, so Cancel (a write to that eventfd from any goroutine)
// wakes a blocked WaitCompletion the same way a completed read/write
// would.
type Ring struct {
	mu        sync.Mutex
	ring      *giouring.Ring
	fd        int
	cancelFd  int
	cancelBuf [8]byte // destination of the ArmCancelWatch read
	queued    int
	cancelled atomic.Bool
}

// New creates a Ring with room for entries in-flight submissions
// against fd.
func New(fd int, entries uint32) (*Ring, error) {
	r, err := giouring.CreateRing(entries)
	if err != nil {
		return nil, fmt.Errorf("ring: create: %w", err)
	}
	efd, err := unix.Eventfd(0, unix.EFD_CLOEXEC)
	if err != nil {
		r.QueueExit()
		return nil, fmt.Errorf("ring: cancel eventfd: %w", err)
	}
	return &Ring{ring: r, fd: fd, cancelFd: efd}, nil
}

// ArmCancelWatch stages a read of the cancel eventfd so a concurrent
// Cancel call surfaces as a completion the next WaitCompletion sees,
// rather than leaving it blocked on the real I/O indefinitely.
func (r *Ring) ArmCancelWatch() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sqe := r.ring.GetSQE()
	if sqe == nil {
		return fmt.Errorf("ring: submission queue full")
	}
	sqe.PrepareRead(r.cancelFd, uintptr(unsafe.Pointer(&r.cancelBuf[0])), uint32(len(r.cancelBuf)), 0)
	sqe.SetData64(CancelUserData)
	r.queued++
	return nil
}

// Cancel fires the cancel eventfd, waking any ArmCancelWatch-armed
// WaitCompletion. Idempotent and safe from any goroutine.
func (r *Ring) Cancel() {
	if !r.cancelled.CompareAndSwap(false, true) {
		return
	}
	buf := make([]byte, 8)
	buf[0] = 1
	unix.Write(r.cancelFd, buf)
}

// Cancelled reports whether Cancel has ever been called.
func (r *Ring) Cancelled() bool { return r.cancelled.Load() }

// Close tears down the ring.
func (r *Ring) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ring != nil {
		r.ring.QueueExit()
		r.ring = nil
	}
	if r.cancelFd != 0 {
		unix.Close(r.cancelFd)
		r.cancelFd = 0
	}
	return nil
}

// PrepareRead stages a read of buf at the given offset into the
// submission queue without flushing it to the kernel yet, so several
// blocks can be submitted in one syscall.
func (r *Ring) PrepareRead(buf []byte, offset uint64, userData uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sqe := r.ring.GetSQE()
	if sqe == nil {
		return fmt.Errorf("ring: submission queue full")
	}
	sqe.PrepareRead(r.fd, uintptr(unsafe.Pointer(unsafe.SliceData(buf))), uint32(len(buf)), offset)
	sqe.SetData64(userData)
	r.queued++
	return nil
}

// PrepareWrite stages a write of buf at the given offset.
func (r *Ring) PrepareWrite(buf []byte, offset uint64, userData uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sqe := r.ring.GetSQE()
	if sqe == nil {
		return fmt.Errorf("ring: submission queue full")
	}
	sqe.PrepareWrite(r.fd, uintptr(unsafe.Pointer(unsafe.SliceData(buf))), uint32(len(buf)), offset)
	sqe.SetData64(userData)
	r.queued++
	return nil
}

// Flush submits every staged SQE with a single io_uring_enter syscall
// and returns how many were submitted.
func (r *Ring) Flush() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.queued == 0 {
		return 0, nil
	}
	n, err := r.ring.Submit()
	if err != nil {
		return 0, fmt.Errorf("ring: submit: %w", err)
	}
	r.queued = 0
	return int(n), nil
}

// CompletionResult is one finished submission.
type CompletionResult struct {
	UserData uint64
	Res      int32
}

// WaitCompletion blocks for at least one completion and drains every
// one currently available. An error from the blocking wait is returned
// wrapped; only the drained completion count is logged.
func (r *Ring) WaitCompletion() ([]CompletionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cqe, err := r.ring.WaitCQE()
	if err != nil {
		return nil, fmt.Errorf("ring: wait cqe: %w", err)
	}
	results := []CompletionResult{{UserData: cqe.UserData, Res: cqe.Res}}
	r.ring.CQESeen(cqe)

	for {
		cqe, err := r.ring.PeekCQE()
		if err != nil || cqe == nil {
			break
		}
		results = append(results, CompletionResult{UserData: cqe.UserData, Res: cqe.Res})
		r.ring.CQESeen(cqe)
	}

	logging.Default().Debug("ring: drained completions", "count", len(results))
	return results, nil
}
