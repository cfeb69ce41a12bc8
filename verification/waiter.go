package verification

import (
	"context"
	"sync"
	"time"
)

// Outcome is the result of waiting for the user to finish the handshake.
type Outcome string

const (
	Confirmed Outcome = "confirmed"
	TimedOut  Outcome = "timedOut"
	Cancelled Outcome = "cancelled"
)

// Waiter implements the cooperative confirmation protocol. The provider
// cannot push completion to us, so the pipeline blocks on Await until the
// user reports the handshake done, cancels, or the timeout elapses. Confirm
// and Cancel are safe to call from any goroutine and more than once.
type Waiter struct {
	confirmOnce sync.Once
	cancelOnce  sync.Once
	confirmed   chan struct{}
	cancelled   chan struct{}
}

func NewWaiter() *Waiter {
	return &Waiter{
		confirmed: make(chan struct{}),
		cancelled: make(chan struct{}),
	}
}

func (w *Waiter) Confirm() {
	w.confirmOnce.Do(func() {
		close(w.confirmed)
	})
}

func (w *Waiter) Cancel() {
	w.cancelOnce.Do(func() {
		close(w.cancelled)
	})
}

// Await blocks until the wait resolves. Context cancellation counts as a
// cancel so a shutdown never leaves the pipeline stuck in the wait.
func (w *Waiter) Await(ctx context.Context, timeout time.Duration) Outcome {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.confirmed:
		return Confirmed
	case <-w.cancelled:
		return Cancelled
	case <-ctx.Done():
		return Cancelled
	case <-timer.C:
		return TimedOut
	}
}
