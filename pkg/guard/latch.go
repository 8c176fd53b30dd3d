// Package guard provides a fail-fast mutual-exclusion latch. Unlike a
// mutex, Enter never blocks: a second Enter while the latch is held is
// rejected immediately, which is the behavior the value-moving loan
// transitions need under adversarial re-entry.
package guard

import (
	"errors"
	"sync/atomic"
)

var ErrHeld = errors.New("guard: latch already held")

type Latch struct {
	held atomic.Bool
}

func New() *Latch { return &Latch{} }

// Enter acquires the latch or fails with ErrHeld. No queuing.
func (l *Latch) Enter() error {
	if !l.held.CompareAndSwap(false, true) {
		return ErrHeld
	}
	return nil
}

// Exit releases the latch. Exit of a free latch is a no-op.
func (l *Latch) Exit() {
	l.held.Store(false)
}
