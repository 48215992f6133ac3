// Package lazy provides a memoizing, three-state slot for request-scoped values.
//
// A Slot moves through UNSET -> LAZY -> FORCED. Installing a thunk makes it
// LAZY; the first Force evaluates the thunk and caches its value or error.
// A LAZY slot may be replaced with a new thunk before it is forced; a FORCED
// slot never changes again.
package lazy

import (
	"context"
	"errors"
	"sync"
)

// ErrUnset is returned by Force on a slot that was never installed.
var ErrUnset = errors.New("lazy: slot is unset")

// State is the lifecycle position of a Slot.
type State int

const (
	StateUnset State = iota
	StateLazy
	StateForced
)

func (s State) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateLazy:
		return "lazy"
	case StateForced:
		return "forced"
	default:
		return "unknown"
	}
}

// Thunk computes a slot value on first read.
type Thunk[T any] func(ctx context.Context) (T, error)

// Slot holds either nothing, a deferred computation, or its result.
// The zero value is an UNSET slot ready for use. A Slot must not be copied
// after first use.
type Slot[T any] struct {
	mu    sync.Mutex
	state State
	thunk Thunk[T]
	value T
	err   error
}

// State reports the current state of the slot.
func (s *Slot[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Install moves an UNSET slot to LAZY. It reports false and leaves the slot
// untouched if it was already installed or forced.
func (s *Slot[T]) Install(thunk Thunk[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnset {
		return false
	}
	s.thunk = thunk
	s.state = StateLazy
	return true
}

// Replace swaps the thunk of a LAZY slot. UNSET and FORCED slots are left
// untouched and Replace reports false.
func (s *Slot[T]) Replace(thunk Thunk[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLazy {
		return false
	}
	s.thunk = thunk
	return true
}

// Set moves an UNSET slot straight to FORCED with value.
func (s *Slot[T]) Set(value T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnset {
		return false
	}
	s.value = value
	s.state = StateForced
	return true
}

// Force returns the slot value, evaluating the thunk on the first call.
// Concurrent callers block until the single evaluation finishes and all of
// them observe its result. Errors are cached like values.
func (s *Slot[T]) Force(ctx context.Context) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateForced:
		return s.value, s.err
	case StateLazy:
		s.value, s.err = s.thunk(ctx)
		s.thunk = nil
		s.state = StateForced
		return s.value, s.err
	default:
		var zero T
		return zero, ErrUnset
	}
}
