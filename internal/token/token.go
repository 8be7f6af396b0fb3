package token

import "sync"

// Token is a one-shot cancellation signal shared between a caller and a run.
// Trip is idempotent: once tripped the token never reverts. A strategy
// observes the token either synchronously (IsTripped) at scheduling
// boundaries or through Done/OnTrip notification.
//
// Tripping is safe from any goroutine, including outside the run's own
// completion path.
type Token struct {
	mu        sync.Mutex
	tripped   bool
	done      chan struct{}
	callbacks []func()
}

// New returns an untripped token.
func New() *Token {
	return &Token{done: make(chan struct{})}
}

// Trip marks the token as tripped and runs registered callbacks once.
// Subsequent calls are no-ops.
func (t *Token) Trip() {
	t.mu.Lock()
	if t.tripped {
		t.mu.Unlock()
		return
	}
	t.tripped = true
	cbs := t.callbacks
	t.callbacks = nil
	close(t.done)
	t.mu.Unlock()

	for _, cb := range cbs {
		cb()
	}
}

// IsTripped reports whether the token has been tripped.
func (t *Token) IsTripped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tripped
}

// Done returns a channel that is closed when the token trips.
func (t *Token) Done() <-chan struct{} { return t.done }

// OnTrip registers fn to run when the token trips. If the token already
// tripped, fn runs immediately on the calling goroutine.
func (t *Token) OnTrip(fn func()) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	if t.tripped {
		t.mu.Unlock()
		fn()
		return
	}
	t.callbacks = append(t.callbacks, fn)
	t.mu.Unlock()
}
