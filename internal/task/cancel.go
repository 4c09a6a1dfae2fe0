package task

import "sync/atomic"

// CancelToken is the cooperative cancellation flag shared between a job and
// the manager that started it. Workers read it at the head of every loop
// iteration and around blocking calls; nothing ever forcibly terminates a
// goroutine. A token lives exactly as long as one job invocation.
type CancelToken struct {
	flag atomic.Bool
}

// NewCancelToken returns an unset token.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel sets the token. Safe to call from any goroutine, idempotent.
func (t *CancelToken) Cancel() {
	t.flag.Store(true)
}

// IsSet reports whether cancellation has been requested.
func (t *CancelToken) IsSet() bool {
	if t == nil {
		return false
	}
	return t.flag.Load()
}
