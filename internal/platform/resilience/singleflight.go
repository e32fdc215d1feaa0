package resilience

import (
	"errors"
	"sync"
)

var ErrFlightPanicked = errors.New("singleflight call panicked")

// Group collapses concurrent calls that share a key into one execution.
// The zero value is ready to use.
type Group[T any] struct {
	mu    sync.Mutex
	calls map[string]*flight[T]
}

type flight[T any] struct {
	done   chan struct{}
	val    T
	err    error
	panics bool
}

// Do runs fn once per key at a time. Callers arriving while it runs wait
// and receive the same result with shared=true. If fn panics, waiters are
// released with ErrFlightPanicked and the panic continues in the caller that ran fn.
func (g *Group[T]) Do(key string, fn func() (T, error)) (val T, err error, shared bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*flight[T])
	}
	if f, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-f.done
		if f.panics {
			var zero T
			return zero, ErrFlightPanicked, true
		}
		return f.val, f.err, true
	}

	f := &flight[T]{done: make(chan struct{}), panics: true}
	g.calls[key] = f
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
		close(f.done)
	}()

	f.val, f.err = fn()
	f.panics = false
	return f.val, f.err, false
}
