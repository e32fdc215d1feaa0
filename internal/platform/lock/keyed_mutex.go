package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrLockTimeout = errors.New("lock wait timed out")

// KeyedMutex is an in-process mutex per key. Idle keys are dropped.
type KeyedMutex struct {
	mu          sync.Mutex
	locks       map[string]*keyLock
	waitTimeout time.Duration
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex bounds each Lock wait by waitTimeout when it is > 0.
func NewKeyedMutex(waitTimeout time.Duration) *KeyedMutex {
	return &KeyedMutex{
		locks:       make(map[string]*keyLock),
		waitTimeout: waitTimeout,
	}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	if m.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.waitTimeout)
		defer cancel()
	}

	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, l)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: key=%s", ErrLockTimeout, key)
		}
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			m.release(key, l)
		})
	}, nil
}

func (m *KeyedMutex) release(key string, l *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

// size reports tracked keys; used by tests.
func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
