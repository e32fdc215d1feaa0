package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "same-key", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_InvalidationDuringLoadIsNotCached(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan any)
	go func() {
		v, _ := store.GetOrLoad(context.Background(), "game:list", func(context.Context) (any, error) {
			close(started)
			<-release
			return "stale", nil
		})
		done <- v
	}()

	<-started
	store.DeletePrefix(context.Background(), "game:")
	close(release)

	if got := <-done; got != "stale" {
		t.Fatalf("unexpected loaded value: got=%v want=stale", got)
	}
	if _, ok := store.Get(context.Background(), "game:list"); ok {
		t.Fatalf("value loaded before invalidation must not be cached")
	}
}

func TestStore_Get_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(time.Minute)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "admin:id:a1", "cached")
	if _, ok := store.Get(context.Background(), "admin:id:a1"); !ok {
		t.Fatalf("expected fresh entry")
	}

	now = now.Add(time.Minute)
	if _, ok := store.Get(context.Background(), "admin:id:a1"); ok {
		t.Fatalf("expected entry to expire at ttl")
	}
}

func TestStore_EvictsSoonestExpiryWhenFull(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(time.Minute, WithMaxEntries(2))
	store.now = func() time.Time { return now }
	ctx := context.Background()

	store.Set(ctx, "oldest", 1)
	now = now.Add(time.Second)
	store.Set(ctx, "newer", 2)
	now = now.Add(time.Second)
	store.Set(ctx, "newest", 3)

	if store.Len() != 2 {
		t.Fatalf("unexpected size: got=%d want=2", store.Len())
	}
	if _, ok := store.Get(ctx, "oldest"); ok {
		t.Fatalf("expected oldest entry to be evicted")
	}
	if _, ok := store.Get(ctx, "newest"); !ok {
		t.Fatalf("expected newest entry to be kept")
	}

	store.Set(ctx, "newer", 20)
	if store.Len() != 2 {
		t.Fatalf("overwriting a key must not evict: size=%d", store.Len())
	}
}

func TestNamespace_ClonesAndInvalidates(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	ns := NewNamespace[[]string](store, "game:")
	other := NewNamespace[[]string](store, "user:")
	ctx := context.Background()
	var loads atomic.Int32
	load := func(context.Context) ([]string, error) {
		loads.Add(1)
		return []string{"g1", "g2"}, nil
	}
	clone := func(v []string) []string { return append([]string(nil), v...) }

	first, err := ns.GetOrLoad(ctx, "all", load, clone)
	if err != nil {
		t.Fatalf("load namespace: %v", err)
	}
	first[0] = "mutated"

	second, err := ns.GetOrLoad(ctx, "all", load, clone)
	if err != nil {
		t.Fatalf("reload namespace: %v", err)
	}
	if second[0] != "g1" || loads.Load() != 1 {
		t.Fatalf("expected cached unmutated copy: got=%v loads=%d", second, loads.Load())
	}

	if _, err := other.GetOrLoad(ctx, "top", load, clone); err != nil {
		t.Fatalf("load other namespace: %v", err)
	}
	ns.Invalidate(ctx)
	if _, ok := store.Get(ctx, "game:all"); ok {
		t.Fatalf("expected namespace keys to be dropped")
	}
	if _, ok := store.Get(ctx, "user:top"); !ok {
		t.Fatalf("expected other namespace to survive")
	}
}

func TestNamespace_TypeMismatch(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	store.Set(context.Background(), "game:all", 42)
	_, err := NewNamespace[[]string](store, "game:").GetOrLoad(context.Background(), "all", func(context.Context) ([]string, error) {
		return nil, nil
	}, nil)
	if err == nil {
		t.Fatalf("expected type mismatch error")
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
