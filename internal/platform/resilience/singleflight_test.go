package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGroup_DoCollapsesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var g Group[string]
	var counter atomic.Int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err, _ := g.Do("principal:token", func() (string, error) {
				counter.Add(1)
				time.Sleep(20 * time.Millisecond)
				return "user-1", nil
			})
			if err != nil || v != "user-1" {
				t.Errorf("unexpected result: v=%q err=%v", v, err)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := counter.Load(); got != 1 {
		t.Fatalf("unexpected executions: got=%d want=1", got)
	}
}

func TestGroup_PanicReleasesWaiters(t *testing.T) {
	t.Parallel()

	var g Group[int]
	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		defer func() { _ = recover() }()
		_, _, _ = g.Do("k", func() (int, error) {
			close(entered)
			<-release
			panic("boom")
		})
	}()

	<-entered
	result := make(chan error, 1)
	go func() {
		_, err, shared := g.Do("k", func() (int, error) { return 1, nil })
		if !shared {
			result <- nil
			return
		}
		result <- err
	}()

	time.Sleep(10 * time.Millisecond)
	close(release)

	select {
	case err := <-result:
		if err != nil && !errors.Is(err, ErrFlightPanicked) {
			t.Fatalf("unexpected waiter error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("waiter was not released after panic")
	}
}
