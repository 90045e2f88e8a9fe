package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_Do(t *testing.T) {
	var g SingleFlight
	var counter int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err, _ := g.Do("selections:token-hash", func() (any, error) {
				atomic.AddInt32(&counter, 1)
				time.Sleep(20 * time.Millisecond)
				return "ok", nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
}

func TestSingleFlight_ForgetStartsFreshCall(t *testing.T) {
	var g SingleFlight
	release := make(chan struct{})
	started := make(chan struct{})
	var counter int32

	go func() {
		_, _, _ = g.Do("games?date=2024-05-01", func() (any, error) {
			atomic.AddInt32(&counter, 1)
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	g.Forget("games?date=2024-05-01")
	_, _, shared := g.Do("games?date=2024-05-01", func() (any, error) {
		atomic.AddInt32(&counter, 1)
		return "fresh", nil
	})
	close(release)

	if shared {
		t.Fatalf("expected fresh call after forget")
	}
	if got := atomic.LoadInt32(&counter); got != 2 {
		t.Fatalf("expected two executions, got %d", got)
	}
}

func TestSingleFlight_DoContext_JoinerStopsOnOwnContext(t *testing.T) {
	var g SingleFlight
	release := make(chan struct{})
	started := make(chan struct{})
	defer close(release)

	go func() {
		_, _, _ = g.Do("players?gameId=g1&teamId=t1", func() (any, error) {
			close(started)
			<-release
			return "late", nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err, shared := g.DoContext(ctx, "players?gameId=g1&teamId=t1", func() (any, error) {
		t.Errorf("joiner must not run fn")
		return nil, nil
	})
	if !shared {
		t.Fatalf("expected to join the in-flight call")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
