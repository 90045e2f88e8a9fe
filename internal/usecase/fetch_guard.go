package usecase

import (
	"sync"
	"time"
)

const defaultFetchThrottle = 5 * time.Second

type guardEntry struct {
	startedAt time.Time
	seq       uint64
}

// FetchGuard throttles repeated fetches of the same scope. A scope is refused
// while an attempt that started less than the window ago has not been released.
type FetchGuard struct {
	mu       sync.Mutex
	window   time.Duration
	inflight map[string]guardEntry
	seq      uint64
	now      func() time.Time
}

func NewFetchGuard(window time.Duration) *FetchGuard {
	if window <= 0 {
		window = defaultFetchThrottle
	}
	return &FetchGuard{
		window:   window,
		inflight: make(map[string]guardEntry),
		now:      time.Now,
	}
}

// TryBegin records an attempt for scope. The returned release is idempotent and
// only clears this attempt, never a later one for the same scope.
func (g *FetchGuard) TryBegin(scope string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if current, exists := g.inflight[scope]; exists && now.Sub(current.startedAt) < g.window {
		return func() {}, false
	}

	g.seq++
	seq := g.seq
	g.inflight[scope] = guardEntry{startedAt: now, seq: seq}

	var once sync.Once
	return func() {
		once.Do(func() { g.end(scope, seq) })
	}, true
}

// Busy reports whether scope would currently be refused.
func (g *FetchGuard) Busy(scope string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, exists := g.inflight[scope]
	return exists && g.now().Sub(current.startedAt) < g.window
}

func (g *FetchGuard) end(scope string, seq uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if current, exists := g.inflight[scope]; exists && current.seq == seq {
		delete(g.inflight, scope)
	}
}
