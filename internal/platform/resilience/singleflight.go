package resilience

import (
	"context"
	"sync"
)

// SingleFlight deduplicates concurrent calls for the same key. Later callers
// share the first caller's result.
type SingleFlight struct {
	mu    sync.Mutex
	calls map[string]*call
}

type call struct {
	done chan struct{}
	val  any
	err  error
	dups int
}

func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	return g.DoContext(context.Background(), key, fn)
}

// DoContext is Do where a caller that joins an in-flight call stops waiting
// when its own ctx is done. The leader always runs fn to completion.
func (g *SingleFlight) DoContext(ctx context.Context, key string, fn func() (any, error)) (any, error, bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call)
	}

	if c, ok := g.calls[key]; ok {
		c.dups++
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.val, c.err, true
		case <-ctx.Done():
			return nil, ctx.Err(), true
		}
	}

	c := &call{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	val, err := fn()

	g.mu.Lock()
	c.val, c.err = val, err
	close(c.done)
	if g.calls[key] == c {
		delete(g.calls, key)
	}
	dups := c.dups
	g.mu.Unlock()

	return val, err, dups > 0
}

// Forget drops an in-flight key so the next caller starts a fresh call
// instead of joining the current one.
func (g *SingleFlight) Forget(key string) {
	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
}
