package resilience

import "sync"

// SingleFlight collapses concurrent calls for the same key into a single
// execution. The zero value is ready to use.
type SingleFlight struct {
	mu      sync.Mutex
	pending map[string]*flightCall
}

type flightCall struct {
	done chan struct{}
	val  any
	err  error
}

// Do runs fn once per key at a time. Callers that arrive while an identical
// call is in flight block until it finishes and receive its result, with
// shared reporting true.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (val any, err error, shared bool) {
	g.mu.Lock()
	if c, ok := g.pending[key]; ok {
		g.mu.Unlock()
		<-c.done
		return c.val, c.err, true
	}

	c := &flightCall{done: make(chan struct{})}
	if g.pending == nil {
		g.pending = make(map[string]*flightCall)
	}
	g.pending[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()

	g.mu.Lock()
	delete(g.pending, key)
	g.mu.Unlock()
	close(c.done)

	return c.val, c.err, false
}
