package correlator

import "sync"

// outcome is what a waiter eventually receives: a result or an error,
// never both.
type outcome[R any] struct {
	result R
	err    error
}

// table tracks pending requests keyed by job identifier. It is the single
// piece of state shared between the dispatch path and the listener loop,
// and every transition that settles an entry deletes it under the lock,
// so exactly one of response, timeout, or shutdown ever wins an entry.
type table[R any] struct {
	mu      sync.Mutex
	pending map[string]chan outcome[R]
	closed  bool
}

func newTable[R any]() *table[R] {
	return &table[R]{pending: make(map[string]chan outcome[R])}
}

// add registers a pending entry and returns the channel its outcome will
// be delivered on. The channel is buffered so the winner never blocks.
func (t *table[R]) add(id string) (<-chan outcome[R], error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrShuttingDown
	}
	if _, exists := t.pending[id]; exists {
		return nil, ErrDuplicateJob
	}
	ch := make(chan outcome[R], 1)
	t.pending[id] = ch
	return ch, nil
}

// resolve settles the entry for id with a result. It reports false when
// no such entry is pending (already settled, timed out, or foreign).
func (t *table[R]) resolve(id string, result R) bool {
	t.mu.Lock()
	ch, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	ch <- outcome[R]{result: result}
	return true
}

// take removes the entry for id without settling it, reporting whether
// the caller won the race. A false return means another path settled the
// entry first and its outcome is already on the channel.
func (t *table[R]) take(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[id]; !ok {
		return false
	}
	delete(t.pending, id)
	return true
}

// len returns the number of in-flight entries.
func (t *table[R]) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// close fails every pending entry with ErrShuttingDown and rejects
// further adds.
func (t *table[R]) close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	settled := make([]chan outcome[R], 0, len(t.pending))
	for id, ch := range t.pending {
		settled = append(settled, ch)
		delete(t.pending, id)
	}
	t.mu.Unlock()

	for _, ch := range settled {
		ch <- outcome[R]{err: ErrShuttingDown}
	}
}
