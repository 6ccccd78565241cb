package engine

import "sync"

// notifier carries the completion token from the worker to the caller.
// The token holds no payload; the caller reads the result through the engine.
// Pending tokens coalesce: a caller that dispatches late sees one event.
type notifier struct {
	mu sync.Mutex
	cb func()

	pending chan struct{}
}

func newNotifier() *notifier {
	return &notifier{pending: make(chan struct{}, 1)}
}

// set replaces the registered callback. nil clears it.
func (n *notifier) set(cb func()) {
	n.mu.Lock()
	n.cb = cb
	n.mu.Unlock()
}

// post arms the notifier. Safe to call from any goroutine, never blocks.
func (n *notifier) post() {
	select {
	case n.pending <- struct{}{}:
	default:
	}
}

// drain discards a token nobody has delivered yet.
func (n *notifier) drain() {
	select {
	case <-n.pending:
	default:
	}
}

// deliver runs whichever callback is registered right now.
func (n *notifier) deliver() {
	n.mu.Lock()
	cb := n.cb
	n.mu.Unlock()

	if cb != nil {
		cb()
	}
}
