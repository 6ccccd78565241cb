// Package engine renders Mandelbrot rasters on a background worker.
//
// At most one generation runs at a time. Submitting while a generation is in
// flight drops the new request. The caller polls Progress, waits with Await,
// and receives completion events on its own goroutine through Dispatch or Run.
//
// Await is intended for a single caller goroutine. Several goroutines awaiting
// the same generation all return once it finishes, but there is no ordering
// between them and a Submit racing with them.
package engine

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"

	mandel "github.com/marben/async_mandel"
)

// ErrNoResult is returned by WithResult while no finished generation exists.
var ErrNoResult = errors.New("engine: no result available")

// Engine owns the generation state, the pixel buffer and the completion callback.
type Engine struct {
	cfg    config
	logger *log.Logger

	// mu guards buf, done, closed and state.active.
	// Submit takes it exclusively; readers of the buffer share it.
	mu     sync.RWMutex
	state  generationState
	buf    pixelBuffer
	done   chan struct{} // closed when the current worker has retired
	closed bool

	notify *notifier

	// startHook, when set, runs on the worker goroutine before rendering.
	startHook func()
}

var _ mandel.Generator = (*Engine)(nil)

// New creates an idle engine.
func New(opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Engine{
		cfg:    cfg,
		logger: cfg.logger,
		notify: newNotifier(),
	}
}

// Submit starts rendering r and reports whether it was accepted.
// While a generation is running, or after Close, the request is dropped:
// state, progress and the buffer are left untouched.
func (e *Engine) Submit(r mandel.Request) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		e.logger.Printf("engine closed, dropping %s", r)
		return false
	}
	if e.state.generating() {
		e.logger.Printf("generation in progress, dropping %s", r)
		return false
	}

	// The previous worker flips the phase just before it retires.
	if e.done != nil {
		<-e.done
	}
	// A token left over from the previous generation must not be
	// delivered while this one runs.
	e.notify.drain()

	if e.buf.ensure(r.Pixels()) {
		e.logger.Printf("allocated pixel buffer: %d bytes", len(e.buf.pix))
	}
	img := e.buf.image(r)
	e.state.begin(r)

	done := make(chan struct{})
	e.done = done
	cw := newComputeWorker(r, img, &e.state, e.cfg.workers, e.cfg.tileRows, e.logger)

	go func() {
		if e.startHook != nil {
			e.startHook()
		}
		cw.run()
		e.state.finish()
		e.notify.post()
		close(done)
	}()
	return true
}

// Progress is safe to call at any time. Within one generation the count
// never decreases, and it equals Max once Generating reads false.
func (e *Engine) Progress() mandel.Progress {
	return e.state.snapshot()
}

// Phase reports the state machine's current mode.
func (e *Engine) Phase() Phase {
	return e.state.current()
}

// Result returns the last finished raster. ok is false while generating or
// before the first generation completed. The image aliases the engine's
// buffer and is overwritten by the next accepted Submit; use WithResult to
// read it without racing one.
func (e *Engine) Result() (img *image.RGBA, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.resultLocked()
}

func (e *Engine) resultLocked() (*image.RGBA, bool) {
	if e.state.generating() || !e.state.completed.Load() {
		return nil, false
	}
	return e.buf.image(e.state.active), true
}

// WithResult calls fn with the last finished raster.
// No generation can start while fn runs, so fn must not call Submit or
// Close: both wait for fn to return and deadlock.
func (e *Engine) WithResult(fn func(img *image.RGBA, r mandel.Request) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	img, ok := e.resultLocked()
	if !ok {
		return ErrNoResult
	}
	return fn(img, e.state.active)
}

// Await blocks until the running generation finishes.
// It returns at once when idle, including before any Submit.
func (e *Engine) Await() {
	_ = e.AwaitContext(context.Background())
}

// AwaitContext is Await bounded by ctx.
func (e *Engine) AwaitContext(ctx context.Context) error {
	e.mu.RLock()
	done := e.done
	e.mu.RUnlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetCompletionCallback replaces the completion callback. nil clears it.
// The callback registered when the event is delivered is the one that runs,
// even if it was registered after the generation started.
func (e *Engine) SetCompletionCallback(cb func()) {
	e.notify.set(cb)
}

// Dispatch delivers a pending completion event on the calling goroutine
// and reports how many were delivered. It never blocks.
func (e *Engine) Dispatch() int {
	select {
	case <-e.notify.pending:
		e.notify.deliver()
		return 1
	default:
		return 0
	}
}

// Run delivers completion events on the calling goroutine until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-e.notify.pending:
			e.notify.deliver()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close rejects further submissions and waits for a running generation.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	done := e.done
	e.mu.Unlock()

	if done != nil {
		<-done
	}
	e.logger.Printf("engine closed")
}
