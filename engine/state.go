package engine

import (
	"sync"
	"sync/atomic"

	mandel "github.com/marben/async_mandel"
)

// Phase is the generation state machine's mode.
type Phase int32

const (
	Idle Phase = iota
	Generating
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Generating:
		return "generating"
	}
	return "unknown"
}

// generationState is shared between the caller and the compute worker.
// progress is advanced lock-free by the worker. sm only orders phase changes
// against snapshots so a reader that sees Idle also sees the final count.
// active is only written by Submit while the engine lock is held.
type generationState struct {
	sm        sync.Mutex
	phase     atomic.Int32
	progress  atomic.Int64
	max       atomic.Int64
	completed atomic.Bool

	active mandel.Request
}

func (s *generationState) current() Phase {
	return Phase(s.phase.Load())
}

func (s *generationState) generating() bool {
	return s.current() == Generating
}

// begin is called with the engine lock held and only while idle.
func (s *generationState) begin(r mandel.Request) {
	s.sm.Lock()
	defer s.sm.Unlock()

	s.active = r
	s.progress.Store(0)
	s.max.Store(int64(r.Pixels()))
	s.phase.Store(int32(Generating))
}

func (s *generationState) advance(n int) {
	s.progress.Add(int64(n))
}

// finish flips the phase back to idle. Everything the worker wrote
// before finish is visible to whoever observes Idle.
func (s *generationState) finish() {
	s.sm.Lock()
	defer s.sm.Unlock()

	s.completed.Store(true)
	s.phase.Store(int32(Idle))
}

func (s *generationState) snapshot() mandel.Progress {
	s.sm.Lock()
	defer s.sm.Unlock()

	return mandel.Progress{
		Progress:   int(s.progress.Load()),
		Max:        int(s.max.Load()),
		Generating: s.generating(),
	}
}
