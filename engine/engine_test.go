package engine

import (
	"context"
	"errors"
	"image"
	"io"
	"log"
	"testing"
	"time"

	mandel "github.com/marben/async_mandel"
	"github.com/marben/async_mandel/render"
)

func quietEngine(opts ...Option) *Engine {
	opts = append([]Option{WithLogger(log.New(io.Discard, "", 0))}, opts...)
	return New(opts...)
}

// gate holds the next worker until release is called.
func gate(e *Engine) (release func()) {
	ch := make(chan struct{})
	e.startHook = func() { <-ch }
	return func() { close(ch) }
}

var smallRequest = mandel.Request{
	Width: 32, Height: 24,
	PlaneWidth: 3, PlaneHeight: 2,
	CenterX: -0.5, CenterY: 0,
	MaxIterations: 50,
}

func TestAwaitBeforeSubmit(t *testing.T) {
	e := quietEngine()

	returned := make(chan struct{})
	go func() {
		e.Await()
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Await blocked with no generation")
	}

	if p := e.Progress(); p.Generating || p.Progress != 0 {
		t.Fatalf("unexpected progress %+v", p)
	}
}

func TestGenerateMatchesRender(t *testing.T) {
	e := quietEngine(WithWorkers(3), WithTileRows(5))

	if !e.Submit(smallRequest) {
		t.Fatal("Submit rejected on idle engine")
	}
	e.Await()

	p := e.Progress()
	if p.Generating || p.Progress != smallRequest.Pixels() || p.Max != smallRequest.Pixels() {
		t.Fatalf("progress %+v, want %d/%d idle", p, smallRequest.Pixels(), smallRequest.Pixels())
	}

	img, ok := e.Result()
	if !ok {
		t.Fatal("no result after Await")
	}
	want := render.Render(smallRequest)
	if !img.Rect.Eq(want.Rect) {
		t.Fatalf("bounds %v, want %v", img.Rect, want.Rect)
	}
	for i := range want.Pix {
		if img.Pix[i] != want.Pix[i] {
			t.Fatalf("byte %d = %d, want %d", i, img.Pix[i], want.Pix[i])
		}
	}
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 255 {
			t.Fatalf("alpha at byte %d = %d", i, img.Pix[i])
		}
	}
}

func TestProgressMonotonic(t *testing.T) {
	e := quietEngine(WithWorkers(2), WithTileRows(1))
	r := smallRequest
	r.Width, r.Height, r.MaxIterations = 200, 150, 200

	e.Submit(r)

	last := 0
	for {
		p := e.Progress()
		if p.Progress < last {
			t.Fatalf("progress went from %d to %d", last, p.Progress)
		}
		last = p.Progress
		if !p.Generating {
			if p.Progress != r.Pixels() {
				t.Fatalf("idle with progress %d, want %d", p.Progress, r.Pixels())
			}
			break
		}
	}
}

func TestSubmitWhileGeneratingIsDropped(t *testing.T) {
	e := quietEngine()
	release := gate(e)

	if !e.Submit(smallRequest) {
		t.Fatal("first Submit rejected")
	}
	other := smallRequest
	other.Width, other.Height = 10, 10
	if e.Submit(other) {
		t.Fatal("second Submit accepted while generating")
	}

	e.mu.RLock()
	active := e.state.active
	allocs := e.buf.allocs
	e.mu.RUnlock()
	if active != smallRequest {
		t.Fatalf("active request changed to %s", active)
	}
	if allocs != 1 {
		t.Fatalf("allocs = %d, want 1", allocs)
	}
	if p := e.Progress(); !p.Generating || p.Max != smallRequest.Pixels() {
		t.Fatalf("progress %+v after dropped submit", p)
	}
	if _, ok := e.Result(); ok {
		t.Fatal("Result available while generating")
	}

	release()
	e.Await()

	img, ok := e.Result()
	if !ok {
		t.Fatal("no result")
	}
	if img.Rect.Dx() != smallRequest.Width || img.Rect.Dy() != smallRequest.Height {
		t.Fatalf("result is %v, want the first request", img.Rect)
	}
}

func TestBufferReuse(t *testing.T) {
	e := quietEngine()

	first := smallRequest
	first.Width, first.Height = 4, 6
	e.Submit(first)
	e.Await()
	ptr := &e.buf.pix[0]

	// Same pixel count, different shape.
	second := first
	second.Width, second.Height = 6, 4
	e.Submit(second)
	e.Await()
	if &e.buf.pix[0] != ptr || e.buf.allocs != 1 {
		t.Fatalf("buffer reallocated for equal pixel count (allocs=%d)", e.buf.allocs)
	}
	img, _ := e.Result()
	if img.Stride != 24 || !img.Rect.Eq(image.Rect(0, 0, 6, 4)) {
		t.Fatalf("result layout stride=%d rect=%v", img.Stride, img.Rect)
	}

	third := first
	third.Width, third.Height = 5, 5
	e.Submit(third)
	e.Await()
	if e.buf.allocs != 2 || len(e.buf.pix) != 5*5*4 {
		t.Fatalf("allocs=%d len=%d, want 2 and %d", e.buf.allocs, len(e.buf.pix), 5*5*4)
	}
}

func TestCornerPixels(t *testing.T) {
	e := quietEngine()
	r := mandel.Request{Width: 2, Height: 1, PlaneWidth: 2, PlaneHeight: 2, MaxIterations: 30}
	e.Submit(r)
	e.Await()

	img, ok := e.Result()
	if !ok {
		t.Fatal("no result")
	}
	for _, tt := range []struct {
		x      int
		fx, fy float64
	}{{0, -1, -1}, {1, 0, -1}} {
		want := render.Color(render.EscapeTime(tt.fx, tt.fy, 30), 30)
		if got := img.RGBAAt(tt.x, 0); got != want {
			t.Errorf("pixel %d = %+v, want %+v", tt.x, got, want)
		}
	}
}

func TestCompletionCallback(t *testing.T) {
	e := quietEngine()

	calls := 0
	e.SetCompletionCallback(func() { calls++ })

	if n := e.Dispatch(); n != 0 {
		t.Fatalf("Dispatch before any generation delivered %d", n)
	}

	e.Submit(smallRequest)
	e.Await()

	if n := e.Dispatch(); n != 1 {
		t.Fatalf("Dispatch delivered %d, want 1", n)
	}
	if calls != 1 {
		t.Fatalf("callback ran %d times, want 1", calls)
	}
	if n := e.Dispatch(); n != 0 {
		t.Fatalf("second Dispatch delivered %d", n)
	}
}

func TestCompletionCallbackLatestWins(t *testing.T) {
	e := quietEngine()
	release := gate(e)

	var got []string
	e.SetCompletionCallback(func() { got = append(got, "first") })
	e.Submit(smallRequest)
	e.SetCompletionCallback(func() { got = append(got, "second") })

	release()
	e.Await()
	e.Dispatch()

	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("delivered to %v, want [second]", got)
	}
}

func TestCompletionCallbackCleared(t *testing.T) {
	e := quietEngine()
	e.SetCompletionCallback(func() { t.Fatal("cleared callback ran") })
	e.SetCompletionCallback(nil)

	e.Submit(smallRequest)
	e.Await()
	if n := e.Dispatch(); n != 1 {
		t.Fatalf("Dispatch delivered %d, want 1", n)
	}
}

func TestUndeliveredCompletionDiscardedBySubmit(t *testing.T) {
	e := quietEngine()
	e.Submit(smallRequest)
	e.Await()

	release := gate(e)
	var seen []mandel.Progress
	e.SetCompletionCallback(func() { seen = append(seen, e.Progress()) })
	if !e.Submit(smallRequest) {
		t.Fatal("Submit rejected after Await")
	}

	if n := e.Dispatch(); n != 0 {
		t.Fatalf("Dispatch during generation delivered %d", n)
	}
	if len(seen) != 0 {
		t.Fatalf("callback ran while generating: %+v", seen)
	}

	release()
	e.Await()
	if n := e.Dispatch(); n != 1 {
		t.Fatalf("Dispatch delivered %d, want 1", n)
	}
	if len(seen) != 1 || seen[0].Generating || !seen[0].Done() {
		t.Fatalf("callback saw %+v, want one finished snapshot", seen)
	}
}

func TestRunDeliversOnCaller(t *testing.T) {
	e := quietEngine()

	fired := make(chan mandel.Progress, 1)
	e.SetCompletionCallback(func() { fired <- e.Progress() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- e.Run(ctx) }()

	e.Submit(smallRequest)

	select {
	case p := <-fired:
		if p.Generating || p.Progress != smallRequest.Pixels() {
			t.Fatalf("callback observed %+v", p)
		}
		if _, ok := e.Result(); !ok {
			t.Fatal("no result visible from callback")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("completion callback not delivered")
	}

	cancel()
	if err := <-runErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
}

func TestWithResult(t *testing.T) {
	e := quietEngine()

	err := e.WithResult(func(*image.RGBA, mandel.Request) error { return nil })
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("WithResult before generation: %v", err)
	}

	e.Submit(smallRequest)
	e.Await()

	var seen mandel.Request
	err = e.WithResult(func(img *image.RGBA, r mandel.Request) error {
		seen = r
		if len(img.Pix) != r.Pixels()*4 {
			t.Errorf("len(Pix) = %d", len(img.Pix))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithResult: %v", err)
	}
	if seen != smallRequest {
		t.Fatalf("WithResult request %s", seen)
	}

	boom := errors.New("boom")
	if err := e.WithResult(func(*image.RGBA, mandel.Request) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("error not propagated: %v", err)
	}
}

func TestSubmitWaitsForWithResult(t *testing.T) {
	e := quietEngine()
	e.Submit(smallRequest)
	e.Await()

	submitted := make(chan bool)
	err := e.WithResult(func(*image.RGBA, mandel.Request) error {
		go func() { submitted <- e.Submit(smallRequest) }()
		select {
		case <-submitted:
			t.Error("Submit returned while the result was being read")
		case <-time.After(50 * time.Millisecond):
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithResult: %v", err)
	}
	if !<-submitted {
		t.Fatal("Submit rejected after WithResult returned")
	}
	e.Await()
}

func TestAwaitContextTimeout(t *testing.T) {
	e := quietEngine()
	release := gate(e)
	defer release()

	e.Submit(smallRequest)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := e.AwaitContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("AwaitContext = %v, want deadline exceeded", err)
	}
	if e.Phase() != Generating {
		t.Fatalf("phase = %s, want generating", e.Phase())
	}
}

func TestDegenerateRequest(t *testing.T) {
	e := quietEngine()
	r := mandel.Request{Width: 0, Height: 10, PlaneWidth: 1, PlaneHeight: 1, MaxIterations: 10}

	if !e.Submit(r) {
		t.Fatal("degenerate request rejected")
	}
	e.Await()

	if p := e.Progress(); p.Generating || p.Progress != 0 || p.Max != 0 {
		t.Fatalf("progress %+v", p)
	}
	img, ok := e.Result()
	if !ok || len(img.Pix) != 0 || !img.Rect.Empty() {
		t.Fatalf("result ok=%v img=%v", ok, img)
	}
}

func TestClose(t *testing.T) {
	e := quietEngine()
	e.Submit(smallRequest)
	e.Close()

	if e.Phase() != Idle {
		t.Fatal("Close returned while generating")
	}
	if e.Submit(smallRequest) {
		t.Fatal("Submit accepted after Close")
	}
	if _, ok := e.Result(); !ok {
		t.Fatal("result lost on Close")
	}
}

func TestSplitRectNoClip(t *testing.T) {
	tiles := splitRectNoClip(image.Rect(0, 0, 10, 7), 10, 3)
	want := []image.Rectangle{
		image.Rect(0, 0, 10, 3),
		image.Rect(0, 3, 10, 6),
		image.Rect(0, 6, 10, 7),
	}
	if len(tiles) != len(want) {
		t.Fatalf("got %d tiles, want %d", len(tiles), len(want))
	}
	for i := range want {
		if tiles[i] != want[i] {
			t.Errorf("tile %d = %v, want %v", i, tiles[i], want[i])
		}
	}
}

func TestPhaseString(t *testing.T) {
	if Idle.String() != "idle" || Generating.String() != "generating" || Phase(7).String() != "unknown" {
		t.Fatal("unexpected Phase names")
	}
}
