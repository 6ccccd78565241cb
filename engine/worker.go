package engine

import (
	"image"
	"log"
	"sync"
	"time"

	mandel "github.com/marben/async_mandel"
	"github.com/marben/async_mandel/render"
)

// computeWorker renders one request into the shared buffer.
// The image is split into full-width row bands which a fixed number of
// goroutines pop until none are left.
type computeWorker struct {
	req    mandel.Request
	img    *image.RGBA
	state  *generationState
	logger *log.Logger

	workers int

	unstarted []image.Rectangle
	m         sync.Mutex
}

func newComputeWorker(r mandel.Request, img *image.RGBA, state *generationState, workers, tileRows int, logger *log.Logger) *computeWorker {
	var tiles []image.Rectangle
	if !img.Rect.Empty() {
		tiles = splitRectNoClip(img.Rect, img.Rect.Dx(), tileRows)
	}
	if workers > len(tiles) {
		workers = len(tiles)
	}
	return &computeWorker{
		req:       r,
		img:       img,
		state:     state,
		logger:    logger,
		workers:   workers,
		unstarted: tiles,
	}
}

func (cw *computeWorker) popTile() (tile image.Rectangle, found bool) {
	cw.m.Lock()
	defer cw.m.Unlock()

	if len(cw.unstarted) == 0 {
		return image.Rectangle{}, false
	}
	tile = cw.unstarted[0]
	cw.unstarted = cw.unstarted[1:]
	return tile, true
}

// render works off tiles until the queue is empty.
// Can be called from multiple goroutines in parallel.
func (cw *computeWorker) render() {
	for {
		tile, found := cw.popTile()
		if !found {
			return
		}
		render.RenderTile(cw.img, cw.req, tile, cw.state.advance)
	}
}

// run renders every pixel and returns once all of them are written.
func (cw *computeWorker) run() {
	start := time.Now()
	cw.logger.Printf("rendering %s on %d workers", cw.req, cw.workers)

	var wg sync.WaitGroup
	for range cw.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cw.render()
		}()
	}
	wg.Wait()

	cw.logger.Printf("rendered %d pixels in %s", cw.state.progress.Load(), time.Since(start))
}

// splitRectNoClip splits r into tiles of size tileW × tileH.
// Tiles at the right and bottom edges are smaller if r is not divisible.
func splitRectNoClip(r image.Rectangle, tileW, tileH int) []image.Rectangle {
	if tileW <= 0 || tileH <= 0 {
		panic("tile dimensions must be positive")
	}

	w := r.Dx()
	h := r.Dy()

	var tiles []image.Rectangle

	for oy := 0; oy < h; oy += tileH {
		th := tileH
		if oy+th > h {
			th = h - oy
		}

		for ox := 0; ox < w; ox += tileW {
			tw := tileW
			if ox+tw > w {
				tw = w - ox
			}

			tile := image.Rect(
				r.Min.X+ox,
				r.Min.Y+oy,
				r.Min.X+ox+tw,
				r.Min.Y+oy+th,
			)
			tiles = append(tiles, tile)
		}
	}

	return tiles
}
