// render draws a Mandelbrot image locally and saves it as PNG.
// It drives the engine from main: polls progress and receives the
// completion callback on the main goroutine.

package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	mandel "github.com/marben/async_mandel"
	"github.com/marben/async_mandel/engine"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run(args []string) error {
	var (
		req     mandel.Request
		preset  string
		output  string
		workers int
	)
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.IntVar(&req.Width, "width", 1920, "image width in pixels")
	fs.IntVar(&req.Height, "height", 1080, "image height in pixels")
	fs.Float64Var(&req.PlaneWidth, "plane-width", 3, "width of the complex plane window")
	fs.Float64Var(&req.PlaneHeight, "plane-height", 2, "height of the complex plane window")
	fs.Float64Var(&req.CenterX, "x", -0.5, "window center, real part")
	fs.Float64Var(&req.CenterY, "y", 0, "window center, imaginary part")
	fs.IntVar(&req.MaxIterations, "iter", 1000, "maximum iterations")
	fs.StringVar(&preset, "preset", "", "landmark: "+strings.Join(mandel.PresetNames(), ", "))
	fs.StringVar(&output, "o", "mandel.png", "output file")
	fs.IntVar(&workers, "workers", 0, "render goroutines, 0 for GOMAXPROCS")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if preset != "" {
		win, ok := mandel.Presets[preset]
		if !ok {
			return fmt.Errorf("unknown preset %q", preset)
		}
		req = win.Request(req.Width, req.Height, req.MaxIterations)
	}

	eng := engine.New(engine.WithWorkers(workers))
	defer eng.Close()

	finished := false
	eng.SetCompletionCallback(func() { finished = true })

	start := time.Now()
	eng.Submit(req)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for !finished {
		<-ticker.C
		p := eng.Progress()
		if p.Max > 0 {
			log.Printf("progress: %d/%d (%.1f%%)", p.Progress, p.Max, 100*float64(p.Progress)/float64(p.Max))
		}
		eng.Dispatch()
	}
	log.Printf("rendered %s in %s", req, time.Since(start))

	return eng.WithResult(func(img *image.RGBA, _ mandel.Request) error {
		return save(output, img)
	})
}

func save(filename string, img image.Image) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	log.Printf("saved %q", filename)
	return nil
}
