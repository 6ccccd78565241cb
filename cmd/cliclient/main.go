// cliclient asks a Mandelbrot server to render an image, waits for it over
// websocket and saves the result as a PNG file.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	mandel "github.com/marben/async_mandel"
	"github.com/marben/async_mandel/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func run(args []string) error {
	var (
		addr   string
		output string
		req    server.GenerateRequest
	)
	fs := flag.NewFlagSet("cliclient", flag.ContinueOnError)
	fs.StringVar(&addr, "server", "http://localhost:8080", "server base url")
	fs.StringVar(&output, "o", "mandel.png", "output file")
	fs.IntVar(&req.ImageWidth, "width", 0, "image width in pixels")
	fs.IntVar(&req.ImageHeight, "height", 0, "image height in pixels")
	fs.Float64Var(&req.FractalWidth, "plane-width", 0, "width of the complex plane window")
	fs.Float64Var(&req.FractalHeight, "plane-height", 0, "height of the complex plane window")
	fs.Float64Var(&req.FractalX, "x", 0, "window center, real part")
	fs.Float64Var(&req.FractalY, "y", 0, "window center, imaginary part")
	fs.IntVar(&req.Iterations, "iter", 0, "maximum iterations")
	fs.StringVar(&req.Preset, "preset", "", "landmark: "+strings.Join(mandel.PresetNames(), ", "))
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := newClient(addr)

	// Step 1: Submit the request
	log.Printf("Submitting generation to %s...", addr)
	resp, err := c.generate(ctx, req)
	if err != nil {
		return err
	}
	if !resp.Accepted {
		log.Printf("Server is busy with another generation; waiting for it instead")
	}

	// Step 2: Wait for completion
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.CloseNow()
	if err := c.awaitDone(ctx, conn); err != nil {
		return err
	}

	// Step 3: Save the rendered image to a PNG file
	log.Printf("Saving rendered image to %q...", output)
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := c.result(ctx, f); err != nil {
		return err
	}

	log.Printf("Fully rendered %dx%d image saved to %q", resp.ImageWidth, resp.ImageHeight, output)
	return nil
}
