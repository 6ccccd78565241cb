package server

import (
	"fmt"
	"strings"

	mandel "github.com/marben/async_mandel"
)

// Defaults applied to missing or zero fields of a GenerateRequest.
const (
	DefaultImageWidth    = 300
	DefaultImageHeight   = 200
	DefaultFractalWidth  = 3
	DefaultFractalHeight = 2
	DefaultIterations    = 100
)

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	ImageWidth    int     `json:"imageWidth"`
	ImageHeight   int     `json:"imageHeight"`
	FractalWidth  float64 `json:"fractalWidth"`
	FractalHeight float64 `json:"fractalHeight"`
	FractalX      float64 `json:"fractalX"`
	FractalY      float64 `json:"fractalY"`
	Iterations    int     `json:"iterations"`

	// Preset names a landmark; it supplies the window's center and extent.
	Preset string `json:"preset,omitempty"`
}

// GenerateResponse echoes the effective request.
// Accepted is false when a generation was already running.
type GenerateResponse struct {
	GenerateRequest
	Accepted bool `json:"accepted"`
}

// Event is pushed to websocket subscribers.
type Event struct {
	Event string `json:"event"`
	mandel.Progress
}

const (
	EventProgress = "progress"
	EventDone     = "done"
)

// Resolve fills in defaults and the preset window.
func (g GenerateRequest) Resolve() (GenerateRequest, error) {
	if g.Preset != "" {
		win, ok := mandel.Presets[g.Preset]
		if !ok {
			return g, fmt.Errorf("unknown preset %q, known: %s", g.Preset, strings.Join(mandel.PresetNames(), ", "))
		}
		r := win.Request(0, 0, 0)
		g.FractalWidth, g.FractalHeight = r.PlaneWidth, r.PlaneHeight
		g.FractalX, g.FractalY = r.CenterX, r.CenterY
	}

	if g.ImageWidth == 0 {
		g.ImageWidth = DefaultImageWidth
	}
	if g.ImageHeight == 0 {
		g.ImageHeight = DefaultImageHeight
	}
	if g.FractalWidth == 0 {
		g.FractalWidth = DefaultFractalWidth
	}
	if g.FractalHeight == 0 {
		g.FractalHeight = DefaultFractalHeight
	}
	if g.Iterations == 0 {
		g.Iterations = DefaultIterations
	}
	return g, nil
}

// Request converts a resolved body to an engine request.
func (g GenerateRequest) Request() mandel.Request {
	return mandel.Request{
		Width:         g.ImageWidth,
		Height:        g.ImageHeight,
		PlaneWidth:    g.FractalWidth,
		PlaneHeight:   g.FractalHeight,
		CenterX:       g.FractalX,
		CenterY:       g.FractalY,
		MaxIterations: g.Iterations,
	}
}
