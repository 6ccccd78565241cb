package mandel

import (
	"fmt"
	"sort"
)

// Request describes one raster of the Mandelbrot set.
// The plane window is centered on (CenterX, CenterY) and spans PlaneWidth × PlaneHeight.
type Request struct {
	Width, Height           int
	PlaneWidth, PlaneHeight float64
	CenterX, CenterY        float64
	MaxIterations           int
}

// Corner returns the top-left corner of the plane window.
func (r Request) Corner() (left, top float64) {
	return r.CenterX - r.PlaneWidth/2, r.CenterY - r.PlaneHeight/2
}

// Pixels is the number of pixels the request renders.
// Non-positive dimensions render nothing.
func (r Request) Pixels() int {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Point maps pixel (x, y) to its coordinate in the complex plane.
func (r Request) Point(x, y int) (fx, fy float64) {
	left, top := r.Corner()
	fx = float64(x)*r.PlaneWidth/float64(r.Width) + left
	fy = float64(y)*r.PlaneHeight/float64(r.Height) + top
	return fx, fy
}

func (r Request) String() string {
	return fmt.Sprintf("%dx%d center=(%g,%g) plane=%gx%g iter=%d",
		r.Width, r.Height, r.CenterX, r.CenterY, r.PlaneWidth, r.PlaneHeight, r.MaxIterations)
}

// Window is a rectangular area of the complex plane.
type Window struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// Request builds a request rendering the window at w×h pixels.
func (win Window) Request(w, h, maxIter int) Request {
	return Request{
		Width:         w,
		Height:        h,
		PlaneWidth:    win.Xmax - win.Xmin,
		PlaneHeight:   win.Ymax - win.Ymin,
		CenterX:       (win.Xmin + win.Xmax) / 2,
		CenterY:       (win.Ymin + win.Ymax) / 2,
		MaxIterations: maxIter,
	}
}

// Classic regions / landmarks in the Mandelbrot set
var (
	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = Window{
		Xmin: -0.8,
		Xmax: -0.7,
		Ymin: 0.05,
		Ymax: 0.15,
	}

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = Window{
		Xmin: -1.85,
		Xmax: -1.75,
		Ymin: -0.10,
		Ymax: -0.02,
	}

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = Window{
		Xmin: -0.7435,
		Xmax: -0.7420,
		Ymin: 0.1310,
		Ymax: 0.1325,
	}

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = Window{
		Xmin: -0.7480,
		Xmax: -0.7450,
		Ymin: 0.0950,
		Ymax: 0.0980,
	}

	// Valley of the Dragon – deep, highly detailed spiral filaments
	ValleyOfTheDragon = Window{
		Xmin: -0.7400,
		Xmax: -0.7350,
		Ymin: 0.1800,
		Ymax: 0.1850,
	}

	// Minibrot in a Mini-Spiral – self-similar Mandelbrot copy inside a spiral arm
	MinibrotInMiniSpiral = Window{
		Xmin: -1.7390,
		Xmax: -1.7375,
		Ymin: -0.0235,
		Ymax: -0.0220,
	}
)

// Presets maps landmark names, as accepted on the wire, to their windows.
var Presets = map[string]Window{
	"seahorse-valley":         SeahorseValley,
	"elephant-valley":         ElephantValley,
	"spiral-minibrot":         SpiralMinibrot,
	"triple-spiral":           TripleSpiral,
	"valley-of-the-dragon":    ValleyOfTheDragon,
	"minibrot-in-mini-spiral": MinibrotInMiniSpiral,
}

// PresetNames returns the landmark names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for n := range Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
