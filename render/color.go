package render

import (
	"image/color"
	"math"
)

// Inside is the color of points that never escape.
var Inside = color.RGBA{A: 255}

// Color maps an escape iteration n to its RGBA color.
func Color(n, maxIter int) color.RGBA {
	if n == maxIter {
		return Inside
	}
	hue := Wrap(float64(n)*3.3, 0, 256) / 256
	bri := Wrap(float64(n)*16.0, 0, 256) / 256
	return HSB(hue, 1.0, bri)
}

// Wrap normalizes v into [min, max) by subtracting whole multiples of the range.
// A degenerate range (max <= min) yields max.
func Wrap(v, min, max float64) float64 {
	if max <= min {
		return max
	}
	span := max - min
	quot := math.Floor((v - min) / span)
	return v - quot*span
}

// HSB converts hue, saturation and brightness in [0,1] to an opaque RGBA color.
func HSB(h, s, v float64) color.RGBA {
	if s == 0 {
		g := channel(v)
		return color.RGBA{g, g, g, 255}
	}

	hh := h * 6
	sector := math.Floor(hh)
	f := hh - sector
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	i := int(sector) % 6
	if i < 0 {
		i += 6
	}

	var r, g, b float64
	switch i {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}
	return color.RGBA{channel(r), channel(g), channel(b), 255}
}

// channel scales x in [0,1] to a byte, rounding half up.
func channel(x float64) uint8 {
	c := math.Floor(x*255 + 0.5)
	switch {
	case c < 0 || math.IsNaN(c):
		return 0
	case c > 255:
		return 255
	}
	return uint8(c)
}
