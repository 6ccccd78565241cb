package engine

import (
	"image"

	mandel "github.com/marben/async_mandel"
)

// pixelBuffer owns the RGBA8 bytes the worker renders into.
// The allocation is kept while the pixel count stays the same.
type pixelBuffer struct {
	pix    []byte
	count  int
	allocs int
}

// ensure sizes the buffer for count pixels and reports whether it reallocated.
func (b *pixelBuffer) ensure(count int) bool {
	if b.pix != nil && b.count == count {
		return false
	}
	b.pix = make([]byte, count*4)
	b.count = count
	b.allocs++
	return true
}

// image wraps the buffer as an image laid out for r.
// The returned image aliases the buffer.
func (b *pixelBuffer) image(r mandel.Request) *image.RGBA {
	w, h := r.Width, r.Height
	if r.Pixels() == 0 {
		w, h = 0, 0
	}
	return &image.RGBA{
		Pix:    b.pix[:w*h*4],
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
}
