package render

import (
	"image"

	mandel "github.com/marben/async_mandel"
)

// RenderTile computes every pixel of tile and writes it into img.
// img.Rect must cover the tile; pixel offsets follow img.Stride.
// After each finished row onRow, when non-nil, is called with the row's pixel count.
func RenderTile(img *image.RGBA, r mandel.Request, tile image.Rectangle, onRow func(pixels int)) {
	tile = tile.Intersect(img.Rect)
	if tile.Empty() {
		return
	}
	maxIter := r.MaxIterations

	for py := tile.Min.Y; py < tile.Max.Y; py++ {
		off := img.PixOffset(tile.Min.X, py)
		row := img.Pix[off : off+tile.Dx()*4 : off+tile.Dx()*4]

		for px := tile.Min.X; px < tile.Max.X; px++ {
			fx, fy := r.Point(px, py)
			c := Color(EscapeTime(fx, fy, maxIter), maxIter)

			i := (px - tile.Min.X) * 4
			row[i+0] = c.R
			row[i+1] = c.G
			row[i+2] = c.B
			row[i+3] = c.A
		}

		if onRow != nil {
			onRow(tile.Dx())
		}
	}
}

// Render computes the whole request into a freshly allocated image.
func Render(r mandel.Request) *image.RGBA {
	w, h := r.Width, r.Height
	if r.Pixels() == 0 {
		w, h = 0, 0
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	RenderTile(img, r, img.Rect, nil)
	return img
}
