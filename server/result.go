package server

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"sync"

	"github.com/klauspost/compress/zstd"
	xdraw "golang.org/x/image/draw"

	mandel "github.com/marben/async_mandel"
	"github.com/marben/async_mandel/engine"
)

// rawEncoder is created on first use. EncodeAll is safe for concurrent use.
type rawEncoder struct {
	once sync.Once
	enc  *zstd.Encoder
	err  error
}

func (p *rawEncoder) encode(src []byte) ([]byte, error) {
	p.once.Do(func() {
		p.enc, p.err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	if p.err != nil {
		return nil, fmt.Errorf("zstd.NewWriter: %w", p.err)
	}
	return p.enc.EncodeAll(src, nil), nil
}

// Headers describing a raw RGBA response.
const (
	HeaderWidth  = "X-Image-Width"
	HeaderHeight = "X-Image-Height"
)

// handleResult serves the finished image, or the progress while there is none.
//
//	?format=png   PNG (default)
//	?format=rgba  zstd-compressed RGBA8 rows
//	?width=N      scale down to N pixels wide before encoding
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "rgba" {
		http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
		return
	}

	thumbW := 0
	if v := r.URL.Query().Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, fmt.Sprintf("invalid width %q", v), http.StatusBadRequest)
			return
		}
		thumbW = n
	}

	var (
		body          bytes.Buffer
		width, height int
	)
	err := s.backend.WithResult(func(img *image.RGBA, _ mandel.Request) error {
		out := scaleToWidth(img, thumbW)
		width, height = out.Rect.Dx(), out.Rect.Dy()

		switch format {
		case "rgba":
			b, err := s.raw.encode(out.Pix)
			if err != nil {
				return err
			}
			body.Write(b)
			return nil
		default:
			return png.Encode(&body, out)
		}
	})
	if errors.Is(err, engine.ErrNoResult) {
		s.writeJSON(w, s.backend.Progress())
		return
	}
	if err != nil {
		s.logger.Printf("encode result: %v", err)
		http.Error(w, "encode result", http.StatusInternalServerError)
		return
	}

	switch format {
	case "rgba":
		w.Header().Set("Content-Type", "application/zstd")
		w.Header().Set(HeaderWidth, strconv.Itoa(width))
		w.Header().Set(HeaderHeight, strconv.Itoa(height))
	default:
		w.Header().Set("Content-Type", "image/png")
	}
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	if _, err := w.Write(body.Bytes()); err != nil {
		s.logger.Printf("write result: %v", err)
	}
}

// scaleToWidth returns img scaled to width w, keeping the aspect ratio.
// It returns img itself when w is zero or not smaller than the image.
func scaleToWidth(img *image.RGBA, w int) *image.RGBA {
	bw, bh := img.Rect.Dx(), img.Rect.Dy()
	if w <= 0 || w >= bw || bh == 0 {
		return img
	}
	h := max(bh*w/bw, 1)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Rect, img, img.Rect, xdraw.Src, nil)
	return dst
}
