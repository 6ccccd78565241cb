package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestRunWritesPNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.png")
	if err := run([]string{"-width", "24", "-height", "16", "-iter", "40", "-o", out}); err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 24 || b.Dy() != 16 {
		t.Fatalf("bounds %v", b)
	}
}

func TestRunUnknownPreset(t *testing.T) {
	if err := run([]string{"-preset", "nowhere", "-o", filepath.Join(t.TempDir(), "x.png")}); err == nil {
		t.Fatal("unknown preset accepted")
	}
}
