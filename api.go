package mandel

import (
	"image"
)

// Generator renders one Request at a time in the background.
// A Submit while a generation is running is dropped and reports false.
type Generator interface {
	Submit(r Request) bool
	Progress() Progress
	Result() (*image.RGBA, bool)
	Await()
	SetCompletionCallback(cb func())
}

// Progress is a snapshot of the running (or last) generation.
type Progress struct {
	Progress   int  `json:"progress"`
	Max        int  `json:"max"`
	Generating bool `json:"generating"`
}

// Done reports whether every pixel of the generation has been computed.
func (p Progress) Done() bool {
	return !p.Generating && p.Progress == p.Max
}
