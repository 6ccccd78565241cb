package mandel

import "testing"

func TestCorner(t *testing.T) {
	r := Request{Width: 2, Height: 1, PlaneWidth: 2, PlaneHeight: 2}
	left, top := r.Corner()
	if left != -1 || top != -1 {
		t.Fatalf("Corner() = (%g, %g), want (-1, -1)", left, top)
	}
	if fx, _ := r.Point(1, 0); fx != 0 {
		t.Fatalf("Point(1, 0).fx = %g, want 0", fx)
	}
}

func TestPixels(t *testing.T) {
	tests := []struct {
		w, h, want int
	}{
		{4, 3, 12},
		{0, 3, 0},
		{-2, -3, 0},
		{5, -1, 0},
	}
	for _, tt := range tests {
		if got := (Request{Width: tt.w, Height: tt.h}).Pixels(); got != tt.want {
			t.Errorf("Pixels(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestWindowRequest(t *testing.T) {
	r := Window{Xmin: -2, Xmax: 1, Ymin: -1, Ymax: 1}.Request(300, 200, 50)
	want := Request{Width: 300, Height: 200, PlaneWidth: 3, PlaneHeight: 2, CenterX: -0.5, MaxIterations: 50}
	if r != want {
		t.Fatalf("Request() = %s, want %s", r, want)
	}
}

func TestPresetNamesSorted(t *testing.T) {
	names := PresetNames()
	if len(names) != len(Presets) {
		t.Fatalf("got %d names for %d presets", len(names), len(Presets))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestProgressDone(t *testing.T) {
	if !(Progress{Progress: 4, Max: 4}).Done() {
		t.Fatal("finished progress not done")
	}
	if (Progress{Progress: 4, Max: 4, Generating: true}).Done() {
		t.Fatal("generating progress reported done")
	}
}
