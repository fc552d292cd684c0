package geometry

import (
	"errors"
	"image"
	"testing"
)

func TestFit(t *testing.T) {
	tests := []struct {
		name    string
		current Size
		ratio   Ratio
		max     int
		scaled  Size
		canvas  Size
	}{
		{"landscape source already 16:9 after height fit", Size{400, 300}, Landscape, 1920, Size{400, 225}, Size{400, 225}},
		{"wide source to portrait", Size{1920, 1080}, Portrait, 1920, Size{608, 1080}, Size{608, 1080}},
		{"portrait source to landscape", Size{1080, 1920}, Landscape, 1920, Size{1080, 608}, Size{1080, 608}},
		{"downscale to max dimension", Size{4000, 3000}, Square, 1920, Size{1920, 1920}, Size{1920, 1920}},
		{"independent rounding after downscale", Size{3000, 1000}, Classic, 1000, Size{1000, 750}, Size{1000, 750}},
		{"canvas never smaller than scaled", Size{2000, 1000}, Landscape, 1000, Size{1000, 562}, Size{1000, 562}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scaled, canvas, err := Fit(tt.current, tt.ratio, tt.max)
			if err != nil {
				t.Fatalf("Fit failed: %v", err)
			}
			if scaled != tt.scaled {
				t.Errorf("scaled = %v, want %v", scaled, tt.scaled)
			}
			if canvas != tt.canvas {
				t.Errorf("canvas = %v, want %v", canvas, tt.canvas)
			}
		})
	}
}

func TestFitInvariants(t *testing.T) {
	sizes := []Size{{1, 1}, {7, 3}, {640, 480}, {1280, 720}, {720, 1280}, {3840, 2160}, {5000, 333}, {333, 5000}}
	for _, name := range Presets() {
		ratio, err := LookupRatio(name)
		if err != nil {
			t.Fatalf("LookupRatio(%q): %v", name, err)
		}
		for _, size := range sizes {
			for _, maxDim := range []int{100, 1080, 1920} {
				scaled, canvas, err := Fit(size, ratio, maxDim)
				if err != nil {
					t.Fatalf("Fit(%v, %v, %d): %v", size, ratio, maxDim, err)
				}
				if scaled.W > maxDim || scaled.H > maxDim {
					t.Errorf("Fit(%v, %v, %d): scaled %v exceeds max", size, ratio, maxDim, scaled)
				}
				if canvas.W < scaled.W || canvas.H < scaled.H {
					t.Errorf("Fit(%v, %v, %d): canvas %v smaller than scaled %v", size, ratio, maxDim, canvas, scaled)
				}
				off := Offset(scaled, canvas)
				if off.X < 0 || off.Y < 0 {
					t.Errorf("negative offset %v", off)
				}
			}
		}
	}
}

func TestFitErrors(t *testing.T) {
	if _, _, err := Fit(Size{400, 300}, Ratio{16, 0}, 1920); !errors.Is(err, ErrInvalidRatio) {
		t.Errorf("zero denominator: got %v, want ErrInvalidRatio", err)
	}
	if _, _, err := Fit(Size{400, 300}, Ratio{0, 9}, 1920); !errors.Is(err, ErrInvalidRatio) {
		t.Errorf("zero numerator: got %v, want ErrInvalidRatio", err)
	}
	if _, _, err := Fit(Size{0, 300}, Landscape, 1920); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("zero width: got %v, want ErrInvalidSize", err)
	}
	if _, _, err := Fit(Size{400, 300}, Landscape, 0); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("zero max: got %v, want ErrInvalidSize", err)
	}
}

func TestOffset(t *testing.T) {
	got := Offset(Size{400, 225}, Size{401, 227})
	if got != (image.Point{X: 0, Y: 1}) {
		t.Errorf("Offset = %v, want (0,1)", got)
	}
	got = Offset(Size{100, 100}, Size{300, 100})
	if got != (image.Point{X: 100, Y: 0}) {
		t.Errorf("Offset = %v, want (100,0)", got)
	}
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		in      string
		want    Ratio
		wantErr bool
	}{
		{"16:9", Landscape, false},
		{" 9:16 ", Portrait, false},
		{"21:9", Ratio{21, 9}, false},
		{"invalid", Ratio{}, true},
		{"16:0", Ratio{}, true},
		{"-4:3", Ratio{}, true},
		{"a:b", Ratio{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRatio(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRatio) {
					t.Fatalf("ParseRatio(%q) err = %v, want ErrInvalidRatio", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRatio(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRatio(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := LookupRatio("21:9"); !errors.Is(err, ErrInvalidRatio) {
		t.Errorf("LookupRatio accepted a non-preset ratio")
	}
	if Landscape.Slug() != "16x9" {
		t.Errorf("Slug = %q", Landscape.Slug())
	}
}
