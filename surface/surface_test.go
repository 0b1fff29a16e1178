// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"testing"

	"golang.org/x/image/draw"
)

// TestSurfaceInterface verifies that ImageSurface implements the interfaces.
func TestSurfaceInterface(t *testing.T) {
	var _ Surface = (*ImageSurface)(nil)
	var _ LabelSurface = (*ImageSurface)(nil)
	var _ ResizableSurface = (*ImageSurface)(nil)
}

func TestDrawImageOptions(t *testing.T) {
	opts := DefaultDrawImageOptions()
	if opts.Alpha != 1.0 {
		t.Errorf("Alpha = %v, want 1.0", opts.Alpha)
	}
	if opts.Filter != FilterNearest {
		t.Errorf("Filter = %v, want Nearest", opts.Filter)
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		f    Filter
		name string
		want draw.Interpolator
	}{
		{FilterNearest, "Nearest", draw.NearestNeighbor},
		{FilterBilinear, "Bilinear", draw.BiLinear},
		{FilterCatmullRom, "CatmullRom", draw.CatmullRom},
		{Filter(99), "Unknown", draw.NearestNeighbor},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.f.Interpolator(); got != tt.want {
			t.Errorf("%s.Interpolator() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
