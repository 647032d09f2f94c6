// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNewTargetInvalidSize(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 10},
		{"zero height", 10, 0},
		{"negative", -1, -1},
		{"over max width", MaxSize + 1, 1},
		{"over max height", 1, MaxSize + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTarget("t", tt.w, tt.h)
			if !errors.Is(err, ErrInvalidSize) {
				t.Errorf("NewTarget(%d, %d) error = %v, want ErrInvalidSize", tt.w, tt.h, err)
			}
		})
	}
}

func TestTargetResizeOverMax(t *testing.T) {
	tgt, err := NewTarget("t", 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := tgt.Resize(MaxSize+1, 4); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Resize(%d, 4) error = %v, want ErrInvalidSize", MaxSize+1, err)
	}
	if w, h := tgt.Size(); w != 4 || h != 4 {
		t.Errorf("Size() after rejected resize = %dx%d, want 4x4", w, h)
	}
}

func TestTargetResizeExact(t *testing.T) {
	tgt, err := NewTarget("t", 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	sizes := [][2]int{{17, 3}, {1, 1}, {640, 480}, {640, 480}}
	for _, s := range sizes {
		if err := tgt.Resize(s[0], s[1]); err != nil {
			t.Fatalf("Resize(%d, %d): %v", s[0], s[1], err)
		}
		w, h := tgt.Size()
		if w != s[0] || h != s[1] {
			t.Errorf("Size() = (%d, %d), want (%d, %d)", w, h, s[0], s[1])
		}
	}
}

func TestTargetResizeRejectsNonPositive(t *testing.T) {
	tgt, _ := NewTarget("t", 8, 8)
	if err := tgt.Resize(0, 5); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Resize(0, 5) error = %v, want ErrInvalidSize", err)
	}
	if w, h := tgt.Size(); w != 8 || h != 8 {
		t.Errorf("Size() after rejected resize = (%d, %d), want (8, 8)", w, h)
	}
}

func TestTargetResizeSameSizeClears(t *testing.T) {
	tgt, _ := NewTarget("t", 2, 2)
	tgt.Fill(color.RGBA{255, 0, 0, 255})
	before := tgt.Image()

	if err := tgt.Resize(2, 2); err != nil {
		t.Fatal(err)
	}
	if tgt.Image() != before {
		t.Error("Resize to same size reallocated storage")
	}
	if got := tgt.At(1, 1); got != Transparent {
		t.Errorf("At(1, 1) = %v, want transparent", got)
	}
}

func TestTargetBeginEnd(t *testing.T) {
	tgt, _ := NewTarget("t", 2, 2)

	if err := tgt.DrawFullscreen(func(int, int, float32, float32) Color { return Color{A: 1} }); !errors.Is(err, ErrNotBegun) {
		t.Errorf("DrawFullscreen without Begin error = %v, want ErrNotBegun", err)
	}
	if _, err := tgt.Begin(); err != nil {
		t.Fatal(err)
	}
	if _, err := tgt.Begin(); !errors.Is(err, ErrTargetBusy) {
		t.Errorf("second Begin error = %v, want ErrTargetBusy", err)
	}
	if _, err := tgt.Texture(ClampLinear); !errors.Is(err, ErrTargetBusy) {
		t.Errorf("Texture while begun error = %v, want ErrTargetBusy", err)
	}
	if err := tgt.Resize(3, 3); !errors.Is(err, ErrTargetBusy) {
		t.Errorf("Resize while begun error = %v, want ErrTargetBusy", err)
	}
	tgt.End()
	if tgt.Begun() {
		t.Error("Begun() = true after End")
	}
	if _, err := tgt.Texture(ClampLinear); err != nil {
		t.Errorf("Texture after End: %v", err)
	}
}

func TestTargetDrawFullscreen(t *testing.T) {
	tgt, _ := NewTarget("t", 4, 2)
	if _, err := tgt.Begin(); err != nil {
		t.Fatal(err)
	}
	err := tgt.DrawFullscreen(func(x, y int, u, v float32) Color {
		wantU := (float32(x) + 0.5) / 4
		wantV := (float32(y) + 0.5) / 2
		if u != wantU || v != wantV {
			t.Errorf("uv(%d, %d) = (%v, %v), want (%v, %v)", x, y, u, v, wantU, wantV)
		}
		return Premultiplied(1, 0, 0, 0.5)
	})
	tgt.End()
	if err != nil {
		t.Fatal(err)
	}

	got := tgt.Image().RGBAAt(3, 1)
	want := color.RGBA{128, 0, 0, 128}
	if got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
}

func TestTargetDescriptor(t *testing.T) {
	tgt, _ := NewTarget("piece", 30, 20)
	desc := tgt.Descriptor()

	if desc.Label != "piece" {
		t.Errorf("Label = %q, want %q", desc.Label, "piece")
	}
	if desc.Size.Width != 30 || desc.Size.Height != 20 {
		t.Errorf("Size = %+v, want 30x20", desc.Size)
	}
	if desc.Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format = %v, want RGBA8Unorm", desc.Format)
	}
	if desc.Usage&gputypes.TextureUsageRenderAttachment == 0 {
		t.Error("Usage lacks RenderAttachment")
	}
	if desc.Usage&gputypes.TextureUsageTextureBinding == 0 {
		t.Error("Usage lacks TextureBinding")
	}
}

func TestColorOver(t *testing.T) {
	src := Premultiplied(1, 1, 1, 0.5)
	dst := Color{R: 0, G: 0, B: 0, A: 1}
	got := src.Over(dst)
	want := Color{R: 0.5, G: 0.5, B: 0.5, A: 1}
	if got != want {
		t.Errorf("Over = %+v, want %+v", got, want)
	}
}

func TestColorRGBA8RoundTrip(t *testing.T) {
	in := color.RGBA{R: 40, G: 80, B: 120, A: 200}
	if got := FromRGBA8(in).RGBA8(); got != in {
		t.Errorf("RGBA8(FromRGBA8(%v)) = %v", in, got)
	}
}

func TestColorStraight(t *testing.T) {
	r, g, b := Premultiplied(0.2, 0.4, 0.8, 0.5).Straight()
	const eps = 1e-6
	if abs32(r-0.2) > eps || abs32(g-0.4) > eps || abs32(b-0.8) > eps {
		t.Errorf("Straight() = (%v, %v, %v), want (0.2, 0.4, 0.8)", r, g, b)
	}
	r, g, b = Transparent.Straight()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("Transparent.Straight() = (%v, %v, %v), want zeros", r, g, b)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
