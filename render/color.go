// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
)

// Color is a premultiplied RGBA color with float32 components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Transparent is the zero color.
var Transparent = Color{}

// Premultiplied builds a Color from straight (non-premultiplied) components.
func Premultiplied(r, g, b, a float32) Color {
	return Color{R: r * a, G: g * a, B: b * a, A: a}
}

// FromGPU converts a straight-alpha gputypes.Color to a premultiplied Color.
func FromGPU(c gputypes.Color) Color {
	return Premultiplied(float32(c.R), float32(c.G), float32(c.B), float32(c.A))
}

// Over composites c over dst (Porter-Duff source-over).
func (c Color) Over(dst Color) Color {
	inv := 1 - c.A
	return Color{
		R: c.R + dst.R*inv,
		G: c.G + dst.G*inv,
		B: c.B + dst.B*inv,
		A: c.A + dst.A*inv,
	}
}

// Scale multiplies every component by k.
func (c Color) Scale(k float32) Color {
	return Color{R: c.R * k, G: c.G * k, B: c.B * k, A: c.A * k}
}

// Add returns the component-wise sum.
func (c Color) Add(o Color) Color {
	return Color{R: c.R + o.R, G: c.G + o.G, B: c.B + o.B, A: c.A + o.A}
}

// Lerp linearly interpolates between c and o.
func (c Color) Lerp(o Color, t float32) Color {
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
		A: c.A + (o.A-c.A)*t,
	}
}

// Straight returns the un-premultiplied color channels.
// A fully transparent color yields black.
func (c Color) Straight() (r, g, b float32) {
	if c.A <= 0 {
		return 0, 0, 0
	}
	inv := 1 / c.A
	return clamp01(c.R * inv), clamp01(c.G * inv), clamp01(c.B * inv)
}

// RGBA8 converts to an 8-bit premultiplied color.
func (c Color) RGBA8() color.RGBA {
	a := to8(c.A)
	return color.RGBA{
		R: min(to8(c.R), a),
		G: min(to8(c.G), a),
		B: min(to8(c.B), a),
		A: a,
	}
}

// FromRGBA8 converts an 8-bit premultiplied color.
func FromRGBA8(c color.RGBA) Color {
	return Color{
		R: float32(c.R) / 255,
		G: float32(c.G) / 255,
		B: float32(c.B) / 255,
		A: float32(c.A) / 255,
	}
}

func (c Color) store(p []uint8) {
	a := to8(c.A)
	p[0] = min(to8(c.R), a)
	p[1] = min(to8(c.G), a)
	p[2] = min(to8(c.B), a)
	p[3] = a
}

func load(p []uint8) Color {
	return Color{
		R: float32(p[0]) / 255,
		G: float32(p[1]) / 255,
		B: float32(p[2]) / 255,
		A: float32(p[3]) / 255,
	}
}

func to8(v float32) uint8 {
	return uint8(math32.Round(clamp01(v) * 255))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
