// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/draw"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
)

// Common sampler configurations.
var (
	// ClampLinear clamps coordinates to the edge texel and filters bilinearly.
	ClampLinear = sampler(gputypes.AddressModeClampToEdge, gputypes.FilterModeLinear)

	// RepeatLinear wraps coordinates and filters bilinearly. Used for
	// tiling noise textures.
	RepeatLinear = sampler(gputypes.AddressModeRepeat, gputypes.FilterModeLinear)

	// ClampNearest clamps coordinates and picks the nearest texel.
	ClampNearest = sampler(gputypes.AddressModeClampToEdge, gputypes.FilterModeNearest)
)

func sampler(mode gputypes.AddressMode, filter gputypes.FilterMode) gputypes.SamplerDescriptor {
	desc := gputypes.DefaultSamplerDescriptor()
	desc.AddressModeU = mode
	desc.AddressModeV = mode
	desc.AddressModeW = mode
	desc.MagFilter = filter
	desc.MinFilter = filter
	return desc
}

// Texture is a read-only view of premultiplied RGBA pixels bound to a sampler.
type Texture struct {
	img     *image.RGBA
	sampler gputypes.SamplerDescriptor
}

// NewTexture copies img into a new texture. Non-RGBA images are converted
// to premultiplied RGBA.
func NewTexture(img image.Image, sampler gputypes.SamplerDescriptor) *Texture {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return &Texture{img: dst, sampler: sampler}
}

// Width returns the texture width in texels.
func (t *Texture) Width() int {
	return t.img.Rect.Dx()
}

// Height returns the texture height in texels.
func (t *Texture) Height() int {
	return t.img.Rect.Dy()
}

// Sampler returns the sampler descriptor bound to the texture.
func (t *Texture) Sampler() gputypes.SamplerDescriptor {
	return t.sampler
}

// WithSampler returns a view of the same pixels using another sampler.
func (t *Texture) WithSampler(s gputypes.SamplerDescriptor) *Texture {
	return &Texture{img: t.img, sampler: s}
}

// Image returns the texture pixels. Callers must not modify them.
func (t *Texture) Image() *image.RGBA {
	return t.img
}

// Texel returns the texel at integer coordinates after applying the
// sampler address modes.
func (t *Texture) Texel(x, y int) Color {
	w, h := t.Width(), t.Height()
	x = address(x, w, t.sampler.AddressModeU)
	y = address(y, h, t.sampler.AddressModeV)
	i := y*t.img.Stride + x*4
	return load(t.img.Pix[i : i+4])
}

// Sample samples the texture at normalized coordinates (u, v), where (0,0)
// is the top-left corner and (1,1) the bottom-right corner.
func (t *Texture) Sample(u, v float32) Color {
	if t.sampler.MagFilter == gputypes.FilterModeNearest {
		return t.sampleNearest(u, v)
	}
	return t.sampleLinear(u, v)
}

// Alpha samples only the alpha channel.
func (t *Texture) Alpha(u, v float32) float32 {
	return t.Sample(u, v).A
}

func (t *Texture) sampleNearest(u, v float32) Color {
	x := int(math32.Floor(u * float32(t.Width())))
	y := int(math32.Floor(v * float32(t.Height())))
	return t.Texel(x, y)
}

func (t *Texture) sampleLinear(u, v float32) Color {
	fx := u*float32(t.Width()) - 0.5
	fy := v*float32(t.Height()) - 0.5

	x0f := math32.Floor(fx)
	y0f := math32.Floor(fy)
	tx := fx - x0f
	ty := fy - y0f
	x0, y0 := int(x0f), int(y0f)

	c00 := t.Texel(x0, y0)
	c10 := t.Texel(x0+1, y0)
	c01 := t.Texel(x0, y0+1)
	c11 := t.Texel(x0+1, y0+1)

	top := c00.Lerp(c10, tx)
	bottom := c01.Lerp(c11, tx)
	return top.Lerp(bottom, ty)
}

// address maps an integer texel coordinate into [0, n).
func address(i, n int, mode gputypes.AddressMode) int {
	switch mode {
	case gputypes.AddressModeRepeat:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	case gputypes.AddressModeMirrorRepeat:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i
	default:
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
}
