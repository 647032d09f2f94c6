// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
)

// Target errors.
var (
	// ErrInvalidSize is returned when a target is given non-positive
	// dimensions or dimensions above MaxSize. Sizes are rejected, never
	// clamped.
	ErrInvalidSize = errors.New("render: invalid target size")

	// ErrTargetBusy is returned when a begun target is begun again, resized,
	// or bound as a texture.
	ErrTargetBusy = errors.New("render: target is begun")

	// ErrNotBegun is returned when drawing into a target that is not begun.
	ErrNotBegun = errors.New("render: target is not begun")
)

// MaxSize is the largest accepted target width or height in pixels.
const MaxSize = 16384

// validSize reports whether width x height is an accepted target size.
func validSize(width, height int) bool {
	return width > 0 && height > 0 && width <= MaxSize && height <= MaxSize
}

// Fragment computes the premultiplied color of one pixel of a full-target
// quad. x and y are integer pixel coordinates, u and v the normalized
// coordinates of the pixel center.
type Fragment func(x, y int, u, v float32) Color

// Target is a CPU-backed render target.
//
// Draw calls are only accepted between Begin and End. Once ended the target
// can be bound as a texture for the next pass.
//
// Target is not safe for concurrent use.
type Target struct {
	label string
	img   *image.RGBA
	begun bool
}

// NewTarget creates a transparent render target.
func NewTarget(label string, width, height int) (*Target, error) {
	if !validSize(width, height) {
		return nil, fmt.Errorf("%w: %s %dx%d", ErrInvalidSize, label, width, height)
	}
	return &Target{
		label: label,
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

// Label returns the debug label of the target.
func (t *Target) Label() string {
	return t.label
}

// Width returns the target width in pixels.
func (t *Target) Width() int {
	return t.img.Rect.Dx()
}

// Height returns the target height in pixels.
func (t *Target) Height() int {
	return t.img.Rect.Dy()
}

// Size returns width and height.
func (t *Target) Size() (width, height int) {
	return t.Width(), t.Height()
}

// Format returns the pixel format (RGBA8).
func (t *Target) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Descriptor describes the target as a GPU texture, so a GPU backend can
// allocate an equivalent attachment.
func (t *Target) Descriptor() gputypes.TextureDescriptor {
	//nolint:gosec // G115: target dimensions are positive
	return gputypes.TextureDescriptor{
		Label:         t.label,
		Size:          gputypes.NewExtent2D(uint32(t.Width()), uint32(t.Height())),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        t.Format(),
		Usage: gputypes.TextureUsageRenderAttachment |
			gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopySrc,
	}
}

// Resize changes the target dimensions. The contents are discarded.
// Storage is reused when the dimensions are unchanged.
func (t *Target) Resize(width, height int) error {
	if !validSize(width, height) {
		return fmt.Errorf("%w: %s %dx%d", ErrInvalidSize, t.label, width, height)
	}
	if t.begun {
		return fmt.Errorf("%w: cannot resize %s", ErrTargetBusy, t.label)
	}
	if t.Width() == width && t.Height() == height {
		t.Clear()
		return nil
	}
	t.img = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// Begin starts a scoped write. The returned image aliases the target
// storage and is valid until End.
func (t *Target) Begin() (*image.RGBA, error) {
	if t.begun {
		return nil, fmt.Errorf("%w: %s", ErrTargetBusy, t.label)
	}
	t.begun = true
	return t.img, nil
}

// End finishes a scoped write.
func (t *Target) End() {
	t.begun = false
}

// Begun reports whether the target is between Begin and End.
func (t *Target) Begun() bool {
	return t.begun
}

// Clear resets every pixel to transparent.
func (t *Target) Clear() {
	clear(t.img.Pix)
}

// Fill sets every pixel to c.
func (t *Target) Fill(c color.Color) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	pix := t.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = rgba.R
		pix[i+1] = rgba.G
		pix[i+2] = rgba.B
		pix[i+3] = rgba.A
	}
}

// At returns the premultiplied color at (x, y). Out-of-bounds reads return
// Transparent.
func (t *Target) At(x, y int) Color {
	if !(image.Point{X: x, Y: y}).In(t.img.Rect) {
		return Transparent
	}
	i := t.img.PixOffset(x, y)
	return load(t.img.Pix[i : i+4])
}

// Image returns the underlying storage for read access.
// The image is replaced by Resize when dimensions change.
func (t *Target) Image() *image.RGBA {
	return t.img
}

// Texture binds the target as a texture using the given sampler.
// A begun target cannot be bound.
func (t *Target) Texture(sampler gputypes.SamplerDescriptor) (*Texture, error) {
	if t.begun {
		return nil, fmt.Errorf("%w: cannot bind %s as texture", ErrTargetBusy, t.label)
	}
	return &Texture{img: t.img, sampler: sampler}, nil
}

// DrawFullscreen runs frag for every pixel of the target, replacing its
// contents. The target must be begun.
//
// Large targets are shaded in row bands on a shared worker pool, so frag
// may be called concurrently for different rows and must not mutate shared
// state.
func (t *Target) DrawFullscreen(frag Fragment) error {
	if !t.begun {
		return fmt.Errorf("%w: %s", ErrNotBegun, t.label)
	}
	w, h := t.Size()
	if w*h < minParallelPixels {
		t.shadeRows(frag, 0, h)
		return nil
	}

	p := rows()
	spans := bands(h, p.workers*2)
	work := make([]func(), len(spans))
	for i, s := range spans {
		work[i] = func() { t.shadeRows(frag, s[0], s[1]) }
	}
	p.executeAll(work)
	return nil
}

// shadeRows runs frag over rows [y0, y1).
func (t *Target) shadeRows(frag Fragment, y0, y1 int) {
	w, h := t.Size()
	invW := 1 / float32(w)
	invH := 1 / float32(h)
	pix := t.img.Pix
	stride := t.img.Stride

	for y := y0; y < y1; y++ {
		v := (float32(y) + 0.5) * invH
		row := pix[y*stride : y*stride+w*4]
		for x := 0; x < w; x++ {
			u := (float32(x) + 0.5) * invW
			frag(x, y, u, v).store(row[x*4 : x*4+4])
		}
	}
}
