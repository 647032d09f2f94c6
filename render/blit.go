// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Placement returns the source-to-destination affine transform that scales
// a srcW x srcH image to (w, h), rotates it by rotationDeg around its center
// and centers it at (x+w/2, y+h/2). Positive angles turn clockwise on a
// y-down canvas.
func Placement(srcW, srcH int, x, y, w, h, rotationDeg float64) f64.Aff3 {
	s, c := math.Sincos(rotationDeg * math.Pi / 180)

	kx := w / float64(srcW)
	ky := h / float64(srcH)
	cx := x + w/2
	cy := y + h/2

	return f64.Aff3{
		c * kx, -s * ky, -c*w/2 + s*h/2 + cx,
		s * kx, c * ky, -s*w/2 - c*h/2 + cy,
	}
}

// DrawImage composites src onto dst (source-over), scaled to (w, h),
// rotated by rotationDeg around its center and placed with its top-left
// corner at (x, y) before rotation. dst must be begun.
func DrawImage(dst *Target, src *Texture, x, y, w, h, rotationDeg float64) error {
	if !dst.begun {
		return fmt.Errorf("%w: %s", ErrNotBegun, dst.label)
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: blit %gx%g", ErrInvalidSize, w, h)
	}
	if src.img == dst.img {
		return fmt.Errorf("%w: %s is both source and destination", ErrTargetBusy, dst.label)
	}
	m := Placement(src.Width(), src.Height(), x, y, w, h, rotationDeg)
	interp := xdraw.Interpolator(xdraw.BiLinear)
	if src.sampler.MagFilter == gputypes.FilterModeNearest {
		interp = xdraw.NearestNeighbor
	}
	interp.Transform(dst.img, m, src.img, src.img.Rect, xdraw.Over, nil)
	return nil
}

// Composite draws src over the whole of dst (source-over), scaling when
// the sizes differ. dst must be begun.
func Composite(dst *Target, src *Texture) error {
	if !dst.begun {
		return fmt.Errorf("%w: %s", ErrNotBegun, dst.label)
	}
	if src.img == dst.img {
		return fmt.Errorf("%w: %s is both source and destination", ErrTargetBusy, dst.label)
	}
	if src.img.Rect.Size() == dst.img.Rect.Size() {
		xdraw.Draw(dst.img, dst.img.Rect, src.img, image.Point{}, xdraw.Over)
		return nil
	}
	xdraw.BiLinear.Scale(dst.img, dst.img.Rect, src.img, src.img.Rect, xdraw.Over, nil)
	return nil
}

// Copy replaces the contents of dst with src, resampling when the sizes
// differ. Same-sized copies are exact. dst must be begun.
func Copy(dst *Target, src *Texture) error {
	if !dst.begun {
		return fmt.Errorf("%w: %s", ErrNotBegun, dst.label)
	}
	if src.img == dst.img {
		return nil
	}
	if src.img.Rect.Size() == dst.img.Rect.Size() {
		copy(dst.img.Pix, src.img.Pix)
		return nil
	}
	xdraw.BiLinear.Scale(dst.img, dst.img.Rect, src.img, src.img.Rect, xdraw.Src, nil)
	return nil
}
