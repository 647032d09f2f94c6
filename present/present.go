// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package present

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/collage"
	"github.com/gogpu/collage/render"
)

// Errors returned by Presenter operations.
var (
	// ErrClosed is returned when operations are attempted on a closed presenter.
	ErrClosed = errors.New("present: presenter is closed")

	// ErrNilCanvas is returned by New for a nil canvas.
	ErrNilCanvas = errors.New("present: nil canvas")

	// ErrNoTextureCreator is returned when the drawer has no texture creator.
	ErrNoTextureCreator = errors.New("present: drawer has no texture creator")
)

// textureDestroyer matches the Destroy method of GPU textures.
type textureDestroyer interface {
	Destroy()
}

// Presenter mirrors a canvas target into a GPU texture.
//
// Presenter is NOT safe for concurrent use.
type Presenter struct {
	canvas  *render.Target
	texture gpucontext.Texture
	old     gpucontext.Texture // awaiting destruction after the next upload
	width   int
	height  int
	dirty   bool
	closed  bool
}

// New creates a presenter for canvas. The first RenderTo uploads it.
func New(canvas *render.Target) (*Presenter, error) {
	if canvas == nil {
		return nil, ErrNilCanvas
	}
	return &Presenter{canvas: canvas, dirty: true}, nil
}

// MarkDirty flags the canvas for upload on the next RenderTo.
func (p *Presenter) MarkDirty() {
	p.dirty = true
}

// IsDirty reports whether the canvas has changes not yet uploaded.
func (p *Presenter) IsDirty() bool {
	return p.dirty
}

// Texture returns the current GPU texture, or nil before the first upload.
func (p *Presenter) Texture() gpucontext.Texture {
	return p.texture
}

// RenderTo uploads the canvas if needed and draws it at (0, 0).
func (p *Presenter) RenderTo(dc gpucontext.TextureDrawer) error {
	return p.RenderToPosition(dc, 0, 0)
}

// RenderToPosition uploads the canvas if needed and draws it at (x, y).
func (p *Presenter) RenderToPosition(dc gpucontext.TextureDrawer, x, y float32) error {
	if p.closed {
		return ErrClosed
	}
	if p.canvas.Begun() {
		return fmt.Errorf("present: %w", render.ErrTargetBusy)
	}
	if err := p.upload(dc); err != nil {
		return err
	}
	return dc.DrawTexture(p.texture, x, y)
}

// upload creates, updates or recreates the texture.
func (p *Presenter) upload(dc gpucontext.TextureDrawer) error {
	w, h := p.canvas.Size()
	if p.texture != nil && (w != p.width || h != p.height) {
		p.old = p.texture
		p.texture = nil
		collage.Logger().Debug("present: canvas resized, recreating texture",
			"from", fmt.Sprintf("%dx%d", p.width, p.height),
			"to", fmt.Sprintf("%dx%d", w, h))
	}

	data := p.canvas.Image().Pix
	switch {
	case p.texture == nil:
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrNoTextureCreator
		}
		tex, err := creator.NewTextureFromRGBA(w, h, data)
		if err != nil {
			return fmt.Errorf("present: create texture: %w", err)
		}
		if pt, ok := tex.(interface{ SetPremultiplied(bool) }); ok {
			pt.SetPremultiplied(true)
		}
		p.texture, p.width, p.height = tex, w, h
		p.destroyOld()
	case p.dirty:
		updater, ok := p.texture.(gpucontext.TextureUpdater)
		if !ok {
			// Without in-place updates the texture is recreated.
			p.old, p.texture = p.texture, nil
			return p.upload(dc)
		}
		if err := updater.UpdateData(data); err != nil {
			return fmt.Errorf("present: update texture: %w", err)
		}
	}
	p.dirty = false
	return nil
}

func (p *Presenter) destroyOld() {
	if p.old == nil {
		return
	}
	if d, ok := p.old.(textureDestroyer); ok {
		d.Destroy()
	}
	p.old = nil
}

// Close releases the GPU texture. Close is idempotent.
func (p *Presenter) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.destroyOld()
	if d, ok := p.texture.(textureDestroyer); ok {
		d.Destroy()
	}
	p.texture = nil
	p.canvas = nil
	return nil
}
