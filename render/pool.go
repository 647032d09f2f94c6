// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"sort"
)

// Pool owns the off-screen buffers of the collage pipeline: the piece
// buffer, the ping-pong pair and named scratch buffers.
//
// Buffers are allocated once, resized on demand and cleared after each
// piece. Pool is not safe for concurrent use.
type Pool struct {
	piece   *Target
	a, b    *Target
	swapped bool
	scratch map[string]*Target
}

// NewPool allocates the ping-pong pair at canvas size.
// The piece buffer and scratch buffers are created lazily.
func NewPool(canvasWidth, canvasHeight int) (*Pool, error) {
	a, err := NewTarget("pingpong.a", canvasWidth, canvasHeight)
	if err != nil {
		return nil, err
	}
	b, err := NewTarget("pingpong.b", canvasWidth, canvasHeight)
	if err != nil {
		return nil, err
	}
	return &Pool{
		a:       a,
		b:       b,
		scratch: make(map[string]*Target),
	}, nil
}

// Piece returns the piece buffer resized to exactly (width, height).
// Non-positive dimensions are rejected with ErrInvalidSize.
func (p *Pool) Piece(width, height int) (*Target, error) {
	if p.piece == nil {
		t, err := NewTarget("piece", width, height)
		if err != nil {
			return nil, err
		}
		p.piece = t
		return t, nil
	}
	if err := p.piece.Resize(width, height); err != nil {
		return nil, err
	}
	return p.piece, nil
}

// Scratch returns the scratch buffer registered under name, creating it on
// first use and resizing it on later calls.
func (p *Pool) Scratch(name string, width, height int) (*Target, error) {
	t, ok := p.scratch[name]
	if !ok {
		t, err := NewTarget(name, width, height)
		if err != nil {
			return nil, err
		}
		p.scratch[name] = t
		return t, nil
	}
	if t.Width() == width && t.Height() == height {
		return t, nil
	}
	if err := t.Resize(width, height); err != nil {
		return nil, err
	}
	return t, nil
}

// Source returns the ping-pong buffer holding the most recent result.
func (p *Pool) Source() *Target {
	if p.swapped {
		return p.b
	}
	return p.a
}

// Target returns the ping-pong buffer the next pass writes into.
func (p *Pool) Target() *Target {
	if p.swapped {
		return p.a
	}
	return p.b
}

// Swap exchanges the source and target roles. Two swaps restore the
// original assignment.
func (p *Pool) Swap() {
	p.swapped = !p.swapped
}

// Swapped reports the swap state. When false, A is the source.
func (p *Pool) Swapped() bool {
	return p.swapped
}

// ResizeCanvas resizes the ping-pong pair. Contents are discarded.
func (p *Pool) ResizeCanvas(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalidSize, width, height)
	}
	if err := p.a.Resize(width, height); err != nil {
		return err
	}
	return p.b.Resize(width, height)
}

// CanvasSize returns the dimensions of the ping-pong pair.
func (p *Pool) CanvasSize() (width, height int) {
	return p.a.Size()
}

// ClearAll makes every managed buffer transparent. Storage is kept.
func (p *Pool) ClearAll() {
	for _, t := range p.Targets() {
		t.Clear()
	}
}

// Targets returns every allocated buffer: the ping-pong pair, the piece
// buffer if allocated, then scratch buffers ordered by name.
func (p *Pool) Targets() []*Target {
	out := []*Target{p.a, p.b}
	if p.piece != nil {
		out = append(out, p.piece)
	}
	names := make([]string, 0, len(p.scratch))
	for name := range p.scratch {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, p.scratch[name])
	}
	return out
}
