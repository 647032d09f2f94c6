// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSwapIdempotentInPairs(t *testing.T) {
	p, err := NewPool(16, 16)
	require.NoError(t, err)

	src, dst := p.Source(), p.Target()
	require.NotSame(t, src, dst)
	assert.False(t, p.Swapped(), "initial swap state")

	p.Swap()
	assert.Same(t, dst, p.Source(), "source after one swap")
	assert.Same(t, src, p.Target(), "target after one swap")

	p.Swap()
	assert.Same(t, src, p.Source(), "source after two swaps")
	assert.Same(t, dst, p.Target(), "target after two swaps")
	assert.False(t, p.Swapped())
}

func TestPoolPieceExactSize(t *testing.T) {
	p, err := NewPool(32, 32)
	require.NoError(t, err)

	tests := []struct{ w, h int }{{10, 20}, {7, 7}, {100, 3}}
	for _, tt := range tests {
		piece, err := p.Piece(tt.w, tt.h)
		require.NoError(t, err)
		w, h := piece.Size()
		assert.Equal(t, tt.w, w)
		assert.Equal(t, tt.h, h)
	}
}

func TestPoolPieceRejectsNonPositive(t *testing.T) {
	p, _ := NewPool(8, 8)
	_, err := p.Piece(0, 4)
	assert.True(t, errors.Is(err, ErrInvalidSize), "err = %v", err)

	_, err = p.Piece(4, 4)
	require.NoError(t, err)
	_, err = p.Piece(4, -2)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestPoolScratchReuse(t *testing.T) {
	p, _ := NewPool(8, 8)

	a, err := p.Scratch("blur.h", 4, 4)
	require.NoError(t, err)
	b, err := p.Scratch("blur.h", 4, 4)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Same(t, a.Image(), b.Image(), "storage reused for unchanged size")

	c, err := p.Scratch("blur.h", 6, 2)
	require.NoError(t, err)
	assert.Same(t, a, c)
	w, h := c.Size()
	assert.Equal(t, [2]int{6, 2}, [2]int{w, h})

	other, err := p.Scratch("blur.v", 6, 2)
	require.NoError(t, err)
	assert.NotSame(t, a, other)
}

func TestPoolClearAll(t *testing.T) {
	p, _ := NewPool(4, 4)
	piece, _ := p.Piece(2, 2)
	scratch, _ := p.Scratch("s", 3, 3)

	red := color.RGBA{255, 0, 0, 255}
	for _, tgt := range []*Target{p.Source(), p.Target(), piece, scratch} {
		tgt.Fill(red)
	}
	assert.Len(t, p.Targets(), 4)

	p.ClearAll()
	for _, tgt := range p.Targets() {
		for _, v := range tgt.Image().Pix {
			if v != 0 {
				t.Errorf("%s not cleared", tgt.Label())
				break
			}
		}
	}
}

func TestPoolResizeCanvas(t *testing.T) {
	p, _ := NewPool(4, 4)
	require.NoError(t, p.ResizeCanvas(9, 5))
	w, h := p.CanvasSize()
	assert.Equal(t, 9, w)
	assert.Equal(t, 5, h)
	assert.ErrorIs(t, p.ResizeCanvas(0, 5), ErrInvalidSize)
}
