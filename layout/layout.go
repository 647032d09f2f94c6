// Package layout places pieces on a canvas. The drivers only compute
// PieceSpecs; a Queue feeds them to a Collager one at a time so callers
// can pace drawing per frame.
package layout

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/gogpu/collage"
)

// ErrInvalidOptions is returned for layouts that cannot place any piece.
var ErrInvalidOptions = errors.New("layout: invalid options")

// GridOptions arranges pieces in cells.
type GridOptions struct {
	Cols, Rows int

	// Gap is the space between cells and around the border in pixels.
	Gap float64

	// MaxRotation is the largest rotation in degrees, drawn uniformly in
	// [-MaxRotation, MaxRotation] per cell.
	MaxRotation float64

	// Jitter moves each cell by up to this many pixels on both axes.
	Jitter float64

	// Image is the registry index for every cell, usually
	// collage.DefaultImage.
	Image int
}

// Grid returns one piece per cell, row by row. rng is consumed only for
// non-zero rotation or jitter.
func Grid(width, height float64, o GridOptions, rng *rand.Rand) ([]collage.PieceSpec, error) {
	if o.Cols <= 0 || o.Rows <= 0 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrInvalidOptions, o.Cols, o.Rows)
	}
	if o.Gap < 0 || o.MaxRotation < 0 || o.Jitter < 0 {
		return nil, fmt.Errorf("%w: negative gap, rotation or jitter", ErrInvalidOptions)
	}
	cw := (width - o.Gap*float64(o.Cols+1)) / float64(o.Cols)
	ch := (height - o.Gap*float64(o.Rows+1)) / float64(o.Rows)
	if !(cw > 0) || !(ch > 0) {
		return nil, fmt.Errorf("%w: %gx%g canvas leaves no room for %dx%d cells", ErrInvalidOptions, width, height, o.Cols, o.Rows)
	}

	specs := make([]collage.PieceSpec, 0, o.Cols*o.Rows)
	for row := range o.Rows {
		for col := range o.Cols {
			s := collage.PieceSpec{
				X:     o.Gap + float64(col)*(cw+o.Gap),
				Y:     o.Gap + float64(row)*(ch+o.Gap),
				W:     cw,
				H:     ch,
				Image: o.Image,
			}
			if o.Jitter > 0 {
				s.X += symmetric(rng, o.Jitter)
				s.Y += symmetric(rng, o.Jitter)
			}
			if o.MaxRotation > 0 {
				s.Rotation = symmetric(rng, o.MaxRotation)
			}
			specs = append(specs, s)
		}
	}
	return specs, nil
}

// ScatterOptions places pieces at random.
type ScatterOptions struct {
	Count int

	// MinSize and MaxSize bound the longer side of a piece in pixels.
	MinSize, MaxSize float64

	// MinAspect and MaxAspect bound width/height. Zero values mean 1.
	MinAspect, MaxAspect float64

	// MaxRotation is the largest rotation in degrees.
	MaxRotation float64

	// Image is the registry index for every piece.
	Image int
}

// Scatter returns Count pieces whose centers fall inside the canvas.
func Scatter(width, height float64, o ScatterOptions, rng *rand.Rand) ([]collage.PieceSpec, error) {
	if o.Count < 0 {
		return nil, fmt.Errorf("%w: count %d", ErrInvalidOptions, o.Count)
	}
	if !(o.MinSize > 0) || o.MaxSize < o.MinSize {
		return nil, fmt.Errorf("%w: size range [%g, %g]", ErrInvalidOptions, o.MinSize, o.MaxSize)
	}
	if o.MinAspect == 0 {
		o.MinAspect = 1
	}
	if o.MaxAspect == 0 {
		o.MaxAspect = o.MinAspect
	}
	if !(o.MinAspect > 0) || o.MaxAspect < o.MinAspect {
		return nil, fmt.Errorf("%w: aspect range [%g, %g]", ErrInvalidOptions, o.MinAspect, o.MaxAspect)
	}
	if o.MaxRotation < 0 {
		return nil, fmt.Errorf("%w: rotation %g", ErrInvalidOptions, o.MaxRotation)
	}
	if !(width > 0) || !(height > 0) {
		return nil, fmt.Errorf("%w: canvas %gx%g", ErrInvalidOptions, width, height)
	}

	specs := make([]collage.PieceSpec, 0, o.Count)
	for range o.Count {
		size := between(rng, o.MinSize, o.MaxSize)
		aspect := between(rng, o.MinAspect, o.MaxAspect)
		w, h := size, size/aspect
		if aspect < 1 {
			w, h = size*aspect, size
		}
		cx := rng.Float64() * width
		cy := rng.Float64() * height
		s := collage.PieceSpec{X: cx - w/2, Y: cy - h/2, W: w, H: h, Image: o.Image}
		if o.MaxRotation > 0 {
			s.Rotation = symmetric(rng, o.MaxRotation)
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// symmetric returns a uniform value in [-k, k).
func symmetric(rng *rand.Rand, k float64) float64 {
	return (rng.Float64()*2 - 1) * k
}

// between returns a uniform value in [lo, hi).
func between(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
