package collage

import (
	"image"

	"github.com/gogpu/collage/effect"
	"github.com/gogpu/collage/mask"
)

// DefaultImage requests a uniformly random registered image.
const DefaultImage = -1

// PieceSpec describes one placement. The zero Image is the first
// registered image; use DefaultImage for a random one.
type PieceSpec struct {
	X, Y, W, H float64

	// Rotation is in degrees, clockwise on the y-down canvas.
	Rotation float64

	Image int
}

// Piece reports what DrawImage did.
type Piece struct {
	// Index is the registered image that was drawn.
	Index int

	// Size is the piece buffer size in pixels.
	Size image.Point

	// Mask holds the sampled ratio, crop and noise parameters.
	Mask mask.Result

	// Passes lists the effect passes in execution order. One swap
	// followed each of them.
	Passes []effect.Kind

	// Swapped is the ping-pong state after the piece.
	Swapped bool
}

// Swaps returns the number of ping-pong swaps performed.
func (p Piece) Swaps() int {
	return len(p.Passes)
}
