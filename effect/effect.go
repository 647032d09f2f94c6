// Package effect implements the full-screen passes applied to a collage
// piece: directional Gaussian blur, outline (circle or blur+threshold),
// drop shadow and LUT color grading.
//
// Every pass reads one source texture and writes one target. The target is
// begun, cleared, shaded by a single full-target fragment and ended, so a
// pass never reads from the buffer it writes. Parameters are typed
// structs validated when the pass is applied.
package effect

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/collage/render"
	"github.com/gogpu/collage/shader"
)

var (
	// ErrInvalidParams is returned by Validate for out-of-range parameters.
	ErrInvalidParams = errors.New("effect: invalid parameters")

	// ErrMissingResource is returned when the environment lacks a texture,
	// pool or random source the pass needs.
	ErrMissingResource = errors.New("effect: missing resource")
)

// Kind tags a pass.
type Kind int

// Pass kinds.
const (
	KindBlur Kind = iota + 1
	KindCircleOutline
	KindBlurOutline
	KindShadow
	KindLUT
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBlur:
		return "blur"
	case KindCircleOutline:
		return "outline-circle"
	case KindBlurOutline:
		return "outline-blur"
	case KindShadow:
		return "shadow"
	case KindLUT:
		return "lut"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Programs returns the shader programs a pass of this kind runs, in
// execution order.
func (k Kind) Programs() []string {
	switch k {
	case KindBlur:
		return []string{shader.Blur}
	case KindCircleOutline:
		return []string{shader.OutlineCircle}
	case KindBlurOutline:
		return []string{shader.Blur, shader.Blur, shader.OutlineThreshold}
	case KindShadow:
		return []string{shader.Blur, shader.Blur, shader.Shadow}
	case KindLUT:
		return []string{shader.LUT}
	default:
		return nil
	}
}

// Env carries the resources passes may need beyond their source texture.
type Env struct {
	// Rand is drawn from for per-invocation random parameters.
	Rand *rand.Rand

	// Pool provides scratch buffers for multi-step passes.
	Pool *render.Pool

	// Noise is the tiling noise texture of the blur+threshold outline.
	Noise *render.Texture

	// LUT is the lookup table of the grade pass.
	LUT *LUT
}

// Pass is one full-screen effect.
type Pass interface {
	Kind() Kind
	Validate() error
	Apply(src *render.Texture, dst *render.Target, env *Env) error
}

// Vec2 is a pair of values in pixels or normalized units.
type Vec2 struct {
	X, Y float64
}

// draw shades dst with d following the begin, clear, draw, end sequence.
// frag is the CPU rendition of d's program.
func draw(dst *render.Target, d render.Draw, frag render.Fragment) error {
	if _, err := dst.Begin(); err != nil {
		return err
	}
	defer dst.End()
	dst.Clear()
	return dst.Shade(d, frag)
}

// copyPass writes src unchanged into dst.
func copyPass(src *render.Texture, dst *render.Target) error {
	if _, err := dst.Begin(); err != nil {
		return err
	}
	defer dst.End()
	return render.Copy(dst, src)
}

// checkColor validates a straight-alpha color.
func checkColor(name string, c gputypes.Color) error {
	for _, v := range []float64{c.R, c.G, c.B, c.A} {
		if !(v >= 0 && v <= 1) {
			return fmt.Errorf("%w: %s %+v outside [0, 1]", ErrInvalidParams, name, c)
		}
	}
	return nil
}

// finite reports whether v is neither NaN nor infinite.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func colorUniforms(c gputypes.Color) []float32 {
	return []float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
}
