package effect

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/collage/render"
	"github.com/gogpu/collage/shader"
)

// Blur directions.
var (
	Horizontal = Vec2{X: 1}
	Vertical   = Vec2{Y: 1}
)

// BlurParams is one directional Gaussian pass.
type BlurParams struct {
	// Direction is the blur axis, usually Horizontal or Vertical.
	Direction Vec2

	// Size is the blur reach in destination texels on each side.
	Size float64

	// Quality multiplies the number of taps per texel of reach.
	Quality int
}

// Kind returns KindBlur.
func (p BlurParams) Kind() Kind { return KindBlur }

// Validate rejects non-finite values and a zero direction.
// Size <= 0 or Quality <= 0 is valid and makes the pass a copy.
func (p BlurParams) Validate() error {
	if !finite(p.Size) || !finite(p.Direction.X) || !finite(p.Direction.Y) {
		return fmt.Errorf("%w: blur %+v", ErrInvalidParams, p)
	}
	if p.identity() {
		return nil
	}
	if p.Direction == (Vec2{}) {
		return fmt.Errorf("%w: zero blur direction", ErrInvalidParams)
	}
	return nil
}

func (p BlurParams) identity() bool {
	return p.Size <= 0 || p.Quality <= 0
}

// Uniforms packs the blur parameter block in WGSL field order.
func (p BlurParams) Uniforms() []float32 {
	return []float32{
		float32(p.Direction.X), float32(p.Direction.Y),
		float32(p.Size), float32(p.Quality),
	}
}

// Apply blurs src into dst. dst may be smaller than src; offsets are
// measured in dst texels.
func (p BlurParams) Apply(src *render.Texture, dst *render.Target, _ *Env) error {
	if err := p.Validate(); err != nil {
		return err
	}
	src = src.WithSampler(render.ClampLinear)
	if p.identity() {
		return copyPass(src, dst)
	}

	taps := CachedTaps(p.Size, p.Quality)
	w, h := dst.Size()
	du := float32(p.Direction.X) / float32(w)
	dv := float32(p.Direction.Y) / float32(h)

	d := render.Draw{
		Program:  shader.Blur,
		Uniforms: p.Uniforms(),
		Textures: []*render.Texture{src},
		Samplers: []gputypes.SamplerDescriptor{render.ClampLinear},
	}
	return draw(dst, d, func(_, _ int, u, v float32) render.Color {
		sum := src.Sample(u, v).Scale(taps.Center)
		for i, d := range taps.Offsets {
			ou, ov := du*d, dv*d
			pair := src.Sample(u+ou, v+ov).Add(src.Sample(u-ou, v-ov))
			sum = sum.Add(pair.Scale(taps.Weights[i]))
		}
		return sum
	})
}
