package effect

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/collage/render"
	"github.com/gogpu/collage/shader"
)

// Scratch buffer names of the shadow pass.
const (
	ScratchShadowH = "shadow.h"
	ScratchShadowV = "shadow.v"
)

// Black is the default shadow color.
var Black = gputypes.Color{A: 1}

// ShadowParams is a drop shadow composited behind the source.
//
// The silhouette is blurred separably into two scratch buffers, then a
// composite step displaces it by Offset, tints it with Color.rgb at
// Opacity and draws the source over it.
type ShadowParams struct {
	// Offset displaces the shadow in pixels. Positive values move it
	// right and down.
	Offset Vec2

	// BlurRadius is the blur reach in pixels.
	BlurRadius float64

	// Color tints the shadow. Only the RGB channels are used.
	Color gputypes.Color

	// Opacity scales the shadow alpha.
	Opacity float64

	// Quality multiplies the blur taps.
	Quality int
}

// DefaultShadow returns the default drop shadow, offset 10 px right and
// down. Sketches wanting the shadow up and left set a negative Offset.
func DefaultShadow() ShadowParams {
	return ShadowParams{
		Offset:     Vec2{X: 10, Y: 10},
		BlurRadius: 6,
		Color:      Black,
		Opacity:    0.6,
		Quality:    2,
	}
}

// Kind returns KindShadow.
func (p ShadowParams) Kind() Kind { return KindShadow }

// Validate checks opacity, radius, offset and color.
func (p ShadowParams) Validate() error {
	if !(p.Opacity >= 0 && p.Opacity <= 1) {
		return fmt.Errorf("%w: shadow opacity %g outside [0, 1]", ErrInvalidParams, p.Opacity)
	}
	if !finite(p.BlurRadius) || p.BlurRadius < 0 {
		return fmt.Errorf("%w: shadow blur radius %g", ErrInvalidParams, p.BlurRadius)
	}
	if !finite(p.Offset.X) || !finite(p.Offset.Y) {
		return fmt.Errorf("%w: shadow offset %+v", ErrInvalidParams, p.Offset)
	}
	return checkColor("shadow color", p.Color)
}

// Uniforms packs the shadow composite parameter block in WGSL field order.
func (p ShadowParams) Uniforms() []float32 {
	return append(colorUniforms(p.Color),
		float32(p.Offset.X), float32(p.Offset.Y), float32(p.Opacity), 0,
	)
}

// Apply writes the source with its shadow into dst. Blurring needs
// env.Pool; a zero radius or quality composites the hard silhouette.
func (p ShadowParams) Apply(src *render.Texture, dst *render.Target, env *Env) error {
	if err := p.Validate(); err != nil {
		return err
	}
	src = src.WithSampler(render.ClampLinear)

	silhouette := src
	if p.BlurRadius > 0 && p.Quality > 0 {
		if env == nil || env.Pool == nil {
			return fmt.Errorf("%w: shadow blur needs a pool", ErrMissingResource)
		}
		var err error
		silhouette, err = p.blur(src, dst, env)
		if err != nil {
			return err
		}
	}

	w, h := dst.Size()
	var (
		du      = float32(p.Offset.X) / float32(w)
		dv      = float32(p.Offset.Y) / float32(h)
		opacity = float32(p.Opacity)
		r, g, b = float32(p.Color.R), float32(p.Color.G), float32(p.Color.B)
	)
	d := render.Draw{
		Program:  shader.Shadow,
		Uniforms: p.Uniforms(),
		Textures: []*render.Texture{src, silhouette},
		Samplers: []gputypes.SamplerDescriptor{render.ClampLinear},
	}

	return draw(dst, d, func(_, _ int, u, v float32) render.Color {
		c := src.Sample(u, v)
		if c.A >= 1 {
			return c
		}
		su, sv := u-du, v-dv
		if su < 0 || su > 1 || sv < 0 || sv > 1 {
			return c
		}
		a := silhouette.Alpha(su, sv) * opacity
		if a == 0 {
			return c
		}
		return c.Over(render.Color{R: r * a, G: g * a, B: b * a, A: a})
	})
}

func (p ShadowParams) blur(src *render.Texture, dst *render.Target, env *Env) (*render.Texture, error) {
	w, h := dst.Size()

	blurH, err := env.Pool.Scratch(ScratchShadowH, w, h)
	if err != nil {
		return nil, err
	}
	if err := (BlurParams{Direction: Horizontal, Size: p.BlurRadius, Quality: p.Quality}).Apply(src, blurH, env); err != nil {
		return nil, err
	}
	hTex, err := blurH.Texture(render.ClampLinear)
	if err != nil {
		return nil, err
	}

	blurV, err := env.Pool.Scratch(ScratchShadowV, w, h)
	if err != nil {
		return nil, err
	}
	if err := (BlurParams{Direction: Vertical, Size: p.BlurRadius, Quality: p.Quality}).Apply(hTex, blurV, env); err != nil {
		return nil, err
	}
	return blurV.Texture(render.ClampLinear)
}
