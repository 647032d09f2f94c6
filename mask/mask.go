// Package mask generates the torn-paper sprite of one collage piece.
//
// A piece is a random crop of a source photo whose alpha is carved near
// the border by two tiling noise textures: a coarse shape noise decides
// how deep the tear reaches, a fine detail noise roughens it.
package mask

import (
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/collage/render"
	"github.com/gogpu/collage/shader"
)

// Vec2 is a pair of normalized texture-space values.
type Vec2 struct {
	X, Y float64
}

// Params controls the tear.
type Params struct {
	// TearRatio is how far into the piece the shape noise may cut, as a
	// fraction of the distance from the border to the center.
	TearRatio float64

	// ShapeNoiseScale is the tiling of the shape noise across the piece.
	ShapeNoiseScale float64

	// DetailTearRatio scales the detail perturbation relative to TearRatio.
	DetailTearRatio float64

	// DetailNoise enables the detail perturbation.
	DetailNoise bool

	// DetailScale is the tiling of the detail noise across the piece.
	DetailScale float64
}

// DefaultParams returns the standard torn-paper look.
func DefaultParams() Params {
	return Params{
		TearRatio:       0.2,
		ShapeNoiseScale: 0.1,
		DetailTearRatio: 0.5,
		DetailNoise:     true,
		DetailScale:     0.2,
	}
}

// Validate checks the tear ratios and tiling scales.
func (p Params) Validate() error {
	if !(p.TearRatio >= 0 && p.TearRatio <= 1) {
		return fmt.Errorf("%w: tear ratio %g outside [0, 1]", ErrInvalidParams, p.TearRatio)
	}
	if !(p.DetailTearRatio >= 0 && p.DetailTearRatio <= 1) {
		return fmt.Errorf("%w: detail tear ratio %g outside [0, 1]", ErrInvalidParams, p.DetailTearRatio)
	}
	if !(p.ShapeNoiseScale > 0) {
		return fmt.Errorf("%w: shape noise scale %g", ErrInvalidTiling, p.ShapeNoiseScale)
	}
	if p.DetailNoise && !(p.DetailScale > 0) {
		return fmt.Errorf("%w: detail scale %g", ErrInvalidTiling, p.DetailScale)
	}
	return nil
}

// Result describes the random choices behind one generated mask.
type Result struct {
	// Ratio is the sampled draw-size ratio.
	Ratio float64

	// CropOffset and CropScale select the sampled part of the source in
	// normalized coordinates. Both axes satisfy
	// 0 <= CropOffset and CropOffset+CropScale <= 1.
	CropOffset Vec2
	CropScale  Vec2

	ShapeOffset  Vec2
	ShapeTiling  Vec2
	DetailOffset Vec2
	DetailTiling Vec2
}

// Plan draws the random parameters of a width x height mask. It consumes
// the generator in a fixed order: ratio, crop offset, shape offset, detail
// offset.
func Plan(width, height int, profile Profile, params Params, rng *rand.Rand) (Result, error) {
	if width <= 0 || height <= 0 {
		return Result{}, fmt.Errorf("%w: mask %dx%d", render.ErrInvalidSize, width, height)
	}
	if err := profile.Validate(); err != nil {
		return Result{}, err
	}
	if err := params.Validate(); err != nil {
		return Result{}, err
	}

	aspect := float64(width) / float64(height)
	var res Result
	res.Ratio = profile.Sample(rng)

	sx := aspect * res.Ratio
	sy := res.Ratio
	if sx > 1 {
		sy /= sx
		sx = 1
	}
	res.CropScale = Vec2{X: sx, Y: sy}
	res.CropOffset = Vec2{
		X: rng.Float64() * (1 - sx),
		Y: rng.Float64() * (1 - sy),
	}

	res.ShapeOffset = Vec2{X: signed(rng), Y: signed(rng)}
	res.ShapeTiling = tiling(params.ShapeNoiseScale, aspect)

	res.DetailOffset = Vec2{X: signed(rng), Y: signed(rng)}
	res.DetailTiling = tiling(params.DetailScale, aspect)

	return res, nil
}

// signed returns a uniform value in [-1, 1).
func signed(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}

// tiling stretches the noise on the longer axis so it stays isotropic.
func tiling(scale, aspect float64) Vec2 {
	return Vec2{
		X: scale * max(aspect, 1),
		Y: scale * max(1/aspect, 1),
	}
}

// Uniforms packs the mask parameter block in WGSL field order.
func (r Result) Uniforms(params Params) []float32 {
	detail := float32(0)
	if params.DetailNoise {
		detail = 1
	}
	return []float32{
		float32(r.CropOffset.X), float32(r.CropOffset.Y),
		float32(r.CropScale.X), float32(r.CropScale.Y),
		float32(r.ShapeOffset.X), float32(r.ShapeOffset.Y),
		float32(r.ShapeTiling.X), float32(r.ShapeTiling.Y),
		float32(r.DetailOffset.X), float32(r.DetailOffset.Y),
		float32(r.DetailTiling.X), float32(r.DetailTiling.Y),
		float32(params.TearRatio), float32(params.DetailTearRatio), detail, 0,
	}
}

// Generator renders masks from a pair of noise textures.
type Generator struct {
	shape  *render.Texture
	detail *render.Texture
}

// NewGenerator binds the shape and detail noise textures. They are
// sampled with a repeating bilinear sampler regardless of their own.
func NewGenerator(shape, detail *render.Texture) (*Generator, error) {
	if shape == nil || detail == nil {
		return nil, fmt.Errorf("%w: missing noise texture", ErrInvalidTiling)
	}
	return &Generator{
		shape:  shape.WithSampler(render.RepeatLinear),
		detail: detail.WithSampler(render.RepeatLinear),
	}, nil
}

// Generate writes a torn crop of src into dst, which keeps its size.
// The output is premultiplied. All validation happens before dst is
// touched.
func (g *Generator) Generate(dst *render.Target, src *render.Texture, profile Profile, params Params, rng *rand.Rand) (Result, error) {
	w, h := dst.Size()
	res, err := Plan(w, h, profile, params, rng)
	if err != nil {
		return Result{}, err
	}
	if _, err := dst.Begin(); err != nil {
		return Result{}, err
	}
	defer dst.End()
	dst.Clear()

	src = src.WithSampler(render.ClampLinear)
	d := render.Draw{
		Program:  shader.Mask,
		Uniforms: res.Uniforms(params),
		Textures: []*render.Texture{src, g.shape, g.detail},
		Samplers: []gputypes.SamplerDescriptor{render.ClampLinear, render.RepeatLinear},
	}
	err = dst.Shade(d, g.fragment(src, res, params, w, h))
	return res, err
}

func (g *Generator) fragment(src *render.Texture, res Result, params Params, w, h int) render.Fragment {
	var (
		cropOX, cropOY = float32(res.CropOffset.X), float32(res.CropOffset.Y)
		cropSX, cropSY = float32(res.CropScale.X), float32(res.CropScale.Y)
		shapeOX        = float32(res.ShapeOffset.X)
		shapeOY        = float32(res.ShapeOffset.Y)
		shapeSX        = float32(res.ShapeTiling.X)
		shapeSY        = float32(res.ShapeTiling.Y)
		detailOX       = float32(res.DetailOffset.X)
		detailOY       = float32(res.DetailOffset.Y)
		detailSX       = float32(res.DetailTiling.X)
		detailSY       = float32(res.DetailTiling.Y)
		tear           = float32(params.TearRatio)
		detailTear     = float32(params.DetailTearRatio)
		useDetail      = params.DetailNoise
		px             = 1 / float32(min(w, h))
	)

	return func(_, _ int, u, v float32) render.Color {
		edge := 2 * math32.Min(math32.Min(u, 1-u), math32.Min(v, 1-v))

		t := tear * g.shape.Sample(shapeOX+u*shapeSX, shapeOY+v*shapeSY).R
		if useDetail {
			d := g.detail.Sample(detailOX+u*detailSX, detailOY+v*detailSY).R
			t = math32.Max(t+tear*detailTear*(2*d-1), 0)
		}

		alpha := render.Smoothstep(t-px, t+px, edge)
		if alpha == 0 {
			return render.Transparent
		}
		return src.Sample(cropOX+u*cropSX, cropOY+v*cropSY).Scale(alpha)
	}
}
