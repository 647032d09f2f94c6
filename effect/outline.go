package effect

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/collage/render"
	"github.com/gogpu/collage/shader"
)

// Scratch buffer names of the blur+threshold outline.
const (
	ScratchOutlineH = "outline.h"
	ScratchOutlineV = "outline.v"
)

// Strategy selects how outlines are computed.
type Strategy int

const (
	// StrategyBlur blurs the silhouette at half resolution and thresholds
	// it with noise. It is the default.
	StrategyBlur Strategy = iota

	// StrategyCircle samples a ring around each pixel.
	StrategyCircle
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyBlur:
		return "blur"
	case StrategyCircle:
		return "circle"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses "blur" or "circle".
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "blur", "":
		return StrategyBlur, nil
	case "circle":
		return StrategyCircle, nil
	default:
		return 0, fmt.Errorf("%w: outline strategy %q", ErrInvalidParams, s)
	}
}

// White is the default outline color.
var White = gputypes.Color{R: 1, G: 1, B: 1, A: 1}

// OutlineSettings are the persistent outline parameters of a pipeline.
type OutlineSettings struct {
	Strategy   Strategy
	Thickness  float64
	Quality    int
	NoiseScale float64
	Color      gputypes.Color
}

// Pass returns the outline pass for the configured strategy.
func (s OutlineSettings) Pass() Pass {
	if s.Strategy == StrategyCircle {
		return CircleOutline{Thickness: s.Thickness, Quality: s.Quality, Color: s.Color}
	}
	o := DefaultBlurOutline()
	o.Thickness = s.Thickness
	o.Quality = s.Quality
	o.NoiseScale = s.NoiseScale
	o.Color = s.Color
	return o
}

// CircleOutline marks pixels whose ring of neighbours reaches into the
// silhouette and paints them behind the source.
type CircleOutline struct {
	// Thickness is the ring radius in pixels.
	Thickness float64

	// Quality multiplies the 16 ring samples, up to MaxRingSamples.
	Quality int

	// Color is a straight-alpha outline color.
	Color gputypes.Color
}

// Kind returns KindCircleOutline.
func (o CircleOutline) Kind() Kind { return KindCircleOutline }

// Validate checks the color and rejects non-finite thickness.
func (o CircleOutline) Validate() error {
	if !finite(o.Thickness) {
		return fmt.Errorf("%w: outline thickness %g", ErrInvalidParams, o.Thickness)
	}
	return checkColor("outline color", o.Color)
}

// MaxRingSamples caps the ring samples of a circle outline.
const MaxRingSamples = 256

// Samples returns the number of ring samples: 16 * Quality, capped at
// MaxRingSamples.
func (o CircleOutline) Samples() int {
	return 16 * min(max(1, o.Quality), MaxRingSamples/16)
}

// Uniforms packs the circle outline parameter block in WGSL field order.
func (o CircleOutline) Uniforms() []float32 {
	return append(colorUniforms(o.Color), float32(o.Thickness), float32(o.Samples()), 0, 0)
}

// Apply writes the outlined source into dst. Thickness <= 0 or
// Quality <= 0 copies the source unchanged.
func (o CircleOutline) Apply(src *render.Texture, dst *render.Target, _ *Env) error {
	if err := o.Validate(); err != nil {
		return err
	}
	src = src.WithSampler(render.ClampLinear)
	if o.Thickness <= 0 || o.Quality <= 0 {
		return copyPass(src, dst)
	}

	w, h := dst.Size()
	n := o.Samples()
	ring := make([][2]float32, n)
	for i := range ring {
		angle := 2 * math.Pi * float64(i) / float64(n)
		ring[i] = [2]float32{
			float32(math.Cos(angle) * o.Thickness / float64(w)),
			float32(math.Sin(angle) * o.Thickness / float64(h)),
		}
	}
	color := render.FromGPU(o.Color)
	d := render.Draw{
		Program:  shader.OutlineCircle,
		Uniforms: o.Uniforms(),
		Textures: []*render.Texture{src},
		Samplers: []gputypes.SamplerDescriptor{render.ClampLinear},
	}

	return draw(dst, d, func(_, _ int, u, v float32) render.Color {
		c := src.Sample(u, v)
		if c.A >= 1 {
			return c
		}
		var reach float32
		for _, off := range ring {
			reach = max(reach, src.Alpha(u+off[0], v+off[1]))
		}
		if reach < 0.5 {
			return c
		}
		return c.Over(color.Scale(reach))
	})
}

// BlurOutline blurs the silhouette at half resolution and thresholds the
// result with a noise-varied cutoff, giving an outline of uneven width.
type BlurOutline struct {
	// Thickness is the nominal outline width in pixels.
	Thickness float64

	// Quality multiplies the blur taps.
	Quality int

	// NoiseScale is the tiling of the noise texture across the target.
	NoiseScale float64

	// Color is a straight-alpha outline color.
	Color gputypes.Color

	// BaseThreshold is the cutoff where the noise is 0.
	BaseThreshold float64

	// NoiseThreshold is the cutoff where the noise is 1.
	NoiseThreshold float64

	// EdgeSharpness sets the lower smoothstep edge to
	// threshold*EdgeSharpness. 1 gives a hard edge.
	EdgeSharpness float64
}

// DefaultBlurOutline returns the default blur+threshold outline.
func DefaultBlurOutline() BlurOutline {
	return BlurOutline{
		Thickness:      10,
		Quality:        1,
		NoiseScale:     1.2,
		Color:          White,
		BaseThreshold:  0.1,
		NoiseThreshold: 0.6,
		EdgeSharpness:  0.96,
	}
}

// Kind returns KindBlurOutline.
func (o BlurOutline) Kind() Kind { return KindBlurOutline }

// Validate checks thresholds, the noise scale and the color.
func (o BlurOutline) Validate() error {
	if !finite(o.Thickness) {
		return fmt.Errorf("%w: outline thickness %g", ErrInvalidParams, o.Thickness)
	}
	if !(o.NoiseScale > 0) || !finite(o.NoiseScale) {
		return fmt.Errorf("%w: outline noise scale %g", ErrInvalidParams, o.NoiseScale)
	}
	for _, v := range []float64{o.BaseThreshold, o.NoiseThreshold, o.EdgeSharpness} {
		if !(v >= 0 && v <= 1) {
			return fmt.Errorf("%w: outline threshold %g outside [0, 1]", ErrInvalidParams, v)
		}
	}
	return checkColor("outline color", o.Color)
}

// BlurSize returns the per-direction blur size in half-resolution texels.
func (o BlurOutline) BlurSize() float64 {
	return o.Thickness * 0.25
}

// Uniforms packs the threshold parameter block in WGSL field order for
// the given noise offset.
func (o BlurOutline) Uniforms(noiseOffset Vec2) []float32 {
	return append(colorUniforms(o.Color),
		float32(noiseOffset.X), float32(noiseOffset.Y),
		float32(o.NoiseScale), float32(o.NoiseScale),
		float32(o.BaseThreshold), float32(o.NoiseThreshold), float32(o.EdgeSharpness), 0,
	)
}

// NoiseOffset draws a fresh noise offset in [-100, 100) on both axes.
func NoiseOffset(env *Env) Vec2 {
	return Vec2{
		X: env.Rand.Float64()*200 - 100,
		Y: env.Rand.Float64()*200 - 100,
	}
}

// Apply writes the outlined source into dst. It needs env.Pool,
// env.Noise and env.Rand. Thickness <= 0 or Quality <= 0 copies the
// source unchanged without touching scratch buffers or the random source.
func (o BlurOutline) Apply(src *render.Texture, dst *render.Target, env *Env) error {
	if err := o.Validate(); err != nil {
		return err
	}
	src = src.WithSampler(render.ClampLinear)
	if o.Thickness <= 0 || o.Quality <= 0 {
		return copyPass(src, dst)
	}
	if env == nil || env.Pool == nil || env.Noise == nil || env.Rand == nil {
		return fmt.Errorf("%w: blur outline needs pool, noise and rand", ErrMissingResource)
	}

	w, h := dst.Size()
	hw, hh := (w+1)/2, (h+1)/2

	blurH, err := env.Pool.Scratch(ScratchOutlineH, hw, hh)
	if err != nil {
		return err
	}
	if err := (BlurParams{Direction: Horizontal, Size: o.BlurSize(), Quality: o.Quality}).Apply(src, blurH, env); err != nil {
		return err
	}
	hTex, err := blurH.Texture(render.ClampLinear)
	if err != nil {
		return err
	}

	blurV, err := env.Pool.Scratch(ScratchOutlineV, hw, hh)
	if err != nil {
		return err
	}
	if err := (BlurParams{Direction: Vertical, Size: o.BlurSize(), Quality: o.Quality}).Apply(hTex, blurV, env); err != nil {
		return err
	}
	blurred, err := blurV.Texture(render.ClampLinear)
	if err != nil {
		return err
	}

	offset := NoiseOffset(env)
	noise := env.Noise.WithSampler(render.RepeatLinear)
	var (
		ox, oy    = float32(offset.X), float32(offset.Y)
		scale     = float32(o.NoiseScale)
		base      = float32(o.BaseThreshold)
		top       = float32(o.NoiseThreshold)
		sharpness = float32(o.EdgeSharpness)
		color     = render.FromGPU(o.Color)
	)
	d := render.Draw{
		Program:  shader.OutlineThreshold,
		Uniforms: o.Uniforms(offset),
		Textures: []*render.Texture{src, blurred, noise},
		Samplers: []gputypes.SamplerDescriptor{render.ClampLinear, render.RepeatLinear},
	}

	return draw(dst, d, func(_, _ int, u, v float32) render.Color {
		c := src.Sample(u, v)
		if c.A >= 1 {
			return c
		}
		b := blurred.Alpha(u, v)
		n := noise.Sample(ox+u*scale, oy+v*scale).R
		t := render.Mix(base, top, n)
		coverage := render.Smoothstep(t*sharpness, t, b)
		if coverage == 0 {
			return c
		}
		return c.Over(color.Scale(coverage))
	})
}
