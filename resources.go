package collage

import (
	"fmt"
	"math/rand"

	"github.com/gogpu/collage/effect"
	"github.com/gogpu/collage/noise"
	"github.com/gogpu/collage/render"
	"github.com/gogpu/collage/shader"
)

// Resources are the caller-owned inputs of a Collager. Only Canvas is
// required; missing noise textures are generated from the seed and
// missing shaders default to the compiled builtin library.
type Resources struct {
	// Canvas receives every finished piece.
	Canvas *render.Target

	// ShapeNoise carves the torn silhouette.
	ShapeNoise *render.Texture

	// DetailNoise perturbs the torn edge at a finer scale.
	DetailNoise *render.Texture

	// OutlineNoise varies the blur+threshold outline thickness.
	OutlineNoise *render.Texture

	// LUT enables the grade pass when set.
	LUT *effect.LUT

	// Shaders holds the compiled pass programs.
	Shaders *shader.Library
}

// NewCanvas allocates a transparent canvas target.
func NewCanvas(width, height int) (*render.Target, error) {
	return render.NewTarget("canvas", width, height)
}

// withDefaults fills the optional resources. Noise textures use seed,
// seed+1 and seed+2 like noise.NewSet.
func (r Resources) withDefaults(seed int64) (Resources, error) {
	if r.Canvas == nil {
		return r, ErrMissingCanvas
	}
	defaults := []struct {
		tex  **render.Texture
		opts noise.Options
		seed int64
	}{
		{&r.ShapeNoise, noise.Shape, seed},
		{&r.DetailNoise, noise.Detail, seed + 1},
		{&r.OutlineNoise, noise.Outline, seed + 2},
	}
	for _, d := range defaults {
		if *d.tex != nil {
			continue
		}
		tex, err := noise.Texture(d.opts, rand.NewSource(d.seed))
		if err != nil {
			return r, err
		}
		*d.tex = tex
	}
	if r.Shaders == nil {
		lib, err := shader.Builtin()
		if err != nil {
			return r, err
		}
		r.Shaders = lib
	}
	return r, nil
}

// programs lists the shader programs a pipeline with these settings runs.
func programs(p Params, lut bool) []string {
	names := []string{shader.Mask}
	names = append(names, p.Outline.Pass().Kind().Programs()...)
	names = append(names, effect.KindShadow.Programs()...)
	if lut {
		names = append(names, effect.KindLUT.Programs()...)
	}
	return names
}

// checkPrograms fails when the library lacks a program the pipeline runs.
func (r Resources) checkPrograms(p Params) error {
	if err := r.Shaders.Require(programs(p, r.LUT != nil)...); err != nil {
		return fmt.Errorf("collage: shaders: %w", err)
	}
	return nil
}
