// Package noise generates the tiling grayscale noise textures that drive
// torn edges and outline variation.
//
// Textures are seamless: sampling them with a repeating address mode shows
// no visible seam at the tile border, so they can be offset and scaled
// freely by the passes that read them.
package noise

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/anthonynsimon/bild/perlin"

	"github.com/gogpu/collage/render"
)

// ErrInvalidOptions is returned for non-positive sizes, frequencies or
// octave counts.
var ErrInvalidOptions = errors.New("noise: invalid options")

// Options configures a noise texture.
type Options struct {
	// Size is the edge length of the square tile in texels.
	Size int

	// Frequency is the number of lattice cells across the tile for the
	// first octave.
	Frequency float64

	// Octaves is the number of summed octaves.
	Octaves int

	// Persistence is the weight divisor between octaves (perlin alpha).
	// Zero means 2.
	Persistence float64

	// Lacunarity is the frequency multiplier between octaves (perlin beta).
	// Zero means 2.
	Lacunarity float64
}

// Preset options for the three textures the pipeline uses.
var (
	// Shape is a coarse noise for the overall torn silhouette.
	Shape = Options{Size: 256, Frequency: 32, Octaves: 4}

	// Detail is a fine noise that roughens the torn edge.
	Detail = Options{Size: 256, Frequency: 64, Octaves: 3}

	// Outline varies the outline thickness around a piece.
	Outline = Options{Size: 256, Frequency: 48, Octaves: 3}
)

// Validate checks that the options describe a texture.
func (o Options) Validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("%w: size %d", ErrInvalidOptions, o.Size)
	}
	if !(o.Frequency > 0) {
		return fmt.Errorf("%w: frequency %g", ErrInvalidOptions, o.Frequency)
	}
	if o.Octaves <= 0 {
		return fmt.Errorf("%w: octaves %d", ErrInvalidOptions, o.Octaves)
	}
	return nil
}

// Generate renders a seamless grayscale noise tile. Values span the full
// [0, 255] range; alpha is opaque.
func Generate(o Options, src rand.Source) (*image.RGBA, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	alpha, beta := o.Persistence, o.Lacunarity
	if alpha == 0 {
		alpha = 2
	}
	if beta == 0 {
		beta = 2
	}
	p := perlin.NewPerlinRandSource(alpha, beta, o.Octaves, src)

	n := o.Size
	vals := make([]float64, n*n)
	lo, hi := math.Inf(1), math.Inf(-1)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			v := seamless(p, float64(x), float64(y), float64(n), o.Frequency)
			vals[y*n+x] = v
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	span := hi - lo
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	for i, v := range vals {
		g := uint8(127)
		if span > 0 {
			g = uint8(math.Round((v - lo) / span * 255))
		}
		img.Pix[i*4+0] = g
		img.Pix[i*4+1] = g
		img.Pix[i*4+2] = g
		img.Pix[i*4+3] = 255
	}
	return img, nil
}

// seamless blends four periodic copies of the noise field so opposite
// edges of an n x n tile match.
func seamless(p *perlin.Perlin, x, y, n, freq float64) float64 {
	k := freq / n
	a := p.Noise2D(x*k, y*k)
	b := p.Noise2D((x-n)*k, y*k)
	c := p.Noise2D(x*k, (y-n)*k)
	d := p.Noise2D((x-n)*k, (y-n)*k)

	fx := x / n
	fy := y / n
	return a*(1-fx)*(1-fy) + b*fx*(1-fy) + c*(1-fx)*fy + d*fx*fy
}

// Texture generates a noise tile bound to a repeating bilinear sampler.
func Texture(o Options, src rand.Source) (*render.Texture, error) {
	img, err := Generate(o, src)
	if err != nil {
		return nil, err
	}
	return render.NewTexture(img, render.RepeatLinear), nil
}

// Set holds the three noise textures of the pipeline.
type Set struct {
	Shape   *render.Texture
	Detail  *render.Texture
	Outline *render.Texture
}

// NewSet generates the shape, detail and outline textures from one seed.
func NewSet(seed int64) (Set, error) {
	var (
		s   Set
		err error
	)
	if s.Shape, err = Texture(Shape, rand.NewSource(seed)); err != nil {
		return Set{}, err
	}
	if s.Detail, err = Texture(Detail, rand.NewSource(seed+1)); err != nil {
		return Set{}, err
	}
	if s.Outline, err = Texture(Outline, rand.NewSource(seed+2)); err != nil {
		return Set{}, err
	}
	return s, nil
}
