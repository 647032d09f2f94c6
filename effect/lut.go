package effect

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/collage/render"
	"github.com/gogpu/collage/shader"
)

// ErrInvalidLUT is returned for images that are not a lookup-table atlas.
var ErrInvalidLUT = errors.New("effect: invalid LUT image")

// Layout is how the blue slices of a 3D table are arranged in 2D.
type Layout int

const (
	// LayoutStrip places N slices of N x N side by side: an N*N x N image.
	LayoutStrip Layout = iota

	// LayoutGrid places N slices on a k x k grid with k*k == N: a square
	// image of side N*k.
	LayoutGrid
)

// String returns the layout name.
func (l Layout) String() string {
	if l == LayoutGrid {
		return "grid"
	}
	return "strip"
}

// LUT is a 3D color lookup table stored as a 2D atlas.
type LUT struct {
	tex         *render.Texture
	size        int
	tilesPerRow int
	layout      Layout
}

// NewLUT interprets img as a strip (N*N x N) or square grid atlas.
func NewLUT(img image.Image) (*LUT, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	tex := render.NewTexture(img, render.ClampLinear)

	switch {
	case h >= 2 && w == h*h:
		return &LUT{tex: tex, size: h, tilesPerRow: h, layout: LayoutStrip}, nil
	case w == h:
		k := int(math.Round(math.Cbrt(float64(w))))
		if k >= 2 && k*k*k == w {
			return &LUT{tex: tex, size: k * k, tilesPerRow: k, layout: LayoutGrid}, nil
		}
	}
	return nil, fmt.Errorf("%w: %dx%d is neither an N*N x N strip nor a square grid", ErrInvalidLUT, w, h)
}

// IdentityLUT builds an n-level strip table that maps every color to
// itself.
func IdentityLUT(n int) (*LUT, error) {
	if n < 2 || n > 256 {
		return nil, fmt.Errorf("%w: identity size %d outside [2, 256]", ErrInvalidLUT, n)
	}
	img := image.NewRGBA(image.Rect(0, 0, n*n, n))
	scale := 255 / float64(n-1)
	for b := range n {
		for g := range n {
			for r := range n {
				i := img.PixOffset(b*n+r, g)
				img.Pix[i+0] = uint8(math.Round(float64(r) * scale))
				img.Pix[i+1] = uint8(math.Round(float64(g) * scale))
				img.Pix[i+2] = uint8(math.Round(float64(b) * scale))
				img.Pix[i+3] = 255
			}
		}
	}
	return NewLUT(img)
}

// Size returns the number of levels per channel.
func (l *LUT) Size() int { return l.size }

// Layout returns the atlas layout.
func (l *LUT) Layout() Layout { return l.layout }

// Texture returns the atlas texture.
func (l *LUT) Texture() *render.Texture { return l.tex }

// TilesPerRow returns the number of slices on one atlas row.
func (l *LUT) TilesPerRow() int { return l.tilesPerRow }

// Lookup maps a straight color through the table with trilinear
// interpolation.
func (l *LUT) Lookup(r, g, b float32) (float32, float32, float32) {
	n := float32(l.size - 1)
	bs := clamp01(b) * n
	b0 := math32.Floor(bs)
	b1 := math32.Min(b0+1, n)
	f := bs - b0

	c0 := l.slice(r, g, int(b0))
	c1 := l.slice(r, g, int(b1))
	c := c0.Lerp(c1, f)
	return c.R, c.G, c.B
}

// slice samples slice s at (r, g) with bilinear filtering inside the tile.
func (l *LUT) slice(r, g float32, s int) render.Color {
	n := float32(l.size)
	col := float32(s % l.tilesPerRow)
	row := float32(s / l.tilesPerRow)

	x := col*n + clamp01(r)*(n-1) + 0.5
	y := row*n + clamp01(g)*(n-1) + 0.5
	return l.tex.Sample(x/float32(l.tex.Width()), y/float32(l.tex.Height()))
}

// LUTParams is the color grade pass.
type LUTParams struct {
	// Intensity blends from the source (0) to the graded color (1).
	Intensity float64
}

// Kind returns KindLUT.
func (p LUTParams) Kind() Kind { return KindLUT }

// Validate checks that Intensity is within [0, 1].
func (p LUTParams) Validate() error {
	if !(p.Intensity >= 0 && p.Intensity <= 1) {
		return fmt.Errorf("%w: LUT intensity %g outside [0, 1]", ErrInvalidParams, p.Intensity)
	}
	return nil
}

// Uniforms packs the LUT parameter block in WGSL field order.
func (p LUTParams) Uniforms(l *LUT) []float32 {
	return []float32{float32(p.Intensity), float32(l.size), float32(l.tilesPerRow), 0}
}

// Apply grades src into dst through env.LUT. Intensity 0 copies the source
// unchanged.
func (p LUTParams) Apply(src *render.Texture, dst *render.Target, env *Env) error {
	if err := p.Validate(); err != nil {
		return err
	}
	src = src.WithSampler(render.ClampLinear)
	if p.Intensity == 0 {
		return copyPass(src, dst)
	}
	if env == nil || env.LUT == nil {
		return fmt.Errorf("%w: LUT pass needs a table", ErrMissingResource)
	}

	lut := env.LUT
	k := float32(p.Intensity)
	d := render.Draw{
		Program:  shader.LUT,
		Uniforms: p.Uniforms(lut),
		Textures: []*render.Texture{src, lut.tex},
		Samplers: []gputypes.SamplerDescriptor{render.ClampLinear},
	}
	return draw(dst, d, func(_, _ int, u, v float32) render.Color {
		c := src.Sample(u, v)
		if c.A <= 0 {
			return c
		}
		r, g, b := c.Straight()
		lr, lg, lb := lut.Lookup(r, g, b)
		return render.Premultiplied(
			render.Mix(r, lr, k),
			render.Mix(g, lg, k),
			render.Mix(b, lb, k),
			c.A,
		)
	})
}

func clamp01(v float32) float32 {
	return math32.Min(math32.Max(v, 0), 1)
}
