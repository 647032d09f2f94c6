package collage

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/gogpu/collage/effect"
	"github.com/gogpu/collage/mask"
	"github.com/gogpu/collage/render"
)

// Params are the persistent pipeline settings. They apply to every later
// DrawImage call and are never reset between pieces.
type Params struct {
	Outline        effect.OutlineSettings
	OutlineEnabled bool
	Mask           mask.Params
	Shadow         effect.ShadowParams
	ShadowEnabled  bool
	LUT            effect.LUTParams
}

// Default outline settings.
const (
	DefaultOutlineWeight     = 10
	DefaultOutlineQuality    = 1
	DefaultOutlineNoiseScale = 1.2
)

// Collager composites registered photographs onto a canvas as torn,
// outlined and shadowed pieces.
//
// Each DrawImage call is a complete unit of work: the piece buffer, the
// ping-pong pair and scratch buffers are cleared before it returns.
// A Collager is not safe for concurrent use.
type Collager struct {
	canvas *render.Target
	pool   *render.Pool
	masks  *mask.Generator
	res    Resources
	env    *effect.Env
	rng    *rand.Rand
	log    *slog.Logger

	images []Entry
	params Params
}

// New validates the options, fills default resources and compiles the
// shader programs the pipeline runs. Any resource failure is returned
// here so DrawImage never starts with a broken setup.
func New(res Resources, opts ...Option) (*Collager, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = time.Now().UnixNano()
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(o.seed))
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}

	params := Params{
		Outline: effect.OutlineSettings{
			Strategy:   o.strategy,
			Thickness:  DefaultOutlineWeight,
			Quality:    DefaultOutlineQuality,
			NoiseScale: DefaultOutlineNoiseScale,
			Color:      o.color,
		},
		OutlineEnabled: true,
		Mask:           o.mask,
		Shadow:         o.shadow,
		ShadowEnabled:  !o.noShadow,
		LUT:            o.lut,
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	res, err := res.withDefaults(o.seed)
	if err != nil {
		return nil, err
	}
	if err := res.checkPrograms(params); err != nil {
		return nil, err
	}

	pool, err := render.NewPool(res.Canvas.Size())
	if err != nil {
		return nil, err
	}
	masks, err := mask.NewGenerator(res.ShapeNoise, res.DetailNoise)
	if err != nil {
		return nil, err
	}

	c := &Collager{
		canvas: res.Canvas,
		pool:   pool,
		masks:  masks,
		res:    res,
		rng:    o.rng,
		log:    log,
		params: params,
		env: &effect.Env{
			Rand:  o.rng,
			Pool:  pool,
			Noise: res.OutlineNoise,
			LUT:   res.LUT,
		},
	}
	w, h := res.Canvas.Size()
	log.Info("collage: ready",
		"canvas", fmt.Sprintf("%dx%d", w, h),
		"outline", params.Outline.Strategy,
		"shadow", params.ShadowEnabled,
		"lut", res.LUT != nil,
		"programs", len(res.Shaders.Names()))
	return c, nil
}

func (p Params) validate() error {
	if p.Outline.Strategy != effect.StrategyBlur && p.Outline.Strategy != effect.StrategyCircle {
		return fmt.Errorf("%w: outline strategy %v", ErrInvalidParams, p.Outline.Strategy)
	}
	if err := p.Outline.Pass().Validate(); err != nil {
		return err
	}
	if err := p.Mask.Validate(); err != nil {
		return err
	}
	if p.ShadowEnabled {
		if err := p.Shadow.Validate(); err != nil {
			return err
		}
	}
	return p.LUT.Validate()
}

// Canvas returns the target pieces are composited onto.
func (c *Collager) Canvas() *render.Target {
	return c.canvas
}

// Resources returns the resources in use, defaults included.
func (c *Collager) Resources() Resources {
	return c.res
}

// Clear fills the canvas with bg.
func (c *Collager) Clear(bg color.Color) error {
	if _, err := c.canvas.Begin(); err != nil {
		return err
	}
	defer c.canvas.End()
	c.canvas.Fill(bg)
	return nil
}

// Params returns a copy of the persistent settings.
func (c *Collager) Params() Params {
	return c.params
}

// OutlineWeight sets the outline thickness in pixels and enables the
// outline pass.
func (c *Collager) OutlineWeight(thickness float64) error {
	if !(thickness > 0) || math.IsInf(thickness, 1) {
		return fmt.Errorf("%w: outline weight %g must be positive", ErrInvalidParams, thickness)
	}
	c.params.Outline.Thickness = thickness
	c.params.OutlineEnabled = true
	return nil
}

// OutlineQuality sets the blur sample multiplier. Zero makes the outline
// pass an exact copy.
func (c *Collager) OutlineQuality(level int) error {
	if level < 0 {
		return fmt.Errorf("%w: outline quality %d is negative", ErrInvalidParams, level)
	}
	c.params.Outline.Quality = level
	return nil
}

// OutlineNoiseScale sets the tiling of the outline noise.
func (c *Collager) OutlineNoiseScale(scale float64) error {
	if !(scale > 0) || math.IsInf(scale, 1) {
		return fmt.Errorf("%w: outline noise scale %g must be positive", ErrInvalidParams, scale)
	}
	c.params.Outline.NoiseScale = scale
	return nil
}

// NoOutline disables the outline pass until the next OutlineWeight call.
func (c *Collager) NoOutline() {
	c.params.OutlineEnabled = false
}

// DrawPiece is DrawImage for a PieceSpec.
func (c *Collager) DrawPiece(s PieceSpec) (Piece, error) {
	return c.DrawImage(s.X, s.Y, s.W, s.H, s.Rotation, s.Image)
}

// DrawImage tears a piece out of the registered image at index (or a
// random one for DefaultImage), places it at (x, y) with size (w, h)
// rotated by rotation degrees, runs the effect passes and composites the
// result onto the canvas.
//
// The piece buffer is sized to (ceil(w), ceil(h)); either side above
// render.MaxSize is rejected with ErrInvalidSize. Every argument is
// validated before any buffer is written.
func (c *Collager) DrawImage(x, y, w, h, rotation float64, index int) (Piece, error) {
	if !(w > 0) || !(h > 0) || w > render.MaxSize || h > render.MaxSize {
		return Piece{}, fmt.Errorf("%w: piece %gx%g", ErrInvalidSize, w, h)
	}
	for _, v := range []float64{x, y, rotation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Piece{}, fmt.Errorf("%w: placement (%g, %g) rotation %g", ErrInvalidParams, x, y, rotation)
		}
	}
	if c.canvas.Begun() {
		return Piece{}, fmt.Errorf("%w: canvas", render.ErrTargetBusy)
	}
	idx, err := c.pick(index)
	if err != nil {
		return Piece{}, err
	}
	entry := c.images[idx]
	passes := c.passes()

	if err := c.syncCanvas(); err != nil {
		return Piece{}, err
	}

	piece := Piece{
		Index: idx,
		Size:  image.Pt(int(math.Ceil(w)), int(math.Ceil(h))),
	}
	defer c.pool.ClearAll()

	buf, err := c.pool.Piece(piece.Size.X, piece.Size.Y)
	if err != nil {
		return Piece{}, err
	}
	if piece.Mask, err = c.masks.Generate(buf, entry.Texture, entry.Profile, c.params.Mask, c.rng); err != nil {
		return Piece{}, err
	}
	if err := c.place(buf, x, y, w, h, rotation); err != nil {
		return Piece{}, err
	}

	for _, pass := range passes {
		if err := c.run(pass); err != nil {
			return Piece{}, err
		}
		piece.Passes = append(piece.Passes, pass.Kind())
	}

	if err := c.present(); err != nil {
		return Piece{}, err
	}
	piece.Swapped = c.pool.Swapped()

	c.log.Debug("collage: piece drawn",
		"index", idx,
		"size", piece.Size,
		"ratio", piece.Mask.Ratio,
		"passes", len(piece.Passes),
		"swapped", piece.Swapped)
	return piece, nil
}

// passes returns the effect chain for the current settings.
func (c *Collager) passes() []effect.Pass {
	var out []effect.Pass
	if c.params.OutlineEnabled {
		out = append(out, c.params.Outline.Pass())
	}
	if c.params.ShadowEnabled {
		out = append(out, c.params.Shadow)
	}
	if c.res.LUT != nil {
		out = append(out, c.params.LUT)
	}
	return out
}

// syncCanvas follows a canvas the caller resized since the last piece.
func (c *Collager) syncCanvas() error {
	cw, ch := c.canvas.Size()
	pw, ph := c.pool.CanvasSize()
	if cw == pw && ch == ph {
		return nil
	}
	c.log.Warn("collage: canvas resized, reallocating ping-pong pair",
		"from", fmt.Sprintf("%dx%d", pw, ph),
		"to", fmt.Sprintf("%dx%d", cw, ch))
	return c.pool.ResizeCanvas(cw, ch)
}

// place blits the masked piece into the current source buffer.
func (c *Collager) place(buf *render.Target, x, y, w, h, rotation float64) error {
	tex, err := buf.Texture(render.ClampLinear)
	if err != nil {
		return err
	}
	dst := c.pool.Source()
	if _, err := dst.Begin(); err != nil {
		return err
	}
	defer dst.End()
	return render.DrawImage(dst, tex, x, y, w, h, rotation)
}

// run applies one pass from the source to the target buffer and swaps.
func (c *Collager) run(pass effect.Pass) error {
	src, err := c.pool.Source().Texture(render.ClampLinear)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := pass.Apply(src, c.pool.Target(), c.env); err != nil {
		return fmt.Errorf("collage: %v pass: %w", pass.Kind(), err)
	}
	c.pool.Swap()
	c.log.Debug("collage: pass",
		"kind", pass.Kind(),
		"elapsed", time.Since(start),
		"swapped", c.pool.Swapped())
	return nil
}

// present composites the final source buffer onto the canvas.
func (c *Collager) present() error {
	src, err := c.pool.Source().Texture(render.ClampLinear)
	if err != nil {
		return err
	}
	if _, err := c.canvas.Begin(); err != nil {
		return err
	}
	defer c.canvas.End()
	return render.Composite(c.canvas, src)
}
