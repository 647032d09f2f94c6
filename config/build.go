package config

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/gogpu/collage"
	"github.com/gogpu/collage/effect"
	"github.com/gogpu/collage/internal/imageio"
	"github.com/gogpu/collage/layout"
	"github.com/gogpu/collage/mask"
)

// Layout kinds.
const (
	LayoutGrid    = "grid"
	LayoutScatter = "scatter"
)

// Validate checks everything that does not need file access.
func (s *Sketch) Validate() error {
	if s.Canvas.Width <= 0 || s.Canvas.Height <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalid, s.Canvas.Width, s.Canvas.Height)
	}
	if len(s.Images) == 0 {
		return fmt.Errorf("%w: no images", ErrInvalid)
	}
	for i, img := range s.Images {
		if img.Path == "" {
			return fmt.Errorf("%w: image %d has no path", ErrInvalid, i)
		}
		if _, err := mask.NewProfile(img.MinRatio, img.MaxRatio); err != nil {
			return fmt.Errorf("%w: image %d: %w", ErrInvalid, i, err)
		}
	}
	if _, err := effect.ParseStrategy(s.Outline.Strategy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	for _, c := range []string{s.Canvas.Background, s.Outline.Color, s.Shadow.Color} {
		if c == "" {
			continue
		}
		if _, err := ParseColor(c); err != nil {
			return err
		}
	}
	switch s.Layout.Kind {
	case "", LayoutGrid, LayoutScatter:
	default:
		return fmt.Errorf("%w: layout kind %q", ErrInvalid, s.Layout.Kind)
	}
	if s.Layout.Image != nil && (*s.Layout.Image < 0 || *s.Layout.Image >= len(s.Images)) {
		return fmt.Errorf("%w: layout image %d of %d", ErrInvalid, *s.Layout.Image, len(s.Images))
	}
	return nil
}

// SeedValue returns the configured seed, drawing one from the clock and
// storing it when unset.
func (s *Sketch) SeedValue() int64 {
	if s.Seed == nil {
		seed := time.Now().UnixNano()
		s.Seed = &seed
	}
	return *s.Seed
}

// Options converts the sketch settings into Collager options.
func (s *Sketch) Options() ([]collage.Option, error) {
	opts := []collage.Option{collage.WithSeed(s.SeedValue())}

	strategy, err := effect.ParseStrategy(s.Outline.Strategy)
	if err != nil {
		return nil, err
	}
	opts = append(opts, collage.WithOutlineStrategy(strategy))
	if s.Outline.Color != "" {
		c, err := ParseColor(s.Outline.Color)
		if err != nil {
			return nil, err
		}
		opts = append(opts, collage.WithOutlineColor(c))
	}

	m := mask.DefaultParams()
	setFloat(&m.TearRatio, s.Mask.TearRatio)
	setFloat(&m.ShapeNoiseScale, s.Mask.ShapeNoiseScale)
	setFloat(&m.DetailTearRatio, s.Mask.DetailTearRatio)
	setFloat(&m.DetailScale, s.Mask.DetailScale)
	if s.Mask.DetailNoise != nil {
		m.DetailNoise = *s.Mask.DetailNoise
	}
	opts = append(opts, collage.WithMaskParams(m))

	if s.Shadow.Enabled != nil && !*s.Shadow.Enabled {
		opts = append(opts, collage.WithoutShadow())
	} else {
		sh := effect.DefaultShadow()
		setFloat(&sh.Offset.X, s.Shadow.OffsetX)
		setFloat(&sh.Offset.Y, s.Shadow.OffsetY)
		setFloat(&sh.BlurRadius, s.Shadow.Radius)
		setFloat(&sh.Opacity, s.Shadow.Opacity)
		if s.Shadow.Quality != nil {
			sh.Quality = *s.Shadow.Quality
		}
		if s.Shadow.Color != "" {
			c, err := ParseColor(s.Shadow.Color)
			if err != nil {
				return nil, err
			}
			sh.Color = c
		}
		opts = append(opts, collage.WithShadow(sh))
	}

	if s.Grade.Intensity != nil {
		opts = append(opts, collage.WithLUTIntensity(*s.Grade.Intensity))
	}
	return opts, nil
}

// Tune applies the persistent outline settings to c.
func (s *Sketch) Tune(c *collage.Collager) error {
	if s.Outline.Weight != nil {
		if err := c.OutlineWeight(*s.Outline.Weight); err != nil {
			return err
		}
	}
	if s.Outline.Quality != nil {
		if err := c.OutlineQuality(*s.Outline.Quality); err != nil {
			return err
		}
	}
	if s.Outline.NoiseScale != nil {
		if err := c.OutlineNoiseScale(*s.Outline.NoiseScale); err != nil {
			return err
		}
	}
	if s.Outline.Enabled != nil && !*s.Outline.Enabled {
		c.NoOutline()
	}
	return nil
}

// Resources allocates the canvas and loads the LUT, if any.
func (s *Sketch) Resources() (collage.Resources, error) {
	canvas, err := collage.NewCanvas(s.Canvas.Width, s.Canvas.Height)
	if err != nil {
		return collage.Resources{}, err
	}
	res := collage.Resources{Canvas: canvas}
	if s.Grade.LUT == "" {
		return res, nil
	}
	path, err := s.Resolve(s.Grade.LUT)
	if err != nil {
		return res, err
	}
	img, err := imageio.DecodeFile(path)
	if err != nil {
		return res, err
	}
	if res.LUT, err = effect.NewLUT(img); err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// Pieces runs the layout driver.
func (s *Sketch) Pieces(rng *rand.Rand) ([]collage.PieceSpec, error) {
	index := collage.DefaultImage
	if s.Layout.Image != nil {
		index = *s.Layout.Image
	}
	w, h := float64(s.Canvas.Width), float64(s.Canvas.Height)
	l := s.Layout

	if l.Kind == LayoutScatter {
		return layout.Scatter(w, h, layout.ScatterOptions{
			Count:       l.Count,
			MinSize:     l.MinSize,
			MaxSize:     l.MaxSize,
			MinAspect:   l.MinAspect,
			MaxAspect:   l.MaxAspect,
			MaxRotation: l.MaxRotation,
			Image:       index,
		}, rng)
	}
	cols, rows := l.Cols, l.Rows
	if cols == 0 && rows == 0 {
		cols, rows = 1, 1
	}
	return layout.Grid(w, h, layout.GridOptions{
		Cols:        cols,
		Rows:        rows,
		Gap:         l.Gap,
		Jitter:      l.Jitter,
		MaxRotation: l.MaxRotation,
		Image:       index,
	}, rng)
}

// Build creates a ready Collager with the canvas cleared, every image
// registered and the outline tuned, plus a queue of the layout's pieces.
func (s *Sketch) Build() (*collage.Collager, *layout.Queue, error) {
	opts, err := s.Options()
	if err != nil {
		return nil, nil, err
	}
	res, err := s.Resources()
	if err != nil {
		return nil, nil, err
	}
	c, err := collage.New(res, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Tune(c); err != nil {
		return nil, nil, err
	}
	if s.Canvas.Background != "" {
		bg, err := ParseColor(s.Canvas.Background)
		if err != nil {
			return nil, nil, err
		}
		if err := c.Clear(NRGBA(bg)); err != nil {
			return nil, nil, err
		}
	}
	for _, img := range s.Images {
		path, err := s.Resolve(img.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := c.AddImageFile(path, img.MinRatio, img.MaxRatio); err != nil {
			return nil, nil, err
		}
	}
	specs, err := s.Pieces(rand.New(rand.NewSource(s.SeedValue())))
	if err != nil {
		return nil, nil, err
	}
	return c, layout.NewQueue(specs), nil
}

// OutputPath resolves Output, falling back to def.
func (s *Sketch) OutputPath(def string) (string, error) {
	if s.Output == "" {
		return def, nil
	}
	return s.Resolve(s.Output)
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
