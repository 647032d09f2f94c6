package collage

import (
	"log/slog"
	"math/rand"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/collage/effect"
	"github.com/gogpu/collage/mask"
)

// Option configures a Collager during creation.
//
// Example:
//
//	c, err := collage.New(res,
//	    collage.WithSeed(42),
//	    collage.WithOutlineStrategy(effect.StrategyCircle),
//	    collage.WithoutShadow(),
//	)
type Option func(*options)

// options holds the optional configuration of New.
type options struct {
	rng      *rand.Rand
	seed     int64
	seeded   bool
	logger   *slog.Logger
	strategy effect.Strategy
	color    gputypes.Color
	mask     mask.Params
	shadow   effect.ShadowParams
	noShadow bool
	lut      effect.LUTParams
}

// defaultOptions returns the defaults of a torn-paper sketch.
func defaultOptions() options {
	return options{
		strategy: effect.StrategyBlur,
		color:    effect.White,
		mask:     mask.DefaultParams(),
		shadow:   effect.DefaultShadow(),
		lut:      effect.LUTParams{Intensity: 1},
	}
}

// WithRand injects the random source used for image selection, masks and
// outline noise offsets. It takes precedence over WithSeed for drawing;
// the seed still drives default noise textures.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

// WithSeed makes the Collager reproducible: the same seed, resources and
// call sequence produce identical pixels.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithLogger overrides the package logger for one Collager.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithOutlineStrategy selects the circle or blur+threshold outline.
func WithOutlineStrategy(s effect.Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithOutlineColor sets the straight-alpha outline color.
func WithOutlineColor(c gputypes.Color) Option {
	return func(o *options) {
		o.color = c
	}
}

// WithMaskParams replaces the torn-edge parameters.
func WithMaskParams(p mask.Params) Option {
	return func(o *options) {
		o.mask = p
	}
}

// WithShadow replaces the drop shadow parameters and enables the pass.
func WithShadow(p effect.ShadowParams) Option {
	return func(o *options) {
		o.shadow = p
		o.noShadow = false
	}
}

// WithoutShadow disables the drop shadow pass.
func WithoutShadow() Option {
	return func(o *options) {
		o.noShadow = true
	}
}

// WithLUTIntensity sets the grade blend in [0, 1]. The grade pass runs
// only when Resources.LUT is set.
func WithLUTIntensity(k float64) Option {
	return func(o *options) {
		o.lut = effect.LUTParams{Intensity: k}
	}
}
