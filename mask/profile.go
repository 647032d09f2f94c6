package mask

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrInvalidProfile is returned for ratios outside (0, 1] or a minimum
	// above the maximum.
	ErrInvalidProfile = errors.New("mask: invalid placement profile")

	// ErrInvalidTiling is returned for non-positive noise tiling scales.
	ErrInvalidTiling = errors.New("mask: invalid noise tiling")

	// ErrInvalidParams is returned for tear ratios outside [0, 1].
	ErrInvalidParams = errors.New("mask: invalid mask parameters")
)

// Profile is the range draw-size ratios of one image are sampled from.
type Profile struct {
	MinRatio float64
	MaxRatio float64
}

// NewProfile returns a validated profile.
func NewProfile(minRatio, maxRatio float64) (Profile, error) {
	p := Profile{MinRatio: minRatio, MaxRatio: maxRatio}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate reports whether 0 < MinRatio <= MaxRatio <= 1.
func (p Profile) Validate() error {
	if !(p.MinRatio > 0 && p.MinRatio <= 1) {
		return fmt.Errorf("%w: min ratio %g outside (0, 1]", ErrInvalidProfile, p.MinRatio)
	}
	if !(p.MaxRatio > 0 && p.MaxRatio <= 1) {
		return fmt.Errorf("%w: max ratio %g outside (0, 1]", ErrInvalidProfile, p.MaxRatio)
	}
	if p.MinRatio > p.MaxRatio {
		return fmt.Errorf("%w: min ratio %g > max ratio %g", ErrInvalidProfile, p.MinRatio, p.MaxRatio)
	}
	return nil
}

// Sample draws a ratio uniformly from [MinRatio, MaxRatio].
func (p Profile) Sample(rng *rand.Rand) float64 {
	r := p.MinRatio + rng.Float64()*(p.MaxRatio-p.MinRatio)
	return min(max(r, p.MinRatio), p.MaxRatio)
}
