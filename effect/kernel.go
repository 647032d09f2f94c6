package effect

import (
	"math"
	"sync"
)

// MaxTaps caps the taps on each side of a blur center.
const MaxTaps = 64

// Taps is a symmetric one-dimensional Gaussian kernel. Offsets are in
// destination texels; each weight applies to both the positive and the
// negative offset. Center + 2*sum(Weights) == 1.
type Taps struct {
	Center  float32
	Offsets []float32
	Weights []float32
}

// TapCount returns the number of taps per side for a blur of the given
// size and quality: ceil(size) * quality, capped at MaxTaps.
func TapCount(size float64, quality int) int {
	if size <= 0 || quality <= 0 {
		return 0
	}
	return int(math.Min(math.Ceil(size)*float64(quality), MaxTaps))
}

// GaussianTaps spreads TapCount taps evenly over size texels on each side
// with sigma = size/2. A zero tap count yields the identity kernel.
func GaussianTaps(size float64, quality int) Taps {
	n := TapCount(size, quality)
	if n == 0 {
		return Taps{Center: 1}
	}

	sigma := size / 2
	twoSigmaSq := 2 * sigma * sigma
	spacing := size / float64(n)

	offsets := make([]float32, n)
	weights := make([]float64, n)
	sum := 1.0
	for i := range n {
		d := float64(i+1) * spacing
		offsets[i] = float32(d)
		weights[i] = math.Exp(-(d * d) / twoSigmaSq)
		sum += 2 * weights[i]
	}

	taps := Taps{
		Center:  float32(1 / sum),
		Offsets: offsets,
		Weights: make([]float32, n),
	}
	for i, w := range weights {
		taps.Weights[i] = float32(w / sum)
	}
	return taps
}

type tapKey struct {
	size    int
	quality int
}

// tapCache caches kernels keyed by size quantized to 0.01 and quality.
type tapCache struct {
	mu     sync.RWMutex
	cache  map[tapKey]Taps
	maxLen int
}

var defaultTapCache = newTapCache(64)

func newTapCache(maxLen int) *tapCache {
	return &tapCache{
		cache:  make(map[tapKey]Taps),
		maxLen: maxLen,
	}
}

func (c *tapCache) get(size float64, quality int) Taps {
	key := tapKey{size: int(math.Round(size * 100)), quality: quality}

	c.mu.RLock()
	if taps, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return taps
	}
	c.mu.RUnlock()

	taps := GaussianTaps(float64(key.size)/100, quality)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		// Drop half of the entries.
		count := 0
		for k := range c.cache {
			delete(c.cache, k)
			count++
			if count >= c.maxLen/2 {
				break
			}
		}
	}
	c.cache[key] = taps
	c.mu.Unlock()

	return taps
}

// CachedTaps returns GaussianTaps for size (quantized to 0.01) and quality
// from a shared cache. The returned slices must not be modified.
func CachedTaps(size float64, quality int) Taps {
	return defaultTapCache.get(size, quality)
}
