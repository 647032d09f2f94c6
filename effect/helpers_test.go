package effect

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/gogpu/collage/noise"
	"github.com/gogpu/collage/render"
)

// squareTexture returns a size x size transparent texture with an opaque
// square of color c covering [lo, hi) on both axes.
func squareTexture(size, lo, hi int, c color.RGBA) *render.Texture {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := lo; y < hi; y++ {
		for x := lo; x < hi; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return render.NewTexture(img, render.ClampLinear)
}

func newTarget(t *testing.T, w, h int) *render.Target {
	t.Helper()
	tgt, err := render.NewTarget("dst", w, h)
	if err != nil {
		t.Fatal(err)
	}
	return tgt
}

func newEnv(t *testing.T, w, h int, seed int64) *Env {
	t.Helper()
	pool, err := render.NewPool(w, h)
	if err != nil {
		t.Fatal(err)
	}
	tex, err := noise.Texture(noise.Options{Size: 32, Frequency: 4, Octaves: 2}, rand.NewSource(seed))
	if err != nil {
		t.Fatal(err)
	}
	return &Env{
		Rand:  rand.New(rand.NewSource(seed)),
		Pool:  pool,
		Noise: tex,
	}
}

// coverage counts pixels with non-zero alpha.
func coverage(img *image.RGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			n++
		}
	}
	return n
}

// samePixels reports whether a texture and a target hold identical bytes.
func samePixels(a *render.Texture, b *render.Target) bool {
	pa, pb := a.Image().Pix, b.Image().Pix
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}
