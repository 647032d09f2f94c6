package collage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/collage/effect"
	"github.com/gogpu/collage/mask"
	"github.com/gogpu/collage/noise"
	"github.com/gogpu/collage/render"
	"github.com/gogpu/collage/shader"
)

var builtinShaders = sync.OnceValues(shader.Builtin)

var red = color.RGBA{R: 255, A: 255}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// testResources returns a canvas and small noise textures so tests stay fast.
func testResources(t *testing.T, w, h int) Resources {
	t.Helper()
	canvas, err := NewCanvas(w, h)
	require.NoError(t, err)
	lib, err := builtinShaders()
	require.NoError(t, err)

	small := noise.Options{Size: 32, Frequency: 4, Octaves: 2}
	tex := func(seed int64) *render.Texture {
		tx, err := noise.Texture(small, rand.NewSource(seed))
		require.NoError(t, err)
		return tx
	}
	return Resources{
		Canvas:       canvas,
		ShapeNoise:   tex(1),
		DetailNoise:  tex(2),
		OutlineNoise: tex(3),
		Shaders:      lib,
	}
}

func newCollager(t *testing.T, res Resources, opts ...Option) *Collager {
	t.Helper()
	c, err := New(res, opts...)
	require.NoError(t, err)
	return c
}

// invertingLUT maps every color to its complement.
func invertingLUT(t *testing.T) *effect.LUT {
	t.Helper()
	n := 4
	img := image.NewRGBA(image.Rect(0, 0, n*n, n))
	for b := range n {
		for g := range n {
			for r := range n {
				img.SetRGBA(b*n+r, g, color.RGBA{
					R: 255 - uint8(r*85), G: 255 - uint8(g*85), B: 255 - uint8(b*85), A: 255,
				})
			}
		}
	}
	lut, err := effect.NewLUT(img)
	require.NoError(t, err)
	return lut
}

func transparent(img *image.RGBA) bool {
	for _, v := range img.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

func TestNewRequiresCanvas(t *testing.T) {
	_, err := New(Resources{})
	if !errors.Is(err, ErrMissingCanvas) {
		t.Errorf("New(Resources{}) error = %v, want ErrMissingCanvas", err)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	badMask := mask.DefaultParams()
	badMask.ShapeNoiseScale = 0
	badShadow := effect.DefaultShadow()
	badShadow.Opacity = 2

	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{"lut intensity", WithLUTIntensity(2), ErrInvalidParams},
		{"strategy", WithOutlineStrategy(effect.Strategy(7)), ErrInvalidParams},
		{"outline color", WithOutlineColor(gputypes.Color{R: 1, G: 1, B: 1, A: 3}), ErrInvalidParams},
		{"mask tiling", WithMaskParams(badMask), mask.ErrInvalidTiling},
		{"shadow", WithShadow(badShadow), ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(testResources(t, 16, 16), tt.opt)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewIgnoresInvalidShadowWhenDisabled(t *testing.T) {
	bad := effect.DefaultShadow()
	bad.Opacity = -1
	_, err := New(testResources(t, 16, 16), WithShadow(bad), WithoutShadow())
	assert.NoError(t, err)
}

func TestNewMissingProgram(t *testing.T) {
	var only []shader.Program
	for _, p := range shader.Programs() {
		if p.Name == shader.Mask {
			only = append(only, p)
		}
	}
	lib, err := shader.NewLibrary(only...)
	require.NoError(t, err)

	res := testResources(t, 16, 16)
	res.Shaders = lib
	_, err = New(res)
	if !errors.Is(err, shader.ErrUnknownProgram) {
		t.Errorf("New() error = %v, want ErrUnknownProgram", err)
	}
}

func TestNewDefaultsResources(t *testing.T) {
	canvas, err := NewCanvas(8, 8)
	require.NoError(t, err)
	lib, err := builtinShaders()
	require.NoError(t, err)

	c := newCollager(t, Resources{Canvas: canvas, Shaders: lib}, WithSeed(3))
	res := c.Resources()
	assert.NotNil(t, res.ShapeNoise)
	assert.NotNil(t, res.DetailNoise)
	assert.NotNil(t, res.OutlineNoise)
	assert.Equal(t, noise.Shape.Size, res.ShapeNoise.Width())
	assert.Same(t, canvas, c.Canvas())
}

func TestAddImageValidatesProfile(t *testing.T) {
	c := newCollager(t, testResources(t, 16, 16), WithSeed(1))
	img := solid(4, 4, red)

	tests := []struct {
		min, max float64
	}{
		{0, 0.5},
		{-0.1, 0.5},
		{0.5, 1.1},
		{0.8, 0.2},
		{math.NaN(), 0.5},
	}
	for _, tt := range tests {
		err := c.AddImage(img, tt.min, tt.max)
		if !errors.Is(err, ErrInvalidProfile) {
			t.Errorf("AddImage(%v, %v) error = %v, want ErrInvalidProfile", tt.min, tt.max, err)
		}
	}
	if err := c.AddImage(nil, 0.8, 0.2); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("AddImage(nil, bad ratios) error = %v, want ErrInvalidProfile", err)
	}
	if err := c.AddImage(nil, 0.2, 0.8); !errors.Is(err, ErrNilImage) {
		t.Errorf("AddImage(nil) error = %v, want ErrNilImage", err)
	}
	for _, typed := range []image.Image{(*image.RGBA)(nil), (*image.NRGBA)(nil), (*image.Gray)(nil)} {
		if err := c.AddImage(typed, 0.2, 0.8); !errors.Is(err, ErrNilImage) {
			t.Errorf("AddImage(%T(nil)) error = %v, want ErrNilImage", typed, err)
		}
	}
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.AddImage(img, 1, 1))
	require.NoError(t, c.AddImage(img, 0.3, 0.3))
	assert.Equal(t, 2, c.Len())

	e, err := c.Entry(1)
	require.NoError(t, err)
	assert.Equal(t, mask.Profile{MinRatio: 0.3, MaxRatio: 0.3}, e.Profile)
	_, err = c.Entry(2)
	assert.ErrorIs(t, err, ErrImageIndex)
}

func TestAddImageCopiesSource(t *testing.T) {
	c := newCollager(t, testResources(t, 16, 16), WithSeed(1))
	img := solid(4, 4, red)
	require.NoError(t, c.AddImage(img, 0.5, 1))

	img.SetRGBA(0, 0, color.RGBA{B: 255, A: 255})
	e, _ := c.Entry(0)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, e.Texture.Image().RGBAAt(0, 0))
}

func TestAddImageBytesAndFile(t *testing.T) {
	c := newCollager(t, testResources(t, 16, 16), WithSeed(1))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(6, 3, red)))

	require.NoError(t, c.AddImageBytes(buf.Bytes(), 0.5, 1))
	assert.Error(t, c.AddImageBytes([]byte("garbage"), 0.5, 1))
	assert.ErrorIs(t, c.AddImageBytes(buf.Bytes(), 0.9, 0.1), ErrInvalidProfile)

	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	require.NoError(t, c.AddImageFile(path, 0.5, 1))
	assert.ErrorIs(t, c.AddImageFile(filepath.Join(t.TempDir(), "missing.png"), 0.5, 1), os.ErrNotExist)

	assert.Equal(t, 2, c.Len())
	e, _ := c.Entry(1)
	assert.Equal(t, 6, e.Texture.Width())
}

func TestClearImagesThenRandomDrawFails(t *testing.T) {
	c := newCollager(t, testResources(t, 32, 32), WithSeed(1))
	require.NoError(t, c.AddImage(solid(8, 8, red), 0.5, 1))
	c.ClearImages()
	assert.Equal(t, 0, c.Len())

	_, err := c.DrawImage(4, 4, 16, 16, 0, DefaultImage)
	if !errors.Is(err, ErrEmptyRegistry) {
		t.Fatalf("DrawImage() on empty registry error = %v, want ErrEmptyRegistry", err)
	}
	assert.True(t, transparent(c.Canvas().Image()), "canvas written on failure")
	assert.Len(t, c.pool.Targets(), 2, "piece buffer allocated on failure")
}

func TestDrawImageIndexOutOfRange(t *testing.T) {
	c := newCollager(t, testResources(t, 32, 32), WithSeed(1))
	require.NoError(t, c.AddImage(solid(8, 8, red), 0.5, 1))

	for _, idx := range []int{1, 5, -2} {
		_, err := c.DrawImage(0, 0, 8, 8, 0, idx)
		if !errors.Is(err, ErrImageIndex) {
			t.Errorf("DrawImage(index %d) error = %v, want ErrImageIndex", idx, err)
		}
	}
}

func TestDrawImageRejectsBadPlacement(t *testing.T) {
	c := newCollager(t, testResources(t, 32, 32), WithSeed(1))
	require.NoError(t, c.AddImage(solid(8, 8, red), 0.5, 1))

	tests := []struct {
		name          string
		x, y, w, h, r float64
		want          error
	}{
		{"zero width", 0, 0, 0, 8, 0, ErrInvalidSize},
		{"negative height", 0, 0, 8, -1, 0, ErrInvalidSize},
		{"nan width", 0, 0, math.NaN(), 8, 0, ErrInvalidSize},
		{"infinite height", 0, 0, 8, math.Inf(1), 0, ErrInvalidSize},
		{"huge piece", 0, 0, 1e10, 1e10, 0, ErrInvalidSize},
		{"one past max width", 0, 0, render.MaxSize + 0.5, 8, 0, ErrInvalidSize},
		{"nan x", math.NaN(), 0, 8, 8, 0, ErrInvalidParams},
		{"infinite rotation", 0, 0, 8, 8, math.Inf(-1), ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.DrawImage(tt.x, tt.y, tt.w, tt.h, tt.r, 0)
			if !errors.Is(err, tt.want) {
				t.Errorf("DrawImage() error = %v, want %v", err, tt.want)
			}
		})
	}
	assert.True(t, transparent(c.Canvas().Image()))
	assert.Len(t, c.pool.Targets(), 2)
}

func TestDrawImageCanvasBusy(t *testing.T) {
	c := newCollager(t, testResources(t, 32, 32), WithSeed(1))
	require.NoError(t, c.AddImage(solid(8, 8, red), 0.5, 1))

	_, err := c.Canvas().Begin()
	require.NoError(t, err)
	defer c.Canvas().End()

	_, err = c.DrawImage(0, 0, 8, 8, 0, 0)
	assert.ErrorIs(t, err, render.ErrTargetBusy)
}

func TestDrawImageSwapsOncePerPass(t *testing.T) {
	res := testResources(t, 48, 48)
	res.LUT = invertingLUT(t)
	c := newCollager(t, res, WithSeed(5))
	require.NoError(t, c.AddImage(solid(16, 16, red), 0.5, 1))

	p, err := c.DrawImage(8, 8, 24, 24, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []effect.Kind{effect.KindBlurOutline, effect.KindShadow, effect.KindLUT}, p.Passes)
	assert.Equal(t, 3, p.Swaps())
	assert.True(t, p.Swapped)

	c.NoOutline()
	p, err = c.DrawImage(8, 8, 24, 24, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []effect.Kind{effect.KindShadow, effect.KindLUT}, p.Passes)
	assert.True(t, p.Swapped, "two more swaps restore the previous state")
}

func TestDrawImageWithoutEffects(t *testing.T) {
	c := newCollager(t, testResources(t, 32, 32), WithSeed(5), WithoutShadow())
	c.NoOutline()
	require.NoError(t, c.AddImage(solid(16, 16, red), 1, 1))

	p, err := c.DrawImage(8, 8, 16, 16, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, p.Passes)
	assert.False(t, p.Swapped)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, c.Canvas().Image().RGBAAt(16, 16))
	assert.Equal(t, color.RGBA{}, c.Canvas().Image().RGBAAt(2, 2))
}

func TestDrawImageClearsBuffers(t *testing.T) {
	c := newCollager(t, testResources(t, 48, 48), WithSeed(2))
	require.NoError(t, c.AddImage(solid(16, 16, red), 0.5, 1))

	_, err := c.DrawImage(8, 8, 30, 20, 15, DefaultImage)
	require.NoError(t, err)

	for _, tgt := range c.pool.Targets() {
		assert.True(t, transparent(tgt.Image()), "%s not cleared", tgt.Label())
		assert.False(t, tgt.Begun(), "%s left begun", tgt.Label())
	}
	assert.False(t, transparent(c.Canvas().Image()), "nothing composited")
	assert.False(t, c.Canvas().Begun())
}

func TestDrawImagePieceSize(t *testing.T) {
	c := newCollager(t, testResources(t, 32, 32), WithSeed(2))
	require.NoError(t, c.AddImage(solid(16, 16, red), 0.5, 1))

	p, err := c.DrawImage(1, 1, 10.2, 7.5, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(11, 8), p.Size)

	w, h := c.pool.Targets()[2].Size()
	assert.Equal(t, 11, w)
	assert.Equal(t, 8, h)
}

func TestSeededPiecesDifferWithFixedCrop(t *testing.T) {
	draw := func(seed int64) (Piece, []uint8) {
		c := newCollager(t, testResources(t, 80, 64), WithSeed(seed))
		src := image.NewRGBA(image.Rect(0, 0, 64, 64))
		for y := range 64 {
			for x := range 64 {
				src.SetRGBA(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 90, A: 255})
			}
		}
		require.NoError(t, c.AddImage(src, 0.5, 0.5))
		p, err := c.DrawImage(8, 8, 48, 32, 0, DefaultImage)
		require.NoError(t, err)
		return p, c.Canvas().Image().Pix
	}

	p1, pix1 := draw(1)
	p2, pix2 := draw(2)

	for _, p := range []Piece{p1, p2} {
		assert.Equal(t, 0.5, p.Mask.Ratio)
		assert.Equal(t, 0.5*48.0/32.0, p.Mask.CropScale.X)
		assert.Equal(t, 0.5, p.Mask.CropScale.Y)
	}
	assert.NotEqual(t, p1.Mask.ShapeOffset, p2.Mask.ShapeOffset)
	assert.NotEqual(t, pix1, pix2, "different seeds produced identical pieces")
}

func TestSameSeedReproduces(t *testing.T) {
	draw := func() []uint8 {
		c := newCollager(t, testResources(t, 48, 48), WithSeed(9))
		require.NoError(t, c.AddImage(solid(16, 16, red), 0.4, 0.9))
		require.NoError(t, c.AddImage(solid(16, 16, color.RGBA{G: 255, A: 255}), 0.4, 0.9))
		for range 3 {
			_, err := c.DrawImage(4, 6, 30, 24, 20, DefaultImage)
			require.NoError(t, err)
		}
		return c.Canvas().Image().Pix
	}
	assert.Equal(t, draw(), draw())
}

func TestRandomIndexCoversRegistry(t *testing.T) {
	c := newCollager(t, testResources(t, 16, 16), WithSeed(4), WithoutShadow())
	c.NoOutline()
	for range 3 {
		require.NoError(t, c.AddImage(solid(4, 4, red), 1, 1))
	}
	seen := map[int]bool{}
	for range 40 {
		p, err := c.DrawImage(0, 0, 4, 4, 0, DefaultImage)
		require.NoError(t, err)
		seen[p.Index] = true
	}
	assert.Len(t, seen, 3)
}

func TestOutlineParams(t *testing.T) {
	c := newCollager(t, testResources(t, 16, 16), WithSeed(1))

	for _, bad := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, c.OutlineWeight(bad), ErrInvalidParams, "OutlineWeight(%v)", bad)
		assert.ErrorIs(t, c.OutlineNoiseScale(bad), ErrInvalidParams, "OutlineNoiseScale(%v)", bad)
	}
	assert.ErrorIs(t, c.OutlineQuality(-1), ErrInvalidParams)

	p := c.Params()
	assert.Equal(t, float64(DefaultOutlineWeight), p.Outline.Thickness)
	assert.Equal(t, DefaultOutlineQuality, p.Outline.Quality)
	assert.Equal(t, DefaultOutlineNoiseScale, p.Outline.NoiseScale)
	assert.True(t, p.OutlineEnabled)

	c.NoOutline()
	assert.False(t, c.Params().OutlineEnabled)

	require.NoError(t, c.OutlineWeight(4))
	require.NoError(t, c.OutlineQuality(0))
	require.NoError(t, c.OutlineNoiseScale(2.5))
	p = c.Params()
	assert.True(t, p.OutlineEnabled, "OutlineWeight re-enables the outline")
	assert.Equal(t, 4.0, p.Outline.Thickness)
	assert.Equal(t, 0, p.Outline.Quality)
	assert.Equal(t, 2.5, p.Outline.NoiseScale)
}

func TestParamsPersistAcrossDraws(t *testing.T) {
	c := newCollager(t, testResources(t, 32, 32), WithSeed(1), WithOutlineStrategy(effect.StrategyCircle))
	require.NoError(t, c.AddImage(solid(8, 8, red), 0.5, 1))
	require.NoError(t, c.OutlineWeight(3))

	for range 2 {
		p, err := c.DrawImage(4, 4, 16, 16, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, effect.KindCircleOutline, p.Passes[0])
	}
	assert.Equal(t, 3.0, c.Params().Outline.Thickness)
}

func TestZeroQualityOutlineMatchesNoOutline(t *testing.T) {
	draw := func(configure func(*Collager)) []uint8 {
		c := newCollager(t, testResources(t, 40, 40), WithSeed(7), WithoutShadow())
		require.NoError(t, c.AddImage(solid(16, 16, red), 0.5, 1))
		configure(c)
		_, err := c.DrawImage(6, 6, 28, 28, 30, 0)
		require.NoError(t, err)
		return c.Canvas().Image().Pix
	}

	none := draw(func(c *Collager) { c.NoOutline() })
	zero := draw(func(c *Collager) { require.NoError(t, c.OutlineQuality(0)) })
	outlined := draw(func(*Collager) {})

	assert.Equal(t, none, zero)
	assert.NotEqual(t, none, outlined)
}

func TestZeroIntensityLUTMatchesNoLUT(t *testing.T) {
	draw := func(lut *effect.LUT, intensity float64) []uint8 {
		res := testResources(t, 40, 40)
		res.LUT = lut
		c := newCollager(t, res, WithSeed(7), WithLUTIntensity(intensity))
		require.NoError(t, c.AddImage(solid(16, 16, red), 0.5, 1))
		_, err := c.DrawImage(6, 6, 28, 28, 0, 0)
		require.NoError(t, err)
		return c.Canvas().Image().Pix
	}
	lut := invertingLUT(t)
	assert.Equal(t, draw(nil, 1), draw(lut, 0))
}

func TestLUTGradesCanvas(t *testing.T) {
	res := testResources(t, 32, 32)
	res.LUT = invertingLUT(t)
	c := newCollager(t, res, WithSeed(7), WithoutShadow())
	c.NoOutline()
	require.NoError(t, c.AddImage(solid(16, 16, red), 1, 1))

	_, err := c.DrawPiece(PieceSpec{X: 8, Y: 8, W: 16, H: 16})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{G: 255, B: 255, A: 255}, c.Canvas().Image().RGBAAt(16, 16))
}

func TestCanvasResizeFollowed(t *testing.T) {
	c := newCollager(t, testResources(t, 16, 16), WithSeed(1))
	require.NoError(t, c.AddImage(solid(8, 8, red), 0.5, 1))
	require.NoError(t, c.Canvas().Resize(40, 24))

	_, err := c.DrawImage(2, 2, 12, 12, 0, 0)
	require.NoError(t, err)
	w, h := c.pool.CanvasSize()
	assert.Equal(t, 40, w)
	assert.Equal(t, 24, h)
}

func TestClearFillsCanvas(t *testing.T) {
	c := newCollager(t, testResources(t, 8, 8), WithSeed(1))
	require.NoError(t, c.Clear(color.RGBA{R: 10, G: 20, B: 30, A: 255}))
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, c.Canvas().Image().RGBAAt(7, 7))
}
