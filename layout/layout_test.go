package layout

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/collage"
)

func TestGridCells(t *testing.T) {
	specs, err := Grid(100, 60, GridOptions{Cols: 4, Rows: 2, Gap: 4, Image: collage.DefaultImage}, nil)
	require.NoError(t, err)
	require.Len(t, specs, 8)

	// (100 - 5*4) / 4 = 20, (60 - 3*4) / 2 = 24
	first := specs[0]
	assert.Equal(t, collage.PieceSpec{X: 4, Y: 4, W: 20, H: 24, Image: collage.DefaultImage}, first)
	last := specs[7]
	assert.Equal(t, 76.0, last.X)
	assert.Equal(t, 32.0, last.Y)
	assert.Equal(t, 96.0, last.X+last.W)
	assert.Equal(t, 56.0, last.Y+last.H)
}

func TestGridJitterAndRotationBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	plain, err := Grid(200, 200, GridOptions{Cols: 5, Rows: 5, Gap: 8}, nil)
	require.NoError(t, err)
	specs, err := Grid(200, 200, GridOptions{Cols: 5, Rows: 5, Gap: 8, Jitter: 3, MaxRotation: 15}, rng)
	require.NoError(t, err)

	rotated := false
	for i, s := range specs {
		if math.Abs(s.X-plain[i].X) > 3 || math.Abs(s.Y-plain[i].Y) > 3 {
			t.Errorf("spec %d moved from (%v, %v) to (%v, %v), want within 3", i, plain[i].X, plain[i].Y, s.X, s.Y)
		}
		if math.Abs(s.Rotation) > 15 {
			t.Errorf("spec %d rotation = %v, want within 15", i, s.Rotation)
		}
		rotated = rotated || s.Rotation != 0
	}
	assert.True(t, rotated)
}

func TestGridInvalid(t *testing.T) {
	tests := []struct {
		name string
		w, h float64
		o    GridOptions
	}{
		{"no cols", 100, 100, GridOptions{Rows: 2}},
		{"negative gap", 100, 100, GridOptions{Cols: 1, Rows: 1, Gap: -1}},
		{"gap eats canvas", 10, 10, GridOptions{Cols: 2, Rows: 2, Gap: 5}},
	}
	for _, tt := range tests {
		_, err := Grid(tt.w, tt.h, tt.o, nil)
		if !errors.Is(err, ErrInvalidOptions) {
			t.Errorf("%s: Grid() error = %v, want ErrInvalidOptions", tt.name, err)
		}
	}
}

func TestScatterBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	o := ScatterOptions{Count: 200, MinSize: 20, MaxSize: 50, MinAspect: 0.5, MaxAspect: 2, MaxRotation: 30, Image: 1}
	specs, err := Scatter(300, 200, o, rng)
	require.NoError(t, err)
	require.Len(t, specs, 200)

	for i, s := range specs {
		cx, cy := s.X+s.W/2, s.Y+s.H/2
		if cx < 0 || cx > 300 || cy < 0 || cy > 200 {
			t.Errorf("spec %d center (%v, %v) outside canvas", i, cx, cy)
		}
		long := math.Max(s.W, s.H)
		if long < 20-1e-9 || long > 50+1e-9 {
			t.Errorf("spec %d long side = %v, want in [20, 50]", i, long)
		}
		if a := s.W / s.H; a < 0.5-1e-9 || a > 2+1e-9 {
			t.Errorf("spec %d aspect = %v, want in [0.5, 2]", i, a)
		}
		if math.Abs(s.Rotation) > 30 {
			t.Errorf("spec %d rotation = %v", i, s.Rotation)
		}
		assert.Equal(t, 1, s.Image)
	}
}

func TestScatterDeterministic(t *testing.T) {
	o := ScatterOptions{Count: 10, MinSize: 5, MaxSize: 9}
	a, err := Scatter(50, 50, o, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	b, err := Scatter(50, 50, o, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	for _, s := range a {
		assert.Equal(t, s.W, s.H, "zero aspect options mean square pieces")
	}
}

func TestScatterInvalid(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tests := []ScatterOptions{
		{Count: -1, MinSize: 1, MaxSize: 2},
		{Count: 1, MinSize: 0, MaxSize: 2},
		{Count: 1, MinSize: 3, MaxSize: 2},
		{Count: 1, MinSize: 1, MaxSize: 2, MinAspect: 2, MaxAspect: 1},
		{Count: 1, MinSize: 1, MaxSize: 2, MaxRotation: -5},
	}
	for i, o := range tests {
		if _, err := Scatter(10, 10, o, rng); !errors.Is(err, ErrInvalidOptions) {
			t.Errorf("case %d: Scatter() error = %v, want ErrInvalidOptions", i, err)
		}
	}
}

type recorder struct {
	drawn []collage.PieceSpec
	fail  int
}

func (r *recorder) DrawPiece(s collage.PieceSpec) (collage.Piece, error) {
	r.drawn = append(r.drawn, s)
	if len(r.drawn) == r.fail {
		return collage.Piece{}, errors.New("boom")
	}
	return collage.Piece{Index: s.Image}, nil
}

func TestQueueStep(t *testing.T) {
	specs := []collage.PieceSpec{{Image: 0}, {Image: 1}}
	q := NewQueue(specs)
	specs[0].Image = 9
	r := &recorder{}

	p, ok, err := q.Step(r)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, p.Index)
	assert.Equal(t, 1, q.Remaining())

	_, ok, _ = q.Step(r)
	assert.True(t, ok)
	_, ok, err = q.Step(r)
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Len(t, r.drawn, 2)

	q.Reset()
	assert.Equal(t, q.Len(), q.Remaining())
}

func TestQueueDrainStopsOnError(t *testing.T) {
	q := NewQueue(make([]collage.PieceSpec, 5))
	n, err := q.Drain(&recorder{fail: 3})
	assert.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, q.Remaining())

	n, err = NewQueue(make([]collage.PieceSpec, 4)).Drain(&recorder{})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
