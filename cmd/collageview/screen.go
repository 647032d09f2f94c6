package main

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/hajimehoshi/ebiten/v2"
)

// texture is an ebiten image seen as a gpucontext texture. Pixels are
// premultiplied RGBA, which is what ebiten expects.
type texture struct {
	img  *ebiten.Image
	w, h int
}

func (t *texture) Width() int  { return t.w }
func (t *texture) Height() int { return t.h }

func (t *texture) UpdateData(data []byte) error {
	if len(data) != t.w*t.h*4 {
		return fmt.Errorf("collageview: %d bytes for a %dx%d texture", len(data), t.w, t.h)
	}
	t.img.WritePixels(data)
	return nil
}

func (t *texture) Destroy() { t.img.Deallocate() }

type creator struct{}

func (creator) NewTextureFromRGBA(w, h int, data []byte) (gpucontext.Texture, error) {
	t := &texture{img: ebiten.NewImage(w, h), w: w, h: h}
	if err := t.UpdateData(data); err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

// screen draws presenter textures onto the ebiten frame.
type screen struct {
	dst *ebiten.Image
}

func (s screen) DrawTexture(tex gpucontext.Texture, x, y float32) error {
	t, ok := tex.(*texture)
	if !ok {
		return fmt.Errorf("collageview: foreign texture %T", tex)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	s.dst.DrawImage(t.img, op)
	return nil
}

func (screen) TextureCreator() gpucontext.TextureCreator { return creator{} }
