// Command collageview shows a sketch being assembled, one piece per frame.
//
// Keys: R re-rolls the seed and starts over, S saves the canvas, Escape
// quits.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/collage"
	"github.com/gogpu/collage/config"
	"github.com/gogpu/collage/internal/imageio"
	"github.com/gogpu/collage/layout"
	"github.com/gogpu/collage/present"
)

type viewer struct {
	sketch  *config.Sketch
	c       *collage.Collager
	queue   *layout.Queue
	present *present.Presenter
	saves   int
}

func newViewer(s *config.Sketch) (*viewer, error) {
	v := &viewer{sketch: s}
	return v, v.reset()
}

// reset rebuilds the collager and queue from the sketch.
func (v *viewer) reset() error {
	c, q, err := v.sketch.Build()
	if err != nil {
		return err
	}
	p, err := present.New(c.Canvas())
	if err != nil {
		return err
	}
	if v.present != nil {
		_ = v.present.Close()
	}
	v.c, v.queue, v.present = c, q, p
	ebiten.SetWindowTitle(fmt.Sprintf("collageview: seed %d", v.sketch.SeedValue()))
	return nil
}

// save writes the canvas to the working directory under a name that
// carries the seed.
func (v *viewer) save() error {
	v.saves++
	out := fmt.Sprintf("collage-%d-%d.png", v.sketch.SeedValue(), v.saves)
	if err := imageio.Save(out, v.c.Canvas().Image()); err != nil {
		return err
	}
	log.Printf("collageview: saved %s", out)
	return nil
}

func (v *viewer) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		v.sketch.Seed = nil
		return v.reset()
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		if err := v.save(); err != nil {
			log.Printf("collageview: %v", err)
		}
	}

	_, ok, err := v.queue.Step(v.c)
	if err != nil {
		return err
	}
	if ok {
		v.present.MarkDirty()
	}
	return nil
}

func (v *viewer) Draw(dst *ebiten.Image) {
	if err := v.present.RenderTo(screen{dst: dst}); err != nil {
		log.Printf("collageview: %v", err)
	}
}

func (v *viewer) Layout(int, int) (int, int) {
	return v.c.Canvas().Size()
}

func main() {
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-v] sketch.{toml,yaml}\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	if *verbose {
		collage.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	s, err := config.Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("collageview: %v", err)
	}
	v, err := newViewer(s)
	if err != nil {
		log.Fatalf("collageview: %v", err)
	}
	defer func() { _ = v.present.Close() }()

	w, h := v.c.Canvas().Size()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(v); err != nil {
		log.Fatalf("collageview: %v", err)
	}
}
