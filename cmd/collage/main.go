// Command collage renders a sketch file to an image.
//
// Usage:
//
//	collage [-o out.png] [-seed n] [-watch] [-gpu] [-v] sketch.toml
//
// With -watch the sketch is rendered again every time it changes on disk,
// until interrupted. With -gpu the passes are shaded on the GPU when a
// device is available.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/collage"
	"github.com/gogpu/collage/config"
	"github.com/gogpu/collage/internal/imageio"
)

const defaultOutput = "collage.png"

// settle is how long the sketch must stay unchanged before a re-render.
const settle = 150 * time.Millisecond

type flags struct {
	output  string
	seed    int64
	seeded  bool
	watch   bool
	gpu     bool
	verbose bool
}

// accelerate registers a GPU accelerator and returns its release
// function. It is nil in builds without GPU support.
var accelerate func() (release func(), err error)

func main() {
	var f flags
	flag.StringVar(&f.output, "o", "", "output image (default: sketch output or "+defaultOutput+")")
	flag.Int64Var(&f.seed, "seed", 0, "random seed, overriding the sketch")
	flag.BoolVar(&f.watch, "watch", false, "re-render when the sketch changes")
	flag.BoolVar(&f.gpu, "gpu", false, "shade passes on the GPU when available")
	flag.BoolVar(&f.verbose, "v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] sketch.{toml,yaml}\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	flag.Visit(func(fl *flag.Flag) {
		if fl.Name == "seed" {
			f.seeded = true
		}
	})
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if f.verbose {
		collage.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if f.gpu {
		if accelerate == nil {
			collage.Logger().Warn("built without GPU support, shading on CPU")
		} else if release, err := accelerate(); err != nil {
			collage.Logger().Warn("GPU accelerator not available", "err", err)
		} else {
			defer release()
		}
	}

	path := flag.Arg(0)
	if !f.watch {
		if err := renderSketch(path, f); err != nil {
			log.Fatalf("collage: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := watch(ctx, path, f); err != nil {
		log.Fatalf("collage: %v", err)
	}
}

// renderSketch loads the sketch, draws every piece and saves the canvas.
func renderSketch(path string, f flags) error {
	start := time.Now()
	s, err := config.Load(path)
	if err != nil {
		return err
	}
	if f.seeded {
		s.Seed = &f.seed
	}
	c, queue, err := s.Build()
	if err != nil {
		return err
	}
	n, err := queue.Drain(c)
	if err != nil {
		return fmt.Errorf("piece %d: %w", n, err)
	}

	out := f.output
	if out == "" {
		if out, err = s.OutputPath(defaultOutput); err != nil {
			return err
		}
	}
	if err := imageio.Save(out, c.Canvas().Image()); err != nil {
		return err
	}
	log.Printf("collage: %s: %d pieces, seed %d, %s -> %s",
		path, n, s.SeedValue(), time.Since(start).Round(time.Millisecond), out)
	return nil
}

// watch renders once, then again after every settled change to the sketch.
// Render errors are logged and do not stop watching.
func watch(ctx context.Context, path string, f flags) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	// Editors replace files on save, so the directory is watched.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	if err := renderSketch(path, f); err != nil {
		log.Printf("collage: %v", err)
	}

	timer := time.NewTimer(settle)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			timer.Reset(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				timer.Reset(settle)
				continue
			}
			return err
		case <-timer.C:
			if err := renderSketch(path, f); err != nil {
				log.Printf("collage: %v", err)
			}
		}
	}
}
