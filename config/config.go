// Package config loads collage sketch files.
//
// A sketch names the canvas, the photographs with their placement
// profiles, the pipeline settings and a layout. TOML and YAML files share
// one schema:
//
//	seed = 42
//	output = "~/collages/out.png"
//
//	[canvas]
//	width = 1080
//	height = 1920
//	background = "#1e1e1e"
//
//	[[images]]
//	path = "photos/beach.jpg"
//	min_ratio = 0.3
//	max_ratio = 0.6
//
//	[outline]
//	strategy = "blur"
//	weight = 12
//
//	[layout]
//	kind = "scatter"
//	count = 40
//	min_size = 120
//	max_size = 320
//
// Relative paths resolve against the sketch file's directory and a
// leading "~" expands to the home directory.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for sketches that cannot be rendered.
var ErrInvalid = errors.New("config: invalid sketch")

// Format is a sketch file encoding.
type Format int

// Supported formats.
const (
	TOML Format = iota
	YAML
)

// String returns the format name.
func (f Format) String() string {
	if f == YAML {
		return "yaml"
	}
	return "toml"
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return 0, fmt.Errorf("%w: unknown sketch extension %q", ErrInvalid, filepath.Ext(path))
	}
}

// Sketch is one collage description.
type Sketch struct {
	// Seed makes the render reproducible. Nil draws a seed from the clock.
	Seed *int64 `toml:"seed" yaml:"seed"`

	// Output is the default PNG or JPEG path of the render command.
	Output string `toml:"output" yaml:"output"`

	Canvas  Canvas  `toml:"canvas" yaml:"canvas"`
	Images  []Image `toml:"images" yaml:"images"`
	Outline Outline `toml:"outline" yaml:"outline"`
	Shadow  Shadow  `toml:"shadow" yaml:"shadow"`
	Mask    Mask    `toml:"mask" yaml:"mask"`
	Grade   Grade   `toml:"grade" yaml:"grade"`
	Layout  Layout  `toml:"layout" yaml:"layout"`

	dir string
}

// Canvas is the output surface.
type Canvas struct {
	Width      int    `toml:"width" yaml:"width"`
	Height     int    `toml:"height" yaml:"height"`
	Background string `toml:"background" yaml:"background"`
}

// Image is one registered photograph.
type Image struct {
	Path     string  `toml:"path" yaml:"path"`
	MinRatio float64 `toml:"min_ratio" yaml:"min_ratio"`
	MaxRatio float64 `toml:"max_ratio" yaml:"max_ratio"`
}

// Outline overrides the outline pass. Unset fields keep the defaults.
type Outline struct {
	Enabled    *bool    `toml:"enabled" yaml:"enabled"`
	Strategy   string   `toml:"strategy" yaml:"strategy"`
	Weight     *float64 `toml:"weight" yaml:"weight"`
	Quality    *int     `toml:"quality" yaml:"quality"`
	NoiseScale *float64 `toml:"noise_scale" yaml:"noise_scale"`
	Color      string   `toml:"color" yaml:"color"`
}

// Shadow overrides the drop shadow pass.
type Shadow struct {
	Enabled *bool    `toml:"enabled" yaml:"enabled"`
	OffsetX *float64 `toml:"offset_x" yaml:"offset_x"`
	OffsetY *float64 `toml:"offset_y" yaml:"offset_y"`
	Radius  *float64 `toml:"radius" yaml:"radius"`
	Opacity *float64 `toml:"opacity" yaml:"opacity"`
	Quality *int     `toml:"quality" yaml:"quality"`
	Color   string   `toml:"color" yaml:"color"`
}

// Mask overrides the torn-edge parameters.
type Mask struct {
	TearRatio       *float64 `toml:"tear_ratio" yaml:"tear_ratio"`
	ShapeNoiseScale *float64 `toml:"shape_noise_scale" yaml:"shape_noise_scale"`
	DetailTearRatio *float64 `toml:"detail_tear_ratio" yaml:"detail_tear_ratio"`
	DetailNoise     *bool    `toml:"detail_noise" yaml:"detail_noise"`
	DetailScale     *float64 `toml:"detail_scale" yaml:"detail_scale"`
}

// Grade enables the LUT pass.
type Grade struct {
	LUT       string   `toml:"lut" yaml:"lut"`
	Intensity *float64 `toml:"intensity" yaml:"intensity"`
}

// Layout selects a placement driver.
type Layout struct {
	// Kind is "grid" (default) or "scatter".
	Kind string `toml:"kind" yaml:"kind"`

	Cols   int     `toml:"cols" yaml:"cols"`
	Rows   int     `toml:"rows" yaml:"rows"`
	Gap    float64 `toml:"gap" yaml:"gap"`
	Jitter float64 `toml:"jitter" yaml:"jitter"`

	Count     int     `toml:"count" yaml:"count"`
	MinSize   float64 `toml:"min_size" yaml:"min_size"`
	MaxSize   float64 `toml:"max_size" yaml:"max_size"`
	MinAspect float64 `toml:"min_aspect" yaml:"min_aspect"`
	MaxAspect float64 `toml:"max_aspect" yaml:"max_aspect"`

	MaxRotation float64 `toml:"max_rotation" yaml:"max_rotation"`

	// Image pins every piece to one registry index. Nil picks at random.
	Image *int `toml:"image" yaml:"image"`
}

// Load reads and validates the sketch at path.
func Load(path string) (*Sketch, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer func() { _ = f.Close() }()

	s, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// Decode reads a sketch in the given format and validates it. Unknown
// keys are rejected. Relative paths resolve against the working directory
// until SetDir is called.
func Decode(r io.Reader, format Format) (*Sketch, error) {
	var s Sketch
	var err error
	switch format {
	case TOML:
		err = toml.NewDecoder(r).DisallowUnknownFields().Decode(&s)
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&s)
	default:
		return nil, fmt.Errorf("%w: format %d", ErrInvalid, int(format))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, format, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetDir sets the directory relative paths resolve against.
func (s *Sketch) SetDir(dir string) {
	s.dir = dir
}

// Resolve expands "~" and anchors relative paths at the sketch directory.
func (s *Sketch) Resolve(path string) (string, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	if !filepath.IsAbs(p) && s.dir != "" {
		p = filepath.Join(s.dir, p)
	}
	return p, nil
}
