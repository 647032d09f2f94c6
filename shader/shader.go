// Package shader holds the WGSL programs of the collage passes and
// compiles them to SPIR-V with naga.
//
// Every pass is a (vertex, fragment) pair. The vertex stage is the shared
// full-screen triangle; the fragment stage reads a Frame block at group 0
// and its own parameter block at group 1. The field order of each
// parameter block is the contract the effect package packs uniforms in.
package shader

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/naga"
)

// Program names.
const (
	Mask             = "mask"
	Blur             = "blur"
	OutlineCircle    = "outline_circle"
	OutlineThreshold = "outline_threshold"
	Shadow           = "shadow"
	LUT              = "lut"
)

// Entry points used by every program.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

var (
	// ErrCompile is returned when a program fails to compile.
	ErrCompile = errors.New("shader: compile failed")

	// ErrUnknownProgram is returned when a library has no program by that name.
	ErrUnknownProgram = errors.New("shader: unknown program")

	// ErrContract is returned when a fragment source does not declare its
	// uniform fields.
	ErrContract = errors.New("shader: uniform contract violated")
)

//go:embed shaders/fullscreen.wgsl
var fullscreenSource string

//go:embed shaders/mask.wgsl
var maskSource string

//go:embed shaders/blur.wgsl
var blurSource string

//go:embed shaders/outline_circle.wgsl
var outlineCircleSource string

//go:embed shaders/outline_threshold.wgsl
var outlineThresholdSource string

//go:embed shaders/shadow.wgsl
var shadowSource string

//go:embed shaders/lut.wgsl
var lutSource string

// Program is a vertex/fragment source pair.
type Program struct {
	Name     string
	Vertex   string
	Fragment string

	// Uniforms lists the fields of the group 1 parameter block in
	// declaration order.
	Uniforms []string

	// Bindings lists the group 1 resource slots in binding order.
	// Slot 0 is always the parameter block.
	Bindings []Binding
}

// Binding is the kind of a group 1 resource slot.
type Binding int

// Binding kinds.
const (
	UniformBinding Binding = iota
	TextureBinding
	SamplerBinding
)

// String returns the binding kind name.
func (b Binding) String() string {
	switch b {
	case UniformBinding:
		return "uniform"
	case TextureBinding:
		return "texture"
	case SamplerBinding:
		return "sampler"
	default:
		return fmt.Sprintf("Binding(%d)", int(b))
	}
}

// declaration is the WGSL fragment every declaration of the kind contains.
func (b Binding) declaration() string {
	switch b {
	case UniformBinding:
		return "var<uniform>"
	case TextureBinding:
		return "texture_2d<f32>"
	default:
		return ": sampler;"
	}
}

// Count returns how many group 1 slots of kind b the program declares.
func (p Program) Count(b Binding) int {
	n := 0
	for _, k := range p.Bindings {
		if k == b {
			n++
		}
	}
	return n
}

// Programs returns the built-in programs.
func Programs() []Program {
	return []Program{
		{
			Name: Mask, Vertex: fullscreenSource, Fragment: maskSource,
			Uniforms: []string{
				"crop_offset", "crop_scale",
				"noise_offset", "noise_scale",
				"detail_offset", "detail_scale",
				"tear_ratio", "detail_tear_ratio", "use_detail",
			},
			Bindings: []Binding{
				UniformBinding, TextureBinding, SamplerBinding,
				TextureBinding, TextureBinding, SamplerBinding,
			},
		},
		{
			Name: Blur, Vertex: fullscreenSource, Fragment: blurSource,
			Uniforms: []string{"direction", "blur_size", "quality"},
			Bindings: []Binding{UniformBinding, TextureBinding, SamplerBinding},
		},
		{
			Name: OutlineCircle, Vertex: fullscreenSource, Fragment: outlineCircleSource,
			Uniforms: []string{"color", "thickness", "samples"},
			Bindings: []Binding{UniformBinding, TextureBinding, SamplerBinding},
		},
		{
			Name: OutlineThreshold, Vertex: fullscreenSource, Fragment: outlineThresholdSource,
			Uniforms: []string{
				"color", "noise_offset", "noise_scale",
				"base_threshold", "noise_threshold", "edge_sharpness",
			},
			Bindings: []Binding{
				UniformBinding, TextureBinding, TextureBinding,
				TextureBinding, SamplerBinding, SamplerBinding,
			},
		},
		{
			Name: Shadow, Vertex: fullscreenSource, Fragment: shadowSource,
			Uniforms: []string{"color", "offset", "opacity"},
			Bindings: []Binding{UniformBinding, TextureBinding, TextureBinding, SamplerBinding},
		},
		{
			Name: LUT, Vertex: fullscreenSource, Fragment: lutSource,
			Uniforms: []string{"intensity", "size", "tiles_per_row"},
			Bindings: []Binding{UniformBinding, TextureBinding, TextureBinding, SamplerBinding},
		},
	}
}

// Frame packs the group 0 block shared by every fragment stage.
func Frame(width, height int) []float32 {
	w, h := float32(width), float32(height)
	return []float32{w, h, 1 / w, 1 / h}
}

// Compiled is a program with its SPIR-V stages.
type Compiled struct {
	Program
	VertexSPIRV   []uint32
	FragmentSPIRV []uint32
}

// Compile validates the uniform contract of p and compiles both stages.
func Compile(p Program) (*Compiled, error) {
	if err := checkContract(p); err != nil {
		return nil, err
	}
	vs, err := CompileSPIRV(p.Vertex)
	if err != nil {
		return nil, fmt.Errorf("%w: %s vertex: %w", ErrCompile, p.Name, err)
	}
	fs, err := CompileSPIRV(p.Fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: %s fragment: %w", ErrCompile, p.Name, err)
	}
	return &Compiled{Program: p, VertexSPIRV: vs, FragmentSPIRV: fs}, nil
}

// checkContract verifies that both entry points exist, that every uniform
// field is declared in the fragment source and that each group 1 slot is
// declared with its kind.
func checkContract(p Program) error {
	if !strings.Contains(p.Vertex, "fn "+VertexEntry) {
		return fmt.Errorf("%w: %s has no %s", ErrContract, p.Name, VertexEntry)
	}
	if !strings.Contains(p.Fragment, "fn "+FragmentEntry) {
		return fmt.Errorf("%w: %s has no %s", ErrContract, p.Name, FragmentEntry)
	}
	for _, name := range p.Uniforms {
		if !strings.Contains(p.Fragment, name+":") {
			return fmt.Errorf("%w: %s does not declare %q", ErrContract, p.Name, name)
		}
	}
	if len(p.Bindings) > 0 && p.Bindings[0] != UniformBinding {
		return fmt.Errorf("%w: %s slot 0 is a %s", ErrContract, p.Name, p.Bindings[0])
	}
	for i, b := range p.Bindings {
		decl := fmt.Sprintf("@group(1) @binding(%d) ", i)
		at := strings.Index(p.Fragment, decl)
		if at < 0 {
			return fmt.Errorf("%w: %s has no group 1 binding %d", ErrContract, p.Name, i)
		}
		line := p.Fragment[at:]
		if nl := strings.IndexByte(line, '\n'); nl >= 0 {
			line = line[:nl]
		}
		if !strings.Contains(line, b.declaration()) {
			return fmt.Errorf("%w: %s binding %d is not a %s", ErrContract, p.Name, i, b)
		}
	}
	return nil
}

// CompileSPIRV compiles WGSL source to SPIR-V words.
func CompileSPIRV(source string) ([]uint32, error) {
	b, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}

// Library is a set of compiled programs addressed by name.
type Library struct {
	programs map[string]*Compiled
}

// NewLibrary compiles every program. The first failure aborts.
func NewLibrary(programs ...Program) (*Library, error) {
	lib := &Library{programs: make(map[string]*Compiled, len(programs))}
	for _, p := range programs {
		c, err := Compile(p)
		if err != nil {
			return nil, err
		}
		lib.programs[p.Name] = c
	}
	return lib, nil
}

// Builtin compiles the built-in programs.
func Builtin() (*Library, error) {
	return NewLibrary(Programs()...)
}

// Get returns the compiled program registered under name.
func (l *Library) Get(name string) (*Compiled, error) {
	c, ok := l.programs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProgram, name)
	}
	return c, nil
}

// Require checks that every named program is present.
func (l *Library) Require(names ...string) error {
	for _, name := range names {
		if _, err := l.Get(name); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the program names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.programs))
	for name := range l.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
