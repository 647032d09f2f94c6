package shader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spirvMagic = 0x07230203

func TestBuiltinCompiles(t *testing.T) {
	lib, err := Builtin()
	require.NoError(t, err)

	want := []string{Blur, LUT, Mask, OutlineCircle, OutlineThreshold, Shadow}
	assert.Equal(t, want, lib.Names())

	for _, name := range want {
		c, err := lib.Get(name)
		require.NoError(t, err, name)
		require.NotEmpty(t, c.VertexSPIRV, name)
		require.NotEmpty(t, c.FragmentSPIRV, name)
		assert.Equal(t, uint32(spirvMagic), c.VertexSPIRV[0], "%s vertex magic", name)
		assert.Equal(t, uint32(spirvMagic), c.FragmentSPIRV[0], "%s fragment magic", name)
	}
}

func TestLibraryUnknownProgram(t *testing.T) {
	lib, err := NewLibrary()
	require.NoError(t, err)

	_, err = lib.Get("sepia")
	assert.ErrorIs(t, err, ErrUnknownProgram)
	assert.ErrorIs(t, lib.Require(Mask), ErrUnknownProgram)
}

func TestCompileInvalidSource(t *testing.T) {
	p := Program{
		Name:     "broken",
		Vertex:   fullscreenSource,
		Fragment: "@fragment fn fs_main( -> @location(0) vec4<f32> {",
	}
	_, err := Compile(p)
	if !errors.Is(err, ErrCompile) {
		t.Errorf("Compile(broken) error = %v, want ErrCompile", err)
	}
}

func TestContractMissingUniform(t *testing.T) {
	p := Programs()[1]
	p.Uniforms = append(p.Uniforms, "radius")
	_, err := Compile(p)
	assert.ErrorIs(t, err, ErrContract)
}

func TestContractMissingEntry(t *testing.T) {
	p := Program{Name: "x", Vertex: "fn main() {}", Fragment: blurSource}
	_, err := Compile(p)
	assert.ErrorIs(t, err, ErrContract)
}

func TestContractBindings(t *testing.T) {
	tests := []struct {
		name     string
		bindings []Binding
		wantErr  bool
	}{
		{"declared", []Binding{UniformBinding, TextureBinding, SamplerBinding}, false},
		{"wrong kind", []Binding{UniformBinding, SamplerBinding, SamplerBinding}, true},
		{"missing slot", []Binding{UniformBinding, TextureBinding, SamplerBinding, TextureBinding}, true},
		{"texture first", []Binding{TextureBinding}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Programs()[1]
			p.Bindings = tt.bindings
			err := checkContract(p)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrContract)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuiltinBindings(t *testing.T) {
	for _, p := range Programs() {
		require.NotEmpty(t, p.Bindings, p.Name)
		assert.Equal(t, 1, p.Count(UniformBinding), p.Name)
		assert.NoError(t, checkContract(p), p.Name)
	}
	lut := Programs()[5]
	assert.Equal(t, 2, lut.Count(TextureBinding))
	assert.Equal(t, 1, lut.Count(SamplerBinding))
}

func TestFrame(t *testing.T) {
	got := Frame(200, 50)
	want := []float32{200, 50, 0.005, 0.02}
	assert.InDeltaSlice(t, want, got, 1e-7)
}
