//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/collage/render"
	"github.com/gogpu/collage/shader"
)

// pipeline is the render pipeline of one shader program together with
// its persistent parameter buffer.
type pipeline struct {
	program *shader.Compiled

	vertex     hal.ShaderModule
	fragment   hal.ShaderModule
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	params     hal.Buffer
	paramsSize uint64
}

// newPipeline creates the modules, layouts and render pipeline of c.
// Group 0 is frameLayout; group 1 follows c.Bindings.
func newPipeline(device hal.Device, frameLayout hal.BindGroupLayout, c *shader.Compiled) (*pipeline, error) {
	p := &pipeline{program: c}
	if err := p.create(device, frameLayout); err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("gpu: %s: %w", c.Name, err)
	}
	return p, nil
}

func (p *pipeline) create(device hal.Device, frameLayout hal.BindGroupLayout) error {
	c := p.program
	var err error

	p.vertex, err = device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  c.Name + "_vs",
		Source: hal.ShaderSource{SPIRV: c.VertexSPIRV},
	})
	if err != nil {
		return fmt.Errorf("create vertex module: %w", err)
	}
	p.fragment, err = device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  c.Name + "_fs",
		Source: hal.ShaderSource{SPIRV: c.FragmentSPIRV},
	})
	if err != nil {
		return fmt.Errorf("create fragment module: %w", err)
	}

	p.layout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   c.Name + "_params_layout",
		Entries: layoutEntries(c.Bindings),
	})
	if err != nil {
		return fmt.Errorf("create params layout: %w", err)
	}

	p.pipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            c.Name + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{frameLayout, p.layout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	// Passes replace the target, so blending stays off.
	p.pipeline, err = device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  c.Name + "_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.vertex,
			EntryPoint: shader.VertexEntry,
		},
		Fragment: &hal.FragmentState{
			Module:     p.fragment,
			EntryPoint: shader.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatRGBA8Unorm,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.DefaultMultisampleState(),
	})
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	return nil
}

// layoutEntries maps group 1 slots to bind group layout entries.
func layoutEntries(bindings []shader.Binding) []gputypes.BindGroupLayoutEntry {
	entries := make([]gputypes.BindGroupLayoutEntry, len(bindings))
	for i, b := range bindings {
		e := gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: gputypes.ShaderStageFragment,
		}
		switch b {
		case shader.UniformBinding:
			e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
		case shader.TextureBinding:
			e.Texture = &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}
		case shader.SamplerBinding:
			e.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
		}
		entries[i] = e
	}
	return entries
}

// check reports whether d fills every group 1 slot of the program.
func (p *pipeline) check(d render.Draw) error {
	c := p.program
	switch {
	case len(d.Uniforms) == 0 || len(d.Uniforms)%4 != 0:
		return fmt.Errorf("%w: %s parameter block of %d floats", render.ErrFallbackToCPU, c.Name, len(d.Uniforms))
	case len(d.Textures) != c.Count(shader.TextureBinding):
		return fmt.Errorf("%w: %s needs %d textures, got %d",
			render.ErrFallbackToCPU, c.Name, c.Count(shader.TextureBinding), len(d.Textures))
	case len(d.Samplers) != c.Count(shader.SamplerBinding):
		return fmt.Errorf("%w: %s needs %d samplers, got %d",
			render.ErrFallbackToCPU, c.Name, c.Count(shader.SamplerBinding), len(d.Samplers))
	}
	for i, t := range d.Textures {
		if t == nil {
			return fmt.Errorf("%w: %s texture %d is nil", render.ErrFallbackToCPU, c.Name, i)
		}
	}
	return nil
}

// writeParams uploads the parameter block, growing the buffer if needed.
func (p *pipeline) writeParams(device hal.Device, queue hal.Queue, uniforms []float32) error {
	data := floatBytes(uniforms)
	if size := uint64(len(data)); size > p.paramsSize {
		if p.params != nil {
			device.DestroyBuffer(p.params)
			p.params, p.paramsSize = nil, 0
		}
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: p.program.Name + "_params",
			Size:  size,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("gpu: create %s params: %w", p.program.Name, err)
		}
		p.params, p.paramsSize = buf, size
	}
	if err := queue.WriteBuffer(p.params, 0, data); err != nil {
		return fmt.Errorf("gpu: write %s params: %w", p.program.Name, err)
	}
	return nil
}

// destroy releases all pipeline resources in reverse creation order.
func (p *pipeline) destroy(device hal.Device) {
	if p.params != nil {
		device.DestroyBuffer(p.params)
		p.params = nil
	}
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.layout != nil {
		device.DestroyBindGroupLayout(p.layout)
		p.layout = nil
	}
	if p.fragment != nil {
		device.DestroyShaderModule(p.fragment)
		p.fragment = nil
	}
	if p.vertex != nil {
		device.DestroyShaderModule(p.vertex)
		p.vertex = nil
	}
}

// floatBytes encodes v as little-endian float32 words.
func floatBytes(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}
