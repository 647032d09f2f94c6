//go:build !nogpu

// Package gpu runs collage shader passes on a wgpu HAL device.
//
// The accelerator turns each program of a shader.Library into a render
// pipeline on first use. A draw uploads its textures and packed parameter
// block, renders the full-screen triangle into an RGBA8 attachment and
// copies the result back into the CPU target. Draws it cannot run return
// render.ErrFallbackToCPU and are shaded by the CPU fragments.
//
// Usage:
//
//	import _ "github.com/gogpu/wgpu/hal/allbackends"
//
//	lib, _ := shader.Builtin()
//	if err := render.RegisterAccelerator(gpu.New(lib)); err != nil {
//	    // CPU shading only
//	}
package gpu

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/collage"
	"github.com/gogpu/collage/render"
	"github.com/gogpu/collage/shader"
)

// ErrNoAdapter is returned by Init when no hardware adapter is available.
var ErrNoAdapter = errors.New("gpu: no GPU adapter")

// copyRowAlignment is the row pitch alignment of texture-to-buffer copies.
const copyRowAlignment = 256

// Accelerator implements render.Accelerator on a wgpu HAL device.
//
// Accelerator is safe for concurrent use; draws are serialized.
type Accelerator struct {
	mu  sync.Mutex
	lib *shader.Library

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool
	maxSize  uint32

	frameLayout hal.BindGroupLayout
	frame       hal.Buffer
	frameGroup  hal.BindGroup
	pipelines   map[string]*pipeline
}

// New returns an accelerator that opens its own device on Init, using
// the most capable registered HAL backend.
func New(lib *shader.Library) *Accelerator {
	return &Accelerator{lib: lib}
}

// NewWithDevice returns an accelerator that draws on an existing device.
// The device and queue stay owned by the caller.
func NewWithDevice(lib *shader.Library, device hal.Device, queue hal.Queue) *Accelerator {
	return &Accelerator{lib: lib, device: device, queue: queue, external: true}
}

// Name returns "wgpu".
func (a *Accelerator) Name() string { return "wgpu" }

// Init opens the device if needed and creates the shared frame block.
func (a *Accelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lib == nil {
		return errors.New("gpu: nil shader library")
	}
	if a.device == nil {
		if err := a.open(); err != nil {
			return err
		}
	}
	if a.maxSize == 0 {
		a.maxSize = gputypes.DefaultLimits().MaxTextureDimension2D
	}
	if err := a.createFrame(); err != nil {
		a.release()
		return err
	}
	a.pipelines = make(map[string]*pipeline)
	collage.Logger().Info("gpu accelerator ready", "programs", a.lib.Names(), "max_size", a.maxSize)
	return nil
}

// open creates an instance and device on the best registered backend,
// preferring discrete or integrated adapters.
func (a *Accelerator) open() error {
	backend, err := hal.SelectBestBackend()
	if err != nil {
		return fmt.Errorf("gpu: select backend: %w", err)
	}
	if backend.Variant() == gputypes.BackendEmpty {
		return fmt.Errorf("%w: only the %s backend is registered", ErrNoAdapter, backend.Variant())
	}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("gpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return ErrNoAdapter
	}

	selected := &adapters[0]
	for i := range adapters {
		t := adapters[i].Info.DeviceType
		if t == gputypes.DeviceTypeDiscreteGPU || t == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(0, limits)
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("gpu: open device: %w", err)
	}

	a.instance = instance
	a.device = openDev.Device
	a.queue = openDev.Queue
	a.maxSize = limits.MaxTextureDimension2D
	collage.Logger().Debug("gpu device opened", "backend", backend.Variant(), "adapter", selected.Info.Name)
	return nil
}

// createFrame creates the group 0 layout, buffer and bind group.
func (a *Accelerator) createFrame() error {
	var err error
	a.frameLayout, err = a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "frame_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create frame layout: %w", err)
	}

	size := uint64(4 * len(shader.Frame(1, 1)))
	a.frame, err = a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "frame",
		Size:  size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create frame buffer: %w", err)
	}

	a.frameGroup, err = a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "frame_group",
		Layout: a.frameLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: a.frame.NativeHandle(), Size: size}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create frame group: %w", err)
	}
	return nil
}

// Close releases every GPU resource. A device passed to NewWithDevice is
// left open.
func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.release()
}

func (a *Accelerator) release() {
	if a.device == nil {
		return
	}
	for name, p := range a.pipelines {
		p.destroy(a.device)
		delete(a.pipelines, name)
	}
	if a.frameGroup != nil {
		a.device.DestroyBindGroup(a.frameGroup)
		a.frameGroup = nil
	}
	if a.frame != nil {
		a.device.DestroyBuffer(a.frame)
		a.frame = nil
	}
	if a.frameLayout != nil {
		a.device.DestroyBindGroupLayout(a.frameLayout)
		a.frameLayout = nil
	}
	if a.external {
		return
	}
	a.device.Destroy()
	a.device, a.queue = nil, nil
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}
}

// Shade renders d over dst and copies the result into dst.Pix.
func (a *Accelerator) Shade(d render.Draw, dst *image.RGBA) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.device == nil || a.pipelines == nil {
		return fmt.Errorf("%w: accelerator not initialized", render.ErrFallbackToCPU)
	}

	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	if !a.fits(w, h) {
		return fmt.Errorf("%w: %dx%d target exceeds %d", render.ErrFallbackToCPU, w, h, a.maxSize)
	}
	p, err := a.pipelineFor(d.Program)
	if err != nil {
		return err
	}
	if err := p.check(d); err != nil {
		return err
	}
	for _, t := range d.Textures {
		if !a.fits(t.Width(), t.Height()) {
			return fmt.Errorf("%w: %dx%d texture exceeds %d", render.ErrFallbackToCPU, t.Width(), t.Height(), a.maxSize)
		}
	}

	if err := a.queue.WriteBuffer(a.frame, 0, floatBytes(shader.Frame(w, h))); err != nil {
		return fmt.Errorf("gpu: write frame: %w", err)
	}
	if err := p.writeParams(a.device, a.queue, d.Uniforms); err != nil {
		return err
	}

	s := &scratch{device: a.device, queue: a.queue}
	defer s.release()

	group, err := s.bindGroup(p, d)
	if err != nil {
		return err
	}
	out, err := s.render(p, a.frameGroup, group, d.Program, w, h)
	if err != nil {
		return err
	}

	copyRows(dst, out, w, h)
	return s.unmap()
}

func (a *Accelerator) fits(w, h int) bool {
	return w > 0 && h > 0 && uint32(w) <= a.maxSize && uint32(h) <= a.maxSize
}

// pipelineFor returns the cached pipeline of program, creating it on
// first use.
func (a *Accelerator) pipelineFor(program string) (*pipeline, error) {
	if p, ok := a.pipelines[program]; ok {
		return p, nil
	}
	c, err := a.lib.Get(program)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", render.ErrFallbackToCPU, err)
	}
	p, err := newPipeline(a.device, a.frameLayout, c)
	if err != nil {
		return nil, err
	}
	a.pipelines[program] = p
	collage.Logger().Debug("gpu pipeline created", "program", program)
	return p, nil
}

// copyRows copies tightly padded readback rows into dst.
func copyRows(dst *image.RGBA, src []byte, w, h int) {
	pitch := alignedRow(w)
	for y := 0; y < h; y++ {
		i := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		copy(dst.Pix[i:i+4*w], src[y*pitch:y*pitch+4*w])
	}
}

// alignedRow returns the padded byte pitch of a w-texel RGBA8 row.
func alignedRow(w int) int {
	return (4*w + copyRowAlignment - 1) / copyRowAlignment * copyRowAlignment
}

// mapped views a buffer mapping as bytes.
func mapped(m hal.BufferMapping, size int) []byte {
	return unsafe.Slice((*byte)(m.Ptr), size)
}
