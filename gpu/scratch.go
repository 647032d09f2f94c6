//go:build !nogpu

package gpu

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/collage/render"
	"github.com/gogpu/collage/shader"
)

// scratch owns the per-draw resources and releases them together.
type scratch struct {
	device hal.Device
	queue  hal.Queue

	textures []hal.Texture
	views    []hal.TextureView
	samplers []hal.Sampler
	groups   []hal.BindGroup
	buffers  []hal.Buffer
	cmds     []hal.CommandBuffer

	mappedBuf hal.Buffer
}

// bindGroup uploads d's textures, creates its samplers and binds them
// with the parameter block in program slot order.
func (s *scratch) bindGroup(p *pipeline, d render.Draw) (hal.BindGroup, error) {
	entries := make([]gputypes.BindGroupEntry, len(p.program.Bindings))
	var ti, si int
	for i, b := range p.program.Bindings {
		var res gputypes.BindingResource
		switch b {
		case shader.UniformBinding:
			res = gputypes.BufferBinding{Buffer: p.params.NativeHandle(), Size: p.paramsSize}
		case shader.TextureBinding:
			view, err := s.upload(d.Textures[ti])
			if err != nil {
				return nil, err
			}
			res = gputypes.TextureViewBinding{TextureView: view.NativeHandle()}
			ti++
		case shader.SamplerBinding:
			smp, err := s.device.CreateSampler(samplerDescriptor(d.Samplers[si]))
			if err != nil {
				return nil, fmt.Errorf("gpu: create sampler: %w", err)
			}
			s.samplers = append(s.samplers, smp)
			res = gputypes.SamplerBinding{Sampler: smp.NativeHandle()}
			si++
		}
		entries[i] = gputypes.BindGroupEntry{Binding: uint32(i), Resource: res}
	}

	group, err := s.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.program.Name + "_params_group",
		Layout:  p.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s bind group: %w", p.program.Name, err)
	}
	s.groups = append(s.groups, group)
	return group, nil
}

// upload copies a premultiplied texture to a sampled GPU texture.
func (s *scratch) upload(t *render.Texture) (hal.TextureView, error) {
	img := t.Image()
	w, h := img.Rect.Dx(), img.Rect.Dy()
	size := hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}

	tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "input",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create input texture: %w", err)
	}
	s.textures = append(s.textures, tex)

	err = s.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		tightPixels(img),
		&hal.ImageDataLayout{BytesPerRow: uint32(4 * w), RowsPerImage: uint32(h)},
		&size,
	)
	if err != nil {
		return nil, fmt.Errorf("gpu: upload input texture: %w", err)
	}
	return s.view(tex)
}

func (s *scratch) view(tex hal.Texture) (hal.TextureView, error) {
	view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create texture view: %w", err)
	}
	s.views = append(s.views, view)
	return view, nil
}

// render draws the full-screen triangle into a w x h attachment, copies
// it into a mappable buffer and returns the mapped rows. Rows are padded
// to alignedRow(w) bytes. The mapping stays valid until unmap.
func (s *scratch) render(p *pipeline, frameGroup, group hal.BindGroup, label string, w, h int) ([]byte, error) {
	size := hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}
	target, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "output",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create output texture: %w", err)
	}
	s.textures = append(s.textures, target)
	view, err := s.view(target)
	if err != nil {
		return nil, err
	}

	pitch := alignedRow(w)
	readSize := uint64(pitch * h)
	readback, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback",
		Size:  readSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create readback buffer: %w", err)
	}
	s.buffers = append(s.buffers, readback)

	enc, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("gpu: create encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("gpu: begin encoding: %w", err)
	}

	rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{},
			},
		},
	})
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, frameGroup, nil)
	rp.SetBindGroup(1, group, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()

	enc.TransitionTextures([]hal.TextureBarrier{
		{
			Texture: target,
			Range: hal.TextureRange{
				Aspect:          gputypes.TextureAspectAll,
				MipLevelCount:   1,
				ArrayLayerCount: 1,
			},
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		},
	})
	enc.CopyTextureToBuffer(target, readback, []hal.BufferTextureCopy{
		{
			BufferLayout: hal.ImageDataLayout{BytesPerRow: uint32(pitch), RowsPerImage: uint32(h)},
			TextureBase:  hal.ImageCopyTexture{Texture: target, Aspect: gputypes.TextureAspectAll},
			Size:         size,
		},
	})

	cmd, err := enc.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("gpu: end encoding: %w", err)
	}
	s.cmds = append(s.cmds, cmd)

	if _, err := s.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return nil, fmt.Errorf("gpu: submit %s: %w", label, err)
	}
	if err := s.device.WaitIdle(); err != nil {
		return nil, fmt.Errorf("gpu: wait %s: %w", label, err)
	}

	m, err := s.device.MapBuffer(readback, 0, readSize)
	if err != nil {
		return nil, fmt.Errorf("gpu: map readback: %w", err)
	}
	s.mappedBuf = readback
	return mapped(m, int(readSize)), nil
}

// unmap releases the readback mapping.
func (s *scratch) unmap() error {
	if s.mappedBuf == nil {
		return nil
	}
	buf := s.mappedBuf
	s.mappedBuf = nil
	if err := s.device.UnmapBuffer(buf); err != nil {
		return fmt.Errorf("gpu: unmap readback: %w", err)
	}
	return nil
}

// release destroys every per-draw resource.
func (s *scratch) release() {
	_ = s.unmap()
	for _, c := range s.cmds {
		s.device.FreeCommandBuffer(c)
	}
	for _, g := range s.groups {
		s.device.DestroyBindGroup(g)
	}
	for _, smp := range s.samplers {
		s.device.DestroySampler(smp)
	}
	for _, v := range s.views {
		s.device.DestroyTextureView(v)
	}
	for _, t := range s.textures {
		s.device.DestroyTexture(t)
	}
	for _, b := range s.buffers {
		s.device.DestroyBuffer(b)
	}
}

// samplerDescriptor converts a render sampler to its HAL descriptor.
// Collage textures carry no mip chain.
func samplerDescriptor(d gputypes.SamplerDescriptor) *hal.SamplerDescriptor {
	return &hal.SamplerDescriptor{
		Label:        d.Label,
		AddressModeU: d.AddressModeU,
		AddressModeV: d.AddressModeV,
		AddressModeW: d.AddressModeW,
		MagFilter:    d.MagFilter,
		MinFilter:    d.MinFilter,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMinClamp:  d.LodMinClamp,
		LodMaxClamp:  d.LodMaxClamp,
		Compare:      d.Compare,
		Anisotropy:   max(d.MaxAnisotropy, 1),
	}
}

// tightPixels returns img's pixels with a 4*width row pitch.
func tightPixels(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if img.Stride == 4*w && img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y) == 0 {
		return img.Pix[:4*w*h]
	}
	out := make([]byte, 4*w*h)
	for y := 0; y < h; y++ {
		i := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(out[y*4*w:], img.Pix[i:i+4*w])
	}
	return out
}
