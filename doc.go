// Package collage composites photographs onto a canvas as torn-paper
// pieces.
//
// # Overview
//
// Each piece runs through a multi-pass off-screen pipeline:
//
//	shape mask -> rotated placement -> outline -> drop shadow -> LUT grade -> canvas
//
// The mask tears a random crop of a registered photograph using two tiling
// noise textures. The placed sprite then bounces between the two buffers of
// a ping-pong pair, one swap per effect pass, and the final buffer is
// composited onto the canvas. All off-screen buffers are cleared before
// DrawImage returns.
//
// # Quick Start
//
//	canvas, _ := collage.NewCanvas(1024, 768)
//	c, err := collage.New(collage.Resources{Canvas: canvas}, collage.WithSeed(42))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = c.Clear(color.White)
//	_ = c.AddImageFile("photo.jpg", 0.3, 0.6)
//	specs, _ := layout.Grid(1024, 768, layout.GridOptions{
//	    Cols: 4, Rows: 3, Gap: 16, Image: collage.DefaultImage,
//	}, nil)
//	if _, err := layout.NewQueue(specs).Drain(c); err != nil {
//	    log.Fatal(err)
//	}
//
// # Architecture
//
// The library is organized into:
//   - collage: the orchestrator, image registry and options
//   - render: targets, textures, the buffer pool and affine blits
//   - mask: the torn-edge mask generator
//   - effect: blur, outline, shadow and LUT passes
//   - noise: tiling noise textures
//   - shader: WGSL programs of every pass, compiled with naga
//   - layout, config, present: placement drivers, sketch files and GPU
//     surface upload
//
// # Pixels
//
// Targets hold premultiplied RGBA. Passes are full-screen fragment
// functions sampling textures through WebGPU sampler descriptors; the
// matching WGSL programs define the uniform contract a GPU backend binds.
//
// # Errors
//
// Configuration errors (bad ratios, sizes, parameters, empty registry) are
// returned by the offending call before any buffer is written. Resource
// errors (undecodable images, shaders that fail to compile) are returned
// by New and AddImage.
package collage
