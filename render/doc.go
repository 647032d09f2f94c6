// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render provides the off-screen rendering substrate of the collage
// pipeline.
//
// # Core Types
//
//   - Target: a CPU-backed premultiplied RGBA render target with a
//     Begin/End scoped-writing contract
//   - Texture: a read-only view of pixels bound to a sampler descriptor
//   - Pool: the piece buffer, the ping-pong pair and named scratch buffers
//
// # Writing and Reading
//
// A Target accepts draw calls only while it is begun. While begun it cannot
// be bound as a texture, so a pass can never read and write the same buffer:
//
//	dst.Begin()
//	defer dst.End()
//	dst.Clear()
//	dst.DrawFullscreen(func(x, y int, u, v float32) render.Color {
//	    return src.Sample(u, v)
//	})
//
// Textures follow WebGPU sampler semantics. Address modes and filters come
// from gputypes.SamplerDescriptor, so the same descriptor can later be handed
// to a GPU backend unchanged.
//
// # Pixel Format
//
// All targets store 8-bit premultiplied RGBA (gputypes.TextureFormatRGBA8Unorm),
// which is the convention of image.RGBA. Color values handed to and returned
// from fragments are premultiplied float32.
package render
