// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package present uploads a collage canvas to a GPU surface.
//
// A Presenter owns one GPU texture mirroring a render.Target. The texture
// is created lazily on the first RenderTo, updated in place when the
// canvas is marked dirty and recreated when the canvas size changes.
//
// Typical frame loop:
//
//	p, _ := present.New(c.Canvas())
//	app.OnDraw(func(dc *gogpu.Context) {
//	    if _, ok, _ := queue.Step(c); ok {
//	        p.MarkDirty()
//	    }
//	    _ = p.RenderTo(dc.AsTextureDrawer())
//	})
//
// Canvas pixels are premultiplied; textures that support it are flagged
// so the surface blends them with BlendFactorOne.
package present
