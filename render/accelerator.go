// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gputypes"
)

// ErrFallbackToCPU indicates the accelerator cannot run a draw.
// The caller shades the target on the CPU instead.
var ErrFallbackToCPU = errors.New("render: falling back to CPU shading")

// Draw describes one full-target shader invocation.
//
// Textures and Samplers fill the group 1 slots of Program in binding
// order; slot 0 is the packed Uniforms block.
type Draw struct {
	// Program names the shader program.
	Program string

	// Uniforms is the group 1 parameter block in WGSL field order.
	Uniforms []float32

	// Textures are bound to the texture slots, premultiplied.
	Textures []*Texture

	// Samplers are bound to the sampler slots.
	Samplers []gputypes.SamplerDescriptor
}

// Accelerator is an optional GPU shading provider.
//
// When one is registered, Target.Shade runs draws on it first. If the
// accelerator returns ErrFallbackToCPU or any other error, the fragment
// is shaded on the CPU.
//
// Backend packages provide implementations; the caller opts in with
// RegisterAccelerator.
type Accelerator interface {
	// Name returns the accelerator name (e.g. "wgpu").
	Name() string

	// Init acquires GPU resources. Called once during registration.
	Init() error

	// Close releases GPU resources.
	Close()

	// Shade renders d over every pixel of dst.
	// dst is only written when Shade returns nil.
	Shade(d Draw, dst *image.RGBA) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator initializes a and makes it the current accelerator.
// The previous one, if any, is closed. If Init fails, a is not registered.
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("render: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	swapAccelerator(a)
	return nil
}

// UnregisterAccelerator closes the current accelerator and returns to CPU
// shading.
func UnregisterAccelerator() {
	swapAccelerator(nil)
}

func swapAccelerator(a Accelerator) {
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// CurrentAccelerator returns the registered accelerator, or nil if none.
func CurrentAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// Shade renders d on the registered accelerator, or runs frag on the CPU
// when there is none or it declines. frag must compute the same image as
// d's program.
func (t *Target) Shade(d Draw, frag Fragment) error {
	if !t.begun {
		return fmt.Errorf("%w: %s", ErrNotBegun, t.label)
	}
	if a := CurrentAccelerator(); a != nil {
		if err := a.Shade(d, t.img); err == nil {
			return nil
		}
	}
	return t.DrawFullscreen(frag)
}
