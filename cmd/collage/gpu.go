//go:build !nogpu

package main

import (
	_ "github.com/gogpu/wgpu/hal/allbackends"

	"github.com/gogpu/collage/gpu"
	"github.com/gogpu/collage/render"
	"github.com/gogpu/collage/shader"
)

func init() {
	accelerate = func() (func(), error) {
		lib, err := shader.Builtin()
		if err != nil {
			return nil, err
		}
		if err := render.RegisterAccelerator(gpu.New(lib)); err != nil {
			return nil, err
		}
		return render.UnregisterAccelerator, nil
	}
}
