// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

// Smoothstep matches the WGSL builtin: 0 below e0, 1 above e1, Hermite
// interpolation between. When e0 >= e1 it degenerates to a step at e1.
func Smoothstep(e0, e1, x float32) float32 {
	if e0 >= e1 {
		if x >= e1 {
			return 1
		}
		return 0
	}
	t := clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

// Mix matches the WGSL builtin for scalars.
func Mix(a, b, t float32) float32 {
	return a + (b-a)*t
}
