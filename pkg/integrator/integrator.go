package integrator

import (
	"github.com/df07/go-postcard-raytracer/pkg/core"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor computes the radiance arriving along a camera ray
	RayColor(ray core.Ray, sampler core.Sampler) core.Vec3
}
