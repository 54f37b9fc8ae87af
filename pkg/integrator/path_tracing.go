package integrator

import (
	"github.com/df07/go-postcard-raytracer/pkg/core"
	"github.com/df07/go-postcard-raytracer/pkg/raymarch"
	"github.com/df07/go-postcard-raytracer/pkg/scene"
)

const (
	MaxBounces                     = 3
	BounceAttenuation      float32 = 0.2 // Energy kept per letter or wall bounce
	SelfIntersectionOffset float32 = 0.1 // Distance new rays start away from the surface
)

// BounceState is the loop-carried state of one camera path
type BounceState struct {
	Origin      core.Vec3
	Direction   core.Vec3
	Attenuation core.Vec3
	Color       core.Vec3
	Bounces     int  // Bounce iterations performed
	Done        bool // Path escaped or reached the sun
}

// PathTracingIntegrator implements the postcard's three-bounce path tracer
type PathTracingIntegrator struct {
	marcher          *raymarch.Marcher
	lightDirection   core.Vec3
	skyEmission      core.Vec3
	sunlightEmission core.Vec3
}

// NewPathTracingIntegrator creates a path tracing integrator for the scene
func NewPathTracingIntegrator(s *scene.Scene) *PathTracingIntegrator {
	return &PathTracingIntegrator{
		marcher:          raymarch.NewMarcher(s.Field),
		lightDirection:   s.LightDirection,
		skyEmission:      s.SkyEmission,
		sunlightEmission: s.SunlightEmission,
	}
}

// RayColor computes the color for a single ray using unidirectional path tracing
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, sampler core.Sampler) core.Vec3 {
	return pt.Trace(ray, sampler).Color
}

// Trace runs the bounce loop and returns the final state
func (pt *PathTracingIntegrator) Trace(ray core.Ray, sampler core.Sampler) BounceState {
	state := BounceState{
		Origin:      ray.Origin,
		Direction:   ray.Direction,
		Attenuation: core.Broadcast(1),
	}

	for !state.Done && state.Bounces < MaxBounces {
		hit := pt.marcher.March(core.NewRay(state.Origin, state.Direction))
		state.Bounces++

		switch hit.Type {
		case core.HitNone:
			state.Done = true
		case core.HitLetter:
			pt.reflectSpecular(&state, hit)
		case core.HitWall:
			pt.scatterDiffuse(&state, hit, sampler)
		case core.HitSun:
			state.Color = state.Color.Add(state.Attenuation.MultiplyVec(pt.skyEmission))
			state.Done = true
		}
	}

	return state
}

// reflectSpecular mirrors the path about the letter normal
func (pt *PathTracingIntegrator) reflectSpecular(state *BounceState, hit core.Hit) {
	state.Direction = state.Direction.Add(hit.Normal.Multiply(hit.Normal.Dot(state.Direction) * -2))
	state.Origin = hit.Position.Add(state.Direction.Multiply(SelfIntersectionOffset))
	state.Attenuation = state.Attenuation.Multiply(BounceAttenuation)
}

// scatterDiffuse picks a cosine-weighted bounce and adds direct sunlight if the sun is visible
func (pt *PathTracingIntegrator) scatterDiffuse(state *BounceState, hit core.Hit, sampler core.Sampler) {
	incidence := hit.Normal.Dot(pt.lightDirection)
	p := core.TwoPi * sampler.Get1D()
	c := sampler.Get1D()

	state.Direction = core.SampleCosineHemisphere(hit.Normal, p, c)
	state.Origin = hit.Position.Add(state.Direction.Multiply(SelfIntersectionOffset))
	state.Attenuation = state.Attenuation.Multiply(BounceAttenuation)

	if incidence > 0 && pt.sunVisible(hit) {
		direct := state.Attenuation.MultiplyVec(pt.sunlightEmission).Multiply(incidence)
		state.Color = state.Color.Add(direct)
	}
}

// sunVisible casts a shadow ray from just above the surface towards the light
func (pt *PathTracingIntegrator) sunVisible(hit core.Hit) bool {
	origin := hit.Position.Add(hit.Normal.Multiply(SelfIntersectionOffset))
	shadow := pt.marcher.March(core.NewRay(origin, pt.lightDirection))
	return shadow.Type == core.HitSun
}
