package scene

import (
	"github.com/df07/go-postcard-raytracer/pkg/core"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name             string
	Field            core.Field // Signed distance field of all geometry
	LightDirection   core.Vec3  // Unit direction towards the sun
	SkyEmission      core.Vec3  // Radiance of a ray that reaches the sun plane
	SunlightEmission core.Vec3  // Direct sunlight credited on unoccluded walls
	CameraConfig     CameraConfig
	SamplingConfig   SamplingConfig
}

// CameraConfig describes a pinhole camera looking at a fixed point
type CameraConfig struct {
	Position core.Vec3 // Eye position
	LookAt   core.Vec3 // Point the camera faces
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int // Image width
	Height          int // Image height
	SamplesPerPixel int // Number of rays per pixel
}

// DefaultSamplingConfig returns the canonical postcard resolution and sample count
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           960,
		Height:          540,
		SamplesPerPixel: 8,
	}
}

// NewPostcardScene creates the PIXAR letters scene
func NewPostcardScene() *Scene {
	return &Scene{
		Name:             "postcard",
		Field:            PostcardField{},
		LightDirection:   core.NewVec3(0.6, 0.6, 1).Normalize(),
		SkyEmission:      core.NewVec3(50, 80, 100),
		SunlightEmission: core.NewVec3(500, 400, 100),
		CameraConfig: CameraConfig{
			Position: core.NewVec3(-22, 5, 25),
			LookAt:   core.NewVec3(-3, 4, 0),
		},
		SamplingConfig: DefaultSamplingConfig(),
	}
}

// WithSampling returns a copy of the scene using the given sampling configuration
func (s *Scene) WithSampling(config SamplingConfig) *Scene {
	clone := *s
	clone.SamplingConfig = config
	return &clone
}
