package renderer

import (
	"github.com/df07/go-postcard-raytracer/pkg/core"
	"github.com/df07/go-postcard-raytracer/pkg/scene"
)

// Camera generates jittered primary rays for the postcard view
type Camera struct {
	position core.Vec3
	goal     core.Vec3 // Unit forward vector
	left     core.Vec3 // Screen-plane X basis, scaled by 1/width
	up       core.Vec3 // Screen-plane Y basis
	width    int
	height   int
}

// NewCamera creates a camera for an image of the given size
func NewCamera(config scene.CameraConfig, width, height int) *Camera {
	goal := config.LookAt.Add(config.Position.Multiply(-1)).Normalize()
	left := core.NewVec3(goal.Z, 0, -goal.X).Normalize().Multiply(1 / float32(width))

	// Cross-product to get the up vector
	up := core.NewVec3(
		goal.Y*left.Z-goal.Z*left.Y,
		goal.Z*left.X-goal.X*left.Z,
		goal.X*left.Y-goal.Y*left.X,
	)

	return &Camera{
		position: config.Position,
		goal:     goal,
		left:     left,
		up:       up,
		width:    width,
		height:   height,
	}
}

// GetRay returns a jittered ray through camera pixel (x, y), where y=0 is the bottom
// scan-line and x=0 the rightmost column. The X jitter is drawn before the Y jitter.
func (c *Camera) GetRay(x, y int, sampler core.Sampler) core.Ray {
	jitterX := sampler.Get1D()
	jitterY := sampler.Get1D()

	direction := c.goal.
		Add(c.left.Multiply(float32(x-c.width/2) + jitterX)).
		Add(c.up.Multiply(float32(y-c.height/2) + jitterY)).
		Normalize()

	return core.NewRay(c.position, direction)
}

// GetPixelRay returns a ray for image pixel (col, row) with row 0 at the top and
// col 0 at the left of the written image.
func (c *Camera) GetPixelRay(col, row int, sampler core.Sampler) core.Ray {
	return c.GetRay(c.width-1-col, c.height-1-row, sampler)
}

// GetCameraForward returns the unit viewing direction
func (c *Camera) GetCameraForward() core.Vec3 {
	return c.goal
}
