package raymarch

import (
	"github.com/df07/go-postcard-raytracer/pkg/core"
)

const (
	Horizon          float32 = 100  // Maximum distance travelled along a ray
	HitThreshold     float32 = 0.01 // Distances below this count as surface contact
	MaxStagnantSteps         = 99   // Steps without contact before the march gives up and reports a hit
	NormalEpsilon    float32 = 0.01 // Finite difference offset for normal estimation
)

// Marcher finds ray/surface intersections in a signed distance field by sphere marching
type Marcher struct {
	field core.Field
}

// NewMarcher creates a marcher over the given field
func NewMarcher(field core.Field) *Marcher {
	return &Marcher{field: field}
}

// Field returns the distance field being marched
func (m *Marcher) Field() core.Field {
	return m.field
}

// March steps along the ray by the field distance until it touches a surface or leaves
// the horizon. After MaxStagnantSteps non-contact steps the current position is reported
// as a hit with its current classification.
func (m *Marcher) March(ray core.Ray) core.Hit {
	noHitCount := 0
	for t := float32(0); t < Horizon; {
		position := ray.At(t)
		sample := m.field.Evaluate(position)

		if sample.Distance >= HitThreshold {
			noHitCount++
			if noHitCount <= MaxStagnantSteps {
				t += sample.Distance
				continue
			}
		}

		return core.Hit{
			Type:     sample.Type,
			Position: position,
			Normal:   m.Normal(position, sample.Distance),
		}
	}
	return core.Hit{Type: core.HitNone}
}

// Normal estimates the surface normal at p by forward differences of the field,
// where d is the field distance already measured at p.
func (m *Marcher) Normal(p core.Vec3, d float32) core.Vec3 {
	return core.NewVec3(
		m.field.Evaluate(p.Add(core.NewVec3(NormalEpsilon, 0, 0))).Distance-d,
		m.field.Evaluate(p.Add(core.NewVec3(0, NormalEpsilon, 0))).Distance-d,
		m.field.Evaluate(p.Add(core.NewVec3(0, 0, NormalEpsilon))).Distance-d,
	).Normalize()
}
