package core

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// HitType classifies the surface family nearest to a queried point
type HitType int

const (
	HitNone   HitType = iota // Ray escaped without touching anything
	HitLetter                // Mirror-like block letters
	HitWall                  // Diffuse room walls and ceiling planks
	HitSun                   // Emissive light plane
)

func (h HitType) String() string {
	switch h {
	case HitLetter:
		return "letter"
	case HitWall:
		return "wall"
	case HitSun:
		return "sun"
	default:
		return "none"
	}
}

// FieldSample is the result of one distance field query
type FieldSample struct {
	Distance float32 // Signed distance to the nearest surface
	Type     HitType // Which surface family is nearest
}

// Field is a signed distance field over world space
type Field interface {
	Evaluate(p Vec3) FieldSample
}

// FieldFunc adapts an ordinary function to the Field interface
type FieldFunc func(p Vec3) FieldSample

// Evaluate calls f(p)
func (f FieldFunc) Evaluate(p Vec3) FieldSample {
	return f(p)
}

// Hit is the outcome of marching a single ray.
// Position and Normal are only meaningful when Type is not HitNone.
type Hit struct {
	Type     HitType
	Position Vec3
	Normal   Vec3
}
