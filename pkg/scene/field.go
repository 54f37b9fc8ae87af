package scene

import (
	"github.com/chewxy/math32"

	"github.com/df07/go-postcard-raytracer/pkg/core"
)

// SunHeight is the plane above which everything is the light source
const SunHeight float32 = 19.9

// glyphStrokes holds 15 two-point segments for P, I, X, A and R (without curves).
// Each character c encodes the coordinate (c-79)*0.5.
const glyphStrokes = "5O5_" + "5W9W" + "5_9_" + // P
	"AOEO" + "COC_" + "A_E_" + // I
	"IOQ_" + "I_QO" + // X
	"UOY_" + "Y_]O" + "WW[W" + // A
	"aOa_" + "aWeW" + "a_e_" + "cWiO" // R

// curveAnchors are the centres of the bowls of P and R.
var curveAnchors = [2]core.Vec3{
	core.NewVec3(-11, 6, 0),
	core.NewVec3(11, 6, 0),
}

type segment struct {
	begin  core.Vec3
	extent core.Vec3 // end - begin
}

var segments = decodeSegments(glyphStrokes)

func decodeSegments(strokes string) []segment {
	out := make([]segment, 0, len(strokes)/4)
	for i := 0; i+3 < len(strokes); i += 4 {
		begin := core.NewVec3(float32(int(strokes[i])-79), float32(int(strokes[i+1])-79), 0).Multiply(0.5)
		end := core.NewVec3(float32(int(strokes[i+2])-79), float32(int(strokes[i+3])-79), 0).Multiply(0.5)
		out = append(out, segment{begin: begin, extent: end.Add(begin.Multiply(-1))})
	}
	return out
}

// Box corners for the CSG room
var (
	lowerRoomMin = core.NewVec3(-30, -0.5, -30)
	lowerRoomMax = core.NewVec3(30, 18, 30)
	upperRoomMin = core.NewVec3(-25, 17, -25)
	upperRoomMax = core.NewVec3(25, 20, 25)
	plankMin     = core.NewVec3(1.5, 18.5, -25)
	plankMax     = core.NewVec3(6.5, 20, 25)
)

// plankPeriod is the spacing of the ceiling planks along X
const plankPeriod float32 = 8

// PostcardField is the signed distance field of the whole postcard scene
type PostcardField struct{}

// Evaluate returns the distance to the nearest surface and its classification.
// Letters are the default; rooms replace them when strictly closer, then the sun.
func (PostcardField) Evaluate(p core.Vec3) core.FieldSample {
	sample := core.FieldSample{Distance: letterDistance(p), Type: core.HitLetter}

	if room := roomDistance(p); room < sample.Distance {
		sample = core.FieldSample{Distance: room, Type: core.HitWall}
	}

	if sun := SunHeight - p.Y; sun < sample.Distance {
		sample = core.FieldSample{Distance: sun, Type: core.HitSun}
	}

	return sample
}

// letterDistance extrudes the 2D glyph distance along Z with a rounded edge
func letterDistance(p core.Vec3) float32 {
	f := p
	f.Z = 0

	distance := float32(math32.MaxFloat32)
	for _, s := range segments {
		t := min(-min(s.begin.Add(f.Multiply(-1)).Dot(s.extent)/s.extent.Dot(s.extent), 0), 1)
		o := f.Add(s.begin.Add(s.extent.Multiply(t)).Multiply(-1))
		distance = min(distance, o.Dot(o))
	}
	distance = math32.Sqrt(distance)

	for i := len(curveAnchors) - 1; i >= 0; i-- {
		o := f.Add(curveAnchors[i].Multiply(-1))
		var curve float32
		if o.X > 0 {
			curve = math32.Abs(math32.Sqrt(o.Dot(o)) - 2)
		} else {
			if o.Y > 0 {
				o.Y += -2
			} else {
				o.Y += 2
			}
			curve = math32.Sqrt(o.Dot(o))
		}
		distance = min(distance, curve)
	}

	return math32.Pow(math32.Pow(distance, 8)+math32.Pow(p.Z, 8), 0.125) - 0.5
}

// roomDistance carves the two rooms out of solid space and adds the ceiling planks
func roomDistance(p core.Vec3) float32 {
	rooms := -min(
		BoxTest(p, lowerRoomMin, lowerRoomMax),
		BoxTest(p, upperRoomMin, upperRoomMax),
	)
	folded := core.NewVec3(math32.Mod(math32.Abs(p.X), plankPeriod), p.Y, p.Z)
	planks := BoxTest(folded, plankMin, plankMax)
	return min(rooms, planks)
}

// BoxTest returns the negated minimum slab distance to the box [lowerLeft, upperRight].
// It is negative inside the box and positive outside.
func BoxTest(position, lowerLeft, upperRight core.Vec3) float32 {
	lowerLeft = position.Add(lowerLeft.Multiply(-1))
	upperRight = upperRight.Add(position.Multiply(-1))
	return -min(
		min(
			min(lowerLeft.X, upperRight.X),
			min(lowerLeft.Y, upperRight.Y)),
		min(lowerLeft.Z, upperRight.Z))
}
