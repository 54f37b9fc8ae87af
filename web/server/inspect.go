package server

import (
	"net/http"
	"strconv"

	"github.com/df07/go-postcard-raytracer/pkg/core"
	"github.com/df07/go-postcard-raytracer/pkg/raymarch"
	"github.com/df07/go-postcard-raytracer/pkg/renderer"
	"github.com/df07/go-postcard-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for surface inspection
type InspectResponse struct {
	Hit         bool       `json:"hit"`
	SurfaceType string     `json:"surfaceType"` // "letter", "wall", "sun" or "none"
	Material    string     `json:"material"`
	Point       [3]float32 `json:"point"`
	Normal      [3]float32 `json:"normal"`
	Distance    float32    `json:"distance"`
}

// pixelCenter jitters every ray to the middle of its pixel
type pixelCenter struct{}

func (pixelCenter) Get1D() float32 { return 0.5 }

var surfaceMaterials = map[core.HitType]string{
	core.HitLetter: "mirror",
	core.HitWall:   "diffuse",
	core.HitSun:    "emitter",
}

// inspectPixel marches the center ray of an image pixel and reports the first surface
func inspectPixel(sceneObj *scene.Scene, width, height, col, row int) InspectResponse {
	camera := renderer.NewCamera(sceneObj.CameraConfig, width, height)
	ray := camera.GetPixelRay(col, row, pixelCenter{})

	hit := raymarch.NewMarcher(sceneObj.Field).March(ray)
	if hit.Type == core.HitNone {
		return InspectResponse{Hit: false, SurfaceType: hit.Type.String()}
	}

	return InspectResponse{
		Hit:         true,
		SurfaceType: hit.Type.String(),
		Material:    surfaceMaterials[hit.Type],
		Point:       [3]float32{hit.Position.X, hit.Position.Y, hit.Position.Z},
		Normal:      [3]float32{hit.Normal.X, hit.Normal.Y, hit.Normal.Z},
		Distance:    hit.Position.Subtract(ray.Origin).Length(),
	}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	defaults := scene.DefaultSamplingConfig()

	width, err := parseIntParam(query, "width", defaults.Width, minDimension, maxDimension)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	height, err := parseIntParam(query, "height", defaults.Height, minDimension, maxDimension)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	pixelX, err := strconv.Atoi(query.Get("x"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
		return
	}
	pixelY, err := strconv.Atoi(query.Get("y"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
		return
	}

	if pixelX < 0 || pixelX >= width || pixelY < 0 || pixelY >= height {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
		return
	}

	writeJSON(w, http.StatusOK, inspectPixel(scene.NewPostcardScene(), width, height, pixelX, pixelY))
}
