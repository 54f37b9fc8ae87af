package renderer

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/df07/go-postcard-raytracer/pkg/core"
	"github.com/df07/go-postcard-raytracer/pkg/scene"
)

// constSampler returns the same value for every draw
type constSampler struct {
	value float32
	calls int
}

func (s *constSampler) Get1D() float32 {
	s.calls++
	return s.value
}

func newPostcardCamera(width, height int) *Camera {
	return NewCamera(scene.NewPostcardScene().CameraConfig, width, height)
}

func TestCameraGetCameraForward(t *testing.T) {
	camera := newPostcardCamera(960, 540)

	forward := camera.GetCameraForward()
	expected := core.NewVec3(19, -1, -25).Normalize()

	if math32.Abs(forward.X-expected.X) > 1e-6 ||
		math32.Abs(forward.Y-expected.Y) > 1e-6 ||
		math32.Abs(forward.Z-expected.Z) > 1e-6 {
		t.Errorf("Expected forward direction %v, got %v", expected, forward)
	}
}

func TestCameraRaysAreUnitLength(t *testing.T) {
	camera := newPostcardCamera(960, 540)
	sampler := core.NewSeededSampler(7)

	pixels := [][2]int{{0, 0}, {959, 0}, {0, 539}, {959, 539}, {480, 270}}
	for _, px := range pixels {
		ray := camera.GetPixelRay(px[0], px[1], sampler)
		if math32.Abs(ray.Direction.Length()-1) > 1e-5 {
			t.Errorf("Pixel %v: direction length %f, expected 1", px, ray.Direction.Length())
		}
		if ray.Direction.Dot(camera.GetCameraForward()) <= 0 {
			t.Errorf("Pixel %v: ray points away from the view direction", px)
		}
		if ray.Origin != core.NewVec3(-22, 5, 25) {
			t.Errorf("Pixel %v: origin %v, expected camera position", px, ray.Origin)
		}
	}
}

func TestCameraJitterOrder(t *testing.T) {
	camera := newPostcardCamera(960, 540)

	sampler := &constSampler{value: 0.25}
	camera.GetRay(10, 20, sampler)
	if sampler.calls != 2 {
		t.Errorf("Expected 2 jitter draws per ray, got %d", sampler.calls)
	}
}

func TestCameraPixelMapping(t *testing.T) {
	width, height := 16, 9
	camera := newPostcardCamera(width, height)

	tests := []struct {
		name     string
		col, row int
		x, y     int
	}{
		{"top left", 0, 0, width - 1, height - 1},
		{"bottom right", width - 1, height - 1, 0, 0},
		{"interior", 3, 2, width - 4, height - 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := camera.GetPixelRay(tt.col, tt.row, &constSampler{value: 0.5})
			b := camera.GetRay(tt.x, tt.y, &constSampler{value: 0.5})
			if a != b {
				t.Errorf("GetPixelRay(%d,%d) = %v, expected GetRay(%d,%d) = %v", tt.col, tt.row, a, tt.x, tt.y, b)
			}
		})
	}
}

func TestCameraCenterRayFollowsGoal(t *testing.T) {
	width, height := 960, 540
	camera := newPostcardCamera(width, height)

	// Zero jitter at the image center leaves only the forward component
	ray := camera.GetRay(width/2, height/2, &constSampler{value: 0})
	forward := camera.GetCameraForward()
	if ray.Direction.Subtract(forward).Length() > 1e-5 {
		t.Errorf("Center ray %v, expected %v", ray.Direction, forward)
	}
}
