package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(0, "").Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body)
	}
}

func TestHandleSceneConfig(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(0, "").Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scene-config", nil))

	var body struct {
		Scene    string         `json:"scene"`
		Defaults map[string]int `json:"defaults"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if body.Scene != "postcard" {
		t.Errorf("Expected postcard scene, got %q", body.Scene)
	}
	if body.Defaults["width"] != 960 || body.Defaults["height"] != 540 || body.Defaults["samplesPerPixel"] != 8 {
		t.Errorf("Unexpected defaults: %v", body.Defaults)
	}
}

func TestParseRenderRequest(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
		check   func(*RenderRequest) bool
	}{
		{"defaults", "", false, func(r *RenderRequest) bool {
			return r.Width == 480 && r.Height == 270 && r.MaxSamples == 8 && r.MaxPasses == 4 && r.Seed == 42
		}},
		{"explicit", "width=16&height=8&maxSamples=3&maxPasses=2&seed=7&tiles=true", false, func(r *RenderRequest) bool {
			return r.Width == 16 && r.Height == 8 && r.MaxSamples == 3 && r.MaxPasses == 2 && r.Seed == 7 && r.TileUpdates
		}},
		{"passes capped by samples", "maxSamples=2&maxPasses=5", false, func(r *RenderRequest) bool {
			return r.MaxPasses == 2
		}},
		{"zero width", "width=0", true, nil},
		{"huge height", "height=5000", true, nil},
		{"bad seed", "seed=abc", true, nil},
	}

	s := NewServer(0, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := s.parseRenderRequest(httptest.NewRequest(http.MethodGet, "/api/render?"+tt.query, nil))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRenderRequest error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(req) {
				t.Errorf("Unexpected request: %+v", req)
			}
		})
	}
}

func TestHandleInspect(t *testing.T) {
	handler := NewServer(0, "").Handler()

	// Bottom-center pixel looks down at the floor
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/inspect?x=480&y=539", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp InspectResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !resp.Hit || resp.SurfaceType != "wall" || resp.Material != "diffuse" {
		t.Errorf("Expected diffuse wall hit, got %+v", resp)
	}
	if resp.Distance <= 0 {
		t.Errorf("Expected positive distance, got %f", resp.Distance)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/inspect?x=2000&y=0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for out of bounds pixel, got %d", rec.Code)
	}
}

func wsURL(server *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + path
}

func TestRenderRejectsInvalidRequest(t *testing.T) {
	server := httptest.NewServer(NewServer(0, "").Handler())
	defer server.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "/api/render?width=0"), nil)
	if err == nil {
		t.Fatal("Expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 response, got %v", resp)
	}
}

func TestRenderStreamsPasses(t *testing.T) {
	server := httptest.NewServer(NewServer(0, "").Handler())
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, "/api/render?width=8&height=4&maxSamples=2&maxPasses=2&tiles=true"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	var passes []ProgressUpdate
	tiles := 0
	consoleMessages := 0

	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	for {
		var event struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("Stream ended before completion: %v", err)
		}

		switch event.Type {
		case "pass":
			var update ProgressUpdate
			if err := json.Unmarshal(event.Data, &update); err != nil {
				t.Fatalf("Bad pass payload: %v", err)
			}
			passes = append(passes, update)
		case "tile":
			tiles++
		case "console":
			consoleMessages++
		case "error":
			t.Fatalf("Render error: %s", event.Data)
		}

		if event.Type == "complete" {
			break
		}
	}

	if len(passes) != 2 {
		t.Fatalf("Expected 2 passes, got %d", len(passes))
	}
	last := passes[len(passes)-1]
	if !last.IsComplete || passes[0].IsComplete {
		t.Errorf("Expected only the last pass to be complete: %+v", passes)
	}
	if last.Stats.TotalPixels != 32 || last.Stats.AverageSamples != 2 {
		t.Errorf("Unexpected final stats: %+v", last.Stats)
	}
	if tiles != 2 {
		t.Errorf("Expected 2 tile updates (1 tile x 2 passes), got %d", tiles)
	}
	if consoleMessages == 0 {
		t.Error("Expected console messages from the render")
	}

	data, err := base64.StdEncoding.DecodeString(last.ImageData)
	if err != nil {
		t.Fatalf("Bad base64 image: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Bad PNG: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Errorf("Expected 8x4 image, got %v", img.Bounds())
	}
}
