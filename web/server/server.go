package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-postcard-raytracer/pkg/renderer"
	"github.com/df07/go-postcard-raytracer/pkg/scene"
)

// Request limits shared by the render and inspect endpoints
const (
	minDimension = 1
	maxDimension = 2000
	maxSamples   = 10000
	maxPasses    = 100
)

// Server handles web requests for the postcard raytracer
type Server struct {
	port      int
	staticDir string // Served at "/" when set
}

// NewServer creates a new web server
func NewServer(port int, staticDir string) *Server {
	return &Server{port: port, staticDir: staticDir}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Width       int   `json:"width"`       // Image width
	Height      int   `json:"height"`      // Image height
	MaxSamples  int   `json:"maxSamples"`  // Maximum samples per pixel
	MaxPasses   int   `json:"maxPasses"`   // Maximum number of passes
	Seed        int64 `json:"seed"`        // Master random seed
	TileUpdates bool  `json:"tileUpdates"` // Stream individual tiles as they finish
}

// Handler returns the routes served by the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}

	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/inspect", s.handleInspect)

	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSceneConfig returns the default configuration and request limits
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneObj := scene.NewPostcardScene()
	sampling := sceneObj.SamplingConfig
	progressive := renderer.DefaultProgressiveConfig()

	response := map[string]interface{}{
		"scene": sceneObj.Name,
		"defaults": map[string]interface{}{
			"width":           sampling.Width,
			"height":          sampling.Height,
			"samplesPerPixel": sampling.SamplesPerPixel,
			"maxPasses":       progressive.MaxPasses,
			"seed":            progressive.Seed,
		},
		"limits": map[string]interface{}{
			"width":      map[string]int{"min": minDimension, "max": maxDimension},
			"height":     map[string]int{"min": minDimension, "max": maxDimension},
			"maxSamples": map[string]int{"min": 1, "max": maxSamples},
			"maxPasses":  map[string]int{"min": 1, "max": maxPasses},
		},
	}

	writeJSON(w, http.StatusOK, response)
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	defaults := scene.DefaultSamplingConfig()
	progressive := renderer.DefaultProgressiveConfig()

	req := &RenderRequest{TileUpdates: query.Get("tiles") == "true"}

	var err error
	if req.Width, err = parseIntParam(query, "width", defaults.Width/2, minDimension, maxDimension); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", defaults.Height/2, minDimension, maxDimension); err != nil {
		return nil, err
	}
	if req.MaxSamples, err = parseIntParam(query, "maxSamples", defaults.SamplesPerPixel, 1, maxSamples); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(query, "maxPasses", progressive.MaxPasses, 1, maxPasses); err != nil {
		return nil, err
	}
	if req.Seed, err = parseInt64Param(query, "seed", progressive.Seed); err != nil {
		return nil, err
	}

	// More passes than samples cannot add anything
	req.MaxPasses = min(req.MaxPasses, req.MaxSamples)

	// Performance warning
	if req.Width*req.Height > 800*600 && req.MaxSamples > 100 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func parseInt64Param(values url.Values, key string, defaultValue int64) (int64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
