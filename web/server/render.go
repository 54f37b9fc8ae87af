package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-postcard-raytracer/pkg/output"
	"github.com/df07/go-postcard-raytracer/pkg/renderer"
	"github.com/df07/go-postcard-raytracer/pkg/scene"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamEvent is one websocket message. Type is "console", "tile", "pass", "error" or "complete".
type StreamEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ProgressUpdate describes a finished pass
type ProgressUpdate struct {
	PassNumber  int    `json:"passNumber"`
	TotalPasses int    `json:"totalPasses"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG
	Stats       Stats  `json:"stats"`
	IsComplete  bool   `json:"isComplete"`
	ElapsedMs   int64  `json:"elapsedMs"`
}

// Stats represents render statistics
type Stats struct {
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int64   `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	MaxSamples     int     `json:"maxSamples"`
	MinSamples     int     `json:"minSamples"`
	MaxSamplesUsed int     `json:"maxSamplesUsed"`
}

// TileUpdate represents a single finished tile
type TileUpdate struct {
	TileX       int    `json:"tileX"`
	TileY       int    `json:"tileY"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG of just this tile
	PassNumber  int    `json:"passNumber"`
	TileNumber  int    `json:"tileNumber"`  // Current tile number in this pass (1-based)
	TotalTiles  int    `json:"totalTiles"`  // Total number of tiles in the image
	TotalPasses int    `json:"totalPasses"` // Total number of passes planned
}

// handleRender upgrades to a websocket and streams a progressive render
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	// Reject bad parameters before upgrading so the client sees a plain 400
	req, err := s.parseRenderRequest(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// A read error means the client went away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	events := make(chan StreamEvent, 100)
	writerDone := make(chan struct{})
	go s.writeEvents(conn, cancel, events, writerDone)

	consoleChan := make(chan ConsoleMessage, 50)
	logger := NewWebLogger(fmt.Sprintf("render-%d", time.Now().UnixNano()), consoleChan)

	var forwarders sync.WaitGroup
	forwarders.Add(1)
	go func() {
		defer forwarders.Done()
		for msg := range consoleChan {
			events <- StreamEvent{Type: "console", Data: msg}
		}
	}()

	sceneObj := scene.NewPostcardScene().WithSampling(scene.SamplingConfig{
		Width:           req.Width,
		Height:          req.Height,
		SamplesPerPixel: req.MaxSamples,
	})
	config := renderer.DefaultProgressiveConfig()
	config.MaxSamplesPerPixel = req.MaxSamples
	config.MaxPasses = req.MaxPasses
	config.Seed = req.Seed

	raytracer := renderer.NewProgressiveRaytracer(sceneObj, config, logger)
	startTime := time.Now()
	passChan, tileChan, errChan := raytracer.RenderProgressive(ctx, renderer.RenderOptions{TileUpdates: req.TileUpdates})

	completed := s.streamRenderEvents(events, passChan, tileChan, req, startTime)

	if err := <-errChan; err != nil {
		if errors.Is(err, context.Canceled) {
			log.Printf("Render cancelled by client")
		} else {
			logger.Errorf("Rendering failed: %v\n", err)
			events <- StreamEvent{Type: "error", Data: err.Error()}
		}
	} else if completed {
		logger.Printf("Rendering completed in %v\n", time.Since(startTime))
	}

	// The render goroutine has exited, so nothing logs after this point
	close(consoleChan)
	forwarders.Wait()

	if completed {
		events <- StreamEvent{Type: "complete", Data: "Rendering completed"}
	}
	close(events)
	<-writerDone

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "render finished"))
}

// streamRenderEvents drains the render channels and reports whether the last pass arrived
func (s *Server) streamRenderEvents(events chan<- StreamEvent, passChan <-chan renderer.PassResult,
	tileChan <-chan renderer.TileCompletionResult, req *RenderRequest, startTime time.Time) bool {

	completed := false
	for passChan != nil || tileChan != nil {
		select {
		case passResult, ok := <-passChan:
			if !ok {
				passChan = nil // Channel closed
				continue
			}
			update, err := newProgressUpdate(passResult, req, startTime)
			if err != nil {
				log.Printf("Error encoding pass %d: %v", passResult.PassNumber, err)
				continue
			}
			completed = completed || update.IsComplete
			events <- StreamEvent{Type: "pass", Data: update}

		case tileResult, ok := <-tileChan:
			if !ok {
				tileChan = nil // Channel closed
				continue
			}
			update, err := newTileUpdate(tileResult)
			if err != nil {
				log.Printf("Error encoding tile image (%d, %d): %v", tileResult.TileX, tileResult.TileY, err)
				continue
			}
			events <- StreamEvent{Type: "tile", Data: update}
		}
	}
	return completed
}

// writeEvents is the only goroutine writing data frames. After a write error it
// cancels the render and keeps draining so senders never block.
func (s *Server) writeEvents(conn *websocket.Conn, cancel context.CancelFunc, events <-chan StreamEvent, done chan<- struct{}) {
	defer close(done)

	failed := false
	for event := range events {
		if failed {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("Websocket write failed: %v", err)
			failed = true
			cancel()
		}
	}
}

func newProgressUpdate(result renderer.PassResult, req *RenderRequest, startTime time.Time) (ProgressUpdate, error) {
	imageData, err := imageToBase64PNG(result.Image)
	if err != nil {
		return ProgressUpdate{}, err
	}

	return ProgressUpdate{
		PassNumber:  result.PassNumber,
		TotalPasses: req.MaxPasses,
		ImageData:   imageData,
		Stats: Stats{
			TotalPixels:    result.Stats.TotalPixels,
			TotalSamples:   int64(result.Stats.TotalSamples),
			AverageSamples: result.Stats.AverageSamples,
			MaxSamples:     result.Stats.MaxSamples,
			MinSamples:     result.Stats.MinSamples,
			MaxSamplesUsed: result.Stats.MaxSamplesUsed,
		},
		IsComplete: result.IsLast,
		ElapsedMs:  time.Since(startTime).Milliseconds(),
	}, nil
}

func newTileUpdate(result renderer.TileCompletionResult) (TileUpdate, error) {
	tileData, err := imageToBase64PNG(result.TileImage)
	if err != nil {
		return TileUpdate{}, err
	}

	return TileUpdate{
		TileX:       result.TileX,
		TileY:       result.TileY,
		ImageData:   tileData,
		PassNumber:  result.PassNumber,
		TileNumber:  result.TileNumber,
		TotalTiles:  result.TotalTiles,
		TotalPasses: result.TotalPasses,
	}, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := output.WritePNG(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
