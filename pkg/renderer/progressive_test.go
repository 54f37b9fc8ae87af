package renderer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/df07/go-postcard-raytracer/pkg/core"
)

// silentLogger discards render output
type silentLogger struct{}

func (silentLogger) Printf(format string, args ...interface{}) {}

var _ core.Logger = silentLogger{}

func TestProgressiveSampleCalculation(t *testing.T) {
	tests := []struct {
		name     string
		samples  int
		passes   int
		expected []int
	}{
		// 7 remaining samples over 3 passes: 2 per pass, final pass takes the rest
		{"postcard default", 8, 4, []int{1, 3, 5, 8}},
		{"one sample per pass", 3, 3, []int{1, 2, 3}},
		{"two passes", 8, 2, []int{1, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultProgressiveConfig()
			config.MaxSamplesPerPixel = tt.samples
			config.MaxPasses = tt.passes
			pr := &ProgressiveRaytracer{config: config}

			for pass := 1; pass <= tt.passes; pass++ {
				if got := pr.getSamplesForPass(pass); got != tt.expected[pass-1] {
					t.Errorf("Pass %d: expected %d total samples, got %d", pass, tt.expected[pass-1], got)
				}
			}
		})
	}
}

func TestProgressiveDefaultSchedule(t *testing.T) {
	pr := &ProgressiveRaytracer{config: DefaultProgressiveConfig()}

	expected := []int{1, 3, 5, 8}
	for pass, want := range expected {
		if got := pr.getSamplesForPass(pass + 1); got != want {
			t.Errorf("Pass %d: expected %d samples, got %d", pass+1, want, got)
		}
	}
}

func TestProgressiveSinglePassUsesAllSamples(t *testing.T) {
	pr := &ProgressiveRaytracer{config: ProgressiveConfig{InitialSamples: 1, MaxSamplesPerPixel: 8, MaxPasses: 1}}
	if got := pr.getSamplesForPass(1); got != 8 {
		t.Errorf("Expected 8 samples for a single pass, got %d", got)
	}
}

func TestProgressiveConfig(t *testing.T) {
	config := DefaultProgressiveConfig()

	if config.TileSize != 64 {
		t.Errorf("Expected default tile size 64, got %d", config.TileSize)
	}
	if config.InitialSamples != 1 {
		t.Errorf("Expected default initial samples 1, got %d", config.InitialSamples)
	}
	if config.MaxSamplesPerPixel != 8 {
		t.Errorf("Expected default max samples 8, got %d", config.MaxSamplesPerPixel)
	}
	if config.MaxPasses != 4 {
		t.Errorf("Expected default max passes 4, got %d", config.MaxPasses)
	}
}

func TestNewTileGridCoversImage(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		tileSize      int
		expectedTiles int
	}{
		{"exact fit", 128, 64, 64, 2},
		{"ragged edges", 100, 70, 32, 12},
		{"single tile", 10, 10, 64, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := NewTileGrid(tt.width, tt.height, tt.tileSize, 1)
			if len(tiles) != tt.expectedTiles {
				t.Fatalf("Expected %d tiles, got %d", tt.expectedTiles, len(tiles))
			}

			covered := make([]int, tt.width*tt.height)
			for i, tile := range tiles {
				if tile.ID != i {
					t.Errorf("Tile %d has ID %d", i, tile.ID)
				}
				for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
					for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
						covered[y*tt.width+x]++
					}
				}
			}
			for i, n := range covered {
				if n != 1 {
					t.Fatalf("Pixel %d covered %d times", i, n)
				}
			}
		})
	}
}

func TestTileSamplersAreIndependentStreams(t *testing.T) {
	a := NewTileGrid(64, 64, 32, 9)
	b := NewTileGrid(64, 64, 32, 9)

	if a[0].Sampler.Get1D() != b[0].Sampler.Get1D() {
		t.Error("Expected identical streams for identical seed and tile")
	}
	if a[1].Sampler.Get1D() == a[2].Sampler.Get1D() {
		t.Error("Expected different tiles to draw different values")
	}
}

func renderProgressive(t *testing.T, workers int) *image.RGBA {
	t.Helper()

	config := ProgressiveConfig{
		TileSize:           4,
		InitialSamples:     1,
		MaxSamplesPerPixel: 2,
		MaxPasses:          2,
		NumWorkers:         workers,
		Seed:               5,
	}
	pr := NewProgressiveRaytracer(smallPostcardScene(12, 8, 2), config, silentLogger{})

	img, stats, err := pr.Render(context.Background())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if stats.AverageSamples != 2 || stats.MinSamples != 2 {
		t.Errorf("Expected 2 samples everywhere, got %+v", stats)
	}
	return img
}

func TestProgressiveIndependentOfWorkerCount(t *testing.T) {
	single := renderProgressive(t, 1)
	many := renderProgressive(t, 4)

	if !bytes.Equal(single.Pix, many.Pix) {
		t.Error("Expected identical output for 1 and 4 workers")
	}
}

func TestRenderProgressivePassesAndTiles(t *testing.T) {
	config := ProgressiveConfig{TileSize: 4, InitialSamples: 1, MaxSamplesPerPixel: 3, MaxPasses: 3, NumWorkers: 2, Seed: 1}
	pr := NewProgressiveRaytracer(smallPostcardScene(8, 4, 3), config, silentLogger{})

	passChan, tileChan, errChan := pr.RenderProgressive(context.Background(), RenderOptions{TileUpdates: true})

	tileCount := make(chan int)
	go func() {
		n := 0
		for range tileChan {
			n++
		}
		tileCount <- n
	}()

	var passes []PassResult
	for result := range passChan {
		passes = append(passes, result)
	}
	if err := <-errChan; err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(passes) != 3 {
		t.Fatalf("Expected 3 passes, got %d", len(passes))
	}
	for i, p := range passes {
		if p.PassNumber != i+1 {
			t.Errorf("Pass %d reported number %d", i+1, p.PassNumber)
		}
		if p.IsLast != (i == 2) {
			t.Errorf("Pass %d IsLast = %v", i+1, p.IsLast)
		}
		if int(p.Stats.AverageSamples) != i+1 {
			t.Errorf("Pass %d averaged %f samples", i+1, p.Stats.AverageSamples)
		}
	}
	if n := <-tileCount; n != 6 {
		t.Errorf("Expected 6 tile updates (2 tiles x 3 passes), got %d", n)
	}
}

func TestRenderProgressiveCancelled(t *testing.T) {
	pr := NewProgressiveRaytracer(smallPostcardScene(4, 4, 1), DefaultProgressiveConfig(), silentLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := pr.Render(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// passWatcher closes reached once the render logs completion of pass target
type passWatcher struct {
	target  int
	reached chan struct{}
	once    sync.Once
}

func (w *passWatcher) Printf(format string, args ...interface{}) {
	if strings.HasPrefix(format, "Pass %d completed") && len(args) > 0 && args[0] == w.target {
		w.once.Do(func() { close(w.reached) })
	}
}

func TestRenderProgressiveCancelledWhilePassUnread(t *testing.T) {
	config := ProgressiveConfig{TileSize: 4, InitialSamples: 1, MaxSamplesPerPixel: 3, MaxPasses: 3, NumWorkers: 1, Seed: 1}
	watcher := &passWatcher{target: 2, reached: make(chan struct{})}
	pr := NewProgressiveRaytracer(smallPostcardScene(4, 4, 3), config, watcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Nobody reads passes: pass 1 fills the buffer and pass 2 blocks on delivery
	passChan, _, errChan := pr.RenderProgressive(ctx, RenderOptions{})

	select {
	case <-watcher.reached:
	case <-time.After(30 * time.Second):
		t.Fatal("Timed out waiting for pass 2")
	}
	cancel()

	if err := <-errChan; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	passes := 0
	for range passChan {
		passes++
	}
	if passes != 1 {
		t.Errorf("Expected only the buffered first pass, got %d", passes)
	}
}

func TestRenderReportsWorkerFailure(t *testing.T) {
	s := smallPostcardScene(8, 4, 1)
	s.Field = core.FieldFunc(func(p core.Vec3) core.FieldSample {
		panic("field evaluation failed")
	})

	config := ProgressiveConfig{TileSize: 4, InitialSamples: 1, MaxSamplesPerPixel: 1, MaxPasses: 1, NumWorkers: 2, Seed: 1}
	img, _, err := NewProgressiveRaytracer(s, config, silentLogger{}).Render(context.Background())

	if err == nil || !strings.Contains(err.Error(), "field evaluation failed") {
		t.Fatalf("Expected the worker failure to surface, got %v", err)
	}
	if img != nil {
		t.Error("Expected no image on failure")
	}
}
