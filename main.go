package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/df07/go-postcard-raytracer/pkg/config"
	"github.com/df07/go-postcard-raytracer/pkg/core"
	"github.com/df07/go-postcard-raytracer/pkg/output"
	"github.com/df07/go-postcard-raytracer/pkg/publish"
	"github.com/df07/go-postcard-raytracer/pkg/renderer"
	"github.com/df07/go-postcard-raytracer/pkg/scene"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], renderer.NewDefaultLogger()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run is the whole CLI: resolve settings, render, write and optionally publish
func run(ctx context.Context, args []string, logger core.Logger) error {
	cfg, help, err := loadConfig(args)
	if err != nil {
		return err
	}
	if help {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	codec, err := output.ParseCodec(cfg.Compression)
	if err != nil {
		return err
	}

	logger.Printf("Width = %d, Height = %d, Samples = %d\n", cfg.Width, cfg.Height, cfg.Samples)

	startTime := time.Now()
	img, stats, err := render(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Printf("Render completed in %v\n", time.Since(startTime))
	logger.Printf("Samples per pixel: %.1f (range %d - %d), average luminance %.3f\n",
		stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed, renderer.CalculateAverageLuminance(img))

	written, err := output.WriteFile(cfg.Output, img, codec)
	if err != nil {
		return err
	}
	logger.Printf("Render saved as %s\n", written)

	if cfg.PreviewPath != "" {
		if err := writePreview(cfg.PreviewPath, img, cfg.PreviewWidth); err != nil {
			return err
		}
		logger.Printf("Preview saved as %s\n", cfg.PreviewPath)
	}

	if cfg.PublishEnabled() {
		if err := publishRender(ctx, cfg, img, codec, logger); err != nil {
			return err
		}
	}

	return nil
}

// loadConfig reads the env file named by -env, then lets explicitly set flags override it
func loadConfig(args []string) (config.Config, bool, error) {
	defaults := config.Default()

	fs := flag.NewFlagSet("postcard", flag.ContinueOnError)
	width := fs.Int("width", defaults.Width, "Image width")
	height := fs.Int("height", defaults.Height, "Image height")
	samples := fs.Int("samples", defaults.Samples, "Samples per pixel")
	seed := fs.Int64("seed", defaults.Seed, "Master random seed")
	mode := fs.String("mode", defaults.Mode, "Render mode: 'sequential' (canonical order, one stream) or 'progressive' (parallel tiles)")
	workers := fs.Int("workers", defaults.Workers, "Number of parallel workers in progressive mode (0 = auto-detect CPU count)")
	out := fs.String("out", defaults.Output, "Output file (.ppm or .png)")
	compress := fs.String("compress", defaults.Compression, "Output compression: 'none', 'zstd' or 'snappy'")
	preview := fs.String("preview", "", "Optional PNG thumbnail path")
	envFile := fs.String("env", ".env", "Environment file with POSTCARD_* settings")
	help := fs.Bool("help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, false, err
	}

	if *help {
		fmt.Println("Postcard Raytracer")
		fmt.Println("Usage: postcard [options]")
		fmt.Println()
		fmt.Println("Options:")
		fs.SetOutput(os.Stdout)
		fs.PrintDefaults()
		fmt.Println()
		fmt.Println("Settings are read from flags, then POSTCARD_* environment variables, then the -env file.")
		return config.Config{}, true, nil
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return config.Config{}, false, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "samples":
			cfg.Samples = *samples
		case "seed":
			cfg.Seed = *seed
		case "mode":
			cfg.Mode = *mode
		case "workers":
			cfg.Workers = *workers
		case "out":
			cfg.Output = *out
		case "compress":
			cfg.Compression = *compress
		case "preview":
			cfg.PreviewPath = *preview
		}
	})

	return cfg, false, nil
}

// render produces the tone-mapped image in the configured mode
func render(ctx context.Context, cfg config.Config, logger core.Logger) (*image.RGBA, renderer.RenderStats, error) {
	s := scene.NewPostcardScene().WithSampling(scene.SamplingConfig{
		Width:           cfg.Width,
		Height:          cfg.Height,
		SamplesPerPixel: cfg.Samples,
	})

	switch cfg.Mode {
	case config.ModeProgressive:
		return renderer.NewProgressiveRaytracer(s, progressiveConfig(cfg), logger).Render(ctx)

	default:
		img, stats := renderer.NewRaytracer(s, core.NewSeededSampler(cfg.Seed)).RenderPass()
		return img, stats, nil
	}
}

// progressiveConfig maps settings onto the tile renderer. Passes are capped at the
// sample count so every pass adds at least one sample.
func progressiveConfig(cfg config.Config) renderer.ProgressiveConfig {
	return renderer.ProgressiveConfig{
		TileSize:           cfg.TileSize,
		InitialSamples:     1,
		MaxSamplesPerPixel: cfg.Samples,
		MaxPasses:          min(cfg.Passes, cfg.Samples),
		NumWorkers:         cfg.Workers,
		Seed:               cfg.Seed,
	}
}

// writePreview saves a PNG thumbnail next to the full render
func writePreview(path string, img *image.RGBA, width int) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create preview directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	defer file.Close()

	return output.WritePNG(file, output.Thumbnail(img, width))
}

// publishRender uploads the render to the configured bucket
func publishRender(ctx context.Context, cfg config.Config, img *image.RGBA, codec output.Codec, logger core.Logger) error {
	publisher, err := publish.NewS3Publisher(publish.S3Options{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Prefix:    cfg.S3Prefix,
	})
	if err != nil {
		return err
	}

	format := output.FormatFromPath(cfg.Output)
	body, err := output.Bytes(img, format, codec)
	if err != nil {
		return err
	}

	contentType := format.ContentType()
	if codec != output.CodecNone {
		contentType = codec.ContentType()
	}

	key, err := publisher.Publish(ctx, filepath.Base(cfg.Output)+codec.Extension(), body, contentType)
	if err != nil {
		return err
	}
	logger.Printf("Uploaded %s to s3://%s (%d bytes)\n", key, cfg.S3Bucket, len(body))
	return nil
}
