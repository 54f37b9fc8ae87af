// Package config loads render settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Render modes
const (
	ModeSequential  = "sequential"
	ModeProgressive = "progressive"
)

// Config holds every setting the CLI and the preview server read
type Config struct {
	Width    int
	Height   int
	Samples  int
	Seed     int64
	Mode     string
	Workers  int // 0 = use CPU count
	TileSize int
	Passes   int

	Output       string
	Compression  string
	PreviewPath  string
	PreviewWidth int

	Port int

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string
}

// Default returns the canonical postcard settings
func Default() Config {
	return Config{
		Width:        960,
		Height:       540,
		Samples:      8,
		Seed:         42,
		Mode:         ModeSequential,
		TileSize:     64,
		Passes:       4,
		Output:       "pixar.ppm",
		Compression:  "none",
		PreviewWidth: 320,
		Port:         8080,
		S3Region:     "us-east-1",
	}
}

// Load reads POSTCARD_* variables from the process environment, then from envFile,
// then falls back to Default. A missing envFile is not an error.
func Load(envFile string) (Config, error) {
	fileValues := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileValues = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileValues[key]
		return v, ok
	}

	cfg := Default()
	l := loader{lookup: lookup}

	l.readInt("POSTCARD_WIDTH", &cfg.Width)
	l.readInt("POSTCARD_HEIGHT", &cfg.Height)
	l.readInt("POSTCARD_SAMPLES", &cfg.Samples)
	l.readInt64("POSTCARD_SEED", &cfg.Seed)
	l.readString("POSTCARD_MODE", &cfg.Mode)
	l.readInt("POSTCARD_WORKERS", &cfg.Workers)
	l.readInt("POSTCARD_TILE_SIZE", &cfg.TileSize)
	l.readInt("POSTCARD_PASSES", &cfg.Passes)
	l.readString("POSTCARD_OUTPUT", &cfg.Output)
	l.readString("POSTCARD_COMPRESSION", &cfg.Compression)
	l.readString("POSTCARD_PREVIEW", &cfg.PreviewPath)
	l.readInt("POSTCARD_PREVIEW_WIDTH", &cfg.PreviewWidth)
	l.readInt("POSTCARD_PORT", &cfg.Port)
	l.readString("POSTCARD_S3_BUCKET", &cfg.S3Bucket)
	l.readString("POSTCARD_S3_REGION", &cfg.S3Region)
	l.readString("POSTCARD_S3_ENDPOINT", &cfg.S3Endpoint)
	l.readString("POSTCARD_S3_ACCESS_KEY", &cfg.S3AccessKey)
	l.readString("POSTCARD_S3_SECRET_KEY", &cfg.S3SecretKey)
	l.readString("POSTCARD_S3_PREFIX", &cfg.S3Prefix)

	if l.err != nil {
		return Config{}, l.err
	}
	return cfg, nil
}

// loader keeps the first parse error so Load can assign fields in one block
type loader struct {
	lookup func(string) (string, bool)
	err    error
}

func (l *loader) readString(key string, dst *string) {
	if v, ok := l.lookup(key); ok && v != "" {
		*dst = v
	}
}

func (l *loader) readInt(key string, dst *int) {
	v, ok := l.lookup(key)
	if !ok || v == "" || l.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = n
}

func (l *loader) readInt64(key string, dst *int64) {
	v, ok := l.lookup(key)
	if !ok || v == "" || l.err != nil {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		l.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = n
}

// Validate reports the first setting that cannot be rendered
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("image size must be positive, got %dx%d", c.Width, c.Height)
	case c.Samples <= 0:
		return fmt.Errorf("samples per pixel must be positive, got %d", c.Samples)
	case c.Workers < 0:
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	case c.TileSize <= 0:
		return fmt.Errorf("tile size must be positive, got %d", c.TileSize)
	case c.Passes <= 0:
		return fmt.Errorf("passes must be positive, got %d", c.Passes)
	case c.PreviewWidth < 0:
		return fmt.Errorf("preview width must not be negative, got %d", c.PreviewWidth)
	}

	if c.Mode != ModeSequential && c.Mode != ModeProgressive {
		return fmt.Errorf("unknown mode %q (expected %s or %s)", c.Mode, ModeSequential, ModeProgressive)
	}
	switch c.Compression {
	case "", "none", "zstd", "snappy":
	default:
		return fmt.Errorf("unknown compression %q (expected none, zstd or snappy)", c.Compression)
	}
	return nil
}

// PublishEnabled reports whether renders should be uploaded
func (c Config) PublishEnabled() bool {
	return c.S3Bucket != ""
}
