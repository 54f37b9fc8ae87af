package output

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

// Format is an image container
type Format string

const (
	FormatPPM Format = "ppm"
	FormatPNG Format = "png"
)

// FormatFromPath picks the format from the file extension, defaulting to PPM
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return FormatPNG
	}
	return FormatPPM
}

// ContentType returns the MIME type of an uncompressed image in this format
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/x-portable-pixmap"
}

// WritePNG writes img as PNG
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Encode writes img in the given format
func Encode(w io.Writer, img *image.RGBA, format Format) error {
	switch format {
	case FormatPNG:
		return WritePNG(w, img)
	case FormatPPM:
		return WritePPM(w, img)
	default:
		return fmt.Errorf("unknown image format %q", format)
	}
}

// Bytes encodes img in memory, optionally compressed
func Bytes(img *image.RGBA, format Format, codec Codec) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeCompressed(&buf, img, format, codec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes img to path, choosing the format by extension and appending
// the codec extension. Parent directories are created. It returns the path written.
func WriteFile(path string, img *image.RGBA, codec Codec) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}

	finalPath := path + codec.Extension()
	file, err := os.Create(finalPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", finalPath, err)
	}

	if err := encodeCompressed(file, img, FormatFromPath(path), codec); err != nil {
		file.Close()
		return "", fmt.Errorf("write %s: %w", finalPath, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", finalPath, err)
	}
	return finalPath, nil
}

func encodeCompressed(w io.Writer, img *image.RGBA, format Format, codec Codec) error {
	cw, err := NewWriter(w, codec)
	if err != nil {
		return err
	}
	if err := Encode(cw, img, format); err != nil {
		cw.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("close %s stream: %w", codec, err)
	}
	return nil
}

// Thumbnail scales img to the given width, keeping its aspect ratio
func Thumbnail(img image.Image, width int) image.Image {
	if width <= 0 || width >= img.Bounds().Dx() {
		return img
	}
	return resize.Resize(uint(width), 0, img, resize.Bilinear)
}
