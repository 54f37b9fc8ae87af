package output

import (
	"bufio"
	"fmt"
	"image"
	"io"
)

// WritePPM writes img as a binary pixel map: the ASCII header "P6 <w> <h> 255 "
// followed by one R,G,B byte triple per pixel in row-major order.
func WritePPM(w io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "P6 %d %d 255 ", bounds.Dx(), bounds.Dy()); err != nil {
		return fmt.Errorf("write ppm header: %w", err)
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if _, err := bw.Write([]byte{c.R, c.G, c.B}); err != nil {
				return fmt.Errorf("write ppm pixel (%d,%d): %w", x, y, err)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush ppm: %w", err)
	}
	return nil
}
