package imaging

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
)

// ResizeToDPI rescales a raster captured at fromDPI so that it looks as if it
// had been captured at toDPI. This is the raster a page would have after being
// wrapped into a PDF at fromDPI and rendered back at toDPI.
func ResizeToDPI(img image.Image, fromDPI, toDPI int) (image.Image, error) {
	if fromDPI <= 0 || toDPI <= 0 {
		return nil, fmt.Errorf("dpi must be positive, got %d -> %d", fromDPI, toDPI)
	}
	if fromDPI == toDPI {
		return img, nil
	}

	b := img.Bounds()
	scale := float64(toDPI) / float64(fromDPI)
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("image %dx%d collapses to %dx%d at %d dpi", b.Dx(), b.Dy(), w, h, toDPI)
	}

	return transform.Resize(img, w, h, transform.Linear), nil
}

// SavePNG writes img to path as PNG.
func SavePNG(path string, img image.Image) error {
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// EncodePNG returns img encoded as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
