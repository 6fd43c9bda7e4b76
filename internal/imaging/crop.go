package imaging

import (
	"encoding/base64"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/ocr-layout-mcp/internal/geometry"
)

// CropResult contains a cropped image as base64 PNG.
type CropResult struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// PixelRect snaps a float rectangle outward onto the pixel grid, grows it by
// pad on every side and clamps it to bounds.
func PixelRect(r geometry.Rect, pad int, bounds image.Rectangle) image.Rectangle {
	px := image.Rect(
		int(math.Floor(r.X))-pad,
		int(math.Floor(r.Y))-pad,
		int(math.Ceil(r.Right()))+pad,
		int(math.Ceil(r.Bottom()))+pad,
	)
	return px.Intersect(bounds)
}

// CropBox extracts a region box from img with pad pixels of context and an
// optional scale factor. The result reports the clamped rectangle actually
// cropped.
func CropBox(img image.Image, box geometry.Rect, pad int, scale float64) (*CropResult, error) {
	if pad < 0 {
		return nil, fmt.Errorf("padding must be non-negative, got %d", pad)
	}
	r := PixelRect(box, pad, img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("box (%.1f,%.1f %.1fx%.1f) outside image bounds %v",
			box.X, box.Y, box.Width, box.Height, img.Bounds())
	}

	cropped := imaging.Crop(img, r)
	if scale != 1.0 && scale > 0 {
		w := int(float64(cropped.Bounds().Dx()) * scale)
		h := int(float64(cropped.Bounds().Dy()) * scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %g collapses the crop", scale)
		}
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}

	data, err := EncodePNG(cropped)
	if err != nil {
		return nil, err
	}

	return &CropResult{
		X:           r.Min.X,
		Y:           r.Min.Y,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}
