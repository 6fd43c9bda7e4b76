package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/ocr-layout-mcp/internal/geometry"
	"github.com/ironsheep/ocr-layout-mcp/internal/layout"
)

// Tesseract recognizes words with the Tesseract engine.
//
// A Tesseract value is safe for concurrent use: every call opens its own
// gosseract client, since a client is not.
type Tesseract struct {
	// Languages are Tesseract language codes, e.g. ["eng", "deu"].
	Languages []string

	// TessdataPrefix overrides the tessdata directory when non-empty.
	TessdataPrefix string

	// PageSegMode is passed to Tesseract when non-zero.
	PageSegMode gosseract.PageSegMode
}

// NewTesseract creates a recognizer for a "+"-separated language list such
// as "eng+deu". An empty list means English.
func NewTesseract(languages string) *Tesseract {
	var langs []string
	for _, l := range strings.Split(languages, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &Tesseract{Languages: langs}
}

// Name identifies the engine family. It matches layout.ProfileTesseract.
func (t *Tesseract) Name() string {
	return layout.ProfileTesseract.Name
}

// Recognize runs word-level recognition on img and returns one detection per
// non-empty word. Confidence is Tesseract's 0-100 score, unscaled, so it is
// classified with layout.ProfileTesseract. Word boxes are reported relative
// to img.Bounds().Min.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]layout.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for tesseract: %w", err)
	}

	client, err := t.newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	return t.words(client, image.Point{})
}

// RecognizeRegion runs recognition on a rectangle of img. The rectangle is
// clamped to the image, and the returned quads are in img coordinates.
func (t *Tesseract) RecognizeRegion(ctx context.Context, img image.Image, r image.Rectangle) ([]layout.Detection, error) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("region %v does not intersect image bounds %v", r, img.Bounds())
	}

	dets, err := t.Recognize(ctx, imaging.Crop(img, r))
	if err != nil {
		return nil, err
	}

	dx, dy := float64(r.Min.X), float64(r.Min.Y)
	for i := range dets {
		for j := range dets[i].Quad {
			dets[i].Quad[j].X += dx
			dets[i].Quad[j].Y += dy
		}
	}
	return dets, nil
}

func (t *Tesseract) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(t.Languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if t.PageSegMode != 0 {
		if err := client.SetPageSegMode(t.PageSegMode); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	return client, nil
}

func (t *Tesseract) words(client *gosseract.Client, offset image.Point) ([]layout.Detection, error) {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	return wordDetections(boxes, offset), nil
}

// wordDetections converts Tesseract word boxes to detections, skipping words
// that are blank after trimming.
func wordDetections(boxes []gosseract.BoundingBox, offset image.Point) []layout.Detection {
	dets := make([]layout.Detection, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		b := box.Box.Add(offset)
		rect := geometry.Rect{
			X:      float64(b.Min.X),
			Y:      float64(b.Min.Y),
			Width:  float64(b.Dx()),
			Height: float64(b.Dy()),
		}
		dets = append(dets, layout.Detection{
			Quad:       layout.QuadFromRect(rect),
			Text:       word,
			Confidence: float64(box.Confidence),
		})
	}
	return dets
}

// Version returns the linked Tesseract version.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

// Info describes OCR availability.
type Info struct {
	Available bool     `json:"available"`
	Version   string   `json:"version,omitempty"`
	Languages []string `json:"languages"`
	Backend   string   `json:"backend"`
}

// Info reports the engine version and configured languages.
func (t *Tesseract) Info() Info {
	v := Version()
	return Info{
		Available: v != "",
		Version:   v,
		Languages: t.Languages,
		Backend:   "gosseract",
	}
}
