package layout

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ironsheep/ocr-layout-mcp/internal/geometry"
)

// Detection is one text fragment reported by a recognition engine.
//
// Quad holds the corners in reading order: top-left, top-right, bottom-right,
// bottom-left.
type Detection struct {
	Quad       [4]geometry.Point `json:"quad"`
	Text       string            `json:"text"`
	Confidence float64           `json:"confidence"`
}

// BarcodeDetection is one decoded barcode or 2D code.
type BarcodeDetection struct {
	Rect      geometry.Rect `json:"rect"`
	Payload   string        `json:"payload"`
	Symbology string        `json:"symbology"`
}

// QuadFromRect builds a detection quad from an axis-aligned rectangle.
func QuadFromRect(r geometry.Rect) [4]geometry.Point {
	c := r.Corners()
	return [4]geometry.Point{c.TopLeft, c.TopRight, c.BottomRight, c.BottomLeft}
}

// rawDetection accepts both input forms and records which fields were present.
type rawDetection struct {
	Quad       []geometry.Point `json:"quad"`
	Text       *string          `json:"text"`
	Confidence *float64         `json:"confidence"`

	Rect      []float64 `json:"rect"`
	Payload   *string   `json:"payload"`
	Symbology *string   `json:"symbology"`
}

// ParseDetections decodes a JSON array of detections in either the text form
//
//	{"quad": [[x,y],[x,y],[x,y],[x,y]], "text": "...", "confidence": 93.5}
//
// or the barcode form
//
//	{"rect": [x, y, w, h], "payload": "...", "symbology": "QR_CODE"}
//
// Any detection missing a required field fails the whole sequence with an
// *InvalidDetectionError. Dropping a token would silently change which
// neighbours end up adjacent during line grouping.
func ParseDetections(data []byte) ([]Detection, []BarcodeDetection, error) {
	var raws []rawDetection
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, nil, fmt.Errorf("failed to decode detections: %w", err)
	}

	detections := make([]Detection, 0, len(raws))
	barcodes := make([]BarcodeDetection, 0)

	for i, raw := range raws {
		switch {
		case raw.Quad != nil:
			d, err := raw.toDetection(i)
			if err != nil {
				return nil, nil, err
			}
			detections = append(detections, d)
		case raw.Rect != nil:
			b, err := raw.toBarcode(i)
			if err != nil {
				return nil, nil, err
			}
			barcodes = append(barcodes, b)
		default:
			return nil, nil, invalidDetection(i, "quad", "is required (or rect for barcodes)")
		}
	}

	return detections, barcodes, nil
}

func (r rawDetection) toDetection(index int) (Detection, error) {
	if len(r.Quad) != 4 {
		return Detection{}, invalidDetection(index, "quad", fmt.Sprintf("must have 4 points, got %d", len(r.Quad)))
	}
	if r.Text == nil {
		return Detection{}, invalidDetection(index, "text", "is required")
	}
	if r.Confidence == nil {
		return Detection{}, invalidDetection(index, "confidence", "is required")
	}

	d := Detection{Text: *r.Text, Confidence: *r.Confidence}
	copy(d.Quad[:], r.Quad)
	if err := d.validate(index); err != nil {
		return Detection{}, err
	}
	return d, nil
}

func (r rawDetection) toBarcode(index int) (BarcodeDetection, error) {
	if len(r.Rect) != 4 {
		return BarcodeDetection{}, invalidDetection(index, "rect", fmt.Sprintf("must have 4 values, got %d", len(r.Rect)))
	}
	if r.Payload == nil {
		return BarcodeDetection{}, invalidDetection(index, "payload", "is required")
	}
	if r.Symbology == nil {
		return BarcodeDetection{}, invalidDetection(index, "symbology", "is required")
	}

	b := BarcodeDetection{
		Rect:      geometry.Rect{X: r.Rect[0], Y: r.Rect[1], Width: r.Rect[2], Height: r.Rect[3]},
		Payload:   *r.Payload,
		Symbology: *r.Symbology,
	}
	if err := b.validate(index); err != nil {
		return BarcodeDetection{}, err
	}
	return b, nil
}

func (d Detection) validate(index int) error {
	for _, p := range d.Quad {
		if !finite(p.X) || !finite(p.Y) {
			return invalidDetection(index, "quad", "contains a non-finite coordinate")
		}
	}
	if !finite(d.Confidence) {
		return invalidDetection(index, "confidence", "is not a finite number")
	}
	return nil
}

func (b BarcodeDetection) validate(index int) error {
	r := b.Rect
	if !finite(r.X) || !finite(r.Y) || !finite(r.Width) || !finite(r.Height) {
		return invalidDetection(index, "rect", "contains a non-finite value")
	}
	if r.Width < 0 || r.Height < 0 {
		return invalidDetection(index, "rect", "has a negative size")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
