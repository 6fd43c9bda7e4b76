package layout

import (
	"fmt"

	"github.com/ironsheep/ocr-layout-mcp/internal/geometry"
)

// SourceBarcode tags regions produced by barcode decoding.
const SourceBarcode = "barcode"

// Region is a final consolidated box emitted to consumers.
//
// Corners is nil only for regions read from an upstream producer that did not
// supply them; every region built by this package carries corners.
type Region struct {
	X       float64           `json:"x"`
	Y       float64           `json:"y"`
	Width   float64           `json:"width"`
	Height  float64           `json:"height"`
	Corners *geometry.Corners `json:"corners,omitempty"`
	Text    string            `json:"text,omitempty"`
	Source  string            `json:"source,omitempty"`
}

// NewRegion builds a region from a rectangle, with freshly computed corners.
func NewRegion(r geometry.Rect, text string) Region {
	corners := r.Corners()
	return Region{
		X:       r.X,
		Y:       r.Y,
		Width:   r.Width,
		Height:  r.Height,
		Corners: &corners,
		Text:    text,
	}
}

// Rect returns the region's rectangle.
func (r Region) Rect() geometry.Rect {
	return geometry.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// EnsureCorners returns the region with corners computed from its rectangle
// when it has none. Existing corners are kept as they are.
func (r Region) EnsureCorners() Region {
	if r.Corners == nil {
		corners := r.Rect().Corners()
		r.Corners = &corners
	}
	return r
}

// IsBarcode reports whether the region came from barcode decoding.
func (r Region) IsBarcode() bool {
	return r.Source == SourceBarcode
}

// Validate checks that the region is a non-negative axis-aligned rectangle
// whose corners agree with x, y, width and height.
func (r Region) Validate() error {
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("region has negative size %gx%g", r.Width, r.Height)
	}
	if r.Corners == nil {
		return fmt.Errorf("region has no corners")
	}
	if !r.Corners.AxisAligned() {
		return fmt.Errorf("region corners are not axis-aligned")
	}
	if *r.Corners != r.Rect().Corners() {
		return fmt.Errorf("region corners do not match its rectangle")
	}
	return nil
}

// BarcodeRegion converts a decoded barcode into a tagged region.
func BarcodeRegion(b BarcodeDetection) Region {
	region := NewRegion(b.Rect, fmt.Sprintf("Barcode (%s): %s", b.Symbology, b.Payload))
	region.Source = SourceBarcode
	return region
}

// MergeRegions folds b into a: texts joined by a space, rectangles enveloped,
// corners recomputed.
func MergeRegions(a, b Region) Region {
	merged := NewRegion(a.Rect().Union(b.Rect()), a.Text+" "+b.Text)
	merged.Source = a.Source
	return merged
}
