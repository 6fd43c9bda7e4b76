// Package rescale maps boxes between two rasters of the same page that were
// produced at different resolutions.
//
// The "original" raster is the document as uploaded; the "processed" raster is
// the one recognition ran on. Ratios are processed/original per axis, so
// multiplying maps original to processed and dividing maps processed to
// original. The two directions are exact inverses up to floating-point
// rounding.
package rescale

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/ocr-layout-mcp/internal/geometry"
	"github.com/ironsheep/ocr-layout-mcp/internal/layout"
)

// Dimensions is the pixel size of a raster.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DimensionError reports a raster size that cannot anchor a ratio.
type DimensionError struct {
	// Raster is "original" or "processed".
	Raster string
	Dims   Dimensions
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s raster has unusable dimensions %dx%d", e.Raster, e.Dims.Width, e.Dims.Height)
}

// Ratios are the per-axis processed/original scale factors.
type Ratios struct {
	X float64 `json:"ratio_x"`
	Y float64 `json:"ratio_y"`
}

// ComputeRatios derives the scale ratios between two rasters of one page.
// It fails with *DimensionError when either raster has a zero or negative
// dimension, so a ratio is never infinite, zero or NaN.
func ComputeRatios(original, processed Dimensions) (Ratios, error) {
	if original.Width <= 0 || original.Height <= 0 {
		return Ratios{}, &DimensionError{Raster: "original", Dims: original}
	}
	if processed.Width <= 0 || processed.Height <= 0 {
		return Ratios{}, &DimensionError{Raster: "processed", Dims: processed}
	}
	return Ratios{
		X: float64(processed.Width) / float64(original.Width),
		Y: float64(processed.Height) / float64(original.Height),
	}, nil
}

// ToOriginal maps a processed-raster point into the original raster.
func (r Ratios) ToOriginal(p geometry.Point) geometry.Point {
	return geometry.Point{X: p.X / r.X, Y: p.Y / r.Y}
}

// ToProcessed maps an original-raster point into the processed raster.
func (r Ratios) ToProcessed(p geometry.Point) geometry.Point {
	return geometry.Point{X: p.X * r.X, Y: p.Y * r.Y}
}

// RegionToOriginal maps a processed-raster region into the original raster.
//
// Position and size are divided per axis. Corners supplied with the region are
// mapped point by point so that non-rectangular corner sets survive exactly;
// a region without corners gets them computed from the rescaled rectangle.
// Text and source are carried over.
func (r Ratios) RegionToOriginal(reg layout.Region) layout.Region {
	return r.mapRegion(reg, r.ToOriginal, func(v, ratio float64) float64 { return v / ratio })
}

// RegionToProcessed is the inverse of RegionToOriginal.
func (r Ratios) RegionToProcessed(reg layout.Region) layout.Region {
	return r.mapRegion(reg, r.ToProcessed, func(v, ratio float64) float64 { return v * ratio })
}

func (r Ratios) mapRegion(reg layout.Region, point func(geometry.Point) geometry.Point, scalar func(v, ratio float64) float64) layout.Region {
	out := layout.Region{
		X:      scalar(reg.X, r.X),
		Y:      scalar(reg.Y, r.Y),
		Width:  scalar(reg.Width, r.X),
		Height: scalar(reg.Height, r.Y),
		Text:   reg.Text,
		Source: reg.Source,
	}
	if reg.Corners != nil {
		corners := reg.Corners.Map(point)
		out.Corners = &corners
	}
	return out.EnsureCorners()
}

// RescaledPage is the rescaled per-page record. It carries the original raster size
// so consumers can validate or re-derive the ratios.
type RescaledPage struct {
	Number         int             `json:"page"`
	Boxes          []layout.Region `json:"boxes"`
	OriginalWidth  int             `json:"original_width"`
	OriginalHeight int             `json:"original_height"`
}

// RescalePage re-expresses every box of a processed-raster page record in
// original-raster coordinates. A record without a page number is page 1.
func RescalePage(rec *layout.Page, original, processed Dimensions) (*RescaledPage, error) {
	ratios, err := ComputeRatios(original, processed)
	if err != nil {
		return nil, err
	}

	number := rec.Number
	if number == 0 {
		number = 1
	}

	boxes := make([]layout.Region, 0, len(rec.Boxes))
	for _, b := range rec.Boxes {
		boxes = append(boxes, ratios.RegionToOriginal(b))
	}

	return &RescaledPage{
		Number:         number,
		Boxes:          boxes,
		OriginalWidth:  original.Width,
		OriginalHeight: original.Height,
	}, nil
}

// ParsePage decodes a page record as written by the extraction pipeline.
func ParsePage(data []byte) (*layout.Page, error) {
	var rec layout.Page
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode page record: %w", err)
	}
	if rec.Number < 0 {
		return nil, fmt.Errorf("page number must be >= 1, got %d", rec.Number)
	}
	return &rec, nil
}
