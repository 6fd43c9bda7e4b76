package layout

import (
	"fmt"
	"strings"
)

// JSONMode selects how much of each region a page record carries.
type JSONMode string

const (
	// JSONModeWithText keeps region text and source and adds the page text.
	JSONModeWithText JSONMode = "with_text"

	// JSONModeBoxesOnly keeps geometry only.
	JSONModeBoxesOnly JSONMode = "boxes_only"
)

// ParseJSONMode validates a mode name. Empty means JSONModeBoxesOnly.
func ParseJSONMode(s string) (JSONMode, error) {
	switch JSONMode(s) {
	case "", JSONModeBoxesOnly:
		return JSONModeBoxesOnly, nil
	case JSONModeWithText:
		return JSONModeWithText, nil
	}
	return "", fmt.Errorf("unknown json mode %q (want with_text or boxes_only)", s)
}

// Page is the per-page output record.
type Page struct {
	Number int      `json:"page"`
	Boxes  []Region `json:"boxes"`
	Text   string   `json:"text,omitempty"`
}

// Engine runs the full classify, group, merge pipeline for one engine profile.
// An Engine holds configuration only and is safe for concurrent use.
type Engine struct {
	Profile Profile
	Group   GroupOptions
	Merge   MergeOptions
}

// NewEngine returns an engine for the given profile with default thresholds.
func NewEngine(p Profile) *Engine {
	return &Engine{
		Profile: p,
		Group:   DefaultGroupOptions(),
		Merge:   DefaultMergeOptions(),
	}
}

// Lines classifies detections and groups them into line boxes.
func (e *Engine) Lines(detections []Detection) ([]LineBox, error) {
	tokens, err := ClassifyAll(detections, e.Profile)
	if err != nil {
		return nil, err
	}
	return GroupLines(tokens, e.Group), nil
}

// Regions produces a page's final region list: merged text regions followed
// by barcode regions in their input order. Barcodes never take part in
// grouping or merging.
func (e *Engine) Regions(detections []Detection, barcodes []BarcodeDetection) ([]Region, error) {
	lines, err := e.Lines(detections)
	if err != nil {
		return nil, err
	}

	regions, err := Merge(lines, e.Merge)
	if err != nil {
		return nil, err
	}

	for i, b := range barcodes {
		if err := b.validate(i); err != nil {
			return nil, err
		}
		regions = append(regions, BarcodeRegion(b))
	}
	return regions, nil
}

// BuildPage runs Regions and wraps the result in a page record. number is the
// 1-based page number.
func (e *Engine) BuildPage(number int, detections []Detection, barcodes []BarcodeDetection, mode JSONMode) (*Page, error) {
	if number < 1 {
		return nil, fmt.Errorf("page number must be >= 1, got %d", number)
	}

	regions, err := e.Regions(detections, barcodes)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", number, err)
	}

	return NewPage(number, regions, mode), nil
}

// NewPage shapes regions into a page record for the given mode.
func NewPage(number int, regions []Region, mode JSONMode) *Page {
	page := &Page{Number: number, Boxes: make([]Region, 0, len(regions))}

	if mode == JSONModeWithText {
		texts := make([]string, 0, len(regions))
		for _, r := range regions {
			page.Boxes = append(page.Boxes, r)
			texts = append(texts, r.Text)
		}
		page.Text = strings.Join(texts, " ")
		return page
	}

	for _, r := range regions {
		page.Boxes = append(page.Boxes, Region{
			X:       r.X,
			Y:       r.Y,
			Width:   r.Width,
			Height:  r.Height,
			Corners: r.Corners,
		})
	}
	return page
}
