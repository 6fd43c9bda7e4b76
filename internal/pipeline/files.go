package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/ocr-layout-mcp/internal/rescale"
)

// Output artifact names.
const (
	ConvertedPDFName = "converted.pdf"
	LastPathsName    = "last_paths.json"
)

var artifactPatterns = []string{
	"text_extraction_page_*.json",
	"original_text_extraction_page_*.json",
	"page_*.png",
	"overlay_page_*.png",
	ConvertedPDFName,
	LastPathsName,
}

// PageJSONName is the page record file for a page.
func PageJSONName(page int) string {
	return fmt.Sprintf("text_extraction_page_%d.json", page)
}

// OriginalJSONName is the rescaled page record file for a page.
func OriginalJSONName(page int) string {
	return fmt.Sprintf("original_text_extraction_page_%d.json", page)
}

// PageImageName is the processed raster file for a page.
func PageImageName(page int) string {
	return fmt.Sprintf("page_%d.png", page)
}

// OverlayImageName is the overlay file for a page.
func OverlayImageName(page int) string {
	return fmt.Sprintf("overlay_page_%d.png", page)
}

// LastPaths records the inputs of the most recent extraction so that a later
// rescale can run without arguments.
type LastPaths struct {
	OriginalImagePath  string `json:"original_image_path"`
	ProcessedImagePath string `json:"processed_image_path"`
	ProcessedJSONPath  string `json:"processed_json_path"`
}

// WriteLastPaths stores lp in dir with absolute paths.
func WriteLastPaths(dir string, lp LastPaths) error {
	for _, p := range []*string{&lp.OriginalImagePath, &lp.ProcessedImagePath, &lp.ProcessedJSONPath} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return err
		}
		*p = abs
	}
	return WriteJSON(filepath.Join(dir, LastPathsName), lp)
}

// ReadLastPaths loads the record written by the last extraction into dir.
func ReadLastPaths(dir string) (LastPaths, error) {
	var lp LastPaths
	data, err := os.ReadFile(filepath.Join(dir, LastPathsName))
	if err != nil {
		return lp, fmt.Errorf("failed to read last paths: %w", err)
	}
	if err := json.Unmarshal(data, &lp); err != nil {
		return lp, fmt.Errorf("failed to decode last paths: %w", err)
	}
	return lp, nil
}

// RescaleResult is the outcome of RescaleToOriginal.
type RescaleResult struct {
	Record    *rescale.RescaledPage `json:"record"`
	Original  rescale.Dimensions    `json:"original"`
	Processed rescale.Dimensions    `json:"processed"`
	Ratios    rescale.Ratios        `json:"ratios"`
	Path      string                `json:"path"`
}

// RescaleToOriginal maps the page record at pageJSON from the processed
// raster's coordinates onto the original file's, and writes the result next
// to pageJSON as original_text_extraction_page_<n>.json.
func (p *Processor) RescaleToOriginal(original, processedImage, pageJSON string) (*RescaleResult, error) {
	log := p.logger.WithOperation("rescale")
	log.Infow("Rescaling page record",
		"original_image_path", original,
		"processed_image_path", processedImage,
		"processed_json_path", pageJSON,
	)

	data, err := os.ReadFile(pageJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to read page record: %w", err)
	}
	rec, err := rescale.ParsePage(data)
	if err != nil {
		return nil, err
	}

	orig, proc, ratios, err := rescale.FileRatios(original, processedImage)
	if err != nil {
		return nil, err
	}
	log.Infow("Scaling ratios",
		"original", fmt.Sprintf("%dx%d", orig.Width, orig.Height),
		"processed", fmt.Sprintf("%dx%d", proc.Width, proc.Height),
		"ratio_x", ratios.X,
		"ratio_y", ratios.Y,
	)

	out, err := rescale.RescalePage(rec, orig, proc)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(filepath.Dir(pageJSON), OriginalJSONName(out.Number))
	if err := WriteJSON(path, out); err != nil {
		return nil, err
	}

	return &RescaleResult{
		Record:    out,
		Original:  orig,
		Processed: proc,
		Ratios:    ratios,
		Path:      path,
	}, nil
}

// RescaleLast rescales the record of the most recent extraction into dir.
func (p *Processor) RescaleLast(dir string) (*RescaleResult, error) {
	lp, err := ReadLastPaths(dir)
	if err != nil {
		return nil, err
	}
	return p.RescaleToOriginal(lp.OriginalImagePath, lp.ProcessedImagePath, lp.ProcessedJSONPath)
}
