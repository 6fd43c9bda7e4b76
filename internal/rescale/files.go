package rescale

import (
	"fmt"

	"github.com/ironsheep/ocr-layout-mcp/internal/imaging"
	"github.com/ironsheep/ocr-layout-mcp/internal/render"
)

// FileDimensions returns the pixel size of an image file, or of the first
// page of a PDF rendered at render.DimensionDPI.
func FileDimensions(path string) (Dimensions, error) {
	switch imaging.KindOf(path) {
	case imaging.KindPDF:
		img, err := render.NewRasterizer(nil).RenderPage(path, 1, render.DimensionDPI)
		if err != nil {
			return Dimensions{}, fmt.Errorf("failed to measure %s: %w", path, err)
		}
		b := img.Bounds()
		return Dimensions{Width: b.Dx(), Height: b.Dy()}, nil
	case imaging.KindImage:
		d, err := imaging.FileDimensions(path)
		if err != nil {
			return Dimensions{}, err
		}
		return Dimensions{Width: d.Width, Height: d.Height}, nil
	}
	return Dimensions{}, fmt.Errorf("unsupported file type: %s", path)
}

// FileRatios measures both files and returns their dimensions and ratios.
func FileRatios(originalPath, processedPath string) (original, processed Dimensions, ratios Ratios, err error) {
	if original, err = FileDimensions(originalPath); err != nil {
		return
	}
	if processed, err = FileDimensions(processedPath); err != nil {
		return
	}
	ratios, err = ComputeRatios(original, processed)
	return
}
