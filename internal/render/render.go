// Package render converts between page rasters and PDF documents.
//
// PDF pages are rasterized with unipdf at a requested dpi; page counts and
// validation use pdfcpu; raster images are wrapped into single-page PDFs
// with gopdf. Together these reproduce the resolution path documents take
// before recognition: an uploaded image is placed on a PDF page at the
// conversion dpi and the page is rendered back at the render dpi.
package render

import (
	"fmt"
	"image"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/signintech/gopdf"
	"github.com/unidoc/unipdf/v3/common"
	unipdf "github.com/unidoc/unipdf/v3/model"
	unirender "github.com/unidoc/unipdf/v3/render"

	"github.com/ironsheep/ocr-layout-mcp/internal/logger"
)

// DimensionDPI is the resolution at which a PDF's "original" size is
// measured when rescaling coordinates back onto it.
const DimensionDPI = 300

func init() {
	common.SetLogger(common.NewConsoleLogger(common.LogLevelError))
}

// Rasterizer renders PDF pages to images.
type Rasterizer struct {
	logger *logger.Logger
}

// NewRasterizer creates a rasterizer. A nil logger discards output.
func NewRasterizer(log *logger.Logger) *Rasterizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Rasterizer{logger: log}
}

// RenderPage renders a 1-based page of the PDF at path at dpi. Each call
// opens its own reader, so pages of one file may render concurrently.
func (r *Rasterizer) RenderPage(path string, pageNum, dpi int) (image.Image, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("dpi must be positive, got %d", dpi)
	}
	r.logger.WithFields("pdf", path, "page", pageNum, "dpi", dpi).Debug("Rendering PDF page")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	reader, err := unipdf.NewPdfReaderLazy(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}
	if pageNum < 1 || pageNum > numPages {
		return nil, fmt.Errorf("invalid page number %d (PDF has %d pages)", pageNum, numPages)
	}

	page, err := reader.GetPage(pageNum)
	if err != nil {
		return nil, fmt.Errorf("failed to get page %d: %w", pageNum, err)
	}

	mediaBox, err := page.GetMediaBox()
	if err != nil {
		return nil, fmt.Errorf("failed to get media box: %w", err)
	}

	// PDF points are 1/72 inch. Height follows from the aspect ratio.
	device := unirender.NewImageDevice()
	device.OutputWidth = int((mediaBox.Urx - mediaBox.Llx) * float64(dpi) / 72.0)

	img, err := device.Render(page)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", pageNum, err)
	}

	b := img.Bounds()
	r.logger.WithFields("page", pageNum, "width", b.Dx(), "height", b.Dy()).Debug("Rendered PDF page")
	return img, nil
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	return ctx.PageCount, nil
}

// Validate checks that the PDF at path is readable, in relaxed mode.
func Validate(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("PDF validation failed: %w", err)
	}
	return nil
}

// ImageToPDF writes img as a single-page PDF at out. The page is sized so
// that the image prints at dpi.
func ImageToPDF(img image.Image, dpi int, out string) error {
	if dpi <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", dpi)
	}
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("cannot convert an empty image")
	}

	widthPt := float64(b.Dx()) * 72.0 / float64(dpi)
	heightPt := float64(b.Dy()) * 72.0 / float64(dpi)

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: gopdf.Rect{W: widthPt, H: heightPt}})
	pdf.AddPage()

	if err := pdf.ImageFrom(img, 0, 0, &gopdf.Rect{W: widthPt, H: heightPt}); err != nil {
		return fmt.Errorf("failed to place image: %w", err)
	}
	if err := pdf.WritePdf(out); err != nil {
		return fmt.Errorf("failed to write PDF %s: %w", out, err)
	}
	return nil
}
