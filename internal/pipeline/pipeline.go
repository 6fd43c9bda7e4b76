// Package pipeline turns documents into per-page layout records.
//
// A Processor rasterizes every page of an image or PDF at the configured
// resolution, runs text recognition and barcode decoding on each raster,
// groups and merges the results with the layout engine, and writes one JSON
// record per page into the output directory. Pages are processed
// concurrently; a failing page is reported without stopping the others.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/ocr-layout-mcp/internal/barcode"
	"github.com/ironsheep/ocr-layout-mcp/internal/config"
	"github.com/ironsheep/ocr-layout-mcp/internal/imaging"
	"github.com/ironsheep/ocr-layout-mcp/internal/layout"
	"github.com/ironsheep/ocr-layout-mcp/internal/logger"
	"github.com/ironsheep/ocr-layout-mcp/internal/ocr"
	"github.com/ironsheep/ocr-layout-mcp/internal/render"
)

// Recognizer produces word detections for a page raster.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]layout.Detection, error)
}

// BarcodeDecoder finds barcodes on a page raster.
type BarcodeDecoder interface {
	Decode(ctx context.Context, img image.Image) ([]layout.BarcodeDetection, error)
}

// ErrNoRecognizer is returned when the configured engine has no built-in
// recognizer and none was supplied.
var ErrNoRecognizer = errors.New("no recognizer available for engine")

// Processor runs the extraction pipeline. It is safe for concurrent use as
// long as its Recognizer and BarcodeDecoder are.
type Processor struct {
	cfg        *config.Config
	engine     *layout.Engine
	recognizer Recognizer
	decoder    BarcodeDecoder
	rasterizer *render.Rasterizer
	cache      *imaging.ImageCache
	logger     *logger.Logger
}

// Option customizes a Processor.
type Option func(*Processor)

// WithRecognizer replaces the engine's built-in recognizer.
func WithRecognizer(r Recognizer) Option {
	return func(p *Processor) { p.recognizer = r }
}

// WithBarcodeDecoder replaces the default decoder. Passing nil disables
// barcode decoding.
func WithBarcodeDecoder(d BarcodeDecoder) Option {
	return func(p *Processor) { p.decoder = d }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithImageCache shares an image cache with other components.
func WithImageCache(c *imaging.ImageCache) Option {
	return func(p *Processor) { p.cache = c }
}

// New creates a processor from a validated configuration.
func New(cfg *config.Config, opts ...Option) (*Processor, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p := &Processor{
		cfg:    cfg,
		engine: cfg.LayoutEngine(),
		logger: logger.Nop(),
	}
	if cfg.Engine == "tesseract" {
		p.recognizer = ocr.NewTesseract(cfg.Languages)
	}
	if cfg.Barcodes {
		p.decoder = barcode.NewDecoder()
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.cache == nil {
		p.cache = imaging.NewImageCache(cfg.CacheSize)
	}
	p.rasterizer = render.NewRasterizer(p.logger)
	return p, nil
}

// Config returns the processor's configuration.
func (p *Processor) Config() *config.Config {
	return p.cfg
}

// Engine returns the layout engine used for every page.
func (p *Processor) Engine() *layout.Engine {
	return p.engine
}

// PageResult is the outcome of one page.
type PageResult struct {
	Page        int
	Record      *layout.Page
	Regions     []layout.Region
	ImagePath   string
	JSONPath    string
	OverlayPath string
	Err         error
}

// Result is the outcome of one document.
type Result struct {
	Source  string
	PDFPath string
	Pages   []PageResult
}

// Failed returns the pages that did not complete.
func (r *Result) Failed() []PageResult {
	var failed []PageResult
	for _, pr := range r.Pages {
		if pr.Err != nil {
			failed = append(failed, pr)
		}
	}
	return failed
}

// Err joins the per-page errors, or returns nil when every page succeeded.
func (r *Result) Err() error {
	var errs []error
	for _, pr := range r.Failed() {
		errs = append(errs, fmt.Errorf("page %d: %w", pr.Page, pr.Err))
	}
	return errors.Join(errs...)
}

// pageSource produces the raster for a page on demand, so that PDF pages
// render inside their own worker.
type pageSource func() (image.Image, error)

// ProcessDocument extracts every page of the image or PDF at path. The
// returned error covers setup failures and cancellation; per-page failures
// are reported in the Result.
func (p *Processor) ProcessDocument(ctx context.Context, path string) (*Result, error) {
	if p.recognizer == nil {
		return nil, fmt.Errorf("%w %q", ErrNoRecognizer, p.cfg.Engine)
	}

	log := p.logger.WithDocument(path).WithOperation("extract")
	res := p.cfg.Resolution()
	log.Infow("Processing document",
		"conversion_dpi", res.ConversionDPI,
		"render_dpi", res.RenderDPI,
		"workers", p.cfg.Workers,
	)

	if err := p.prepareOutputDir(); err != nil {
		return nil, err
	}

	result := &Result{Source: path}
	var sources []pageSource

	switch imaging.KindOf(path) {
	case imaging.KindImage:
		img, err := p.cache.Load(path)
		if err != nil {
			return nil, err
		}
		pdfPath := filepath.Join(p.cfg.OutputDir, ConvertedPDFName)
		if err := render.ImageToPDF(img, res.ConversionDPI, pdfPath); err != nil {
			return nil, err
		}
		result.PDFPath = pdfPath
		sources = []pageSource{func() (image.Image, error) {
			return imaging.ResizeToDPI(img, res.ConversionDPI, res.RenderDPI)
		}}

	case imaging.KindPDF:
		if err := render.Validate(path); err != nil {
			return nil, err
		}
		count, err := render.PageCount(path)
		if err != nil {
			return nil, err
		}
		result.PDFPath = path
		for i := 1; i <= count; i++ {
			sources = append(sources, func() (image.Image, error) {
				return p.rasterizer.RenderPage(path, i, res.RenderDPI)
			})
		}

	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}

	result.Pages = make([]PageResult, len(sources))
	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Workers)

	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result.Pages[i] = p.processPage(ctx, i+1, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result.Pages, func(a, b int) bool {
		return result.Pages[a].Page < result.Pages[b].Page
	})

	for _, pr := range result.Pages {
		if pr.Err == nil {
			if err := WriteLastPaths(p.cfg.OutputDir, LastPaths{
				OriginalImagePath:  path,
				ProcessedImagePath: pr.ImagePath,
				ProcessedJSONPath:  pr.JSONPath,
			}); err != nil {
				log.WithError(err).Warn("Failed to record last paths")
			}
			break
		}
	}

	failed := len(result.Failed())
	log.Infow("Document processed", "pages", len(result.Pages), "failed", failed)
	return result, nil
}

// processPage runs one page end to end. Everything it allocates is local
// to the page.
func (p *Processor) processPage(ctx context.Context, number int, src pageSource) PageResult {
	pr := PageResult{Page: number}
	log := p.logger.WithPage(number)

	img, err := src()
	if err != nil {
		pr.Err = fmt.Errorf("failed to rasterize: %w", err)
		log.WithError(pr.Err).Warn("Page failed")
		return pr
	}

	pr.ImagePath = filepath.Join(p.cfg.OutputDir, PageImageName(number))
	if err := imaging.SavePNG(pr.ImagePath, img); err != nil {
		pr.Err = err
		return pr
	}

	detections, err := p.recognizer.Recognize(ctx, img)
	if err != nil {
		pr.Err = fmt.Errorf("failed to recognize text: %w", err)
		log.WithError(pr.Err).Warn("Page failed")
		return pr
	}

	var barcodes []layout.BarcodeDetection
	if p.decoder != nil {
		barcodes, err = p.decoder.Decode(ctx, img)
		if err != nil {
			pr.Err = fmt.Errorf("failed to decode barcodes: %w", err)
			log.WithError(pr.Err).Warn("Page failed")
			return pr
		}
	}

	regions, err := p.engine.Regions(detections, barcodes)
	if err != nil {
		pr.Err = err
		log.WithError(err).Warn("Page failed")
		return pr
	}
	pr.Regions = regions
	pr.Record = layout.NewPage(number, regions, p.cfg.Mode())

	pr.JSONPath = filepath.Join(p.cfg.OutputDir, PageJSONName(number))
	if err := WriteJSON(pr.JSONPath, pr.Record); err != nil {
		pr.Err = err
		return pr
	}

	if p.cfg.Overlay {
		style := imaging.DefaultOverlayStyle(p.cfg.Engine)
		style.Labels = p.cfg.OverlayLabels
		overlay, err := imaging.DrawOverlay(img, regions, style)
		if err != nil {
			pr.Err = err
			return pr
		}
		pr.OverlayPath = filepath.Join(p.cfg.OutputDir, OverlayImageName(number))
		if err := imaging.SavePNG(pr.OverlayPath, overlay); err != nil {
			pr.Err = err
			return pr
		}
	}

	log.Debugw("Page processed",
		"detections", len(detections),
		"barcodes", len(barcodes),
		"regions", len(regions),
	)
	return pr
}

// prepareOutputDir creates the output directory and removes artifacts of a
// previous run, dropping them from the image cache too. Unrelated files are
// left alone.
func (p *Processor) prepareOutputDir() error {
	dir := p.cfg.OutputDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, pattern := range artifactPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return err
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil {
				return fmt.Errorf("failed to clear %s: %w", m, err)
			}
			p.cache.Evict(m)
		}
	}
	return nil
}

// WriteJSON writes v with four-space indentation.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
