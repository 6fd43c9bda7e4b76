package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ironsheep/ocr-layout-mcp/internal/config"
	"github.com/ironsheep/ocr-layout-mcp/internal/geometry"
	"github.com/ironsheep/ocr-layout-mcp/internal/layout"
	"github.com/ironsheep/ocr-layout-mcp/internal/render"
)

type fakeRecognizer struct {
	detections []layout.Detection
	err        error
	calls      atomic.Int32
}

func (f *fakeRecognizer) Recognize(ctx context.Context, img image.Image) ([]layout.Detection, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	// Each page gets its own copy.
	return append([]layout.Detection(nil), f.detections...), nil
}

type fakeDecoder struct {
	barcodes []layout.BarcodeDetection
}

func (f *fakeDecoder) Decode(ctx context.Context, img image.Image) ([]layout.BarcodeDetection, error) {
	return append([]layout.BarcodeDetection(nil), f.barcodes...), nil
}

func word(x, y, w, h float64, text string) layout.Detection {
	return layout.Detection{
		Quad:       layout.QuadFromRect(geometry.Rect{X: x, Y: y, Width: w, Height: h}),
		Text:       text,
		Confidence: 90,
	}
}

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DocType = config.DocTypeCustom
	cfg.ConversionDPI = 100
	cfg.RenderDPI = 100
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.Workers = 2
	return cfg
}

func TestProcessDocument_Image(t *testing.T) {
	cfg := testConfig(t)
	cfg.Overlay = true
	src := filepath.Join(t.TempDir(), "scan.png")
	writeImage(t, src, 200, 100)

	rec := &fakeRecognizer{detections: []layout.Detection{
		word(10, 10, 40, 20, "Hello"),
		word(55, 10, 40, 20, "world"),
	}}
	dec := &fakeDecoder{barcodes: []layout.BarcodeDetection{
		{Rect: geometry.Rect{X: 150, Y: 50, Width: 40, Height: 40}, Payload: "abc", Symbology: "QRCODE"},
	}}

	p, err := New(cfg, WithRecognizer(rec), WithBarcodeDecoder(dec))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := p.ProcessDocument(context.Background(), src)
	if err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}
	if err := result.Err(); err != nil {
		t.Fatalf("page errors: %v", err)
	}
	if len(result.Pages) != 1 {
		t.Fatalf("pages: got %d, want 1", len(result.Pages))
	}

	page := result.Pages[0]
	if page.Page != 1 {
		t.Errorf("page number: got %d", page.Page)
	}
	if len(page.Record.Boxes) != 2 {
		t.Fatalf("boxes: got %d, want 2: %+v", len(page.Record.Boxes), page.Record.Boxes)
	}
	if page.Record.Boxes[0].Text != "Hello world" {
		t.Errorf("text region: got %q", page.Record.Boxes[0].Text)
	}
	if !page.Record.Boxes[1].IsBarcode() || page.Record.Boxes[1].Text != "Barcode (QRCODE): abc" {
		t.Errorf("barcode region: got %+v", page.Record.Boxes[1])
	}

	for _, path := range []string{result.PDFPath, page.ImagePath, page.JSONPath, page.OverlayPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected artifact %s: %v", path, err)
		}
	}
	if n, err := render.PageCount(result.PDFPath); err != nil || n != 1 {
		t.Errorf("converted PDF: %d pages, err %v", n, err)
	}

	data, err := os.ReadFile(page.JSONPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n    \"page\": 1") {
		t.Errorf("page JSON should use four-space indentation:\n%s", data)
	}
	var decoded layout.Page
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("page JSON does not decode: %v", err)
	}
	if decoded.Text != "Hello world Barcode (QRCODE): abc" {
		t.Errorf("page text: got %q", decoded.Text)
	}

	lp, err := ReadLastPaths(cfg.OutputDir)
	if err != nil {
		t.Fatalf("ReadLastPaths failed: %v", err)
	}
	if !filepath.IsAbs(lp.OriginalImagePath) || filepath.Base(lp.ProcessedJSONPath) != PageJSONName(1) {
		t.Errorf("last paths: got %+v", lp)
	}
}

func TestProcessDocument_OverlayLabels(t *testing.T) {
	// The first region's top edge is at y=10; its label is drawn above it,
	// clamped to the top of the image.
	tests := []struct {
		labels    bool
		wantWhite bool
	}{
		{labels: false, wantWhite: true},
		{labels: true, wantWhite: false},
	}

	for _, tt := range tests {
		cfg := testConfig(t)
		cfg.Overlay = true
		cfg.OverlayLabels = tt.labels
		src := filepath.Join(t.TempDir(), "scan.png")
		writeImage(t, src, 200, 100)

		rec := &fakeRecognizer{detections: []layout.Detection{word(10, 10, 40, 20, "Hello")}}
		p, err := New(cfg, WithRecognizer(rec), WithBarcodeDecoder(nil))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		result, err := p.ProcessDocument(context.Background(), src)
		if err != nil {
			t.Fatalf("ProcessDocument failed: %v", err)
		}
		if err := result.Err(); err != nil {
			t.Fatalf("page errors: %v", err)
		}

		f, err := os.Open(result.Pages[0].OverlayPath)
		if err != nil {
			t.Fatal(err)
		}
		overlay, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}

		r, g, b, _ := overlay.At(10, 2).RGBA()
		white := r == 0xffff && g == 0xffff && b == 0xffff
		if white != tt.wantWhite {
			t.Errorf("labels=%t: pixel above the box white=%t, want %t", tt.labels, white, tt.wantWhite)
		}
	}
}

func TestProcessDocument_BoxesOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.JSONMode = string(layout.JSONModeBoxesOnly)
	src := filepath.Join(t.TempDir(), "scan.png")
	writeImage(t, src, 100, 50)

	rec := &fakeRecognizer{detections: []layout.Detection{word(5, 5, 30, 10, "Total")}}
	p, err := New(cfg, WithRecognizer(rec), WithBarcodeDecoder(nil))
	if err != nil {
		t.Fatal(err)
	}

	result, err := p.ProcessDocument(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	page := result.Pages[0]
	if page.Err != nil {
		t.Fatal(page.Err)
	}
	if page.Record.Text != "" || page.Record.Boxes[0].Text != "" {
		t.Errorf("boxes_only record should carry no text: %+v", page.Record)
	}
	// Regions keep text for overlay and crop consumers.
	if page.Regions[0].Text != "Total" {
		t.Errorf("regions: got %+v", page.Regions)
	}
}

func TestProcessDocument_ResizesToRenderDPI(t *testing.T) {
	cfg := testConfig(t)
	cfg.ConversionDPI = 100
	cfg.RenderDPI = 110
	src := filepath.Join(t.TempDir(), "scan.png")
	writeImage(t, src, 200, 100)

	p, err := New(cfg, WithRecognizer(&fakeRecognizer{}), WithBarcodeDecoder(nil))
	if err != nil {
		t.Fatal(err)
	}
	result, err := p.ProcessDocument(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(result.Pages[0].ImagePath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfgImg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfgImg.Width != 220 || cfgImg.Height != 110 {
		t.Errorf("processed raster: got %dx%d, want 220x110", cfgImg.Width, cfgImg.Height)
	}
	if len(result.Pages[0].Record.Boxes) != 0 {
		t.Errorf("empty page should have no boxes")
	}
}

func TestProcessDocument_PageErrorIsReported(t *testing.T) {
	cfg := testConfig(t)
	src := filepath.Join(t.TempDir(), "scan.png")
	writeImage(t, src, 50, 50)

	boom := errors.New("engine crashed")
	p, err := New(cfg, WithRecognizer(&fakeRecognizer{err: boom}), WithBarcodeDecoder(nil))
	if err != nil {
		t.Fatal(err)
	}

	result, err := p.ProcessDocument(context.Background(), src)
	if err != nil {
		t.Fatalf("page failures should not fail the document: %v", err)
	}
	if len(result.Failed()) != 1 {
		t.Fatalf("failed pages: got %d, want 1", len(result.Failed()))
	}
	if !errors.Is(result.Err(), boom) {
		t.Errorf("Err() should wrap the page error, got %v", result.Err())
	}
	if _, err := ReadLastPaths(cfg.OutputDir); err == nil {
		t.Error("no last paths should be recorded when every page fails")
	}
}

func TestProcessDocument_PDF(t *testing.T) {
	cfg := testConfig(t)
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	pdf := filepath.Join(t.TempDir(), "doc.pdf")
	if err := render.ImageToPDF(img, 100, pdf); err != nil {
		t.Fatal(err)
	}

	rec := &fakeRecognizer{detections: []layout.Detection{word(10, 10, 20, 10, "x")}}
	p, err := New(cfg, WithRecognizer(rec), WithBarcodeDecoder(nil))
	if err != nil {
		t.Fatal(err)
	}

	result, err := p.ProcessDocument(context.Background(), pdf)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Pages) != 1 {
		t.Fatalf("pages: got %d, want 1", len(result.Pages))
	}
	if perr := result.Pages[0].Err; perr != nil {
		if strings.Contains(strings.ToLower(perr.Error()), "license") {
			t.Skipf("PDF rendering unavailable: %v", perr)
		}
		t.Fatalf("page failed: %v", perr)
	}
	if result.PDFPath != pdf {
		t.Errorf("PDFPath: got %s", result.PDFPath)
	}
}

func TestProcessDocument_Errors(t *testing.T) {
	cfg := testConfig(t)

	p, err := New(cfg, WithRecognizer(&fakeRecognizer{}), WithBarcodeDecoder(nil))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.ProcessDocument(context.Background(), "notes.txt"); err == nil {
		t.Error("expected error for unsupported file")
	}
	if _, err := p.ProcessDocument(context.Background(), "/nonexistent/scan.png"); err == nil {
		t.Error("expected error for missing image")
	}

	easy := testConfig(t)
	easy.Engine = "easyocr"
	p, err = New(easy, WithBarcodeDecoder(nil))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.ProcessDocument(context.Background(), "scan.png"); !errors.Is(err, ErrNoRecognizer) {
		t.Errorf("expected ErrNoRecognizer, got %v", err)
	}
}

func TestProcessDocument_ClearsPreviousArtifacts(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(cfg.OutputDir, PageJSONName(7))
	keep := filepath.Join(cfg.OutputDir, "notes.txt")
	for _, f := range []string{stale, keep} {
		if err := os.WriteFile(f, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	src := filepath.Join(t.TempDir(), "scan.png")
	writeImage(t, src, 20, 20)
	p, err := New(cfg, WithRecognizer(&fakeRecognizer{}), WithBarcodeDecoder(nil))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.ProcessDocument(context.Background(), src); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale page record should be removed")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Error("unrelated files should be kept")
	}
}

func TestProcessDocument_CanceledContext(t *testing.T) {
	cfg := testConfig(t)
	src := filepath.Join(t.TempDir(), "scan.png")
	writeImage(t, src, 20, 20)

	p, err := New(cfg, WithRecognizer(&fakeRecognizer{}), WithBarcodeDecoder(nil))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.ProcessDocument(ctx, src); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine = "paddle"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown engine")
	}
}
