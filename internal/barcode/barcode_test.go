package barcode

import (
	"context"
	"image"
	"image/draw"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/ironsheep/ocr-layout-mcp/internal/layout"
)

// pageWith pastes a barcode matrix onto a white page at origin.
func pageWith(t *testing.T, m *gozxing.BitMatrix, origin image.Point, w, h int) *image.RGBA {
	t.Helper()
	page := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(page, m.Bounds().Add(origin), m, image.Point{}, draw.Src)
	return page
}

func TestDecode_QRCode(t *testing.T) {
	m, err := qrcode.NewQRCodeWriter().Encode("https://example.com/invoice/42", gozxing.BarcodeFormat_QR_CODE, 200, 200, nil)
	if err != nil {
		t.Fatalf("failed to encode QR: %v", err)
	}
	origin := image.Pt(300, 150)
	page := pageWith(t, m, origin, 800, 600)

	dets, err := NewDecoder().Decode(context.Background(), page)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(dets) != 1 {
		t.Fatalf("expected 1 barcode, got %d", len(dets))
	}

	d := dets[0]
	if d.Payload != "https://example.com/invoice/42" {
		t.Errorf("Payload: got %q", d.Payload)
	}
	if d.Symbology != "QRCODE" {
		t.Errorf("Symbology: got %q, want QRCODE", d.Symbology)
	}
	placed := m.Bounds().Add(origin)
	if d.Rect.X < float64(placed.Min.X) || d.Rect.Right() > float64(placed.Max.X) ||
		d.Rect.Y < float64(placed.Min.Y) || d.Rect.Bottom() > float64(placed.Max.Y) {
		t.Errorf("Rect %+v outside the placed symbol %v", d.Rect, placed)
	}
	if d.Rect.Width <= 0 || d.Rect.Height <= 0 {
		t.Errorf("QR rect should have area, got %+v", d.Rect)
	}

	region := layout.BarcodeRegion(d)
	if region.Text != "Barcode (QRCODE): https://example.com/invoice/42" {
		t.Errorf("region text: got %q", region.Text)
	}
}

func TestDecode_Code128(t *testing.T) {
	m, err := oned.NewCode128Writer().Encode("ORDER-7781", gozxing.BarcodeFormat_CODE_128, 400, 80, nil)
	if err != nil {
		t.Fatalf("failed to encode Code 128: %v", err)
	}
	page := pageWith(t, m, image.Pt(50, 50), 600, 300)

	dets, err := NewDecoder().Decode(context.Background(), page)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	var hit bool
	for _, d := range dets {
		if d.Payload == "ORDER-7781" && d.Symbology == "CODE128" {
			hit = true
		}
	}
	if !hit {
		t.Errorf("Code 128 not found in %+v", dets)
	}
}

func TestDecode_BlankPage(t *testing.T) {
	page := image.NewRGBA(image.Rect(0, 0, 300, 300))
	draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)

	dets, err := NewDecoder().Decode(context.Background(), page)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(dets) != 0 {
		t.Errorf("expected no barcodes on a blank page, got %+v", dets)
	}
}

func TestDecode_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page := image.NewRGBA(image.Rect(0, 0, 50, 50))
	if _, err := NewDecoder().Decode(ctx, page); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestSymbology(t *testing.T) {
	tests := []struct {
		format gozxing.BarcodeFormat
		want   string
	}{
		{gozxing.BarcodeFormat_QR_CODE, "QRCODE"},
		{gozxing.BarcodeFormat_CODE_128, "CODE128"},
		{gozxing.BarcodeFormat_EAN_13, "EAN13"},
		{gozxing.BarcodeFormat_UPC_A, "UPCA"},
	}

	for _, tt := range tests {
		if got := Symbology(tt.format); got != tt.want {
			t.Errorf("Symbology(%v) = %q, want %q", tt.format, got, tt.want)
		}
	}
}
