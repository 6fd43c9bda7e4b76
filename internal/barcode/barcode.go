// Package barcode finds and decodes barcodes on page rasters with gozxing.
//
// Each decoded symbol becomes a layout.BarcodeDetection whose rectangle is
// the envelope of the decoder's result points. Barcodes never take part in
// line grouping or region merging; the layout engine appends them to the
// page unchanged.
package barcode

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/ironsheep/ocr-layout-mcp/internal/geometry"
	"github.com/ironsheep/ocr-layout-mcp/internal/layout"
)

// Decoder tries a fixed set of symbologies on every image.
type Decoder struct {
	// TryHarder trades speed for accuracy.
	TryHarder bool

	readers []namedReader
}

type namedReader struct {
	name   string
	reader func() gozxing.Reader
}

// NewDecoder returns a decoder for QR codes and the common 1D symbologies.
func NewDecoder() *Decoder {
	return &Decoder{
		TryHarder: true,
		readers: []namedReader{
			{"qr", func() gozxing.Reader { return qrcode.NewQRCodeReader() }},
			{"code128", func() gozxing.Reader { return oned.NewCode128Reader() }},
			{"code39", func() gozxing.Reader { return oned.NewCode39Reader() }},
			{"ean13", func() gozxing.Reader { return oned.NewEAN13Reader() }},
			{"ean8", func() gozxing.Reader { return oned.NewEAN8Reader() }},
			{"upca", func() gozxing.Reader { return oned.NewUPCAReader() }},
		},
	}
}

// Decode returns every barcode found in img. Not finding any is not an error.
// Readers are created per call, so one Decoder may serve concurrent pages.
func (d *Decoder) Decode(ctx context.Context, img image.Image) ([]layout.BarcodeDetection, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize image: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{}
	if d.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	var found []layout.BarcodeDetection
	seen := make(map[string]bool)
	offset := img.Bounds().Min
	for _, nr := range d.readers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// gozxing reports "nothing here" as an error; any decode failure
		// just means this symbology is absent.
		result, err := nr.reader().Decode(bmp, hints)
		if err != nil || result == nil {
			continue
		}

		det := detectionFrom(result, offset)
		key := det.Symbology + "\x00" + det.Payload
		if seen[key] {
			continue
		}
		seen[key] = true
		found = append(found, det)
	}
	return found, nil
}

func detectionFrom(result *gozxing.Result, offset image.Point) layout.BarcodeDetection {
	var rects []geometry.Rect
	for _, p := range result.GetResultPoints() {
		if p == nil {
			continue
		}
		rects = append(rects, geometry.Rect{
			X: p.GetX() + float64(offset.X),
			Y: p.GetY() + float64(offset.Y),
		})
	}
	rect, _ := geometry.Envelope(rects...)

	return layout.BarcodeDetection{
		Rect:      rect,
		Payload:   result.GetText(),
		Symbology: Symbology(result.GetBarcodeFormat()),
	}
}

// Symbology names a gozxing format the way region text reports it:
// upper case without separators, e.g. QRCODE, CODE128, EAN13.
func Symbology(f gozxing.BarcodeFormat) string {
	return strings.ReplaceAll(strings.ToUpper(f.String()), "_", "")
}
