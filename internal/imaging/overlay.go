package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/ocr-layout-mcp/internal/geometry"
	"github.com/ironsheep/ocr-layout-mcp/internal/layout"
)

// OverlayStyle controls how region boxes are drawn.
type OverlayStyle struct {
	// TextColor and BarcodeColor are hex colors such as "#0000FF".
	TextColor    string
	BarcodeColor string

	// Stroke is the outline width in pixels.
	Stroke int

	// Labels draws each region's index next to its top-left corner.
	Labels bool
}

// DefaultOverlayStyle returns the colors each engine's review images have
// always used: Tesseract pages draw text blue and barcodes green, EasyOCR
// pages draw text red and barcodes blue.
func DefaultOverlayStyle(engine string) OverlayStyle {
	if engine == layout.ProfileEasyOCR.Name {
		return OverlayStyle{TextColor: "#FF0000", BarcodeColor: "#0000FF", Stroke: 4}
	}
	return OverlayStyle{TextColor: "#0000FF", BarcodeColor: "#008000", Stroke: 4}
}

// DrawOverlay returns a copy of img with every region outlined.
func DrawOverlay(img image.Image, regions []layout.Region, style OverlayStyle) (*image.RGBA, error) {
	textColor, err := colorful.Hex(style.TextColor)
	if err != nil {
		return nil, fmt.Errorf("invalid text color %q: %w", style.TextColor, err)
	}
	barcodeColor, err := colorful.Hex(style.BarcodeColor)
	if err != nil {
		return nil, fmt.Errorf("invalid barcode color %q: %w", style.BarcodeColor, err)
	}
	stroke := style.Stroke
	if stroke < 1 {
		stroke = 1
	}

	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	for i, r := range regions {
		c := textColor
		if r.IsBarcode() {
			c = barcodeColor
		}
		rgba := toRGBA(c)
		box := PixelRect(outlineRect(r.Rect(), stroke), 0, bounds)
		strokeRect(out, box, stroke, rgba)

		if style.Labels {
			drawLabel(out, box.Min.X, box.Min.Y-2, strconv.Itoa(i), labelColor(c), rgba)
		}
	}
	return out, nil
}

// outlineRect widens a box thinner than the stroke, such as a 1D barcode
// reported as a line, so it still gets an outline. The center is kept.
func outlineRect(r geometry.Rect, stroke int) geometry.Rect {
	w := float64(stroke)
	if r.Width < w {
		r.X -= (w - r.Width) / 2
		r.Width = w
	}
	if r.Height < w {
		r.Y -= (w - r.Height) / 2
		r.Height = w
	}
	return r
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// labelColor picks black or white text for legibility on bg.
func labelColor(bg colorful.Color) color.RGBA {
	_, _, l := bg.Hcl()
	if l > 0.6 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

// strokeRect draws an outline of width w inside r.
func strokeRect(img *image.RGBA, r image.Rectangle, w int, c color.RGBA) {
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w),
		image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y),
		image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}

// drawLabel draws text with its baseline at (x, y) on a filled background.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(fg), Face: face}
	width := d.MeasureString(text).Ceil()
	metrics := face.Metrics()

	if y-metrics.Ascent.Ceil() < img.Bounds().Min.Y {
		y = img.Bounds().Min.Y + metrics.Ascent.Ceil()
	}
	bgRect := image.Rect(x, y-metrics.Ascent.Ceil(), x+width+2, y+metrics.Descent.Ceil())
	draw.Draw(img, bgRect.Intersect(img.Bounds()), image.NewUniform(bg), image.Point{}, draw.Src)

	d.Dot = fixed.Point26_6{X: fixed.I(x + 1), Y: fixed.I(y)}
	d.DrawString(text)
}
