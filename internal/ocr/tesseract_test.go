package ocr

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/ocr-layout-mcp/internal/geometry"
	"github.com/ironsheep/ocr-layout-mcp/internal/layout"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// textImage renders text and scales it up so Tesseract has something to read.
func textImage(text string, scale int) *image.RGBA {
	w, h := len(text)*7+40, 40
	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 20, 25, text, color.Black)

	img := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := small.At(x, y)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
	return img
}

func skipIfUnavailable(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		return
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "tesseract") || strings.Contains(msg, "library") || strings.Contains(msg, "tessdata") {
		t.Skipf("Tesseract not available: %v", err)
	}
}

func TestNewTesseract_Languages(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"eng"}},
		{"eng", []string{"eng"}},
		{"eng+deu", []string{"eng", "deu"}},
		{" eng + fra +", []string{"eng", "fra"}},
	}

	for _, tt := range tests {
		got := NewTesseract(tt.in).Languages
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("NewTesseract(%q).Languages = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestName_MatchesProfile(t *testing.T) {
	if NewTesseract("").Name() != layout.ProfileTesseract.Name {
		t.Error("recognizer name should select the tesseract profile")
	}
}

func TestWordDetections(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Box: image.Rect(10, 20, 50, 32), Word: "Hello", Confidence: 91.5},
		{Box: image.Rect(60, 20, 70, 32), Word: "  ", Confidence: 95},
		{Box: image.Rect(80, 21, 130, 33), Word: " World ", Confidence: 30},
	}

	dets := wordDetections(boxes, image.Pt(100, 200))
	if len(dets) != 2 {
		t.Fatalf("expected blank word to be dropped, got %d detections", len(dets))
	}

	first := dets[0]
	if first.Text != "Hello" || first.Confidence != 91.5 {
		t.Errorf("first detection: %+v", first)
	}
	wantQuad := [4]geometry.Point{{X: 110, Y: 220}, {X: 150, Y: 220}, {X: 150, Y: 232}, {X: 110, Y: 232}}
	if first.Quad != wantQuad {
		t.Errorf("quad: got %v, want %v", first.Quad, wantQuad)
	}
	if dets[1].Text != "World" {
		t.Errorf("second word should be trimmed, got %q", dets[1].Text)
	}

	// Low-confidence words still flow through; the classifier decides.
	tok, err := layout.Classify(dets[1], layout.ProfileTesseract)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if tok.Text != layout.UnreadableText {
		t.Errorf("expected sentinel for confidence 30, got %q", tok.Text)
	}
}

func TestRecognize_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTesseract("eng").Recognize(ctx, textImage("X", 1))
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestRecognizeRegion_OutsideImage(t *testing.T) {
	img := textImage("X", 1)
	_, err := NewTesseract("eng").RecognizeRegion(context.Background(), img, image.Rect(5000, 5000, 5100, 5100))
	if err == nil {
		t.Error("expected error for region outside the image")
	}
}

func TestRecognize_RealText(t *testing.T) {
	dets, err := NewTesseract("eng").Recognize(context.Background(), textImage("HELLO WORLD", 4))
	skipIfUnavailable(t, err)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	t.Logf("detections: %d", len(dets))
	for i, d := range dets {
		t.Logf("  %d: %q conf %.1f quad %v", i, d.Text, d.Confidence, d.Quad)
		if d.Confidence > 100 {
			t.Errorf("confidence %v outside the 0-100 scale", d.Confidence)
		}
		if d.Quad[2].X < d.Quad[0].X || d.Quad[2].Y < d.Quad[0].Y {
			t.Errorf("quad %d is inverted: %v", i, d.Quad)
		}
	}
}

func TestRecognizeRegion_OffsetsQuads(t *testing.T) {
	page := image.NewRGBA(image.Rect(0, 0, 800, 400))
	draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)
	word := textImage("OFFSET", 3)
	origin := image.Pt(300, 200)
	draw.Draw(page, word.Bounds().Add(origin), word, image.Point{}, draw.Src)

	region := word.Bounds().Add(origin)
	dets, err := NewTesseract("eng").RecognizeRegion(context.Background(), page, region)
	skipIfUnavailable(t, err)
	if err != nil {
		t.Fatalf("RecognizeRegion failed: %v", err)
	}

	for _, d := range dets {
		if d.Quad[0].X < float64(region.Min.X) || d.Quad[0].Y < float64(region.Min.Y) {
			t.Errorf("quad %v not offset into page coordinates (region %v)", d.Quad, region)
		}
	}
}

func TestInfo(t *testing.T) {
	info := NewTesseract("eng+deu").Info()
	if info.Backend != "gosseract" {
		t.Errorf("Backend: got %q", info.Backend)
	}
	if len(info.Languages) != 2 {
		t.Errorf("Languages: got %v", info.Languages)
	}
	t.Logf("tesseract available=%v version=%q", info.Available, info.Version)
}
