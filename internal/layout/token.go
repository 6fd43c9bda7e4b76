package layout

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/ironsheep/ocr-layout-mcp/internal/geometry"
)

// UnreadableText replaces the text of tokens whose recognition was unreliable.
const UnreadableText = "Image/Logo/Symbol/Signature Detected"

// Profile describes how one recognition engine family reports confidence.
type Profile struct {
	// Name identifies the engine family (e.g. "tesseract").
	Name string `json:"name"`

	// Threshold is the minimum confidence for a token's text to be kept.
	Threshold float64 `json:"threshold"`

	// MaxConfidence is the top of the engine's confidence scale.
	MaxConfidence float64 `json:"max_confidence"`
}

var (
	// ProfileTesseract matches engines reporting confidence on a 0-100 scale.
	ProfileTesseract = Profile{Name: "tesseract", Threshold: 45, MaxConfidence: 100}

	// ProfileEasyOCR matches engines reporting confidence on a 0-1 scale.
	ProfileEasyOCR = Profile{Name: "easyocr", Threshold: 0.45, MaxConfidence: 1}
)

// ProfileByName returns the built-in profile for an engine family.
func ProfileByName(name string) (Profile, bool) {
	switch strings.ToLower(name) {
	case ProfileTesseract.Name:
		return ProfileTesseract, true
	case ProfileEasyOCR.Name:
		return ProfileEasyOCR, true
	}
	return Profile{}, false
}

// Token is a single classified text fragment with its pixel rectangle.
type Token struct {
	Text       string        `json:"text"`
	Rect       geometry.Rect `json:"rect"`
	Confidence float64       `json:"confidence"`
}

// Classify converts a detection into a token.
//
// The token keeps the detected text when confidence >= p.Threshold and the
// text is non-empty; otherwise its text is UnreadableText. The rectangle spans
// quad corner 1 (top-left) to corner 3 (bottom-right), truncated onto the
// integer pixel grid.
//
// Classify fails with *InvalidDetectionError when corner 3 lies above or to the
// left of corner 1.
func Classify(d Detection, p Profile) (Token, error) {
	text := d.Text
	if d.Confidence < p.Threshold || text == "" {
		text = UnreadableText
	}

	x1, y1 := math.Trunc(d.Quad[0].X), math.Trunc(d.Quad[0].Y)
	width := math.Trunc(d.Quad[2].X - d.Quad[0].X)
	height := math.Trunc(d.Quad[2].Y - d.Quad[0].Y)
	if width < 0 || height < 0 {
		return Token{}, invalidDetection(0, "quad", "has corner 3 before corner 1")
	}

	return Token{
		Text:       text,
		Rect:       geometry.Rect{X: x1, Y: y1, Width: width, Height: height},
		Confidence: d.Confidence,
	}, nil
}

// ClassifyAll classifies a page's detections in order. Errors report the
// index of the offending detection.
func ClassifyAll(detections []Detection, p Profile) ([]Token, error) {
	tokens := make([]Token, 0, len(detections))
	for i, d := range detections {
		if err := d.validate(i); err != nil {
			return nil, err
		}
		tok, err := Classify(d, p)
		if err != nil {
			var ide *InvalidDetectionError
			if errors.As(err, &ide) {
				ide.Index = i
			}
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

var leadInPattern = regexp.MustCompile(`^(?:\d+\.|[•\-])`)

// IsBulletOrNumber reports whether s, once trimmed, starts like a list marker:
// a digit run followed by a period, a bullet glyph, or a hyphen.
func IsBulletOrNumber(s string) bool {
	return leadInPattern.MatchString(strings.TrimSpace(s))
}
