package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/ironsheep/ocr-layout-mcp/internal/geometry"
)

// GroupOptions tunes line grouping. Distances are raster pixels.
type GroupOptions struct {
	// LineThreshold is the largest allowed distance between a token's top edge
	// and the running average top edge of the open line.
	LineThreshold float64 `json:"line_threshold"`

	// MaxHorizontalGap is the largest allowed gap between the right edge of the
	// line's last token and the left edge of the next one.
	MaxHorizontalGap float64 `json:"max_horizontal_gap"`

	// BulletBreak forces a new line when two consecutive tokens are both list
	// markers, even if they are close enough to share a line.
	BulletBreak bool `json:"bullet_break"`
}

// DefaultGroupOptions returns the grouping defaults.
func DefaultGroupOptions() GroupOptions {
	return GroupOptions{
		LineThreshold:    0.1,
		MaxHorizontalGap: 19.5,
		BulletBreak:      true,
	}
}

// LineBox is a run of tokens sharing an approximate baseline.
type LineBox struct {
	Text    string           `json:"text"`
	Rect    geometry.Rect    `json:"rect"`
	Corners geometry.Corners `json:"corners"`
	Tokens  []Token          `json:"-"`
}

// Region converts the line box into a text region.
func (l LineBox) Region() Region {
	corners := l.Corners
	return Region{
		X:       l.Rect.X,
		Y:       l.Rect.Y,
		Width:   l.Rect.Width,
		Height:  l.Rect.Height,
		Corners: &corners,
		Text:    l.Text,
	}
}

// GroupLines clusters tokens into ordered text lines.
//
// Tokens are sorted by (y, x) and walked in order. A token joins the open line
// when its top edge is within LineThreshold of the line's average top edge and
// its gap to the line's last token is at most MaxHorizontalGap (the gap is
// negative when they overlap). Otherwise the line is closed and a new one is
// started. With BulletBreak set, two consecutive list markers never share a
// line.
//
// The input slice is not modified. An empty input yields an empty result.
func GroupLines(tokens []Token, opts GroupOptions) []LineBox {
	if len(tokens) == 0 {
		return []LineBox{}
	}

	sorted := make([]Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rect.Y != sorted[j].Rect.Y {
			return sorted[i].Rect.Y < sorted[j].Rect.Y
		}
		return sorted[i].Rect.X < sorted[j].Rect.X
	})

	var clusters [][]Token
	var current []Token
	var sumY float64

	for _, tok := range sorted {
		if len(current) == 0 {
			current = []Token{tok}
			sumY = tok.Rect.Y
			continue
		}

		avgY := sumY / float64(len(current))
		last := current[len(current)-1]
		gap := tok.Rect.X - last.Rect.Right()

		joins := math.Abs(tok.Rect.Y-avgY) <= opts.LineThreshold && gap <= opts.MaxHorizontalGap
		if joins && opts.BulletBreak && IsBulletOrNumber(tok.Text) && IsBulletOrNumber(last.Text) {
			joins = false
		}

		if joins {
			current = append(current, tok)
			sumY += tok.Rect.Y
			continue
		}

		clusters = append(clusters, current)
		current = []Token{tok}
		sumY = tok.Rect.Y
	}
	if len(current) > 0 {
		clusters = append(clusters, current)
	}

	lines := make([]LineBox, 0, len(clusters))
	for _, c := range clusters {
		lines = append(lines, newLineBox(c))
	}
	return lines
}

func newLineBox(tokens []Token) LineBox {
	texts := make([]string, len(tokens))
	rects := make([]geometry.Rect, len(tokens))
	for i, t := range tokens {
		texts[i] = t.Text
		rects[i] = t.Rect
	}
	env, _ := geometry.Envelope(rects...)

	return LineBox{
		Text:    strings.Join(texts, " "),
		Rect:    env,
		Corners: env.Corners(),
		Tokens:  tokens,
	}
}
