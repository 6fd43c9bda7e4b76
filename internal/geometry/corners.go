package geometry

// Corners holds the four corner points of a box. They are kept independently of
// the box's x/y/width/height so that a transform can be applied to each point
// on its own.
type Corners struct {
	TopLeft     Point `json:"top_left"`
	TopRight    Point `json:"top_right"`
	BottomLeft  Point `json:"bottom_left"`
	BottomRight Point `json:"bottom_right"`
}

// CornersOf computes the corners of the axis-aligned box (x, y, width, height).
func CornersOf(x, y, width, height float64) Corners {
	return Corners{
		TopLeft:     Point{X: x, Y: y},
		TopRight:    Point{X: x + width, Y: y},
		BottomLeft:  Point{X: x, Y: y + height},
		BottomRight: Point{X: x + width, Y: y + height},
	}
}

// Map applies fn to each corner point.
func (c Corners) Map(fn func(Point) Point) Corners {
	return Corners{
		TopLeft:     fn(c.TopLeft),
		TopRight:    fn(c.TopRight),
		BottomLeft:  fn(c.BottomLeft),
		BottomRight: fn(c.BottomRight),
	}
}

// AxisAligned reports whether the corners describe an axis-aligned rectangle.
func (c Corners) AxisAligned() bool {
	return c.TopLeft.X == c.BottomLeft.X &&
		c.TopRight.X == c.BottomRight.X &&
		c.TopLeft.Y == c.TopRight.Y &&
		c.BottomLeft.Y == c.BottomRight.Y
}

// Bounds returns the axis-aligned rectangle spanned by top-left and bottom-right,
// with the two swapped if they are inverted.
func (c Corners) Bounds() Rect {
	x1, y1 := c.TopLeft.X, c.TopLeft.Y
	x2, y2 := c.BottomRight.X, c.BottomRight.Y
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}
