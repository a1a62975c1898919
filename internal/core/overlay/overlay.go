// Package overlay tracks inline images anchored to content lines and
// decides which of them the compositor draws each frame.
package overlay

// Overlay is one image occurrence anchored to a content line. Offset is
// the screen row of the image's top edge relative to the top of the grid
// and may be negative.
type Overlay struct {
	ID         string
	Reference  string
	Path       string
	RowSpan    int
	AnchorLine int
	Span       int
	Occurrence int
	Offset     int

	PixelWidth  int
	PixelHeight int
}

// RowSpan converts an image's pixel height to terminal rows. An unknown
// terminal pixel height yields zero rows.
func RowSpan(gridRows, imagePixelHeight, terminalPixelHeight int) int {
	if gridRows <= 0 || imagePixelHeight <= 0 || terminalPixelHeight <= 0 {
		return 0
	}
	return gridRows*imagePixelHeight/terminalPixelHeight + 1
}

// Eligible reports whether any row of o intersects the grid.
func Eligible(o *Overlay, gridRows int) bool {
	return o.RowSpan > 0 && o.Offset < gridRows && o.Offset+o.RowSpan > 0
}

// Consumed returns how many grid rows o occupies from its anchor
// downwards. It is never negative.
func Consumed(o *Overlay, gridRows int) int {
	return max(0, min(o.RowSpan, gridRows-max(o.Offset, 0)))
}
