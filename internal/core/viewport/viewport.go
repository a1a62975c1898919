// Package viewport tracks which contiguous range of content lines is visible
// in a terminal grid.
package viewport

// State is a snapshot of the viewport.
//
// 0 <= TopLine <= BottomLine, BottomLine-TopLine <= GridRows and
// BottomLine <= TotalLines hold after every mutation.
type State struct {
	TopLine    int
	BottomLine int
	GridRows   int
	GridCols   int
	TotalLines int
}

// Viewport owns the visible line range. It has no side effects beyond its
// own state.
type Viewport struct {
	top    int
	bottom int
	rows   int
	cols   int
	total  int
}

// New returns a viewport positioned at the start of total lines.
func New(rows, cols, total int) *Viewport {
	v := &Viewport{rows: max(rows, 0), cols: max(cols, 0), total: max(total, 0)}
	v.settle()
	return v
}

func (v *Viewport) State() State {
	return State{
		TopLine:    v.top,
		BottomLine: v.bottom,
		GridRows:   v.rows,
		GridCols:   v.cols,
		TotalLines: v.total,
	}
}

func (v *Viewport) TopLine() int { return v.top }

func (v *Viewport) GridRows() int { return v.rows }

// AtEnd reports whether the last content line is visible.
func (v *Viewport) AtEnd() bool { return v.bottom >= v.total }

// ScrollBy shifts the range by delta lines and returns the delta actually
// applied. Scrolling past either end saturates.
func (v *Viewport) ScrollBy(delta int) int {
	if delta == 0 {
		return 0
	}

	before := v.top
	top, bottom := v.top+delta, v.bottom+delta

	switch {
	case delta > 0 && bottom >= v.total:
		bottom = v.total
		top = max(0, v.total-v.rows)
	case delta < 0 && top <= 0:
		top = 0
		bottom = min(v.rows, v.total)
	}

	v.top, v.bottom = top, bottom
	return v.top - before
}

// ScrollTo positions the top of the range at line top, clamped, and
// returns the applied delta.
func (v *Viewport) ScrollTo(top int) int {
	before := v.top
	v.top = top
	v.settle()
	return v.top - before
}

// Resize replaces the grid dimensions. The top line is kept, so the bottom
// line moves by the change in rows until it reaches the end of content.
func (v *Viewport) Resize(rows, cols int) {
	v.rows, v.cols = max(rows, 0), max(cols, 0)
	v.settle()
}

// SetTotalLines updates the content length after a layout change.
func (v *Viewport) SetTotalLines(n int) {
	v.total = max(n, 0)
	v.settle()
}

// settle restores the invariants from the current top line. A full window
// is kept full; at the end of content the window is pulled back so it
// shows as many lines as exist.
func (v *Viewport) settle() {
	maxTop := max(0, v.total-v.rows)
	v.top = min(max(v.top, 0), maxTop)
	v.bottom = min(v.top+v.rows, v.total)
}
