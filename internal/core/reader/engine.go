// Package reader composes frames of a laid-out chapter: it maps the
// viewport onto styled lines, reserves rows for inline images and keeps the
// compositor in sync with what is on screen.
package reader

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/colonyops/folio/internal/core/compositor"
	"github.com/colonyops/folio/internal/core/overlay"
	"github.com/colonyops/folio/internal/core/styled"
	"github.com/colonyops/folio/internal/core/viewport"
)

// ErrLayoutRegeneration is returned when a new layout could not be produced
// and the previous one is kept.
var ErrLayoutRegeneration = errors.New("layout regeneration failed")

// Layouter produces styled lines wrapped to width columns.
type Layouter interface {
	Layout(width int) ([]styled.Line, error)
}

// LayoutFunc adapts a function to Layouter.
type LayoutFunc func(width int) ([]styled.Line, error)

func (f LayoutFunc) Layout(width int) ([]styled.Line, error) { return f(width) }

// Policy selects the unit of scrolling.
type Policy string

const (
	// PolicyAnchor scrolls by display rows, revealing a partially visible
	// image row by row before text advances.
	PolicyAnchor Policy = "anchor"
	// PolicyAdvance scrolls by text lines; an image block leaves the top in
	// a single step.
	PolicyAdvance Policy = "advance"
)

// ParsePolicy validates a policy name. Empty means PolicyAnchor.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyAnchor:
		return PolicyAnchor, nil
	case PolicyAdvance:
		return PolicyAdvance, nil
	default:
		return "", fmt.Errorf("unknown scroll policy %q", s)
	}
}

// DefaultPaddingDivisor leaves cols/8 blank columns on each side.
const DefaultPaddingDivisor = 8

// Options configures an Engine.
type Options struct {
	Policy         Policy
	PaddingDivisor int
	// Compositor draws overlays. Nil renders text only, with alt text in
	// place of images. A compositor that fails to start or stops accepting
	// writes switches the engine to text only for the rest of the session.
	Compositor overlay.Compositor
	Logger     zerolog.Logger
}

// Row is one grid row of a frame. Reserved rows belong to an image block
// and carry no text.
type Row struct {
	Line     int
	Spans    []styled.Span
	Reserved bool
}

// Frame is the composed content of the grid.
type Frame struct {
	Rows       []Row
	Placements []compositor.Placement
	Padding    int
	TextWidth  int
}

// Engine owns the viewport and layout of one chapter session.
//
// The viewport counts display rows: every line is one row plus the rows
// reserved for the images anchored to it. Image lines are measured the
// first time they come near the visible window.
type Engine struct {
	layout   Layouter
	overlays *overlay.Manager
	comp     overlay.Compositor
	textOnly bool
	policy   Policy
	divisor  int
	log      zerolog.Logger

	vp      *viewport.Viewport
	cols    int
	lines   []styled.Line
	images  map[int][]styled.Occurrence
	heights []int
	starts  []int
}

// New lays out the chapter for a grid of rows x cols. Failing to produce
// an initial layout is fatal to the chapter.
func New(layout Layouter, overlays *overlay.Manager, rows, cols int, opts Options) (*Engine, error) {
	if opts.Policy == "" {
		opts.Policy = PolicyAnchor
	}
	if opts.PaddingDivisor == 0 {
		opts.PaddingDivisor = DefaultPaddingDivisor
	}

	e := &Engine{
		layout:   layout,
		overlays: overlays,
		comp:     opts.Compositor,
		policy:   opts.Policy,
		divisor:  opts.PaddingDivisor,
		log:      opts.Logger,
		vp:       viewport.New(rows, cols, 0),
		cols:     cols,
	}

	lines, err := layout.Layout(e.textWidth())
	if err != nil {
		return nil, fmt.Errorf("layout chapter: %w", err)
	}
	e.setLines(lines)
	return e, nil
}

// State returns the viewport snapshot in display rows.
func (e *Engine) State() viewport.State {
	return e.vp.State()
}

// Lines returns the number of laid-out text lines.
func (e *Engine) Lines() int {
	return len(e.lines)
}

// Percent reports how far through the chapter the viewport is.
func (e *Engine) Percent() int {
	st := e.vp.State()
	scrollable := st.TotalLines - st.GridRows
	if scrollable <= 0 {
		return 100
	}
	return st.TopLine * 100 / scrollable
}

// Scroll moves the viewport by delta units of the active policy and
// returns the applied delta in display rows.
func (e *Engine) Scroll(ctx context.Context, delta int) int {
	if delta == 0 || len(e.lines) == 0 {
		return 0
	}

	var target int
	switch e.policy {
	case PolicyAdvance:
		target = e.lineTarget(ctx, delta)
	default:
		if delta > 0 {
			top := e.vp.TopLine()
			e.ensureWindow(ctx, top, top+e.vp.GridRows()+delta)
		} else {
			e.ensureAbove(ctx, -delta)
		}
		target = e.vp.TopLine() + delta
	}

	applied := e.vp.ScrollBy(target - e.vp.TopLine())
	e.overlays.Shift(applied)
	return applied
}

// Home jumps to the start of the chapter.
func (e *Engine) Home(ctx context.Context) int {
	applied := e.vp.ScrollTo(0)
	e.overlays.Shift(applied)
	e.ensureWindow(ctx, 0, e.vp.GridRows())
	return applied
}

// End jumps to the end of the chapter. Images measured on the way in can
// extend the chapter, so the jump repeats until the end is stable.
func (e *Engine) End(ctx context.Context) int {
	applied := 0
	for range 8 {
		total := e.vp.State().TotalLines
		step := e.vp.ScrollTo(total)
		e.overlays.Shift(step)
		applied += step

		top := e.vp.TopLine()
		e.ensureWindow(ctx, top, top+e.vp.GridRows())
		if e.vp.State().TotalLines == total {
			break
		}
	}
	return applied
}

// Resize regenerates the layout for a new grid. When the layout cannot be
// regenerated the previous lines are kept and ErrLayoutRegeneration is
// returned.
func (e *Engine) Resize(ctx context.Context, rows, cols int) error {
	e.vp.Resize(rows, cols)
	e.cols = cols
	e.overlays.SetGrid(rows, cols)

	lines, err := e.layout.Layout(e.textWidth())
	if err != nil {
		e.log.Warn().Ctx(ctx).Err(err).Int("rows", rows).Int("cols", cols).Msg("keeping previous layout")
		e.setLines(e.lines)
		return fmt.Errorf("%w: %w", ErrLayoutRegeneration, err)
	}
	e.setLines(lines)
	return nil
}

// Reload regenerates the layout at the current width, for example after
// the source changed on disk.
func (e *Engine) Reload(ctx context.Context) error {
	lines, err := e.layout.Layout(e.textWidth())
	if err != nil {
		e.log.Warn().Ctx(ctx).Err(err).Msg("reload failed, keeping previous layout")
		return fmt.Errorf("%w: %w", ErrLayoutRegeneration, err)
	}
	e.setLines(lines)
	return nil
}

// Hide removes every drawn overlay from the screen. The next Draw puts
// visible ones back.
func (e *Engine) Hide() error {
	if e.TextOnly() {
		return nil
	}
	return e.overlays.RemoveAll(e.comp)
}

// TextOnly reports whether images are shown as alt text.
func (e *Engine) TextOnly() bool {
	return e.comp == nil || e.textOnly
}

// Draw composes the visible frame and reconciles overlays with the
// compositor. A compositor error is returned alongside a complete frame.
// When the compositor cannot start or has stopped accepting writes, the
// returned frame is already laid out as text only.
func (e *Engine) Draw(ctx context.Context) (Frame, error) {
	f, placed := e.compose(ctx)
	if e.TextOnly() {
		return f, nil
	}

	placements, err := e.overlays.Reconcile(e.comp, placed, f.Padding, f.TextWidth)
	f.Placements = placements
	if err == nil {
		return f, nil
	}

	if errors.Is(err, compositor.ErrSpawnFailed) || errors.Is(err, compositor.ErrWriteFailed) {
		e.log.Warn().Ctx(ctx).Err(err).Msg("images unavailable, showing alt text")
		e.disableImages()
		f, _ = e.compose(ctx)
	}
	return f, fmt.Errorf("reconcile overlays: %w", err)
}

// disableImages collapses every image block to its text line, keeping the
// line at the top of the grid in place.
func (e *Engine) disableImages() {
	l := e.lineAt(e.vp.TopLine())
	e.textOnly = true
	for i := range e.heights {
		e.heights[i] = 1
	}
	e.recount()
	e.vp.ScrollTo(e.starts[l])
}

func (e *Engine) compose(ctx context.Context) (Frame, []overlay.Placed) {
	top := e.vp.TopLine()
	rows := e.vp.GridRows()
	e.ensureWindow(ctx, top, top+rows)
	top = e.vp.TopLine()

	f := Frame{Padding: e.padding(), TextWidth: e.textWidth()}
	var placed []overlay.Placed

	for l := e.lineAt(top); l < len(e.lines) && len(f.Rows) < rows; l++ {
		anchor := e.starts[l] - top
		p, shown := e.place(l, anchor)
		placed = append(placed, p...)

		if anchor < 0 {
			visible := min(anchor+e.heights[l], rows-len(f.Rows))
			for range visible {
				f.Rows = append(f.Rows, Row{Line: l, Reserved: true})
			}
			continue
		}

		f.Rows = append(f.Rows, Row{Line: l, Spans: withoutSpans(e.lines[l].Spans, shown)})

		reserved := 0
		for _, pl := range p {
			o := *pl.Overlay
			o.Offset = pl.Offset
			reserved += overlay.Consumed(&o, rows)
		}
		for range min(reserved, rows-len(f.Rows)) {
			f.Rows = append(f.Rows, Row{Line: l, Reserved: true})
		}
	}
	return f, placed
}

func (e *Engine) padding() int {
	if e.divisor <= 0 {
		return 0
	}
	return e.cols / e.divisor
}

func (e *Engine) textWidth() int {
	return max(1, e.cols-2*e.padding())
}

func (e *Engine) setLines(lines []styled.Line) {
	e.lines = lines
	e.images = map[int][]styled.Occurrence{}

	occs := styled.Images(lines)
	for _, occ := range occs {
		e.images[occ.Line] = append(e.images[occ.Line], occ)
	}
	e.overlays.Relayout(occs)

	e.heights = make([]int, len(lines))
	for l := range lines {
		e.heights[l] = e.measure(context.Background(), l, false)
	}
	e.recount()
}

func (e *Engine) recount() {
	e.starts = make([]int, len(e.lines)+1)
	for l, h := range e.heights {
		e.starts[l+1] = e.starts[l] + h
	}
	e.vp.SetTotalLines(e.starts[len(e.lines)])
}

// lineAt returns the line whose block contains display row.
func (e *Engine) lineAt(row int) int {
	n := len(e.lines)
	if n == 0 {
		return 0
	}
	l := sort.Search(n, func(i int) bool { return e.starts[i+1] > row })
	return min(l, n-1)
}

// measure returns the block height of line l. With create set, overlays
// seen for the first time are created.
func (e *Engine) measure(ctx context.Context, l int, create bool) int {
	h := 1
	if e.TextOnly() {
		return h
	}
	for _, occ := range e.images[l] {
		var (
			o  *overlay.Overlay
			ok bool
		)
		if create {
			o, ok = e.overlays.Ensure(ctx, occ, e.starts[l]-e.vp.TopLine()+h-1)
		} else {
			o, ok = e.overlays.Lookup(occ)
		}
		if ok {
			h += o.RowSpan
		}
	}
	return h
}

// ensureLine measures line l and returns how many rows its block grew.
func (e *Engine) ensureLine(ctx context.Context, l int) int {
	if len(e.images[l]) == 0 {
		return 0
	}
	h := e.measure(ctx, l, true)
	grew := h - e.heights[l]
	if grew != 0 {
		e.heights[l] = h
		e.recount()
	}
	return grew
}

// ensureWindow measures every line covering display rows [from, to).
func (e *Engine) ensureWindow(ctx context.Context, from, to int) {
	for l := e.lineAt(from); l < len(e.lines) && e.starts[l] < to; l++ {
		e.ensureLine(ctx, l)
	}
}

// ensureAbove measures lines above the top until need rows above it are
// known. Growth above the top moves the top by the same amount so the
// visible content stays put.
func (e *Engine) ensureAbove(ctx context.Context, need int) {
	for l := e.lineAt(e.vp.TopLine()) - 1; l >= 0; l-- {
		if grew := e.ensureLine(ctx, l); grew > 0 {
			e.vp.ScrollTo(e.vp.TopLine() + grew)
		}
		if e.vp.TopLine()-e.starts[l] >= need {
			return
		}
	}
}

// lineTarget returns the display row of the line delta lines away from the
// top, measuring the lines in between.
func (e *Engine) lineTarget(ctx context.Context, delta int) int {
	top := e.vp.TopLine()
	l := e.lineAt(top)
	if delta < 0 && top > e.starts[l] {
		delta++
	}
	target := min(max(l+delta, 0), len(e.lines)-1)

	if target >= l {
		e.ensureWindow(ctx, top, e.starts[target]+e.vp.GridRows())
		return e.starts[target]
	}

	for i := l - 1; i >= target; i-- {
		if grew := e.ensureLine(ctx, i); grew > 0 {
			e.vp.ScrollTo(e.vp.TopLine() + grew)
		}
	}
	return e.starts[target]
}

// place positions the drawable overlays of line l with its anchor row at
// screen row anchor. It also reports which spans are covered by an image.
func (e *Engine) place(l, anchor int) ([]overlay.Placed, map[int]bool) {
	if e.TextOnly() || len(e.images[l]) == 0 {
		return nil, nil
	}

	var (
		placed []overlay.Placed
		shown  = map[int]bool{}
		y      = anchor
	)
	for _, occ := range e.images[l] {
		o, ok := e.overlays.Lookup(occ)
		if !ok || o.RowSpan == 0 {
			continue
		}
		placed = append(placed, overlay.Placed{Overlay: o, Offset: y})
		shown[occ.Span] = true
		y += o.RowSpan
	}
	return placed, shown
}

func withoutSpans(spans []styled.Span, drop map[int]bool) []styled.Span {
	if len(drop) == 0 {
		return spans
	}
	out := make([]styled.Span, 0, len(spans))
	for i, s := range spans {
		if !drop[i] {
			out = append(out, s)
		}
	}
	return out
}
