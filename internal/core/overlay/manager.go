package overlay

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/folio/internal/core/compositor"
	"github.com/colonyops/folio/internal/core/styled"
	"github.com/colonyops/folio/internal/core/terminal"
)

// Resolver materializes an image reference to a local file.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Compositor is the drawing surface overlays are reconciled against.
type Compositor interface {
	Draw(placements ...compositor.Placement) error
	Remove(ids ...string) error
}

// Options configures a Manager.
type Options struct {
	Resolver Resolver
	Probe    ProbeFunc
	Pixels   terminal.PixelSizer
	Scaler   compositor.Scaler
	// Session prefixes every overlay ID so identifiers never collide across
	// chapter sessions.
	Session string
	Logger  zerolog.Logger
}

// Placed is an overlay positioned for a frame.
type Placed struct {
	Overlay *Overlay
	Offset  int
}

type occurrenceKey struct {
	ref   string
	index int
}

// Manager owns every overlay of one chapter session. Overlays are created
// on first sight and live until the session ends.
type Manager struct {
	opts Options
	log  zerolog.Logger

	gridRows    int
	gridCols    int
	pixelHeight int

	overlays []*Overlay
	byKey    map[occurrenceKey]*Overlay
	missing  map[string]struct{}
	drawn    map[string]struct{}
}

// NewManager returns a manager for a grid of rows x cols.
func NewManager(opts Options, rows, cols int) *Manager {
	if opts.Probe == nil {
		opts.Probe = ProbeFile
	}
	m := &Manager{
		opts:    opts,
		log:     opts.Logger,
		byKey:   map[occurrenceKey]*Overlay{},
		missing: map[string]struct{}{},
		drawn:   map[string]struct{}{},
	}
	m.SetGrid(rows, cols)
	return m
}

// SetGrid records new grid dimensions, re-reads the terminal pixel size and
// recomputes every overlay's row span.
func (m *Manager) SetGrid(rows, cols int) {
	m.gridRows, m.gridCols = rows, cols
	m.pixelHeight = 0

	if m.opts.Pixels != nil {
		_, h, err := m.opts.Pixels()
		if err != nil {
			m.log.Warn().Err(err).Msg("terminal pixel size unknown, images get zero rows")
		} else {
			m.pixelHeight = h
		}
	}

	for _, o := range m.overlays {
		o.RowSpan = RowSpan(m.gridRows, o.PixelHeight, m.pixelHeight)
	}
}

// Ensure returns the overlay for occ, creating it on first encounter with
// the given screen offset. It returns false when the reference cannot be
// resolved, in which case the caller shows alt text.
func (m *Manager) Ensure(ctx context.Context, occ styled.Occurrence, offset int) (*Overlay, bool) {
	k := occurrenceKey{ref: occ.Reference, index: occ.Index}
	if o, ok := m.byKey[k]; ok {
		return o, true
	}
	if _, gone := m.missing[occ.Reference]; gone || m.opts.Resolver == nil {
		return nil, false
	}

	path, err := m.opts.Resolver.Resolve(ctx, occ.Reference)
	if err != nil {
		m.log.Warn().Ctx(ctx).Err(err).Str("reference", occ.Reference).Msg("image unavailable, showing alt text")
		m.missing[occ.Reference] = struct{}{}
		return nil, false
	}

	o := &Overlay{
		ID:         m.id(occ),
		Reference:  occ.Reference,
		Path:       path,
		AnchorLine: occ.Line,
		Span:       occ.Span,
		Occurrence: occ.Index,
		Offset:     offset,
	}

	w, h, err := m.opts.Probe(path)
	if err != nil {
		if !errors.Is(err, ErrUnsupportedImageFormat) {
			err = fmt.Errorf("%w: %w", ErrUnsupportedImageFormat, err)
		}
		m.log.Warn().Ctx(ctx).Err(err).Str("reference", occ.Reference).Msg("image dimensions unknown, reserving no rows")
	} else {
		o.PixelWidth, o.PixelHeight = w, h
	}
	o.RowSpan = RowSpan(m.gridRows, o.PixelHeight, m.pixelHeight)

	m.byKey[k] = o
	m.overlays = append(m.overlays, o)
	return o, true
}

// Lookup returns an existing overlay for occ without creating one.
func (m *Manager) Lookup(occ styled.Occurrence) (*Overlay, bool) {
	o, ok := m.byKey[occurrenceKey{ref: occ.Reference, index: occ.Index}]
	return o, ok
}

// Overlays returns every known overlay in creation order.
func (m *Manager) Overlays() []*Overlay {
	return m.overlays
}

// Shift moves every overlay by an applied scroll delta.
func (m *Manager) Shift(delta int) {
	if delta == 0 {
		return
	}
	for _, o := range m.overlays {
		o.Offset -= delta
	}
}

// Relayout re-anchors overlays to their occurrences in a regenerated
// layout and recomputes row spans for the current grid.
func (m *Manager) Relayout(occs []styled.Occurrence) {
	for _, occ := range occs {
		if o, ok := m.byKey[occurrenceKey{ref: occ.Reference, index: occ.Index}]; ok {
			o.AnchorLine = occ.Line
			o.Span = occ.Span
		}
	}
	for _, o := range m.overlays {
		o.RowSpan = RowSpan(m.gridRows, o.PixelHeight, m.pixelHeight)
	}
}

// Reconcile records the frame offsets, removes overlays that were drawn
// before but are no longer eligible, and draws every eligible overlay once
// at column x with the given cell width. The placements sent are returned.
func (m *Manager) Reconcile(c Compositor, frame []Placed, x, width int) ([]compositor.Placement, error) {
	var (
		placements []compositor.Placement
		seen       = map[string]struct{}{}
	)

	for _, p := range frame {
		o := p.Overlay
		o.Offset = p.Offset
		if !Eligible(o, m.gridRows) {
			continue
		}
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}

		placements = append(placements, compositor.Placement{
			ID:     o.ID,
			Path:   o.Path,
			X:      x,
			Y:      o.Offset,
			Width:  width,
			Height: o.RowSpan,
			Scaler: m.opts.Scaler,
		})
	}

	if c == nil {
		return placements, nil
	}

	var stale []string
	for _, o := range m.overlays {
		if _, drawn := m.drawn[o.ID]; !drawn {
			continue
		}
		if _, visible := seen[o.ID]; !visible {
			stale = append(stale, o.ID)
		}
	}
	if len(stale) > 0 {
		if err := c.Remove(stale...); err != nil {
			return placements, err
		}
		for _, id := range stale {
			delete(m.drawn, id)
		}
	}

	if len(placements) == 0 {
		return placements, nil
	}
	if err := c.Draw(placements...); err != nil {
		return placements, err
	}
	for _, p := range placements {
		m.drawn[p.ID] = struct{}{}
	}
	return placements, nil
}

// RemoveAll erases every overlay that has been drawn.
func (m *Manager) RemoveAll(c Compositor) error {
	if c == nil || len(m.drawn) == 0 {
		return nil
	}

	ids := make([]string, 0, len(m.drawn))
	for _, o := range m.overlays {
		if _, ok := m.drawn[o.ID]; ok {
			ids = append(ids, o.ID)
		}
	}
	m.drawn = map[string]struct{}{}
	return c.Remove(ids...)
}

func (m *Manager) id(occ styled.Occurrence) string {
	return fmt.Sprintf("%s:%s#%d", m.opts.Session, occ.Reference, occ.Index)
}
