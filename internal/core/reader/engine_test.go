package reader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/folio/internal/core/compositor"
	"github.com/colonyops/folio/internal/core/overlay"
	"github.com/colonyops/folio/internal/core/resource"
	"github.com/colonyops/folio/internal/core/styled"
	"github.com/colonyops/folio/internal/core/terminal"
)

type recordingCompositor struct {
	draws   [][]compositor.Placement
	removed []string
}

func (c *recordingCompositor) Draw(placements ...compositor.Placement) error {
	c.draws = append(c.draws, placements)
	return nil
}

func (c *recordingCompositor) Remove(ids ...string) error {
	c.removed = append(c.removed, ids...)
	return nil
}

func (c *recordingCompositor) last() []compositor.Placement {
	if len(c.draws) == 0 {
		return nil
	}
	return c.draws[len(c.draws)-1]
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// document returns n plain lines with an image line at each key of images.
func document(n int, images map[int]string) []styled.Line {
	lines := make([]styled.Line, n)
	for i := range lines {
		if ref, ok := images[i]; ok {
			lines[i] = styled.Line{Spans: []styled.Span{{Text: "[" + ref + "]", Kind: styled.ImageRef, Target: ref}}}
			continue
		}
		lines[i] = styled.Line{Spans: []styled.Span{{Text: fmt.Sprintf("line %d", i)}}}
	}
	return lines
}

type harness struct {
	engine *Engine
	comp   *recordingCompositor
	cache  *resource.Cache
	mgr    *overlay.Manager
}

type harnessOpts struct {
	lines    []styled.Line
	layout   Layouter
	files    map[string][]byte
	policy   Policy
	noImages bool
	rows     int
	cols     int
}

func newHarness(t *testing.T, o harnessOpts) *harness {
	t.Helper()

	if o.rows == 0 {
		o.rows = 30
	}
	if o.cols == 0 {
		o.cols = 80
	}
	if o.layout == nil {
		lines := o.lines
		o.layout = LayoutFunc(func(int) ([]styled.Line, error) { return lines, nil })
	}

	provider := resource.ProviderFunc(func(_ context.Context, ref string) ([]byte, error) {
		data, ok := o.files[ref]
		if !ok {
			return nil, errors.New("no such entry")
		}
		return data, nil
	})
	cache, err := resource.New(provider, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	mgr := overlay.NewManager(overlay.Options{
		Resolver: cache,
		Pixels:   terminal.FixedPixels(1600, 800),
		Session:  "test",
		Logger:   zerolog.Nop(),
	}, o.rows, o.cols)

	h := &harness{comp: &recordingCompositor{}, cache: cache, mgr: mgr}

	opts := Options{Policy: o.policy, Logger: zerolog.Nop()}
	if !o.noImages {
		opts.Compositor = h.comp
	}

	h.engine, err = New(o.layout, mgr, o.rows, o.cols, opts)
	require.NoError(t, err)
	return h
}

func (h *harness) draw(t *testing.T) Frame {
	t.Helper()
	f, err := h.engine.Draw(context.Background())
	require.NoError(t, err)
	return f
}

func rowText(r Row) string {
	return styled.Line{Spans: r.Spans}.Text()
}

func TestEngine_TextOnlyFollowsViewport(t *testing.T) {
	h := newHarness(t, harnessOpts{lines: document(100, nil)})
	ctx := context.Background()

	assert.Equal(t, 10, h.engine.Scroll(ctx, 10))
	f := h.draw(t)
	require.Len(t, f.Rows, 30)
	assert.Equal(t, "line 10", rowText(f.Rows[0]))
	assert.Equal(t, "line 39", rowText(f.Rows[29]))

	assert.Equal(t, 60, h.engine.Scroll(ctx, 65))
	st := h.engine.State()
	assert.Equal(t, 70, st.TopLine)
	assert.Equal(t, 100, st.BottomLine)
	assert.Equal(t, 100, h.engine.Percent())

	assert.Equal(t, 0, h.engine.Scroll(ctx, 1))
	assert.Empty(t, h.comp.draws)
}

func TestEngine_PaddingNarrowsLayout(t *testing.T) {
	var widths []int
	layout := LayoutFunc(func(width int) ([]styled.Line, error) {
		widths = append(widths, width)
		return document(5, nil), nil
	})

	h := newHarness(t, harnessOpts{layout: layout, cols: 80})
	f := h.draw(t)

	assert.Equal(t, []int{60}, widths)
	assert.Equal(t, 10, f.Padding)
	assert.Equal(t, 60, f.TextWidth)
}

func TestEngine_OverlayScrollsWithItsLine(t *testing.T) {
	h := newHarness(t, harnessOpts{
		lines: document(100, map[int]string{50: "fig.png"}),
		files: map[string][]byte{"fig.png": pngBytes(t, 200, 140)},
	})
	ctx := context.Background()

	h.engine.Scroll(ctx, 48)
	f := h.draw(t)

	require.Len(t, f.Placements, 1)
	p := f.Placements[0]
	assert.Equal(t, 2, p.Y)
	assert.Equal(t, 6, p.Height)
	assert.Equal(t, 10, p.X)
	assert.Equal(t, 60, p.Width)

	require.Len(t, f.Rows, 30)
	assert.Equal(t, 50, f.Rows[2].Line)
	assert.Empty(t, f.Rows[2].Spans, "alt text is hidden under a drawn image")
	for i := 3; i <= 8; i++ {
		assert.True(t, f.Rows[i].Reserved, "row %d", i)
	}
	assert.Equal(t, "line 51", rowText(f.Rows[9]))

	h.engine.Scroll(ctx, 5)
	f = h.draw(t)
	require.Len(t, f.Placements, 1)
	assert.Equal(t, -3, f.Placements[0].Y)
	assert.Equal(t, p.ID, f.Placements[0].ID)
	for i := 0; i < 4; i++ {
		assert.True(t, f.Rows[i].Reserved, "row %d", i)
	}
	assert.Equal(t, "line 51", rowText(f.Rows[4]))

	h.engine.Scroll(ctx, 4)
	f = h.draw(t)
	assert.Empty(t, f.Placements)
	assert.Equal(t, "line 51", rowText(f.Rows[0]))
	assert.Equal(t, []string{p.ID}, h.comp.removed)

	require.Len(t, h.mgr.Overlays(), 1)
	assert.Equal(t, -7, h.mgr.Overlays()[0].Offset)
}

func TestEngine_ScrollBackRevealsImageRowByRow(t *testing.T) {
	h := newHarness(t, harnessOpts{
		lines: document(100, map[int]string{50: "fig.png"}),
		files: map[string][]byte{"fig.png": pngBytes(t, 200, 140)},
	})
	ctx := context.Background()

	h.engine.Scroll(ctx, 57)
	require.Equal(t, 57, h.engine.State().TopLine)

	assert.Equal(t, -1, h.engine.Scroll(ctx, -1))
	f := h.draw(t)
	assert.Empty(t, f.Placements, "only the gap row of the block is visible")
	assert.True(t, f.Rows[0].Reserved)
	assert.Equal(t, "line 51", rowText(f.Rows[1]))

	h.engine.Scroll(ctx, -1)
	f = h.draw(t)
	require.Len(t, f.Placements, 1)
	assert.Equal(t, -5, f.Placements[0].Y)
}

func TestEngine_AdvancePolicySkipsWholeBlocks(t *testing.T) {
	h := newHarness(t, harnessOpts{
		lines:  document(100, map[int]string{50: "fig.png"}),
		files:  map[string][]byte{"fig.png": pngBytes(t, 200, 140)},
		policy: PolicyAdvance,
	})
	ctx := context.Background()

	assert.Equal(t, 48, h.engine.Scroll(ctx, 48))
	assert.Equal(t, 2, h.engine.Scroll(ctx, 2))
	assert.Equal(t, 7, h.engine.Scroll(ctx, 1), "image block leaves in one step")

	f := h.draw(t)
	assert.Equal(t, "line 51", rowText(f.Rows[0]))
	assert.Empty(t, f.Placements)

	assert.Equal(t, -7, h.engine.Scroll(ctx, -1))
	f = h.draw(t)
	require.Len(t, f.Placements, 1)
	assert.Equal(t, 0, f.Placements[0].Y)
}

func TestEngine_MissingImageShowsAltText(t *testing.T) {
	h := newHarness(t, harnessOpts{lines: document(10, map[int]string{2: "gone.png"})})

	f := h.draw(t)
	assert.Empty(t, f.Placements)
	require.Len(t, f.Rows, 10)
	assert.Equal(t, "[gone.png]", rowText(f.Rows[2]))
	assert.Equal(t, styled.ImageRef, f.Rows[2].Spans[0].Kind)
	assert.Equal(t, "line 3", rowText(f.Rows[3]))
}

func TestEngine_UnsupportedImageShowsAltText(t *testing.T) {
	h := newHarness(t, harnessOpts{
		lines: document(10, map[int]string{2: "art.svg"}),
		files: map[string][]byte{"art.svg": []byte("<svg/>")},
	})

	f := h.draw(t)
	assert.Empty(t, f.Placements)
	assert.Equal(t, "[art.svg]", rowText(f.Rows[2]))
	assert.Equal(t, "line 3", rowText(f.Rows[3]))
}

func TestEngine_WithoutCompositorNeverExtracts(t *testing.T) {
	h := newHarness(t, harnessOpts{
		lines:    document(10, map[int]string{2: "fig.png"}),
		files:    map[string][]byte{"fig.png": pngBytes(t, 200, 140)},
		noImages: true,
	})

	f := h.draw(t)
	assert.Empty(t, f.Placements)
	assert.Equal(t, "[fig.png]", rowText(f.Rows[2]))
	assert.Equal(t, 0, h.cache.Fetches())
}

func TestEngine_ImagesExtractedOnlyWhenNear(t *testing.T) {
	h := newHarness(t, harnessOpts{
		lines: document(200, map[int]string{150: "late.png"}),
		files: map[string][]byte{"late.png": pngBytes(t, 200, 140)},
	})

	h.draw(t)
	assert.Equal(t, 0, h.cache.Fetches())

	h.engine.Scroll(context.Background(), 130)
	h.draw(t)
	h.draw(t)
	assert.Equal(t, 1, h.cache.Fetches())
}

func TestEngine_EndShowsLastLine(t *testing.T) {
	h := newHarness(t, harnessOpts{
		lines: document(100, map[int]string{90: "fig.png"}),
		files: map[string][]byte{"fig.png": pngBytes(t, 200, 140)},
	})
	ctx := context.Background()

	h.engine.End(ctx)
	f := h.draw(t)
	require.Len(t, f.Rows, 30)
	assert.Equal(t, "line 99", rowText(f.Rows[29]))
	assert.Equal(t, 106, h.engine.State().TotalLines)
	assert.Equal(t, 0, h.engine.Scroll(ctx, 1))

	h.engine.Home(ctx)
	f = h.draw(t)
	assert.Equal(t, "line 0", rowText(f.Rows[0]))
}

func TestEngine_ResizeKeepsOverlayIdentity(t *testing.T) {
	layout := LayoutFunc(func(width int) ([]styled.Line, error) {
		// Narrower layouts push the image further down.
		pad := 0
		if width < 60 {
			pad = 5
		}
		return document(100+pad, map[int]string{10 + pad: "fig.png"}), nil
	})

	h := newHarness(t, harnessOpts{
		layout: layout,
		files:  map[string][]byte{"fig.png": pngBytes(t, 200, 140)},
	})
	ctx := context.Background()

	f := h.draw(t)
	require.Len(t, f.Placements, 1)
	id := f.Placements[0].ID

	require.NoError(t, h.engine.Resize(ctx, 40, 60))
	f = h.draw(t)
	require.Len(t, f.Placements, 1)
	assert.Equal(t, id, f.Placements[0].ID)
	assert.Equal(t, 15, f.Placements[0].Y)
	assert.Equal(t, 8, f.Placements[0].Height)
	assert.Equal(t, 40, h.engine.State().GridRows)
	assert.Equal(t, 1, h.cache.Fetches())
}

func TestEngine_ResizeFailureKeepsLayout(t *testing.T) {
	calls := 0
	boom := errors.New("renderer crashed")
	layout := LayoutFunc(func(int) ([]styled.Line, error) {
		calls++
		if calls > 1 {
			return nil, boom
		}
		return document(50, nil), nil
	})

	h := newHarness(t, harnessOpts{layout: layout})

	err := h.engine.Resize(context.Background(), 20, 100)
	require.ErrorIs(t, err, ErrLayoutRegeneration)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 50, h.engine.Lines())
	f := h.draw(t)
	assert.Len(t, f.Rows, 20)
	assert.Equal(t, "line 0", rowText(f.Rows[0]))

	assert.ErrorIs(t, h.engine.Reload(context.Background()), ErrLayoutRegeneration)
}

func TestEngine_InitialLayoutFailureIsFatal(t *testing.T) {
	_, err := New(LayoutFunc(func(int) ([]styled.Line, error) {
		return nil, errors.New("bad markup")
	}), overlay.NewManager(overlay.Options{Logger: zerolog.Nop()}, 30, 80), 30, 80, Options{})
	assert.Error(t, err)
}

func TestEngine_HideRemovesDrawnOverlays(t *testing.T) {
	h := newHarness(t, harnessOpts{
		lines: document(20, map[int]string{1: "fig.png"}),
		files: map[string][]byte{"fig.png": pngBytes(t, 200, 140)},
	})

	f := h.draw(t)
	require.Len(t, f.Placements, 1)

	require.NoError(t, h.engine.Hide())
	assert.Equal(t, []string{f.Placements[0].ID}, h.comp.removed)

	h.draw(t)
	assert.Len(t, h.comp.draws, 2)
	assert.Equal(t, f.Placements, h.comp.last())
}

type failingCompositor struct {
	err   error
	calls int
}

func (c *failingCompositor) Draw(...compositor.Placement) error {
	c.calls++
	return c.err
}

func (c *failingCompositor) Remove(...string) error {
	c.calls++
	return c.err
}

func TestEngine_CompositorFailureFallsBackToAltText(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "spawn failed", err: fmt.Errorf("%w: exec: not found", compositor.ErrSpawnFailed)},
		{name: "write failed", err: fmt.Errorf("%w: broken pipe", compositor.ErrWriteFailed)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, harnessOpts{
				lines: document(20, map[int]string{2: "fig.png"}),
				files: map[string][]byte{"fig.png": pngBytes(t, 200, 140)},
			})
			comp := &failingCompositor{err: tt.err}
			h.engine.comp = comp

			f, err := h.engine.Draw(context.Background())
			require.ErrorIs(t, err, tt.err)
			assert.True(t, h.engine.TextOnly())
			assert.Empty(t, f.Placements)

			require.Len(t, f.Rows, 20)
			assert.Equal(t, "[fig.png]", rowText(f.Rows[2]))
			assert.Equal(t, "line 3", rowText(f.Rows[3]))
			for _, r := range f.Rows {
				assert.False(t, r.Reserved, "no rows are reserved for an undrawable image")
			}
			assert.Equal(t, 20, h.engine.State().TotalLines)

			calls := comp.calls
			f = h.draw(t)
			assert.Equal(t, "[fig.png]", rowText(f.Rows[2]))
			require.NoError(t, h.engine.Hide())
			assert.Equal(t, calls, comp.calls, "a failed compositor is not used again")
		})
	}
}

func TestEngine_CompositorFailureKeepsTopLine(t *testing.T) {
	h := newHarness(t, harnessOpts{
		lines: document(100, map[int]string{5: "a.png", 30: "b.png"}),
		files: map[string][]byte{
			"a.png": pngBytes(t, 200, 140),
			"b.png": pngBytes(t, 200, 140),
		},
	})
	ctx := context.Background()

	h.draw(t)
	h.engine.Scroll(ctx, 14)
	before := h.draw(t)
	require.False(t, before.Rows[0].Reserved)
	require.NotEmpty(t, before.Placements, "the second image is on screen")

	h.engine.comp = &failingCompositor{err: compositor.ErrWriteFailed}
	f, err := h.engine.Draw(ctx)
	require.Error(t, err)
	assert.Equal(t, rowText(before.Rows[0]), rowText(f.Rows[0]), "collapsing images above keeps the top line")
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyAnchor, p)

	p, err = ParsePolicy("advance")
	require.NoError(t, err)
	assert.Equal(t, PolicyAdvance, p)

	_, err = ParsePolicy("sideways")
	assert.Error(t, err)
}
