package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/folio/internal/core/compositor"
	"github.com/colonyops/folio/internal/core/logging"
	"github.com/colonyops/folio/internal/core/overlay"
	"github.com/colonyops/folio/internal/core/reader"
	"github.com/colonyops/folio/internal/core/resource"
	"github.com/colonyops/folio/internal/core/styled"
	"github.com/colonyops/folio/internal/markup"
)

// chapterSource holds the parsed chapter so a reload can swap the document
// under a running engine.
type chapterSource struct {
	doc *markup.Document
}

func (s *chapterSource) Layout(width int) ([]styled.Line, error) {
	return s.doc.Layout(width)
}

// session is everything scoped to one open chapter: overlay identifiers,
// the scratch directory and the viewport.
type session struct {
	id       string
	chapter  int
	ctx      context.Context
	log      zerolog.Logger
	source   *chapterSource
	cache    *resource.Cache
	overlays *overlay.Manager
	engine   *reader.Engine
}

// openSession parses chapter i of the book and lays it out for the grid.
func (m *Model) openSession(i, rows, cols int) (*session, error) {
	id := uuid.NewString()
	ctx := logging.WithChapter(logging.WithSessionID(m.ctx, id), i)
	logger := m.log.With().Str("session_id", id).Int("chapter", i).Logger()

	doc, err := m.deps.Book.Chapter(ctx, i)
	if err != nil {
		return nil, fmt.Errorf("open chapter %d: %w", i+1, err)
	}

	cfg := m.deps.Config
	cache, err := resource.New(m.deps.Book.Resources(i), cfg.Reader.ScratchDir)
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	// Config is validated on load; fall back to defaults for zero values.
	scaler, _ := compositor.ParseScaler(cfg.Compositor.Scaler)
	policy, _ := reader.ParsePolicy(cfg.Reader.ScrollPolicy)

	overlays := overlay.NewManager(overlay.Options{
		Resolver: cache,
		Probe:    overlay.ProbeFile,
		Pixels:   m.deps.Pixels,
		Scaler:   scaler,
		Session:  id,
		Logger:   logging.Tag(logger, "overlay"),
	}, rows, cols)

	opts := reader.Options{
		Policy:         policy,
		PaddingDivisor: cfg.Reader.PaddingDivisor,
		Logger:         logging.Tag(logger, "reader"),
	}
	if m.deps.Compositor != nil {
		opts.Compositor = m.deps.Compositor
	}

	src := &chapterSource{doc: doc}
	engine, err := reader.New(src, overlays, rows, cols, opts)
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	logger.Info().Ctx(ctx).Str("title", m.deps.Book.ChapterTitle(i)).Int("lines", engine.Lines()).Msg("chapter opened")

	return &session{
		id:       id,
		chapter:  i,
		ctx:      ctx,
		log:      logger,
		source:   src,
		cache:    cache,
		overlays: overlays,
		engine:   engine,
	}, nil
}

// close erases the session's overlays and removes its scratch directory.
func (s *session) close() error {
	var errs []error
	if err := s.engine.Hide(); err != nil {
		errs = append(errs, fmt.Errorf("remove overlays: %w", err))
	}
	if err := s.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("remove scratch dir: %w", err))
	}
	s.log.Debug().Ctx(s.ctx).Int("fetches", s.cache.Fetches()).Msg("chapter closed")
	return errors.Join(errs...)
}

// reload parses the chapter again and regenerates the layout in place.
func (s *session) reload(m *Model) error {
	doc, err := m.deps.Book.Chapter(s.ctx, s.chapter)
	if err != nil {
		return fmt.Errorf("reload chapter: %w", err)
	}
	prev := s.source.doc
	s.source.doc = doc
	if err := s.engine.Reload(s.ctx); err != nil {
		s.source.doc = prev
		return err
	}
	return nil
}
