// Package tui implements the Bubble Tea reader for folio.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/colonyops/folio/internal/book"
	"github.com/colonyops/folio/internal/core/compositor"
	"github.com/colonyops/folio/internal/core/config"
	"github.com/colonyops/folio/internal/core/logging"
	"github.com/colonyops/folio/internal/core/notify"
	"github.com/colonyops/folio/internal/core/reader"
	"github.com/colonyops/folio/internal/core/recent"
	"github.com/colonyops/folio/internal/core/terminal"
)

// footerHeight is the number of rows below the reading grid.
const footerHeight = 1

// Deps are the collaborators of the reader. Compositor, Recent and
// Watcher are optional.
type Deps struct {
	Book       book.Book
	Config     *config.Config
	Compositor *compositor.Client
	Pixels     terminal.PixelSizer
	Recent     recent.Store
	Watcher    *book.Watcher
	Bus        *notify.Bus
	Logger     zerolog.Logger
}

// Opts are per-run options.
type Opts struct {
	// Chapter is the zero based chapter to open first.
	Chapter int
}

type sourceChangedMsg book.Change

// Model is the reader. Every message is processed to completion,
// including compositor reconciliation, before the next one.
type Model struct {
	ctx  context.Context
	deps Deps
	keys KeyMap
	log  zerolog.Logger

	width   int
	height  int
	chapter int

	sess       *session
	frame      reader.Frame
	chapterErr error
	lastErr    string

	showHelp bool
	help     *helpView

	toasts    *ToastController
	toastView *ToastView
}

// New creates the reader model. Nothing is opened until the first window
// size is known.
func New(ctx context.Context, deps Deps, opts Opts) *Model {
	if deps.Bus == nil {
		deps.Bus = notify.NewBus()
	}
	if deps.Pixels == nil {
		deps.Pixels = terminal.StdoutPixels()
	}

	keys := DefaultKeyMap()
	toasts := NewToastController()

	m := &Model{
		ctx:       ctx,
		deps:      deps,
		keys:      keys,
		log:       logging.Tag(deps.Logger, "tui"),
		chapter:   clampChapter(opts.Chapter, deps.Book.Len()),
		help:      newHelpView(keys),
		toasts:    toasts,
		toastView: NewToastView(toasts),
	}
	deps.Bus.Subscribe(toasts.Push)
	return m
}

func clampChapter(i, n int) int {
	return max(0, min(i, n-1))
}

// Chapter returns the zero based index of the open chapter.
func (m *Model) Chapter() int {
	return m.chapter
}

func (m *Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	case sourceChangedMsg:
		m.handleSourceChanged(msg)
		cmd = m.waitForChange()
	case toastTickMsg:
		m.toasts.Tick(toastTickInterval)
		m.toasts.SetTicking(false)
	}

	return m, tea.Batch(cmd, m.ensureToastTick())
}

func (m *Model) gridRows() int {
	return max(1, m.height-footerHeight)
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	if m.sess == nil {
		m.open(m.chapter)
		return
	}

	if err := m.sess.engine.Resize(m.sess.ctx, m.gridRows(), m.width); err != nil {
		m.deps.Bus.Warnf("%v", err)
	}
	m.redraw()
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.toggleHelp()
		return nil
	case m.showHelp:
		if key.Matches(msg, m.keys.Dismiss) {
			m.toggleHelp()
		}
		return nil
	case key.Matches(msg, m.keys.Next):
		m.changeChapter(1)
		return nil
	case key.Matches(msg, m.keys.Prev):
		m.changeChapter(-1)
		return nil
	}

	if m.sess == nil {
		return nil
	}

	ctx, engine := m.sess.ctx, m.sess.engine
	half := max(1, m.gridRows()/2)

	switch {
	case key.Matches(msg, m.keys.Down):
		engine.Scroll(ctx, 1)
	case key.Matches(msg, m.keys.Up):
		engine.Scroll(ctx, -1)
	case key.Matches(msg, m.keys.HalfDown):
		engine.Scroll(ctx, half)
	case key.Matches(msg, m.keys.HalfUp):
		engine.Scroll(ctx, -half)
	case key.Matches(msg, m.keys.Top):
		engine.Home(ctx)
	case key.Matches(msg, m.keys.Bottom):
		engine.End(ctx)
	default:
		return nil
	}

	m.redraw()
	return nil
}

func (m *Model) toggleHelp() {
	m.showHelp = !m.showHelp
	if m.showHelp {
		if m.sess != nil {
			if err := m.sess.engine.Hide(); err != nil {
				m.reportDrawError(err)
			}
		}
		return
	}
	m.redraw()
}

func (m *Model) handleSourceChanged(msg sourceChangedMsg) {
	if m.sess == nil {
		m.open(m.chapter)
		return
	}

	m.log.Debug().Ctx(m.sess.ctx).Str("path", msg.Path).Msg("source changed")
	if err := m.sess.reload(m); err != nil {
		m.deps.Bus.Warnf("reload failed: %v", err)
		return
	}
	m.deps.Bus.Infof("reloaded %s", m.deps.Book.ChapterTitle(m.chapter))
	m.redraw()
}

func (m *Model) waitForChange() tea.Cmd {
	w := m.deps.Watcher
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := w.Next(m.ctx)
		if !ok {
			return nil
		}
		return sourceChangedMsg(change)
	}
}

func (m *Model) ensureToastTick() tea.Cmd {
	if !m.toasts.HasToasts() || m.toasts.Ticking() {
		return nil
	}
	m.toasts.SetTicking(true)
	return scheduleToastTick()
}

// changeChapter ends the current chapter session and opens the chapter
// delta positions away. Moving past either end does nothing. A compositor
// disabled by a write failure gets a fresh process for the new chapter.
func (m *Model) changeChapter(delta int) {
	target := m.chapter + delta
	if target < 0 || target >= m.deps.Book.Len() {
		return
	}

	m.endSession()
	if c := m.deps.Compositor; c != nil && c.Broken() {
		if err := c.Restart(); err != nil {
			m.log.Warn().Err(err).Msg("restart compositor")
		}
	}
	m.open(target)
}

// open starts a session for chapter i. A failure leaves the reader on the
// chapter with the error shown in place of the text.
func (m *Model) open(i int) {
	m.chapter = i
	m.chapterErr = nil
	m.lastErr = ""
	m.frame = reader.Frame{}

	sess, err := m.openSession(i, m.gridRows(), m.width)
	if err != nil {
		m.log.Error().Ctx(m.ctx).Err(err).Int("chapter", i).Msg("open chapter")
		m.chapterErr = err
		m.deps.Bus.Errorf("%v", err)
		return
	}
	m.sess = sess
	m.touchRecent()
	m.redraw()
}

func (m *Model) endSession() {
	if m.sess == nil {
		return
	}
	if err := m.sess.close(); err != nil {
		m.log.Warn().Ctx(m.sess.ctx).Err(err).Msg("close chapter")
	}
	m.sess = nil
}

// Close ends the open chapter session. The compositor is owned by the
// caller.
func (m *Model) Close() {
	m.endSession()
}

func (m *Model) touchRecent() {
	if m.deps.Recent == nil {
		return
	}
	entry := recent.Entry{
		Title:    m.deps.Book.Title(),
		Path:     m.deps.Book.Path(),
		Chapter:  m.chapter,
		OpenedAt: time.Now(),
	}
	if err := m.deps.Recent.Touch(m.ctx, entry, m.deps.Config.History.MaxEntries); err != nil {
		m.log.Warn().Err(err).Str("path", entry.Path).Msg("update recently read")
	}
}

// redraw composes the visible frame and reconciles overlays.
func (m *Model) redraw() {
	if m.sess == nil || m.showHelp {
		return
	}

	frame, err := m.sess.engine.Draw(m.sess.ctx)
	m.frame = frame
	if err != nil {
		m.reportDrawError(err)
		return
	}
	m.lastErr = ""
}

// reportDrawError surfaces a compositor failure once until it changes.
func (m *Model) reportDrawError(err error) {
	msg := err.Error()
	if msg == m.lastErr {
		return
	}
	m.lastErr = msg

	ctx := m.ctx
	if m.sess != nil {
		ctx = m.sess.ctx
	}
	m.log.Warn().Ctx(ctx).Err(err).Msg("draw overlays")

	switch {
	case errors.Is(err, compositor.ErrSpawnFailed):
		m.deps.Bus.Errorf("image compositor could not start, showing alt text")
	case errors.Is(err, compositor.ErrWriteFailed):
		m.deps.Bus.Errorf("image compositor stopped responding")
	default:
		m.deps.Bus.Errorf("images: %v", err)
	}
}
