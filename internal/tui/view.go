package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/colonyops/folio/internal/core/styles"
)

const (
	prevLabel = "<-- previous chapter (h)"
	nextLabel = "next chapter (l) -->"
)

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	rows := m.gridRows()

	var body []string
	switch {
	case m.showHelp:
		body = strings.Split(m.help.View(m.width, rows), "\n")
	case m.chapterErr != nil:
		body = m.errorRows(rows)
	default:
		body = m.frameRows(rows)
	}

	return strings.Join(body, "\n") + "\n" + m.footer()
}

// frameRows renders the composed frame. Rows reserved for images stay
// blank so the compositor can draw over them.
func (m *Model) frameRows(rows int) []string {
	out := make([]string, 0, rows)
	pad := strings.Repeat(" ", m.frame.Padding)

	for _, r := range m.frame.Rows {
		if len(out) == rows {
			break
		}
		if r.Reserved || len(r.Spans) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, pad+paint(r.Spans))
	}
	for len(out) < rows {
		out = append(out, "")
	}
	return out
}

func (m *Model) errorRows(rows int) []string {
	out := make([]string, rows)
	msg := runewidth.Truncate(m.chapterErr.Error(), max(m.width-4, 1), "…")
	out[rows/2] = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, styles.TextErrorStyle.Render(msg))
	return out
}

// footer renders the status line, or the newest toast while one is active.
func (m *Model) footer() string {
	if t := m.toastView.View(m.width); t != "" {
		return t
	}

	n := m.deps.Book.Len()

	var left, right string
	if m.chapter > 0 {
		left = styles.StatusKeyStyle.Render(prevLabel)
	}
	if m.chapter < n-1 {
		right = styles.StatusKeyStyle.Render(nextLabel)
	}

	percent := 100
	if m.sess != nil {
		percent = m.sess.engine.Percent()
	}
	position := styles.StatusPercentStyle.Render(fmt.Sprintf("%d/%d %3d%%", m.chapter+1, n, percent))

	sides := max(lipgloss.Width(left), lipgloss.Width(right))
	titleWidth := m.width - 2*sides - lipgloss.Width(position) - 3
	if titleWidth < 8 {
		left, right, sides = "", "", 0
		titleWidth = m.width - lipgloss.Width(position) - 1
	}

	center := position
	if titleWidth > 0 {
		title := runewidth.Truncate(m.title(), titleWidth, "…")
		center = styles.StatusTitleStyle.Render(title) + " " + position
	}

	middle := m.width - 2*sides
	if middle < lipgloss.Width(center) {
		return styles.StatusBarStyle.Render(runewidth.Truncate(m.title(), m.width, "…"))
	}

	return styles.StatusBarStyle.Render(
		lipgloss.PlaceHorizontal(sides, lipgloss.Left, left) +
			lipgloss.PlaceHorizontal(middle, lipgloss.Center, center) +
			lipgloss.PlaceHorizontal(sides, lipgloss.Right, right),
	)
}

func (m *Model) title() string {
	t := m.deps.Book.Title()
	if m.deps.Book.Len() > 1 {
		if ch := m.deps.Book.ChapterTitle(m.chapter); ch != "" {
			t += " · " + ch
		}
	}
	return t
}
