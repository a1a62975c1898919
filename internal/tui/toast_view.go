package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/colonyops/folio/internal/core/notify"
	"github.com/colonyops/folio/internal/core/styles"
)

type toastTickMsg time.Time

func scheduleToastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// ToastView renders the newest toast in place of the status line.
type ToastView struct {
	controller *ToastController
}

func NewToastView(controller *ToastController) *ToastView {
	return &ToastView{controller: controller}
}

// View renders the newest toast truncated to width, or "" when there is
// nothing to show.
func (v *ToastView) View(width int) string {
	n, ok := v.controller.Current()
	if !ok {
		return ""
	}
	return renderToast(n, width)
}

func renderToast(n notify.Notification, width int) string {
	var icon string
	var style lipgloss.Style

	switch n.Level {
	case notify.LevelError:
		icon = styles.IconNotifyError
		style = styles.ToastErrorStyle
	case notify.LevelWarning:
		icon = styles.IconNotifyWarning
		style = styles.ToastWarningStyle
	default:
		icon = styles.IconNotifyInfo
		style = styles.ToastInfoStyle
	}

	content := icon + " " + n.Message
	if width > 2 {
		content = runewidth.Truncate(content, width-2, "…")
	}
	return style.Render(content)
}
