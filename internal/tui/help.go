package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/folio/internal/core/styles"
)

// helpView renders the key binding reference as markdown. The rendered
// text is cached per width.
type helpView struct {
	keys     KeyMap
	width    int
	rendered string
}

func newHelpView(keys KeyMap) *helpView {
	return &helpView{keys: keys}
}

func (h *helpView) markdown() string {
	var sb strings.Builder
	sb.WriteString("# Keys\n\n")
	sb.WriteString("| key | action |\n|---|---|\n")
	for _, b := range h.keys.Bindings() {
		hb := b.Help()
		fmt.Fprintf(&sb, "| `%s` | %s |\n", hb.Key, hb.Desc)
	}
	sb.WriteString("\nImages are drawn by the compositor when it is available; otherwise their alt text is shown.\n")
	return sb.String()
}

// View renders the help screen clipped to height rows.
func (h *helpView) View(width, height int) string {
	if h.rendered == "" || h.width != width {
		h.width = width
		h.rendered = h.render(width)
	}

	lines := strings.Split(h.rendered, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (h *helpView) render(width int) string {
	md := h.markdown()

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		log.Debug().Err(err).Msg("failed to create markdown renderer, showing raw help")
		return md
	}

	out, err := renderer.Render(md)
	if err != nil {
		log.Debug().Err(err).Msg("failed to render help, showing raw help")
		return md
	}
	return strings.TrimRight(out, "\n")
}
