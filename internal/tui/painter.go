package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/folio/internal/core/styled"
	"github.com/colonyops/folio/internal/core/styles"
)

// painter renders spans with the active theme.
type painter struct {
	sb strings.Builder
}

var _ styled.Handler = (*painter)(nil)

// paint renders one row of spans.
func paint(spans []styled.Span) string {
	var p painter
	for _, s := range spans {
		styled.Visit(s, &p)
	}
	return p.sb.String()
}

func (p *painter) write(style lipgloss.Style, s styled.Span) {
	p.sb.WriteString(style.Render(s.Text))
}

func (p *painter) Plain(s styled.Span)        { p.write(styles.PlainStyle, s) }
func (p *painter) Heading(s styled.Span)      { p.write(styles.HeadingStyle, s) }
func (p *painter) Emphasis(s styled.Span)     { p.write(styles.EmphasisStyle, s) }
func (p *painter) Strong(s styled.Span)       { p.write(styles.StrongStyle, s) }
func (p *painter) Strikeout(s styled.Span)    { p.write(styles.StrikeoutStyle, s) }
func (p *painter) Code(s styled.Span)         { p.write(styles.CodeStyle, s) }
func (p *painter) Preformatted(s styled.Span) { p.write(styles.PreformattedStyle, s) }
func (p *painter) ImageRef(s styled.Span)     { p.write(styles.ImageAltStyle, s) }
func (p *painter) Link(s styled.Span)         { p.write(styles.LinkStyle, s) }
