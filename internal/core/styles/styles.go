// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"sort"

	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Background lipgloss.Color
	Surface    lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme is the name of the default theme.
const DefaultTheme = "tokyo-night"

// themes holds the built-in named palettes.
var themes = map[string]Palette{
	"tokyo-night": {
		Primary:    "#7aa2f7",
		Secondary:  "#7dcfff",
		Foreground: "#c0caf5",
		Muted:      "#565f89",
		Background: "#1a1b26",
		Surface:    "#3b4261",
		Success:    "#9ece6a",
		Warning:    "#e0af68",
		Error:      "#f7768e",
	},
	"gruvbox": {
		Primary:    "#83a598",
		Secondary:  "#8ec07c",
		Foreground: "#ebdbb2",
		Muted:      "#665c54",
		Background: "#282828",
		Surface:    "#3c3836",
		Success:    "#b8bb26",
		Warning:    "#fabd2f",
		Error:      "#fb4934",
	},
	"catppuccin": {
		Primary:    "#89b4fa", // Blue
		Secondary:  "#94e2d5", // Teal
		Foreground: "#cdd6f4", // Text
		Muted:      "#6c7086", // Overlay0
		Background: "#1e1e2e", // Base
		Surface:    "#313244", // Surface0
		Success:    "#a6e3a1", // Green
		Warning:    "#f9e2af", // Yellow
		Error:      "#f38ba8", // Red
	},
	"paper": {
		Primary:    "#005cc5",
		Secondary:  "#6f42c1",
		Foreground: "#24292e",
		Muted:      "#6a737d",
		Background: "#ffffff",
		Surface:    "#e1e4e8",
		Success:    "#22863a",
		Warning:    "#b08800",
		Error:      "#cb2431",
	},
}

// ThemeNames returns sorted names of all built-in themes.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPalette returns the palette for the given theme name.
func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI styles.
	CommandHeaderStyle      lipgloss.Style
	DividerStyle            lipgloss.Style
	TextMutedStyle          lipgloss.Style
	TextPrimaryBoldStyle    lipgloss.Style
	TextForegroundBoldStyle lipgloss.Style
	TextSuccessStyle        lipgloss.Style
	TextWarningStyle        lipgloss.Style
	TextErrorStyle          lipgloss.Style

	// Reading surface, one per span annotation.
	PlainStyle        lipgloss.Style
	HeadingStyle      lipgloss.Style
	EmphasisStyle     lipgloss.Style
	StrongStyle       lipgloss.Style
	StrikeoutStyle    lipgloss.Style
	CodeStyle         lipgloss.Style
	PreformattedStyle lipgloss.Style
	LinkStyle         lipgloss.Style
	ImageAltStyle     lipgloss.Style

	// Status footer.
	StatusBarStyle     lipgloss.Style
	StatusKeyStyle     lipgloss.Style
	StatusTitleStyle   lipgloss.Style
	StatusPercentStyle lipgloss.Style

	// Toasts.
	ToastInfoStyle    lipgloss.Style
	ToastWarningStyle lipgloss.Style
	ToastErrorStyle   lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	CommandHeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	DividerStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	TextMutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	TextPrimaryBoldStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	TextForegroundBoldStyle = lipgloss.NewStyle().Foreground(p.Foreground).Bold(true)
	TextSuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	TextWarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	TextErrorStyle = lipgloss.NewStyle().Foreground(p.Error)

	PlainStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	HeadingStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	EmphasisStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Italic(true)
	StrongStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Bold(true)
	StrikeoutStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Strikethrough(true)
	CodeStyle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Background(p.Surface)
	PreformattedStyle = lipgloss.NewStyle().
		Foreground(p.Secondary)
	LinkStyle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Underline(true)
	ImageAltStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	StatusKeyStyle = lipgloss.NewStyle().
		Foreground(p.Primary)
	StatusTitleStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Bold(true)
	StatusPercentStyle = lipgloss.NewStyle().
		Foreground(p.Secondary)

	// Toasts replace the status line, so they stay one row tall.
	toast := lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true)
	ToastInfoStyle = toast.Foreground(p.Primary)
	ToastWarningStyle = toast.Foreground(p.Warning)
	ToastErrorStyle = toast.Foreground(p.Error)
}

// SetThemeByName activates a built-in theme. Unknown names keep the
// current theme and return false.
func SetThemeByName(name string) bool {
	p, ok := themes[name]
	if ok {
		SetTheme(p)
	}
	return ok
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func colorPtr(c lipgloss.Color) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() glamouransi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig
	p := CurrentPalette

	fg := colorPtr(p.Foreground)
	primary := colorPtr(p.Primary)
	secondary := colorPtr(p.Secondary)
	muted := colorPtr(p.Muted)
	surface := colorPtr(p.Surface)

	cfg.Document.Color = fg

	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = fg
	cfg.H1.BackgroundColor = surface
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	cfg.Code.Color = secondary
	cfg.CodeBlock.Color = muted

	cfg.Table.Color = fg

	return cfg
}
