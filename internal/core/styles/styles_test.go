package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	assert.Contains(t, names, DefaultTheme)
	assert.Contains(t, names, "gruvbox")
	assert.IsIncreasing(t, names)
}

func TestSetThemeByName(t *testing.T) {
	t.Cleanup(func() { SetTheme(themes[DefaultTheme]) })

	assert.True(t, SetThemeByName("gruvbox"))
	assert.Equal(t, themes["gruvbox"], CurrentPalette)

	assert.False(t, SetThemeByName("neon"))
	assert.Equal(t, themes["gruvbox"], CurrentPalette)
}

func TestGlamourStyle_FollowsPalette(t *testing.T) {
	t.Cleanup(func() { SetTheme(themes[DefaultTheme]) })

	SetThemeByName("gruvbox")
	cfg := GlamourStyle()
	if assert.NotNil(t, cfg.Heading.Color) {
		assert.Equal(t, "#83a598", *cfg.Heading.Color)
	}
}
