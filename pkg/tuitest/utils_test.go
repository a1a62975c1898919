package tuitest

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestStripANSI(t *testing.T) {
	styled := "\x1b[1mbold\x1b[0m   \n\x1b[3mitalic\x1b[0m"
	assert.Equal(t, "bold\nitalic", StripANSI(styled))
	assert.Equal(t, []string{"bold", "italic"}, Lines(styled))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "G", Keys("G").String())
	assert.Equal(t, "ctrl+d", Key(tea.KeyCtrlD).String())
}
