package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestComponent(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	Component("compositor").Info().Msg("spawned")

	entry := decode(t, &buf)
	assert.Equal(t, "compositor", entry["component"])
	assert.Equal(t, "spawned", entry["message"])
}

func TestTag(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).With().Str("book", "atlas").Logger()

	Tag(base, "reader").Warn().Msg("layout failed")

	entry := decode(t, &buf)
	assert.Equal(t, "reader", entry["component"])
	assert.Equal(t, "atlas", entry["book"], "fields of the parent logger are kept")
}
