package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component returns the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return Tag(log.Logger, name)
}

// Tag derives a logger for the named component from l.
func Tag(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
