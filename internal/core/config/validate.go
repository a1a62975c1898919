package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/folio/internal/core/compositor"
	"github.com/colonyops/folio/internal/core/reader"
	"github.com/colonyops/folio/internal/core/styles"
)

// Validate checks that the configuration is structurally valid. Every
// failing field is reported.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, required),
		criterio.Run("compositor.scaler", c.Compositor.Scaler, validScaler),
		criterio.Run("reader.scroll_policy", c.Reader.ScrollPolicy, validPolicy),
		criterio.Run("reader.scratch_dir", c.Reader.ScratchDir, isDirectoryOrNotExist),
		criterio.Run("tui.theme", c.TUI.Theme, validTheme),
		c.validateValues(),
	)
}

func (c *Config) validateValues() error {
	var errs criterio.FieldErrorsBuilder
	if err := nonEmptyCommand(c.Compositor.Command); err != nil {
		errs = errs.Append("compositor.command", err)
	}
	if err := positive(c.Reader.PaddingDivisor); err != nil {
		errs = errs.Append("reader.padding_divisor", err)
	}
	if err := positive(c.History.MaxEntries); err != nil {
		errs = errs.Append("history.max_entries", err)
	}
	return errs.ToError()
}

func required(v string) error {
	if v == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func positive(v int) error {
	if v < 1 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}

func nonEmptyCommand(argv []string) error {
	if len(argv) == 0 || argv[0] == "" {
		return fmt.Errorf("command is required")
	}
	return nil
}

func validScaler(s string) error {
	_, err := compositor.ParseScaler(s)
	return err
}

func validPolicy(s string) error {
	_, err := reader.ParsePolicy(s)
	return err
}

func validTheme(name string) error {
	if !slices.Contains(styles.ThemeNames(), name) {
		return fmt.Errorf("unknown theme %q, available: %v", name, styles.ThemeNames())
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
