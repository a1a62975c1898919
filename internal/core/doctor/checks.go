package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/colonyops/folio/internal/core/recent"
	"github.com/colonyops/folio/internal/core/terminal"
)

var lookPathFunc = exec.LookPath

// CompositorCheck verifies the image compositor can be started.
type CompositorCheck struct {
	enabled bool
	command []string
}

func NewCompositorCheck(enabled bool, command []string) *CompositorCheck {
	return &CompositorCheck{enabled: enabled, command: command}
}

func (c *CompositorCheck) Name() string { return "Compositor" }

func (c *CompositorCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if !c.enabled {
		result.Items = append(result.Items, CheckItem{
			Label:  "Images",
			Status: StatusPass,
			Detail: "disabled, alt text only",
		})
		return result
	}
	if len(c.command) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "Command",
			Status: StatusFail,
			Detail: "compositor.command is empty",
		})
		return result
	}

	path, err := lookPathFunc(c.command[0])
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  c.command[0],
			Status: StatusWarn,
			Detail: "not found on PATH, images shown as alt text",
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  c.command[0],
		Status: StatusPass,
		Detail: strings.Join(append([]string{path}, c.command[1:]...), " "),
	})
	return result
}

// TerminalCheck reports whether the terminal can size images.
type TerminalCheck struct {
	isTerminal func() bool
	pixels     terminal.PixelSizer
}

func NewTerminalCheck(isTerminal func() bool, pixels terminal.PixelSizer) *TerminalCheck {
	return &TerminalCheck{isTerminal: isTerminal, pixels: pixels}
}

func (c *TerminalCheck) Name() string { return "Terminal" }

func (c *TerminalCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if c.isTerminal != nil && !c.isTerminal() {
		result.Items = append(result.Items, CheckItem{
			Label:  "TTY",
			Status: StatusWarn,
			Detail: "stdout is not a terminal",
		})
		return result
	}

	w, h, err := c.pixels()
	switch {
	case errors.Is(err, terminal.ErrPixelSizeUnavailable):
		result.Items = append(result.Items, CheckItem{
			Label:  "Pixel size",
			Status: StatusWarn,
			Detail: "not reported, images get zero rows",
		})
	case err != nil:
		result.Items = append(result.Items, CheckItem{
			Label:  "Pixel size",
			Status: StatusWarn,
			Detail: err.Error(),
		})
	default:
		result.Items = append(result.Items, CheckItem{
			Label:  "Pixel size",
			Status: StatusPass,
			Detail: fmt.Sprintf("%dx%d px", w, h),
		})
	}
	return result
}

// DataCheck verifies the data directory and the recently read list.
type DataCheck struct {
	dataDir string
	store   recent.Store
	autofix bool
}

func NewDataCheck(dataDir string, store recent.Store, autofix bool) *DataCheck {
	return &DataCheck{dataDir: dataDir, store: store, autofix: autofix}
}

func (c *DataCheck) Name() string { return "Data" }

func (c *DataCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}
	result.Items = append(result.Items, c.checkDir())
	if c.store != nil {
		result.Items = append(result.Items, c.checkRecent(ctx))
	}
	return result
}

func (c *DataCheck) checkDir() CheckItem {
	item := CheckItem{Label: "Data directory", Detail: c.dataDir}

	info, err := os.Stat(c.dataDir)
	switch {
	case os.IsNotExist(err):
		if c.autofix {
			if err := os.MkdirAll(c.dataDir, 0o755); err != nil {
				item.Status = StatusFail
				item.Detail = fmt.Sprintf("create %s: %v", c.dataDir, err)
				return item
			}
			item.Status = StatusPass
			item.Detail = "created " + c.dataDir
			return item
		}
		item.Status = StatusWarn
		item.Detail = c.dataDir + " does not exist"
		item.Fixable = true
	case err != nil:
		item.Status = StatusFail
		item.Detail = err.Error()
	case !info.IsDir():
		item.Status = StatusFail
		item.Detail = c.dataDir + " is not a directory"
	default:
		item.Status = StatusPass
	}
	return item
}

func (c *DataCheck) checkRecent(ctx context.Context) CheckItem {
	item := CheckItem{Label: "Recently read"}

	entries, err := c.store.List(ctx)
	if err == nil {
		item.Status = StatusPass
		item.Detail = fmt.Sprintf("%d entries", len(entries))
		return item
	}

	if c.autofix {
		if err := c.store.Clear(ctx); err != nil {
			item.Status = StatusFail
			item.Detail = fmt.Sprintf("reset: %v", err)
			return item
		}
		item.Status = StatusPass
		item.Detail = "reset unreadable list"
		return item
	}

	item.Status = StatusFail
	item.Detail = fmt.Sprintf("unreadable: %v", err)
	item.Fixable = true
	return item
}
