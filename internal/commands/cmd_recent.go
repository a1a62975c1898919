package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/folio/internal/core/recent"
	"github.com/colonyops/folio/internal/core/styles"
	"github.com/colonyops/folio/internal/store/jsonfile"
	"github.com/colonyops/folio/pkg/iojson"
)

type RecentCmd struct {
	flags  *Flags
	read   *ReadCmd
	format string
	pick   bool
	clear  bool
}

// NewRecentCmd creates a new recent command. Picking an entry opens it
// with read.
func NewRecentCmd(flags *Flags, read *ReadCmd) *RecentCmd {
	return &RecentCmd{flags: flags, read: read}
}

func (cmd *RecentCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "recent",
		Usage:     "List recently read files",
		UsageText: "folio recent [options]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "pick",
				Aliases:     []string{"p"},
				Usage:       "choose an entry and resume reading it",
				Destination: &cmd.pick,
			},
			&cli.BoolFlag{
				Name:        "clear",
				Usage:       "forget all recently read files",
				Destination: &cmd.clear,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *RecentCmd) run(ctx context.Context, c *cli.Command) error {
	store := jsonfile.NewRecentStore(cmd.flags.Config.RecentFile())

	if cmd.clear {
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("clear recently read: %w", err)
		}
		_, _ = fmt.Fprintln(os.Stderr, styles.TextSuccessStyle.Render("Cleared recently read files"))
		return nil
	}

	entries, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list recently read: %w", err)
	}

	switch {
	case cmd.pick:
		return cmd.runPick(ctx, entries)
	case cmd.format == "json":
		if entries == nil {
			entries = []recent.Entry{}
		}
		return iojson.WriteWith(c.Root().Writer, os.Stderr, entries)
	default:
		return cmd.outputText(c, entries, time.Now())
	}
}

func (cmd *RecentCmd) runPick(ctx context.Context, entries []recent.Entry) error {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, styles.TextMutedStyle.Render("Nothing read yet"))
		return nil
	}

	options := make([]huh.Option[int], len(entries))
	for i, e := range entries {
		options[i] = huh.NewOption(fmt.Sprintf("%s (chapter %d)", e.Title, e.Chapter+1), i)
	}

	var selected int
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title("Resume reading").
			Options(options...).
			Value(&selected),
	))
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return fmt.Errorf("pick: %w", err)
	}

	e := entries[selected]
	return cmd.read.Read(ctx, e.Path, e.Chapter)
}

func (cmd *RecentCmd) outputText(c *cli.Command, entries []recent.Entry, now time.Time) error {
	w := c.Root().Writer
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, styles.TextMutedStyle.Render("Nothing read yet"))
		return nil
	}

	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s%s %s\n",
			fileIcon(e.Path),
			styles.TextForegroundBoldStyle.Render(e.Title),
			styles.TextMutedStyle.Render(fmt.Sprintf("chapter %d, %s", e.Chapter+1, ago(now.Sub(e.OpenedAt)))),
		)
		_, _ = fmt.Fprintf(w, "  %s\n", e.Path)
	}
	return nil
}

func fileIcon(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".epub":
		return styles.IconFileEPUB
	case ".md", ".markdown":
		return styles.IconFileMarkdown
	case ".html", ".htm", ".xhtml":
		return styles.IconFileHTML
	default:
		return styles.IconFileDefault
	}
}

// ago formats d as a coarse relative age.
func ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	default:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	s := fmt.Sprintf("%d %s", n, unit)
	if n != 1 {
		s += "s"
	}
	return s
}
