package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/folio/internal/core/doctor"
	"github.com/colonyops/folio/internal/core/styles"
	"github.com/colonyops/folio/internal/core/terminal"
	"github.com/colonyops/folio/internal/store/jsonfile"
	"github.com/colonyops/folio/pkg/iojson"
)

type DoctorCmd struct {
	flags   *Flags
	format  string
	autofix bool
}

func NewDoctorCmd(flags *Flags) *DoctorCmd {
	return &DoctorCmd{flags: flags}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Check that images can be shown in this terminal",
		UsageText:   "folio doctor [options]",
		Description: "Runs diagnostic checks on the image compositor, the terminal and the data directory.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "autofix",
				Usage:       "create a missing data directory and reset an unreadable recently read list",
				Destination: &cmd.autofix,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) checks() []doctor.Check {
	cfg := cmd.flags.Config
	isTerminal := func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

	return []doctor.Check{
		doctor.NewCompositorCheck(cfg.CompositorEnabled(), cfg.Compositor.Command),
		doctor.NewTerminalCheck(isTerminal, terminal.StdoutPixels()),
		doctor.NewDataCheck(cfg.DataDir, jsonfile.NewRecentStore(cfg.RecentFile()), cmd.autofix),
	}
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	results := doctor.RunAll(ctx, cmd.checks())

	if cmd.format == "json" {
		return cmd.outputJSON(c, results)
	}

	return cmd.outputText(results)
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	summary := doctor.Summarize(results)

	out := struct {
		Healthy bool            `json:"healthy"`
		Summary doctor.Summary  `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Healthy: summary.Healthy(),
		Summary: summary,
		Checks:  results,
	}

	return iojson.WriteWith(c.Root().Writer, os.Stderr, out)
}

func (cmd *DoctorCmd) outputText(results []doctor.Result) error {
	w := os.Stderr
	divider := styles.TextMutedStyle.Render(strings.Repeat("─", 40))

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, styles.TextPrimaryBoldStyle.Render(styles.IconBook+" Folio Doctor"))
	_, _ = fmt.Fprintln(w, divider)
	_, _ = fmt.Fprintln(w)

	for _, result := range results {
		_, _ = fmt.Fprintf(w, "%s %s\n", statusIcon(result.Status()), styles.TextForegroundBoldStyle.Render(result.Name))

		for _, item := range result.Items {
			var detail string
			if item.Detail != "" {
				detail = " " + styles.TextMutedStyle.Render(item.Detail)
			}

			_, _ = fmt.Fprintf(w, "  %s %s%s\n", statusIcon(item.Status), item.Label, detail)
		}

		_, _ = fmt.Fprintln(w)
	}

	summary := doctor.Summarize(results)
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
		styles.TextSuccessStyle.Render(fmt.Sprintf("%d passed", summary.Passed)),
		styles.TextWarningStyle.Render(fmt.Sprintf("%d warnings", summary.Warned)),
		styles.TextErrorStyle.Render(fmt.Sprintf("%d failed", summary.Failed)),
	)

	if !cmd.autofix && summary.Fixable > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, styles.TextMutedStyle.Render(fmt.Sprintf("Run 'folio doctor --autofix' to fix %d issue(s)", summary.Fixable)))
	}

	if !summary.Healthy() {
		return cli.Exit("", 1)
	}

	return nil
}

func statusIcon(s doctor.Status) string {
	switch s {
	case doctor.StatusWarn:
		return styles.TextWarningStyle.Render("●")
	case doctor.StatusFail:
		return styles.TextErrorStyle.Render("✘")
	default:
		return styles.TextSuccessStyle.Render("✔")
	}
}
