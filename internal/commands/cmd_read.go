package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/folio/internal/book"
	"github.com/colonyops/folio/internal/core/compositor"
	"github.com/colonyops/folio/internal/core/logging"
	"github.com/colonyops/folio/internal/core/recent"
	"github.com/colonyops/folio/internal/core/terminal"
	"github.com/colonyops/folio/internal/store/jsonfile"
	"github.com/colonyops/folio/internal/tui"
	"github.com/colonyops/folio/pkg/executil"
	"github.com/colonyops/folio/pkg/utils"
)

type ReadCmd struct {
	flags    *Flags
	chapter  int
	watch    bool
	noImages bool
}

// NewReadCmd creates a new read command
func NewReadCmd(flags *Flags) *ReadCmd {
	return &ReadCmd{flags: flags}
}

// Flags returns the reader flags for registration on the root command
func (cmd *ReadCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "chapter",
			Aliases:     []string{"n"},
			Usage:       "chapter to open, starting at 1 (defaults to the last one read)",
			Destination: &cmd.chapter,
		},
		&cli.BoolFlag{
			Name:        "watch",
			Aliases:     []string{"w"},
			Usage:       "reload when the file changes on disk",
			Destination: &cmd.watch,
		},
		&cli.BoolFlag{
			Name:        "no-images",
			Usage:       "show alt text instead of drawing images",
			Sources:     cli.EnvVars("FOLIO_NO_IMAGES"),
			Destination: &cmd.noImages,
		},
	}
}

func (cmd *ReadCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "read",
		Usage:     "Read an EPUB, HTML or Markdown file",
		UsageText: "folio read [options] <file>",
		Description: `Opens the file in the terminal reader. Inline images are drawn with the
configured compositor (ueberzug by default) when it is available.

Press ? inside the reader for key bindings.`,
		Flags:         cmd.Flags(),
		ShellComplete: RecentPathCompleter(cmd.flags),
		Action:        cmd.Run,
	})
	return app
}

// Run reads the file named by the first argument. Exported for use as the
// default command.
func (cmd *ReadCmd) Run(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("missing file argument. Run 'folio read --help' for usage")
	}
	chapter := -1
	if cmd.chapter > 0 {
		chapter = cmd.chapter - 1
	}
	return cmd.Read(ctx, path, chapter)
}

// Read opens path in the reader at the zero based chapter. A negative
// chapter resumes where the file was last left.
func (cmd *ReadCmd) Read(ctx context.Context, path string, chapter int) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("folio read needs an interactive terminal")
	}

	cfg := cmd.flags.Config

	b, err := book.Open(path, book.Options{Selector: cfg.Reader.ContentSelector})
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	store := jsonfile.NewRecentStore(cfg.RecentFile())
	chapter, err = startChapter(ctx, store, b, chapter)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var client *compositor.Client
	if cfg.CompositorEnabled() && !cmd.noImages {
		compLog := logging.Component("compositor")

		// Compositor stderr is replayed once the screen is restored.
		stderr := &utils.DeferredWriter{}
		starter := &executil.RealStarter{Stderr: io.MultiWriter(compositor.StderrLogger(compLog), stderr)}
		client = compositor.New(ctx, starter, cfg.Compositor.Command, compLog)
		defer func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("close compositor")
			}
			_ = stderr.Flush(os.Stderr)
		}()
	}

	// Tear the compositor down on SIGINT/SIGTERM so no overlay outlives the
	// reader, then stop the program.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
			if client != nil {
				_ = client.Close()
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	var watcher *book.Watcher
	if cmd.watch {
		watcher, err = book.NewWatcher(b.Path(), logging.Component("watcher"))
		if err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		defer func() { _ = watcher.Close() }()
	}

	m := tui.New(ctx, tui.Deps{
		Book:       b,
		Config:     cfg,
		Compositor: client,
		Pixels:     terminal.StdoutPixels(),
		Recent:     store,
		Watcher:    watcher,
		Logger:     log.Logger,
	}, tui.Opts{Chapter: chapter})
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run reader: %w", err)
	}
	return nil
}

// startChapter validates an explicit chapter or looks up the saved one.
func startChapter(ctx context.Context, store recent.Store, b book.Book, chapter int) (int, error) {
	if chapter >= 0 {
		if chapter >= b.Len() {
			return 0, fmt.Errorf("chapter %d out of range, %s has %d", chapter+1, b.Title(), b.Len())
		}
		return chapter, nil
	}

	entry, err := store.Get(ctx, b.Path())
	switch {
	case errors.Is(err, recent.ErrNotFound):
		return 0, nil
	case err != nil:
		log.Warn().Err(err).Msg("read recently read list")
		return 0, nil
	case entry.Chapter >= b.Len():
		return 0, nil
	default:
		return entry.Chapter, nil
	}
}
