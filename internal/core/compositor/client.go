// Package compositor drives an external image compositor process (ueberzug)
// over its line-delimited JSON stdin protocol.
package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/folio/pkg/executil"
)

var (
	ErrSpawnFailed = errors.New("compositor spawn failed")
	ErrWriteFailed = errors.New("compositor write failed")
	ErrClosed      = errors.New("compositor closed")
)

// DefaultCommand starts ueberzug reading commands from stdin.
var DefaultCommand = []string{"ueberzug", "layer", "--silent"}

const defaultCloseGrace = 500 * time.Millisecond

// Client owns at most one compositor process at a time. The process is
// spawned lazily on the first command. All methods are safe for
// concurrent use.
type Client struct {
	ctx     context.Context
	starter executil.Starter
	command []string
	log     zerolog.Logger
	grace   time.Duration

	mu     sync.Mutex
	proc   executil.Process
	broken error
	closed bool
	known  map[string]struct{}
	order  []string
}

// New returns a client that spawns command through starter. The process is
// tied to ctx and is killed when ctx is cancelled.
func New(ctx context.Context, starter executil.Starter, command []string, logger zerolog.Logger) *Client {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &Client{
		ctx:     ctx,
		starter: starter,
		command: command,
		log:     logger,
		grace:   defaultCloseGrace,
		known:   map[string]struct{}{},
	}
}

// Add draws or moves a single placement.
func (c *Client) Add(p Placement) error {
	return c.Draw(p)
}

// Draw sends an add command for every placement in order, stopping at the
// first failure.
func (c *Client) Draw(placements ...Placement) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range placements {
		line, err := EncodeAdd(p)
		if err != nil {
			return err
		}
		if err := c.sendLocked(line); err != nil {
			return err
		}
		if _, ok := c.known[p.ID]; !ok {
			c.known[p.ID] = struct{}{}
			c.order = append(c.order, p.ID)
		}
	}
	return nil
}

// Remove erases the given identifiers from the screen.
func (c *Client) Remove(ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		line, err := EncodeRemove(id)
		if err != nil {
			return err
		}
		if err := c.sendLocked(line); err != nil {
			return err
		}
		c.forgetLocked(id)
	}
	return nil
}

// Known returns the identifiers added and not yet removed, in the order
// they were first added.
func (c *Client) Known() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// Broken reports whether a write failure has disabled the session.
func (c *Client) Broken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broken != nil
}

// Restart stops the current process, if any, and clears a broken session.
// The next command spawns a fresh process.
func (c *Client) Restart() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.broken = nil
	c.known = map[string]struct{}{}
	c.order = nil
	if c.proc == nil {
		return nil
	}
	c.stopLocked()
	return nil
}

// Close removes every known identifier, closes stdin and waits briefly for
// the process to exit before killing it. Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.proc == nil {
		return nil
	}

	if c.broken == nil {
		for _, id := range c.order {
			line, err := EncodeRemove(id)
			if err != nil {
				continue
			}
			if _, err := c.proc.Write(line); err != nil {
				c.log.Debug().Err(err).Str("identifier", id).Msg("remove on close failed")
				break
			}
		}
	}
	c.known = map[string]struct{}{}
	c.order = nil

	c.stopLocked()
	return nil
}

func (c *Client) sendLocked(line []byte) error {
	if c.closed {
		return ErrClosed
	}
	if c.broken != nil {
		return c.broken
	}

	if c.proc == nil {
		proc, err := c.starter.Start(c.ctx, c.command[0], c.command[1:]...)
		if err != nil {
			c.log.Warn().Err(err).Strs("command", c.command).Msg("failed to start compositor")
			return fmt.Errorf("%w: %w", ErrSpawnFailed, err)
		}
		c.log.Debug().Strs("command", c.command).Msg("compositor started")
		c.proc = proc
	}

	if _, err := c.proc.Write(line); err != nil {
		c.broken = fmt.Errorf("%w: %w", ErrWriteFailed, err)
		c.log.Error().Err(err).Msg("compositor write failed, disabling images")
		return c.broken
	}
	return nil
}

func (c *Client) forgetLocked(id string) {
	if _, ok := c.known[id]; !ok {
		return
	}
	delete(c.known, id)
	for i, known := range c.order {
		if known == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Client) stopLocked() {
	proc := c.proc
	c.proc = nil

	_ = proc.CloseInput()

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			c.log.Debug().Err(err).Msg("compositor exited")
		}
	case <-time.After(c.grace):
		c.log.Warn().Dur("grace", c.grace).Msg("compositor did not exit, killing")
		_ = proc.Kill()
	}
}

// StderrLogger returns a writer that logs each complete line written to
// it. It is meant to receive the compositor's stderr.
func StderrLogger(logger zerolog.Logger) io.Writer {
	return &lineLogger{log: logger}
}

type lineLogger struct {
	log zerolog.Logger
	mu  sync.Mutex
	buf []byte
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf = append(l.buf, p...)
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			break
		}
		if line := bytes.TrimSpace(l.buf[:i]); len(line) > 0 {
			l.log.Debug().Str("stream", "stderr").Msg(string(line))
		}
		l.buf = l.buf[i+1:]
	}
	return len(p), nil
}
