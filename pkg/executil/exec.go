// Package executil starts long-lived child processes that are driven over
// stdin.
package executil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Process is a running child whose stdin stays open for the life of the
// process. Write sends bytes to stdin.
type Process interface {
	io.Writer
	// CloseInput closes stdin, signalling the child to exit.
	CloseInput() error
	// Wait blocks until the child exits.
	Wait() error
	// Kill terminates the child immediately.
	Kill() error
}

// Starter spawns processes.
type Starter interface {
	Start(ctx context.Context, cmd string, args ...string) (Process, error)
}

// RealStarter spawns actual processes. Stdout is discarded; stderr goes to
// Stderr when set.
type RealStarter struct {
	Stderr io.Writer
}

// Start launches cmd with a piped stdin. The process is killed when ctx is
// cancelled.
func (s *RealStarter) Start(ctx context.Context, cmd string, args ...string) (Process, error) {
	c := exec.CommandContext(ctx, cmd, args...)
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	if s.Stderr != nil {
		c.Stderr = s.Stderr
	}

	stdin, err := c.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe for %s: %w", cmd, err)
	}

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd, err)
	}

	return &realProcess{cmd: c, stdin: stdin}, nil
}

type realProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

func (p *realProcess) Write(b []byte) (int, error) {
	return p.stdin.Write(b)
}

func (p *realProcess) CloseInput() error {
	return p.stdin.Close()
}

func (p *realProcess) Wait() error {
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%s exited: %w", p.cmd.Path, err)
	}
	return err
}

func (p *realProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}
