package executil

import (
	"bytes"
	"context"
	"strings"
	"sync"
)

// RecordedStart captures a process that was started.
type RecordedStart struct {
	Cmd  string
	Args []string
}

// RecordingStarter captures starts and stdin traffic for testing.
type RecordingStarter struct {
	mu        sync.Mutex
	Starts    []RecordedStart
	Processes []*RecordedProcess

	// StartErrors are returned by successive Start calls; a nil entry or an
	// exhausted slice means the start succeeds.
	StartErrors []error

	// WriteErr is assigned to every process started from now on.
	WriteErr error
}

// Start records the call and returns a RecordedProcess unless a start
// error is queued.
func (s *RecordingStarter) Start(_ context.Context, cmd string, args ...string) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Starts = append(s.Starts, RecordedStart{Cmd: cmd, Args: args})

	if len(s.StartErrors) > 0 {
		err := s.StartErrors[0]
		s.StartErrors = s.StartErrors[1:]
		if err != nil {
			return nil, err
		}
	}

	p := &RecordedProcess{WriteErr: s.WriteErr}
	s.Processes = append(s.Processes, p)
	return p, nil
}

// Last returns the most recently started process, or nil.
func (s *RecordingStarter) Last() *RecordedProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Processes) == 0 {
		return nil
	}
	return s.Processes[len(s.Processes)-1]
}

// StartCount returns the number of Start calls.
func (s *RecordingStarter) StartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Starts)
}

// RecordedProcess buffers everything written to it.
type RecordedProcess struct {
	mu          sync.Mutex
	buf         bytes.Buffer
	WriteErr    error
	InputClosed bool
	Waited      bool
	Killed      bool
}

func (p *RecordedProcess) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.WriteErr != nil {
		return 0, p.WriteErr
	}
	return p.buf.Write(b)
}

func (p *RecordedProcess) CloseInput() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.InputClosed = true
	return nil
}

func (p *RecordedProcess) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Waited = true
	return nil
}

func (p *RecordedProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Killed = true
	return nil
}

// SetWriteErr makes subsequent writes fail with err.
func (p *RecordedProcess) SetWriteErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.WriteErr = err
}

// Lines returns the non-empty newline separated writes.
func (p *RecordedProcess) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lines []string
	for _, l := range strings.Split(p.buf.String(), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
