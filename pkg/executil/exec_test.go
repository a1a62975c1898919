package executil

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealStarter_FeedsStdin(t *testing.T) {
	var stderr bytes.Buffer
	s := &RealStarter{Stderr: &stderr}

	p, err := s.Start(context.Background(), "sh", "-c", "cat >&2")
	require.NoError(t, err)

	_, err = p.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, p.CloseInput())
	require.NoError(t, p.Wait())

	assert.Equal(t, "hello\n", stderr.String())
}

func TestRealStarter_MissingBinary(t *testing.T) {
	s := &RealStarter{}

	_, err := s.Start(context.Background(), "folio-definitely-not-a-binary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start folio-definitely-not-a-binary")
}

func TestRealStarter_Kill(t *testing.T) {
	s := &RealStarter{}

	p, err := s.Start(context.Background(), "sleep", "30")
	require.NoError(t, err)
	require.NoError(t, p.Kill())
	assert.Error(t, p.Wait())
}

func TestRecordingStarter(t *testing.T) {
	boom := errors.New("boom")
	s := &RecordingStarter{StartErrors: []error{boom}}

	_, err := s.Start(context.Background(), "ueberzug", "layer")
	require.ErrorIs(t, err, boom)
	assert.Nil(t, s.Last())

	p, err := s.Start(context.Background(), "ueberzug", "layer")
	require.NoError(t, err)

	_, _ = p.Write([]byte("one\ntwo\n"))
	_ = p.CloseInput()

	assert.Equal(t, 2, s.StartCount())
	assert.Equal(t, RecordedStart{Cmd: "ueberzug", Args: []string{"layer"}}, s.Starts[1])
	assert.Equal(t, []string{"one", "two"}, s.Last().Lines())
	assert.True(t, s.Last().InputClosed)
}
