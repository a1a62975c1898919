package compositor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/folio/pkg/executil"
)

func newTestClient(starter executil.Starter) *Client {
	return New(context.Background(), starter, nil, zerolog.Nop())
}

func TestEncodeAdd_OmitsUnsetOptionalFields(t *testing.T) {
	line, err := EncodeAdd(Placement{ID: "img-1", Path: "/tmp/a.png", X: 0, Y: 4})
	require.NoError(t, err)
	assert.Equal(t, `{"action":"add","identifier":"img-1","path":"/tmp/a.png","x":0,"y":4}`+"\n", string(line))
}

func TestEncodeAdd_IncludesSetOptionalFields(t *testing.T) {
	yes := true
	half := 0.5
	line, err := EncodeAdd(Placement{
		ID: "img-1", Path: "/tmp/a.png", X: 10, Y: -3,
		Width: 60, Height: 6, Scaler: ScalerContain,
		Draw: &yes, Sync: &yes, ScalingPositionX: &half, ScalingPositionY: &half,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"action":"add","identifier":"img-1","path":"/tmp/a.png","x":10,"y":-3,
		"width":60,"height":6,"scaler":"contain","draw":true,"synchronously_draw":true,
		"scaling_position_x":0.5,"scaling_position_y":0.5
	}`, string(line))
}

func TestEncodeRemove(t *testing.T) {
	line, err := EncodeRemove("img-1")
	require.NoError(t, err)
	assert.Equal(t, `{"action":"remove","identifier":"img-1"}`+"\n", string(line))
}

func TestParseScaler(t *testing.T) {
	for _, s := range Scalers {
		got, err := ParseScaler(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseScaler("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseScaler("stretch")
	assert.Error(t, err)
}

func TestClient_SpawnsLazilyOnce(t *testing.T) {
	starter := &executil.RecordingStarter{}
	c := newTestClient(starter)

	assert.Equal(t, 0, starter.StartCount())

	require.NoError(t, c.Add(Placement{ID: "a", Path: "/a.png"}))
	require.NoError(t, c.Draw(Placement{ID: "b", Path: "/b.png", Y: 3}))
	require.NoError(t, c.Remove("a"))

	require.Equal(t, 1, starter.StartCount())
	assert.Equal(t, executil.RecordedStart{Cmd: "ueberzug", Args: []string{"layer", "--silent"}}, starter.Starts[0])
	assert.Equal(t, []string{
		`{"action":"add","identifier":"a","path":"/a.png","x":0,"y":0}`,
		`{"action":"add","identifier":"b","path":"/b.png","x":0,"y":3}`,
		`{"action":"remove","identifier":"a"}`,
	}, starter.Last().Lines())
	assert.Equal(t, []string{"b"}, c.Known())
}

func TestClient_SpawnFailureRetriesLazily(t *testing.T) {
	starter := &executil.RecordingStarter{StartErrors: []error{errors.New("no such file")}}
	c := newTestClient(starter)

	err := c.Add(Placement{ID: "a", Path: "/a.png"})
	require.ErrorIs(t, err, ErrSpawnFailed)
	assert.False(t, c.Broken())

	require.NoError(t, c.Add(Placement{ID: "a", Path: "/a.png"}))
	assert.Equal(t, 2, starter.StartCount())
}

func TestClient_WriteFailureBreaksUntilRestart(t *testing.T) {
	starter := &executil.RecordingStarter{}
	c := newTestClient(starter)

	require.NoError(t, c.Add(Placement{ID: "a", Path: "/a.png"}))
	starter.Last().SetWriteErr(errors.New("broken pipe"))

	err := c.Add(Placement{ID: "b", Path: "/b.png"})
	require.ErrorIs(t, err, ErrWriteFailed)
	assert.True(t, c.Broken())

	err = c.Remove("a")
	require.ErrorIs(t, err, ErrWriteFailed)
	assert.Equal(t, 1, starter.StartCount(), "broken session must not respawn")

	first := starter.Last()
	require.NoError(t, c.Restart())
	assert.True(t, first.InputClosed)
	assert.False(t, c.Broken())

	require.NoError(t, c.Add(Placement{ID: "b", Path: "/b.png"}))
	assert.Equal(t, 2, starter.StartCount())
	assert.Equal(t, []string{"b"}, c.Known())
}

func TestClient_CloseRemovesKnownIdentifiers(t *testing.T) {
	starter := &executil.RecordingStarter{}
	c := newTestClient(starter)

	require.NoError(t, c.Draw(
		Placement{ID: "a", Path: "/a.png"},
		Placement{ID: "b", Path: "/b.png"},
		Placement{ID: "a", Path: "/a.png", Y: 2},
	))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	proc := starter.Last()
	lines := proc.Lines()
	require.Len(t, lines, 5)
	assert.Equal(t, `{"action":"remove","identifier":"a"}`, lines[3])
	assert.Equal(t, `{"action":"remove","identifier":"b"}`, lines[4])
	assert.True(t, proc.InputClosed)
	assert.True(t, proc.Waited)

	assert.ErrorIs(t, c.Add(Placement{ID: "c"}), ErrClosed)
}

func TestClient_CloseWithoutProcess(t *testing.T) {
	starter := &executil.RecordingStarter{}
	c := newTestClient(starter)

	require.NoError(t, c.Close())
	assert.Equal(t, 0, starter.StartCount())
}

func TestStderrLogger_SplitsLines(t *testing.T) {
	var buf writerBuffer
	logger := zerolog.New(&buf)

	w := StderrLogger(logger)
	_, _ = w.Write([]byte("first li"))
	_, _ = w.Write([]byte("ne\nsecond\n\npartial"))

	assert.Equal(t, 2, buf.count)
}

type writerBuffer struct {
	count int
}

func (w *writerBuffer) Write(p []byte) (int, error) {
	w.count++
	return len(p), nil
}
