package resource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapProvider(files map[string]string) ProviderFunc {
	return func(_ context.Context, ref string) ([]byte, error) {
		data, ok := files[ref]
		if !ok {
			return nil, errors.New("not in archive")
		}
		return []byte(data), nil
	}
}

func TestResolve_ExtractsOncePerReference(t *testing.T) {
	calls := 0
	provider := ProviderFunc(func(_ context.Context, ref string) ([]byte, error) {
		calls++
		return []byte("png-bytes"), nil
	})

	c, err := New(provider, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	first, err := c.Resolve(context.Background(), "images/cover.png")
	require.NoError(t, err)
	second, err := c.Resolve(context.Background(), "images/cover.png")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.Fetches())
	assert.Equal(t, "cover.png", filepath.Base(first))

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestResolve_SameBaseNameDifferentReferences(t *testing.T) {
	c, err := New(mapProvider(map[string]string{
		"a/fig.png": "one",
		"b/fig.png": "two",
	}), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	p1, err := c.Resolve(context.Background(), "a/fig.png")
	require.NoError(t, err)
	p2, err := c.Resolve(context.Background(), "b/fig.png")
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
	assert.Equal(t, "1-fig.png", filepath.Base(p2))

	data, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestResolve_MissingReference(t *testing.T) {
	c, err := New(mapProvider(nil), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.Resolve(context.Background(), "gone.png")
	require.ErrorIs(t, err, ErrResourceMissing)
	assert.Contains(t, err.Error(), "gone.png")
}

func TestClose_RemovesScratchDir(t *testing.T) {
	c, err := New(mapProvider(map[string]string{"x.gif": "gif"}), t.TempDir())
	require.NoError(t, err)

	_, err = c.Resolve(context.Background(), "x.gif")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = os.Stat(c.Dir())
	assert.True(t, os.IsNotExist(err))

	_, err = c.Resolve(context.Background(), "x.gif")
	assert.Error(t, err)
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{ref: "images/cover.png", want: "cover.png"},
		{ref: "../img/a.jpg?v=2", want: "a.jpg"},
		{ref: "pic.webp#frag", want: "pic.webp"},
		{ref: `dir\win.bmp`, want: "win.bmp"},
		{ref: "", want: "resource"},
		{ref: "/", want: "resource"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, baseName(tt.ref))
		})
	}
}
