// Package resource materializes embedded resources (images) referenced by
// a document into a session scoped scratch directory.
package resource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// ErrResourceMissing is returned when a reference cannot be resolved.
var ErrResourceMissing = errors.New("resource missing")

// Provider returns the raw bytes behind a document reference.
type Provider interface {
	Resource(ctx context.Context, ref string) ([]byte, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, ref string) ([]byte, error)

func (f ProviderFunc) Resource(ctx context.Context, ref string) ([]byte, error) {
	return f(ctx, ref)
}

// Cache maps references to files in a scratch directory. Each reference is
// fetched from the provider at most once per cache.
type Cache struct {
	provider Provider

	mu      sync.Mutex
	dir     string
	paths   map[string]string
	names   map[string]struct{}
	fetches int
	closed  bool
}

// New creates a cache backed by a fresh scratch directory under parent. An
// empty parent uses the OS temp directory.
func New(provider Provider, parent string) (*Cache, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("create scratch parent: %w", err)
		}
	}

	dir, err := os.MkdirTemp(parent, "folio-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	return &Cache{
		provider: provider,
		dir:      dir,
		paths:    map[string]string{},
		names:    map[string]struct{}{},
	}, nil
}

// Dir returns the scratch directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Fetches returns how many times the provider was consulted.
func (c *Cache) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

// Resolve returns a local file path holding the bytes for ref, extracting
// them on first use.
func (c *Cache) Resolve(ctx context.Context, ref string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", fmt.Errorf("resolve %q: cache closed", ref)
	}
	if p, ok := c.paths[ref]; ok {
		return p, nil
	}

	c.fetches++
	data, err := c.provider.Resource(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrResourceMissing) {
			return "", err
		}
		return "", fmt.Errorf("%w: %q: %w", ErrResourceMissing, ref, err)
	}

	name := c.uniqueNameLocked(baseName(ref))
	p := filepath.Join(c.dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	c.paths[ref] = p
	return p, nil
}

// Close removes the scratch directory. It is safe to call more than once.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.paths = map[string]string{}

	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("remove scratch dir: %w", err)
	}
	return nil
}

func (c *Cache) uniqueNameLocked(base string) string {
	name := base
	for n := 1; ; n++ {
		if _, taken := c.names[name]; !taken {
			break
		}
		name = fmt.Sprintf("%d-%s", n, base)
	}
	c.names[name] = struct{}{}
	return name
}

// baseName derives a file name from a reference, dropping any query or
// fragment.
func baseName(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	base := path.Base(strings.ReplaceAll(ref, `\`, "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		return "resource"
	}
	return base
}
