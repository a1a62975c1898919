// Package book opens reading sources and exposes them as ordered chapters
// with chapter-relative resource lookup.
package book

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/colonyops/folio/internal/core/resource"
	"github.com/colonyops/folio/internal/markup"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported book format")
	ErrChapterRange      = errors.New("chapter out of range")
)

// Book is an opened source with one or more chapters.
type Book interface {
	Title() string
	Path() string
	Len() int
	// ChapterTitle returns a short label for chapter i.
	ChapterTitle(i int) string
	// Chapter parses chapter i.
	Chapter(ctx context.Context, i int) (*markup.Document, error)
	// Resources resolves references made by chapter i.
	Resources(i int) resource.Provider
	Close() error
}

// Options configures how chapters are parsed.
type Options struct {
	// Selector limits HTML chapters to the first element it matches.
	Selector string
}

// Open picks a source implementation by file extension.
func Open(p string, opts Options) (Book, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".epub":
		return OpenEPUB(p, opts)
	case ".md", ".markdown":
		return openFile(p, formatMarkdown, opts)
	case ".html", ".htm", ".xhtml":
		return openFile(p, formatHTML, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(p))
	}
}

// Supported reports whether Open accepts the file.
func Supported(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".epub", ".md", ".markdown", ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

func checkRange(b Book, i int) error {
	if i < 0 || i >= b.Len() {
		return fmt.Errorf("%w: %d of %d", ErrChapterRange, i, b.Len())
	}
	return nil
}

// cleanRef strips the query and fragment from a reference and decodes
// percent escapes. Remote references are rejected.
func cleanRef(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse reference %q: %w", ref, err)
	}
	if u.Scheme != "" || u.Host != "" {
		return "", fmt.Errorf("%w: remote reference %q", fs.ErrNotExist, ref)
	}
	if u.Path == "" {
		return "", fmt.Errorf("%w: empty reference %q", fs.ErrNotExist, ref)
	}
	return u.Path, nil
}

// lookup reads ref relative to dir in fsys. When that path does not exist
// the first file anywhere in fsys with the same base name is used.
func lookup(fsys fs.FS, dir, ref string) ([]byte, error) {
	clean, err := cleanRef(ref)
	if err != nil {
		return nil, err
	}

	name := strings.TrimPrefix(path.Clean(path.Join(dir, clean)), "/")
	if strings.HasPrefix(clean, "/") {
		name = strings.TrimPrefix(path.Clean(clean), "/")
	}
	if data, err := fs.ReadFile(fsys, name); err == nil {
		return data, nil
	}

	matches, err := doublestar.Glob(fsys, "**/"+quoteMeta(path.Base(clean)))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", clean, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", fs.ErrNotExist, clean)
	}
	sort.Strings(matches)
	return fs.ReadFile(fsys, matches[0])
}

func quoteMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
