package book

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/colonyops/folio/internal/core/resource"
	"github.com/colonyops/folio/internal/markup"
)

type format int

const (
	formatHTML format = iota
	formatMarkdown
)

// File is a single-chapter HTML or Markdown document on disk. It is read
// again on every Chapter call so edits show up on reload.
type File struct {
	path   string
	format format
	opts   Options
	title  string
}

func openFile(p string, f format, opts Options) (*File, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", p, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return &File{path: abs, format: f, opts: opts}, nil
}

// Title returns the first heading of the document, or the file name until
// the document has been read.
func (b *File) Title() string {
	if b.title != "" {
		return b.title
	}
	return strings.TrimSuffix(filepath.Base(b.path), filepath.Ext(b.path))
}

func (b *File) Path() string { return b.path }
func (b *File) Len() int     { return 1 }

func (b *File) ChapterTitle(i int) string {
	if checkRange(b, i) != nil {
		return ""
	}
	return b.Title()
}

func (b *File) Chapter(_ context.Context, i int) (*markup.Document, error) {
	if err := checkRange(b, i); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}

	var doc *markup.Document
	switch b.format {
	case formatMarkdown:
		doc, err = markup.ParseMarkdown(data)
	default:
		doc, err = markup.ParseHTML(bytes.NewReader(data), b.opts.Selector)
	}
	if err != nil {
		return nil, err
	}

	if t := doc.Title(); t != "" {
		b.title = t
	}
	return doc, nil
}

// Resources resolves references relative to the document's directory.
func (b *File) Resources(int) resource.Provider {
	root := filepath.Dir(b.path)
	fsys := os.DirFS(root)
	return resource.ProviderFunc(func(_ context.Context, ref string) ([]byte, error) {
		return lookup(fsys, ".", ref)
	})
}

func (b *File) Close() error { return nil }
