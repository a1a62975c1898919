package book

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/colonyops/folio/internal/core/resource"
	"github.com/colonyops/folio/internal/markup"
)

// ErrInvalidEPUB is returned for archives without a usable package document.
var ErrInvalidEPUB = errors.New("invalid epub")

const containerPath = "META-INF/container.xml"

type container struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opf struct {
	Titles   []string `xml:"metadata>title"`
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef  string `xml:"idref,attr"`
		Linear string `xml:"linear,attr"`
	} `xml:"spine>itemref"`
}

type epubChapter struct {
	href  string
	media string
}

// EPUB is a zipped OPF publication. Chapters follow the spine order.
type EPUB struct {
	path     string
	title    string
	zr       *zip.ReadCloser
	chapters []epubChapter
	opts     Options
}

// OpenEPUB opens the archive at p and reads its package document.
func OpenEPUB(p string, opts Options) (*EPUB, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}

	b := &EPUB{path: p, zr: zr, opts: opts}
	if err := b.load(); err != nil {
		_ = zr.Close()
		return nil, err
	}
	return b, nil
}

func (b *EPUB) load() error {
	var c container
	if err := b.decode(containerPath, &c); err != nil {
		return err
	}

	rootfile := ""
	for _, rf := range c.Rootfiles {
		if rf.MediaType == "" || rf.MediaType == "application/oebps-package+xml" {
			rootfile = rf.FullPath
			break
		}
	}
	if rootfile == "" {
		return fmt.Errorf("%w: no package document", ErrInvalidEPUB)
	}

	var pkg opf
	if err := b.decode(rootfile, &pkg); err != nil {
		return err
	}

	items := make(map[string]epubChapter, len(pkg.Manifest))
	base := path.Dir(rootfile)
	for _, it := range pkg.Manifest {
		href := it.Href
		if unescaped, err := url.PathUnescape(href); err == nil {
			href = unescaped
		}
		items[it.ID] = epubChapter{
			href:  strings.TrimPrefix(path.Clean(path.Join(base, href)), "/"),
			media: it.MediaType,
		}
	}

	for _, ref := range pkg.Spine {
		it, ok := items[ref.IDRef]
		if !ok || ref.Linear == "no" {
			continue
		}
		if it.media != "application/xhtml+xml" && it.media != "text/html" {
			continue
		}
		b.chapters = append(b.chapters, it)
	}
	if len(b.chapters) == 0 {
		return fmt.Errorf("%w: empty spine", ErrInvalidEPUB)
	}

	for _, t := range pkg.Titles {
		if t = strings.TrimSpace(t); t != "" {
			b.title = t
			break
		}
	}
	if b.title == "" {
		b.title = strings.TrimSuffix(filepath.Base(b.path), filepath.Ext(b.path))
	}
	return nil
}

func (b *EPUB) decode(name string, v any) error {
	data, err := fs.ReadFile(b.zr, name)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrInvalidEPUB, name, err)
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrInvalidEPUB, name, err)
	}
	return nil
}

func (b *EPUB) Title() string { return b.title }
func (b *EPUB) Path() string  { return b.path }
func (b *EPUB) Len() int      { return len(b.chapters) }

// ChapterTitle returns the chapter's file name without extension.
func (b *EPUB) ChapterTitle(i int) string {
	if checkRange(b, i) != nil {
		return ""
	}
	name := path.Base(b.chapters[i].href)
	return strings.TrimSuffix(name, path.Ext(name))
}

func (b *EPUB) Chapter(_ context.Context, i int) (*markup.Document, error) {
	if err := checkRange(b, i); err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(b.zr, b.chapters[i].href)
	if err != nil {
		return nil, fmt.Errorf("read chapter %d: %w", i, err)
	}
	return markup.ParseHTML(bytes.NewReader(data), b.opts.Selector)
}

// Resources resolves references relative to chapter i inside the archive.
func (b *EPUB) Resources(i int) resource.Provider {
	dir := ""
	if checkRange(b, i) == nil {
		dir = path.Dir(b.chapters[i].href)
	}
	return resource.ProviderFunc(func(_ context.Context, ref string) ([]byte, error) {
		return lookup(b.zr, dir, ref)
	})
}

func (b *EPUB) Close() error {
	return b.zr.Close()
}
