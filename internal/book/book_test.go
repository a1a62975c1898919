package book

import (
	"archive/zip"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/folio/internal/core/styled"
)

const testContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>The Test Book</dc:title>
  </metadata>
  <manifest>
    <item id="c1" href="text/chapter%201.xhtml" media-type="application/xhtml+xml"/>
    <item id="c2" href="text/chapter2.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
    <item id="img" href="images/fig.png" media-type="image/png"/>
  </manifest>
  <spine>
    <itemref idref="c2"/>
    <itemref idref="css"/>
    <itemref idref="c1"/>
  </spine>
</package>`

func writeEPUB(t *testing.T, files map[string]string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(p)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func testBook(t *testing.T) string {
	return writeEPUB(t, map[string]string{
		containerPath:                   testContainer,
		"OEBPS/content.opf":             testOPF,
		"OEBPS/text/chapter 1.xhtml":    `<html><body><h1>One</h1><p><img src="../images/fig.png" alt="fig"/></p></body></html>`,
		"OEBPS/text/chapter2.xhtml":     `<html><body><h1>Two</h1><p>second</p></body></html>`,
		"OEBPS/images/fig.png":          "png-bytes",
		"OEBPS/misc/deep/elsewhere.png": "found-by-name",
		"OEBPS/style.css":               "p {}",
	})
}

func TestOpenEPUB_SpineOrder(t *testing.T) {
	b, err := Open(testBook(t), Options{})
	require.NoError(t, err)
	defer b.Close() //nolint:errcheck

	assert.Equal(t, "The Test Book", b.Title())
	assert.Equal(t, 2, b.Len(), "non-document spine items are skipped")
	assert.Equal(t, "chapter2", b.ChapterTitle(0))
	assert.Equal(t, "chapter 1", b.ChapterTitle(1))

	doc, err := b.Chapter(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Two", doc.Title())

	_, err = b.Chapter(context.Background(), 2)
	assert.ErrorIs(t, err, ErrChapterRange)
}

func TestEPUB_ResourcesRelativeToChapter(t *testing.T) {
	b, err := Open(testBook(t), Options{})
	require.NoError(t, err)
	defer b.Close() //nolint:errcheck

	ctx := context.Background()
	doc, err := b.Chapter(ctx, 1)
	require.NoError(t, err)

	lines, err := doc.Layout(40)
	require.NoError(t, err)
	occs := styled.Images(lines)
	require.Len(t, occs, 1)

	res := b.Resources(1)
	data, err := res.Resource(ctx, occs[0].Reference)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	data, err = res.Resource(ctx, "wrong/dir/elsewhere.png#frag")
	require.NoError(t, err)
	assert.Equal(t, "found-by-name", string(data))

	_, err = res.Resource(ctx, "nothing.png")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = res.Resource(ctx, "https://example.com/a.png")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpenEPUB_Invalid(t *testing.T) {
	p := writeEPUB(t, map[string]string{"mimetype": "application/epub+zip"})
	_, err := Open(p, Options{})
	assert.ErrorIs(t, err, ErrInvalidEPUB)

	p = writeEPUB(t, map[string]string{
		containerPath:       testContainer,
		"OEBPS/content.opf": `<package><manifest/><spine/></package>`,
	})
	_, err = Open(p, Options{})
	assert.ErrorIs(t, err, ErrInvalidEPUB)
}

func TestOpen_UnsupportedExtension(t *testing.T) {
	_, err := Open("notes.txt", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, Supported("notes.txt"))
	assert.True(t, Supported("Book.EPUB"))
}

func TestFile_Markdown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "a.png"), []byte("a"), 0o644))

	p := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(p, []byte("# Notes\n\n![a](img/a.png)\n"), 0o644))

	b, err := Open(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, "notes", b.Title())

	doc, err := b.Chapter(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Notes", doc.Title())
	assert.Equal(t, "Notes", b.Title())

	data, err := b.Resources(0).Resource(context.Background(), "img/a.png")
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	data, err = b.Resources(0).Resource(context.Background(), "a.png")
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
}

func TestFile_HTMLWithSelector(t *testing.T) {
	p := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(p, []byte(`<body><nav>menu</nav><article><p>text</p></article></body>`), 0o644))

	b, err := Open(p, Options{Selector: "article"})
	require.NoError(t, err)

	doc, err := b.Chapter(context.Background(), 0)
	require.NoError(t, err)
	lines, err := doc.Layout(20)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "text", lines[0].Text())
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.md"), Options{})
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(p, []byte("one"), 0o644))

	w, err := NewWatcher(p, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close() //nolint:errcheck

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(p, []byte("again"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(p), "other.md"), []byte("x"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	change, ok := w.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, w.path, change.Path)

	quiet, cancelQuiet := context.WithTimeout(context.Background(), 3*debounceDelay)
	defer cancelQuiet()
	_, ok = w.Next(quiet)
	assert.False(t, ok, "a burst of writes yields a single change")
}
