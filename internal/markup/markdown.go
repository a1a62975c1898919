package markup

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/colonyops/folio/internal/core/styled"
)

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// ParseMarkdown parses a CommonMark document with GitHub extensions.
func ParseMarkdown(src []byte) (*Document, error) {
	root := markdownParser.Parse(text.NewReader(src))

	w := &markdownWalker{src: src}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, false)
	}
	return w.b.document(), nil
}

type markdownWalker struct {
	b   builder
	src []byte
}

func (w *markdownWalker) block(node ast.Node, tight bool) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		w.inlines(n, styled.Plain, "")
		if tight {
			w.b.flush()
		} else {
			w.b.spacer()
		}
	case *ast.Heading:
		w.b.flush()
		w.inlines(n, styled.Heading, "")
		w.b.spacer()
	case *ast.Blockquote:
		w.b.flush()
		w.b.push("│ ", "│ ")
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c, tight)
		}
		w.b.flush()
		w.b.pop()
		w.b.spacer()
	case *ast.List:
		w.list(n)
	case *ast.FencedCodeBlock:
		w.b.pre(w.lines(n))
		w.b.spacer()
	case *ast.CodeBlock:
		w.b.pre(w.lines(n))
		w.b.spacer()
	case *ast.ThematicBreak:
		w.b.rule()
		w.b.spacer()
	case *ast.HTMLBlock:
		// Raw HTML is not rendered.
	case *extast.Table:
		w.table(n)
		w.b.spacer()
	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c, tight)
		}
	}
}

func (w *markdownWalker) list(list *ast.List) {
	w.b.flush()
	top := !w.b.nested()

	index := list.Start
	if index == 0 {
		index = 1
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if list.IsOrdered() {
			marker = strconv.Itoa(index) + ". "
			index++
		}
		w.b.push(marker, strings.Repeat(" ", len([]rune(marker))))
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c, list.IsTight)
		}
		w.b.flush()
		w.b.pop()
	}

	if top {
		w.b.spacer()
	}
}

func (w *markdownWalker) table(table *extast.Table) {
	w.b.flush()
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		_, header := row.(*extast.TableHeader)
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			kind := styled.Plain
			if header {
				kind = styled.Strong
			}
			w.inlines(cell, kind, "")
			if cell.NextSibling() != nil {
				w.b.inline(" | ", styled.Plain, "")
			}
		}
		w.b.flush()
	}
}

func (w *markdownWalker) inlines(node ast.Node, kind styled.Annotation, target string) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		w.inline(c, kind, target)
	}
}

func (w *markdownWalker) inline(node ast.Node, kind styled.Annotation, target string) {
	switch n := node.(type) {
	case *ast.Text:
		w.b.inline(string(n.Segment.Value(w.src)), kind, target)
		if n.SoftLineBreak() {
			w.b.inline(" ", kind, target)
		}
		if n.HardLineBreak() {
			w.b.flush()
		}
	case *ast.String:
		w.b.inline(string(n.Value), kind, target)
	case *ast.CodeSpan:
		w.b.inline(plainText(n, w.src), w.nested(kind, styled.Code), target)
	case *ast.Emphasis:
		k := styled.Emphasis
		if n.Level >= 2 {
			k = styled.Strong
		}
		w.inlines(n, w.nested(kind, k), target)
	case *extast.Strikethrough:
		w.inlines(n, w.nested(kind, styled.Strikeout), target)
	case *ast.Link:
		if kind == styled.Heading {
			w.inlines(n, kind, target)
			return
		}
		w.inlines(n, styled.Link, string(n.Destination))
	case *ast.AutoLink:
		url := string(n.URL(w.src))
		w.b.inline(url, w.nested(kind, styled.Link), url)
	case *ast.Image:
		w.b.image(string(n.Destination), plainText(n, w.src))
	case *extast.TaskCheckBox:
		box := "[ ] "
		if n.IsChecked {
			box = "[x] "
		}
		w.b.inline(box, styled.Plain, "")
	case *ast.RawHTML:
	default:
		w.inlines(node, kind, target)
	}
}

// nested picks the annotation for an inline element inside kind. Headings
// keep their style throughout.
func (w *markdownWalker) nested(outer, inner styled.Annotation) styled.Annotation {
	if outer == styled.Heading {
		return outer
	}
	return inner
}

func (w *markdownWalker) lines(n ast.Node) string {
	var b strings.Builder
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(w.src))
	}
	return b.String()
}

func plainText(node ast.Node, src []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(node)
	return b.String()
}
