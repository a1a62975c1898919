package markup

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/colonyops/folio/internal/core/styled"
)

var skippedElements = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"title":    true,
	"noscript": true,
	"template": true,
}

// Elements that close the current paragraph without adding a blank line.
var breakElements = map[string]bool{
	"div": true, "section": true, "article": true, "header": true, "footer": true,
	"main": true, "nav": true, "aside": true, "figure": true, "body": true, "html": true,
	"dl": true, "dt": true, "dd": true, "table": true, "thead": true, "tbody": true,
	"tfoot": true, "tr": true, "center": true, "address": true, "caption": true,
}

// Elements that close the current paragraph and are followed by a blank line.
var paragraphElements = map[string]bool{
	"p": true, "figcaption": true,
}

var inlineKinds = map[string]styled.Annotation{
	"em":     styled.Emphasis,
	"i":      styled.Emphasis,
	"cite":   styled.Emphasis,
	"var":    styled.Emphasis,
	"dfn":    styled.Emphasis,
	"strong": styled.Strong,
	"b":      styled.Strong,
	"s":      styled.Strikeout,
	"del":    styled.Strikeout,
	"strike": styled.Strikeout,
	"code":   styled.Code,
	"kbd":    styled.Code,
	"samp":   styled.Code,
	"tt":     styled.Code,
}

// ParseHTML parses an HTML or XHTML chapter. When selector is not empty
// only the first element it matches is read; a selector that matches
// nothing falls back to the document body.
func ParseHTML(r io.Reader, selector string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var root *goquery.Selection
	if selector != "" {
		root = doc.Find(selector).First()
	}
	if root == nil || root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	w := &htmlWalker{}
	w.walk(root, styled.Plain, "")
	return w.b.document(), nil
}

type htmlWalker struct {
	b builder
}

func (w *htmlWalker) walk(sel *goquery.Selection, kind styled.Annotation, target string) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		node := c.Get(0)
		switch node.Type {
		case html.TextNode:
			w.b.inline(node.Data, kind, target)
		case html.ElementNode:
			w.element(c, goquery.NodeName(c), kind, target)
		case html.DocumentNode:
			w.walk(c, kind, target)
		}
	})
}

func (w *htmlWalker) element(c *goquery.Selection, name string, kind styled.Annotation, target string) {
	switch {
	case skippedElements[name]:
	case name == "br":
		if len(w.b.pending) == 0 {
			w.b.spacer()
			return
		}
		w.b.flush()
	case name == "hr":
		w.b.rule()
		w.b.spacer()
	case name == "img":
		w.b.image(attr(c, "src"), firstNonEmpty(attr(c, "alt"), attr(c, "title")))
		w.b.spacer()
	case name == "image":
		w.b.image(firstNonEmpty(attr(c, "href"), attr(c, "xlink:href")), "")
		w.b.spacer()
	case name == "pre":
		w.b.pre(c.Text())
		w.b.spacer()
	case isHeading(name):
		w.b.flush()
		w.walk(c, styled.Heading, "")
		w.b.spacer()
	case name == "blockquote":
		w.b.flush()
		w.b.push("│ ", "│ ")
		w.walk(c, kind, target)
		w.b.flush()
		w.b.pop()
		w.b.spacer()
	case name == "ul" || name == "ol":
		w.list(c, name == "ol", kind, target)
	case name == "li":
		w.item(c, "• ", kind, target)
	case name == "td" || name == "th":
		w.walk(c, kind, target)
		w.b.inline("  ", styled.Plain, "")
	case name == "a":
		if href := attr(c, "href"); href != "" && kind != styled.Heading {
			w.walk(c, styled.Link, href)
			return
		}
		w.walk(c, kind, target)
	case paragraphElements[name]:
		w.b.flush()
		w.walk(c, kind, target)
		w.b.spacer()
	case breakElements[name]:
		w.b.flush()
		w.walk(c, kind, target)
		w.b.flush()
	default:
		if k, ok := inlineKinds[name]; ok && kind != styled.Heading {
			w.walk(c, k, target)
			return
		}
		w.walk(c, kind, target)
	}
}

func (w *htmlWalker) list(c *goquery.Selection, ordered bool, kind styled.Annotation, target string) {
	w.b.flush()
	top := !w.b.nested()

	n := 1
	if v, err := strconv.Atoi(attr(c, "start")); err == nil {
		n = v
	}
	c.Children().Each(func(_ int, li *goquery.Selection) {
		if goquery.NodeName(li) != "li" {
			w.element(li, goquery.NodeName(li), kind, target)
			return
		}
		marker := "• "
		if ordered {
			marker = strconv.Itoa(n) + ". "
			n++
		}
		w.item(li, marker, kind, target)
	})

	if top {
		w.b.spacer()
	}
}

func (w *htmlWalker) item(li *goquery.Selection, marker string, kind styled.Annotation, target string) {
	w.b.flush()
	w.b.push(marker, strings.Repeat(" ", len([]rune(marker))))
	w.walk(li, kind, target)
	w.b.flush()
	w.b.pop()
}

func isHeading(name string) bool {
	return len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6'
}

func attr(sel *goquery.Selection, name string) string {
	v, _ := sel.Attr(name)
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
