// Package markup turns chapter sources into styled lines. HTML and
// Markdown are parsed into a width-independent block list once; Layout
// wraps the blocks for a given width as often as the terminal is resized.
package markup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/colonyops/folio/internal/core/styled"
)

// ErrInvalidWidth is returned by Layout for a width smaller than one column.
var ErrInvalidWidth = errors.New("invalid layout width")

type blockKind int

const (
	blockText blockKind = iota
	blockPre
	blockImage
	blockRule
	blockBlank
)

type block struct {
	kind blockKind
	// first prefixes the first wrapped line, rest every following line.
	first string
	rest  string
	spans []styled.Span
	text  string
}

// Document is a parsed chapter ready for layout.
type Document struct {
	blocks []block
}

// Title returns the text of the first heading, if any.
func (d *Document) Title() string {
	for _, b := range d.blocks {
		if b.kind != blockText || len(b.spans) == 0 || b.spans[0].Kind != styled.Heading {
			continue
		}
		return strings.Join(strings.Fields(spansText(b.spans)), " ")
	}
	return ""
}

// Len returns the number of blocks in the document.
func (d *Document) Len() int {
	return len(d.blocks)
}

// Layout wraps the document to width columns.
func (d *Document) Layout(width int) ([]styled.Line, error) {
	if width < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}

	var lines []styled.Line
	for _, b := range d.blocks {
		switch b.kind {
		case blockBlank:
			lines = append(lines, styled.Line{})
		case blockRule:
			lines = append(lines, prefixed(b.first, width, []styled.Span{{
				Text: strings.Repeat("─", max(1, min(width-runewidth.StringWidth(b.first), 40))),
				Kind: styled.Plain,
			}}))
		case blockImage:
			inner := max(1, width-runewidth.StringWidth(b.first))
			s := b.spans[0]
			s.Text = runewidth.Truncate(s.Text, inner, "…")
			lines = append(lines, prefixed(b.first, width, []styled.Span{s}))
		case blockPre:
			inner := max(1, width-runewidth.StringWidth(b.first))
			for i, raw := range strings.Split(b.text, "\n") {
				p := b.rest
				if i == 0 {
					p = b.first
				}
				for _, part := range hardCut(strings.ReplaceAll(raw, "\t", "    "), inner) {
					var spans []styled.Span
					if part != "" {
						spans = []styled.Span{{Text: part, Kind: styled.Preformatted}}
					}
					lines = append(lines, prefixed(p, width, spans))
					p = b.rest
				}
			}
		default:
			inner := max(1, width-max(runewidth.StringWidth(b.first), runewidth.StringWidth(b.rest)))
			for i, spans := range wrap(b.spans, inner) {
				p := b.rest
				if i == 0 {
					p = b.first
				}
				lines = append(lines, prefixed(p, width, spans))
			}
		}
	}

	for len(lines) > 0 && len(lines[len(lines)-1].Spans) == 0 {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

func prefixed(prefix string, width int, spans []styled.Span) styled.Line {
	if prefix == "" || runewidth.StringWidth(prefix) >= width {
		return styled.Line{Spans: spans}
	}
	out := make([]styled.Span, 0, len(spans)+1)
	out = append(out, styled.Span{Text: prefix, Kind: styled.Plain})
	for _, s := range spans {
		out = appendSpan(out, s)
	}
	return styled.Line{Spans: out}
}

func spansText(spans []styled.Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// builder accumulates blocks while a source tree is walked. Inline content
// is buffered until a block boundary flushes it.
type builder struct {
	blocks  []block
	pending []styled.Span
	levels  []level
}

type level struct {
	first string
	rest  string
	used  bool
}

func (b *builder) push(first, rest string) {
	b.levels = append(b.levels, level{first: first, rest: rest})
}

func (b *builder) pop() {
	if len(b.levels) > 0 {
		b.levels = b.levels[:len(b.levels)-1]
	}
}

func (b *builder) nested() bool {
	return len(b.levels) > 0
}

// prefixes returns the prefixes for the next block and marks every level's
// first-line marker as consumed.
func (b *builder) prefixes() (string, string) {
	var first, rest strings.Builder
	for i := range b.levels {
		l := &b.levels[i]
		if l.used {
			first.WriteString(l.rest)
		} else {
			first.WriteString(l.first)
			l.used = true
		}
		rest.WriteString(l.rest)
	}
	return first.String(), rest.String()
}

func (b *builder) inline(text string, kind styled.Annotation, target string) {
	if text == "" {
		return
	}
	b.pending = appendSpan(b.pending, styled.Span{Text: text, Kind: kind, Target: target})
}

// flush closes the pending paragraph. Whitespace-only content is dropped.
func (b *builder) flush() {
	spans := b.pending
	b.pending = nil
	if strings.TrimSpace(spansText(spans)) == "" {
		return
	}
	first, rest := b.prefixes()
	b.blocks = append(b.blocks, block{kind: blockText, first: first, rest: rest, spans: spans})
}

func (b *builder) spacer() {
	b.flush()
	if len(b.blocks) == 0 || b.blocks[len(b.blocks)-1].kind == blockBlank {
		return
	}
	b.blocks = append(b.blocks, block{kind: blockBlank})
}

func (b *builder) pre(text string) {
	b.flush()
	text = strings.TrimRight(strings.TrimPrefix(text, "\n"), "\n ")
	if text == "" {
		return
	}
	first, rest := b.prefixes()
	b.blocks = append(b.blocks, block{kind: blockPre, first: first, rest: rest, text: text})
}

func (b *builder) image(ref, alt string) {
	b.flush()
	if ref == "" {
		return
	}
	alt = strings.Join(strings.Fields(alt), " ")
	if alt == "" {
		alt = "image"
	}
	first, rest := b.prefixes()
	b.blocks = append(b.blocks, block{
		kind:  blockImage,
		first: first,
		rest:  rest,
		spans: []styled.Span{{Text: "[" + alt + "]", Kind: styled.ImageRef, Target: ref}},
	})
}

func (b *builder) rule() {
	b.flush()
	first, rest := b.prefixes()
	b.blocks = append(b.blocks, block{kind: blockRule, first: first, rest: rest})
}

func (b *builder) document() *Document {
	b.flush()
	return &Document{blocks: b.blocks}
}
