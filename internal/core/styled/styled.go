// Package styled defines the line model produced by markup layout and
// consumed by the reader: ordered lines of text spans, each tagged with
// exactly one annotation.
package styled

import "strings"

// Annotation is the closed set of span kinds. Adding a value requires a
// matching method on Handler.
type Annotation int

const (
	Plain Annotation = iota
	Heading
	Emphasis
	Strong
	Strikeout
	Code
	Preformatted
	ImageRef
	Link
)

var annotationNames = [...]string{
	Plain:        "plain",
	Heading:      "heading",
	Emphasis:     "emphasis",
	Strong:       "strong",
	Strikeout:    "strikeout",
	Code:         "code",
	Preformatted: "preformatted",
	ImageRef:     "image",
	Link:         "link",
}

func (a Annotation) String() string {
	if a < 0 || int(a) >= len(annotationNames) {
		return "unknown"
	}
	return annotationNames[a]
}

// Span is a run of text carrying one annotation. Target holds the image
// reference for ImageRef spans and the destination for Link spans.
type Span struct {
	Text   string
	Kind   Annotation
	Target string
}

// Line is one wrapped row of content.
type Line struct {
	Spans []Span
}

// Text returns the concatenated span text.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// HasImage reports whether the line carries at least one image reference.
func (l Line) HasImage() bool {
	for _, s := range l.Spans {
		if s.Kind == ImageRef {
			return true
		}
	}
	return false
}

// Handler receives a span dispatched by Visit. There is one method per
// annotation.
type Handler interface {
	Plain(s Span)
	Heading(s Span)
	Emphasis(s Span)
	Strong(s Span)
	Strikeout(s Span)
	Code(s Span)
	Preformatted(s Span)
	ImageRef(s Span)
	Link(s Span)
}

// Visit dispatches s to the handler method for its annotation. Values
// outside the known set are treated as plain text.
func Visit(s Span, h Handler) {
	switch s.Kind {
	case Heading:
		h.Heading(s)
	case Emphasis:
		h.Emphasis(s)
	case Strong:
		h.Strong(s)
	case Strikeout:
		h.Strikeout(s)
	case Code:
		h.Code(s)
	case Preformatted:
		h.Preformatted(s)
	case ImageRef:
		h.ImageRef(s)
	case Link:
		h.Link(s)
	default:
		h.Plain(s)
	}
}

// Occurrence locates one image reference in a document. Index counts prior
// appearances of the same reference, so the n-th use of "a.png" in a
// chapter always has Index n-1 regardless of how lines are wrapped.
type Occurrence struct {
	Line      int
	Span      int
	Reference string
	Index     int
}

// Images lists every image reference in lines, in document order.
func Images(lines []Line) []Occurrence {
	var (
		out  []Occurrence
		seen = map[string]int{}
	)
	for li, line := range lines {
		for si, s := range line.Spans {
			if s.Kind != ImageRef || s.Target == "" {
				continue
			}
			out = append(out, Occurrence{
				Line:      li,
				Span:      si,
				Reference: s.Target,
				Index:     seen[s.Target],
			})
			seen[s.Target]++
		}
	}
	return out
}
