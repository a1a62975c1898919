package markup

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/colonyops/folio/internal/core/styled"
)

type segment struct {
	text   string
	kind   styled.Annotation
	target string
}

type word struct {
	segs  []segment
	width int
}

func (w *word) add(s segment) {
	w.segs = append(w.segs, s)
	w.width += runewidth.StringWidth(s.text)
}

func breakable(r rune) bool {
	return r != '\u00a0' && unicode.IsSpace(r)
}

// words splits spans at whitespace. A word may carry several segments when
// annotations change mid-word, as in "<b>bold</b>,".
func words(spans []styled.Span) []word {
	var (
		out []word
		cur word
	)
	flush := func() {
		if len(cur.segs) > 0 {
			out = append(out, cur)
			cur = word{}
		}
	}

	for _, s := range spans {
		start := -1
		for i, r := range s.Text {
			if breakable(r) {
				if start >= 0 {
					cur.add(segment{text: s.Text[start:i], kind: s.Kind, target: s.Target})
					start = -1
				}
				flush()
				continue
			}
			if start < 0 {
				start = i
			}
		}
		if start >= 0 {
			cur.add(segment{text: s.Text[start:], kind: s.Kind, target: s.Target})
		}
	}
	flush()
	return out
}

// split breaks a word wider than width into width-sized pieces.
func split(w word, width int) []word {
	if w.width <= width {
		return []word{w}
	}

	var (
		out []word
		cur word
	)
	for _, s := range w.segs {
		var b strings.Builder
		bw := 0
		for _, r := range s.text {
			rw := runewidth.RuneWidth(r)
			if cur.width+bw+rw > width && cur.width+bw > 0 {
				if b.Len() > 0 {
					cur.add(segment{text: b.String(), kind: s.kind, target: s.target})
					b.Reset()
					bw = 0
				}
				out = append(out, cur)
				cur = word{}
			}
			b.WriteRune(r)
			bw += rw
		}
		if b.Len() > 0 {
			cur.add(segment{text: b.String(), kind: s.kind, target: s.target})
		}
	}
	if len(cur.segs) > 0 {
		out = append(out, cur)
	}
	return out
}

// wrap fills lines of at most width columns with whitespace-collapsed
// words, splitting words that do not fit on a line of their own.
func wrap(spans []styled.Span, width int) [][]styled.Span {
	var (
		lines [][]styled.Span
		cur   []styled.Span
		curW  int
	)

	for _, w := range words(spans) {
		for _, piece := range split(w, width) {
			if curW > 0 && curW+1+piece.width > width {
				lines = append(lines, cur)
				cur, curW = nil, 0
			}
			if curW > 0 {
				cur = appendSpan(cur, gap(cur[len(cur)-1], piece.segs[0]))
				curW++
			}
			for _, s := range piece.segs {
				cur = appendSpan(cur, styled.Span{Text: s.text, Kind: s.kind, Target: s.target})
			}
			curW += piece.width
		}
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// gap is the space between two words. It keeps the annotation when both
// sides share it so underlines and links stay continuous.
func gap(left styled.Span, right segment) styled.Span {
	if left.Kind == right.kind && left.Target == right.target {
		return styled.Span{Text: " ", Kind: left.Kind, Target: left.Target}
	}
	return styled.Span{Text: " ", Kind: styled.Plain}
}

func appendSpan(spans []styled.Span, s styled.Span) []styled.Span {
	if s.Text == "" {
		return spans
	}
	if n := len(spans); n > 0 {
		last := &spans[n-1]
		if last.Kind == s.Kind && last.Target == s.Target && s.Kind != styled.ImageRef {
			last.Text += s.Text
			return spans
		}
	}
	return append(spans, s)
}

// hardCut splits text into pieces of at most width columns without
// regard for word boundaries.
func hardCut(text string, width int) []string {
	if runewidth.StringWidth(text) <= width {
		return []string{text}
	}

	var (
		out []string
		b   strings.Builder
		bw  int
	)
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if bw+rw > width && bw > 0 {
			out = append(out, b.String())
			b.Reset()
			bw = 0
		}
		b.WriteRune(r)
		bw += rw
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
