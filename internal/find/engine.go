// Package find implements the find bar: case-insensitive substring search
// over whatever text a surface currently shows.
//
// Matching uses root-locale collation, so compatibility forms compare equal
// as well: "file" finds the ligature in "ﬁle" and "a" finds fullwidth "Ａ".
// Match offsets always refer to the original bytes of the line.
package find

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/search"
)

// Surface is the read and highlight side of a text surface.
type Surface interface {
	LineCount() int
	Line(n int) string
	Highlight(line, start, end int)
}

// Match is one hit. Start and End are byte offsets into the line.
// Index is 1-based within Total.
type Match struct {
	Line  int
	Start int
	End   int
	Index int
	Total int
}

type span struct{ start, end int }

type Engine struct {
	surface Surface
	matcher *search.Matcher

	needle  string
	pattern *search.Pattern
	total   int
	last    *Match
}

func New(s Surface) *Engine {
	return &Engine{
		surface: s,
		matcher: search.New(language.Und, search.IgnoreCase),
	}
}

// SetQuery resets the search state and counts the matches in the current text.
func (e *Engine) SetQuery(q string) int {
	e.Reset()
	e.needle = q
	if q == "" {
		return 0
	}
	e.pattern = e.matcher.CompileString(q)
	for i := 0; i < e.surface.LineCount(); i++ {
		e.total += len(e.spans(i))
	}
	return e.total
}

func (e *Engine) Query() string {
	return e.needle
}

func (e *Engine) Total() int {
	return e.total
}

// Reset forgets the query, the count and the last match.
func (e *Engine) Reset() {
	e.needle = ""
	e.pattern = nil
	e.total = 0
	e.last = nil
}

// Last returns the most recent successful match.
func (e *Engine) Last() (Match, bool) {
	if e.last == nil {
		return Match{}, false
	}
	return *e.last, true
}

// Next finds the first match after the last one. With wrap it continues from
// the top when the end is reached. The bool is false for NoMatch.
func (e *Engine) Next(wrap bool) (Match, bool) {
	if e.pattern == nil || e.total == 0 {
		return Match{}, false
	}
	line, col := 0, 0
	if e.last != nil {
		line, col = e.last.Line, e.last.End
	}
	n := e.surface.LineCount()
	for i := line; i < n; i++ {
		for _, s := range e.spans(i) {
			if i > line || s.start >= col {
				return e.hit(i, s), true
			}
		}
	}
	if !wrap {
		return Match{}, false
	}
	for i := 0; i < n; i++ {
		if spans := e.spans(i); len(spans) > 0 {
			return e.hit(i, spans[0]), true
		}
	}
	return Match{}, false
}

// Prev finds the last match before the last one, wrapping to the bottom.
func (e *Engine) Prev(wrap bool) (Match, bool) {
	if e.pattern == nil || e.total == 0 {
		return Match{}, false
	}
	n := e.surface.LineCount()
	line, col := n-1, -1
	if e.last != nil {
		line, col = e.last.Line, e.last.Start
	}
	for i := min(line, n-1); i >= 0; i-- {
		spans := e.spans(i)
		for j := len(spans) - 1; j >= 0; j-- {
			if i < line || col < 0 || spans[j].start < col {
				return e.hit(i, spans[j]), true
			}
		}
	}
	if !wrap {
		return Match{}, false
	}
	for i := n - 1; i >= 0; i-- {
		if spans := e.spans(i); len(spans) > 0 {
			return e.hit(i, spans[len(spans)-1]), true
		}
	}
	return Match{}, false
}

// Status is the "match K of N" label.
func (e *Engine) Status() string {
	switch {
	case e.needle == "":
		return ""
	case e.total == 0:
		return "No match"
	case e.last == nil && e.total == 1:
		return "1 match"
	case e.last == nil:
		return fmt.Sprintf("%d matches", e.total)
	}
	return fmt.Sprintf("%d of %d matches", e.last.Index, e.total)
}

func (e *Engine) hit(line int, s span) Match {
	m := Match{Line: line, Start: s.start, End: s.end, Total: e.total}
	for i := 0; i < line; i++ {
		m.Index += len(e.spans(i))
	}
	for _, o := range e.spans(line) {
		if o.start <= s.start {
			m.Index++
		}
	}
	e.last = &m
	e.surface.Highlight(m.Line, m.Start, m.End)
	return m
}

// spans lists the non-overlapping matches in line n, left to right.
func (e *Engine) spans(n int) []span {
	text := e.surface.Line(n)
	var out []span
	for off := 0; off < len(text); {
		start, end := e.pattern.IndexString(text[off:])
		if start < 0 || end <= start {
			break
		}
		out = append(out, span{off + start, off + end})
		off += end
	}
	return out
}
