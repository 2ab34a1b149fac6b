// Package surface is an in-memory rich-text surface: it takes line-oriented
// markup, keeps the display text of every line with its link spans, and
// tracks scroll position and the current highlight.
package surface

import (
	"sort"
	"strings"

	"github.com/jcdickinson/docview/internal/markdown"
	"github.com/jcdickinson/docview/internal/theme"
)

type Highlight struct {
	Line  int
	Start int
	End   int
}

type Buffer struct {
	lines     []markdown.Line
	scroll    int
	highlight *Highlight
	theme     theme.Theme
	styles    theme.Styles
	themed    int
}

func New() *Buffer {
	th := theme.Default()
	return &Buffer{theme: th, styles: th.Styles()}
}

// SetText replaces the content. Scroll and highlight are reset.
func (b *Buffer) SetText(text string) {
	raw := strings.Split(text, "\n")
	b.lines = make([]markdown.Line, len(raw))
	for i, l := range raw {
		b.lines[i] = markdown.ParseLine(l)
	}
	b.scroll = 0
	b.highlight = nil
}

func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// Line returns the display text of line n, or "" when out of range.
func (b *Buffer) Line(n int) string {
	if n < 0 || n >= len(b.lines) {
		return ""
	}
	return b.lines[n].Text
}

// Heading returns the heading level of line n, 0 for body text.
func (b *Buffer) Heading(n int) int {
	if n < 0 || n >= len(b.lines) {
		return 0
	}
	return b.lines[n].Level
}

func (b *Buffer) Links(n int) []markdown.Link {
	if n < 0 || n >= len(b.lines) {
		return nil
	}
	return b.lines[n].Links
}

// LinkAt returns the target of the link under (line, col).
func (b *Buffer) LinkAt(line, col int) (string, bool) {
	for _, l := range b.Links(line) {
		if col >= l.Start && col < l.End {
			return l.Target, true
		}
	}
	return "", false
}

// Highlight marks a span; the surface scrolls to keep it visible.
func (b *Buffer) Highlight(line, start, end int) {
	b.highlight = &Highlight{Line: line, Start: start, End: end}
	b.ScrollTo(line)
}

func (b *Buffer) ClearHighlight() {
	b.highlight = nil
}

func (b *Buffer) Highlighted() (Highlight, bool) {
	if b.highlight == nil {
		return Highlight{}, false
	}
	return *b.highlight, true
}

// ScrollTo makes line the first visible line, clamped to the content.
func (b *Buffer) ScrollTo(line int) {
	if line >= len(b.lines) {
		line = len(b.lines) - 1
	}
	if line < 0 {
		line = 0
	}
	b.scroll = line
}

func (b *Buffer) Scroll(delta int) {
	b.ScrollTo(b.scroll + delta)
}

func (b *Buffer) ScrollOffset() int {
	return b.scroll
}

func (b *Buffer) ApplyTheme(th theme.Theme) {
	b.theme = th
	b.styles = th.Styles()
	b.themed++
}

func (b *Buffer) Theme() theme.Theme {
	return b.theme
}

// ThemeApplications counts ApplyTheme calls since creation.
func (b *Buffer) ThemeApplications() int {
	return b.themed
}

// Render draws height lines starting at the scroll offset.
func (b *Buffer) Render(width, height int) string {
	var out strings.Builder
	end := b.scroll + height
	if end > len(b.lines) {
		end = len(b.lines)
	}
	for i := b.scroll; i < end; i++ {
		if i > b.scroll {
			out.WriteByte('\n')
		}
		out.WriteString(b.renderLine(i, width))
	}
	return out.String()
}

func (b *Buffer) renderLine(n, width int) string {
	l := b.lines[n]
	text := l.Text
	if width > 0 && len(text) > width {
		text = truncate(text, width)
	}

	base := b.styles.Text
	switch l.Level {
	case 0:
	case 1:
		base = b.styles.Title
	default:
		base = b.styles.Headline
	}

	type span struct {
		start, end int
		link       bool
		hl         bool
	}
	cuts := map[int]bool{0: true, len(text): true}
	var spans []span
	for _, lk := range l.Links {
		spans = append(spans, span{start: lk.Start, end: lk.End, link: true})
	}
	if h := b.highlight; h != nil && h.Line == n {
		spans = append(spans, span{start: h.Start, end: h.End, hl: true})
	}
	for _, s := range spans {
		if s.start <= len(text) {
			cuts[s.start] = true
		}
		if s.end <= len(text) {
			cuts[s.end] = true
		}
	}
	points := make([]int, 0, len(cuts))
	for p := range cuts {
		points = append(points, p)
	}
	sort.Ints(points)

	var out strings.Builder
	for i := 0; i+1 < len(points); i++ {
		a, z := points[i], points[i+1]
		style := base
		for _, s := range spans {
			if a >= s.start && z <= s.end {
				if s.link {
					style = b.styles.Link
				}
				if s.hl {
					style = style.Background(b.styles.Highlight.GetBackground())
				}
			}
		}
		out.WriteString(style.Render(text[a:z]))
	}
	return out.String()
}

func truncate(s string, width int) string {
	for width > 0 && width < len(s) && !isBoundary(s, width) {
		width--
	}
	return s[:width]
}

func isBoundary(s string, i int) bool {
	return i == 0 || i == len(s) || s[i]&0xC0 != 0x80
}
