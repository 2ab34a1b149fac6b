package find

import "testing"

type fakeSurface struct {
	lines      []string
	highlights []Match
}

func (f *fakeSurface) LineCount() int { return len(f.lines) }

func (f *fakeSurface) Line(n int) string {
	if n < 0 || n >= len(f.lines) {
		return ""
	}
	return f.lines[n]
}

func (f *fakeSurface) Highlight(line, start, end int) {
	f.highlights = append(f.highlights, Match{Line: line, Start: start, End: end})
}

func newEngine(lines ...string) (*Engine, *fakeSurface) {
	s := &fakeSurface{lines: lines}
	return New(s), s
}

func TestEngine_EmptyQueryIsNoMatch(t *testing.T) {
	t.Parallel()
	e, s := newEngine("draw", "Draw again")
	if n := e.SetQuery(""); n != 0 {
		t.Errorf("SetQuery(\"\") = %d", n)
	}
	if _, ok := e.Next(true); ok {
		t.Error("Next on empty query should be NoMatch")
	}
	if _, ok := e.Prev(true); ok {
		t.Error("Prev on empty query should be NoMatch")
	}
	if len(s.highlights) != 0 {
		t.Errorf("highlights = %v", s.highlights)
	}
}

func TestEngine_ZeroMatches(t *testing.T) {
	t.Parallel()
	e, s := newEngine("Sprite", "Node")
	if n := e.SetQuery("texture"); n != 0 {
		t.Errorf("count = %d", n)
	}
	if _, ok := e.Next(true); ok {
		t.Error("expected NoMatch")
	}
	if e.Status() != "No match" {
		t.Errorf("Status() = %q", e.Status())
	}
	if len(s.highlights) != 0 {
		t.Error("no highlight expected")
	}
}

func TestEngine_CountIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	e, _ := newEngine("Draw the sprite", "", "draw(rect) DRAWS", "nothing here")
	if n := e.SetQuery("draw"); n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
	if e.Status() != "3 matches" {
		t.Errorf("Status() = %q", e.Status())
	}
}

func TestEngine_CompatibilityForms(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line, query string
		start, end  int
	}{
		{"\ufb01le", "file", 0, 5},
		{"\uff21", "a", 0, 3},
		{"R\u00c9SUM\u00c9", "r\u00e9sum\u00e9", 0, 8},
	}
	for _, tt := range tests {
		e, _ := newEngine(tt.line)
		if n := e.SetQuery(tt.query); n != 1 {
			t.Errorf("SetQuery(%q) over %q = %d, want 1", tt.query, tt.line, n)
			continue
		}
		m, _ := e.Next(true)
		if m.Start != tt.start || m.End != tt.end {
			t.Errorf("%q in %q at [%d,%d), want [%d,%d)", tt.query, tt.line, m.Start, m.End, tt.start, tt.end)
		}
	}
}

func TestEngine_SingleMatchWraps(t *testing.T) {
	t.Parallel()
	e, s := newEngine("Sprite", "Draws a texture.", "Node")
	e.SetQuery("TEXTURE")

	first, ok := e.Next(true)
	if !ok || first.Line != 1 || first.Start != 8 || first.End != 15 {
		t.Fatalf("Next = %+v, %v", first, ok)
	}
	again, ok := e.Next(true)
	if !ok || again != first {
		t.Errorf("wrap-around Next = %+v, want %+v", again, first)
	}
	back, ok := e.Prev(true)
	if !ok || back != first {
		t.Errorf("Prev = %+v, want %+v", back, first)
	}
	if len(s.highlights) != 3 {
		t.Errorf("highlight requests = %d, want one per match", len(s.highlights))
	}
	if e.Status() != "1 of 1 matches" {
		t.Errorf("Status() = %q", e.Status())
	}
}

func TestEngine_NextPrevWalk(t *testing.T) {
	t.Parallel()
	e, s := newEngine("aa a", "b", "a")
	e.SetQuery("a")

	var got []Match
	for range 4 {
		m, ok := e.Next(true)
		if !ok {
			t.Fatal("unexpected NoMatch")
		}
		got = append(got, m)
	}
	want := []Match{
		{Line: 0, Start: 0, End: 1, Index: 1, Total: 4},
		{Line: 0, Start: 1, End: 2, Index: 2, Total: 4},
		{Line: 0, Start: 3, End: 4, Index: 3, Total: 4},
		{Line: 2, Start: 0, End: 1, Index: 4, Total: 4},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	m, _ := e.Prev(true)
	if m != want[2] {
		t.Errorf("Prev = %+v, want %+v", m, want[2])
	}
	if _, ok := e.Next(false); !ok {
		t.Error("Next(false) should find the last match")
	}
	if _, ok := e.Next(false); ok {
		t.Error("Next(false) past the end should be NoMatch")
	}
	wrapped, _ := e.Next(true)
	if wrapped != want[0] {
		t.Errorf("wrapped = %+v, want %+v", wrapped, want[0])
	}
	if len(s.highlights) != 7 {
		t.Errorf("highlights = %d, want 7", len(s.highlights))
	}
}

func TestEngine_PrevFromStart(t *testing.T) {
	t.Parallel()
	e, _ := newEngine("one x", "two x")
	e.SetQuery("x")
	m, ok := e.Prev(true)
	if !ok || m.Line != 1 || m.Index != 2 {
		t.Errorf("Prev without a previous match = %+v, %v", m, ok)
	}
	if _, ok := e.Prev(false); !ok {
		t.Error("Prev(false) should find the first match")
	}
	if _, ok := e.Prev(false); ok {
		t.Error("Prev(false) before the start should be NoMatch")
	}
}

func TestEngine_Reset(t *testing.T) {
	t.Parallel()
	e, _ := newEngine("draw")
	e.SetQuery("draw")
	e.Next(true)
	e.Reset()
	if _, ok := e.Last(); ok {
		t.Error("Reset should drop the last match")
	}
	if e.Query() != "" || e.Total() != 0 || e.Status() != "" {
		t.Errorf("state after Reset: %q %d %q", e.Query(), e.Total(), e.Status())
	}
	if _, ok := e.Next(true); ok {
		t.Error("Next after Reset should be NoMatch")
	}
}
