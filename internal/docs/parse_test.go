package docs

import (
	"errors"
	"testing"

	"github.com/jcdickinson/docview/internal/model"
)

const spriteJSON = `{
  "name": "Sprite",
  "inherits": "Node",
  "brief_description": "General-purpose sprite node.",
  "description": "Displays a [Texture2D](Texture2D).",
  "tutorials": [{"title": "2D sprites", "link": "https://example.com/sprites"}],
  "methods": [
    {"name": "draw", "return_type": "void"},
    {"name": "get_rect", "return_type": "Rect2", "qualifiers": "const"}
  ],
  "signals": [{"name": "texture_changed"}],
  "properties": [{"name": "texture", "type": "Texture2D", "setter": "set_texture", "getter": "get_texture"}],
  "enums": [{"name": "Mode", "values": [{"name": "NORMAL", "value": 0}, {"name": "REPEAT", "value": 1}]}]
}`

func TestParseClass(t *testing.T) {
	t.Parallel()
	rec, err := ParseClass([]byte(spriteJSON))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "Sprite" || rec.Inherits != "Node" {
		t.Errorf("got %q inherits %q", rec.Name, rec.Inherits)
	}
	if got := len(rec.MembersOf(model.KindMethod)); got != 2 {
		t.Errorf("methods = %d, want 2", got)
	}
	if got := rec.MembersOf(model.KindMethod)[1].Qualifiers; got != "const" {
		t.Errorf("qualifiers = %q", got)
	}
	mode, ok := rec.Enum("Mode")
	if !ok {
		t.Fatal("missing enum Mode")
	}
	if len(mode.Values) != 2 || mode.Values[1].Name != "REPEAT" || mode.Values[1].Value != 1 {
		t.Errorf("unexpected enum values: %+v", mode.Values)
	}
	if len(rec.Tutorials) != 1 || rec.Tutorials[0].Link != "https://example.com/sprites" {
		t.Errorf("tutorials = %+v", rec.Tutorials)
	}
}

func TestParseClass_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		json string
	}{
		{"missing name", `{"brief_description": "x"}`},
		{"unnamed method", `{"name": "A", "methods": [{"return_type": "void"}]}`},
		{"duplicate enum value", `{"name": "A", "enums": [
			{"name": "E1", "values": [{"name": "X", "value": 0}]},
			{"name": "E2", "values": [{"name": "X", "value": 1}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClass([]byte(tt.json))
			if !errors.Is(err, ErrInvalidClass) {
				t.Errorf("expected ErrInvalidClass, got %v", err)
			}
		})
	}
}

func TestParseBundle_PartialFailure(t *testing.T) {
	t.Parallel()
	bundle := `[` + spriteJSON + `, {"name": "Broken", "methods": [{}]}, {"name": "Node"}]`
	recs, failures, err := ParseBundle([]byte(bundle))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Errorf("records = %d, want 2", len(recs))
	}
	if len(failures) != 1 || failures[0].Name != "Broken" {
		t.Errorf("failures = %v", failures)
	}
}

func TestParseBundle_NotJSON(t *testing.T) {
	t.Parallel()
	if _, _, err := ParseBundle([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestSplitBundle_SingleObject(t *testing.T) {
	t.Parallel()
	raws, err := SplitBundle([]byte(spriteJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(raws) != 1 || raws[0].Name != "Sprite" {
		t.Errorf("got %+v", raws)
	}
}
