package render

import (
	"reflect"
	"strings"
	"testing"

	"github.com/jcdickinson/docview/internal/model"
	"github.com/jcdickinson/docview/internal/theme"
)

func fixture() *model.Snapshot {
	node := &model.ClassRecord{
		Name:             "Node",
		BriefDescription: "Base class for all scene objects.",
		Members: []model.Member{
			{Kind: model.KindMethod, Name: "add_child", ReturnType: "void", Params: []model.Param{{Name: "node", Type: "Node"}}},
		},
	}
	sprite := &model.ClassRecord{
		Name:             "Sprite",
		Inherits:         "Node",
		BriefDescription: "General-purpose sprite node.",
		Description:      "Draws a texture. See [draw](#draw).\nSecond line.",
		Tutorials:        []model.Tutorial{{Title: "Sprites", Link: "https://example.com/sprites"}},
		Members: []model.Member{
			{Kind: model.KindMethod, Name: "draw", Description: "Draws the sprite."},
			{Kind: model.KindMethod, Name: "get_rect", ReturnType: "Rect2", Qualifiers: "const"},
			{Kind: model.KindMethod, Name: "draw", Params: []model.Param{{Name: "rect", Type: "Rect2"}}},
			{Kind: model.KindMethod, Name: "set_mode", Params: []model.Param{{Name: "mode", Type: "Mode", Default: "0"}}},
			{Kind: model.KindSignal, Name: "texture_changed"},
			{Kind: model.KindProperty, Name: "texture", Type: "Texture2D", Setter: "set_texture", Getter: "get_texture"},
			{Kind: model.KindProperty, Name: "owner", Type: "Node", Default: "null"},
			{Kind: model.KindThemeProperty, Name: "font_color", Type: "Color", DataType: "color"},
			{Kind: model.KindConstant, Name: "MAX_FRAMES", Value: "64"},
			{Kind: model.KindEnum, Name: "Mode", Values: []model.EnumValue{
				{Name: "NORMAL", Value: 0, Description: "Plain."},
				{Name: "REPEAT", Value: 1},
			}},
		},
	}
	texture := &model.ClassRecord{Name: "Texture2D"}
	return model.NewSnapshot(1, []*model.ClassRecord{node, sprite, texture})
}

func build(t *testing.T, snap *model.Snapshot, class string) *Document {
	t.Helper()
	rec, ok := snap.Class(class)
	if !ok {
		t.Fatalf("missing class %s", class)
	}
	return NewBuilder().Build(rec, snap, theme.Default())
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()
	snap := fixture()
	a := build(t, snap, "Sprite")
	b := build(t, snap, "Sprite")
	if a.Text != b.Text {
		t.Error("text differs between renders")
	}
	if !reflect.DeepEqual(a.Index, b.Index) {
		t.Error("index differs between renders")
	}
}

func TestBuild_MemberAnchorsFollowSectionHeadings(t *testing.T) {
	t.Parallel()
	snap := fixture()
	for _, class := range snap.Names() {
		rec, _ := snap.Class(class)
		doc := build(t, snap, class)
		for _, m := range rec.Members {
			line, ok := doc.Index.Lookup(m.Kind, m.Name)
			if !ok {
				t.Errorf("%s: %s %s not indexed", class, m.Kind, m.Name)
				continue
			}
			if line < 0 || line >= len(doc.Lines) {
				t.Errorf("%s: %s out of bounds: %d", class, m.Name, line)
			}
			if line <= doc.Index.DescriptionLine {
				t.Errorf("%s: %s at %d not after description %d", class, m.Name, line, doc.Index.DescriptionLine)
			}
			sec, ok := doc.Index.Section(SectionID(m.Kind))
			if !ok {
				t.Errorf("%s: missing section for %s", class, m.Kind)
				continue
			}
			if line <= sec.Line {
				t.Errorf("%s: %s at %d not after %s heading at %d", class, m.Name, line, sec.ID, sec.Line)
			}
			for _, v := range m.Values {
				vl, ok := doc.Index.Lookup(model.KindEnumValue, v.Name)
				if !ok || vl <= sec.Line || vl >= len(doc.Lines) {
					t.Errorf("%s: enum value %s at %d, %v", class, v.Name, vl, ok)
				}
			}
		}
	}
}

func TestBuild_SectionsInOrder(t *testing.T) {
	t.Parallel()
	doc := build(t, fixture(), "Sprite")
	var ids []string
	for i, s := range doc.Index.Sections {
		ids = append(ids, s.ID)
		if i > 0 && s.Line <= doc.Index.Sections[i-1].Line {
			t.Errorf("section %s at %d not after previous", s.ID, s.Line)
		}
		if s.Line >= len(doc.Lines) {
			t.Errorf("section %s out of bounds", s.ID)
		}
	}
	want := []string{
		"top", "description", "inherits", "tutorials", "signals", "enumerations", "constants",
		"properties", "property_descriptions", "methods", "method_descriptions", "theme_properties",
	}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("sections = %v\nwant %v", ids, want)
	}
	if doc.Lines[doc.Index.DescriptionLine] != "## Description" {
		t.Errorf("description line = %q", doc.Lines[doc.Index.DescriptionLine])
	}
}

func TestBuild_Inheritance(t *testing.T) {
	t.Parallel()
	snap := fixture()
	sprite := build(t, snap, "Sprite")
	sec, ok := sprite.Index.Section("inherits")
	if !ok || sec.Label != "Inherits: Node" {
		t.Fatalf("inherits section = %+v, %v", sec, ok)
	}
	if !strings.Contains(sprite.Lines[sec.Line], "[Node](Node)") {
		t.Errorf("inherits line not linked: %q", sprite.Lines[sec.Line])
	}

	node := build(t, snap, "Node")
	sec, ok = node.Index.Section("inherited_by")
	if !ok || sec.Label != "Inherited By: Sprite" {
		t.Errorf("inherited_by section = %+v, %v", sec, ok)
	}
	if _, ok := node.Index.Section("inherits"); ok {
		t.Error("Node has no parent and should have no inherits section")
	}
}

func TestBuild_EnumValuesOrdered(t *testing.T) {
	t.Parallel()
	doc := build(t, fixture(), "Sprite")
	normal, ok1 := doc.Index.Lookup(model.KindEnumValue, "NORMAL")
	repeat, ok2 := doc.Index.Lookup(model.KindEnumValue, "REPEAT")
	if !ok1 || !ok2 {
		t.Fatal("enum values not indexed")
	}
	if repeat <= normal {
		t.Errorf("REPEAT at %d not after NORMAL at %d", repeat, normal)
	}
	if q, _ := doc.Index.Lookup(model.KindEnumValue, "Mode.REPEAT"); q != repeat {
		t.Errorf("qualified lookup = %d, want %d", q, repeat)
	}
	if c, _ := doc.Index.Lookup(model.KindConstant, "REPEAT"); c != repeat {
		t.Errorf("constant fallback = %d, want %d", c, repeat)
	}
	if !strings.Contains(doc.Lines[normal], "NORMAL") || !strings.Contains(doc.Lines[normal], "Plain.") {
		t.Errorf("NORMAL line = %q", doc.Lines[normal])
	}
}

func TestBuild_OverloadsShareOneEntry(t *testing.T) {
	t.Parallel()
	doc := build(t, fixture(), "Sprite")
	methods, _ := doc.Index.Section("methods")
	details, _ := doc.Index.Section("method_descriptions")

	var rows, headings []int
	for i, l := range doc.Lines {
		if i > methods.Line && i < details.Line && strings.Contains(l, "Sprite#method:draw") {
			rows = append(rows, i)
		}
		if strings.HasPrefix(l, "### void draw(") {
			headings = append(headings, i)
		}
	}
	if len(rows) != 1 || !strings.Contains(doc.Lines[rows[0]], "(2 overloads)") {
		t.Errorf("overview rows = %v", rows)
	}
	if len(headings) != 2 {
		t.Fatalf("detail headings = %v", headings)
	}
	if line, _ := doc.Index.Lookup(model.KindMethod, "draw"); line != headings[0] {
		t.Errorf("draw indexed at %d, want first overload %d", line, headings[0])
	}
}

func TestBuild_TypeLinks(t *testing.T) {
	t.Parallel()
	doc := build(t, fixture(), "Sprite")

	line, _ := doc.Index.Lookup(model.KindProperty, "texture")
	if !strings.Contains(doc.Lines[line], "[Texture2D](Texture2D)") {
		t.Errorf("known type not linked: %q", doc.Lines[line])
	}
	line, _ = doc.Index.Lookup(model.KindMethod, "set_mode")
	if !strings.Contains(doc.Lines[line], "[Mode](Sprite#enum:Mode)") {
		t.Errorf("enum type not linked: %q", doc.Lines[line])
	}
	line, _ = doc.Index.Lookup(model.KindMethod, "get_rect")
	if strings.Contains(doc.Lines[line], "](Rect2)") || !strings.Contains(doc.Lines[line], "Rect2") {
		t.Errorf("unknown type should render as plain text: %q", doc.Lines[line])
	}
	if !strings.Contains(doc.Text, "[draw](Sprite#draw)") {
		t.Error("in-class description link not rewritten")
	}
}

func TestBuild_NoDescription(t *testing.T) {
	t.Parallel()
	doc := build(t, fixture(), "Texture2D")
	if got := doc.Lines[doc.Index.DescriptionLine+2]; !strings.Contains(got, "no description") {
		t.Errorf("placeholder missing, got %q", got)
	}
}

func TestBuild_NilSnapshot(t *testing.T) {
	t.Parallel()
	rec := &model.ClassRecord{Name: "Lonely", Inherits: "Base", Members: []model.Member{
		{Kind: model.KindProperty, Name: "p", Type: "Base"},
	}}
	doc := NewBuilder().Build(rec, nil, theme.Default())
	sec, ok := doc.Index.Section("inherits")
	if !ok || sec.Label != "Inherits: Base" {
		t.Errorf("inherits = %+v, %v", sec, ok)
	}
	if strings.Contains(doc.Text, "](Base)") {
		t.Error("nothing should be linked without a snapshot")
	}
}
