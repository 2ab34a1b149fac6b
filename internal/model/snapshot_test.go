package model

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewSnapshot_Hierarchy(t *testing.T) {
	t.Parallel()
	snap := NewSnapshot(1, []*ClassRecord{
		{Name: "Object"},
		{Name: "Node", Inherits: "Object"},
		{Name: "Sprite", Inherits: "Node"},
		{Name: "Label", Inherits: "Node"},
	})

	if got, want := snap.Inherits("Sprite"), []string{"Node", "Object"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Inherits(Sprite) = %v, want %v", got, want)
	}
	if got, want := snap.InheritedBy("Node"), []string{"Label", "Sprite"}; !reflect.DeepEqual(got, want) {
		t.Errorf("InheritedBy(Node) = %v, want %v", got, want)
	}
	if got := snap.InheritedBy("Sprite"); len(got) != 0 {
		t.Errorf("InheritedBy(Sprite) = %v, want none", got)
	}
	if len(snap.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", snap.Diagnostics)
	}
}

func TestNewSnapshot_UnknownParent(t *testing.T) {
	t.Parallel()
	snap := NewSnapshot(1, []*ClassRecord{{Name: "Sprite", Inherits: "Missing"}})
	if got, want := snap.Inherits("Sprite"), []string{"Missing"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNewSnapshot_Duplicate(t *testing.T) {
	t.Parallel()
	first := &ClassRecord{Name: "Node", BriefDescription: "first"}
	snap := NewSnapshot(1, []*ClassRecord{first, {Name: "Node", BriefDescription: "second"}})

	rec, ok := snap.Class("Node")
	if !ok || rec != first {
		t.Fatalf("expected first record to win")
	}
	if len(snap.Diagnostics) != 1 || !errors.Is(snap.Diagnostics[0], ErrDuplicateClass) {
		t.Errorf("expected duplicate diagnostic, got %v", snap.Diagnostics)
	}
}

func TestNewSnapshot_Cycle(t *testing.T) {
	t.Parallel()
	snap := NewSnapshot(1, []*ClassRecord{
		{Name: "A", Inherits: "B"},
		{Name: "B", Inherits: "A"},
	})
	if len(snap.Diagnostics) != 1 || !errors.Is(snap.Diagnostics[0], ErrInheritanceCycle) {
		t.Fatalf("expected one cycle diagnostic, got %v", snap.Diagnostics)
	}
	// Walking either chain must terminate.
	if got := snap.Inherits("A"); len(got) > 1 {
		t.Errorf("Inherits(A) = %v", got)
	}
	if got := snap.Inherits("B"); len(got) > 1 {
		t.Errorf("Inherits(B) = %v", got)
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want MemberKind
		ok   bool
	}{
		{"method", KindMethod, true},
		{"Method", KindMethod, true},
		{"signal", KindSignal, true},
		{"theme_property", KindThemeProperty, true},
		{"theme_item", KindThemeProperty, true},
		{"EnumValue", KindEnumValue, true},
		{"enum_value", KindEnumValue, true},
		{"constant", KindConstant, true},
		{"bogus", KindAny, false},
	}
	for _, tt := range tests {
		got, ok := ParseKind(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseKind(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMemberKind_StringRoundTrip(t *testing.T) {
	t.Parallel()
	for _, k := range LookupOrder {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
}
