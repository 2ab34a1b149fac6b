package render

import (
	"strings"

	"github.com/jcdickinson/docview/internal/model"
)

// Section is a table-of-contents entry; Line is the line of its heading.
type Section struct {
	ID    string
	Label string
	Line  int
}

type MemberKey struct {
	Kind model.MemberKind
	Name string
}

// SymbolIndex maps the symbols of one rendered class to line numbers.
// It is built once per render and never updated afterwards.
type SymbolIndex struct {
	Class           string
	DescriptionLine int
	Sections        []Section
	Members         map[MemberKey]int
	EnumValues      map[string]map[string]int

	enumOrder []string
}

func newIndex(class string) *SymbolIndex {
	return &SymbolIndex{
		Class:      class,
		Members:    make(map[MemberKey]int),
		EnumValues: make(map[string]map[string]int),
	}
}

// Section returns the section with the given id.
func (x *SymbolIndex) Section(id string) (Section, bool) {
	for _, s := range x.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// SectionID is the id of the section listing members of kind.
func SectionID(kind model.MemberKind) string {
	switch kind {
	case model.KindMethod:
		return "methods"
	case model.KindSignal:
		return "signals"
	case model.KindProperty:
		return "properties"
	case model.KindThemeProperty:
		return "theme_properties"
	case model.KindConstant:
		return "constants"
	case model.KindEnum, model.KindEnumValue:
		return "enumerations"
	}
	return "description"
}

// Lookup resolves a member to its detail anchor line. KindAny tries every
// kind in model.LookupOrder. Enum values accept "Enum.VALUE" or a bare value
// name; a constant lookup falls back to enum values.
func (x *SymbolIndex) Lookup(kind model.MemberKind, name string) (int, bool) {
	switch kind {
	case model.KindAny:
		for _, k := range model.LookupOrder {
			if line, ok := x.Lookup(k, name); ok {
				return line, true
			}
		}
		return 0, false
	case model.KindEnumValue:
		return x.enumValue(name)
	case model.KindConstant:
		if line, ok := x.Members[MemberKey{kind, name}]; ok {
			return line, true
		}
		return x.enumValue(name)
	}
	line, ok := x.Members[MemberKey{kind, name}]
	return line, ok
}

func (x *SymbolIndex) enumValue(name string) (int, bool) {
	if enum, value, ok := strings.Cut(name, "."); ok {
		line, found := x.EnumValues[enum][value]
		return line, found
	}
	for _, enum := range x.enumOrder {
		if line, ok := x.EnumValues[enum][name]; ok {
			return line, true
		}
	}
	return 0, false
}
