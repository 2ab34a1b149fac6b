package model

import (
	"fmt"
	"strings"
)

// MemberKind tags a documented member of a class.
type MemberKind int

const (
	// KindAny matches any member kind when resolving a name.
	KindAny MemberKind = iota
	KindMethod
	KindSignal
	KindProperty
	KindThemeProperty
	KindConstant
	KindEnum
	KindEnumValue
)

// LookupOrder is the priority used when a member is referenced by name only.
var LookupOrder = []MemberKind{
	KindMethod,
	KindSignal,
	KindProperty,
	KindThemeProperty,
	KindConstant,
	KindEnum,
	KindEnumValue,
}

func (k MemberKind) String() string {
	switch k {
	case KindMethod:
		return "method"
	case KindSignal:
		return "signal"
	case KindProperty:
		return "property"
	case KindThemeProperty:
		return "theme_property"
	case KindConstant:
		return "constant"
	case KindEnum:
		return "enum"
	case KindEnumValue:
		return "enum_value"
	default:
		return "any"
	}
}

// ParseKind accepts the canonical snake_case names as well as the
// CamelCase spellings ("Method", "EnumValue") and "theme_item".
func ParseKind(s string) (MemberKind, bool) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	switch norm {
	case "method":
		return KindMethod, true
	case "signal":
		return KindSignal, true
	case "property":
		return KindProperty, true
	case "themeproperty", "themeitem":
		return KindThemeProperty, true
	case "constant":
		return KindConstant, true
	case "enum":
		return KindEnum, true
	case "enumvalue":
		return KindEnumValue, true
	case "any":
		return KindAny, true
	}
	return KindAny, false
}

type Tutorial struct {
	Title string
	Link  string
}

type Param struct {
	Name    string
	Type    string
	Default string
}

type EnumValue struct {
	Name        string
	Value       int64
	Description string
}

// Member is one documented member. Which fields are meaningful depends on Kind:
// methods and signals use Params (methods also ReturnType and Qualifiers),
// properties use Type/Default/Setter/Getter, theme properties Type/DataType/Default,
// constants Value, enums Values.
type Member struct {
	Kind        MemberKind
	Name        string
	Type        string
	ReturnType  string
	Params      []Param
	Qualifiers  string
	Default     string
	Setter      string
	Getter      string
	DataType    string
	Value       string
	Description string
	Values      []EnumValue
}

// ClassRecord is the immutable documentation of one class.
type ClassRecord struct {
	Name             string
	Inherits         string
	BriefDescription string
	Description      string
	Tutorials        []Tutorial
	Members          []Member
}

// MembersOf returns the members of the given kind in declaration order.
func (c *ClassRecord) MembersOf(kind MemberKind) []Member {
	var out []Member
	for _, m := range c.Members {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// Enum returns the enum member with the given name.
func (c *ClassRecord) Enum(name string) (Member, bool) {
	for _, m := range c.Members {
		if m.Kind == KindEnum && m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// ClassFailure records a class (or source file) that could not be extracted.
type ClassFailure struct {
	Name string
	Err  error
}

func (f ClassFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Name, f.Err)
}

func (f ClassFailure) Unwrap() error { return f.Err }
