// Package topic parses cross-reference strings into typed references.
//
// Accepted forms:
//
//	Class
//	Class#name              member of any kind, resolved by lookup priority
//	Class#kind:name         kind is method, signal, property, theme_property,
//	                        constant, enum or enum_value
//	Class#enum_value:Enum.VALUE
//	class_name:Class        and class_method:Class:name, class_signal,
//	                        class_property, class_theme_item, class_constant,
//	                        class_enum
//	https://...             external link
package topic

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/jcdickinson/docview/internal/model"
)

var ErrInvalidReference = errors.New("invalid reference")

type Kind int

const (
	ClassRef Kind = iota
	MemberRef
	EnumValueRef
	ExternalURL
)

func (k Kind) String() string {
	switch k {
	case ClassRef:
		return "class"
	case MemberRef:
		return "member"
	case EnumValueRef:
		return "enum_value"
	case ExternalURL:
		return "url"
	}
	return "unknown"
}

// Ref is a parsed cross-reference.
type Ref struct {
	Kind   Kind
	Class  string
	Member model.MemberKind // MemberRef only; KindAny means "any kind"
	Name   string
	Enum   string // EnumValueRef only, may be empty
	URL    string
}

// String renders the canonical Class#kind:name form.
func (r Ref) String() string {
	switch r.Kind {
	case ExternalURL:
		return r.URL
	case MemberRef:
		if r.Member == model.KindAny {
			return r.Class + "#" + escapeName(r.Name)
		}
		return r.Class + "#" + r.Member.String() + ":" + escapeName(r.Name)
	case EnumValueRef:
		if r.Enum != "" {
			return r.Class + "#enum_value:" + escapeName(r.Enum) + "." + escapeName(r.Name)
		}
		return r.Class + "#enum_value:" + escapeName(r.Name)
	}
	return r.Class
}

func invalid(path, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidReference, path, reason)
}

var prefixKinds = map[string]model.MemberKind{
	"class_method":     model.KindMethod,
	"class_signal":     model.KindSignal,
	"class_property":   model.KindProperty,
	"class_theme_item": model.KindThemeProperty,
	"class_constant":   model.KindConstant,
	"class_enum":       model.KindEnum,
}

// Parse turns a cross-reference path into a Ref.
func Parse(path string) (Ref, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return Ref{}, invalid(path, "empty")
	}

	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		u, err := url.Parse(p)
		if err != nil || u.Host == "" {
			return Ref{}, invalid(path, "malformed url")
		}
		return Ref{Kind: ExternalURL, URL: p}, nil
	}

	if strings.HasPrefix(p, "class_") {
		return parsePrefixed(path, p)
	}

	class, frag, hasFrag := strings.Cut(p, "#")
	class = unescape(class)
	if !validClass(class) {
		return Ref{}, invalid(path, "bad class name")
	}
	if !hasFrag {
		return Ref{Kind: ClassRef, Class: class}, nil
	}
	if frag == "" || strings.Contains(frag, "#") {
		return Ref{}, invalid(path, "bad fragment")
	}

	kindStr, name, hasKind := strings.Cut(frag, ":")
	if !hasKind {
		name, ok := memberName(frag)
		if !ok {
			return Ref{}, invalid(path, "bad member name")
		}
		return Ref{Kind: MemberRef, Class: class, Member: model.KindAny, Name: name}, nil
	}
	kind, ok := model.ParseKind(kindStr)
	if !ok || kind == model.KindAny {
		return Ref{}, invalid(path, "unknown member kind "+kindStr)
	}
	return member(path, class, kind, name)
}

func parsePrefixed(path, p string) (Ref, error) {
	parts := strings.Split(p, ":")
	if parts[0] == "class_name" {
		if len(parts) != 2 || !validClass(unescape(parts[1])) {
			return Ref{}, invalid(path, "expected class_name:Class")
		}
		return Ref{Kind: ClassRef, Class: unescape(parts[1])}, nil
	}
	kind, ok := prefixKinds[parts[0]]
	if !ok {
		return Ref{}, invalid(path, "unknown prefix "+parts[0])
	}
	if len(parts) != 3 || !validClass(unescape(parts[1])) {
		return Ref{}, invalid(path, "expected "+parts[0]+":Class:name")
	}
	return member(path, unescape(parts[1]), kind, parts[2])
}

// member builds a MemberRef or EnumValueRef from a still escaped name.
func member(path, class string, kind model.MemberKind, raw string) (Ref, error) {
	name, ok := memberName(raw)
	if !ok {
		return Ref{}, invalid(path, "bad member name")
	}
	if kind == model.KindEnumValue {
		enum, value, qualified := strings.Cut(name, ".")
		if !qualified {
			enum, value = "", name
		}
		if !validMember(value) || (qualified && !validMember(enum)) {
			return Ref{}, invalid(path, "bad enum value")
		}
		return Ref{Kind: EnumValueRef, Class: class, Enum: enum, Name: value}, nil
	}
	return Ref{Kind: MemberRef, Class: class, Member: kind, Name: name}, nil
}

// validClass accepts identifiers with an optional leading '@' (@GlobalScope).
func validClass(s string) bool {
	s = strings.TrimPrefix(s, "@")
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// validMember allows operator names such as "operator ==". Separators only
// reach it escaped, so "#" and ":" are fine here.
func validMember(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	return !strings.ContainsAny(s, "\n\t")
}

// memberName unescapes a raw name segment. Separators must be escaped
// ("%23", "%3A") to be part of a name.
func memberName(raw string) (string, bool) {
	if strings.ContainsAny(raw, "#:") {
		return "", false
	}
	name := unescape(raw)
	return name, validMember(name)
}

// unescape undoes the path escaping rendered links apply ("operator%20+").
// Text that is not valid escaping, like "operator %", is kept as is.
func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}

// EscapeName path-escapes a member name for a link destination. Unlike
// url.PathEscape it also escapes ':', which Parse reads as the kind separator.
func EscapeName(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), ":", "%3A")
}

// escapeName escapes only names holding a character Parse would otherwise
// read as a separator.
func escapeName(s string) string {
	if strings.ContainsAny(s, "#:%") {
		return EscapeName(s)
	}
	return s
}
