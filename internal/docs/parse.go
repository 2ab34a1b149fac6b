package docs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jcdickinson/docview/internal/model"
)

var ErrInvalidClass = errors.New("invalid class dump")

// RawClass is one class of a bundle, still in its JSON form.
type RawClass struct {
	Name string
	Data json.RawMessage
}

// SplitBundle separates a bundle into per-class JSON documents without
// validating them. A bundle that is not JSON at all is an error.
func SplitBundle(data []byte) ([]RawClass, error) {
	trimmed := bytes.TrimSpace(data)
	var raws []json.RawMessage
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("unmarshaling class bundle: %w", err)
		}
	} else {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("unmarshaling class bundle: %w", ErrInvalidClass)
		}
		raws = []json.RawMessage{json.RawMessage(trimmed)}
	}

	out := make([]RawClass, 0, len(raws))
	for i, raw := range raws {
		var head struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(raw, &head)
		name := head.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		out = append(out, RawClass{Name: name, Data: raw})
	}
	return out, nil
}

// ParseClass decodes and validates one class dump.
func ParseClass(data []byte) (*model.ClassRecord, error) {
	var dump ClassDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("unmarshaling class dump: %w", err)
	}
	return dump.Record()
}

// ParseBundle decodes every class in a bundle. Classes that fail to decode are
// reported as failures; only an unreadable bundle is an error.
func ParseBundle(data []byte) ([]*model.ClassRecord, []model.ClassFailure, error) {
	raws, err := SplitBundle(data)
	if err != nil {
		return nil, nil, err
	}
	var records []*model.ClassRecord
	var failures []model.ClassFailure
	for _, raw := range raws {
		rec, err := ParseClass(raw.Data)
		if err != nil {
			failures = append(failures, model.ClassFailure{Name: raw.Name, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, failures, nil
}

// Record converts the dump into the read-only model form.
func (d *ClassDump) Record() (*model.ClassRecord, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: missing class name", ErrInvalidClass)
	}

	rec := &model.ClassRecord{
		Name:             d.Name,
		Inherits:         d.Inherits,
		BriefDescription: d.BriefDescription,
		Description:      d.Description,
	}
	for _, t := range d.Tutorials {
		rec.Tutorials = append(rec.Tutorials, model.Tutorial{Title: t.Title, Link: t.Link})
	}

	check := func(kind model.MemberKind, name string) error {
		if name == "" {
			return fmt.Errorf("%w: %s %s has no name", ErrInvalidClass, d.Name, kind)
		}
		return nil
	}

	for _, m := range d.Methods {
		if err := check(model.KindMethod, m.Name); err != nil {
			return nil, err
		}
		rec.Members = append(rec.Members, model.Member{
			Kind:        model.KindMethod,
			Name:        m.Name,
			ReturnType:  m.ReturnType,
			Qualifiers:  m.Qualifiers,
			Params:      params(m.Arguments),
			Description: m.Description,
		})
	}
	for _, s := range d.Signals {
		if err := check(model.KindSignal, s.Name); err != nil {
			return nil, err
		}
		rec.Members = append(rec.Members, model.Member{
			Kind:        model.KindSignal,
			Name:        s.Name,
			Params:      params(s.Arguments),
			Description: s.Description,
		})
	}
	for _, p := range d.Properties {
		if err := check(model.KindProperty, p.Name); err != nil {
			return nil, err
		}
		rec.Members = append(rec.Members, model.Member{
			Kind:        model.KindProperty,
			Name:        p.Name,
			Type:        p.Type,
			Default:     p.Default,
			Setter:      p.Setter,
			Getter:      p.Getter,
			Description: p.Description,
		})
	}
	for _, p := range d.ThemeProperties {
		if err := check(model.KindThemeProperty, p.Name); err != nil {
			return nil, err
		}
		rec.Members = append(rec.Members, model.Member{
			Kind:        model.KindThemeProperty,
			Name:        p.Name,
			Type:        p.Type,
			DataType:    p.DataType,
			Default:     p.Default,
			Description: p.Description,
		})
	}
	for _, c := range d.Constants {
		if err := check(model.KindConstant, c.Name); err != nil {
			return nil, err
		}
		rec.Members = append(rec.Members, model.Member{
			Kind:        model.KindConstant,
			Name:        c.Name,
			Value:       c.Value,
			Description: c.Description,
		})
	}

	// Enum value names share one namespace per class so that a bare value
	// name resolves to exactly one anchor.
	valueNames := make(map[string]string)
	for _, e := range d.Enums {
		if err := check(model.KindEnum, e.Name); err != nil {
			return nil, err
		}
		member := model.Member{Kind: model.KindEnum, Name: e.Name, Description: e.Description}
		for _, v := range e.Values {
			if err := check(model.KindEnumValue, v.Name); err != nil {
				return nil, err
			}
			if owner, dup := valueNames[v.Name]; dup {
				return nil, fmt.Errorf("%w: %s enum value %s declared in both %s and %s",
					ErrInvalidClass, d.Name, v.Name, owner, e.Name)
			}
			valueNames[v.Name] = e.Name
			member.Values = append(member.Values, model.EnumValue{
				Name:        v.Name,
				Value:       v.Value,
				Description: v.Description,
			})
		}
		rec.Members = append(rec.Members, member)
	}

	return rec, nil
}

func params(args []ArgumentDump) []model.Param {
	if len(args) == 0 {
		return nil
	}
	out := make([]model.Param, len(args))
	for i, a := range args {
		out[i] = model.Param{Name: a.Name, Type: a.Type, Default: a.Default}
	}
	return out
}
