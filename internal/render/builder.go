package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jcdickinson/docview/internal/markdown"
	"github.com/jcdickinson/docview/internal/model"
	"github.com/jcdickinson/docview/internal/theme"
	"github.com/jcdickinson/docview/internal/topic"
)

// Document is the rendered form of one class: line-oriented markup and the
// index of where each symbol landed.
type Document struct {
	Class   string
	Version uint64
	Theme   string
	Text    string
	Lines   []string
	Index   *SymbolIndex
}

// Builder turns class records into Documents. It is stateless; rendering the
// same record against the same snapshot always yields the same output.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build renders rec. The snapshot resolves type names to links and supplies
// the inheritance chain; it may be nil, in which case no types are linked.
func (b *Builder) Build(rec *model.ClassRecord, snap *model.Snapshot, th theme.Theme) *Document {
	e := &emitter{rec: rec, snap: snap, idx: newIndex(rec.Name)}

	e.idx.Sections = append(e.idx.Sections, Section{ID: "top", Label: rec.Name, Line: e.emit("# " + esc(rec.Name))})

	e.description()
	e.inheritance()
	e.tutorials()
	e.signals()
	e.enums()
	e.constants()
	e.properties()
	e.methods()
	e.themeProperties()

	for len(e.lines) > 1 && e.lines[len(e.lines)-1] == "" {
		e.lines = e.lines[:len(e.lines)-1]
	}

	var version uint64
	if snap != nil {
		version = snap.Version
	}
	return &Document{
		Class:   rec.Name,
		Version: version,
		Theme:   th.Name,
		Text:    strings.Join(e.lines, "\n"),
		Lines:   e.lines,
		Index:   e.idx,
	}
}

type emitter struct {
	rec   *model.ClassRecord
	snap  *model.Snapshot
	lines []string
	idx   *SymbolIndex
}

// emit appends one line and returns its number.
func (e *emitter) emit(s string) int {
	e.lines = append(e.lines, s)
	return len(e.lines) - 1
}

func (e *emitter) blank() {
	if n := len(e.lines); n > 0 && e.lines[n-1] != "" {
		e.lines = append(e.lines, "")
	}
}

func (e *emitter) text(s string) {
	for _, l := range strings.Split(strings.TrimSpace(s), "\n") {
		e.emit(strings.TrimRight(l, " \t\r"))
	}
}

// section emits a heading and records it under id.
func (e *emitter) section(id, label string) {
	e.blank()
	line := e.emit("## " + label)
	e.idx.Sections = append(e.idx.Sections, Section{ID: id, Label: label, Line: line})
	e.blank()
}

func (e *emitter) anchor(kind model.MemberKind, name string, line int) {
	key := MemberKey{Kind: kind, Name: name}
	if _, ok := e.idx.Members[key]; !ok {
		e.idx.Members[key] = line
	}
}

func (e *emitter) describe(desc string) {
	if strings.TrimSpace(desc) == "" {
		return
	}
	e.blank()
	e.text(e.rich(desc))
}

// rich rewrites in-class links ("#name", "#kind:name") to absolute references.
func (e *emitter) rich(s string) string {
	return markdown.RewriteLinksFunc(s, func(dest string) (string, bool) {
		if strings.HasPrefix(dest, "#") {
			return e.rec.Name + dest, true
		}
		return "", false
	})
}

func (e *emitter) known(class string) bool {
	return e.snap != nil && e.snap.Has(class)
}

func (e *emitter) description() {
	e.section("description", "Description")
	e.idx.DescriptionLine = e.idx.Sections[len(e.idx.Sections)-1].Line

	brief := strings.TrimSpace(e.rec.BriefDescription)
	long := strings.TrimSpace(e.rec.Description)
	if brief == "" && long == "" {
		e.emit("*There is currently no description for this class.*")
		return
	}
	if brief != "" {
		e.text(e.rich(brief))
	}
	if long != "" {
		e.blank()
		e.text(e.rich(long))
	}
}

func (e *emitter) inheritance() {
	var chain []string
	if e.snap != nil {
		chain = e.snap.Inherits(e.rec.Name)
	} else if e.rec.Inherits != "" {
		chain = []string{e.rec.Inherits}
	}
	if len(chain) > 0 {
		refs := make([]string, len(chain))
		for i, c := range chain {
			refs[i] = e.typeRef(c)
		}
		e.blank()
		line := e.emit("**Inherits:** " + strings.Join(refs, " < "))
		e.idx.Sections = append(e.idx.Sections, Section{
			ID:    "inherits",
			Label: "Inherits: " + strings.Join(chain, " < "),
			Line:  line,
		})
	}

	if e.snap == nil {
		return
	}
	kids := e.snap.InheritedBy(e.rec.Name)
	if len(kids) == 0 {
		return
	}
	refs := make([]string, len(kids))
	for i, c := range kids {
		refs[i] = e.typeRef(c)
	}
	e.blank()
	line := e.emit("**Inherited By:** " + strings.Join(refs, ", "))
	e.idx.Sections = append(e.idx.Sections, Section{
		ID:    "inherited_by",
		Label: "Inherited By: " + strings.Join(kids, ", "),
		Line:  line,
	})
}

func (e *emitter) tutorials() {
	if len(e.rec.Tutorials) == 0 {
		return
	}
	e.section("tutorials", "Online Tutorials")
	for _, t := range e.rec.Tutorials {
		title := t.Title
		if title == "" {
			title = t.Link
		}
		e.emit("- [" + esc(title) + "](" + t.Link + ")")
	}
}

func (e *emitter) signals() {
	signals := e.rec.MembersOf(model.KindSignal)
	if len(signals) == 0 {
		return
	}
	e.section(SectionID(model.KindSignal), "Signals")
	for _, s := range signals {
		e.blank()
		e.anchor(model.KindSignal, s.Name, e.emit("### "+esc(s.Name)+"("+e.params(s.Params)+")"))
		e.describe(s.Description)
	}
}

func (e *emitter) enums() {
	enums := e.rec.MembersOf(model.KindEnum)
	if len(enums) == 0 {
		return
	}
	e.section(SectionID(model.KindEnum), "Enumerations")
	for _, en := range enums {
		e.blank()
		e.anchor(model.KindEnum, en.Name, e.emit("### enum "+esc(en.Name)))
		e.describe(en.Description)
		e.blank()

		values, ok := e.idx.EnumValues[en.Name]
		if !ok {
			values = make(map[string]int)
			e.idx.EnumValues[en.Name] = values
			e.idx.enumOrder = append(e.idx.enumOrder, en.Name)
		}
		for _, v := range en.Values {
			line := e.emit("- **" + esc(v.Name) + "** = " + strconv.FormatInt(v.Value, 10) + e.inline(v.Description))
			if _, dup := values[v.Name]; !dup {
				values[v.Name] = line
			}
		}
	}
}

func (e *emitter) constants() {
	constants := e.rec.MembersOf(model.KindConstant)
	if len(constants) == 0 {
		return
	}
	e.section(SectionID(model.KindConstant), "Constants")
	for _, c := range constants {
		e.anchor(model.KindConstant, c.Name, e.emit("- **"+esc(c.Name)+"** = "+code(c.Value)+e.inline(c.Description)))
	}
}

func (e *emitter) properties() {
	props := e.rec.MembersOf(model.KindProperty)
	if len(props) == 0 {
		return
	}
	e.section(SectionID(model.KindProperty), "Properties")
	for _, p := range props {
		e.emit("- " + e.typeRef(p.Type) + " " + memberLink(e.rec.Name, model.KindProperty, p.Name) + defaultSuffix(p.Default))
	}

	e.section("property_descriptions", "Property Descriptions")
	for _, p := range props {
		e.blank()
		e.anchor(model.KindProperty, p.Name, e.emit("### "+e.typeRef(p.Type)+" "+esc(p.Name)+defaultSuffix(p.Default)))
		if p.Setter != "" || p.Getter != "" {
			e.blank()
			if p.Setter != "" {
				e.emit("- setter: " + code(p.Setter+"(value)"))
			}
			if p.Getter != "" {
				e.emit("- getter: " + code(p.Getter+"()"))
			}
		}
		e.describe(p.Description)
	}
}

func (e *emitter) methods() {
	methods := e.rec.MembersOf(model.KindMethod)
	if len(methods) == 0 {
		return
	}

	// Overloads share a name; they get one overview row and one index entry.
	var order []string
	groups := make(map[string][]model.Member)
	for _, m := range methods {
		if _, ok := groups[m.Name]; !ok {
			order = append(order, m.Name)
		}
		groups[m.Name] = append(groups[m.Name], m)
	}

	e.section(SectionID(model.KindMethod), "Methods")
	for _, name := range order {
		g := groups[name]
		m := g[0]
		row := "- " + e.returnRef(m) + " " + memberLink(e.rec.Name, model.KindMethod, name) + "(" + e.params(m.Params) + ")" + qualifiers(m)
		if len(g) > 1 {
			row += fmt.Sprintf(" *(%d overloads)*", len(g))
		}
		e.emit(row)
	}

	e.section("method_descriptions", "Method Descriptions")
	for _, name := range order {
		for _, m := range groups[name] {
			e.blank()
			e.anchor(model.KindMethod, name, e.emit("### "+e.returnRef(m)+" "+esc(name)+"("+e.params(m.Params)+")"+qualifiers(m)))
			e.describe(m.Description)
		}
	}
}

func (e *emitter) themeProperties() {
	props := e.rec.MembersOf(model.KindThemeProperty)
	if len(props) == 0 {
		return
	}
	e.section(SectionID(model.KindThemeProperty), "Theme Properties")
	for _, p := range props {
		heading := "### " + e.typeRef(p.Type) + " " + esc(p.Name) + defaultSuffix(p.Default)
		if p.DataType != "" {
			heading += " *(" + esc(p.DataType) + ")*"
		}
		e.blank()
		e.anchor(model.KindThemeProperty, p.Name, e.emit(heading))
		e.describe(p.Description)
	}
}

func (e *emitter) params(ps []model.Param) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		s := esc(p.Name)
		if p.Type != "" {
			s += ": " + e.typeRef(p.Type)
		}
		if p.Default != "" {
			s += " = " + code(p.Default)
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

func (e *emitter) returnRef(m model.Member) string {
	if m.ReturnType == "" {
		return "void"
	}
	return e.typeRef(m.ReturnType)
}

// typeRef links t when it names a class or an enum in the snapshot and
// renders it as plain text otherwise.
func (e *emitter) typeRef(t string) string {
	t = strings.TrimPrefix(strings.TrimPrefix(t, "enum::"), "bitfield::")
	if t == "" {
		return ""
	}
	if strings.HasSuffix(t, "[]") {
		return e.typeRef(strings.TrimSuffix(t, "[]")) + `\[\]`
	}
	if strings.HasPrefix(t, "Array[") && strings.HasSuffix(t, "]") {
		return e.typeRef("Array") + `\[` + e.typeRef(t[len("Array["):len(t)-1]) + `\]`
	}
	if class, enum, ok := strings.Cut(t, "."); ok {
		if rec, found := e.snapClass(class); found {
			if _, isEnum := rec.Enum(enum); isEnum {
				return link(t, class+"#enum:"+enum)
			}
		}
		return esc(t)
	}
	if e.known(t) {
		return link(t, t)
	}
	if _, ok := e.rec.Enum(t); ok {
		return link(t, e.rec.Name+"#enum:"+t)
	}
	return esc(t)
}

func (e *emitter) snapClass(name string) (*model.ClassRecord, bool) {
	if name == e.rec.Name {
		return e.rec, true
	}
	if e.snap == nil {
		return nil, false
	}
	return e.snap.Class(name)
}

// inline renders a description on the same line as its symbol.
func (e *emitter) inline(desc string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return ""
	}
	return ": " + strings.Join(strings.Fields(e.rich(desc)), " ")
}

func memberLink(class string, kind model.MemberKind, name string) string {
	return link(name, class+"#"+kind.String()+":"+topic.EscapeName(name))
}

func link(label, dest string) string {
	return "[" + esc(label) + "](" + dest + ")"
}

func qualifiers(m model.Member) string {
	if m.Qualifiers == "" {
		return ""
	}
	return " *" + esc(m.Qualifiers) + "*"
}

func defaultSuffix(def string) string {
	if def == "" {
		return ""
	}
	return " = " + code(def)
}

func code(s string) string {
	if strings.Contains(s, "`") {
		return "``" + s + "``"
	}
	return "`" + s + "`"
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	"`", "\\`",
)

// esc escapes markup characters in symbol names.
func esc(s string) string {
	return escaper.Replace(s)
}
