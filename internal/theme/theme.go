package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the fixed bundle of colors and fonts consumed once per render.
type Theme struct {
	Name           string `mapstructure:"name"`
	TextColor      string `mapstructure:"text_color"`
	TitleColor     string `mapstructure:"title_color"`
	HeadlineColor  string `mapstructure:"headline_color"`
	CommentColor   string `mapstructure:"comment_color"`
	SymbolColor    string `mapstructure:"symbol_color"`
	ValueColor     string `mapstructure:"value_color"`
	QualifierColor string `mapstructure:"qualifier_color"`
	TypeColor      string `mapstructure:"type_color"`
	LinkColor      string `mapstructure:"link_color"`
	HighlightColor string `mapstructure:"highlight_color"`
	DocFont        string `mapstructure:"doc_font"`
	DocBoldFont    string `mapstructure:"doc_bold_font"`
	DocTitleFont   string `mapstructure:"doc_title_font"`
	DocCodeFont    string `mapstructure:"doc_code_font"`
	DocFontSize    int    `mapstructure:"doc_font_size"`
	TitleFontSize  int    `mapstructure:"title_font_size"`
}

var presets = map[string]Theme{
	"dark": {
		Name:           "dark",
		TextColor:      "#cdcfd2",
		TitleColor:     "#57b3ff",
		HeadlineColor:  "#e0e0e0",
		CommentColor:   "#8c8f94",
		SymbolColor:    "#abc9ff",
		ValueColor:     "#a1ffe0",
		QualifierColor: "#c7a0ff",
		TypeColor:      "#42ffc2",
		LinkColor:      "#57b3ff",
		HighlightColor: "#5c4a00",
		DocFont:        "sans",
		DocBoldFont:    "sans-bold",
		DocTitleFont:   "sans-bold",
		DocCodeFont:    "mono",
		DocFontSize:    15,
		TitleFontSize:  23,
	},
	"light": {
		Name:           "light",
		TextColor:      "#262626",
		TitleColor:     "#0055aa",
		HeadlineColor:  "#101010",
		CommentColor:   "#6b6b6b",
		SymbolColor:    "#3b5fa8",
		ValueColor:     "#0a7d5a",
		QualifierColor: "#7a3fc4",
		TypeColor:      "#0a7d5a",
		LinkColor:      "#0055aa",
		HighlightColor: "#ffe680",
		DocFont:        "sans",
		DocBoldFont:    "sans-bold",
		DocTitleFont:   "sans-bold",
		DocCodeFont:    "mono",
		DocFontSize:    15,
		TitleFontSize:  23,
	},
}

// Default returns the dark preset.
func Default() Theme {
	return presets["dark"]
}

// Preset looks up a built-in theme by name, case-insensitively.
func Preset(name string) (Theme, bool) {
	t, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// PresetNames lists the built-in themes.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Merge fills empty fields of t from base.
func (t Theme) Merge(base Theme) Theme {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	out := Theme{
		Name:           pick(t.Name, base.Name),
		TextColor:      pick(t.TextColor, base.TextColor),
		TitleColor:     pick(t.TitleColor, base.TitleColor),
		HeadlineColor:  pick(t.HeadlineColor, base.HeadlineColor),
		CommentColor:   pick(t.CommentColor, base.CommentColor),
		SymbolColor:    pick(t.SymbolColor, base.SymbolColor),
		ValueColor:     pick(t.ValueColor, base.ValueColor),
		QualifierColor: pick(t.QualifierColor, base.QualifierColor),
		TypeColor:      pick(t.TypeColor, base.TypeColor),
		LinkColor:      pick(t.LinkColor, base.LinkColor),
		HighlightColor: pick(t.HighlightColor, base.HighlightColor),
		DocFont:        pick(t.DocFont, base.DocFont),
		DocBoldFont:    pick(t.DocBoldFont, base.DocBoldFont),
		DocTitleFont:   pick(t.DocTitleFont, base.DocTitleFont),
		DocCodeFont:    pick(t.DocCodeFont, base.DocCodeFont),
		DocFontSize:    t.DocFontSize,
		TitleFontSize:  t.TitleFontSize,
	}
	if out.DocFontSize == 0 {
		out.DocFontSize = base.DocFontSize
	}
	if out.TitleFontSize == 0 {
		out.TitleFontSize = base.TitleFontSize
	}
	return out
}

// Styles are the terminal renditions of a Theme.
type Styles struct {
	Text      lipgloss.Style
	Title     lipgloss.Style
	Headline  lipgloss.Style
	Comment   lipgloss.Style
	Link      lipgloss.Style
	Highlight lipgloss.Style
	Status    lipgloss.Style
}

func (t Theme) Styles() Styles {
	return Styles{
		Text:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.TextColor)),
		Title:     lipgloss.NewStyle().Foreground(lipgloss.Color(t.TitleColor)).Bold(true),
		Headline:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.HeadlineColor)).Bold(true),
		Comment:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.CommentColor)),
		Link:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.LinkColor)).Underline(true),
		Highlight: lipgloss.NewStyle().Background(lipgloss.Color(t.HighlightColor)),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.CommentColor)).Italic(true),
	}
}
