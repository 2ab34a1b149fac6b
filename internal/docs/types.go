package docs

// ClassDump is the on-disk JSON form of one documented class, as written by
// the engine's doc exporter. A bundle is either a single ClassDump object or
// an array of them.
type ClassDump struct {
	Name             string         `json:"name"`
	Inherits         string         `json:"inherits,omitempty"`
	BriefDescription string         `json:"brief_description,omitempty"`
	Description      string         `json:"description,omitempty"`
	Tutorials        []TutorialDump `json:"tutorials,omitempty"`
	Methods          []MethodDump   `json:"methods,omitempty"`
	Signals          []MethodDump   `json:"signals,omitempty"`
	Properties       []PropertyDump `json:"properties,omitempty"`
	ThemeProperties  []ThemeDump    `json:"theme_properties,omitempty"`
	Constants        []ConstantDump `json:"constants,omitempty"`
	Enums            []EnumDump     `json:"enums,omitempty"`
}

type TutorialDump struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

type ArgumentDump struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default string `json:"default,omitempty"`
}

// MethodDump describes a method or a signal. Signals leave ReturnType empty.
type MethodDump struct {
	Name        string         `json:"name"`
	ReturnType  string         `json:"return_type,omitempty"`
	Qualifiers  string         `json:"qualifiers,omitempty"`
	Arguments   []ArgumentDump `json:"arguments,omitempty"`
	Description string         `json:"description,omitempty"`
}

type PropertyDump struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Setter      string `json:"setter,omitempty"`
	Getter      string `json:"getter,omitempty"`
	Description string `json:"description,omitempty"`
}

type ThemeDump struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DataType    string `json:"data_type,omitempty"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

type ConstantDump struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

type EnumDump struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Values      []EnumValueDump `json:"values"`
}

type EnumValueDump struct {
	Name        string `json:"name"`
	Value       int64  `json:"value"`
	Description string `json:"description,omitempty"`
}
