// Package viewer is the shell around a help page: it applies the theme before
// every render, forwards clicks to navigation and keys to the find bar.
package viewer

import (
	"log/slog"

	"github.com/jcdickinson/docview/internal/find"
	"github.com/jcdickinson/docview/internal/help"
	"github.com/jcdickinson/docview/internal/model"
	"github.com/jcdickinson/docview/internal/render"
	"github.com/jcdickinson/docview/internal/theme"
)

// Surface is everything the viewer needs from a rich-text surface.
type Surface interface {
	help.Surface
	find.Surface
	ClearHighlight()
	ApplyTheme(th theme.Theme)
}

type Viewer struct {
	surface Surface
	nav     *help.Controller
	finder  *find.Engine
	log     *slog.Logger

	searching bool
	status    string
}

type Option func(*options)

type options struct {
	log  *slog.Logger
	help []help.Option
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
		o.help = append(o.help, help.WithLogger(l))
	}
}

// WithHelpOptions passes options through to the navigation controller.
func WithHelpOptions(opts ...help.Option) Option {
	return func(o *options) { o.help = append(o.help, opts...) }
}

func New(docs help.Provider, surface Surface, opts ...Option) *Viewer {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	v := &Viewer{surface: surface, finder: find.New(surface), log: o.log}
	notify := help.WithNotify(func(msg string) { v.status = msg })
	v.nav = help.New(docs, surface, append([]help.Option{notify}, o.help...)...)
	v.nav.OnBeforeRender(func() { surface.ApplyTheme(v.nav.Theme()) })
	v.nav.OnTextChange(func(*render.Document) {
		v.finder.Reset()
		v.searching = false
	})
	return v
}

// Controller exposes the navigation controller.
func (v *Viewer) Controller() *help.Controller {
	return v.nav
}

func (v *Viewer) GoToHelpTopic(path string) error {
	v.status = ""
	return v.nav.GoToHelpTopic(path)
}

func (v *Viewer) GoToClass(name string, scroll int) error {
	v.status = ""
	return v.nav.GoToClass(name, scroll)
}

func (v *Viewer) GoToSymbol(class string, kind model.MemberKind, name string) (int, error) {
	v.status = ""
	return v.nav.GoToSymbol(class, kind, name)
}

func (v *Viewer) Sections() []render.Section {
	return v.nav.Sections()
}

func (v *Viewer) ScrollToSection(id string) error {
	return v.nav.ScrollToSection(id)
}

func (v *Viewer) CurrentClass() string {
	return v.nav.CurrentClass()
}

func (v *Viewer) Back() error {
	v.status = ""
	return v.nav.Back()
}

func (v *Viewer) Forward() error {
	v.status = ""
	return v.nav.Forward()
}

// SetTheme switches the theme and re-renders the page on screen with it.
func (v *Viewer) SetTheme(th theme.Theme) error {
	if v.nav.CurrentClass() == "" {
		v.surface.ApplyTheme(th)
	}
	return v.nav.SetTheme(th)
}

// Click follows a link reference from the surface.
func (v *Viewer) Click(ref string) error {
	return v.GoToHelpTopic(ref)
}

// PopupSearch opens the find bar, keeping the previous query.
func (v *Viewer) PopupSearch() {
	v.searching = true
}

func (v *Viewer) Searching() bool {
	return v.searching
}

// SetQuery replaces the find query and jumps to the first match. The old
// highlight is dropped first, so a query without matches leaves none.
func (v *Viewer) SetQuery(q string) (find.Match, bool) {
	v.searching = true
	v.surface.ClearHighlight()
	v.finder.SetQuery(q)
	return v.finder.Next(true)
}

func (v *Viewer) Query() string {
	return v.finder.Query()
}

// SearchAgain repeats the find in either direction, wrapping around.
func (v *Viewer) SearchAgain(backward bool) (find.Match, bool) {
	if backward {
		return v.finder.Prev(true)
	}
	return v.finder.Next(true)
}

// DismissSearch closes the find bar, forgets the query and drops the match
// highlight.
func (v *Viewer) DismissSearch() {
	v.searching = false
	v.finder.Reset()
	v.surface.ClearHighlight()
}

// Status is the text of the status line: the find bar label while searching,
// otherwise the last navigation note.
func (v *Viewer) Status() string {
	if v.searching {
		return v.finder.Status()
	}
	return v.status
}

// HandleKey handles viewer shortcuts and reports whether key was consumed.
// Keys use bubbletea's names ("ctrl+f", "shift+f3", "alt+left").
func (v *Viewer) HandleKey(key string) bool {
	switch key {
	case "ctrl+f":
		v.PopupSearch()
	case "f3":
		v.SearchAgain(false)
	case "shift+f3":
		v.SearchAgain(true)
	case "enter":
		if !v.searching {
			return false
		}
		v.SearchAgain(false)
	case "shift+enter":
		if !v.searching {
			return false
		}
		v.SearchAgain(true)
	case "esc":
		if !v.searching {
			return false
		}
		v.DismissSearch()
	case "alt+left":
		v.logErr(v.Back())
	case "alt+right":
		v.logErr(v.Forward())
	default:
		return false
	}
	return true
}

func (v *Viewer) logErr(err error) {
	if err != nil {
		v.log.Debug("viewer action failed", "error", err)
	}
}
