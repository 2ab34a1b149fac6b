// Package help drives navigation between rendered classes: it resolves
// topics, renders classes into a surface, keeps the symbol index of the
// page on screen and a back/forward history.
//
// A Controller is not safe for concurrent use; it belongs to whatever
// goroutine drives the surface.
package help

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jcdickinson/docview/internal/doccache"
	"github.com/jcdickinson/docview/internal/model"
	"github.com/jcdickinson/docview/internal/render"
	"github.com/jcdickinson/docview/internal/theme"
	"github.com/jcdickinson/docview/internal/topic"
)

var ErrUnknownSymbol = errors.New("unknown symbol")

// NoScroll asks GoToClass to land on the class description.
const NoScroll = -1

const defaultHistoryLimit = 100

// Provider hands out the current documentation snapshot, blocking while it
// is being built. *doccache.Cache satisfies it.
type Provider interface {
	Get() (*model.Snapshot, error)
}

// Surface is the part of a text surface the controller writes to.
type Surface interface {
	SetText(text string)
	ScrollTo(line int)
	ScrollOffset() int
}

// Entry is one visited class and the scroll offset it was left at.
type Entry struct {
	Class  string
	Scroll int
}

type Controller struct {
	docs    Provider
	surface Surface
	builder *render.Builder
	theme   theme.Theme
	log     *slog.Logger
	openURL func(string) error
	notify  func(string)
	limit   int

	doc     *render.Document
	history []Entry
	cursor  int

	beforeRender []func()
	textChanged  []func(*render.Document)
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithHistoryLimit caps the history; the oldest entries are dropped first.
func WithHistoryLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithURLOpener sets what external links are handed to.
func WithURLOpener(open func(url string) error) Option {
	return func(c *Controller) { c.openURL = open }
}

// WithNotify sets the sink for user-visible notes such as "unknown symbol".
func WithNotify(fn func(msg string)) Option {
	return func(c *Controller) { c.notify = fn }
}

func WithTheme(th theme.Theme) Option {
	return func(c *Controller) { c.theme = th }
}

func New(docs Provider, surface Surface, opts ...Option) *Controller {
	c := &Controller{
		docs:    docs,
		surface: surface,
		builder: render.NewBuilder(),
		theme:   theme.Default(),
		log:     slog.Default(),
		limit:   defaultHistoryLimit,
		cursor:  -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notify == nil {
		c.notify = func(msg string) { c.log.Info(msg) }
	}
	return c
}

// OnBeforeRender registers fn to run right before new text reaches the surface.
func (c *Controller) OnBeforeRender(fn func()) {
	c.beforeRender = append(c.beforeRender, fn)
}

// OnTextChange registers fn to run after the surface text was replaced.
func (c *Controller) OnTextChange(fn func(*render.Document)) {
	c.textChanged = append(c.textChanged, fn)
}

// SetTheme changes the theme used for subsequent renders and re-renders the
// current class.
func (c *Controller) SetTheme(th theme.Theme) error {
	c.theme = th
	return c.Reload()
}

func (c *Controller) Theme() theme.Theme {
	return c.theme
}

// CurrentClass returns the class on screen, or "" before the first navigation.
func (c *Controller) CurrentClass() string {
	if c.doc == nil {
		return ""
	}
	return c.doc.Class
}

// Document returns the page on screen.
func (c *Controller) Document() *render.Document {
	return c.doc
}

// Index returns the symbol index of the page on screen.
func (c *Controller) Index() *render.SymbolIndex {
	if c.doc == nil {
		return nil
	}
	return c.doc.Index
}

// GoToClass shows name and scrolls to line, or to the description when line
// is NoScroll. Navigating to the class already on screen only scrolls.
func (c *Controller) GoToClass(name string, line int) error {
	prev := c.CurrentClass()
	scroll := c.surface.ScrollOffset()
	if err := c.show(name, false); err != nil {
		return c.fail(err)
	}
	if prev != name {
		c.push(name, scroll)
	}
	if line == NoScroll {
		line = c.doc.Index.DescriptionLine
	}
	c.scrollTo(line)
	return nil
}

// GoToSymbol shows class if needed and scrolls to the anchor of the member.
// It returns the anchor line.
func (c *Controller) GoToSymbol(class string, kind model.MemberKind, name string) (int, error) {
	if c.CurrentClass() != class || c.stale() {
		if err := c.GoToClass(class, NoScroll); err != nil {
			return 0, err
		}
	}
	line, ok := c.doc.Index.Lookup(kind, name)
	if !ok {
		return 0, c.fail(fmt.Errorf("%w: %s %s.%s", ErrUnknownSymbol, kind, class, name))
	}
	c.scrollTo(line)
	return line, nil
}

// GoToHelpTopic parses a cross-reference and navigates to it.
func (c *Controller) GoToHelpTopic(path string) error {
	ref, err := topic.Parse(path)
	if err != nil {
		c.log.Warn("ignoring help topic", "topic", path, "error", err)
		return err
	}
	c.log.Debug("go to help topic", "topic", ref.String())

	switch ref.Kind {
	case topic.ExternalURL:
		if c.openURL == nil {
			c.notify("Open " + ref.URL + " in a browser")
			return nil
		}
		if err := c.openURL(ref.URL); err != nil {
			return fmt.Errorf("opening %s: %w", ref.URL, err)
		}
		return nil
	case topic.MemberRef:
		_, err := c.GoToSymbol(ref.Class, ref.Member, ref.Name)
		return err
	case topic.EnumValueRef:
		name := ref.Name
		if ref.Enum != "" {
			name = ref.Enum + "." + ref.Name
		}
		_, err := c.GoToSymbol(ref.Class, model.KindEnumValue, name)
		return err
	}
	return c.GoToClass(ref.Class, NoScroll)
}

// Back moves to the previous history entry. It is a no-op at the start.
func (c *Controller) Back() error {
	return c.step(-1)
}

// Forward moves to the next history entry. It is a no-op at the end.
func (c *Controller) Forward() error {
	return c.step(1)
}

func (c *Controller) CanGoBack() bool {
	return c.cursor > 0
}

func (c *Controller) CanGoForward() bool {
	return c.cursor >= 0 && c.cursor < len(c.history)-1
}

// History returns a copy of the history and the index of the current entry.
func (c *Controller) History() ([]Entry, int) {
	return slices.Clone(c.history), c.cursor
}

// Sections lists the table of contents of the page on screen.
func (c *Controller) Sections() []render.Section {
	if c.doc == nil {
		return nil
	}
	return slices.Clone(c.doc.Index.Sections)
}

func (c *Controller) ScrollToSection(id string) error {
	if c.doc == nil {
		return c.fail(fmt.Errorf("%w: section %s", ErrUnknownSymbol, id))
	}
	sec, ok := c.doc.Index.Section(id)
	if !ok {
		return c.fail(fmt.Errorf("%w: section %s of %s", ErrUnknownSymbol, id, c.doc.Class))
	}
	c.scrollTo(sec.Line)
	return nil
}

func (c *Controller) Scroll() int {
	return c.surface.ScrollOffset()
}

func (c *Controller) SetScroll(line int) {
	c.scrollTo(line)
}

// Reload re-renders the class on screen against the current snapshot and
// keeps the scroll offset.
func (c *Controller) Reload() error {
	if c.doc == nil {
		return nil
	}
	scroll := c.surface.ScrollOffset()
	if err := c.show(c.doc.Class, true); err != nil {
		return c.fail(err)
	}
	c.scrollTo(scroll)
	return nil
}

func (c *Controller) step(dir int) error {
	for {
		next := c.cursor + dir
		if c.cursor < 0 || next < 0 || next >= len(c.history) {
			return nil
		}
		entry := c.history[next]

		snap, err := c.snapshot()
		if err != nil {
			return err
		}
		if !snap.Has(entry.Class) {
			c.notify(entry.Class + " is no longer documented")
			c.history = slices.Delete(c.history, next, next+1)
			if dir < 0 {
				c.cursor--
			}
			continue
		}

		c.history[c.cursor].Scroll = c.surface.ScrollOffset()
		if err := c.show(entry.Class, false); err != nil {
			return c.fail(err)
		}
		c.cursor = next
		c.scrollTo(entry.Scroll)
		return nil
	}
}

// show makes name the page on screen. The class is rendered when it is not
// already on screen, when the snapshot changed since it was rendered, or when
// force is set. Surface text, index and current class change together.
func (c *Controller) show(name string, force bool) error {
	snap, err := c.snapshot()
	if err != nil {
		return err
	}
	rec, ok := snap.Class(name)
	if !ok {
		return fmt.Errorf("%w: class %s", ErrUnknownSymbol, name)
	}
	if !force && c.doc != nil && c.doc.Class == name && c.doc.Version == snap.Version {
		return nil
	}

	for _, fn := range c.beforeRender {
		fn()
	}
	doc := c.builder.Build(rec, snap, c.theme)
	c.surface.SetText(doc.Text)
	c.doc = doc
	c.log.Debug("rendered class", "class", name, "lines", len(doc.Lines), "version", doc.Version)
	for _, fn := range c.textChanged {
		fn(doc)
	}
	return nil
}

// stale reports whether the page on screen was rendered from an older snapshot.
func (c *Controller) stale() bool {
	if c.doc == nil {
		return false
	}
	snap, err := c.snapshot()
	return err == nil && snap.Version != c.doc.Version
}

func (c *Controller) snapshot() (*model.Snapshot, error) {
	snap, err := c.docs.Get()
	if err != nil {
		var partial *doccache.PartialError
		if !errors.As(err, &partial) || snap == nil {
			return nil, fmt.Errorf("loading documentation: %w", err)
		}
		c.log.Warn("documentation incomplete", "error", err)
	}
	return snap, nil
}

func (c *Controller) push(name string, leftAt int) {
	if c.cursor >= 0 {
		c.history[c.cursor].Scroll = leftAt
	}
	c.history = append(c.history[:c.cursor+1], Entry{Class: name})
	if over := len(c.history) - c.limit; over > 0 {
		c.history = slices.Delete(c.history, 0, over)
	}
	c.cursor = len(c.history) - 1
}

func (c *Controller) scrollTo(line int) {
	c.surface.ScrollTo(line)
	if c.cursor >= 0 {
		c.history[c.cursor].Scroll = c.surface.ScrollOffset()
	}
}

func (c *Controller) fail(err error) error {
	if errors.Is(err, ErrUnknownSymbol) {
		c.notify(err.Error())
	} else {
		c.log.Error("navigation failed", "error", err)
	}
	return err
}
