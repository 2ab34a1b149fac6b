// Package tui is the interactive terminal front end: a bubbletea model that
// shows a surface.Buffer and drives a viewer.Viewer.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jcdickinson/docview/internal/surface"
	"github.com/jcdickinson/docview/internal/viewer"
)

// Mode is what keyboard input currently goes to.
type Mode int

const (
	ModeNormal   Mode = iota
	ModeFind          // typing a find query
	ModeTopic         // typing a help topic
	ModeSections      // picking a section
)

type Model struct {
	view *viewer.Viewer
	buf  *surface.Buffer

	mode     Mode
	input    string
	cursor   int // section picker
	link     int // focused link on screen, -1 for none
	message  string
	width    int
	height   int
	quitting bool
}

func New(v *viewer.Viewer, buf *surface.Buffer) Model {
	return Model{view: v, buf: buf, link: -1, width: 80, height: 24}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Mode() Mode {
	return m.mode
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if ref, ok := m.buf.LinkAt(m.buf.ScrollOffset()+msg.Y, msg.X); ok {
				m.follow(ref)
			}
		}
		if msg.Button == tea.MouseButtonWheelDown {
			m.scrollBy(3)
		}
		if msg.Button == tea.MouseButtonWheelUp {
			m.scrollBy(-3)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeFind:
			return m.updateFind(msg)
		case ModeTopic:
			return m.updateTopic(msg)
		case ModeSections:
			return m.updateSections(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	m.message = ""
	if m.view.HandleKey(key) {
		if m.view.Searching() {
			m.mode = ModeFind
			m.input = m.view.Query()
		}
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "j", "down":
		m.scrollBy(1)
	case "k", "up":
		m.scrollBy(-1)
	case "pgdown", " ":
		m.scrollBy(m.page())
	case "pgup":
		m.scrollBy(-m.page())
	case "g", "home":
		m.scrollTo(0)
	case "G", "end":
		m.scrollTo(m.buf.LineCount() - 1)
	case "/":
		m.view.PopupSearch()
		m.mode = ModeFind
		m.input = ""
	case "n":
		m.view.SearchAgain(false)
	case "N":
		m.view.SearchAgain(true)
	case ":":
		m.mode = ModeTopic
		m.input = ""
	case "s":
		if len(m.view.Sections()) > 0 {
			m.mode = ModeSections
			m.cursor = 0
		}
	case "b", "backspace":
		m.report(m.view.Back())
	case "f":
		m.report(m.view.Forward())
	case "tab":
		m.focusLink(1)
	case "shift+tab":
		m.focusLink(-1)
	case "enter":
		if links := m.visibleLinks(); m.link >= 0 && m.link < len(links) {
			m.follow(links[m.link].target)
		}
	}
	return m, nil
}

func (m Model) updateFind(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view.DismissSearch()
		m.mode = ModeNormal
	case "enter", "f3":
		m.view.SearchAgain(false)
	case "shift+enter", "shift+f3":
		m.view.SearchAgain(true)
	case "backspace":
		m.setQuery(dropLast(m.input))
	case "ctrl+c":
		return m, tea.Quit
	default:
		switch msg.Type {
		case tea.KeySpace:
			m.setQuery(m.input + " ")
		case tea.KeyRunes:
			m.setQuery(m.input + string(msg.Runes))
		}
	}
	return m, nil
}

// setQuery searches as the query is typed; an empty query clears the match.
func (m *Model) setQuery(q string) {
	m.input = q
	if q != m.view.Query() {
		m.view.SetQuery(q)
	}
}

func (m Model) updateTopic(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
	case "enter":
		m.mode = ModeNormal
		m.follow(m.input)
	case "backspace":
		m.input = dropLast(m.input)
	case "ctrl+c":
		return m, tea.Quit
	default:
		if msg.Type == tea.KeyRunes {
			m.input += string(msg.Runes)
		}
	}
	return m, nil
}

func (m Model) updateSections(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sections := m.view.Sections()
	switch msg.String() {
	case "esc", "q":
		m.mode = ModeNormal
	case "j", "down":
		if m.cursor < len(sections)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		m.mode = ModeNormal
		if m.cursor < len(sections) {
			m.report(m.view.ScrollToSection(sections[m.cursor].ID))
		}
	}
	return m, nil
}

// scrollTo goes through the controller so the history entry keeps the offset.
func (m Model) scrollTo(line int) {
	m.view.Controller().SetScroll(line)
}

func (m Model) scrollBy(delta int) {
	m.scrollTo(m.buf.ScrollOffset() + delta)
}

func (m *Model) follow(ref string) {
	m.link = -1
	m.report(m.view.GoToHelpTopic(ref))
}

func (m *Model) report(err error) {
	if err != nil && m.view.Status() == "" {
		m.message = err.Error()
	}
}

type visibleLink struct {
	line   int
	target string
}

func (m Model) visibleLinks() []visibleLink {
	var out []visibleLink
	top := m.buf.ScrollOffset()
	for i := top; i < top+m.bodyHeight() && i < m.buf.LineCount(); i++ {
		for _, l := range m.buf.Links(i) {
			out = append(out, visibleLink{line: i, target: l.Target})
		}
	}
	return out
}

func (m *Model) focusLink(dir int) {
	links := m.visibleLinks()
	if len(links) == 0 {
		m.link = -1
		return
	}
	if m.link < 0 && dir < 0 {
		m.link = len(links) - 1
		return
	}
	m.link = (m.link + dir + len(links)) % len(links)
}

func (m Model) bodyHeight() int {
	return max(1, m.height-1)
}

func (m Model) page() int {
	return max(1, m.bodyHeight()-1)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	body := m.buf.Render(m.width, m.bodyHeight())
	if n := strings.Count(body, "\n") + 1; n < m.bodyHeight() {
		body += strings.Repeat("\n", m.bodyHeight()-n)
	}
	if m.mode == ModeSections {
		body = m.sectionList()
	}
	return body + "\n" + m.buf.Theme().Styles().Status.Render(m.statusLine())
}

func (m Model) sectionList() string {
	var b strings.Builder
	for i, s := range m.view.Sections() {
		if i >= m.bodyHeight() {
			break
		}
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%s\n", marker, s.Label)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) statusLine() string {
	switch m.mode {
	case ModeFind:
		return fmt.Sprintf("Find: %s  %s", m.input, m.view.Status())
	case ModeTopic:
		return "Go to: " + m.input
	case ModeSections:
		return "Sections (enter to jump, esc to close)"
	}
	if m.message != "" {
		return m.message
	}
	if s := m.view.Status(); s != "" {
		return s
	}
	if links := m.visibleLinks(); m.link >= 0 && m.link < len(links) {
		return "→ " + links[m.link].target
	}
	class := m.view.CurrentClass()
	if class == "" {
		return "docview  (: go to topic, q quit)"
	}
	nav := m.view.Controller()
	back, fwd := " ", " "
	if nav.CanGoBack() {
		back = "<"
	}
	if nav.CanGoForward() {
		fwd = ">"
	}
	return fmt.Sprintf("%s%s %s  %d/%d", back, fwd, class, m.buf.ScrollOffset()+1, m.buf.LineCount())
}

func dropLast(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}

// Open navigates to topic before the program starts; an empty topic is a no-op.
func (m Model) Open(topic string) error {
	if topic == "" {
		return nil
	}
	return m.view.GoToHelpTopic(topic)
}
