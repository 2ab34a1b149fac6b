package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/jcdickinson/docview/internal/doccache"
	"github.com/jcdickinson/docview/internal/help"
	"github.com/jcdickinson/docview/internal/markdown"
	"github.com/jcdickinson/docview/internal/model"
	"github.com/jcdickinson/docview/internal/render"
	"github.com/jcdickinson/docview/internal/search"
	"github.com/jcdickinson/docview/internal/surface"
	"github.com/jcdickinson/docview/internal/theme"
	"github.com/jcdickinson/docview/internal/topic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/maypok86/otter"
)

//go:embed instructions.md
var instructions string

const resourceScheme = "classdoc://"

type Server struct {
	mcpServer *server.MCPServer
	docs      help.Provider
	searcher  *search.Searcher
	theme     theme.Theme
	builder   *render.Builder
	pages     otter.Cache[string, *render.Document]

	// The controller drives a headless surface and is not safe for
	// concurrent use.
	navMu sync.Mutex
	nav   *help.Controller
}

func NewServer(docs help.Provider, searcher *search.Searcher, th theme.Theme, version string) (*Server, error) {
	pages, err := otter.MustBuilder[string, *render.Document](256).Build()
	if err != nil {
		return nil, fmt.Errorf("creating page cache: %w", err)
	}

	s := &Server{
		docs:     docs,
		searcher: searcher,
		theme:    th,
		builder:  render.NewBuilder(),
		pages:    pages,
	}
	s.nav = help.New(docs, surface.New(), help.WithTheme(th), help.WithHistoryLimit(1))

	mcpServer := server.NewMCPServer(
		"docview",
		version,
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s, nil
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("goto_help",
			mcp.WithDescription("Show the documentation for a topic: a class (\"Sprite\"), a member (\"Sprite#draw\", \"Sprite#signal:texture_changed\") or an enum value (\"Sprite#enum_value:Mode.REPEAT\")."),
			mcp.WithString("topic",
				mcp.Description("Help topic"),
				mcp.Required(),
			),
		),
		s.handleGotoHelp,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_docs",
			mcp.WithDescription("Keyword search over every class and member. Supports bleve query syntax (\"texture\", \"+kind:signal draw\", \"name:get_*\"). Returns topics usable with goto_help."),
			mcp.WithString("query",
				mcp.Description("Search query"),
				mcp.Required(),
			),
			mcp.WithString("kind",
				mcp.Description("Only return hits of this kind: class, method, signal, property, theme_property, constant, enum, enum_value"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 20)"),
			),
		),
		s.handleSearchDocs,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_classes",
			mcp.WithDescription("List documented classes, optionally filtered by a glob pattern."),
			mcp.WithString("match",
				mcp.Description("Glob pattern, e.g. \"*Button*\" (default: all)"),
			),
		),
		s.handleListClasses,
	)

	mcpServer.AddTool(
		mcp.NewTool("class_sections",
			mcp.WithDescription("List the sections of a class page with their line numbers."),
			mcp.WithString("class",
				mcp.Description("Class name"),
				mcp.Required(),
			),
		),
		s.handleClassSections,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			resourceScheme+"{class}",
			"Class reference page",
			mcp.WithTemplateDescription("The full documentation page of one class."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

func (s *Server) handleGotoHelp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["topic"].(string)
	if path == "" {
		return mcp.NewToolResultError("missing required parameter: topic"), nil
	}
	ref, err := topic.Parse(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if ref.Kind == topic.ExternalURL {
		return mcp.NewToolResultText("External link: " + ref.URL), nil
	}

	s.navMu.Lock()
	defer s.navMu.Unlock()

	if err := s.nav.GoToHelpTopic(path); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("goto_help failed: %v", err)), nil
	}
	doc := s.nav.Document()
	if ref.Kind == topic.ClassRef {
		return mcp.NewToolResultText(doc.Text), nil
	}
	return mcp.NewToolResultText(Excerpt(doc.Lines, s.nav.Scroll())), nil
}

func (s *Server) handleSearchDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	opts := &search.Options{}
	opts.Kind, _ = args["kind"].(string)
	if limit, ok := args["limit"].(float64); ok {
		opts.Limit = int(limit)
	}

	results, err := s.searcher.Search(ctx, query, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleListClasses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pattern, _ := args["match"].(string)

	snap, err := s.snapshot()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	names, err := MatchClasses(snap, pattern)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resultJSON, _ := json.MarshalIndent(names, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleClassSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	class, _ := args["class"].(string)
	if class == "" {
		return mcp.NewToolResultError("missing required parameter: class"), nil
	}
	doc, err := s.page(class)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type section struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Line  int    `json:"line"`
	}
	out := make([]section, 0, len(doc.Index.Sections))
	for _, sec := range doc.Index.Sections {
		out = append(out, section{sec.ID, sec.Label, sec.Line})
	}
	resultJSON, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	class := strings.TrimPrefix(uri, resourceScheme)
	if class == uri || class == "" {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	doc, err := s.page(class)
	if err != nil {
		return nil, fmt.Errorf("getting doc: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     resourceLinks(doc.Text),
		},
	}, nil
}

// resourceLinks points class links at their classdoc:// resources so clients
// can follow them with a resource read.
func resourceLinks(text string) string {
	links := make(map[string]string)
	for _, dest := range markdown.Destinations(text) {
		if ref, err := topic.Parse(dest); err == nil && ref.Kind == topic.ClassRef {
			links[dest] = resourceScheme + dest
		}
	}
	return markdown.RewriteLinks(text, links)
}

// page renders class, reusing the rendering of the same snapshot version.
func (s *Server) page(class string) (*render.Document, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	key := class + "@" + strconv.FormatUint(snap.Version, 10)
	if doc, ok := s.pages.Get(key); ok {
		return doc, nil
	}
	rec, ok := snap.Class(class)
	if !ok {
		return nil, fmt.Errorf("%w: class %s", help.ErrUnknownSymbol, class)
	}
	doc := s.builder.Build(rec, snap, s.theme)
	s.pages.Set(key, doc)
	return doc, nil
}

func (s *Server) snapshot() (*model.Snapshot, error) {
	snap, err := s.docs.Get()
	if err != nil {
		var partial *doccache.PartialError
		if !errors.As(err, &partial) || snap == nil {
			return nil, fmt.Errorf("loading documentation: %w", err)
		}
	}
	return snap, nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	s.pages.Close()
	return s.searcher.Close()
}

// MatchClasses returns the class names matching a glob pattern, all of them
// for an empty pattern.
func MatchClasses(snap *model.Snapshot, pattern string) ([]string, error) {
	if pattern == "" {
		return snap.Names(), nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	var names []string
	for _, n := range snap.Names() {
		if g.Match(n) {
			names = append(names, n)
		}
	}
	return names, nil
}

// Excerpt returns the lines of a member entry: from its anchor heading up to
// the next heading of the same or a higher level. A list row anchor (constant,
// enum value) is a single line.
func Excerpt(lines []string, anchor int) string {
	if anchor < 0 || anchor >= len(lines) {
		return ""
	}
	level := headingLevel(lines[anchor])
	if level == 0 {
		return lines[anchor]
	}
	end := len(lines)
	for i := anchor + 1; i < len(lines); i++ {
		if l := headingLevel(lines[i]); l > 0 && l <= level {
			end = i
			break
		}
	}
	return strings.TrimRight(strings.Join(lines[anchor:end], "\n"), "\n")
}

func headingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n >= len(line) || line[n] != ' ' {
		return 0
	}
	return n
}
