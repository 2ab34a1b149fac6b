package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"

	"github.com/jcdickinson/docview/internal/doccache"
	"github.com/jcdickinson/docview/internal/help"
	"github.com/jcdickinson/docview/internal/mcp"
	"github.com/jcdickinson/docview/internal/model"
	"github.com/jcdickinson/docview/internal/surface"
	"github.com/jcdickinson/docview/internal/topic"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <topic>",
	Short: "Print the documentation for a class or member",
	Example: `  docview show Sprite
  docview show Sprite#draw
  docview show Sprite#enum_value:Mode.REPEAT
  docview show --full class_method:Sprite:draw`,
	Args: cobra.ExactArgs(1),
	Run:  runShow,
}

var showFull bool

func init() {
	showCmd.Flags().BoolVar(&showFull, "full", false, "print the whole class page for member topics")
}

func runShow(cmd *cobra.Command, args []string) {
	ref, err := topic.Parse(args[0])
	if err != nil {
		log.Fatalf("invalid topic: %v", err)
	}
	if ref.Kind == topic.ExternalURL {
		fmt.Println(ref.URL)
		return
	}

	env, err := openDocs(context.Background())
	if err != nil {
		log.Fatalf("failed to open documentation: %v", err)
	}
	defer env.Close()
	reportPartial(env.cache)

	nav := help.New(env.cache, surface.New(), help.WithTheme(env.cfg.Theme))
	if err := nav.GoToHelpTopic(args[0]); err != nil {
		log.Fatalf("show failed: %v", err)
	}
	doc := nav.Document()
	if ref.Kind == topic.ClassRef || showFull {
		fmt.Println(doc.Text)
		return
	}
	fmt.Println(mcp.Excerpt(doc.Lines, nav.Scroll()))
}

var sectionsCmd = &cobra.Command{
	Use:   "sections <class>",
	Short: "List the sections of a class page",
	Args:  cobra.ExactArgs(1),
	Run:   runSections,
}

var sectionsJSON bool

func init() {
	sectionsCmd.Flags().BoolVar(&sectionsJSON, "json", false, "output as JSON")
}

func runSections(cmd *cobra.Command, args []string) {
	env, err := openDocs(context.Background())
	if err != nil {
		log.Fatalf("failed to open documentation: %v", err)
	}
	defer env.Close()

	nav := help.New(env.cache, surface.New(), help.WithTheme(env.cfg.Theme))
	if err := nav.GoToClass(args[0], help.NoScroll); err != nil {
		log.Fatalf("sections failed: %v", err)
	}

	sections := nav.Sections()
	if sectionsJSON {
		out, _ := json.MarshalIndent(sections, "", "  ")
		fmt.Println(string(out))
		return
	}
	for _, s := range sections {
		fmt.Printf("%5d  %-16s %s\n", s.Line+1, s.ID, s.Label)
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documented classes",
	Example: `  docview list
  docview list --match "*Button*"`,
	Args: cobra.NoArgs,
	Run:  runList,
}

var listMatch string

func init() {
	listCmd.Flags().StringVar(&listMatch, "match", "", "glob pattern for class names")
}

func runList(cmd *cobra.Command, args []string) {
	env, err := openDocs(context.Background())
	if err != nil {
		log.Fatalf("failed to open documentation: %v", err)
	}
	defer env.Close()

	snap := reportPartial(env.cache)
	if snap == nil {
		log.Fatalf("no documentation loaded")
	}
	names, err := mcp.MatchClasses(snap, listMatch)
	if err != nil {
		log.Fatalf("list failed: %v", err)
	}
	if len(names) == 0 {
		fmt.Println("no classes")
		return
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

// reportPartial waits for the snapshot and logs the classes that failed to
// load. A fatal build is left for the caller's own Get to report.
func reportPartial(cache *doccache.Cache) *model.Snapshot {
	snap, err := cache.Get()
	var partial *doccache.PartialError
	if errors.As(err, &partial) {
		for _, f := range partial.Failures {
			slog.Warn("class failed to load", "class", f.Name, "error", f.Err)
		}
	}
	return snap
}
