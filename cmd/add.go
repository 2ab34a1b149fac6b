package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/jcdickinson/docview/internal/config"
	"github.com/jcdickinson/docview/internal/docs"
	"github.com/jcdickinson/docview/internal/search"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [dir|url]",
	Short: "Import class dumps into the catalog",
	Long: `Split class dumps into the content-addressed store and record them in the
catalog under an origin. Re-importing an origin replaces its classes. The
source defaults to the configured docs directory or URL.`,
	Example: `  docview import ./doc/classes
  docview import --origin engine --version 4.3 https://example.com/classes.json.zst`,
	Args: cobra.MaximumNArgs(1),
	Run:  runImport,
}

var (
	importOrigin  string
	importVersion string
)

func init() {
	importCmd.Flags().StringVar(&importOrigin, "origin", "", "origin name (default: source base name)")
	importCmd.Flags().StringVar(&importVersion, "version", "", "version label recorded with the origin")
}

func runImport(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	source := cfg.Docs.Dir
	if cfg.Docs.Source == "url" {
		source = cfg.Docs.URL
	}
	if len(args) == 1 {
		source = args[0]
	}

	ctx := context.Background()
	raws, err := readRawClasses(ctx, source)
	if err != nil {
		log.Fatalf("failed to read class dumps: %v", err)
	}

	origin := importOrigin
	if origin == "" {
		origin = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(source), ".zst"), ".json")
	}

	catalog, err := openCatalog()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer catalog.Close()

	bar := progressbar.Default(int64(len(raws)), "importing "+origin)
	result, err := catalog.Import(ctx, origin, importVersion, raws, func() { bar.Add(1) })
	bar.Finish()
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	fmt.Printf("  %s: %d classes imported\n", origin, result.Imported)
	for _, f := range result.Failures {
		fmt.Printf("  %s: error: %v\n", f.Name, f.Err)
	}
}

// readRawClasses splits every dump of a directory, or the bundle at a URL,
// into per-class documents.
func readRawClasses(ctx context.Context, source string) ([]docs.RawClass, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err := docs.FetchBundle(ctx, nil, source)
		if err != nil {
			return nil, err
		}
		return docs.SplitBundle(data)
	}

	files, err := docs.NewDirSource(source).Files()
	if err != nil {
		return nil, err
	}
	var raws []docs.RawClass
	for _, path := range files {
		data, err := docs.ReadDumpFile(path)
		if err != nil {
			return nil, err
		}
		split, err := docs.SplitBundle(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		raws = append(raws, split...)
	}
	return raws, nil
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search classes and members",
	Example: `  docview search texture
  docview search --kind signal pressed
  docview search --limit 5 "name:get_*"`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

var (
	searchKind  string
	searchLimit int
	searchJSON  bool
)

func init() {
	searchCmd.Flags().StringVar(&searchKind, "kind", "", "only hits of this kind (class, method, signal, property, ...)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results (default: search.limit)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) {
	env, err := openDocs(context.Background())
	if err != nil {
		log.Fatalf("failed to open documentation: %v", err)
	}
	defer env.Close()

	limit := searchLimit
	if limit <= 0 {
		limit = env.cfg.Search.Limit
	}
	searcher := search.NewSearcher(env.cache)
	defer searcher.Close()

	results, err := searcher.Search(context.Background(), args[0], &search.Options{Limit: limit, Kind: searchKind})
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}

	if searchJSON {
		out, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(out))
		return
	}
	if len(results) == 0 {
		fmt.Println("no results")
		return
	}
	for i, r := range results {
		fmt.Printf("%d. [%.2f] %s (%s)\n", i+1, r.Score, r.Topic, r.Kind)
		if r.Snippet != "" {
			fmt.Printf("   %s\n", r.Snippet)
		}
	}
}

var originsCmd = &cobra.Command{
	Use:   "origins",
	Short: "List imported origins",
	Args:  cobra.NoArgs,
	Run:   runOrigins,
}

var originsRmCmd = &cobra.Command{
	Use:   "rm <origin>",
	Short: "Remove an origin and its classes from the catalog",
	Args:  cobra.ExactArgs(1),
	Run:   runOriginsRm,
}

func init() {
	originsCmd.AddCommand(originsRmCmd)
}

func runOrigins(cmd *cobra.Command, args []string) {
	catalog, err := openCatalog()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer catalog.Close()

	origins, err := catalog.ListOrigins()
	if err != nil {
		log.Fatalf("listing origins failed: %v", err)
	}
	if len(origins) == 0 {
		fmt.Println("no origins imported")
		return
	}
	for _, o := range origins {
		state := "pending"
		if o.ImportedAt != nil {
			state = "imported " + o.ImportedAt.Format("2006-01-02 15:04")
		}
		version := o.Version
		if version == "" {
			version = "-"
		}
		fmt.Printf("  %s@%s [%s]\n", o.Name, version, state)
	}

	total, err := catalog.CountClasses()
	if err != nil {
		log.Fatalf("counting classes failed: %v", err)
	}
	fmt.Printf("%d classes catalogued\n", total)
}

func runOriginsRm(cmd *cobra.Command, args []string) {
	catalog, err := openCatalog()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer catalog.Close()

	removed, err := catalog.RemoveOrigin(args[0])
	if err != nil {
		log.Fatalf("removing origin failed: %v", err)
	}
	if !removed {
		fmt.Printf("no origin named %s\n", args[0])
		return
	}
	fmt.Printf("removed %s\n", args[0])
}
