package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcdickinson/docview/internal/mcp"
	"github.com/jcdickinson/docview/internal/search"
	"github.com/spf13/cobra"
)

// Version is reported to MCP clients.
var Version = "dev"

var (
	debug       bool
	docsFlag    string
	catalogFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "docview",
	Short: "Class reference documentation viewer",
	Long: `Browse, search and serve class reference documentation built from class
dump files (one JSON object per class, or array bundles, optionally .zst).`,
	Args: cobra.MaximumNArgs(1),
	Run:  runBrowse,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level to stderr")
	rootCmd.PersistentFlags().StringVar(&docsFlag, "docs", "", "docs directory or bundle URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&catalogFlag, "catalog", false, "read classes from the imported catalog")

	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(originsCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(clearCacheCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	env, err := openDocs(context.Background())
	if err != nil {
		log.Fatalf("failed to open documentation: %v", err)
	}
	defer env.Close()

	server, err := mcp.NewServer(env.cache, search.NewSearcher(env.cache), env.cfg.Theme, Version)
	if err != nil {
		log.Fatalf("failed to create MCP server: %v", err)
	}

	errCh := make(chan error)
	go func() { errCh <- server.Run() }()

	if err := waitForSignal(errCh); err != nil {
		log.Fatalf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}

func waitForSignal(errCh chan error) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		slog.Info("received signal", "signal", sig)
		return nil
	case err := <-errCh:
		return err
	}
}
