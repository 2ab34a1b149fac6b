package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jcdickinson/docview/internal/config"
	"github.com/jcdickinson/docview/internal/help"
	"github.com/jcdickinson/docview/internal/surface"
	"github.com/jcdickinson/docview/internal/tui"
	"github.com/jcdickinson/docview/internal/viewer"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse [topic]",
	Short: "Browse the documentation interactively",
	Example: `  docview browse
  docview browse Sprite#draw`,
	Args: cobra.MaximumNArgs(1),
	Run:  runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) {
	logPath := config.LogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		slog.Error("failed to create log directory", "error", err)
		os.Exit(1)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env, err := openDocs(ctx)
	if err != nil {
		log.Fatalf("failed to open documentation: %v", err)
	}
	defer env.Close()

	buf := surface.New()
	v := viewer.New(env.cache, buf, viewer.WithHelpOptions(
		help.WithTheme(env.cfg.Theme),
		help.WithHistoryLimit(env.cfg.History.Limit),
	))

	m := tui.New(v, buf)
	if len(args) == 1 {
		if err := m.Open(args[0]); err != nil {
			slog.Warn("opening topic", "topic", args[0], "error", err)
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		log.Fatalf("browser failed: %v", err)
	}
}
