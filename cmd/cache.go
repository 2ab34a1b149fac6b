package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jcdickinson/docview/internal/config"
	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Delete downloaded documentation bundles",
	Long:  `Remove the offline copies of bundles fetched from docs.url. The catalog and its blob store are left alone; use "origins rm" for those.`,
	Args:  cobra.NoArgs,
	Run:   runClearCache,
}

func runClearCache(cmd *cobra.Command, args []string) {
	dir := config.BundleCacheDir()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Println("bundle cache is empty")
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		slog.Error("failed to clear bundle cache", "error", err)
		os.Exit(1)
	}
	fmt.Println("bundle cache cleared")
}
