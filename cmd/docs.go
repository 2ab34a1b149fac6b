package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jcdickinson/docview/internal/cas"
	"github.com/jcdickinson/docview/internal/config"
	"github.com/jcdickinson/docview/internal/db"
	"github.com/jcdickinson/docview/internal/doccache"
	"github.com/jcdickinson/docview/internal/docs"
	"github.com/jcdickinson/docview/internal/watch"
)

// docsEnv is the documentation cache a command reads from, plus whatever has
// to be closed when the command is done.
type docsEnv struct {
	cfg     *config.Config
	cache   *doccache.Cache
	closers []func()
}

func (e *docsEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// openDocs loads the config, applies --docs and --catalog, and returns a Doc
// Cache over the chosen source with its first build already started. A
// directory source is watched when watch.enabled is set.
func openDocs(ctx context.Context) (*docsEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	applyDocsFlags(cfg)

	env := &docsEnv{cfg: cfg}
	var src doccache.Source
	switch cfg.Docs.Source {
	case "catalog":
		catalog, err := openCatalog()
		if err != nil {
			return nil, err
		}
		env.closers = append(env.closers, func() { catalog.Close() })
		src = catalog
	case "url":
		if cfg.Docs.URL == "" {
			return nil, fmt.Errorf("docs.source is url but docs.url is empty")
		}
		src = docs.NewHTTPSource(cfg.Docs.URL, config.BundleCacheDir())
	default:
		src = docs.NewDirSource(cfg.Docs.Dir)
	}

	env.cache = doccache.New(src)
	env.cache.Start()

	if cfg.Docs.Source == "dir" && cfg.Watch.Enabled {
		debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
		w, err := watch.New(cfg.Docs.Dir, debounce, func(changed []string) {
			slog.Info("class dumps changed", "files", changed)
			env.cache.Invalidate()
			env.cache.Start()
		})
		if err != nil {
			slog.Warn("not watching docs directory", "dir", cfg.Docs.Dir, "error", err)
		} else {
			w.Start(ctx)
			env.closers = append(env.closers, w.Stop)
		}
	}
	return env, nil
}

func applyDocsFlags(cfg *config.Config) {
	if docsFlag != "" {
		if strings.HasPrefix(docsFlag, "http://") || strings.HasPrefix(docsFlag, "https://") {
			cfg.Docs.Source = "url"
			cfg.Docs.URL = docsFlag
		} else {
			cfg.Docs.Source = "dir"
			cfg.Docs.Dir = docsFlag
		}
	}
	if catalogFlag {
		cfg.Docs.Source = "catalog"
	}
}

func openCatalog() (*db.DB, error) {
	database, err := db.New(config.DBPath(), cas.New(config.CASDir()))
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	return database, nil
}
