package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheBase_XDGSet(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	got := cacheBase()
	want := filepath.Join("/custom/cache", "docview")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_HomeDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	got := cacheBase()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}
	want := filepath.Join(home, ".cache", "docview")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_TmpFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "")
	got := cacheBase()
	if !strings.Contains(got, "docview") {
		t.Errorf("expected docview in path, got %q", got)
	}
}

func TestDecode_ThemePresetString(t *testing.T) {
	t.Parallel()
	cfg, err := decode(map[string]interface{}{"theme": "light"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Theme.Name != "light" {
		t.Errorf("theme = %q, want light", cfg.Theme.Name)
	}
	if cfg.History.Limit != 100 {
		t.Errorf("history limit = %d, want 100", cfg.History.Limit)
	}
}

func TestDecode_ThemeTableOverridesPreset(t *testing.T) {
	t.Parallel()
	cfg, err := decode(map[string]interface{}{
		"theme": map[string]interface{}{"name": "light", "title_color": "#123456"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Theme.TitleColor != "#123456" {
		t.Errorf("title color = %q", cfg.Theme.TitleColor)
	}
	if cfg.Theme.TextColor == "" {
		t.Error("expected text color filled from preset")
	}
}

func TestDecode_UnknownTheme(t *testing.T) {
	t.Parallel()
	if _, err := decode(map[string]interface{}{"theme": "neon"}); err == nil {
		t.Fatal("expected error for unknown theme")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DOCVIEW_HISTORY_LIMIT", "7")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.History.Limit != 7 {
		t.Errorf("history limit = %d, want 7", cfg.History.Limit)
	}
}
