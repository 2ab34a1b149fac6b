package docs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jcdickinson/docview/internal/model"
	"github.com/klauspost/compress/zstd"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// FetchBundle downloads a class bundle. Bodies served as zstd (by URL suffix or
// Content-Type) are decompressed.
func FetchBundle(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = httpClient
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "docview/0.1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s returned %d: %s", url, resp.StatusCode, string(body))
	}

	if !strings.HasSuffix(url, ".zst") && resp.Header.Get("Content-Type") != "application/zstd" {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading bundle: %w", err)
		}
		return data, nil
	}

	decoder, err := zstd.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompressing bundle: %w", err)
	}
	return data, nil
}

// HTTPSource loads a bundle from a URL, keeping the last good download on disk
// so the viewer still works offline.
type HTTPSource struct {
	URL      string
	CacheDir string
	Client   *http.Client
}

func NewHTTPSource(url, cacheDir string) *HTTPSource {
	return &HTTPSource{URL: url, CacheDir: cacheDir}
}

func (s *HTTPSource) LoadClasses(ctx context.Context) ([]*model.ClassRecord, []model.ClassFailure, error) {
	cache := BundleCache{Dir: s.CacheDir}
	data, err := FetchBundle(ctx, s.Client, s.URL)
	if err != nil {
		if s.CacheDir == "" || !cache.Has(s.URL) {
			return nil, nil, err
		}
		slog.Warn("bundle fetch failed, using cached copy", "url", s.URL, "error", err)
		data, err = cache.Load(s.URL)
		if err != nil {
			return nil, nil, err
		}
	} else if s.CacheDir != "" {
		if err := cache.Save(s.URL, data); err != nil {
			slog.Warn("failed to cache bundle", "url", s.URL, "error", err)
		}
	}
	return ParseBundle(data)
}
