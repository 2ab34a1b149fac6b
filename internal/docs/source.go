package docs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jcdickinson/docview/internal/model"
	"github.com/klauspost/compress/zstd"
)

// DirSource loads every *.json and *.json.zst class dump in a directory.
type DirSource struct {
	Dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// IsDumpFile reports whether name looks like a class dump.
func IsDumpFile(name string) bool {
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.zst")
}

// Files lists the dump files in the directory, sorted.
func (s *DirSource) Files() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading docs directory %s: %w", s.Dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsDumpFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(s.Dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LoadClasses reads the directory. A missing directory is fatal; a file that
// cannot be read or decoded is reported as a failure under its file name.
func (s *DirSource) LoadClasses(ctx context.Context) ([]*model.ClassRecord, []model.ClassFailure, error) {
	files, err := s.Files()
	if err != nil {
		return nil, nil, err
	}

	var records []*model.ClassRecord
	var failures []model.ClassFailure
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		data, err := ReadDumpFile(path)
		if err != nil {
			failures = append(failures, model.ClassFailure{Name: filepath.Base(path), Err: err})
			continue
		}
		recs, fails, err := ParseBundle(data)
		if err != nil {
			failures = append(failures, model.ClassFailure{Name: filepath.Base(path), Err: err})
			continue
		}
		records = append(records, recs...)
		failures = append(failures, fails...)
	}

	slog.Debug("loaded class dumps", "dir", s.Dir, "files", len(files), "classes", len(records), "failures", len(failures))
	return records, failures, nil
}

// ReadDumpFile reads a dump, transparently decompressing .zst files.
func ReadDumpFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening class dump: %w", err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".zst") {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("reading class dump: %w", err)
		}
		return data, nil
	}

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing class dump: %w", err)
	}
	return data, nil
}
