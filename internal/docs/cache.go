package docs

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// BundleCache keeps the last good download of each bundle URL, zstd-compressed,
// under Dir.
type BundleCache struct {
	Dir string
}

// Path is where the bundle for url is stored.
func (c BundleCache) Path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.Dir, fmt.Sprintf("%x.json.zst", sum[:8]))
}

func (c BundleCache) Has(url string) bool {
	_, err := os.Stat(c.Path(url))
	return err == nil
}

// Save replaces the cached copy of url. The file is written next to its final
// name and renamed into place, so readers never see a partial bundle.
func (c BundleCache) Save(url string, data []byte) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("creating bundle cache dir: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	compressed := enc.EncodeAll(data, nil)
	enc.Close()

	tmp, err := os.CreateTemp(c.Dir, ".bundle-*")
	if err != nil {
		return fmt.Errorf("creating temp bundle: %w", err)
	}
	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing bundle: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.Path(url)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("installing bundle: %w", err)
	}
	return nil
}

// Load returns the decompressed cached bundle for url.
func (c BundleCache) Load(url string) ([]byte, error) {
	data, err := ReadDumpFile(c.Path(url))
	if err != nil {
		return nil, fmt.Errorf("loading cached bundle: %w", err)
	}
	return data, nil
}
