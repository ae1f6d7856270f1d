// Package assets implements the on-disk store for rendered SVG assets.
//
// The store is a flat directory keyed by asset key: one SVG file per
// (source, dialect, scheme) triple, named by the key's filename stem.
// Existence of the file at the derived path is itself the cache-hit
// signal; there is no index file.
//
// Writes are atomic with respect to concurrent readers: content is written
// to a temporary file in the same directory and renamed into place.
// Concurrent writers targeting the same key therefore cannot corrupt each
// other's output - the content is identical by construction (keys are
// content-addressed), so last writer wins with no observable difference.
package assets

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/texfig/texfig/pkg/diagram"
	"github.com/texfig/texfig/pkg/errors"
	"github.com/texfig/texfig/pkg/observability"
)

// Dir is a content-addressed asset directory.
type Dir struct {
	path string
}

// Open creates (if necessary) and opens an asset directory.
// An uncreatable directory is fatal: without a cache location no render
// can be persisted, so no per-block recovery is possible.
func Open(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCacheInit, err, "create asset directory %s", path)
	}
	return &Dir{path: path}, nil
}

// Root returns the asset directory path.
func (d *Dir) Root() string {
	return d.path
}

// Path returns the absolute path an asset with the given key lives at,
// whether or not it exists yet.
func (d *Dir) Path(key diagram.Key) string {
	return filepath.Join(d.path, key.Filename())
}

// Exists reports whether an asset for the key has already been persisted.
func (d *Dir) Exists(key diagram.Key) bool {
	info, err := os.Stat(d.Path(key))
	return err == nil && !info.IsDir()
}

// Write persists SVG bytes under the key atomically. A reader can never
// observe a partially-written file: the bytes go to a uniquely-named
// temporary file in the same directory first and are renamed into place.
func (d *Dir) Write(key diagram.Key, svg []byte) error {
	final := d.Path(key)
	tmp := filepath.Join(d.path, "."+key.Stem()+"."+uuid.NewString()+".tmp")

	if err := os.WriteFile(tmp, svg, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodePersist, err, "write asset %s", key)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.ErrCodePersist, err, "persist asset %s", key)
	}

	observability.Cache().OnCacheSet(key.Stem(), len(svg))
	return nil
}

// Read returns the persisted SVG bytes for the key.
func (d *Dir) Read(key diagram.Key) ([]byte, error) {
	data, err := os.ReadFile(d.Path(key))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersist, err, "read asset %s", key)
	}
	return data, nil
}

// Clear removes every persisted asset and returns the number removed.
// Temporary files from interrupted writes are removed as well.
func (d *Dir) Clear() (int, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(d.path, e.Name())); err == nil {
			count++
		}
	}
	return count, nil
}
