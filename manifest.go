package polycubes

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// manifestEntry records the size and xxHash64 sum of one cache file as of
// its last successful write.
type manifestEntry struct {
	Size int64  `json:"size"`
	Sum  uint64 `json:"sum"`
}

// cacheManifest is a JSON sidecar (manifest.json in the cache base
// directory) that lets a Load fail fast with the recoverable CacheUnreadable
// path instead of trusting a truncated or corrupted file's stored offsets.
// It never changes the byte-exact .bin format itself.
type cacheManifest struct {
	Entries map[string]manifestEntry `json:"entries"`
}

func manifestPath(baseDir string) string {
	return filepath.Join(baseDir, "manifest.json")
}

func loadManifest(baseDir string) (*cacheManifest, error) {
	data, err := os.ReadFile(manifestPath(baseDir))
	if err != nil {
		if os.IsNotExist(err) {
			return &cacheManifest{Entries: map[string]manifestEntry{}}, nil
		}
		return nil, err
	}
	var m cacheManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Entries == nil {
		m.Entries = map[string]manifestEntry{}
	}
	return &m, nil
}

func (m *cacheManifest) save(baseDir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(manifestPath(baseDir), data, 0o644)
}

func (m *cacheManifest) record(name string, size int64, sum uint64) {
	m.Entries[name] = manifestEntry{Size: size, Sum: sum}
}

// verify reports whether name's recorded size and sum match. A name absent
// from the manifest verifies as true: caches written before the manifest
// existed, or by another process, are not treated as corrupt on that basis
// alone.
func (m *cacheManifest) verify(name string, size int64, sum uint64) bool {
	e, ok := m.Entries[name]
	if !ok {
		return true
	}
	return e.Size == size && e.Sum == sum
}
