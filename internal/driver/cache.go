package driver

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"lumen/internal/enqueuer"
	"lumen/internal/report"
	"lumen/internal/worldfile"
)

// cacheSchemaVersion invalidates older payload layouts. Bump it whenever
// CachePayload or anything it embeds changes shape.
const cacheSchemaVersion uint16 = 1

// Cache stores finished analysis results on disk, keyed by the program's
// combined digest. Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// CachePayload is the serialized form of one cached analysis.
type CachePayload struct {
	Schema   uint16
	Strategy string
	Stats    enqueuer.Stats
	Report   *report.Report
}

// OpenCache initializes the disk cache at the standard location:
// $XDG_CACHE_HOME/<app>, falling back to ~/.cache/<app>.
func OpenCache(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key worldfile.Digest) string {
	// The "programs" subdirectory keeps entries easy to inspect and wipe.
	return filepath.Join(c.dir, "programs", key.String()+".mp")
}

// Put serializes and writes a payload. The bytes land in a temp file first
// and are renamed over the target, so readers never see a partial entry.
func (c *Cache) Put(key worldfile.Digest, payload *CachePayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes the payload under key. A missing entry or a
// payload written by another schema version is a miss, not an error.
func (c *Cache) Get(key worldfile.Digest, out *CachePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll wipes the cache directory. The directory is renamed aside first
// so a concurrent writer cannot repopulate it mid-delete.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
