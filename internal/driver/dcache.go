package driver

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"

	"pmgraph/internal/diag"
	"pmgraph/internal/model"
	"pmgraph/internal/source"
)

// Current schema version - increment when the cached model changes.
const diskCacheSchemaVersion uint16 = 2

// CacheKey identifies an analysis: the input contents plus every option
// that changes the model.
type CacheKey [32]byte

func (k CacheKey) String() string { return hex.EncodeToString(k[:]) }

// DiskCache stores analyzed runs on disk, msgpack encoded and snappy
// compressed. Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CacheEntry is one stored analysis. Diagnostics holds the findings about
// the input files that belong to no run.
type CacheEntry struct {
	Runs        []*model.TestRun
	Diagnostics []diag.Diagnostic
}

type diskPayload struct {
	Schema      uint16
	Key         CacheKey
	Saved       time.Time
	Runs        []*model.TestRun
	Diagnostics []diag.Diagnostic
}

// OpenDiskCache opens the cache under $XDG_CACHE_HOME/app (or
// ~/.cache/app).
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key CacheKey) string {
	return filepath.Join(c.dir, "runs", key.String()+".mp.sz")
}

// Put stores an analysis under key.
func (c *DiskCache) Put(key CacheKey, e CacheEntry) error {
	if c == nil {
		return nil
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(&diskPayload{
		Schema:      diskCacheSchemaVersion,
		Key:         key,
		Saved:       time.Now(),
		Runs:        e.Runs,
		Diagnostics: e.Diagnostics,
	}); err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}
	data := snappy.Encode(nil, buf.Bytes())

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
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// атомарная замена
	return os.Rename(f.Name(), p)
}

// Get loads the analysis stored under key. A payload of another schema is
// a miss.
func (c *DiskCache) Get(key CacheKey) (CacheEntry, bool, error) {
	if c == nil {
		return CacheEntry{}, false, nil
	}
	c.mu.RLock()
	data, err := os.ReadFile(c.pathFor(key))
	c.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CacheEntry{}, false, nil
		}
		return CacheEntry{}, false, err
	}
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return CacheEntry{}, false, fmt.Errorf("decompress cache entry %s: %w", key, err)
	}
	var payload diskPayload
	if err := msgpack.Unmarshal(raw, &payload); err != nil {
		return CacheEntry{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	if payload.Schema != diskCacheSchemaVersion || payload.Key != key {
		return CacheEntry{}, false, nil
	}
	return CacheEntry{Runs: payload.Runs, Diagnostics: payload.Diagnostics}, true, nil
}

// DropAll invalidates the cache.
func (c *DiskCache) DropAll() error {
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

// keyOptions are the options folded into the cache key.
type keyOptions struct {
	Schema        uint16
	Mode          model.Mode
	Boot          bool
	MaxGraphLines int
	Filter        []string
	Aliases       map[string]string
	MergeEvents   bool
	Verbose       bool
}

func cacheKey(fs *source.FileSet, ids []source.FileID, opts Options) (CacheKey, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(keyOptions{
		Schema:        diskCacheSchemaVersion,
		Mode:          opts.Mode,
		Boot:          opts.Boot,
		MaxGraphLines: opts.MaxGraphLines,
		Filter:        opts.Filter,
		Aliases:       opts.Aliases,
		MergeEvents:   opts.MergeEvents,
		Verbose:       opts.Verbose,
	}); err != nil {
		return CacheKey{}, err
	}
	files := fs.Digest(ids...)
	h := sha256.New()
	h.Write(files[:])
	h.Write(buf.Bytes())
	var k CacheKey
	copy(k[:], h.Sum(nil))
	return k, nil
}
