// Package refdetect implements the reference detector: given a rename
// (old path, new path), it returns every file in the workspace whose
// content needs rewriting as a consequence.
//
// The per-file parse cache is backed by an in-memory badger/v4
// instance, using only badger's own documented API. Badger gives the
// cache real bounded growth and per-entry TTL instead of a hand-rolled
// LRU, while never touching disk
// (`badger.DefaultOptions("").WithInMemory(true)`), so this component
// keeps no persisted state.
package refdetect

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DefaultEntryTTL bounds how long a cached parse stays in the cache;
// every lookup still compares the stored mtime with the file's current
// one.
const DefaultEntryTTL = 30 * time.Minute

// cacheEntry is what's stored per file: the resolved import targets
// found by the owning plugin's ImportTargetLister, alongside the mtime
// they were computed from.
type cacheEntry struct {
	ModTime int64    `json:"mtime"`
	Targets []string `json:"targets"`
}

// importCache is the (file, mtime) -> resolved-import-targets cache
// used by the generic path-based fallback. A miss includes both "never
// scanned" and "mtime changed since last scan"; either way the caller
// re-parses and overwrites the entry.
type importCache struct {
	db  *badger.DB
	ttl time.Duration
}

func newImportCache(ttl time.Duration) (*importCache, error) {
	if ttl <= 0 {
		ttl = DefaultEntryTTL
	}
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("refdetect: opening in-memory cache: %w", err)
	}
	return &importCache{db: db, ttl: ttl}, nil
}

func (c *importCache) Close() error {
	return c.db.Close()
}

// get returns the cached import targets for path if present and its
// stored mtime still matches modTime; a mismatch or absence is a miss,
// not an error.
func (c *importCache) get(path string, modTime time.Time) ([]string, bool) {
	var entry cacheEntry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, false
	}
	if entry.ModTime != modTime.UnixNano() {
		return nil, false
	}
	return entry.Targets, true
}

// put stores (overwriting any prior entry) the resolved import targets
// for path at modTime, refreshing the entry's TTL.
func (c *importCache) put(path string, modTime time.Time, targets []string) {
	raw, err := json.Marshal(cacheEntry{ModTime: modTime.UnixNano(), Targets: targets})
	if err != nil {
		return
	}
	_ = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(path), raw).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
}
