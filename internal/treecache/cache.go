// Package treecache caches parsed tree-sitter syntax trees keyed by
// absolute file path, so the reference detector and planner don't
// re-parse the same file repeatedly within one planning pass.
//
// It's a map + container/list LRU with functional-options configuration,
// refcounted entries, and hit/miss statistics — the same shape as a
// whole-project dependency-graph cache, adapted here to cache one
// parsed file's tree instead.
package treecache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
)

// Default tuning.
const (
	DefaultMaxEntries = 512
	DefaultMaxAge     = 10 * time.Minute
)

// Entry is a cached parse result for one file.
type Entry struct {
	Path      string
	Tree      *sitter.Tree
	Source    []byte
	ModTime   time.Time
	cachedAt  time.Time
	refCount  int32
	stale     atomic.Bool
}

// Release must be called once the caller is done reading an Entry
// returned by Get or GetOrBuild.
type Release func()

// BuildFunc parses path and returns the resulting tree and source bytes.
type BuildFunc func() (*sitter.Tree, []byte, error)

// Stats reports cumulative cache activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// Options configures a Cache.
type Options struct {
	MaxEntries int
	MaxAge     time.Duration
}

// Option mutates Options; invalid values are ignored rather than
// erroring.
type Option func(*Options)

// WithMaxEntries bounds how many parsed trees are held at once.
func WithMaxEntries(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxEntries = n
		}
	}
}

// WithMaxAge bounds how long an entry is trusted before it's treated as
// a miss even without an explicit invalidation.
func WithMaxAge(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.MaxAge = d
		}
	}
}

type element struct {
	path  string
	entry *Entry
}

// Cache is a bounded, LRU-evicted, concurrency-safe syntax tree cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List
	options Options
	hits    atomic.Int64
	misses  atomic.Int64
	evicts  atomic.Int64
}

// New constructs a Cache with the given options applied over defaults.
func New(opts ...Option) *Cache {
	options := Options{MaxEntries: DefaultMaxEntries, MaxAge: DefaultMaxAge}
	for _, opt := range opts {
		opt(&options)
	}
	return &Cache{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		options: options,
	}
}

// Get returns the cached entry for path if present, fresh, and not
// marked stale, bumping its LRU position. The caller must call the
// returned Release when finished.
func (c *Cache) Get(path string) (*Entry, Release, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[path]
	if !ok {
		c.misses.Add(1)
		return nil, nil, false
	}
	entry := el.Value.(*element).entry
	if entry.stale.Load() || c.expired(entry) {
		c.removeLocked(el)
		c.misses.Add(1)
		return nil, nil, false
	}

	c.lru.MoveToFront(el)
	atomic.AddInt32(&entry.refCount, 1)
	c.hits.Add(1)
	return entry, c.releaseFunc(entry), true
}

// GetOrBuild returns the cached entry for path, building and storing it
// via build on a miss.
func (c *Cache) GetOrBuild(path string, modTime time.Time, build BuildFunc) (*Entry, Release, error) {
	if entry, release, ok := c.Get(path); ok {
		return entry, release, nil
	}

	tree, source, err := build()
	if err != nil {
		return nil, nil, err
	}

	entry := &Entry{Path: path, Tree: tree, Source: source, ModTime: modTime, cachedAt: now()}
	c.store(path, entry)
	atomic.AddInt32(&entry.refCount, 1)
	return entry, c.releaseFunc(entry), nil
}

func (c *Cache) store(path string, entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[path]; ok {
		c.removeLocked(existing)
	}

	el := c.lru.PushFront(&element{path: path, entry: entry})
	c.entries[path] = el

	for c.lru.Len() > c.options.MaxEntries {
		back := c.lru.Back()
		if back == nil {
			break
		}
		c.removeLocked(back)
		c.evicts.Add(1)
	}
}

// Invalidate marks path's entry stale, so the next Get/GetOrBuild treats
// it as a miss. Called both by the executor's post-write invalidation
// and by the fsnotify-driven Watcher (watcher.go).
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[path]; ok {
		el.Value.(*element).entry.stale.Store(true)
	}
}

// Stats returns a snapshot of cumulative cache counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Evictions: c.evicts.Load()}
}

func (c *Cache) expired(entry *Entry) bool {
	if c.options.MaxAge <= 0 {
		return false
	}
	return now().Sub(entry.cachedAt) > c.options.MaxAge
}

func (c *Cache) removeLocked(el *list.Element) {
	ent := el.Value.(*element)
	delete(c.entries, ent.path)
	c.lru.Remove(el)
}

func (c *Cache) releaseFunc(entry *Entry) Release {
	var once sync.Once
	return func() {
		once.Do(func() {
			atomic.AddInt32(&entry.refCount, -1)
		})
	}
}

// now is a seam so tests can be written deterministically without
// depending on wall-clock timing for expiry assertions.
var now = time.Now
