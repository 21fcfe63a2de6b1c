// Package lockmgr provides per-path reader/writer locks keyed by
// canonical absolute path. Concurrent callers for the same path see the
// same lock; there is no upgrade from a read lock to a write lock.
//
// Fairness is writer-preferring: once a writer is waiting for a path, new
// readers for that path queue behind it, so a long reader stream cannot
// starve an in-progress plan application.
package lockmgr

import (
	"sync"

	"github.com/forgeweave/refactorcore/internal/pathresolver"
)

// Handle is a writer-preferring reader/writer lock for one path.
type Handle struct {
	mu            sync.Mutex
	cond          *sync.Cond
	readers       int
	writerActive  bool
	writersQueued int
}

func newHandle() *Handle {
	h := &Handle{}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// RLock acquires a shared (reader) lock, blocking while a writer holds or
// is queued for the lock.
func (h *Handle) RLock() {
	h.mu.Lock()
	for h.writerActive || h.writersQueued > 0 {
		h.cond.Wait()
	}
	h.readers++
	h.mu.Unlock()
}

// RUnlock releases a shared lock previously acquired with RLock.
func (h *Handle) RUnlock() {
	h.mu.Lock()
	h.readers--
	if h.readers < 0 {
		panic("lockmgr: RUnlock without matching RLock")
	}
	if h.readers == 0 {
		h.cond.Broadcast()
	}
	h.mu.Unlock()
}

// Lock acquires an exclusive (writer) lock, blocking until no readers or
// writer hold the lock. Registers writer intent immediately so that
// readers arriving after this call queue behind it.
func (h *Handle) Lock() {
	h.mu.Lock()
	h.writersQueued++
	for h.writerActive || h.readers > 0 {
		h.cond.Wait()
	}
	h.writersQueued--
	h.writerActive = true
	h.mu.Unlock()
}

// Unlock releases an exclusive lock previously acquired with Lock.
func (h *Handle) Unlock() {
	h.mu.Lock()
	if !h.writerActive {
		panic("lockmgr: Unlock without matching Lock")
	}
	h.writerActive = false
	h.cond.Broadcast()
	h.mu.Unlock()
}

// Manager hands out Handles keyed by canonical absolute path.
type Manager struct {
	mu    sync.Mutex
	locks map[pathresolver.AbsolutePath]*Handle
}

// New creates an empty lock manager.
func New() *Manager {
	return &Manager{locks: make(map[pathresolver.AbsolutePath]*Handle)}
}

// GetLock returns the Handle for path, creating it on first use. All
// callers for the same path observe the same Handle.
func (m *Manager) GetLock(path pathresolver.AbsolutePath) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.locks[path]
	if !ok {
		h = newHandle()
		m.locks[path] = h
	}
	return h
}
