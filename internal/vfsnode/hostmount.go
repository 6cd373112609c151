package vfsnode

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/codex-vfs/vfsh/internal/vfserr"
)

// HostMount projects a host filesystem directory into the VFS. Its child
// cache is non-authoritative: it is populated lazily and rebuilt either on
// demand or when an fsnotify watch observes the host side changing,
// throttled by a rate.Limiter so a noisy host directory cannot thrash the
// rebuild (the same meter shape the teacher uses for bandwidth limiting).
type HostMount struct {
	Header
	HostPath string

	mu       sync.Mutex
	cache    map[string]Node
	populated bool
	dirty    bool
	limiter  *rate.Limiter
	watcher  *fsnotify.Watcher
}

// NewHostMount constructs a mount rooted at hostPath. It attempts to start
// an fsnotify watch on hostPath; failure to watch (e.g. path doesn't exist
// yet) is non-fatal, mirroring the spec's "cache... may be rebuilt on
// demand" fallback.
func NewHostMount(name, hostPath string) *HostMount {
	m := &HostMount{
		Header:   NewHeader(name, KindMount),
		HostPath: hostPath,
		limiter:  rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
	if w, err := fsnotify.NewWatcher(); err == nil {
		if err := w.Add(hostPath); err == nil {
			m.watcher = w
			go m.watchLoop()
		} else {
			w.Close()
		}
	}
	return m
}

func (m *HostMount) watchLoop() {
	for {
		select {
		case _, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.mu.Lock()
			m.dirty = true
			m.mu.Unlock()
		case _, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the background watch, if any. Safe to call more than once.
func (m *HostMount) Close() error {
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}

func (m *HostMount) IsDir() bool { return true }

func (m *HostMount) Read() (string, error) {
	info, err := os.Stat(m.HostPath)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", m.HostPath, vfserr.ErrIO)
	}
	if info.IsDir() {
		return fmt.Sprintf("hostmount %s -> %s", m.name, m.HostPath), nil
	}
	data, err := os.ReadFile(m.HostPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", m.HostPath, vfserr.ErrIO)
	}
	return string(data), nil
}

func (m *HostMount) Write(s string) error {
	info, err := os.Stat(m.HostPath)
	if err == nil && info.IsDir() {
		return fmt.Errorf("%s: %w", m.HostPath, vfserr.ErrNotAFile)
	}
	if err := os.WriteFile(m.HostPath, []byte(s), 0644); err != nil {
		return fmt.Errorf("write %s: %w", m.HostPath, vfserr.ErrIO)
	}
	return nil
}

func (m *HostMount) Children() (map[string]Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.populated || m.dirty {
		if m.populated && !m.limiter.Allow() {
			// Throttled: serve the stale cache rather than rebuild.
			return m.cache, nil
		}
		if err := m.populateCacheLocked(); err != nil {
			return nil, err
		}
	}
	return m.cache, nil
}

func (m *HostMount) populateCacheLocked() error {
	entries, err := os.ReadDir(m.HostPath)
	if err != nil {
		return fmt.Errorf("readdir %s: %w", m.HostPath, vfserr.ErrIO)
	}
	cache := make(map[string]Node, len(entries))
	for _, e := range entries {
		child := NewHostMount(e.Name(), filepath.Join(m.HostPath, e.Name()))
		child.SetParent(m)
		cache[e.Name()] = child
	}
	m.cache = cache
	m.populated = true
	m.dirty = false
	return nil
}

// Rebuild forces an immediate cache refresh, bypassing the throttle.
func (m *HostMount) Rebuild() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.populateCacheLocked()
}
