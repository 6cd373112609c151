package vfsnode

import (
	"fmt"
	"strings"
	"sync"

	"github.com/codex-vfs/vfsh/internal/remote"
)

// RemoteMount owns a remote.Client (one lazy blocking socket plus a
// connection mutex — see §5) and exposes the remote path's listing via a
// line-oriented request/response protocol.
type RemoteMount struct {
	Header
	RemoteHost string
	RemotePort int
	RemotePath string

	client *remote.Client

	mu         sync.Mutex
	cache      map[string]Node
	cacheValid bool
}

func NewRemoteMount(name, host string, port int, remotePath string) *RemoteMount {
	return &RemoteMount{
		Header:     NewHeader(name, KindMount),
		RemoteHost: host,
		RemotePort: port,
		RemotePath: remotePath,
		client:     remote.NewClient(host, port),
	}
}

func (m *RemoteMount) IsDir() bool { return true }

// Read runs "cat <remote_path>" on the remote host (mirroring the mount's
// "cat" textual projection described in §4.C).
func (m *RemoteMount) Read() (string, error) {
	out, err := m.client.Exec(fmt.Sprintf("cat %s", m.RemotePath))
	if err != nil {
		return "", err
	}
	return out, nil
}

func (m *RemoteMount) Write(s string) error {
	escaped := strings.ReplaceAll(s, "'", `'\''`)
	_, err := m.client.Exec(fmt.Sprintf("printf '%%s' '%s' > %s", escaped, m.RemotePath))
	return err
}

func (m *RemoteMount) Children() (map[string]Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cacheValid {
		if err := m.populateCacheLocked(); err != nil {
			return nil, err
		}
	}
	return m.cache, nil
}

func (m *RemoteMount) populateCacheLocked() error {
	out, err := m.client.Exec(fmt.Sprintf("ls -1 %s", m.RemotePath))
	if err != nil {
		return err
	}
	cache := make(map[string]Node)
	for _, name := range strings.Split(strings.TrimSpace(out), "\\n") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		child := NewRemoteMount(name, m.RemoteHost, m.RemotePort, m.RemotePath+"/"+name)
		child.SetParent(m)
		cache[name] = child
	}
	m.cache = cache
	m.cacheValid = true
	return nil
}

// Invalidate marks the cache stale, forcing the next Children call to
// re-list the remote directory.
func (m *RemoteMount) Invalidate() {
	m.mu.Lock()
	m.cacheValid = false
	m.mu.Unlock()
}

// Disconnect tears down the socket; the client reconnects lazily.
func (m *RemoteMount) Disconnect() {
	m.client.Disconnect()
}
