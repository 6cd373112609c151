package vfs

import (
	"fmt"
	"strings"

	"github.com/codex-vfs/vfsh/internal/journal"
	"github.com/codex-vfs/vfsh/internal/vfserr"
	"github.com/codex-vfs/vfsh/internal/vfsnode"
	"github.com/codex-vfs/vfsh/internal/vpath"
)

// MountKind discriminates MountInfo.Type (§3).
type MountKind int

const (
	MountFilesystem MountKind = iota
	MountLibrary
	MountRemote
)

// MountInfo records one active mount (§3).
type MountInfo struct {
	VfsPath  string
	HostPath string
	Type     MountKind
	Node     vfsnode.Node
}

func (v *Vfs) findMount(vfsPath string) (int, bool) {
	for i, m := range v.Mounts {
		if m.VfsPath == vfsPath {
			return i, true
		}
	}
	return 0, false
}

func (v *Vfs) checkMountPreconditions(vfsPath string) error {
	if !v.MountAllowed {
		return fmt.Errorf("mounting %s: %w", vfsPath, vfserr.ErrMountDenied)
	}
	if _, ok := v.findMount(vfsPath); ok {
		return fmt.Errorf("%s already mounted: %w", vfsPath, vfserr.ErrMountBusy)
	}
	return nil
}

// attachAt mounts node into overlay 0 at vfsPath, creating ancestor
// directories as needed.
func (v *Vfs) attachAt(vfsPath string, node vfsnode.Node) error {
	parentPath := vpath.Dirname(vfsPath)
	name := vpath.Basename(vfsPath)
	if parentPath != vfsPath {
		if err := v.Mkdir(parentPath, 0); err != nil {
			return err
		}
	}
	root, err := v.Overlays.OverlayRoot(0)
	if err != nil {
		return err
	}
	parent, err := v.resolveDirForOverlay(root, parentPath)
	if err != nil {
		return err
	}
	parent.Put(name, node)
	return v.Overlays.MarkOverlayDirty(0)
}

// MountFilesystem projects a host directory into overlay 0 at vfsPath
// (§4.E).
func (v *Vfs) MountFilesystem(vfsPath, hostPath string) error {
	if err := v.checkMountPreconditions(vfsPath); err != nil {
		return err
	}
	node := vfsnode.NewHostMount(vpath.Basename(vfsPath), hostPath)
	if err := v.attachAt(vfsPath, node); err != nil {
		return err
	}
	v.Mounts = append(v.Mounts, MountInfo{VfsPath: vfsPath, HostPath: hostPath, Type: MountFilesystem, Node: node})
	v.recordJournal(journal.EventMount, nil, fmt.Sprintf("filesystem %s -> %s", vfsPath, hostPath))
	return nil
}

// MountLibrary loads a dynamic library via the host linker binding and
// mounts its discovered symbols at vfsPath (§4.E, §3 LibraryMount).
func (v *Vfs) MountLibrary(vfsPath, libPath string, candidateSymbols []string) error {
	if err := v.checkMountPreconditions(vfsPath); err != nil {
		return err
	}
	node, err := vfsnode.NewLibraryMount(vpath.Basename(vfsPath), libPath, candidateSymbols)
	if err != nil {
		return fmt.Errorf("mounting library %s: %w", libPath, vfserr.ErrDl)
	}
	if err := v.attachAt(vfsPath, node); err != nil {
		return err
	}
	v.Mounts = append(v.Mounts, MountInfo{VfsPath: vfsPath, HostPath: libPath, Type: MountLibrary, Node: node})
	v.recordJournal(journal.EventMount, nil, fmt.Sprintf("library %s -> %s", vfsPath, libPath))
	return nil
}

// MountRemote registers a RemoteMount at vfsPath backed by host:port and
// the given remote-side path (§4.E, §6).
func (v *Vfs) MountRemote(vfsPath, host string, port int, remotePath string) error {
	if err := v.checkMountPreconditions(vfsPath); err != nil {
		return err
	}
	node := vfsnode.NewRemoteMount(vpath.Basename(vfsPath), host, port, remotePath)
	if err := v.attachAt(vfsPath, node); err != nil {
		return err
	}
	v.Mounts = append(v.Mounts, MountInfo{VfsPath: vfsPath, HostPath: fmt.Sprintf("%s:%d%s", host, port, remotePath), Type: MountRemote, Node: node})
	v.recordJournal(journal.EventMount, nil, fmt.Sprintf("remote %s -> %s:%d%s", vfsPath, host, port, remotePath))
	return nil
}

// Unmount removes the mount registered at vfsPath and unlinks its node
// from overlay 0 (§4.E).
func (v *Vfs) Unmount(vfsPath string) error {
	idx, ok := v.findMount(vfsPath)
	if !ok {
		return fmt.Errorf("%s: %w", vfsPath, vfserr.ErrNotFound)
	}
	root, err := v.Overlays.OverlayRoot(0)
	if err != nil {
		return err
	}
	parentPath := vpath.Dirname(vfsPath)
	name := vpath.Basename(vfsPath)
	parent, err := v.resolveDirForOverlay(root, parentPath)
	if err == nil {
		parent.Remove(name)
	}
	v.Mounts = append(v.Mounts[:idx], v.Mounts[idx+1:]...)
	v.recordJournal(journal.EventUnmount, nil, vfsPath)
	return v.Overlays.MarkOverlayDirty(0)
}

// MapToHostPath performs longest-prefix matching over filesystem mounts
// only; pure, no traversal side effects (§4.E).
func (v *Vfs) MapToHostPath(vfsPath string) (string, bool) {
	best := ""
	var bestMount *MountInfo
	for i := range v.Mounts {
		m := &v.Mounts[i]
		if m.Type != MountFilesystem {
			continue
		}
		if m.VfsPath == vfsPath || strings.HasPrefix(vfsPath, m.VfsPath+"/") {
			if len(m.VfsPath) > len(best) {
				best = m.VfsPath
				bestMount = m
			}
		}
	}
	if bestMount == nil {
		return "", false
	}
	rest := strings.TrimPrefix(vfsPath, bestMount.VfsPath)
	return bestMount.HostPath + rest, true
}

// MapFromHostPath is MapToHostPath's inverse over filesystem mounts.
func (v *Vfs) MapFromHostPath(hostPath string) (string, bool) {
	best := ""
	var bestMount *MountInfo
	for i := range v.Mounts {
		m := &v.Mounts[i]
		if m.Type != MountFilesystem {
			continue
		}
		if hostPath == m.HostPath || strings.HasPrefix(hostPath, m.HostPath+"/") {
			if len(m.HostPath) > len(best) {
				best = m.HostPath
				bestMount = m
			}
		}
	}
	if bestMount == nil {
		return "", false
	}
	rest := strings.TrimPrefix(hostPath, bestMount.HostPath)
	return bestMount.VfsPath + rest, true
}
