// Package vfs implements component E: the façade every producer (shell
// commands, parsers, the context builder, the logic engine's rule
// persistence) goes through to resolve, mutate, and enumerate the layered
// VFS.
package vfs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codex-vfs/vfsh/internal/journal"
	"github.com/codex-vfs/vfsh/internal/logger"
	"github.com/codex-vfs/vfsh/internal/logic"
	"github.com/codex-vfs/vfsh/internal/overlay"
	"github.com/codex-vfs/vfsh/internal/tags"
	"github.com/codex-vfs/vfsh/internal/vfserr"
	"github.com/codex-vfs/vfsh/internal/vfsnode"
	"github.com/codex-vfs/vfsh/internal/vpath"
	"github.com/codex-vfs/vfsh/internal/workdir"
)

// Vfs is the §3 façade record.
type Vfs struct {
	Overlays     *overlay.Store
	Mounts       []MountInfo
	MountAllowed bool

	TagRegistry *tags.Registry
	TagStorage  *tags.Storage
	LogicEngine *logic.Engine

	Workdir *workdir.WorkingDirectory

	// Journal, when set, records mount/unmount and rule-persistence
	// events for audit purposes. Nil is a valid, fully functional zero
	// value.
	Journal *journal.Store
}

func New(conflictPolicy workdir.ConflictPolicy, mountAllowed bool) *Vfs {
	registry := tags.NewRegistry()
	return &Vfs{
		Overlays:     overlay.NewStore(),
		MountAllowed: mountAllowed,
		TagRegistry:  registry,
		TagStorage:   tags.NewStorage(),
		LogicEngine:  logic.NewEngine(registry),
		Workdir:      workdir.New(conflictPolicy),
	}
}

// ResolveForOverlay walks overlays[id].root component by component,
// failing NotFound at the first missing component or NotADir at the
// first non-directory intermediate (§4.E).
func (v *Vfs) ResolveForOverlay(path string, id int) (vfsnode.Node, error) {
	root, err := v.Overlays.OverlayRoot(id)
	if err != nil {
		return nil, err
	}
	parts, err := vpath.Split(path)
	if err != nil {
		return nil, err
	}
	var cur vfsnode.Node = root
	for _, part := range parts {
		if !cur.IsDir() {
			return nil, fmt.Errorf("%s: %w", path, vfserr.ErrNotADir)
		}
		children, err := cur.Children()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, vfserr.ErrNotADir)
		}
		child, ok := children[part]
		if !ok {
			return nil, fmt.Errorf("%s: component %q: %w", path, part, vfserr.ErrNotFound)
		}
		cur = child
	}
	return cur, nil
}

// ResolvedNode pairs a node with the overlay id it was found in.
type ResolvedNode struct {
	OverlayID int
	Node      vfsnode.Node
}

// ResolveMulti returns every overlay that hosts path, in ascending id
// order (§4.E).
func (v *Vfs) ResolveMulti(path string) []ResolvedNode {
	var out []ResolvedNode
	for id := 0; id < v.Overlays.Count(); id++ {
		node, err := v.ResolveForOverlay(path, id)
		if err == nil {
			out = append(out, ResolvedNode{OverlayID: id, Node: node})
		}
	}
	return out
}

// OverlaysForPath is the non-throwing id-only projection of ResolveMulti.
func (v *Vfs) OverlaysForPath(path string) []int {
	resolved := v.ResolveMulti(path)
	ids := make([]int, len(resolved))
	for i, r := range resolved {
		ids[i] = r.OverlayID
	}
	return ids
}

// Resolve arbitrates across overlays hosting path via the current
// WorkingDirectory conflict policy (§4.E, §4.M). It also refreshes the
// WorkingDirectory's context when path matches its tracked path.
func (v *Vfs) Resolve(path string) (vfsnode.Node, error) {
	resolved := v.ResolveMulti(path)
	if len(resolved) == 0 {
		return nil, fmt.Errorf("%s: %w", path, vfserr.ErrNotFound)
	}
	ids := make([]int, len(resolved))
	for i, r := range resolved {
		ids[i] = r.OverlayID
	}
	id, err := v.Workdir.SelectOverlay(ids)
	if err != nil {
		return nil, err
	}
	for _, r := range resolved {
		if r.OverlayID == id {
			return r.Node, nil
		}
	}
	return resolved[0].Node, nil
}

// Mkdir creates every missing directory along path in overlay id and
// marks it dirty. Succeeds silently if the final component already
// exists as a directory; fails ExistsAsFile if a non-directory blocks an
// intermediate (§4.E).
func (v *Vfs) Mkdir(path string, id int) error {
	root, err := v.Overlays.OverlayRoot(id)
	if err != nil {
		return err
	}
	parts, err := vpath.Split(path)
	if err != nil {
		return err
	}
	cur := root
	for _, part := range parts {
		children, _ := cur.Children()
		child, ok := children[part]
		if !ok {
			next := vfsnode.NewDir(part)
			cur.Put(part, next)
			cur = next
			continue
		}
		dir, ok := child.(*vfsnode.Dir)
		if !ok {
			return fmt.Errorf("%s: %w", path, vfserr.ErrExistsAsFile)
		}
		cur = dir
	}
	return v.Overlays.MarkOverlayDirty(id)
}

// Write creates intermediate directories, replaces or creates a file at
// the final path component in overlay id, and marks it dirty (§4.E).
func (v *Vfs) Write(path string, content []byte, id int) error {
	parentPath := vpath.Dirname(path)
	name := vpath.Basename(path)
	if parentPath != path {
		if err := v.Mkdir(parentPath, id); err != nil {
			return err
		}
	}
	root, err := v.Overlays.OverlayRoot(id)
	if err != nil {
		return err
	}
	parent, err := v.resolveDirForOverlay(root, parentPath)
	if err != nil {
		return err
	}
	children, _ := parent.Children()
	if existing, ok := children[name]; ok {
		if file, ok := existing.(*vfsnode.File); ok {
			file.Content = content
			return v.Overlays.MarkOverlayDirty(id)
		}
	}
	parent.Put(name, vfsnode.NewFile(name, content))
	return v.Overlays.MarkOverlayDirty(id)
}

func (v *Vfs) resolveDirForOverlay(root *vfsnode.Dir, path string) (*vfsnode.Dir, error) {
	if path == "/" {
		return root, nil
	}
	parts, err := vpath.Split(path)
	if err != nil {
		return nil, err
	}
	cur := root
	for _, part := range parts {
		children, _ := cur.Children()
		child, ok := children[part]
		if !ok {
			return nil, fmt.Errorf("%s: %w", path, vfserr.ErrNotFound)
		}
		dir, ok := child.(*vfsnode.Dir)
		if !ok {
			return nil, fmt.Errorf("%s: %w", path, vfserr.ErrNotADir)
		}
		cur = dir
	}
	return cur, nil
}

// Rm removes the node at path from overlay id by unlinking it from its
// parent. If no overlay still hosts path afterward, tag storage for the
// removed node is cleared (§4.E, §4.H).
func (v *Vfs) Rm(path string, id int) error {
	node, err := v.ResolveForOverlay(path, id)
	if err != nil {
		return err
	}
	root, err := v.Overlays.OverlayRoot(id)
	if err != nil {
		return err
	}
	parentPath := vpath.Dirname(path)
	name := vpath.Basename(path)
	parent, err := v.resolveDirForOverlay(root, parentPath)
	if err != nil {
		return err
	}
	parent.Remove(name)
	if err := v.Overlays.MarkOverlayDirty(id); err != nil {
		return err
	}
	if len(v.OverlaysForPath(path)) == 0 {
		v.TagStorage.ClearTags(node)
	}
	return nil
}

// ReadPath resolves path via the conflict policy and reads its textual
// projection. Convenience used by the logic engine's VFSWriter adapter
// and the context builder.
func (v *Vfs) ReadPath(path string) (string, error) {
	node, err := v.Resolve(path)
	if err != nil {
		return "", err
	}
	return node.Read()
}

// WritePath is the logic.VFSWriter-shaped entry point: write content as
// a file at path in the given overlay, creating ancestors as needed.
func (v *Vfs) WritePath(path string, content string, overlayID int) error {
	return v.Write(path, []byte(content), overlayID)
}

// recordJournal is a no-op when no Journal is attached; a journal
// failure never blocks a VFS operation.
func (v *Vfs) recordJournal(kind string, overlayID *int, detail string) {
	if v.Journal == nil {
		return
	}
	if err := v.Journal.AppendEntry(kind, overlayID, &detail); err != nil {
		logger.Warn("journal append failed", "kind", kind, "error", err)
	}
}

// Enumerate lists every path under root that resolves in overlay id,
// depth-first, lexically sorted at each level.
func (v *Vfs) Enumerate(root string, id int) ([]string, error) {
	node, err := v.ResolveForOverlay(root, id)
	if err != nil {
		return nil, err
	}
	var out []string
	var walk func(path string, n vfsnode.Node) error
	walk = func(path string, n vfsnode.Node) error {
		out = append(out, path)
		children, err := n.Children()
		if err != nil {
			return nil
		}
		names := make([]string, 0, len(children))
		for name := range children {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			childPath := path
			if !strings.HasSuffix(childPath, "/") {
				childPath += "/"
			}
			childPath += name
			if err := walk(childPath, children[name]); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, node); err != nil {
		return nil, err
	}
	return out, nil
}
