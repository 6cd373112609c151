// Package vfsnode implements component C: the polymorphic node model.
// Node is a sum type dispatched on Kind; the children mapping lives only
// in directory-like variants (Dir, and the Dir-like AST containers in
// sibling packages that embed Header and implement Node themselves).
package vfsnode

import (
	"fmt"

	"github.com/codex-vfs/vfsh/internal/vfserr"
)

// Kind is a coarse dispatch tag orthogonal to the concrete variant.
type Kind int

const (
	KindDir Kind = iota
	KindFile
	KindMount
	KindLibrary
	KindAst
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	case KindMount:
		return "mount"
	case KindLibrary:
		return "library"
	case KindAst:
		return "ast"
	default:
		return "unknown"
	}
}

// Node is the contract every VFS leaf and directory satisfies.
type Node interface {
	Name() string
	Kind() Kind
	// Parent is a diagnostic-only back-reference; it is never authoritative
	// for traversal (§9 Design Notes).
	Parent() Node
	SetParent(Node)
	IsDir() bool
	Read() (string, error)
	Write(s string) error
	// Children returns the directory's name->node mapping. It fails with
	// vfserr.ErrNotADir for leaf variants.
	Children() (map[string]Node, error)
}

// Header is the shared state every concrete node variant embeds: name,
// kind, and the weak parent back-reference.
type Header struct {
	name   string
	kind   Kind
	parent Node
}

func NewHeader(name string, kind Kind) Header {
	return Header{name: name, kind: kind}
}

func (h *Header) Name() string     { return h.name }
func (h *Header) Kind() Kind       { return h.kind }
func (h *Header) Parent() Node     { return h.parent }
func (h *Header) SetParent(p Node) { h.parent = p }

// Dir owns a mapping from component name to child node. Names are unique
// within the directory and a child's Name() always equals the key it is
// stored under (invariant 2).
type Dir struct {
	Header
	children map[string]Node
}

func NewDir(name string) *Dir {
	return &Dir{Header: NewHeader(name, KindDir), children: make(map[string]Node)}
}

func (d *Dir) IsDir() bool { return true }

func (d *Dir) Read() (string, error) {
	names := make([]string, 0, len(d.children))
	for n := range d.children {
		names = append(names, n)
	}
	return fmt.Sprintf("dir %s (%d entries)", d.name, len(names)), nil
}

func (d *Dir) Write(string) error {
	return fmt.Errorf("%s: %w", d.name, vfserr.ErrNotAFile)
}

func (d *Dir) Children() (map[string]Node, error) {
	return d.children, nil
}

// Put inserts or replaces a child, enforcing invariant 2 and setting the
// diagnostic parent back-reference.
func (d *Dir) Put(name string, n Node) {
	n.SetParent(d)
	d.children[name] = n
}

// Remove unlinks a child by name, returning it (or nil if absent).
func (d *Dir) Remove(name string) Node {
	n, ok := d.children[name]
	if !ok {
		return nil
	}
	delete(d.children, name)
	return n
}

func (d *Dir) Get(name string) (Node, bool) {
	n, ok := d.children[name]
	return n, ok
}

// File owns raw bytes.
type File struct {
	Header
	Content []byte
}

func NewFile(name string, content []byte) *File {
	return &File{Header: NewHeader(name, KindFile), Content: content}
}

func (f *File) IsDir() bool { return false }

func (f *File) Read() (string, error) {
	return string(f.Content), nil
}

func (f *File) Write(s string) error {
	f.Content = []byte(s)
	return nil
}

func (f *File) Children() (map[string]Node, error) {
	return nil, fmt.Errorf("%s: %w", f.name, vfserr.ErrNotADir)
}
