package vfsnode

import (
	"fmt"
	"plugin"
	"reflect"

	"github.com/codex-vfs/vfsh/internal/vfserr"
)

// LibraryMount owns a handle obtained from the host's dynamic linker and
// exposes a directory-like listing of discovered symbols.
//
// Go's plugin package (the idiomatic Linux binding for dlopen/dlsym — no
// ecosystem library in the retrieval pack wraps this OS facility, see
// DESIGN.md) has no ELF-symbol-table enumeration API the way dlopen+dlsym
// does in the original: a plugin.Plugin can only Lookup a symbol whose name
// is already known. LibraryMount is therefore constructed with the set of
// symbol names to probe for; symbols that resolve become children.
type LibraryMount struct {
	Header
	LibPath string
	handle  *plugin.Plugin
	symbols map[string]Node
}

// NewLibraryMount opens libPath and attempts to resolve each of
// candidateSymbols into a LibrarySymbol child. Resolution failures for
// individual names are silently skipped (they simply don't appear as
// children); opening the library itself failing is a DlError.
func NewLibraryMount(name, libPath string, candidateSymbols []string) (*LibraryMount, error) {
	p, err := plugin.Open(libPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", libPath, vfserr.ErrDl, err)
	}
	m := &LibraryMount{
		Header:  NewHeader(name, KindLibrary),
		LibPath: libPath,
		handle:  p,
		symbols: make(map[string]Node),
	}
	for _, sym := range candidateSymbols {
		v, err := p.Lookup(sym)
		if err != nil {
			continue
		}
		sig := reflect.TypeOf(v).String()
		child := NewLibrarySymbol(sym, v, sig)
		child.SetParent(m)
		m.symbols[sym] = child
	}
	return m, nil
}

func (m *LibraryMount) IsDir() bool { return true }

func (m *LibraryMount) Read() (string, error) {
	return fmt.Sprintf("library %s (%d symbols)", m.LibPath, len(m.symbols)), nil
}

func (m *LibraryMount) Write(string) error {
	return fmt.Errorf("%s: %w", m.name, vfserr.ErrNotAFile)
}

func (m *LibraryMount) Children() (map[string]Node, error) {
	return m.symbols, nil
}

// LibrarySymbol carries a resolved symbol value and the signature
// string read as its content.
type LibrarySymbol struct {
	Header
	FuncPtr   any
	Signature string
}

func NewLibrarySymbol(name string, ptr any, sig string) *LibrarySymbol {
	return &LibrarySymbol{Header: NewHeader(name, KindLibrary), FuncPtr: ptr, Signature: sig}
}

func (s *LibrarySymbol) IsDir() bool { return false }

func (s *LibrarySymbol) Read() (string, error) { return s.Signature, nil }

func (s *LibrarySymbol) Write(string) error {
	return fmt.Errorf("%s: %w", s.name, vfserr.ErrNotAFile)
}

func (s *LibrarySymbol) Children() (map[string]Node, error) {
	return nil, fmt.Errorf("%s: %w", s.name, vfserr.ErrNotADir)
}
