// Package ast defines the shared contract AST node packages (sexpast,
// cppast, planast) implement so the snapshot codec (component F) can
// serialize and deserialize them without importing their concrete types —
// implementing component 3, the typed-AST serialization protocol.
package ast

import "github.com/codex-vfs/vfsh/internal/vfsnode"

// Encodable is a vfsnode.Node that additionally knows its own snapshot
// type name, can dump deterministic source text, and can encode its own
// binary payload per §4.F.1. Every concrete AST node type implements this.
type Encodable interface {
	vfsnode.Node
	TypeName() string
	Dump(indent int) string
	EncodePayload() []byte
}

// Fixup is a deferred linking step run after an entire snapshot has been
// loaded, resolving a by-path reference captured during decode (§4.F,
// §9 Design Notes).
type Fixup func(byPath map[string]vfsnode.Node) error

// DecodeFunc decodes one AST record's binary payload. path is the
// record's full VFS path (fixups close over it); addFixup registers a
// deferred link to run once every record in the snapshot has been loaded.
type DecodeFunc func(path string, payload []byte, addFixup func(Fixup)) (vfsnode.Node, error)

var registry = make(map[string]DecodeFunc)

// Register associates an AST type name (matching §3's naming, e.g.
// "AstInt", "CppFunction", "PlanJobs") with its decoder. Called from each
// AST package's init().
func Register(typeName string, fn DecodeFunc) {
	registry[typeName] = fn
}

// Lookup returns the decoder for typeName, if any is registered.
func Lookup(typeName string) (DecodeFunc, bool) {
	fn, ok := registry[typeName]
	return fn, ok
}
