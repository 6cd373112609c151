package snapshot

// Blank-importing these three registers their ast.Decode funcs with the
// package-level registry (internal/ast) via init(). Without this, the
// binary can still encode A records (the writer only needs ast.Encodable) but
// Load fails every one with "unknown AST type" the moment it tries to
// decode, since nothing in the call chain from cmd/vfsh down ever
// otherwise references these packages.
import (
	_ "github.com/codex-vfs/vfsh/internal/cppast"
	_ "github.com/codex-vfs/vfsh/internal/planast"
	_ "github.com/codex-vfs/vfsh/internal/sexpast"
)
