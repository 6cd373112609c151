// Package sexpast implements the S-AST node family from §3: the seven
// leaves/nodes Int, Bool, Str, Sym, If, Lambda, Call, plus the Holder
// wrapper. Construction and S-expression evaluation are a producer
// concern outside the core (§6); this package only supplies the node
// types, their deterministic dump, and their §4.F.1 binary payloads.
package sexpast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/codex-vfs/vfsh/internal/ast"
	"github.com/codex-vfs/vfsh/internal/bincodec"
	"github.com/codex-vfs/vfsh/internal/vfserr"
	"github.com/codex-vfs/vfsh/internal/vfsnode"
	"github.com/codex-vfs/vfsh/internal/vpath"
)

func init() {
	ast.Register("AstInt", decodeInt)
	ast.Register("AstBool", decodeBool)
	ast.Register("AstStr", decodeStr)
	ast.Register("AstSym", decodeSym)
	ast.Register("AstIf", decodeIf)
	ast.Register("AstLambda", decodeLambda)
	ast.Register("AstCall", decodeCall)
	ast.Register("AstHolder", decodeHolder)
}

// leaf is the shared behavior of every S-AST node: non-directory, no
// children, and a rejected write (only File/Mount/Remote/plan nodes are
// writable per §4.C).
type leaf struct {
	vfsnode.Header
}

func (l *leaf) IsDir() bool { return false }
func (l *leaf) Write(string) error {
	return fmt.Errorf("%s: %w", l.Name(), vfserr.ErrNotAFile)
}
func (l *leaf) Children() (map[string]vfsnode.Node, error) {
	return nil, fmt.Errorf("%s: %w", l.Name(), vfserr.ErrNotADir)
}

func newLeaf(name string) leaf {
	return leaf{Header: vfsnode.NewHeader(name, vfsnode.KindAst)}
}

// encodeSub/decodeSub recurse into an embedded S-AST value, used by
// AstIf/AstLambda/AstCall/AstHolder whose payloads embed other S-AST
// nodes inline rather than referencing them by path.
func encodeSub(n ast.Encodable) (string, []byte) {
	return n.TypeName(), n.EncodePayload()
}

func decodeSub(path, typeName string, payload []byte, addFixup func(ast.Fixup)) (vfsnode.Node, error) {
	fn, ok := ast.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("unknown S-AST type %q: %w", typeName, vfserr.ErrDecode)
	}
	return fn(path, payload, addFixup)
}

// --- Int ---

type Int struct {
	leaf
	Val int64
}

func NewInt(name string, val int64) *Int { return &Int{leaf: newLeaf(name), Val: val} }

func (n *Int) Read() (string, error)    { return n.Dump(0), nil }
func (n *Int) TypeName() string         { return "AstInt" }
func (n *Int) Dump(int) string          { return strconv.FormatInt(n.Val, 10) }
func (n *Int) EncodePayload() []byte    { return bincodec.NewWriter().I64(n.Val).Bytes() }

func decodeInt(path string, payload []byte, _ func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	v, err := r.I64()
	if err != nil {
		return nil, err
	}
	return NewInt(vpath.Basename(path), v), r.ExpectEOF()
}

// --- Bool ---

type Bool struct {
	leaf
	Val bool
}

func NewBool(name string, val bool) *Bool { return &Bool{leaf: newLeaf(name), Val: val} }

func (n *Bool) Read() (string, error) { return n.Dump(0), nil }
func (n *Bool) TypeName() string      { return "AstBool" }
func (n *Bool) Dump(int) string {
	if n.Val {
		return "true"
	}
	return "false"
}
func (n *Bool) EncodePayload() []byte {
	v := uint8(0)
	if n.Val {
		v = 1
	}
	return bincodec.NewWriter().U8(v).Bytes()
}

func decodeBool(path string, payload []byte, _ func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	v, err := r.U8()
	if err != nil {
		return nil, err
	}
	return NewBool(vpath.Basename(path), v != 0), r.ExpectEOF()
}

// --- Str ---

type Str struct {
	leaf
	Val string
}

func NewStr(name, val string) *Str { return &Str{leaf: newLeaf(name), Val: val} }

func (n *Str) Read() (string, error) { return n.Dump(0), nil }
func (n *Str) TypeName() string      { return "AstStr" }
func (n *Str) Dump(int) string       { return strconv.Quote(n.Val) }
func (n *Str) EncodePayload() []byte { return bincodec.NewWriter().Str(n.Val).Bytes() }

func decodeStr(path string, payload []byte, _ func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	v, err := r.Str()
	if err != nil {
		return nil, err
	}
	return NewStr(vpath.Basename(path), v), r.ExpectEOF()
}

// --- Sym ---

type Sym struct {
	leaf
	ID string
}

func NewSym(name, id string) *Sym { return &Sym{leaf: newLeaf(name), ID: id} }

func (n *Sym) Read() (string, error) { return n.Dump(0), nil }
func (n *Sym) TypeName() string      { return "AstSym" }
func (n *Sym) Dump(int) string       { return n.ID }
func (n *Sym) EncodePayload() []byte { return bincodec.NewWriter().Str(n.ID).Bytes() }

func decodeSym(path string, payload []byte, _ func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	v, err := r.Str()
	if err != nil {
		return nil, err
	}
	return NewSym(vpath.Basename(path), v), r.ExpectEOF()
}

// --- If ---

type If struct {
	leaf
	C, A, B ast.Encodable
}

func NewIf(name string, c, a, b ast.Encodable) *If {
	return &If{leaf: newLeaf(name), C: c, A: a, B: b}
}

func (n *If) Read() (string, error) { return n.Dump(0), nil }
func (n *If) TypeName() string      { return "AstIf" }
func (n *If) Dump(indent int) string {
	return fmt.Sprintf("(if %s %s %s)", n.C.Dump(indent), n.A.Dump(indent), n.B.Dump(indent))
}
func (n *If) EncodePayload() []byte {
	w := bincodec.NewWriter()
	for _, child := range []ast.Encodable{n.C, n.A, n.B} {
		t, p := encodeSub(child)
		w.Str(t).Str(string(p))
	}
	return w.Bytes()
}

func decodeIf(path string, payload []byte, addFixup func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	children := make([]ast.Encodable, 3)
	for i, sub := range []string{"c", "a", "b"} {
		t, err := r.Str()
		if err != nil {
			return nil, err
		}
		p, err := r.Str()
		if err != nil {
			return nil, err
		}
		node, err := decodeSub(path+"/"+sub, t, []byte(p), addFixup)
		if err != nil {
			return nil, err
		}
		enc, ok := node.(ast.Encodable)
		if !ok {
			return nil, fmt.Errorf("%s: not an S-AST node: %w", t, vfserr.ErrDecode)
		}
		children[i] = enc
	}
	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}
	return NewIf(vpath.Basename(path), children[0], children[1], children[2]), nil
}

// --- Lambda ---

type Lambda struct {
	leaf
	Params []string
	Body   ast.Encodable
}

func NewLambda(name string, params []string, body ast.Encodable) *Lambda {
	return &Lambda{leaf: newLeaf(name), Params: params, Body: body}
}

func (n *Lambda) Read() (string, error) { return n.Dump(0), nil }
func (n *Lambda) TypeName() string      { return "AstLambda" }
func (n *Lambda) Dump(indent int) string {
	return fmt.Sprintf("(lambda (%s) %s)", strings.Join(n.Params, " "), n.Body.Dump(indent))
}
func (n *Lambda) EncodePayload() []byte {
	w := bincodec.NewWriter().U32(uint32(len(n.Params)))
	for _, p := range n.Params {
		w.Str(p)
	}
	t, p := encodeSub(n.Body)
	w.Str(t).Str(string(p))
	return w.Bytes()
}

func decodeLambda(path string, payload []byte, addFixup func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	params := make([]string, count)
	for i := range params {
		params[i], err = r.Str()
		if err != nil {
			return nil, err
		}
	}
	bodyType, err := r.Str()
	if err != nil {
		return nil, err
	}
	bodyPayload, err := r.Str()
	if err != nil {
		return nil, err
	}
	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}
	bodyNode, err := decodeSub(path+"/body", bodyType, []byte(bodyPayload), addFixup)
	if err != nil {
		return nil, err
	}
	body, ok := bodyNode.(ast.Encodable)
	if !ok {
		return nil, fmt.Errorf("%s: not an S-AST node: %w", bodyType, vfserr.ErrDecode)
	}
	return NewLambda(vpath.Basename(path), params, body), nil
}

// --- Call ---

type Call struct {
	leaf
	Fn   ast.Encodable
	Args []ast.Encodable
}

func NewCall(name string, fn ast.Encodable, args []ast.Encodable) *Call {
	return &Call{leaf: newLeaf(name), Fn: fn, Args: args}
}

func (n *Call) Read() (string, error) { return n.Dump(0), nil }
func (n *Call) TypeName() string      { return "AstCall" }
func (n *Call) Dump(indent int) string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.Dump(indent)
	}
	return fmt.Sprintf("(%s %s)", n.Fn.Dump(indent), strings.Join(parts, " "))
}
func (n *Call) EncodePayload() []byte {
	w := bincodec.NewWriter()
	t, p := encodeSub(n.Fn)
	w.Str(t).Str(string(p))
	w.U32(uint32(len(n.Args)))
	for _, a := range n.Args {
		at, ap := encodeSub(a)
		w.Str(at).Str(string(ap))
	}
	return w.Bytes()
}

func decodeCall(path string, payload []byte, addFixup func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	fnType, err := r.Str()
	if err != nil {
		return nil, err
	}
	fnPayload, err := r.Str()
	if err != nil {
		return nil, err
	}
	fnNode, err := decodeSub(path+"/fn", fnType, []byte(fnPayload), addFixup)
	if err != nil {
		return nil, err
	}
	fn, ok := fnNode.(ast.Encodable)
	if !ok {
		return nil, fmt.Errorf("%s: not an S-AST node: %w", fnType, vfserr.ErrDecode)
	}
	argc, err := r.U32()
	if err != nil {
		return nil, err
	}
	args := make([]ast.Encodable, argc)
	for i := range args {
		at, err := r.Str()
		if err != nil {
			return nil, err
		}
		ap, err := r.Str()
		if err != nil {
			return nil, err
		}
		argNode, err := decodeSub(fmt.Sprintf("%s/arg%d", path, i), at, []byte(ap), addFixup)
		if err != nil {
			return nil, err
		}
		enc, ok := argNode.(ast.Encodable)
		if !ok {
			return nil, fmt.Errorf("%s: not an S-AST node: %w", at, vfserr.ErrDecode)
		}
		args[i] = enc
	}
	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}
	return NewCall(vpath.Basename(path), fn, args), nil
}

// --- Holder ---

type Holder struct {
	leaf
	Inner ast.Encodable
}

func NewHolder(name string, inner ast.Encodable) *Holder {
	return &Holder{leaf: newLeaf(name), Inner: inner}
}

func (n *Holder) Read() (string, error)     { return n.Dump(0), nil }
func (n *Holder) TypeName() string          { return "AstHolder" }
func (n *Holder) Dump(indent int) string    { return n.Inner.Dump(indent) }
func (n *Holder) EncodePayload() []byte {
	w := bincodec.NewWriter()
	t, p := encodeSub(n.Inner)
	w.Str(t).Str(string(p))
	return w.Bytes()
}

func decodeHolder(path string, payload []byte, addFixup func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	t, err := r.Str()
	if err != nil {
		return nil, err
	}
	p, err := r.Str()
	if err != nil {
		return nil, err
	}
	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}
	innerNode, err := decodeSub(path+"/inner", t, []byte(p), addFixup)
	if err != nil {
		return nil, err
	}
	inner, ok := innerNode.(ast.Encodable)
	if !ok {
		return nil, fmt.Errorf("%s: not an S-AST type: %w", t, vfserr.ErrDecode)
	}
	return NewHolder(vpath.Basename(path), inner), nil
}
