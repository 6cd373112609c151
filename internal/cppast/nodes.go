package cppast

import (
	"fmt"
	"strings"

	"github.com/codex-vfs/vfsh/internal/ast"
	"github.com/codex-vfs/vfsh/internal/bincodec"
	"github.com/codex-vfs/vfsh/internal/vfserr"
	"github.com/codex-vfs/vfsh/internal/vfsnode"
	"github.com/codex-vfs/vfsh/internal/vpath"
)

func init() {
	ast.Register("CppTranslationUnit", decodeTranslationUnit)
	ast.Register("CppFunction", decodeFunction)
	ast.Register("CppCompound", decodeCompound)
	ast.Register("CppRangeFor", decodeRangeFor)
}

func rejectWrite(name string) error {
	return fmt.Errorf("%s: %w", name, vfserr.ErrNotAFile)
}

// --- Include: a TranslationUnit's directive list entry. Not an
// independently addressable VFS node, just an inline value (§3).

type Include struct {
	Header string
	Angled bool
}

func (inc Include) dump() string {
	if inc.Angled {
		return "#include <" + inc.Header + ">"
	}
	return "#include \"" + inc.Header + "\""
}

// --- Param: a Function parameter, also an inline value.

type Param struct {
	Type, Name string
}

// --- Compound ---

// Compound is the Dir-like statement block container (§3, §4.F.1's
// CppCompound record). Its children mapping exposes only the nested
// RangeFor bodies it resolved by fixup; plain statements stay inline.
type Compound struct {
	vfsnode.Header
	Stmts []Stmt
}

func NewCompound(name string, stmts []Stmt) *Compound {
	return &Compound{Header: vfsnode.NewHeader(name, vfsnode.KindAst), Stmts: stmts}
}

func (c *Compound) IsDir() bool        { return true }
func (c *Compound) Read() (string, error) { return c.Dump(0), nil }
func (c *Compound) Write(string) error { return rejectWrite(c.Name()) }
func (c *Compound) TypeName() string   { return "CppCompound" }

func (c *Compound) Dump(indent int) string {
	lines := make([]string, 0, len(c.Stmts)+2)
	lines = append(lines, "{")
	for _, s := range c.Stmts {
		lines = append(lines, s.dump(indent+1))
	}
	lines = append(lines, strings.Repeat("    ", indent)+"}")
	return strings.Join(lines, "\n")
}

func (c *Compound) Children() (map[string]vfsnode.Node, error) {
	m := make(map[string]vfsnode.Node)
	for _, s := range c.Stmts {
		if s.Tag == stmtRangeForRef && s.RangeFor != nil {
			m[s.RangeForName] = s.RangeFor
		}
	}
	return m, nil
}

func (c *Compound) EncodePayload() []byte {
	w := bincodec.NewWriter().U32(uint32(len(c.Stmts)))
	for _, s := range c.Stmts {
		encodeStmt(w, s)
	}
	return w.Bytes()
}

func decodeCompound(path string, payload []byte, addFixup func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	stmts := make([]Stmt, n)
	for i := range stmts {
		stmts[i], err = decodeStmt(r)
		if err != nil {
			return nil, err
		}
	}
	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}
	compound := NewCompound(vpath.Basename(path), stmts)
	for i := range compound.Stmts {
		if compound.Stmts[i].Tag != stmtRangeForRef {
			continue
		}
		idx := i
		childPath := path + "/" + compound.Stmts[idx].RangeForName
		addFixup(func(byPath map[string]vfsnode.Node) error {
			node, ok := byPath[childPath]
			if !ok {
				return fmt.Errorf("%s: %w", childPath, vfserr.ErrDanglingRef)
			}
			rf, ok := node.(*RangeFor)
			if !ok {
				return fmt.Errorf("%s: not a RangeFor: %w", childPath, vfserr.ErrDecode)
			}
			compound.Stmts[idx].RangeFor = rf
			return nil
		})
	}
	return compound, nil
}

// --- Function ---

type Function struct {
	vfsnode.Header
	RetType string
	FnName  string
	Params  []Param
	Body    *Compound
}

func NewFunction(name, retType, fnName string, params []Param, body *Compound) *Function {
	return &Function{
		Header:  vfsnode.NewHeader(name, vfsnode.KindAst),
		RetType: retType,
		FnName:  fnName,
		Params:  params,
		Body:    body,
	}
}

func (f *Function) IsDir() bool          { return true }
func (f *Function) Read() (string, error) { return f.Dump(0), nil }
func (f *Function) Write(string) error    { return rejectWrite(f.Name()) }
func (f *Function) TypeName() string      { return "CppFunction" }

func (f *Function) Dump(indent int) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type + " " + p.Name
	}
	header := fmt.Sprintf("%s %s(%s) ", f.RetType, f.FnName, strings.Join(params, ", "))
	body := "{}"
	if f.Body != nil {
		body = f.Body.Dump(indent)
	}
	return header + body
}

func (f *Function) Children() (map[string]vfsnode.Node, error) {
	m := make(map[string]vfsnode.Node)
	if f.Body != nil {
		m[f.Body.Name()] = f.Body
	}
	return m, nil
}

func (f *Function) EncodePayload() []byte {
	w := bincodec.NewWriter().Str(f.RetType).Str(f.FnName).U32(uint32(len(f.Params)))
	for _, p := range f.Params {
		w.Str(p.Type).Str(p.Name)
	}
	bodyName := ""
	if f.Body != nil {
		bodyName = f.Body.Name()
	}
	w.Str(bodyName)
	return w.Bytes()
}

func decodeFunction(path string, payload []byte, addFixup func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	retType, err := r.Str()
	if err != nil {
		return nil, err
	}
	fnName, err := r.Str()
	if err != nil {
		return nil, err
	}
	pc, err := r.U32()
	if err != nil {
		return nil, err
	}
	params := make([]Param, pc)
	for i := range params {
		t, err := r.Str()
		if err != nil {
			return nil, err
		}
		n, err := r.Str()
		if err != nil {
			return nil, err
		}
		params[i] = Param{Type: t, Name: n}
	}
	bodyName, err := r.Str()
	if err != nil {
		return nil, err
	}
	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}
	fn := NewFunction(vpath.Basename(path), retType, fnName, params, nil)
	if bodyName != "" {
		childPath := path + "/" + bodyName
		addFixup(func(byPath map[string]vfsnode.Node) error {
			node, ok := byPath[childPath]
			if !ok {
				return fmt.Errorf("%s: %w", childPath, vfserr.ErrDanglingRef)
			}
			c, ok := node.(*Compound)
			if !ok {
				return fmt.Errorf("%s: not a Compound: %w", childPath, vfserr.ErrDecode)
			}
			fn.Body = c
			return nil
		})
	}
	return fn, nil
}

// --- TranslationUnit ---

type TranslationUnit struct {
	vfsnode.Header
	Includes []Include
	Funcs    []*Function
}

func NewTranslationUnit(name string, includes []Include, funcs []*Function) *TranslationUnit {
	return &TranslationUnit{Header: vfsnode.NewHeader(name, vfsnode.KindAst), Includes: includes, Funcs: funcs}
}

func (t *TranslationUnit) IsDir() bool          { return true }
func (t *TranslationUnit) Read() (string, error) { return t.Dump(0), nil }
func (t *TranslationUnit) Write(string) error    { return rejectWrite(t.Name()) }
func (t *TranslationUnit) TypeName() string      { return "CppTranslationUnit" }

func (t *TranslationUnit) Dump(indent int) string {
	var parts []string
	for _, inc := range t.Includes {
		parts = append(parts, inc.dump())
	}
	if len(t.Includes) > 0 {
		parts = append(parts, "")
	}
	for _, fn := range t.Funcs {
		if fn != nil {
			parts = append(parts, fn.Dump(indent))
		}
	}
	return strings.Join(parts, "\n")
}

func (t *TranslationUnit) Children() (map[string]vfsnode.Node, error) {
	m := make(map[string]vfsnode.Node)
	for _, fn := range t.Funcs {
		if fn != nil {
			m[fn.Name()] = fn
		}
	}
	return m, nil
}

func (t *TranslationUnit) EncodePayload() []byte {
	w := bincodec.NewWriter().U32(uint32(len(t.Includes)))
	for _, inc := range t.Includes {
		angled := uint8(0)
		if inc.Angled {
			angled = 1
		}
		w.Str(inc.Header).U8(angled)
	}
	w.U32(uint32(len(t.Funcs)))
	for _, fn := range t.Funcs {
		name := ""
		if fn != nil {
			name = fn.Name()
		}
		w.Str(name)
	}
	return w.Bytes()
}

func decodeTranslationUnit(path string, payload []byte, addFixup func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	ic, err := r.U32()
	if err != nil {
		return nil, err
	}
	includes := make([]Include, ic)
	for i := range includes {
		header, err := r.Str()
		if err != nil {
			return nil, err
		}
		angled, err := r.U8()
		if err != nil {
			return nil, err
		}
		includes[i] = Include{Header: header, Angled: angled != 0}
	}
	fc, err := r.U32()
	if err != nil {
		return nil, err
	}
	funcNames := make([]string, fc)
	for i := range funcNames {
		funcNames[i], err = r.Str()
		if err != nil {
			return nil, err
		}
	}
	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}
	tu := NewTranslationUnit(vpath.Basename(path), includes, make([]*Function, fc))
	for i, name := range funcNames {
		idx := i
		childPath := path + "/" + name
		addFixup(func(byPath map[string]vfsnode.Node) error {
			node, ok := byPath[childPath]
			if !ok {
				return fmt.Errorf("%s: %w", childPath, vfserr.ErrDanglingRef)
			}
			fn, ok := node.(*Function)
			if !ok {
				return fmt.Errorf("%s: not a Function: %w", childPath, vfserr.ErrDecode)
			}
			tu.Funcs[idx] = fn
			return nil
		})
	}
	return tu, nil
}

// --- RangeFor ---

type RangeFor struct {
	vfsnode.Header
	Decl, Range string
	Body        *Compound
}

func NewRangeFor(name, decl, rng string, body *Compound) *RangeFor {
	return &RangeFor{Header: vfsnode.NewHeader(name, vfsnode.KindAst), Decl: decl, Range: rng, Body: body}
}

func (rf *RangeFor) IsDir() bool          { return true }
func (rf *RangeFor) Read() (string, error) { return rf.dump(0), nil }
func (rf *RangeFor) Write(string) error    { return rejectWrite(rf.Name()) }
func (rf *RangeFor) TypeName() string      { return "CppRangeFor" }

func (rf *RangeFor) dump(indent int) string {
	body := "{}"
	if rf.Body != nil {
		body = rf.Body.Dump(indent)
	}
	pad := strings.Repeat("    ", indent)
	return fmt.Sprintf("%sfor (%s : %s) %s", pad, rf.Decl, rf.Range, body)
}

func (rf *RangeFor) Dump(indent int) string { return rf.dump(indent) }

func (rf *RangeFor) Children() (map[string]vfsnode.Node, error) {
	m := make(map[string]vfsnode.Node)
	if rf.Body != nil {
		m[rf.Body.Name()] = rf.Body
	}
	return m, nil
}

func (rf *RangeFor) EncodePayload() []byte {
	bodyName := ""
	if rf.Body != nil {
		bodyName = rf.Body.Name()
	}
	return bincodec.NewWriter().Str(rf.Decl).Str(rf.Range).Str(bodyName).Bytes()
}

func decodeRangeFor(path string, payload []byte, addFixup func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	decl, err := r.Str()
	if err != nil {
		return nil, err
	}
	rng, err := r.Str()
	if err != nil {
		return nil, err
	}
	bodyName, err := r.Str()
	if err != nil {
		return nil, err
	}
	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}
	rf := NewRangeFor(vpath.Basename(path), decl, rng, nil)
	if bodyName != "" {
		childPath := path + "/" + bodyName
		addFixup(func(byPath map[string]vfsnode.Node) error {
			node, ok := byPath[childPath]
			if !ok {
				return fmt.Errorf("%s: %w", childPath, vfserr.ErrDanglingRef)
			}
			c, ok := node.(*Compound)
			if !ok {
				return fmt.Errorf("%s: not a Compound: %w", childPath, vfserr.ErrDecode)
			}
			rf.Body = c
			return nil
		})
	}
	return rf, nil
}
