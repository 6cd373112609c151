// Package cppast implements the Cpp-AST node family from §3: the
// directory-like containers TranslationUnit, Function, Compound, and
// RangeFor (registered as snapshot AST records with path-based fixups per
// §4.F.1) plus the inline, non-addressable statement and expression trees
// they hold.
package cppast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/codex-vfs/vfsh/internal/bincodec"
	"github.com/codex-vfs/vfsh/internal/vfserr"
)

// exprTag is the single-byte discriminator used by the tag stream inside
// CppCompound statements and CppCall.fn/args (§4.F.1 line 163).
type exprTag uint8

const (
	exprID exprTag = iota
	exprString
	exprInt
	exprCall
	exprBinOp
	exprStreamOut
	exprRaw
)

// Expr is the inline value tree for C++ expressions. It is never an
// addressable VFS node: it lives entirely inside its owning Compound's
// (or Call's) binary payload.
type Expr struct {
	Tag   exprTag
	Str   string // Id name / String raw value / BinOp operator / RawExpr text
	Int   int64
	Fn    *Expr
	Args  []Expr
	A, B  *Expr
	Parts []Expr
}

func Id(name string) Expr       { return Expr{Tag: exprID, Str: name} }
func String(raw string) Expr    { return Expr{Tag: exprString, Str: raw} }
func IntLit(v int64) Expr       { return Expr{Tag: exprInt, Int: v} }
func CallExpr(fn Expr, args ...Expr) Expr {
	return Expr{Tag: exprCall, Fn: &fn, Args: args}
}
func BinOp(op string, a, b Expr) Expr { return Expr{Tag: exprBinOp, Str: op, A: &a, B: &b} }
func StreamOut(parts ...Expr) Expr    { return Expr{Tag: exprStreamOut, Parts: parts} }
func RawExpr(text string) Expr        { return Expr{Tag: exprRaw, Str: text} }

// Dump renders the expression as C++ source text.
func (e Expr) Dump() string {
	switch e.Tag {
	case exprID:
		return e.Str
	case exprString:
		return `"` + Esc(e.Str) + `"`
	case exprInt:
		return strconv.FormatInt(e.Int, 10)
	case exprCall:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = a.Dump()
		}
		return fmt.Sprintf("%s(%s)", e.Fn.Dump(), strings.Join(parts, ", "))
	case exprBinOp:
		return fmt.Sprintf("%s %s %s", e.A.Dump(), e.Str, e.B.Dump())
	case exprStreamOut:
		parts := make([]string, len(e.Parts))
		for i, p := range e.Parts {
			parts[i] = p.Dump()
		}
		return strings.Join(parts, " << ")
	case exprRaw:
		return e.Str
	default:
		return "<?expr?>"
	}
}

func encodeExpr(w *bincodec.Writer, e Expr) {
	w.U8(uint8(e.Tag))
	switch e.Tag {
	case exprID, exprString, exprRaw:
		w.Str(e.Str)
	case exprInt:
		w.I64(e.Int)
	case exprCall:
		encodeExpr(w, *e.Fn)
		w.U32(uint32(len(e.Args)))
		for _, a := range e.Args {
			encodeExpr(w, a)
		}
	case exprBinOp:
		w.Str(e.Str)
		encodeExpr(w, *e.A)
		encodeExpr(w, *e.B)
	case exprStreamOut:
		w.U32(uint32(len(e.Parts)))
		for _, p := range e.Parts {
			encodeExpr(w, p)
		}
	}
}

func decodeExpr(r *bincodec.Reader) (Expr, error) {
	tagByte, err := r.U8()
	if err != nil {
		return Expr{}, err
	}
	tag := exprTag(tagByte)
	switch tag {
	case exprID, exprString, exprRaw:
		s, err := r.Str()
		if err != nil {
			return Expr{}, err
		}
		return Expr{Tag: tag, Str: s}, nil
	case exprInt:
		v, err := r.I64()
		if err != nil {
			return Expr{}, err
		}
		return Expr{Tag: tag, Int: v}, nil
	case exprCall:
		fn, err := decodeExpr(r)
		if err != nil {
			return Expr{}, err
		}
		argc, err := r.U32()
		if err != nil {
			return Expr{}, err
		}
		args := make([]Expr, argc)
		for i := range args {
			args[i], err = decodeExpr(r)
			if err != nil {
				return Expr{}, err
			}
		}
		return Expr{Tag: tag, Fn: &fn, Args: args}, nil
	case exprBinOp:
		op, err := r.Str()
		if err != nil {
			return Expr{}, err
		}
		a, err := decodeExpr(r)
		if err != nil {
			return Expr{}, err
		}
		b, err := decodeExpr(r)
		if err != nil {
			return Expr{}, err
		}
		return Expr{Tag: tag, Str: op, A: &a, B: &b}, nil
	case exprStreamOut:
		n, err := r.U32()
		if err != nil {
			return Expr{}, err
		}
		parts := make([]Expr, n)
		for i := range parts {
			parts[i], err = decodeExpr(r)
			if err != nil {
				return Expr{}, err
			}
		}
		return Expr{Tag: tag, Parts: parts}, nil
	default:
		return Expr{}, fmt.Errorf("unknown expression tag %d: %w", tagByte, vfserr.ErrDecode)
	}
}
