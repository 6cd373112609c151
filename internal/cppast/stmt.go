package cppast

import (
	"fmt"
	"strings"

	"github.com/codex-vfs/vfsh/internal/bincodec"
	"github.com/codex-vfs/vfsh/internal/vfserr"
)

// stmtTag is the CppCompound entry discriminator, in the order §4.F.1
// names them: ExprStmt, Return, Raw, VarDecl, RangeForRef.
type stmtTag uint8

const (
	stmtExprStmt stmtTag = iota
	stmtReturn
	stmtRaw
	stmtVarDecl
	stmtRangeForRef
)

// Stmt is the inline statement tree a Compound holds. Every variant except
// RangeForRef is a plain value; RangeForRef names a child RangeFor record
// resolved by fixup once the whole snapshot has loaded.
type Stmt struct {
	Tag stmtTag

	Expr *Expr // ExprStmt operand, or Return's operand when HasExpr

	HasExpr bool // Return only: distinguishes "return;" from "return x;"

	Text string // RawStmt

	Type, Name string // VarDecl
	Init       *Expr
	HasInit    bool

	RangeForName string    // RangeForRef: child name under the Compound's path
	RangeFor     *RangeFor // resolved by fixup
}

func ExprStmt(e Expr) Stmt { return Stmt{Tag: stmtExprStmt, Expr: &e} }
func ReturnStmt(e Expr) Stmt {
	return Stmt{Tag: stmtReturn, Expr: &e, HasExpr: true}
}
func BareReturnStmt() Stmt { return Stmt{Tag: stmtReturn, HasExpr: false} }
func RawStmt(text string) Stmt { return Stmt{Tag: stmtRaw, Text: text} }
func VarDecl(typ, name string) Stmt {
	return Stmt{Tag: stmtVarDecl, Type: typ, Name: name}
}
func VarDeclInit(typ, name string, init Expr) Stmt {
	return Stmt{Tag: stmtVarDecl, Type: typ, Name: name, Init: &init, HasInit: true}
}
func RangeForRef(name string) Stmt { return Stmt{Tag: stmtRangeForRef, RangeForName: name} }

func (s Stmt) dump(indent int) string {
	pad := strings.Repeat("    ", indent)
	switch s.Tag {
	case stmtExprStmt:
		return pad + s.Expr.Dump() + ";"
	case stmtReturn:
		if s.HasExpr {
			return pad + "return " + s.Expr.Dump() + ";"
		}
		return pad + "return;"
	case stmtRaw:
		return pad + s.Text
	case stmtVarDecl:
		if s.HasInit {
			return fmt.Sprintf("%s%s %s = %s;", pad, s.Type, s.Name, s.Init.Dump())
		}
		return fmt.Sprintf("%s%s %s;", pad, s.Type, s.Name)
	case stmtRangeForRef:
		if s.RangeFor == nil {
			return pad + "<unresolved range-for>"
		}
		return s.RangeFor.dump(indent)
	default:
		return pad + "<?stmt?>"
	}
}

func encodeStmt(w *bincodec.Writer, s Stmt) {
	w.U8(uint8(s.Tag))
	switch s.Tag {
	case stmtExprStmt:
		encodeExpr(w, *s.Expr)
	case stmtReturn:
		hasExpr := uint8(0)
		if s.HasExpr {
			hasExpr = 1
		}
		w.U8(hasExpr)
		if s.HasExpr {
			encodeExpr(w, *s.Expr)
		}
	case stmtRaw:
		w.Str(s.Text)
	case stmtVarDecl:
		w.Str(s.Type).Str(s.Name)
		hasInit := uint8(0)
		if s.HasInit {
			hasInit = 1
		}
		w.U8(hasInit)
		if s.HasInit {
			encodeExpr(w, *s.Init)
		}
	case stmtRangeForRef:
		w.Str(s.RangeForName)
	}
}

// decodeStmt decodes one Compound entry. RangeForRef entries are decoded
// with only their child name populated; decodeCompound registers the
// fixup that resolves RangeFor once the whole entry slice exists.
func decodeStmt(r *bincodec.Reader) (Stmt, error) {
	tagByte, err := r.U8()
	if err != nil {
		return Stmt{}, err
	}
	tag := stmtTag(tagByte)
	switch tag {
	case stmtExprStmt:
		e, err := decodeExpr(r)
		if err != nil {
			return Stmt{}, err
		}
		return Stmt{Tag: tag, Expr: &e}, nil
	case stmtReturn:
		hasExpr, err := r.U8()
		if err != nil {
			return Stmt{}, err
		}
		s := Stmt{Tag: tag, HasExpr: hasExpr != 0}
		if s.HasExpr {
			e, err := decodeExpr(r)
			if err != nil {
				return Stmt{}, err
			}
			s.Expr = &e
		}
		return s, nil
	case stmtRaw:
		text, err := r.Str()
		if err != nil {
			return Stmt{}, err
		}
		return Stmt{Tag: tag, Text: text}, nil
	case stmtVarDecl:
		typ, err := r.Str()
		if err != nil {
			return Stmt{}, err
		}
		name, err := r.Str()
		if err != nil {
			return Stmt{}, err
		}
		hasInit, err := r.U8()
		if err != nil {
			return Stmt{}, err
		}
		s := Stmt{Tag: tag, Type: typ, Name: name, HasInit: hasInit != 0}
		if s.HasInit {
			e, err := decodeExpr(r)
			if err != nil {
				return Stmt{}, err
			}
			s.Init = &e
		}
		return s, nil
	case stmtRangeForRef:
		name, err := r.Str()
		if err != nil {
			return Stmt{}, err
		}
		return Stmt{Tag: tag, RangeForName: name}, nil
	default:
		return Stmt{}, fmt.Errorf("unknown statement tag %d: %w", tagByte, vfserr.ErrDecode)
	}
}
