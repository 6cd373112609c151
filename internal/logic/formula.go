// Package logic implements components I and J: the formula tree and its
// textual grammar, and the forward-chaining/consistency/satisfiability
// engine built on top of it.
package logic

import (
	"fmt"
	"strings"

	"github.com/codex-vfs/vfsh/internal/tags"
	"github.com/codex-vfs/vfsh/internal/vfserr"
)

// FormulaKind discriminates the Formula sum type (§4.I).
type FormulaKind int

const (
	KindVar FormulaKind = iota
	KindNot
	KindAnd
	KindOr
	KindImplies
)

// Formula is `Var(tagid) | Not(f) | And(fs) | Or(fs) | Implies(lhs,rhs)`.
type Formula struct {
	Kind     FormulaKind
	Tag      tags.TagID
	Children []*Formula // Not: len 1; And/Or: len >= 1; Implies: [lhs, rhs]
}

func Var(tag tags.TagID) *Formula { return &Formula{Kind: KindVar, Tag: tag} }
func Not(f *Formula) *Formula     { return &Formula{Kind: KindNot, Children: []*Formula{f}} }
func And(fs ...*Formula) *Formula { return &Formula{Kind: KindAnd, Children: fs} }
func Or(fs ...*Formula) *Formula  { return &Formula{Kind: KindOr, Children: fs} }
func Implies(lhs, rhs *Formula) *Formula {
	return &Formula{Kind: KindImplies, Children: []*Formula{lhs, rhs}}
}

// Evaluate evaluates the formula against a TagSet, with
// Implies(a,b) ≡ ¬a ∨ b.
func (f *Formula) Evaluate(t tags.TagSet) bool {
	switch f.Kind {
	case KindVar:
		return t.Contains(f.Tag)
	case KindNot:
		return !f.Children[0].Evaluate(t)
	case KindAnd:
		for _, c := range f.Children {
			if !c.Evaluate(t) {
				return false
			}
		}
		return true
	case KindOr:
		for _, c := range f.Children {
			if c.Evaluate(t) {
				return true
			}
		}
		return false
	case KindImplies:
		return !f.Children[0].Evaluate(t) || f.Children[1].Evaluate(t)
	default:
		return false
	}
}

// ToString emits the canonical S-expression form using registry to
// resolve tag names.
func (f *Formula) ToString(registry *tags.Registry) string {
	switch f.Kind {
	case KindVar:
		return registry.GetTagName(f.Tag)
	case KindNot:
		return fmt.Sprintf("(not %s)", f.Children[0].ToString(registry))
	case KindAnd:
		return fmt.Sprintf("(and %s)", joinFormulas(f.Children, registry))
	case KindOr:
		return fmt.Sprintf("(or %s)", joinFormulas(f.Children, registry))
	case KindImplies:
		return fmt.Sprintf("(implies %s %s)", f.Children[0].ToString(registry), f.Children[1].ToString(registry))
	default:
		return "<?formula?>"
	}
}

func joinFormulas(fs []*Formula, registry *tags.Registry) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.ToString(registry)
	}
	return strings.Join(parts, " ")
}

// Clone deep-copies the formula tree.
func (f *Formula) Clone() *Formula {
	if f == nil {
		return nil
	}
	clone := &Formula{Kind: f.Kind, Tag: f.Tag}
	if f.Children != nil {
		clone.Children = make([]*Formula, len(f.Children))
		for i, c := range f.Children {
			clone.Children[i] = c.Clone()
		}
	}
	return clone
}

// Vars collects every distinct tag id referenced anywhere in the formula.
func (f *Formula) Vars(into map[tags.TagID]bool) {
	switch f.Kind {
	case KindVar:
		into[f.Tag] = true
	default:
		for _, c := range f.Children {
			c.Vars(into)
		}
	}
}

// --- parser ---

// ParseFormula parses the whitespace-insensitive S-expression grammar
// from §4.I:
//
//	formula := '(' op rest ')' | IDENT
//	op       := 'not' | 'and' | 'or' | 'implies'
//
// Bare identifiers intern as tags via registry.
func ParseFormula(s string, registry *tags.Registry) (*Formula, error) {
	toks := tokenize(s)
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty formula: %w", vfserr.ErrParse)
	}
	pos := 0
	f, err := parseExpr(toks, &pos, registry)
	if err != nil {
		return nil, err
	}
	if pos != len(toks) {
		return nil, fmt.Errorf("trailing tokens after formula %q: %w", s, vfserr.ErrParse)
	}
	return f, nil
}

func tokenize(s string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

func parseExpr(toks []string, pos *int, registry *tags.Registry) (*Formula, error) {
	if *pos >= len(toks) {
		return nil, fmt.Errorf("unexpected end of formula: %w", vfserr.ErrParse)
	}
	tok := toks[*pos]
	if tok != "(" {
		*pos++
		return Var(registry.RegisterTag(tok)), nil
	}
	*pos++ // consume '('
	if *pos >= len(toks) {
		return nil, fmt.Errorf("unexpected end after '(': %w", vfserr.ErrParse)
	}
	op := toks[*pos]
	*pos++

	var children []*Formula
	for *pos < len(toks) && toks[*pos] != ")" {
		child, err := parseExpr(toks, pos, registry)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if *pos >= len(toks) || toks[*pos] != ")" {
		return nil, fmt.Errorf("missing ')' in formula: %w", vfserr.ErrParse)
	}
	*pos++ // consume ')'

	switch op {
	case "not":
		if len(children) != 1 {
			return nil, fmt.Errorf("'not' requires exactly one child, got %d: %w", len(children), vfserr.ErrParse)
		}
		return Not(children[0]), nil
	case "and":
		if len(children) < 1 {
			return nil, fmt.Errorf("'and' requires at least one child: %w", vfserr.ErrParse)
		}
		return And(children...), nil
	case "or":
		if len(children) < 1 {
			return nil, fmt.Errorf("'or' requires at least one child: %w", vfserr.ErrParse)
		}
		return Or(children...), nil
	case "implies":
		if len(children) != 2 {
			return nil, fmt.Errorf("'implies' requires exactly two children, got %d: %w", len(children), vfserr.ErrParse)
		}
		return Implies(children[0], children[1]), nil
	default:
		return nil, fmt.Errorf("unknown operator %q: %w", op, vfserr.ErrParse)
	}
}
