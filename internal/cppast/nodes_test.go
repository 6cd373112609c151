package cppast

import (
	"strings"
	"testing"

	"github.com/codex-vfs/vfsh/internal/ast"
	"github.com/codex-vfs/vfsh/internal/vfsnode"
)

// mirrors E3: a TranslationUnit at /tu with one Function main returning
// int whose body is Return(Int(42)); dumping it must show "int main()"
// and "return 42;".
func TestTranslationUnitDumpMatchesScenarioE3(t *testing.T) {
	body := NewCompound("body", []Stmt{ReturnStmt(IntLit(42))})
	fn := NewFunction("main", "int", "main", nil, body)
	tu := NewTranslationUnit("tu", nil, []*Function{fn})

	dump := tu.Dump(0)
	if !strings.Contains(dump, "int main()") {
		t.Fatalf("dump missing %q:\n%s", "int main()", dump)
	}
	if !strings.Contains(dump, "return 42;") {
		t.Fatalf("dump missing %q:\n%s", "return 42;", dump)
	}
}

func TestTranslationUnitRoundTrip(t *testing.T) {
	body := NewCompound("body", []Stmt{ReturnStmt(IntLit(42))})
	fn := NewFunction("main", "int", "main", nil, body)
	tu := NewTranslationUnit("tu", []Include{{Header: "cstdio", Angled: true}}, []*Function{fn})

	var fixups []ast.Fixup
	addFixup := func(f ast.Fixup) { fixups = append(fixups, f) }

	tuNode, err := decodeTranslationUnit("/tu", tu.EncodePayload(), addFixup)
	if err != nil {
		t.Fatalf("decodeTranslationUnit: %v", err)
	}
	fnNode, err := decodeFunction("/tu/main", fn.EncodePayload(), addFixup)
	if err != nil {
		t.Fatalf("decodeFunction: %v", err)
	}
	bodyNode, err := decodeCompound("/tu/main/body", body.EncodePayload(), addFixup)
	if err != nil {
		t.Fatalf("decodeCompound: %v", err)
	}

	decodedByPath := map[string]vfsnode.Node{
		"/tu":           tuNode,
		"/tu/main":      fnNode,
		"/tu/main/body": bodyNode,
	}
	for _, f := range fixups {
		if err := f(decodedByPath); err != nil {
			t.Fatalf("fixup: %v", err)
		}
	}

	decodedTU := tuNode.(*TranslationUnit)
	if decodedTU.Dump(0) != tu.Dump(0) {
		t.Fatalf("round trip mismatch:\nwant %q\ngot  %q", tu.Dump(0), decodedTU.Dump(0))
	}
}

func TestRangeForChildrenAndDump(t *testing.T) {
	inner := NewCompound("loopbody", []Stmt{ExprStmt(RawExpr("total += x"))})
	rf := NewRangeFor("loop", "auto x", "items", inner)
	compound := NewCompound("fnbody", []Stmt{RangeForRef("loop")})
	compound.Stmts[0].RangeFor = rf

	children, err := compound.Children()
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if children["loop"] != vfsnode.Node(rf) {
		t.Fatal("Compound.Children() should expose its resolved RangeFor")
	}

	dump := compound.Dump(0)
	if !strings.Contains(dump, "for (auto x : items)") {
		t.Fatalf("dump missing range-for header: %s", dump)
	}
}
