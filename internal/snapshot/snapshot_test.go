package snapshot

import (
	"bytes"
	"strings"
	"testing"

	"github.com/codex-vfs/vfsh/internal/cppast"
	"github.com/codex-vfs/vfsh/internal/vfsnode"
)

func TestWriteLoadDirAndFile(t *testing.T) {
	root := vfsnode.NewDir("/")
	sub := vfsnode.NewDir("sub")
	root.Put("sub", sub)
	sub.Put("readme", vfsnode.NewFile("readme", []byte("hello\nworld")))

	var buf bytes.Buffer
	if err := Write(&buf, root, "", ""); err != nil {
		t.Fatal(err)
	}

	result, err := Load(&buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	children, _ := result.Root.Children()
	subNode, ok := children["sub"]
	if !ok || !subNode.IsDir() {
		t.Fatalf("expected loaded /sub directory, got %v", children)
	}
	subChildren, _ := subNode.Children()
	file, ok := subChildren["readme"]
	if !ok {
		t.Fatalf("expected /sub/readme, got %v", subChildren)
	}
	content, err := file.Read()
	if err != nil {
		t.Fatal(err)
	}
	if content != "hello\nworld" {
		t.Fatalf("content = %q", content)
	}
}

// E3: Snapshot round-trip with AST. Build a TranslationUnit at /tu with
// one Function main returning int whose body contains Return(Int(42)).
// Save, load, dump; the dumped text must contain "int main()" and
// "return 42;".
func TestSnapshotRoundTripScenarioE3(t *testing.T) {
	body := cppast.NewCompound("main", []cppast.Stmt{
		cppast.ReturnStmt(cppast.IntLit(42)),
	})
	fn := cppast.NewFunction("main", "int", "main", nil, body)
	tu := cppast.NewTranslationUnit("tu", nil, []*cppast.Function{fn})

	root := vfsnode.NewDir("/")
	root.Put("tu", tu)

	var buf bytes.Buffer
	if err := Write(&buf, root, "", ""); err != nil {
		t.Fatal(err)
	}

	result, err := Load(&buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	children, _ := result.Root.Children()
	loadedTU, ok := children["tu"].(*cppast.TranslationUnit)
	if !ok {
		t.Fatalf("expected *cppast.TranslationUnit at /tu, got %T", children["tu"])
	}
	dump := loadedTU.Dump(0)
	if !strings.Contains(dump, "int main()") {
		t.Fatalf("dump missing %q:\n%s", "int main()", dump)
	}
	if !strings.Contains(dump, "return 42;") {
		t.Fatalf("dump missing %q:\n%s", "return 42;", dump)
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	if _, err := Load(strings.NewReader("not a snapshot\n")); err == nil {
		t.Fatal("expected an error for bad magic")
	}
}

func TestLoadVersion1RejectsASTRecords(t *testing.T) {
	src := "# codex-vfs-overlay 1\nA /x AstInt 8\n12345678\n"
	if _, err := Load(strings.NewReader(src)); err == nil {
		t.Fatal("expected version 1 to reject AST records")
	}
}

func TestLoadParsesHeaderLine(t *testing.T) {
	src := "# codex-vfs-overlay 3\nH /tmp/some.vfs deadbeef\nD /a\n"
	result, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if result.Header.SourceFile != "/tmp/some.vfs" || result.Header.SourceHash != "deadbeef" {
		t.Fatalf("header = %+v", result.Header)
	}
	children, _ := result.Root.Children()
	if _, ok := children["a"]; !ok {
		t.Fatalf("expected /a directory, got %v", children)
	}
}
