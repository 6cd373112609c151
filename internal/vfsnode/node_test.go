package vfsnode

import "testing"

func TestDirFileBasics(t *testing.T) {
	root := NewDir("/")
	child := NewFile("a.txt", []byte("hi"))
	root.Put("a.txt", child)

	got, ok := root.Get("a.txt")
	if !ok {
		t.Fatal("expected a.txt present")
	}
	if got.Parent() != Node(root) {
		t.Fatal("parent back-reference not set")
	}

	content, err := got.Read()
	if err != nil || content != "hi" {
		t.Fatalf("Read() = %q, %v", content, err)
	}

	if err := got.Write("bye"); err != nil {
		t.Fatal(err)
	}
	content, _ = got.Read()
	if content != "bye" {
		t.Fatalf("Write/Read roundtrip failed: %q", content)
	}

	if _, err := got.Children(); err == nil {
		t.Fatal("expected NotADir for file children")
	}

	if err := root.Write("x"); err == nil {
		t.Fatal("expected NotAFile writing to a directory")
	}

	removed := root.Remove("a.txt")
	if removed == nil {
		t.Fatal("Remove should return the removed node")
	}
	if _, ok := root.Get("a.txt"); ok {
		t.Fatal("a.txt should be gone")
	}
}
