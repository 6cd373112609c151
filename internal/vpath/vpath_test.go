package vpath

import "testing"

func TestSplit(t *testing.T) {
	cases := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"/", nil, false},
		{"/a/b/c", []string{"a", "b", "c"}, false},
		{"/a//b", []string{"a", "b"}, false},
		{"", nil, true},
		{"a/b", nil, true},
		{"/a/../b", nil, true},
	}
	for _, c := range cases {
		got, err := Split(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("Split(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Split(%q): unexpected error %v", c.in, err)
		}
		if len(got) != len(c.want) {
			t.Fatalf("Split(%q) = %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("Split(%q) = %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestJoin(t *testing.T) {
	if got := Join("/a/b", "c"); got != "/a/b/c" {
		t.Fatalf("Join = %q", got)
	}
	if got := Join("/", "c"); got != "/c" {
		t.Fatalf("Join = %q", got)
	}
	if got := Join("/a/", "c"); got != "/a/c" {
		t.Fatalf("Join = %q", got)
	}
}

func TestBasenameDirname(t *testing.T) {
	if got := Basename("/a/b/c"); got != "c" {
		t.Fatalf("Basename = %q", got)
	}
	if got := Basename("/"); got != "/" {
		t.Fatalf("Basename(/) = %q", got)
	}
	if got := Dirname("/a/b/c"); got != "/a/b" {
		t.Fatalf("Dirname = %q", got)
	}
	if got := Dirname("/a"); got != "/" {
		t.Fatalf("Dirname(/a) = %q", got)
	}
}

func TestSanitizeComponent(t *testing.T) {
	if got := SanitizeComponent("a b/c"); got != "a_b_c" {
		t.Fatalf("SanitizeComponent = %q", got)
	}
	if got := SanitizeComponent(""); got != "_" {
		t.Fatalf("SanitizeComponent(\"\") = %q", got)
	}
}
