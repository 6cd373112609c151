package context

import (
	"strings"
	"testing"

	"github.com/codex-vfs/vfsh/internal/vfs"
	"github.com/codex-vfs/vfsh/internal/workdir"
)

func newTestVfs(t *testing.T) *vfs.Vfs {
	t.Helper()
	return vfs.New(workdir.Oldest, true)
}

func writeEntry(t *testing.T, v *vfs.Vfs, path string, tokens int) {
	t.Helper()
	// tokenEstimate(content) == ceil(len/4); build content of exactly
	// 4*tokens runes so the estimate lands exactly on tokens.
	content := strings.Repeat("x", 4*tokens)
	if err := v.Write(path, []byte(content), 0); err != nil {
		t.Fatal(err)
	}
}

// E6: three 1000-token entries, max_tokens=2500: Build emits exactly two.
func TestBuildScenarioE6(t *testing.T) {
	v := newTestVfs(t)
	if err := v.Mkdir("/ctx", 0); err != nil {
		t.Fatal(err)
	}
	writeEntry(t, v, "/ctx/a.txt", 1000)
	writeEntry(t, v, "/ctx/b.txt", 1000)
	writeEntry(t, v, "/ctx/c.txt", 1000)

	b := NewBuilder(v, 2500)
	if err := b.CollectFromPath("/ctx"); err != nil {
		t.Fatal(err)
	}
	out := b.Build()
	if got := strings.Count(out, "=== /"); got != 2 {
		t.Fatalf("expected 2 entries in output, got %d: %q", got, out)
	}
}

// E6 adaptive-budget reconciliation: total demand 3000 does not exceed
// 2*2500=5000, so AdaptiveBudget changes nothing and only two entries
// are emitted; raising demand to 6000 (>5000) admits the third.
func TestBuildWithOptionsAdaptiveBudgetScenarioE6(t *testing.T) {
	v := newTestVfs(t)
	if err := v.Mkdir("/ctx", 0); err != nil {
		t.Fatal(err)
	}
	writeEntry(t, v, "/ctx/a.txt", 1000)
	writeEntry(t, v, "/ctx/b.txt", 1000)
	writeEntry(t, v, "/ctx/c.txt", 1000)

	b := NewBuilder(v, 2500)
	if err := b.CollectFromPath("/ctx"); err != nil {
		t.Fatal(err)
	}
	res := b.BuildWithOptions(Options{AdaptiveBudget: true})
	if got := strings.Count(res.Output, "=== /"); got != 2 {
		t.Fatalf("demand 3000 <= 2*2500: expected 2 entries, got %d", got)
	}

	v2 := newTestVfs(t)
	if err := v2.Mkdir("/ctx", 0); err != nil {
		t.Fatal(err)
	}
	writeEntry(t, v2, "/ctx/a.txt", 2000)
	writeEntry(t, v2, "/ctx/b.txt", 2000)
	writeEntry(t, v2, "/ctx/c.txt", 2000)

	b2 := NewBuilder(v2, 2500)
	if err := b2.CollectFromPath("/ctx"); err != nil {
		t.Fatal(err)
	}
	res2 := b2.BuildWithOptions(Options{AdaptiveBudget: true})
	if got := strings.Count(res2.Output, "=== /"); got != 3 {
		t.Fatalf("demand 6000 > 2*2500: expected all 3 entries, got %d", got)
	}
}

// Invariant 9: the one entry that straddles the budget may exceed it by
// at most one token, after which collection stops.
func TestBuildStraddleByAtMostOneToken(t *testing.T) {
	v := newTestVfs(t)
	if err := v.Mkdir("/ctx", 0); err != nil {
		t.Fatal(err)
	}
	writeEntry(t, v, "/ctx/a.txt", 10)
	// 44 bytes => token estimate 11: after a(10)+b(11)=21, one over the
	// budget of 20, within the invariant-9 one-token straddle allowance.
	if err := v.Write("/ctx/b.txt", []byte(strings.Repeat("x", 44)), 0); err != nil {
		t.Fatal(err)
	}
	writeEntry(t, v, "/ctx/c.txt", 10)

	b := NewBuilder(v, 20)
	if err := b.CollectFromPath("/ctx"); err != nil {
		t.Fatal(err)
	}
	out := b.Build()
	if got := strings.Count(out, "=== /"); got != 2 {
		t.Fatalf("expected straddling second entry then stop, got %d entries: %q", got, out)
	}
}

// Invariant 10: identical-content entries are deduplicated when
// Deduplicate is requested.
func TestBuildWithOptionsDeduplicate(t *testing.T) {
	v := newTestVfs(t)
	if err := v.Mkdir("/ctx", 0); err != nil {
		t.Fatal(err)
	}
	if err := v.Write("/ctx/a.txt", []byte("same content"), 0); err != nil {
		t.Fatal(err)
	}
	if err := v.Write("/ctx/b.txt", []byte("same content"), 0); err != nil {
		t.Fatal(err)
	}
	if err := v.Write("/ctx/c.txt", []byte("different"), 0); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(v, 10_000)
	if err := b.CollectFromPath("/ctx"); err != nil {
		t.Fatal(err)
	}
	res := b.BuildWithOptions(Options{Deduplicate: true})
	if got := strings.Count(res.Output, "=== /"); got != 2 {
		t.Fatalf("expected duplicate collapsed to one, got %d entries: %q", got, res.Output)
	}
}

func TestBuildWithPriorityOrdersCriticalFirst(t *testing.T) {
	v := newTestVfs(t)
	if err := v.Mkdir("/ctx", 0); err != nil {
		t.Fatal(err)
	}
	if err := v.Write("/ctx/low.txt", []byte("low"), 0); err != nil {
		t.Fatal(err)
	}
	if err := v.Write("/ctx/high.txt", []byte("high"), 0); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(v, 10_000)
	if err := b.CollectFromPath("/ctx"); err != nil {
		t.Fatal(err)
	}
	for i := range b.Entries {
		if b.Entries[i].VfsPath == "/ctx/high.txt" {
			node, err := v.ResolveForOverlay("/ctx/high.txt", 0)
			if err != nil {
				t.Fatal(err)
			}
			v.TagStorage.AddTag(node, v.TagRegistry.RegisterTag("critical"))
			b.Entries[i].Priority = b.priorityFor(v.TagStorage.GetTags(node))
		}
	}

	out := b.BuildWithPriority()
	if strings.Index(out, "/ctx/high.txt") > strings.Index(out, "/ctx/low.txt") {
		t.Fatalf("expected critical entry first: %q", out)
	}
}

func TestFilterTagAnyAndPathPrefix(t *testing.T) {
	v := newTestVfs(t)
	if err := v.Mkdir("/ctx", 0); err != nil {
		t.Fatal(err)
	}
	if err := v.Write("/ctx/keep.txt", []byte("keep"), 0); err != nil {
		t.Fatal(err)
	}
	if err := v.Write("/ctx/skip.txt", []byte("skip"), 0); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(v, 10_000)
	b.Filters = []Filter{PathPrefix("/ctx/keep")}
	if err := b.CollectFromPath("/ctx"); err != nil {
		t.Fatal(err)
	}
	if len(b.Entries) != 1 || b.Entries[0].VfsPath != "/ctx/keep.txt" {
		t.Fatalf("expected only keep.txt, got %+v", b.Entries)
	}
}

func TestGlobMatchPathPattern(t *testing.T) {
	cases := []struct {
		pattern, path string
		want          bool
	}{
		{"/src/*.go", "/src/main.go", true},
		{"/src/*.go", "/src/sub/main.go", true}, // * matches any run, including '/'
		{"/src/?.go", "/src/a.go", true},
		{"/src/?.go", "/src/ab.go", false},
		{"/src/*.go", "/src/main.txt", false},
	}
	for _, c := range cases {
		if got := globMatch(c.pattern, c.path); got != c.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", c.pattern, c.path, got, c.want)
		}
	}
}
