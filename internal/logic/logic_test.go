package logic

import (
	"strings"
	"testing"

	"github.com/codex-vfs/vfsh/internal/tags"
	"github.com/codex-vfs/vfsh/internal/vfserr"
)

func newTestEngine() (*Engine, *tags.Registry) {
	registry := tags.NewRegistry()
	e := NewEngine(registry)
	e.AddHardcodedRules()
	return e, registry
}

func tagSetOf(registry *tags.Registry, names ...string) tags.TagSet {
	var t tags.TagSet
	for _, n := range names {
		t.Insert(registry.RegisterTag(n))
	}
	return t
}

// E4: forward chaining from {fast} at min confidence 0.85 yields exactly
// {fast, cached}, and checking {fast, cached, remote} against the
// hardcoded ruleset surfaces the cached-not-remote conflict.
func TestInferAndCheckConsistencyScenarioE4(t *testing.T) {
	e, registry := newTestEngine()

	initial := tagSetOf(registry, "fast")
	inferred := e.InferTags(initial, 0.85)

	if !inferred.Contains(registry.GetTagID("fast")) || !inferred.Contains(registry.GetTagID("cached")) {
		t.Fatalf("expected {fast, cached}, got size %d", inferred.Size())
	}
	if inferred.Size() != 2 {
		t.Fatalf("expected exactly 2 tags, got %d", inferred.Size())
	}

	violating := tagSetOf(registry, "fast", "cached", "remote")
	conflict := e.CheckConsistency(violating)
	if conflict == nil {
		t.Fatal("expected a conflict, got nil")
	}
	if !strings.Contains(conflict.Description, "cached-not-remote") {
		t.Fatalf("expected description to name cached-not-remote, got %q", conflict.Description)
	}
}

func TestInferTagsIsIdempotentAndMonotone(t *testing.T) {
	e, registry := newTestEngine()
	initial := tagSetOf(registry, "fast")

	once := e.InferTags(initial, 0.85)
	twice := e.InferTags(once, 0.85)

	if !once.Equal(twice) {
		t.Fatalf("expected idempotent inference, got %v then %v", once, twice)
	}
	if !once.IsSupersetOf(initial) {
		t.Fatal("expected inferred set to be a superset of initial")
	}
}

func TestCheckConsistencyNilWhenNoViolation(t *testing.T) {
	e, registry := newTestEngine()
	clean := tagSetOf(registry, "fast", "cached")
	if conflict := e.CheckConsistency(clean); conflict != nil {
		t.Fatalf("expected no conflict, got %+v", conflict)
	}
}

// E5: (and a (not a)) is unsatisfiable; (or a b) is satisfiable.
func TestIsSatisfiableScenarioE5(t *testing.T) {
	_, registry := newTestEngine()
	e := NewEngine(registry)

	contradiction, err := ParseFormula("(and a (not a))", registry)
	if err != nil {
		t.Fatal(err)
	}
	if e.IsSatisfiable(contradiction) {
		t.Fatal("expected (and a (not a)) to be unsatisfiable")
	}

	disjunction, err := ParseFormula("(or a b)", registry)
	if err != nil {
		t.Fatal(err)
	}
	if !e.IsSatisfiable(disjunction) {
		t.Fatal("expected (or a b) to be satisfiable")
	}
}

func TestIsSatisfiableOptimisticBeyondTwentyVars(t *testing.T) {
	_, registry := newTestEngine()
	e := NewEngine(registry)

	names := make([]string, 0, 21)
	for i := 0; i < 21; i++ {
		names = append(names, strings.Repeat(string(rune('a'+i)), 1))
	}
	formula := Var(registry.RegisterTag(names[0]))
	for _, n := range names[1:] {
		formula = And(formula, Not(Var(registry.RegisterTag(n))))
	}
	if !e.IsSatisfiable(formula) {
		t.Fatal("expected optimistic true beyond 20 distinct variables")
	}
}

func TestExplainInferenceUserProvidedVsDerived(t *testing.T) {
	e, registry := newTestEngine()
	initial := tagSetOf(registry, "fast")

	fastExplain := e.ExplainInference(registry.GetTagID("fast"), initial)
	if len(fastExplain) != 1 || fastExplain[0] != "was provided by user" {
		t.Fatalf("expected user-provided explanation, got %v", fastExplain)
	}

	cachedExplain := e.ExplainInference(registry.GetTagID("cached"), initial)
	if len(cachedExplain) != 1 || !strings.Contains(cachedExplain[0], "fast-cached") {
		t.Fatalf("expected explanation naming fast-cached rule, got %v", cachedExplain)
	}
}

func TestRuleSerializeRoundTrip(t *testing.T) {
	registry := tags.NewRegistry()
	original := Rule{
		Name:       "offline-not-network",
		Premise:    Var(registry.RegisterTag("offline")),
		Conclusion: Not(Var(registry.RegisterTag("network"))),
		Confidence: 1.0,
		Source:     SourceHardcoded,
	}
	line, err := original.Serialize(registry)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DeserializeRule(line, registry)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Name != original.Name || decoded.Source != original.Source || decoded.Confidence != original.Confidence {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, original)
	}
}

type fakeVFS struct {
	files map[string]string
}

func newFakeVFS() *fakeVFS { return &fakeVFS{files: make(map[string]string)} }

func (f *fakeVFS) Write(path string, content string, overlayID int) error {
	f.files[path] = content
	return nil
}

func (f *fakeVFS) Read(path string) (string, error) {
	content, ok := f.files[path]
	if !ok {
		return "", vfserr.ErrNotFound
	}
	return content, nil
}

func TestSaveAndLoadRulesRoundTrip(t *testing.T) {
	e, registry := newTestEngine()
	fs := newFakeVFS()

	if err := e.SaveRulesToVfs(fs, "/plan/rules", 0); err != nil {
		t.Fatal(err)
	}

	reloaded := NewEngine(registry)
	if err := reloaded.LoadRulesFromVfs(fs, "/plan/rules"); err != nil {
		t.Fatal(err)
	}
	if len(reloaded.Rules) != len(e.Rules) {
		t.Fatalf("expected %d rules reloaded, got %d", len(e.Rules), len(reloaded.Rules))
	}
}

func TestLoadRulesSkipsMalformedLines(t *testing.T) {
	registry := tags.NewRegistry()
	fs := newFakeVFS()
	fs.files["/plan/rules/hardcoded/rules.txt"] = "# comment\n\nbad-line-too-few-fields\noffline-not-network|offline|(not network)|1|hardcoded\n"
	fs.files["/plan/rules/learned/rules.txt"] = ""
	fs.files["/plan/rules/ai-generated/rules.txt"] = ""
	fs.files["/plan/rules/user/rules.txt"] = ""

	e := NewEngine(registry)
	if err := e.LoadRulesFromVfs(fs, "/plan/rules"); err != nil {
		t.Fatal(err)
	}
	if len(e.Rules) != 1 {
		t.Fatalf("expected 1 valid rule after skipping malformed line, got %d", len(e.Rules))
	}
}
