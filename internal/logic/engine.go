package logic

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/codex-vfs/vfsh/internal/logger"
	"github.com/codex-vfs/vfsh/internal/tags"
	"github.com/codex-vfs/vfsh/internal/vfserr"
)

// ConflictInfo describes the first implication violated by a TagSet under
// checkConsistency (§4.J).
type ConflictInfo struct {
	Description         string
	ConflictingTagNames []string
	Suggestions         []string
}

const defaultMinConfidence = 0.8
const consistencyThreshold = 0.95
const maxForwardChainIterations = 100
const maxBruteForceVars = 20

// VFSWriter is the narrow surface the engine needs to persist rules. The
// Vfs façade implements it; logic never imports package vfs, which would
// otherwise form an import cycle (the façade depends on the engine).
type VFSWriter interface {
	Write(path string, content string, overlayID int) error
	Read(path string) (string, error)
}

// Engine holds the ordered rule list and the tag registry rule formulas
// intern against.
type Engine struct {
	Rules    []Rule
	Registry *tags.Registry
}

func NewEngine(registry *tags.Registry) *Engine {
	return &Engine{Registry: registry}
}

func (e *Engine) addRule(name, premise, conclusion string, confidence float64, source RuleSource) {
	p, err := ParseFormula(premise, e.Registry)
	if err != nil {
		panic(fmt.Sprintf("logic: invalid hardcoded premise %q: %v", premise, err))
	}
	c, err := ParseFormula(conclusion, e.Registry)
	if err != nil {
		panic(fmt.Sprintf("logic: invalid hardcoded conclusion %q: %v", conclusion, err))
	}
	e.Rules = append(e.Rules, Rule{Name: name, Premise: p, Conclusion: c, Confidence: confidence, Source: source})
}

// AddHardcodedRules loads the fixed ruleset named in §4.J.
func (e *Engine) AddHardcodedRules() {
	e.addRule("offline-not-network", "offline", "(not network)", 1.0, SourceHardcoded)
	e.addRule("fast-cached", "fast", "cached", 0.87, SourceLearned)
	e.addRule("cached-not-remote", "cached", "(not remote)", 1.0, SourceHardcoded)
	e.addRule("no-network-offline", "no-network", "offline", 1.0, SourceHardcoded)
	e.addRule("local-only-offline", "local-only", "offline", 1.0, SourceHardcoded)
	e.addRule("cache-write-through-not-write-back", "cache-write-through", "(not cache-write-back)", 1.0, SourceHardcoded)
}

// InferTags runs forward chaining to a 100-iteration fixpoint (§4.J).
// The result is monotone: it always contains initial, and a second
// invocation against its own output is idempotent.
func (e *Engine) InferTags(initial tags.TagSet, minConfidence float64) tags.TagSet {
	if minConfidence <= 0 {
		minConfidence = defaultMinConfidence
	}
	working := initial.Clone()
	for iter := 0; iter < maxForwardChainIterations; iter++ {
		changed := false
		for _, rule := range e.Rules {
			if rule.Confidence < minConfidence {
				continue
			}
			if !rule.Premise.Evaluate(working) {
				continue
			}
			if rule.Conclusion.Kind == KindVar && !working.Contains(rule.Conclusion.Tag) {
				working.Insert(rule.Conclusion.Tag)
				changed = true
			}
			// Not(Var(x)) conclusions are never added by forward chaining
			// (§4.J); a contradiction there is a checkConsistency concern.
		}
		if !changed {
			break
		}
	}
	return working
}

// CheckConsistency returns the first confidence->=0.95 rule whose premise
// holds and whose conclusion does not, or nil if none.
func (e *Engine) CheckConsistency(t tags.TagSet) *ConflictInfo {
	for _, rule := range e.Rules {
		if rule.Confidence < consistencyThreshold {
			continue
		}
		if !rule.Premise.Evaluate(t) || rule.Conclusion.Evaluate(t) {
			continue
		}
		varIDs := make(map[tags.TagID]bool)
		rule.Premise.Vars(varIDs)
		rule.Conclusion.Vars(varIDs)
		names := make([]string, 0, len(varIDs))
		for id := range varIDs {
			if name := e.Registry.GetTagName(id); name != "" {
				names = append(names, name)
			}
		}
		return &ConflictInfo{
			Description:         fmt.Sprintf("rule %s: premise %s holds but conclusion %s does not", rule.Name, rule.Premise.ToString(e.Registry), rule.Conclusion.ToString(e.Registry)),
			ConflictingTagNames: names,
			Suggestions:         []string{fmt.Sprintf("review tags %s against rule %s", strings.Join(names, ", "), rule.Name)},
		}
	}
	return nil
}

// IsSatisfiable brute-forces all subsets of f's <=20 distinct variables;
// beyond that it optimistically returns true (§4.J).
func (e *Engine) IsSatisfiable(f *Formula) bool {
	varSet := make(map[tags.TagID]bool)
	f.Vars(varSet)
	vars := make([]tags.TagID, 0, len(varSet))
	for id := range varSet {
		vars = append(vars, id)
	}
	if len(vars) > maxBruteForceVars {
		return true
	}
	total := 1 << uint(len(vars))
	for mask := 0; mask < total; mask++ {
		var t tags.TagSet
		for i, v := range vars {
			if mask&(1<<uint(i)) != 0 {
				t.Insert(v)
			}
		}
		if f.Evaluate(t) {
			return true
		}
	}
	return false
}

// ExplainInference explains why tag holds: either it was user-provided,
// or every rule concluding it whose premise holds under initial.
func (e *Engine) ExplainInference(tag tags.TagID, initial tags.TagSet) []string {
	if initial.Contains(tag) {
		return []string{"was provided by user"}
	}
	var lines []string
	for _, rule := range e.Rules {
		if rule.Conclusion.Kind != KindVar || rule.Conclusion.Tag != tag {
			continue
		}
		if !rule.Premise.Evaluate(initial) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s -> %s (confidence %.2f, source %s)",
			rule.Name, rule.Premise.ToString(e.Registry), rule.Conclusion.ToString(e.Registry), rule.Confidence, rule.Source))
	}
	return lines
}

// --- persistence ---

var ruleSources = []RuleSource{SourceHardcoded, SourceLearned, SourceAIGenerated, SourceUser}

// SaveRulesToVfs groups rules by source and writes
// <base>/<source>/rules.txt plus <base>/summary.txt.
func (e *Engine) SaveRulesToVfs(w VFSWriter, base string, overlayID int) error {
	bySource := make(map[RuleSource][]Rule)
	for _, r := range e.Rules {
		bySource[r.Source] = append(bySource[r.Source], r)
	}
	var summary strings.Builder
	for _, source := range ruleSources {
		rules := bySource[source]
		var b strings.Builder
		fmt.Fprintf(&b, "# rules: source=%s\n", source)
		for _, r := range rules {
			line, err := r.Serialize(e.Registry)
			if err != nil {
				return err
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		path := fmt.Sprintf("%s/%s/rules.txt", base, source)
		if err := w.Write(path, b.String(), overlayID); err != nil {
			return err
		}
		fmt.Fprintf(&summary, "%s: %d rules\n", source, len(rules))
	}
	return w.Write(base+"/summary.txt", summary.String(), overlayID)
}

// LoadRulesFromVfs reads the four per-source rule files, skipping
// comments and blank lines, logging and skipping malformed records
// rather than failing the whole file.
func (e *Engine) LoadRulesFromVfs(w VFSWriter, base string) error {
	var loaded []Rule
	for _, source := range ruleSources {
		path := fmt.Sprintf("%s/%s/rules.txt", base, source)
		content, err := w.Read(path)
		if err != nil {
			if vfserr.Is(err, vfserr.ErrNotFound) {
				continue
			}
			return err
		}
		scanner := bufio.NewScanner(strings.NewReader(content))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			rule, err := DeserializeRule(line, e.Registry)
			if err != nil {
				logger.Warn("logic: skipping malformed rule", "path", path, "line", line, "error", err)
				continue
			}
			loaded = append(loaded, rule)
		}
	}
	e.Rules = loaded
	return nil
}
