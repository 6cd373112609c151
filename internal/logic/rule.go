package logic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/codex-vfs/vfsh/internal/tags"
	"github.com/codex-vfs/vfsh/internal/vfserr"
)

// RuleSource names where a rule came from (§4.I).
type RuleSource string

const (
	SourceHardcoded  RuleSource = "hardcoded"
	SourceLearned    RuleSource = "learned"
	SourceAIGenerated RuleSource = "ai-generated"
	SourceUser       RuleSource = "user"
)

// Rule is a named implication with a confidence and provenance.
type Rule struct {
	Name       string
	Premise    *Formula
	Conclusion *Formula
	Confidence float64
	Source     RuleSource
}

// Serialize renders the rule's on-disk record:
// name|premiseStr|conclusionStr|confidence|source.
func (r Rule) Serialize(registry *tags.Registry) (string, error) {
	if strings.Contains(r.Name, "|") || strings.Contains(string(r.Source), "|") {
		return "", fmt.Errorf("rule %q: name/source must not contain '|': %w", r.Name, vfserr.ErrParse)
	}
	return strings.Join([]string{
		r.Name,
		r.Premise.ToString(registry),
		r.Conclusion.ToString(registry),
		strconv.FormatFloat(r.Confidence, 'g', -1, 64),
		string(r.Source),
	}, "|"), nil
}

// DeserializeRule parses one name|premise|conclusion|confidence|source
// record.
func DeserializeRule(line string, registry *tags.Registry) (Rule, error) {
	fields := strings.Split(line, "|")
	if len(fields) != 5 {
		return Rule{}, fmt.Errorf("rule record %q: expected 5 fields, got %d: %w", line, len(fields), vfserr.ErrParse)
	}
	premise, err := ParseFormula(fields[1], registry)
	if err != nil {
		return Rule{}, err
	}
	conclusion, err := ParseFormula(fields[2], registry)
	if err != nil {
		return Rule{}, err
	}
	confidence, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: bad confidence %q: %w", fields[0], fields[3], vfserr.ErrParse)
	}
	return Rule{
		Name:       fields[0],
		Premise:    premise,
		Conclusion: conclusion,
		Confidence: confidence,
		Source:     RuleSource(fields[4]),
	}, nil
}
