// Package context implements component K: composable filters over the
// VFS, traversal and collection into ContextEntry values, and
// token-budgeted, deduplicating, optionally hierarchical assembly.
package context

import (
	"regexp"
	"strings"

	"github.com/codex-vfs/vfsh/internal/tags"
	"github.com/codex-vfs/vfsh/internal/vfsnode"
)

// Candidate is what a Filter evaluates: the node, its fully resolved
// path, and the tags attached to it (nil if untagged).
type Candidate struct {
	Node vfsnode.Node
	Path string
	Tags *tags.TagSet
}

// Filter is a first-class predicate over a Candidate (§4.K).
type Filter interface {
	Matches(c Candidate) bool
}

type tagAny struct{ set tags.TagSet }
type tagAll struct{ set tags.TagSet }
type tagNone struct{ set tags.TagSet }

func TagAny(set tags.TagSet) Filter  { return tagAny{set} }
func TagAll(set tags.TagSet) Filter  { return tagAll{set} }
func TagNone(set tags.TagSet) Filter { return tagNone{set} }

func (f tagAny) Matches(c Candidate) bool {
	if c.Tags == nil {
		return f.set.Empty()
	}
	return !f.set.Intersect(*c.Tags).Empty()
}

func (f tagAll) Matches(c Candidate) bool {
	if c.Tags == nil {
		return f.set.Empty()
	}
	return f.set.IsSubsetOf(*c.Tags)
}

func (f tagNone) Matches(c Candidate) bool {
	if c.Tags == nil {
		return true
	}
	return f.set.Intersect(*c.Tags).Empty()
}

type pathPrefix struct{ prefix string }

func PathPrefix(prefix string) Filter { return pathPrefix{prefix} }

func (f pathPrefix) Matches(c Candidate) bool {
	return strings.HasPrefix(c.Path, f.prefix)
}

type pathPattern struct{ glob string }

// PathPattern matches c.Path against a glob where '*' matches any run of
// characters and '?' matches exactly one.
func PathPattern(glob string) Filter { return pathPattern{glob} }

func (f pathPattern) Matches(c Candidate) bool {
	return globMatch(f.glob, c.Path)
}

func globMatch(pattern, s string) bool {
	return globMatchAt(pattern, s, 0, 0)
}

func globMatchAt(pattern, s string, pi, si int) bool {
	for pi < len(pattern) {
		switch pattern[pi] {
		case '*':
			for pi < len(pattern) && pattern[pi] == '*' {
				pi++
			}
			if pi == len(pattern) {
				return true
			}
			for k := si; k <= len(s); k++ {
				if globMatchAt(pattern, s, pi, k) {
					return true
				}
			}
			return false
		case '?':
			if si >= len(s) {
				return false
			}
			pi++
			si++
		default:
			if si >= len(s) || s[si] != pattern[pi] {
				return false
			}
			pi++
			si++
		}
	}
	return si == len(s)
}

type contentMatch struct{ substr string }

func ContentMatch(substr string) Filter { return contentMatch{substr} }

func (f contentMatch) Matches(c Candidate) bool {
	content, err := c.Node.Read()
	if err != nil {
		return false
	}
	return strings.Contains(content, f.substr)
}

type contentRegex struct{ re *regexp.Regexp }

func ContentRegex(re *regexp.Regexp) Filter { return contentRegex{re} }

func (f contentRegex) Matches(c Candidate) bool {
	content, err := c.Node.Read()
	if err != nil {
		return false
	}
	return f.re.MatchString(content)
}

type nodeKind struct{ kind vfsnode.Kind }

func NodeKind(kind vfsnode.Kind) Filter { return nodeKind{kind} }

func (f nodeKind) Matches(c Candidate) bool {
	return c.Node.Kind() == f.kind
}

type custom struct{ predicate func(c Candidate) bool }

func Custom(predicate func(c Candidate) bool) Filter { return custom{predicate} }

func (f custom) Matches(c Candidate) bool { return f.predicate(c) }

type andFilter struct{ filters []Filter }
type orFilter struct{ filters []Filter }
type notFilter struct{ filter Filter }

func And(filters ...Filter) Filter { return andFilter{filters} }
func Or(filters ...Filter) Filter  { return orFilter{filters} }
func Not(f Filter) Filter          { return notFilter{f} }

func (f andFilter) Matches(c Candidate) bool {
	for _, sub := range f.filters {
		if !sub.Matches(c) {
			return false
		}
	}
	return true
}

func (f orFilter) Matches(c Candidate) bool {
	for _, sub := range f.filters {
		if sub.Matches(c) {
			return true
		}
	}
	return false
}

func (f notFilter) Matches(c Candidate) bool {
	return !f.filter.Matches(c)
}
