package context

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/codex-vfs/vfsh/internal/hashutil"
	"github.com/codex-vfs/vfsh/internal/tags"
	"github.com/codex-vfs/vfsh/internal/vfs"
	"github.com/codex-vfs/vfsh/internal/vfsnode"
)

const (
	priorityCritical = 200
	priorityImportant = 150
	priorityDefault   = 100
)

// Entry is the §3 ContextEntry record.
type Entry struct {
	VfsPath       string
	Node          vfsnode.Node
	Content       string
	TokenEstimate int
	Priority      int
	Tags          tags.TagSet
}

func tokenEstimate(content string) int {
	return (len(content) + 3) / 4
}

// Builder is the §4.K ContextBuilder.
type Builder struct {
	Vfs         *vfs.Vfs
	TagRegistry *tags.Registry
	TagStorage  *tags.Storage
	Filters     []Filter
	Entries     []Entry
	MaxTokens   int
}

func NewBuilder(v *vfs.Vfs, maxTokens int) *Builder {
	return &Builder{
		Vfs:         v,
		TagRegistry: v.TagRegistry,
		TagStorage:  v.TagStorage,
		MaxTokens:   maxTokens,
	}
}

func (b *Builder) priorityFor(t *tags.TagSet) int {
	if t == nil {
		return priorityDefault
	}
	if id := b.TagRegistry.GetTagID("critical"); id != tags.TagInvalid && t.Contains(id) {
		return priorityCritical
	}
	if id := b.TagRegistry.GetTagID("important"); id != tags.TagInvalid && t.Contains(id) {
		return priorityImportant
	}
	return priorityDefault
}

// CollectFromPath visits every overlay that hosts root and walks its
// directory tree, emitting a ContextEntry for every node matched by the
// filter set (an empty filter list always matches) (§4.K).
func (b *Builder) CollectFromPath(root string) error {
	for _, resolved := range b.Vfs.ResolveMulti(root) {
		if err := b.walk(root, resolved.Node); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) walk(path string, node vfsnode.Node) error {
	nodeTags := b.TagStorage.GetTags(node)
	candidate := Candidate{Node: node, Path: path, Tags: nodeTags}

	// Directories are traversal-only: they never become entries
	// themselves, only their descendants do.
	if node.Kind() != vfsnode.KindDir && b.matchesAny(candidate) {
		content, err := node.Read()
		if err != nil {
			return err
		}
		b.Entries = append(b.Entries, Entry{
			VfsPath:       path,
			Node:          node,
			Content:       content,
			TokenEstimate: tokenEstimate(content),
			Priority:      b.priorityFor(nodeTags),
			Tags:          derefTagSet(nodeTags),
		})
	}

	children, err := node.Children()
	if err != nil {
		return nil // leaf: nothing further to walk
	}
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		childPath := strings.TrimSuffix(path, "/") + "/" + name
		if err := b.walk(childPath, children[name]); err != nil {
			return err
		}
	}
	return nil
}

func derefTagSet(t *tags.TagSet) tags.TagSet {
	if t == nil {
		return tags.TagSet{}
	}
	return *t
}

func (b *Builder) matchesAny(c Candidate) bool {
	if len(b.Filters) == 0 {
		return true
	}
	for _, f := range b.Filters {
		if f.Matches(c) {
			return true
		}
	}
	return false
}

func (b *Builder) tagNames(t tags.TagSet) []string {
	ids := t.ToVector()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name := b.TagRegistry.GetTagName(id); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func formatEntry(e Entry, names []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", e.VfsPath)
	if len(names) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(names, ", "))
	}
	b.WriteString(e.Content)
	b.WriteString("\n\n")
	return b.String()
}

func formatEntryHeader(e Entry, names []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", e.VfsPath)
	if len(names) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(names, ", "))
	}
	b.WriteString("\n")
	return b.String()
}

// Build sorts by insertion order (a no-op on Entries, already in
// collection order) and concatenates entries while the running token sum
// stays within MaxTokens; the single entry that would cross the budget
// may straddle it by at most one token (invariant 9), after which
// collection stops (§4.K).
func (b *Builder) Build() string {
	return b.assemble(b.Entries, b.MaxTokens)
}

// BuildWithPriority sorts by descending priority (stable) before
// concatenating under the same budget rule as Build.
func (b *Builder) BuildWithPriority() string {
	sorted := make([]Entry, len(b.Entries))
	copy(sorted, b.Entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	return b.assemble(sorted, b.MaxTokens)
}

func (b *Builder) assemble(entries []Entry, maxTokens int) string {
	var out strings.Builder
	sum := 0
	for _, e := range entries {
		newSum := sum + e.TokenEstimate
		if newSum <= maxTokens {
			out.WriteString(formatEntry(e, b.tagNames(e.Tags)))
			sum = newSum
			continue
		}
		if newSum-maxTokens <= 1 {
			out.WriteString(formatEntry(e, b.tagNames(e.Tags)))
			sum = newSum
		}
		break
	}
	return out.String()
}

// Options configures BuildWithOptions (§4.K).
type Options struct {
	Deduplicate         bool
	Hierarchical        bool
	AdaptiveBudget      bool
	IncludeDependencies bool
	SummaryThreshold    int
}

// Result is BuildWithOptions's return value. Output is populated unless
// Hierarchical was requested, in which case Overview/Details are.
type Result struct {
	Output   string
	Overview string
	Details  string
}

// BuildWithOptions applies dedup, summarization, adaptive budgeting, and
// optional hierarchical (overview/details) output (§4.K).
func (b *Builder) BuildWithOptions(opts Options) Result {
	entries := make([]Entry, len(b.Entries))
	copy(entries, b.Entries)

	if opts.SummaryThreshold > 0 {
		for i, e := range entries {
			if e.TokenEstimate > opts.SummaryThreshold {
				entries[i].Content = summarize(e.Content)
				entries[i].TokenEstimate = tokenEstimate(entries[i].Content)
			}
		}
	}

	if opts.Deduplicate {
		entries = dedup(entries)
	}

	effectiveBudget := b.MaxTokens
	if opts.AdaptiveBudget {
		total := 0
		for _, e := range entries {
			total += e.TokenEstimate
		}
		if total > 2*b.MaxTokens {
			effectiveBudget = total
		}
	}

	if opts.Hierarchical {
		var overview strings.Builder
		for _, e := range entries {
			overview.WriteString(formatEntryHeader(e, b.tagNames(e.Tags)))
		}
		return Result{
			Overview: overview.String(),
			Details:  b.assemble(entries, effectiveBudget),
		}
	}

	return Result{Output: b.assemble(entries, effectiveBudget)}
}

func dedup(entries []Entry) []Entry {
	seen := make(map[string]bool)
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		hash := hashutil.String(e.Content)
		if seen[hash] {
			continue
		}
		seen[hash] = true
		out = append(out, e)
	}
	return out
}

const elisionMarker = "\n... [elided] ...\n"

// summarize replaces content over the summary threshold with its first
// 10 and last 10 lines joined by an elision marker (§4.K).
func summarize(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= 20 {
		return content
	}
	head := strings.Join(lines[:10], "\n")
	tail := strings.Join(lines[len(lines)-10:], "\n")
	return head + elisionMarker + tail
}

// Stats renders a human-readable summary of the currently collected
// entries, for CLI/debug output.
func (b *Builder) Stats() string {
	total := 0
	for _, e := range b.Entries {
		total += e.TokenEstimate
	}
	return fmt.Sprintf("%s entries, %s tokens", humanize.Comma(int64(len(b.Entries))), humanize.Comma(int64(total)))
}
