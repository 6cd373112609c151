// Package planast implements the Plan-AST node family from §3: job lists,
// flat item lists (goals/ideas/dependencies/implemented-items/research
// topics), and free-form notes nodes, each with the markdown-ish textual
// form and §4.F.1 binary payload §4.C/§4.F.1 describe. Unlike the other
// AST families, plan nodes are writable: write(s) parses the same form
// read() emits.
package planast

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/codex-vfs/vfsh/internal/ast"
	"github.com/codex-vfs/vfsh/internal/bincodec"
	"github.com/codex-vfs/vfsh/internal/vfserr"
	"github.com/codex-vfs/vfsh/internal/vfsnode"
	"github.com/codex-vfs/vfsh/internal/vpath"
)

func init() {
	ast.Register("PlanJobs", decodeJobs)
	for _, k := range itemListKinds {
		kind := k
		ast.Register(kind.typeName, func(path string, payload []byte, addFixup func(ast.Fixup)) (vfsnode.Node, error) {
			return decodeItemList(kind, path, payload, addFixup)
		})
	}
	for _, k := range freeFormKinds {
		kind := k
		ast.Register(kind, func(path string, payload []byte, addFixup func(ast.Fixup)) (vfsnode.Node, error) {
			return decodeFreeForm(kind, path, payload, addFixup)
		})
	}
}

// leaf is shared by every plan node: not a directory, no children.
type leaf struct {
	vfsnode.Header
}

func newLeaf(name string) leaf {
	return leaf{Header: vfsnode.NewHeader(name, vfsnode.KindAst)}
}

func (l *leaf) IsDir() bool { return false }
func (l *leaf) Children() (map[string]vfsnode.Node, error) {
	return nil, fmt.Errorf("%s: %w", l.Name(), vfserr.ErrNotADir)
}

// --- PlanJobs ---

type Job struct {
	Description string
	Priority    int
	Completed   bool
	Assignee    string
}

type Jobs struct {
	leaf
	Items []Job
}

func NewJobs(name string, items []Job) *Jobs {
	return &Jobs{leaf: newLeaf(name), Items: items}
}

func (j *Jobs) TypeName() string { return "PlanJobs" }

// Read renders jobs sorted by (completed ascending, priority ascending,
// insertion order ascending); sort.SliceStable preserves insertion order
// for equal (completed, priority) keys.
func (j *Jobs) Read() (string, error) {
	sorted := make([]Job, len(j.Items))
	copy(sorted, j.Items)
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].Completed != sorted[b].Completed {
			return !sorted[a].Completed && sorted[b].Completed
		}
		return sorted[a].Priority < sorted[b].Priority
	})
	lines := make([]string, len(sorted))
	for i, job := range sorted {
		lines[i] = formatJobLine(job)
	}
	return strings.Join(lines, "\n"), nil
}

func (j *Jobs) Write(s string) error {
	var items []Job
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		job, err := parseJobLine(line)
		if err != nil {
			return err
		}
		items = append(items, job)
	}
	j.Items = items
	return nil
}

// AddJob appends a new, incomplete job.
func (j *Jobs) AddJob(description string, priority int, assignee string) {
	j.Items = append(j.Items, Job{Description: description, Priority: priority, Assignee: assignee})
}

// CompleteJob marks the job at index (in insertion order, not read()'s
// sorted order) completed.
func (j *Jobs) CompleteJob(index int) error {
	if index < 0 || index >= len(j.Items) {
		return fmt.Errorf("job index %d out of range [0,%d): %w", index, len(j.Items), vfserr.ErrNotFound)
	}
	j.Items[index].Completed = true
	return nil
}

func (j *Jobs) EncodePayload() []byte {
	w := bincodec.NewWriter().U32(uint32(len(j.Items)))
	for _, job := range j.Items {
		completed := uint8(0)
		if job.Completed {
			completed = 1
		}
		w.Str(job.Description).U32(uint32(job.Priority)).U8(completed).Str(job.Assignee)
	}
	return w.Bytes()
}

func (j *Jobs) Dump(int) string {
	s, _ := j.Read()
	return s
}

func decodeJobs(path string, payload []byte, _ func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	items := make([]Job, n)
	for i := range items {
		desc, err := r.Str()
		if err != nil {
			return nil, err
		}
		priority, err := r.U32()
		if err != nil {
			return nil, err
		}
		completed, err := r.U8()
		if err != nil {
			return nil, err
		}
		assignee, err := r.Str()
		if err != nil {
			return nil, err
		}
		items[i] = Job{Description: desc, Priority: int(priority), Completed: completed != 0, Assignee: assignee}
	}
	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}
	return NewJobs(vpath.Basename(path), items), nil
}

func formatJobLine(j Job) string {
	mark := " "
	if j.Completed {
		mark = "x"
	}
	line := fmt.Sprintf("[%s] P%d %s", mark, j.Priority, j.Description)
	if j.Assignee != "" {
		line += fmt.Sprintf(" (@%s)", j.Assignee)
	}
	return line
}

func parseJobLine(line string) (Job, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") {
		return Job{}, fmt.Errorf("job line %q missing leading mark: %w", line, vfserr.ErrParse)
	}
	closeIdx := strings.IndexByte(line, ']')
	if closeIdx < 0 {
		return Job{}, fmt.Errorf("job line %q missing ']': %w", line, vfserr.ErrParse)
	}
	mark := strings.TrimSpace(line[1:closeIdx])
	completed := mark == "x" || mark == "X"

	rest := strings.TrimSpace(line[closeIdx+1:])
	if !strings.HasPrefix(rest, "P") {
		return Job{}, fmt.Errorf("job line %q missing priority: %w", line, vfserr.ErrParse)
	}
	rest = rest[1:]
	sp := strings.IndexAny(rest, " \t")
	if sp < 0 {
		return Job{}, fmt.Errorf("job line %q missing description: %w", line, vfserr.ErrParse)
	}
	priority, err := strconv.Atoi(rest[:sp])
	if err != nil {
		return Job{}, fmt.Errorf("job line %q: bad priority: %w", line, vfserr.ErrParse)
	}
	rest = strings.TrimSpace(rest[sp+1:])

	assignee := ""
	if idx := strings.LastIndex(rest, "(@"); idx >= 0 && strings.HasSuffix(rest, ")") {
		assignee = rest[idx+2 : len(rest)-1]
		rest = strings.TrimSpace(rest[:idx])
	}
	return Job{Description: rest, Priority: priority, Completed: completed, Assignee: assignee}, nil
}

// --- flat item lists: Goals, Ideas, Deps, Implemented, Research ---

type itemListKind struct {
	typeName string
}

var itemListKinds = []itemListKind{
	{"PlanGoals"}, {"PlanIdeas"}, {"PlanDeps"}, {"PlanImplemented"}, {"PlanResearch"},
}

type ItemList struct {
	leaf
	Kind  string
	Items []string
}

func NewItemList(kind, name string, items []string) *ItemList {
	return &ItemList{leaf: newLeaf(name), Kind: kind, Items: items}
}

func (l *ItemList) TypeName() string { return l.Kind }

func (l *ItemList) Read() (string, error) {
	lines := make([]string, len(l.Items))
	for i, item := range l.Items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n"), nil
}

func (l *ItemList) Dump(int) string {
	s, _ := l.Read()
	return s
}

func (l *ItemList) Write(s string) error {
	var items []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, strings.TrimPrefix(line, "- "))
	}
	l.Items = items
	return nil
}

func (l *ItemList) EncodePayload() []byte {
	w := bincodec.NewWriter().U32(uint32(len(l.Items)))
	for _, item := range l.Items {
		w.Str(item)
	}
	return w.Bytes()
}

func decodeItemList(kind itemListKind, path string, payload []byte, _ func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	items := make([]string, n)
	for i := range items {
		items[i], err = r.Str()
		if err != nil {
			return nil, err
		}
	}
	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}
	return NewItemList(kind.typeName, vpath.Basename(path), items), nil
}

// --- free-form: Root, SubPlan, Strategy, Notes ---

var freeFormKinds = []string{"PlanRoot", "PlanSubPlan", "PlanStrategy", "PlanNotes"}

type FreeForm struct {
	leaf
	Kind    string
	Content string
}

func NewFreeForm(kind, name, content string) *FreeForm {
	return &FreeForm{leaf: newLeaf(name), Kind: kind, Content: content}
}

func (f *FreeForm) TypeName() string { return f.Kind }
func (f *FreeForm) Read() (string, error) { return f.Content, nil }
func (f *FreeForm) Dump(int) string       { return f.Content }
func (f *FreeForm) Write(s string) error {
	f.Content = s
	return nil
}
func (f *FreeForm) EncodePayload() []byte { return bincodec.NewWriter().Str(f.Content).Bytes() }

func decodeFreeForm(kind, path string, payload []byte, _ func(ast.Fixup)) (vfsnode.Node, error) {
	r := bincodec.NewReader(payload)
	content, err := r.Str()
	if err != nil {
		return nil, err
	}
	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}
	return NewFreeForm(kind, vpath.Basename(path), content), nil
}
