// Package workdir implements component M: the current path, the set of
// overlays that host it, and the conflict-policy arbitration between
// them (§4.M).
package workdir

import (
	"fmt"
	"sort"

	"github.com/codex-vfs/vfsh/internal/vfserr"
)

// ConflictPolicy selects which overlay's node wins when more than one
// overlay hosts the working directory's path.
type ConflictPolicy int

const (
	Manual ConflictPolicy = iota
	Oldest
	Newest
)

func (p ConflictPolicy) String() string {
	switch p {
	case Manual:
		return "manual"
	case Oldest:
		return "oldest"
	case Newest:
		return "newest"
	default:
		return "unknown"
	}
}

// WorkingDirectory is the §3 WorkingDirectory record.
type WorkingDirectory struct {
	Path           string
	Overlays       []int
	PrimaryOverlay int
	ConflictPolicy ConflictPolicy
}

func New(policy ConflictPolicy) *WorkingDirectory {
	return &WorkingDirectory{Path: "/", Overlays: []int{0}, PrimaryOverlay: 0, ConflictPolicy: policy}
}

func sortedUnique(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// UpdateDirectoryContext sets cwd.overlays from hostingIds (the overlays
// that resolve path — the caller performs that lookup) and selects the
// new primary per the conflict policy. Fails NotADir if hostingIds is
// empty.
func (w *WorkingDirectory) UpdateDirectoryContext(path string, hostingIds []int) error {
	if len(hostingIds) == 0 {
		return fmt.Errorf("%q: %w", path, vfserr.ErrNotADir)
	}
	w.Path = path
	w.Overlays = sortedUnique(hostingIds)
	w.PrimaryOverlay = w.selectForUpdate(w.Overlays)
	return nil
}

func (w *WorkingDirectory) selectForUpdate(candidates []int) int {
	switch w.ConflictPolicy {
	case Oldest:
		return candidates[0]
	case Newest:
		return candidates[len(candidates)-1]
	default: // Manual
		for _, id := range candidates {
			if id == w.PrimaryOverlay {
				return w.PrimaryOverlay
			}
		}
		return candidates[0]
	}
}

// SelectOverlay performs the same arbitration as UpdateDirectoryContext's
// primary selection, but Manual fails Ambiguous instead of silently
// falling back when the previous primary isn't among candidates.
func (w *WorkingDirectory) SelectOverlay(candidates []int) (int, error) {
	sorted := sortedUnique(candidates)
	if len(sorted) == 0 {
		return 0, fmt.Errorf("no candidate overlays: %w", vfserr.ErrNotADir)
	}
	switch w.ConflictPolicy {
	case Oldest:
		return sorted[0], nil
	case Newest:
		return sorted[len(sorted)-1], nil
	default: // Manual
		for _, id := range sorted {
			if id == w.PrimaryOverlay {
				return w.PrimaryOverlay, nil
			}
		}
		return 0, fmt.Errorf("manual policy: primary overlay %d not among %v: %w", w.PrimaryOverlay, sorted, vfserr.ErrAmbiguous)
	}
}

// AdjustContextAfterUnmount removes removedId from the overlay list and
// decrements every id above it, keeping WorkingDirectory consistent with
// an overlay.Store renumbering (§4.M, invariant 5).
func (w *WorkingDirectory) AdjustContextAfterUnmount(removedID int) {
	next := make([]int, 0, len(w.Overlays))
	for _, id := range w.Overlays {
		switch {
		case id == removedID:
			continue
		case id > removedID:
			next = append(next, id-1)
		default:
			next = append(next, id)
		}
	}
	w.Overlays = next

	switch {
	case w.PrimaryOverlay == removedID:
		if len(next) > 0 {
			w.PrimaryOverlay = next[0]
		} else {
			w.PrimaryOverlay = 0
		}
	case w.PrimaryOverlay > removedID:
		w.PrimaryOverlay--
	}

	if len(w.Overlays) == 0 {
		w.Overlays = []int{0}
		w.PrimaryOverlay = 0
	}
}
