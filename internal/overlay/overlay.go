// Package overlay implements component D: the per-overlay root, name,
// dirty bit, and source bookkeeping, plus the contiguous id sequence the
// VFS façade and WorkingDirectory both index into.
package overlay

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/codex-vfs/vfsh/internal/vfserr"
	"github.com/codex-vfs/vfsh/internal/vfsnode"
)

// Overlay is one transparent layer of the VFS (§3). ExternalID is a
// process-independent identifier (not used for resolution — ids are the
// sequence position, per invariant 5) kept so external tooling can refer
// to an overlay stably across a renumbering.
type Overlay struct {
	ExternalID string
	Name       string
	Root       *vfsnode.Dir

	SourcePath string
	SourceFile string
	SourceHash string
	hasSource  bool

	Dirty bool
}

// Store owns the contiguous overlay id sequence. Overlay 0 is the
// always-present base, created by NewStore.
type Store struct {
	overlays []*Overlay
}

func NewStore() *Store {
	s := &Store{}
	s.RegisterOverlay("base", vfsnode.NewDir("/"))
	return s
}

// RegisterOverlay appends a new overlay and returns its id.
func (s *Store) RegisterOverlay(name string, root *vfsnode.Dir) int {
	s.overlays = append(s.overlays, &Overlay{
		ExternalID: uuid.NewString(),
		Name:       name,
		Root:       root,
	})
	return len(s.overlays) - 1
}

func (s *Store) get(id int) (*Overlay, error) {
	if id < 0 || id >= len(s.overlays) {
		return nil, fmt.Errorf("overlay %d: %w", id, vfserr.ErrNotFound)
	}
	return s.overlays[id], nil
}

func (s *Store) OverlayRoot(id int) (*vfsnode.Dir, error) {
	o, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return o.Root, nil
}

func (s *Store) OverlayName(id int) (string, error) {
	o, err := s.get(id)
	if err != nil {
		return "", err
	}
	return o.Name, nil
}

// OverlaySource reports the recorded destination path/file/hash, and
// whether SetOverlaySource or SetOverlayHeader has ever been called for
// this overlay.
func (s *Store) OverlaySource(id int) (path, file, hash string, ok bool, err error) {
	o, err := s.get(id)
	if err != nil {
		return "", "", "", false, err
	}
	return o.SourcePath, o.SourceFile, o.SourceHash, o.hasSource, nil
}

func (s *Store) OverlayDirty(id int) (bool, error) {
	o, err := s.get(id)
	if err != nil {
		return false, err
	}
	return o.Dirty, nil
}

// SetOverlaySource records the destination path without writing (§4.D).
func (s *Store) SetOverlaySource(id int, hostPath string) error {
	o, err := s.get(id)
	if err != nil {
		return err
	}
	o.SourcePath = hostPath
	o.hasSource = true
	return nil
}

// SetOverlayHeader records the source_file/source_hash pair a loaded
// snapshot's optional H-line carried.
func (s *Store) SetOverlayHeader(id int, sourceFile, sourceHash string) error {
	o, err := s.get(id)
	if err != nil {
		return err
	}
	o.SourceFile = sourceFile
	o.SourceHash = sourceHash
	o.hasSource = true
	return nil
}

func (s *Store) MarkOverlayDirty(id int) error {
	o, err := s.get(id)
	if err != nil {
		return err
	}
	o.Dirty = true
	return nil
}

func (s *Store) ClearOverlayDirty(id int) error {
	o, err := s.get(id)
	if err != nil {
		return err
	}
	o.Dirty = false
	return nil
}

// FindOverlayByName returns the lowest id whose name matches.
func (s *Store) FindOverlayByName(name string) (int, bool) {
	for id, o := range s.overlays {
		if o.Name == name {
			return id, true
		}
	}
	return 0, false
}

func (s *Store) Count() int { return len(s.overlays) }

// RemoveOverlay deletes overlay id and renumbers every higher id down by
// one, per invariant 5. Removing overlay 0 (the base) is refused.
func (s *Store) RemoveOverlay(id int) error {
	if id == 0 {
		return fmt.Errorf("overlay 0 is the permanent base: %w", vfserr.ErrInternal)
	}
	if _, err := s.get(id); err != nil {
		return err
	}
	s.overlays = append(s.overlays[:id], s.overlays[id+1:]...)
	return nil
}
