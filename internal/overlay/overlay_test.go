package overlay

import (
	"testing"

	"github.com/codex-vfs/vfsh/internal/vfsnode"
)

func TestNewStoreHasBaseOverlay(t *testing.T) {
	s := NewStore()
	if s.Count() != 1 {
		t.Fatalf("expected 1 overlay, got %d", s.Count())
	}
	name, err := s.OverlayName(0)
	if err != nil || name != "base" {
		t.Fatalf("OverlayName(0) = %q, %v", name, err)
	}
}

func TestRegisterAndDirtyLifecycle(t *testing.T) {
	s := NewStore()
	id := s.RegisterOverlay("work", vfsnode.NewDir("/"))
	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}
	dirty, _ := s.OverlayDirty(id)
	if dirty {
		t.Fatal("new overlay should start clean")
	}
	if err := s.MarkOverlayDirty(id); err != nil {
		t.Fatal(err)
	}
	dirty, _ = s.OverlayDirty(id)
	if !dirty {
		t.Fatal("expected dirty after MarkOverlayDirty")
	}
	if err := s.ClearOverlayDirty(id); err != nil {
		t.Fatal(err)
	}
	dirty, _ = s.OverlayDirty(id)
	if dirty {
		t.Fatal("expected clean after ClearOverlayDirty")
	}
}

func TestFindOverlayByNameReturnsLowestMatch(t *testing.T) {
	s := NewStore()
	s.RegisterOverlay("dup", vfsnode.NewDir("/"))
	s.RegisterOverlay("dup", vfsnode.NewDir("/"))
	id, ok := s.FindOverlayByName("dup")
	if !ok || id != 1 {
		t.Fatalf("FindOverlayByName(dup) = %d, %v", id, ok)
	}
}

func TestSetOverlaySourceDoesNotWrite(t *testing.T) {
	s := NewStore()
	id := s.RegisterOverlay("work", vfsnode.NewDir("/"))
	if err := s.SetOverlaySource(id, "/tmp/work.vfs"); err != nil {
		t.Fatal(err)
	}
	path, _, _, ok, err := s.OverlaySource(id)
	if err != nil || !ok || path != "/tmp/work.vfs" {
		t.Fatalf("OverlaySource = %q, %v, %v", path, ok, err)
	}
}

func TestRemoveOverlayRenumbers(t *testing.T) {
	s := NewStore()
	mid := s.RegisterOverlay("mid", vfsnode.NewDir("/"))
	top := s.RegisterOverlay("top", vfsnode.NewDir("/"))
	if err := s.RemoveOverlay(mid); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 2 {
		t.Fatalf("expected 2 overlays after removal, got %d", s.Count())
	}
	name, err := s.OverlayName(mid)
	if err != nil || name != "top" {
		t.Fatalf("expected former top overlay at id %d, got %q, %v", mid, name, err)
	}
	_ = top
}

func TestRemoveBaseOverlayRefused(t *testing.T) {
	s := NewStore()
	if err := s.RemoveOverlay(0); err == nil {
		t.Fatal("expected removing overlay 0 to be refused")
	}
}

func TestUnknownOverlayIsNotFound(t *testing.T) {
	s := NewStore()
	if _, err := s.OverlayRoot(5); err == nil {
		t.Fatal("expected error for unknown overlay id")
	}
}
