package workdir

import "testing"

func TestUpdateDirectoryContextOldest(t *testing.T) {
	w := New(Oldest)
	if err := w.UpdateDirectoryContext("/x", []int{1, 0}); err != nil {
		t.Fatal(err)
	}
	if w.PrimaryOverlay != 0 {
		t.Fatalf("expected primary 0, got %d", w.PrimaryOverlay)
	}
	if len(w.Overlays) != 2 || w.Overlays[0] != 0 || w.Overlays[1] != 1 {
		t.Fatalf("overlays = %v", w.Overlays)
	}
}

func TestUpdateDirectoryContextNewest(t *testing.T) {
	w := New(Newest)
	if err := w.UpdateDirectoryContext("/x", []int{0, 1}); err != nil {
		t.Fatal(err)
	}
	if w.PrimaryOverlay != 1 {
		t.Fatalf("expected primary 1, got %d", w.PrimaryOverlay)
	}
}

func TestUpdateDirectoryContextManualKeepsPrevious(t *testing.T) {
	w := New(Manual)
	w.PrimaryOverlay = 1
	if err := w.UpdateDirectoryContext("/x", []int{0, 1}); err != nil {
		t.Fatal(err)
	}
	if w.PrimaryOverlay != 1 {
		t.Fatalf("expected manual to keep primary 1, got %d", w.PrimaryOverlay)
	}
}

func TestUpdateDirectoryContextManualFallsBackWhenPrimaryGone(t *testing.T) {
	w := New(Manual)
	w.PrimaryOverlay = 5
	if err := w.UpdateDirectoryContext("/x", []int{0, 1}); err != nil {
		t.Fatal(err)
	}
	if w.PrimaryOverlay != 0 {
		t.Fatalf("expected fallback to smallest id 0, got %d", w.PrimaryOverlay)
	}
}

func TestUpdateDirectoryContextNoHostFails(t *testing.T) {
	w := New(Oldest)
	if err := w.UpdateDirectoryContext("/x", nil); err == nil {
		t.Fatal("expected NotADir error")
	}
}

func TestSelectOverlayManualAmbiguous(t *testing.T) {
	w := New(Manual)
	w.PrimaryOverlay = 9
	if _, err := w.SelectOverlay([]int{0, 1}); err == nil {
		t.Fatal("expected Ambiguous error")
	}
}

func TestAdjustContextAfterUnmountRenumbers(t *testing.T) {
	w := New(Oldest)
	w.Overlays = []int{0, 1, 2}
	w.PrimaryOverlay = 2
	w.AdjustContextAfterUnmount(1)
	if len(w.Overlays) != 2 || w.Overlays[0] != 0 || w.Overlays[1] != 1 {
		t.Fatalf("overlays after unmount = %v", w.Overlays)
	}
	if w.PrimaryOverlay != 1 {
		t.Fatalf("expected primary renumbered to 1, got %d", w.PrimaryOverlay)
	}
}

func TestAdjustContextAfterUnmountDefaultsWhenEmpty(t *testing.T) {
	w := New(Oldest)
	w.Overlays = []int{1}
	w.PrimaryOverlay = 1
	w.AdjustContextAfterUnmount(1)
	if len(w.Overlays) != 1 || w.Overlays[0] != 0 {
		t.Fatalf("expected default overlay list [0], got %v", w.Overlays)
	}
	if w.PrimaryOverlay != 0 {
		t.Fatalf("expected primary default 0, got %d", w.PrimaryOverlay)
	}
}
