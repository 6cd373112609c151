package autosave

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codex-vfs/vfsh/internal/snapshot"
	"github.com/codex-vfs/vfsh/internal/vfs"
	"github.com/codex-vfs/vfsh/internal/workdir"
)

func newTestSaver(t *testing.T) (*Saver, string) {
	t.Helper()
	dir := t.TempDir()
	v := vfs.New(workdir.Oldest, true)
	s := NewSaver(v, filepath.Join(dir, "save.vfs"))
	s.RecoveryPath = filepath.Join(dir, ".vfsh", "recovery.vfs")
	s.DelaySeconds = 10
	s.CrashRecoveryIntervalSeconds = 180
	return s, dir
}

func TestTickFlushesAfterQuietDelay(t *testing.T) {
	s, _ := newTestSaver(t)
	if err := s.Vfs.Write("/a.txt", []byte("hello"), 0); err != nil {
		t.Fatal(err)
	}

	base := time.Now()
	s.tick(base) // becomes dirty-since now, not yet due
	if _, err := os.Stat(s.DestPath); err == nil {
		t.Fatal("expected no flush before delay elapses")
	}

	s.tick(base.Add(9 * time.Second)) // still short of 10s
	if _, err := os.Stat(s.DestPath); err == nil {
		t.Fatal("expected no flush at 9s")
	}

	s.tick(base.Add(10 * time.Second)) // delay elapsed
	if _, err := os.Stat(s.DestPath); err != nil {
		t.Fatalf("expected flush at 10s: %v", err)
	}

	dirty, err := s.Vfs.Overlays.OverlayDirty(0)
	if err != nil {
		t.Fatal(err)
	}
	if dirty {
		t.Fatal("expected overlay 0 clean after flush")
	}
}

func TestTickDoesNothingWhenNotDirty(t *testing.T) {
	s, _ := newTestSaver(t)
	s.tick(time.Now().Add(1 * time.Hour))
	if _, err := os.Stat(s.DestPath); err == nil {
		t.Fatal("expected no flush when nothing is dirty")
	}
}

func TestTickWritesCrashRecoverySnapshotOnInterval(t *testing.T) {
	s, _ := newTestSaver(t)
	if err := s.Vfs.Write("/a.txt", []byte("hello"), 0); err != nil {
		t.Fatal(err)
	}

	base := time.Now()
	s.lastRecovery = base
	s.tick(base.Add(179 * time.Second))
	if _, err := os.Stat(s.RecoveryPath); err == nil {
		t.Fatal("expected no recovery snapshot before 180s")
	}

	s.tick(base.Add(180 * time.Second))
	f, err := os.Open(s.RecoveryPath)
	if err != nil {
		t.Fatalf("expected recovery snapshot at 180s: %v", err)
	}
	defer f.Close()

	result, err := snapshot.Load(f)
	if err != nil {
		t.Fatal(err)
	}
	children, _ := result.Root.Children()
	if _, ok := children["a.txt"]; !ok {
		t.Fatalf("expected a.txt in recovery snapshot, got %v", children)
	}
}

func TestFlushPropagatesErrorToCaller(t *testing.T) {
	s, dir := newTestSaver(t)
	// Point DestPath at a directory that cannot be created as a file.
	s.DestPath = filepath.Join(dir, "nonexistent-parent", "sub", "save.vfs")
	if err := s.Flush(); err == nil {
		t.Fatal("expected Flush to surface the create error")
	}
}

func TestStopHaltsRunLoop(t *testing.T) {
	s, _ := newTestSaver(t)
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	s.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not observe Stop within 3s")
	}
}
