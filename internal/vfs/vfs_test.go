package vfs

import (
	"testing"

	"github.com/codex-vfs/vfsh/internal/journal"
	"github.com/codex-vfs/vfsh/internal/vfsnode"
	"github.com/codex-vfs/vfsh/internal/workdir"
)

// E1: mkdir and write.
func TestMkdirAndWriteScenarioE1(t *testing.T) {
	v := New(workdir.Oldest, true)

	if err := v.Mkdir("/a/b", 0); err != nil {
		t.Fatal(err)
	}
	if err := v.Write("/a/b/c.txt", []byte("hello"), 0); err != nil {
		t.Fatal(err)
	}

	content, err := v.ReadPath("/a/b/c.txt")
	if err != nil {
		t.Fatal(err)
	}
	if content != "hello" {
		t.Fatalf("content = %q", content)
	}

	dirty, err := v.Overlays.OverlayDirty(0)
	if err != nil {
		t.Fatal(err)
	}
	if !dirty {
		t.Fatal("expected overlay 0 to be dirty")
	}

	ids := v.OverlaysForPath("/a/b")
	if len(ids) != 1 || ids[0] != 0 {
		t.Fatalf("overlaysForPath(/a/b) = %v", ids)
	}
}

// E2: overlay arbitration under each conflict policy.
func TestOverlayArbitrationScenarioE2(t *testing.T) {
	run := func(policy workdir.ConflictPolicy, primary int, want string) {
		v := New(policy, true)
		overlay1 := v.Overlays.RegisterOverlay("patch", vfsnode.NewDir("/"))
		if err := v.Mkdir("/x", overlay1); err != nil {
			t.Fatal(err)
		}
		if err := v.Mkdir("/x", 0); err != nil {
			t.Fatal(err)
		}
		if err := v.Write("/x/y", []byte("from0"), 0); err != nil {
			t.Fatal(err)
		}
		if err := v.Write("/x/y", []byte("from1"), overlay1); err != nil {
			t.Fatal(err)
		}

		v.Workdir.PrimaryOverlay = primary
		if err := v.Workdir.UpdateDirectoryContext("/x", v.OverlaysForPath("/x")); err != nil {
			t.Fatal(err)
		}

		node, err := v.Resolve("/x/y")
		if err != nil {
			t.Fatal(err)
		}
		got, err := node.Read()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("policy=%v primary=%d: got %q, want %q", policy, primary, got, want)
		}
	}

	run(workdir.Newest, 0, "from1")
	run(workdir.Oldest, 0, "from0")
	run(workdir.Manual, 0, "from0")
	run(workdir.Manual, 1, "from1")
}

func TestMountFilesystemAndPathMapping(t *testing.T) {
	v := New(workdir.Oldest, true)
	if err := v.MountFilesystem("/host", "/tmp/example"); err != nil {
		t.Fatal(err)
	}
	hostPath, ok := v.MapToHostPath("/host/sub/file.txt")
	if !ok || hostPath != "/tmp/example/sub/file.txt" {
		t.Fatalf("MapToHostPath = %q, %v", hostPath, ok)
	}
	vfsPath, ok := v.MapFromHostPath("/tmp/example/sub/file.txt")
	if !ok || vfsPath != "/host/sub/file.txt" {
		t.Fatalf("MapFromHostPath = %q, %v", vfsPath, ok)
	}
}

func TestMountDeniedWhenNotAllowed(t *testing.T) {
	v := New(workdir.Oldest, false)
	if err := v.MountFilesystem("/host", "/tmp/example"); err == nil {
		t.Fatal("expected MountDenied")
	}
}

func TestMountRefusesDoubleMount(t *testing.T) {
	v := New(workdir.Oldest, true)
	if err := v.MountFilesystem("/host", "/tmp/example"); err != nil {
		t.Fatal(err)
	}
	if err := v.MountFilesystem("/host", "/tmp/other"); err == nil {
		t.Fatal("expected MountBusy")
	}
}

func TestMountRecordsJournalEntryWhenAttached(t *testing.T) {
	j, err := journal.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { j.Close() })

	v := New(workdir.Oldest, true)
	v.Journal = j
	if err := v.MountFilesystem("/host", "/tmp/example"); err != nil {
		t.Fatal(err)
	}
	if err := v.Unmount("/host"); err != nil {
		t.Fatal(err)
	}

	mounts, err := j.ListByKind(journal.EventMount)
	if err != nil {
		t.Fatal(err)
	}
	if len(mounts) != 1 {
		t.Fatalf("expected 1 mount entry, got %d", len(mounts))
	}
	unmounts, err := j.ListByKind(journal.EventUnmount)
	if err != nil {
		t.Fatal(err)
	}
	if len(unmounts) != 1 {
		t.Fatalf("expected 1 unmount entry, got %d", len(unmounts))
	}
}

func TestRmClearsTagsWhenLastOverlayLosesPath(t *testing.T) {
	v := New(workdir.Oldest, true)
	if err := v.Write("/f.txt", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	node, err := v.ResolveForOverlay("/f.txt", 0)
	if err != nil {
		t.Fatal(err)
	}
	v.TagStorage.AddTag(node, v.TagRegistry.RegisterTag("important"))
	if err := v.Rm("/f.txt", 0); err != nil {
		t.Fatal(err)
	}
	if v.TagStorage.GetTags(node) != nil {
		t.Fatal("expected tags cleared after last-overlay removal")
	}
}
