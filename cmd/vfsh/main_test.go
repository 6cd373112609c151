package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// runCLI executes args against a fresh root command, capturing stdout.
// Each call is independent (a fresh newRootCmd()), matching how the real
// binary is invoked once per process. Subcommands print with plain
// fmt.Println/Printf rather than cmd.OutOrStdout(), so stdout itself is
// redirected rather than relying on cobra's output streams.
//
// loadSession resolves the user config dir from $HOME and the project
// dir by walking up from the working directory for a .vfsh or .git
// marker, falling back to the working directory itself. Both are
// pinned at snapshotPath's directory for the duration of the call, so
// a test run never touches the real ~/.vfsh or the module's own tree.
func runCLI(t *testing.T, snapshotPath string, args ...string) string {
	t.Helper()
	dir := filepath.Dir(snapshotPath)
	if err := os.MkdirAll(filepath.Join(dir, ".vfsh"), 0o755); err != nil {
		t.Fatalf("preparing project dir: %v", err)
	}

	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	origHome, hadHome := os.LookupEnv("HOME")
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	os.Setenv("HOME", dir)
	defer func() {
		os.Chdir(origWD)
		if hadHome {
			os.Setenv("HOME", origHome)
		} else {
			os.Unsetenv("HOME")
		}
	}()

	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--file", snapshotPath}, args...))

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	realStdout := os.Stdout
	os.Stdout = w

	execErr := cmd.Execute()

	os.Stdout = realStdout
	w.Close()
	captured, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		t.Fatalf("reading captured stdout: %v", err)
	}

	if execErr != nil {
		t.Fatalf("vfsh %v: %v (output so far: %s)", args, execErr, captured)
	}
	return string(captured)
}

func TestMountLsRoundTripsThroughSnapshotFile(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "test.vfs")
	hostDir := t.TempDir()

	runCLI(t, snap, "mount", "fs", "/host", hostDir)

	out := runCLI(t, snap, "mount", "ls")
	if !bytes.Contains([]byte(out), []byte("/host")) {
		t.Fatalf("mount ls output missing /host: %q", out)
	}
}

func TestOverlayAddAndListPersistsAcrossInvocations(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "test.vfs")

	runCLI(t, snap, "overlay", "add", "patch")
	out := runCLI(t, snap, "overlay", "ls")
	if !bytes.Contains([]byte(out), []byte("patch")) {
		t.Fatalf("overlay ls missing patch overlay: %q", out)
	}
}

func TestVfsWriteThenCatRoundTrips(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "test.vfs")

	runCLI(t, snap, "vfs", "write", "/notes.txt", "hello there")
	out := runCLI(t, snap, "vfs", "cat", "/notes.txt")
	if !bytes.Contains([]byte(out), []byte("hello there")) {
		t.Fatalf("cat missing written content: %q", out)
	}
}

func TestTagAddThenLsRoundTrips(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "test.vfs")

	runCLI(t, snap, "vfs", "write", "/notes.txt", "body")
	runCLI(t, snap, "tag", "add", "/notes.txt", "important")
	out := runCLI(t, snap, "tag", "ls", "/notes.txt")
	if !bytes.Contains([]byte(out), []byte("important")) {
		t.Fatalf("tag ls missing important: %q", out)
	}
}

func TestLogicInferAppliesHardcodedRule(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "test.vfs")

	out := runCLI(t, snap, "logic", "infer", "local-only")
	if !bytes.Contains([]byte(out), []byte("offline")) {
		t.Fatalf("expected the local-only-offline rule to fire, got: %q", out)
	}
}

func TestLogicRulesSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "test.vfs")

	runCLI(t, snap, "logic", "rules", "save")
	out := runCLI(t, snap, "logic", "infer", "local-only")
	if !bytes.Contains([]byte(out), []byte("offline")) {
		t.Fatalf("expected inference to still work after a rules save/reload round trip, got: %q", out)
	}
}

func TestContextBuildEmitsEntryHeader(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "test.vfs")

	runCLI(t, snap, "vfs", "write", "/doc.txt", "body text")
	runCLI(t, snap, "tag", "add", "/doc.txt", "important")
	out := runCLI(t, snap, "context", "/")
	if !bytes.Contains([]byte(out), []byte("=== /doc.txt ===")) {
		t.Fatalf("context output missing entry header: %q", out)
	}
}

func TestAutosaveFlushWritesSnapshotFile(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "test.vfs")

	runCLI(t, snap, "vfs", "write", "/f.txt", "x")
	runCLI(t, snap, "autosave", "flush")
	out := runCLI(t, snap, "snapshot", "ls")
	if !bytes.Contains([]byte(out), []byte("/f.txt")) {
		t.Fatalf("snapshot ls missing /f.txt after flush: %q", out)
	}
}
