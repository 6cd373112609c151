// Package snapshot implements component F: the self-describing overlay
// file format (version 3, versions 1 and 2 accepted on load), its
// depth-first writer, and its fixup-resolving reader.
package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ncruces/go-strftime"
	"golang.org/x/sys/unix"

	"github.com/codex-vfs/vfsh/internal/ast"
	"github.com/codex-vfs/vfsh/internal/hashutil"
	"github.com/codex-vfs/vfsh/internal/logger"
	"github.com/codex-vfs/vfsh/internal/vfsnode"
)

const CurrentVersion = 3

// Write walks root depth-first and emits the version-3 grammar to w. It
// does not emit a record for root itself, only its descendants (§4.F).
// sourceFile/sourceHash populate the optional H-line; pass "" for
// sourceFile to omit it.
func Write(w io.Writer, root *vfsnode.Dir, sourceFile, sourceHash string) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "# codex-vfs-overlay %d\n", CurrentVersion); err != nil {
		return err
	}
	if sourceFile != "" {
		if _, err := fmt.Fprintf(bw, "H %s %s\n", sourceFile, sourceHash); err != nil {
			return err
		}
	}
	children, _ := root.Children()
	if err := writeChildren(bw, "", children); err != nil {
		return err
	}
	return bw.Flush()
}

func writeChildren(w *bufio.Writer, prefix string, children map[string]vfsnode.Node) error {
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		node := children[name]
		path := prefix + "/" + name
		if err := writeNode(w, path, node); err != nil {
			return err
		}
	}
	return nil
}

func writeNode(w *bufio.Writer, path string, node vfsnode.Node) error {
	if enc, ok := node.(ast.Encodable); ok {
		payload := enc.EncodePayload()
		if _, err := fmt.Fprintf(w, "A %s %s %d\n", path, enc.TypeName(), len(payload)); err != nil {
			return err
		}
		if _, err := w.Write(payload); err != nil {
			return err
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return err
		}
		children, err := node.Children()
		if err == nil {
			return writeChildren(w, path, children)
		}
		return nil
	}

	if dir, ok := node.(*vfsnode.Dir); ok {
		if _, err := fmt.Fprintf(w, "D %s\n", path); err != nil {
			return err
		}
		children, _ := dir.Children()
		return writeChildren(w, path, children)
	}

	if file, ok := node.(*vfsnode.File); ok {
		if _, err := fmt.Fprintf(w, "F %s %d\n", path, len(file.Content)); err != nil {
			return err
		}
		if _, err := w.Write(file.Content); err != nil {
			return err
		}
		_, err := w.Write([]byte{'\n'})
		return err
	}

	return fmt.Errorf("snapshot: cannot serialize node %q of unknown variant", path)
}

// Backup creates a timestamped copy of destPath under a sibling .vfsh/
// directory before the writer overwrites destPath. Failure is logged by
// the caller and treated as non-fatal (§4.F).
func Backup(destPath string) error {
	if _, err := os.Stat(destPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	dir := filepath.Dir(destPath)
	backupDir := filepath.Join(dir, ".vfsh")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return err
	}
	stamp := strftime.Format("%Y-%m-%d-%H%M%S", time.Now())
	backupPath := filepath.Join(backupDir, filepath.Base(destPath)+"."+stamp+".bak")

	src, err := os.Open(destPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(backupPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// lockFile takes an advisory, non-blocking exclusive flock on f, guarding
// the single-writer assumption a save implies. Failure to acquire it is
// logged, not fatal: a read-only or networked filesystem may not support
// flock at all, and the write still has to go through (§5).
func lockFile(f *os.File) func() {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		logger.Warn("snapshot: advisory lock unavailable, writing without it", "path", f.Name(), "error", err)
		return func() {}
	}
	return func() {
		if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
			logger.Warn("snapshot: releasing advisory lock", "path", f.Name(), "error", err)
		}
	}
}

// SaveToFile writes root to destPath, backing up any existing file first
// (non-fatal on backup failure). It does not clear dirty bookkeeping;
// that is the caller's responsibility (the overlay.Store API).
func SaveToFile(destPath string, root *vfsnode.Dir, sourceFile string, onBackupError func(error)) error {
	if err := Backup(destPath); err != nil && onBackupError != nil {
		onBackupError(err)
	}
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()
	defer lockFile(f)()

	hash := ""
	if sourceFile != "" {
		if h, err := hashutil.File(sourceFile); err == nil {
			hash = h
		}
	}
	return Write(f, root, sourceFile, hash)
}
