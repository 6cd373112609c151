package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codex-vfs/vfsh/internal/config"
	"github.com/codex-vfs/vfsh/internal/journal"
	"github.com/codex-vfs/vfsh/internal/logger"
	"github.com/codex-vfs/vfsh/internal/snapshot"
	"github.com/codex-vfs/vfsh/internal/vfs"
)

// vfsh is a thin cobra dispatcher over the library: it never parses an
// interactive shell grammar itself (that is out of scope), it only loads
// a snapshot file, applies one mount/overlay/tag/logic/context/autosave
// operation, and (except for read-only subcommands) saves the result
// back out. Every subcommand is independent; there is no long-lived
// session between invocations beyond the snapshot file on disk.
var snapshotFlag string

// newRootCmd builds the dispatcher, factored out of main so tests can
// execute it directly against a temporary working set instead of the
// real process environment.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vfsh",
		Short: "vfsh — layered virtual filesystem with tags and a logic engine",
		Long:  "A CLI over the codex-vfs library: mount host/library/remote content into a layered VFS, snapshot it, tag nodes, run the logic engine over tags, and assemble context windows.",
	}
	root.PersistentFlags().StringVar(&snapshotFlag, "file", "./vfsh.vfs", "snapshot file to load and save")

	root.AddCommand(
		vfsCmd(),
		mountCmd(),
		overlayCmd(),
		snapshotCmd(),
		tagCmd(),
		logicCmd(),
		contextCmd(),
		autosaveCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// session bundles a loaded Vfs with the config it was built from and an
// optional journal, the shape every subcommand's RunE operates on.
type session struct {
	Vfs     *vfs.Vfs
	Config  *config.Config
	Journal *journal.Store
}

// loadSession builds a Vfs from the merged user/project config, opens
// the audit journal under the project's .vfsh directory, and loads
// snapshotFlag into overlay 0 if it already exists.
func loadSession() (*session, error) {
	userDir, err := config.GetUserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolving user config dir: %w", err)
	}
	projectDir, err := config.GetProjectDir()
	if err != nil {
		return nil, fmt.Errorf("resolving project dir: %w", err)
	}
	return loadSessionFromDirs(userDir, projectDir)
}

// loadSessionFromDirs is loadSession with explicit directories, so tests
// can point it at a t.TempDir() pair instead of the real process
// environment (~/.vfsh, the actual project directory).
func loadSessionFromDirs(userDir, projectDir string) (*session, error) {
	mgr := config.NewManager()
	if err := mgr.Load(userDir, projectDir); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := mgr.Get()

	v := vfs.New(cfg.ConflictPolicyValue(), cfg.MountAllowedBool())
	v.LogicEngine.AddHardcodedRules()

	if err := config.EnsureConfigDirs(userDir, projectDir); err != nil {
		logger.Warn("could not ensure config dirs", "error", err)
	}
	jrn, err := journal.Open(projectDir + "/.vfsh/journal.db")
	if err != nil {
		logger.Warn("journal unavailable, continuing without an audit trail", "error", err)
		jrn = nil
	}
	v.Journal = jrn

	if _, err := os.Stat(snapshotFlag); err == nil {
		f, err := os.Open(snapshotFlag)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", snapshotFlag, err)
		}
		defer f.Close()
		result, err := snapshot.Load(f)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", snapshotFlag, err)
		}
		root, err := v.Overlays.OverlayRoot(0)
		if err != nil {
			return nil, err
		}
		children, _ := result.Root.Children()
		for name, node := range children {
			root.Put(name, node)
		}
	}

	return &session{Vfs: v, Config: cfg, Journal: jrn}, nil
}

// save writes overlay 0 back to snapshotFlag, backing up any existing
// file first.
func (s *session) save() error {
	root, err := s.Vfs.Overlays.OverlayRoot(0)
	if err != nil {
		return err
	}
	return snapshot.SaveToFile(snapshotFlag, root, "", func(backupErr error) {
		logger.Warn("snapshot backup failed", "error", backupErr)
	})
}

func (s *session) close() {
	if s.Journal != nil {
		s.Journal.Close()
	}
}
