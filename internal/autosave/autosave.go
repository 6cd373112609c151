// Package autosave implements component L: a 1-second tick loop that
// flushes dirty overlays to their save file after a quiet delay and
// periodically writes an independent crash-recovery snapshot, modeled on
// the teacher's timeline.Engine poll loop.
package autosave

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/codex-vfs/vfsh/internal/journal"
	"github.com/codex-vfs/vfsh/internal/logger"
	"github.com/codex-vfs/vfsh/internal/snapshot"
	"github.com/codex-vfs/vfsh/internal/vfs"
)

const (
	DefaultDelaySeconds                 = 10
	DefaultCrashRecoveryIntervalSeconds = 180
	DefaultRecoveryPath                 = "./.vfsh/recovery.vfs"

	tickInterval = time.Second
)

// Saver drives the autosave of dirty overlays and overlay 0's
// crash-recovery snapshot (§4.L).
type Saver struct {
	Vfs          *vfs.Vfs
	DestPath     string
	RecoveryPath string

	// Journal, when set, records every flush and recovery snapshot for
	// audit purposes. Nil is a valid, fully functional zero value.
	Journal *journal.Store

	DelaySeconds                 int
	CrashRecoveryIntervalSeconds int

	shouldStop atomic.Bool

	dirtySince   time.Time
	lastRecovery time.Time
}

func NewSaver(v *vfs.Vfs, destPath string) *Saver {
	return &Saver{
		Vfs:                          v,
		DestPath:                     destPath,
		RecoveryPath:                 DefaultRecoveryPath,
		DelaySeconds:                 DefaultDelaySeconds,
		CrashRecoveryIntervalSeconds: DefaultCrashRecoveryIntervalSeconds,
	}
}

// Stop requests cooperative shutdown; Run observes it on its next tick,
// not immediately, matching the teacher's ticker-driven poll loop shape.
func (s *Saver) Stop() {
	s.shouldStop.Store(true)
}

// Run ticks once a second until ctx is cancelled or Stop is called.
// Every error is downgraded to a log line; Run itself never returns a
// flush or snapshot error, only ctx.Err().
func (s *Saver) Run(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	s.lastRecovery = time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if s.shouldStop.Load() {
				return nil
			}
			s.tick(now)
		}
	}
}

// tick is the loop body, factored out so tests can drive it with
// synthetic timestamps instead of waiting on a real ticker.
func (s *Saver) tick(now time.Time) {
	if s.anyOverlayDirty() {
		if s.dirtySince.IsZero() {
			s.dirtySince = now
		}
		if now.Sub(s.dirtySince) >= time.Duration(s.DelaySeconds)*time.Second {
			if err := s.Flush(); err != nil {
				logger.Warn("autosave flush failed", "error", err)
			}
			s.dirtySince = time.Time{}
		}
	} else {
		s.dirtySince = time.Time{}
	}

	if now.Sub(s.lastRecovery) >= time.Duration(s.CrashRecoveryIntervalSeconds)*time.Second {
		if err := s.SaveRecoverySnapshot(); err != nil {
			logger.Warn("crash recovery snapshot failed", "error", err)
		}
		s.lastRecovery = now
	}
}

func (s *Saver) anyOverlayDirty() bool {
	for id := 0; id < s.Vfs.Overlays.Count(); id++ {
		if dirty, err := s.Vfs.Overlays.OverlayDirty(id); err == nil && dirty {
			return true
		}
	}
	return false
}

// Flush is an explicit save of overlay 0 to DestPath, unconditionally
// (the tick-driven path already checked dirty state before calling
// this), plus every *other* dirty overlay with a recorded source path
// (set via overlay.SetOverlaySource) to that path (§4.L). Used both by
// the delay-triggered path in tick and by a user-triggered save
// command, where (unlike tick) the error propagates to the caller.
func (s *Saver) Flush() error {
	if err := s.flushOverlayTo(0, s.DestPath); err != nil {
		return err
	}

	for id := 1; id < s.Vfs.Overlays.Count(); id++ {
		dirty, err := s.Vfs.Overlays.OverlayDirty(id)
		if err != nil || !dirty {
			continue
		}
		path, _, _, ok, err := s.Vfs.Overlays.OverlaySource(id)
		if err != nil || !ok || path == "" {
			continue
		}
		if err := s.flushOverlayTo(id, path); err != nil {
			return err
		}
	}
	return nil
}

func (s *Saver) flushOverlayTo(id int, dest string) error {
	root, err := s.Vfs.Overlays.OverlayRoot(id)
	if err != nil {
		return fmt.Errorf("autosave flush overlay %d: %w", id, err)
	}
	if err := snapshot.SaveToFile(dest, root, "", func(backupErr error) {
		logger.Warn("autosave backup failed", "path", dest, "error", backupErr)
	}); err != nil {
		return fmt.Errorf("autosave flush overlay %d: %w", id, err)
	}
	s.recordJournal(journal.EventAutosaveFlush, dest)
	return s.Vfs.Overlays.ClearOverlayDirty(id)
}

// SaveRecoverySnapshot writes overlay 0 to RecoveryPath, independent of
// dirty state, so a crash mid-edit still leaves a recent recovery file.
func (s *Saver) SaveRecoverySnapshot() error {
	if err := os.MkdirAll(filepath.Dir(s.RecoveryPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(s.RecoveryPath)
	if err != nil {
		return err
	}
	defer f.Close()

	root, err := s.Vfs.Overlays.OverlayRoot(0)
	if err != nil {
		return err
	}
	if err := snapshot.Write(f, root, "", ""); err != nil {
		return err
	}
	s.recordJournal(journal.EventCrashRecovery, s.RecoveryPath)
	return nil
}

// recordJournal is a no-op when no Journal is attached; a journal
// failure is itself downgraded to a log line, per §4.L's "downgrade
// every error but an explicit user save" rule.
func (s *Saver) recordJournal(kind, detail string) {
	if s.Journal == nil {
		return
	}
	if err := s.Journal.AppendEntry(kind, nil, &detail); err != nil {
		logger.Warn("journal append failed", "kind", kind, "error", err)
	}
}
