package journal

import (
	"fmt"
	"time"
)

// Event kinds recorded by the autosave loop, the VFS mount lifecycle,
// and the logic engine's rule persistence.
const (
	EventAutosaveFlush = "autosave_flush"
	EventCrashRecovery = "crash_recovery"
	EventMount         = "mount"
	EventUnmount       = "unmount"
	EventRulesSaved    = "rules_saved"
	EventRulesLoaded   = "rules_loaded"
)

// Entry is one journal row.
type Entry struct {
	ID        int64
	Timestamp time.Time
	Kind      string
	OverlayID *int
	Detail    *string
}

// AppendEntry records one audit-trail row. overlayID/detail may be nil.
func (s *Store) AppendEntry(kind string, overlayID *int, detail *string) error {
	_, err := s.db.Exec("INSERT INTO journal_entries (kind, overlay_id, detail) VALUES (?, ?, ?)", kind, overlayID, detail)
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// ListByKind returns every entry of the given kind, oldest first.
func (s *Store) ListByKind(kind string) ([]*Entry, error) {
	rows, err := s.db.Query(`SELECT id, timestamp, kind, overlay_id, detail
		FROM journal_entries WHERE kind = ? ORDER BY timestamp, id`, kind)
	if err != nil {
		return nil, fmt.Errorf("list journal entries by kind: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Kind, &e.OverlayID, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Recent returns the most recent limit entries across all kinds, oldest
// first within the returned slice.
func (s *Store) Recent(limit int) ([]*Entry, error) {
	rows, err := s.db.Query(`SELECT id, timestamp, kind, overlay_id, detail
		FROM journal_entries ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent journal entries: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Kind, &e.OverlayID, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
