// Package kb persists confirmed (normalized name, parent key) -> unit id
// associations between runs. The store is append-only within a run: entries
// are loaded once at start-of-run into an immutable snapshot and written back
// in a single transaction after the run completes.
package kb

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Entry is one confirmed association.
type Entry struct {
	Key           string    `json:"key"`
	ParentKey     string    `json:"parent_key"`
	UnitID        string    `json:"unit_id"`
	Confirmations int       `json:"confirmations"`
	RunID         string    `json:"run_id"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
}

// Store is the SQLite-backed knowledge base.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the knowledge base at path and configures WAL mode.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "kb: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "kb: exec %s", pragma)
		}
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS kb_entries (
	key           TEXT NOT NULL,
	parent_key    TEXT NOT NULL,
	unit_id       TEXT NOT NULL,
	confirmations INTEGER NOT NULL DEFAULT 1,
	run_id        TEXT NOT NULL,
	first_seen    DATETIME NOT NULL,
	last_seen     DATETIME NOT NULL,
	PRIMARY KEY (key, parent_key)
);

CREATE INDEX IF NOT EXISTS idx_kb_entries_unit_id ON kb_entries(unit_id);
`

func (s *Store) migrate() error {
	_, err := s.db.Exec(migration)
	return eris.Wrap(err, "kb: migrate")
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Load reads every entry into an immutable snapshot. The primary key
// guarantees at most one unit id per (key, parent_key); an unreadable store
// is a structural failure that aborts the run.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, parent_key, unit_id, confirmations, run_id, first_seen, last_seen
		 FROM kb_entries`)
	if err != nil {
		return nil, eris.Wrap(err, "kb: load")
	}
	defer rows.Close()

	snap := &Snapshot{entries: make(map[string]Entry)}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.ParentKey, &e.UnitID, &e.Confirmations,
			&e.RunID, &e.FirstSeen, &e.LastSeen); err != nil {
			return nil, eris.Wrap(err, "kb: scan entry")
		}
		snap.entries[snapKey(e.Key, e.ParentKey)] = e
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "kb: iterate entries")
	}

	zap.L().Info("knowledge base loaded", zap.Int("entries", len(snap.entries)))
	return snap, nil
}

// Append writes newly confirmed entries in one transaction. An existing key
// that maps to the same unit gets its confirmation count incremented; a key
// observed with a different unit is a data-quality conflict: logged, not
// overwritten. Returns the number of conflicts skipped.
func (s *Store) Append(ctx context.Context, runID string, entries []Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "kb: begin append")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	conflicts := 0
	for _, e := range entries {
		var existing string
		err := tx.QueryRowContext(ctx,
			`SELECT unit_id FROM kb_entries WHERE key = ? AND parent_key = ?`,
			e.Key, e.ParentKey).Scan(&existing)
		switch {
		case err == sql.ErrNoRows:
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO kb_entries (key, parent_key, unit_id, confirmations, run_id, first_seen, last_seen)
				 VALUES (?, ?, ?, 1, ?, ?, ?)`,
				e.Key, e.ParentKey, e.UnitID, runID, now, now); err != nil {
				return conflicts, eris.Wrap(err, "kb: insert entry")
			}
		case err != nil:
			return conflicts, eris.Wrap(err, "kb: check entry")
		case existing == e.UnitID:
			if _, err := tx.ExecContext(ctx,
				`UPDATE kb_entries SET confirmations = confirmations + 1, last_seen = ?
				 WHERE key = ? AND parent_key = ?`,
				now, e.Key, e.ParentKey); err != nil {
				return conflicts, eris.Wrap(err, "kb: confirm entry")
			}
		default:
			conflicts++
			zap.L().Warn("knowledge base conflict, first-seen mapping kept",
				zap.String("key", e.Key),
				zap.String("parent_key", e.ParentKey),
				zap.String("existing_unit", existing),
				zap.String("observed_unit", e.UnitID),
			)
		}
	}

	if err := tx.Commit(); err != nil {
		return conflicts, eris.Wrap(err, "kb: commit append")
	}
	return conflicts, nil
}

// Stats returns entry and confirmation totals.
func (s *Store) Stats(ctx context.Context) (entries int, confirmations int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(confirmations), 0) FROM kb_entries`).
		Scan(&entries, &confirmations)
	if err != nil {
		return 0, 0, eris.Wrap(err, "kb: stats")
	}
	return entries, confirmations, nil
}

// Export writes every entry as one JSON object per line, ordered by key.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, parent_key, unit_id, confirmations, run_id, first_seen, last_seen
		 FROM kb_entries ORDER BY key, parent_key`)
	if err != nil {
		return eris.Wrap(err, "kb: export")
	}
	defer rows.Close()

	enc := json.NewEncoder(w)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.ParentKey, &e.UnitID, &e.Confirmations,
			&e.RunID, &e.FirstSeen, &e.LastSeen); err != nil {
			return eris.Wrap(err, "kb: scan export row")
		}
		if err := enc.Encode(e); err != nil {
			return eris.Wrap(err, "kb: encode entry")
		}
	}
	return eris.Wrap(rows.Err(), "kb: iterate export rows")
}
