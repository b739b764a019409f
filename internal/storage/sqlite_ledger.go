package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const createLedgerSQL = `
CREATE TABLE IF NOT EXISTS collected_posts (
	post_id TEXT PRIMARY KEY,
	collected_at INTEGER NOT NULL
)`

// SQLiteLedger is a Ledger backed by a SQLite table. Rows are only inserted.
type SQLiteLedger struct {
	db      *sql.DB
	seen    map[string]struct{}
	pending []string
}

func OpenSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open ledger database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}
	if _, err := db.Exec(createLedgerSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create ledger table: %w", err)
	}

	l := &SQLiteLedger{db: db, seen: make(map[string]struct{})}
	rows, err := db.Query(`SELECT post_id FROM collected_posts`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: load ledger: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: scan ledger row: %w", err)
		}
		l.seen[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: iterate ledger: %w", err)
	}
	return l, nil
}

func (l *SQLiteLedger) Contains(id string) bool {
	_, ok := l.seen[id]
	return ok
}

func (l *SQLiteLedger) Add(id string) {
	if l.Contains(id) {
		return
	}
	l.seen[id] = struct{}{}
	l.pending = append(l.pending, id)
}

func (l *SQLiteLedger) Len() int { return len(l.seen) }

// Flush inserts pending IDs in one transaction.
func (l *SQLiteLedger) Flush() error {
	if len(l.pending) == 0 {
		return nil
	}
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin ledger flush: %w", err)
	}
	now := time.Now().Unix()
	for _, id := range l.pending {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO collected_posts (post_id, collected_at) VALUES (?, ?)`, id, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("storage: insert ledger id %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit ledger flush: %w", err)
	}
	l.pending = l.pending[:0]
	return nil
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
