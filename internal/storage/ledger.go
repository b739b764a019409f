package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/ingest"
)

// FileLedger keeps seen post IDs in memory and appends new ones to a text
// file, one per line. The file is never rewritten.
type FileLedger struct {
	path    string
	seen    map[string]struct{}
	pending []string
}

// OpenFileLedger reads every ID already in path. A missing file is an empty ledger.
func OpenFileLedger(path string) (*FileLedger, error) {
	l := &FileLedger{path: path, seen: make(map[string]struct{})}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	ids, err := ingest.ReadIDs(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	for _, id := range ids {
		l.seen[id] = struct{}{}
	}
	return l, nil
}

func (l *FileLedger) Contains(id string) bool {
	_, ok := l.seen[id]
	return ok
}

// Add records id in memory. It reaches the file on the next Flush.
func (l *FileLedger) Add(id string) {
	if l.Contains(id) {
		return
	}
	l.seen[id] = struct{}{}
	l.pending = append(l.pending, id)
}

func (l *FileLedger) Len() int { return len(l.seen) }

// Flush appends pending IDs to the ledger file.
func (l *FileLedger) Flush() error {
	if len(l.pending) == 0 {
		return nil
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating ledger dir: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening ledger %s: %w", l.path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	for _, id := range l.pending {
		bw.WriteString(id)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("appending to ledger: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing ledger: %w", err)
	}
	l.pending = l.pending[:0]
	return nil
}

func (l *FileLedger) Close() error { return nil }
