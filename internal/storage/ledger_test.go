package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
)

var (
	_ domain.Ledger = (*FileLedger)(nil)
	_ domain.Ledger = (*SQLiteLedger)(nil)
)

func TestFileLedger_MissingFileIsEmpty(t *testing.T) {
	l, err := OpenFileLedger(filepath.Join(t.TempDir(), "ids.txt"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("expected empty ledger, got %d", l.Len())
	}
	if err := l.Flush(); err != nil {
		t.Errorf("flushing an empty ledger should be a no-op: %v", err)
	}
}

func TestFileLedger_LoadAddFlushAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	if err := os.WriteFile(path, []byte("100\n200\n\n"), 0644); err != nil {
		t.Fatal(err)
	}

	l, err := OpenFileLedger(path)
	if err != nil {
		t.Fatal(err)
	}
	if !l.Contains("100") || !l.Contains("200") || l.Contains("300") {
		t.Fatal("ledger did not load existing ids")
	}

	l.Add("300")
	l.Add("300")
	l.Add("100")
	if !l.Contains("300") {
		t.Error("added id should be visible before flush")
	}
	if err := l.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "100\n200\n\n300\n" {
		t.Errorf("ledger file should only be appended to, got %q", string(data))
	}

	if err := l.Flush(); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "100\n200\n\n300\n" {
		t.Errorf("second flush must not duplicate ids, got %q", string(data))
	}

	reopened, err := OpenFileLedger(path)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Len() != 3 {
		t.Errorf("expected 3 ids after reopen, got %d", reopened.Len())
	}
}

func TestSQLiteLedger_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	l, err := OpenSQLiteLedger(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	l.Add("a1")
	l.Add("b2")
	if err := l.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	again, err := OpenSQLiteLedger(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer again.Close()
	if !again.Contains("a1") || !again.Contains("b2") {
		t.Error("ids did not survive reopen")
	}
	if again.Len() != 2 {
		t.Errorf("expected 2 ids, got %d", again.Len())
	}
}
