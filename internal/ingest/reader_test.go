package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "terms.txt")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadSearchTerms(t *testing.T) {
	p := writeFile(t, "\uFEFFeleições 2026\n\n# comentário\n  reforma tributária  \n#outro\nSUS\n")
	terms, err := LoadSearchTerms(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"eleições 2026", "reforma tributária", "SUS"}
	if len(terms) != len(want) {
		t.Fatalf("expected %v, got %v", want, terms)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("term %d: expected %q, got %q", i, want[i], terms[i])
		}
	}
}

func TestLoadSearchTerms_EmptyFile(t *testing.T) {
	p := writeFile(t, "# only comments\n\n")
	_, err := LoadSearchTerms(p)
	if !errors.Is(err, ErrNoSearchTerms) {
		t.Fatalf("expected ErrNoSearchTerms, got %v", err)
	}
}

func TestLoadSearchTerms_MissingFile(t *testing.T) {
	if _, err := LoadSearchTerms(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadIDs(t *testing.T) {
	ids, err := ReadIDs(strings.NewReader("\uFEFF111\n 222 \n\n333"))
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != "111" || ids[1] != "222" || ids[2] != "333" {
		t.Errorf("unexpected ids %v", ids)
	}
}
