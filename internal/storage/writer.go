package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
)

// BatchWriter writes one JSON file per productive cycle.
type BatchWriter struct {
	Dir string
	Now func() time.Time
}

// Write stores posts as an indented JSON array in a new timestamped file and
// returns its path. HTML and non-ASCII characters are written as-is.
func (w *BatchWriter) Write(posts []domain.CollectedPost) (string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(posts); err != nil {
		return "", fmt.Errorf("encoding batch: %w", err)
	}

	path, err := w.freshPath()
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("creating batch file: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return "", fmt.Errorf("writing batch file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing batch file: %w", err)
	}
	return path, nil
}

// freshPath picks Collection_<timestamp>.json, adding a counter if two cycles
// land in the same second.
func (w *BatchWriter) freshPath() (string, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	base := "Collection_" + now().Format("20060102_150405")
	path := filepath.Join(w.Dir, base+".json")
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if i > 100 {
			return "", fmt.Errorf("no free batch file name for %s", base)
		}
		path = filepath.Join(w.Dir, fmt.Sprintf("%s_%d.json", base, i))
	}
}

// ReadBatches loads every batch file in dir, oldest name first.
func ReadBatches(dir string) ([]domain.CollectedPost, error) {
	files, err := filepath.Glob(filepath.Join(dir, "Collection_*.json"))
	if err != nil {
		return nil, err
	}
	var posts []domain.CollectedPost
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		var batch []domain.CollectedPost
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", f, err)
		}
		posts = append(posts, batch...)
	}
	return posts, nil
}
