package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoSearchTerms means the search-term file had no usable lines.
var ErrNoSearchTerms = errors.New("no search terms")

// LoadSearchTerms reads one term per line. Blank lines and lines starting
// with '#' are skipped.
func LoadSearchTerms(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening search terms %s: %w", path, err)
	}
	defer f.Close()

	var terms []string
	sc := bufio.NewScanner(stripBOM(f))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		if term := strings.TrimSpace(line); term != "" {
			terms = append(terms, term)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading search terms %s: %w", path, err)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSearchTerms, path)
	}
	return terms, nil
}

// ReadIDs reads one identifier per line, ignoring blank lines.
func ReadIDs(r io.Reader) ([]string, error) {
	var ids []string
	sc := bufio.NewScanner(stripBOM(r))
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, sc.Err()
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
