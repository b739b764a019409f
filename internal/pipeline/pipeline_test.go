package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/extractor"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/pseudonym"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/storage"
)

// --- Fakes ---

type fakeCollector struct {
	pages   map[string]string
	errs    map[string]error
	openErr error
	opened  int
	closed  int
	order   []string
	mu      sync.Mutex
}

func (f *fakeCollector) closedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeCollector) Open(ctx context.Context) (domain.Session, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	return &fakeSession{c: f}, nil
}

type fakeSession struct {
	c *fakeCollector
}

func (s *fakeSession) Search(ctx context.Context, term string) (domain.ResultsPage, error) {
	s.c.order = append(s.c.order, term)
	if err, ok := s.c.errs[term]; ok {
		return domain.ResultsPage{}, err
	}
	return domain.ResultsPage{Term: term, Markup: s.c.pages[term]}, nil
}

func (s *fakeSession) Close() error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.closed++
	return nil
}

type acceptAll struct{}

func (acceptAll) Accept(string) bool { return true }

type fakeAcquirer struct {
	fail map[string]bool
}

func (f *fakeAcquirer) Acquire(ctx context.Context, url, destDir, postID string, creds domain.Credentials) (string, error) {
	if f.fail[postID] {
		return "", fmt.Errorf("%w: %s", domain.ErrDownloadFailed, postID)
	}
	return filepath.Join(destDir, postID+".mp4"), nil
}

type silentVideo struct{}

func (silentVideo) Extract(ctx context.Context, path string) (*string, error) { return nil, nil }

type failingBatches struct{}

func (failingBatches) Write([]domain.CollectedPost) (string, error) {
	return "", errors.New("disk full")
}

// --- Fixtures ---

func item(id, handle, text string, video bool) string {
	media := ""
	if video {
		media = `<div class="attachments"><div class="attachment video-container"></div></div>`
	}
	return fmt.Sprintf(`<div class="timeline-item"><a class="tweet-link" href="/%s/status/%s#m"></a>
<a class="username">@%s</a><div class="tweet-content">%s</div>%s</div>`, handle, id, handle, text, media)
}

func page(items ...string) string {
	return "<html><body>" + strings.Join(items, "") + "</body></html>"
}

type harness struct {
	runner     *Runner
	collector  *fakeCollector
	ledger     *storage.FileLedger
	ledgerPath string
	outDir     string
}

func newHarness(t *testing.T, c *fakeCollector, acq *fakeAcquirer, terms ...string) *harness {
	t.Helper()
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "ids.txt")
	ledger, err := storage.OpenFileLedger(ledgerPath)
	if err != nil {
		t.Fatal(err)
	}
	ex := extractor.New(extractor.Config{Instance: "https://twiiit.com", MediaDir: dir},
		ledger, acceptAll{}, pseudonym.New("salt"), acq, silentVideo{})
	outDir := filepath.Join(dir, "out")
	r := NewRunner(Config{Terms: terms, MaxResults: 20, Interval: time.Minute},
		c, ex, ledger, &storage.BatchWriter{Dir: outDir})
	return &harness{runner: r, collector: c, ledger: ledger, ledgerPath: ledgerPath, outDir: outDir}
}

func (h *harness) ledgerLines(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(h.ledgerPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Fields(string(data))
}

// --- Tests ---

func TestRunCycle_CollectsAndPersists(t *testing.T) {
	c := &fakeCollector{pages: map[string]string{
		"a": page(item("1", "joao", "Bom dia", false), item("2", "maria", "Boa tarde", false)),
		"b": page(item("3", "ana", "Boa noite", false)),
	}}
	h := newHarness(t, c, &fakeAcquirer{}, "a", "b")

	posts, err := h.runner.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	if posts[2].Metadata.SearchTerm != "b" {
		t.Errorf("expected term b on third post, got %q", posts[2].Metadata.SearchTerm)
	}
	if got := h.ledgerLines(t); strings.Join(got, ",") != "1,2,3" {
		t.Errorf("unexpected ledger contents %v", got)
	}
	batches, err := storage.ReadBatches(h.outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 3 {
		t.Errorf("expected 3 posts in batch files, got %d", len(batches))
	}
	if c.opened != 1 || c.closed != 1 {
		t.Errorf("session should be opened and closed once, got %d/%d", c.opened, c.closed)
	}
}

func TestRunCycle_SecondCycleIsIdempotent(t *testing.T) {
	c := &fakeCollector{pages: map[string]string{
		"a": page(item("1", "joao", "Bom dia", false), item("1", "joao", "Bom dia", false)),
	}}
	h := newHarness(t, c, &fakeAcquirer{}, "a")

	first, err := h.runner.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 {
		t.Fatalf("duplicate listing entries must yield one post, got %d", len(first))
	}

	second, err := h.runner.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 0 {
		t.Errorf("unchanged results should yield no new posts, got %d", len(second))
	}
	files, _ := filepath.Glob(filepath.Join(h.outDir, "*.json"))
	if len(files) != 1 {
		t.Errorf("unproductive cycle must not write a batch, found %d files", len(files))
	}
}

func TestRunCycle_LedgerSurvivesRestart(t *testing.T) {
	c := &fakeCollector{pages: map[string]string{"a": page(item("1", "joao", "Bom dia", false))}}
	h := newHarness(t, c, &fakeAcquirer{}, "a")
	if _, err := h.runner.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	reopened, err := storage.OpenFileLedger(h.ledgerPath)
	if err != nil {
		t.Fatal(err)
	}
	ex := extractor.New(extractor.Config{Instance: "https://twiiit.com"}, reopened, acceptAll{}, pseudonym.New("salt"), &fakeAcquirer{}, silentVideo{})
	r := NewRunner(Config{Terms: []string{"a"}, MaxResults: 20, Interval: time.Minute}, c, ex, reopened, &storage.BatchWriter{Dir: h.outDir})

	posts, err := r.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 0 {
		t.Errorf("post from a previous process must not be re-emitted, got %d", len(posts))
	}
}

func TestRunCycle_TermFailureDoesNotAbortCycle(t *testing.T) {
	c := &fakeCollector{
		pages: map[string]string{"ok": page(item("5", "joao", "Bom dia", false))},
		errs: map[string]error{
			"slow":   fmt.Errorf("%w: slow", domain.ErrListingTimeout),
			"broken": errors.New("unexpected page"),
		},
	}
	h := newHarness(t, c, &fakeAcquirer{}, "slow", "broken", "ok")

	posts, err := h.runner.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("term failures must not fail the cycle: %v", err)
	}
	if len(posts) != 1 || posts[0].Post.ID != "5" {
		t.Errorf("expected post 5 from the healthy term, got %v", posts)
	}
	if strings.Join(c.order, ",") != "slow,broken,ok" {
		t.Errorf("terms should be searched in order, got %v", c.order)
	}
}

func TestRunCycle_DownloadFailureLeavesPostForLater(t *testing.T) {
	c := &fakeCollector{pages: map[string]string{
		"a": page(item("7", "joao", "Vídeo", true), item("8", "maria", "Texto", false)),
	}}
	acq := &fakeAcquirer{fail: map[string]bool{"7": true}}
	h := newHarness(t, c, acq, "a")

	posts, err := h.runner.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || posts[0].Post.ID != "8" {
		t.Fatalf("expected only post 8, got %v", posts)
	}
	if h.ledger.Contains("7") {
		t.Error("failed post must not be in the ledger")
	}
	for _, id := range h.ledgerLines(t) {
		if id == "7" {
			t.Error("failed post must not be in the ledger file")
		}
	}

	delete(acq.fail, "7")
	posts, err = h.runner.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || posts[0].Post.ID != "7" {
		t.Errorf("post 7 should be collected on retry, got %v", posts)
	}
	if att := posts[0].Content.Attachments; len(att) != 1 || att[0].ExtractedText != nil {
		t.Errorf("silent video should yield one attachment with nil text, got %+v", att)
	}
}

func TestRunCycle_MaxResultsLimit(t *testing.T) {
	var items []string
	for i := 0; i < 30; i++ {
		items = append(items, item(fmt.Sprint(100+i), "u", "texto", false))
	}
	c := &fakeCollector{pages: map[string]string{"a": page(items...)}}
	h := newHarness(t, c, &fakeAcquirer{}, "a")

	posts, err := h.runner.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 20 {
		t.Errorf("expected the first 20 items, got %d", len(posts))
	}
	if posts[0].Post.ID != "100" || posts[19].Post.ID != "119" {
		t.Errorf("items should be taken in document order")
	}
}

func TestRunCycle_OpenFailureIsFatal(t *testing.T) {
	c := &fakeCollector{openErr: errors.New("chrome not installed")}
	h := newHarness(t, c, &fakeAcquirer{}, "a")

	if _, err := h.runner.RunCycle(context.Background()); err == nil {
		t.Fatal("expected session failure to be returned")
	}
}

func TestRunCycle_BatchFailureKeepsLedgerFile(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "ids.txt")
	ledger, _ := storage.OpenFileLedger(ledgerPath)
	c := &fakeCollector{pages: map[string]string{"a": page(item("1", "joao", "Bom dia", false))}}
	ex := extractor.New(extractor.Config{}, ledger, acceptAll{}, pseudonym.New("s"), &fakeAcquirer{}, silentVideo{})
	r := NewRunner(Config{Terms: []string{"a"}, MaxResults: 20, Interval: time.Minute}, c, ex, ledger, failingBatches{})

	if _, err := r.RunCycle(context.Background()); err == nil {
		t.Fatal("expected batch write error")
	}
	if _, err := os.Stat(ledgerPath); !os.IsNotExist(err) {
		t.Error("ledger file must not be written when the batch fails")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	c := &fakeCollector{pages: map[string]string{"a": page()}}
	h := newHarness(t, c, &fakeAcquirer{}, "a")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.runner.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for c.closedCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("first cycle never finished")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
