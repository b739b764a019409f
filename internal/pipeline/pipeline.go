// Package pipeline runs collection cycles over the configured search terms.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/extractor"
	"github.com/robfig/cron/v3"
)

// PostExtractor turns one listing item into a post, or skips it.
type PostExtractor interface {
	Extract(ctx context.Context, item *goquery.Selection, page domain.ResultsPage) (domain.CollectedPost, bool)
}

// BatchStore persists the posts of one cycle.
type BatchStore interface {
	Write(posts []domain.CollectedPost) (string, error)
}

type Config struct {
	Terms      []string
	MaxResults int
	Interval   time.Duration
}

type Runner struct {
	cfg       Config
	collector domain.Collector
	extractor PostExtractor
	ledger    domain.Ledger
	batches   BatchStore
}

func NewRunner(cfg Config, c domain.Collector, ex PostExtractor, ledger domain.Ledger, batches BatchStore) *Runner {
	return &Runner{cfg: cfg, collector: c, extractor: ex, ledger: ledger, batches: batches}
}

// Run executes cycles until ctx is cancelled or a cycle fails fatally. Each
// cycle starts one interval after the previous one finished.
func (r *Runner) Run(ctx context.Context) error {
	schedule := cron.Every(r.cfg.Interval)
	for {
		started := time.Now()
		slog.Info("starting collection cycle", "terms", len(r.cfg.Terms), "known_ids", r.ledger.Len())

		posts, err := r.RunCycle(ctx)
		if err != nil {
			return err
		}

		next := schedule.Next(time.Now())
		slog.Info("cycle complete", "new_posts", len(posts), "took", time.Since(started).Round(time.Second), "next", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunCycle makes one pass over every term, then persists what it collected.
// A failing term is logged and skipped. Opening the session and persisting
// are the only fatal steps.
func (r *Runner) RunCycle(ctx context.Context) ([]domain.CollectedPost, error) {
	sess, err := r.collector.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening collector session: %w", err)
	}
	closed := false
	closeSession := func() {
		if closed {
			return
		}
		closed = true
		if err := sess.Close(); err != nil {
			slog.Warn("closing collector session", "err", err)
		}
	}
	defer closeSession()

	var posts []domain.CollectedPost
	for _, term := range r.cfg.Terms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := r.collectTerm(ctx, sess, term)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, domain.ErrListingTimeout) {
				slog.Warn("timed out waiting for results", "term", term, "err", err)
			} else {
				slog.Error("search failed", "term", term, "err", err)
			}
			continue
		}
		posts = append(posts, found...)
	}
	closeSession()

	if err := r.persist(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *Runner) collectTerm(ctx context.Context, sess domain.Session, term string) ([]domain.CollectedPost, error) {
	slog.Info("searching", "term", term)
	page, err := sess.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	items, err := extractor.Items(page.Markup, r.cfg.MaxResults)
	if err != nil {
		return nil, err
	}

	var posts []domain.CollectedPost
	for _, item := range items {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if post, ok := r.extractor.Extract(ctx, item, page); ok {
			posts = append(posts, post)
		}
	}
	slog.Info("term done", "term", term, "items", len(items), "new_posts", len(posts))
	return posts, nil
}

// persist writes the batch file first and only then appends to the ledger.
func (r *Runner) persist(posts []domain.CollectedPost) error {
	if len(posts) == 0 {
		slog.Info("no new posts this cycle")
		return nil
	}
	path, err := r.batches.Write(posts)
	if err != nil {
		return fmt.Errorf("writing batch: %w", err)
	}
	slog.Info("batch written", "path", path, "posts", len(posts))

	if err := r.ledger.Flush(); err != nil {
		return fmt.Errorf("flushing ledger: %w", err)
	}
	slog.Info("ledger updated", "added", len(posts), "total", r.ledger.Len())
	return nil
}
