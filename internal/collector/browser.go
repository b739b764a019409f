package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
)

// BrowserCollector drives a Chrome instance with a persistent profile, so
// challenge cookies survive between runs.
type BrowserCollector struct {
	opts Options
}

func NewBrowserCollector(opts Options) *BrowserCollector {
	return &BrowserCollector{opts: opts}
}

func (b *BrowserCollector) Open(ctx context.Context) (domain.Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(b.opts.ProfileDir),
		chromedp.Flag("headless", b.opts.Headless),
	)
	if b.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(b.opts.UserAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("starting browser: %w", err)
	}
	slog.Info("browser session started", "profile", b.opts.ProfileDir, "headless", b.opts.Headless)

	return &browserSession{
		opts:   b.opts,
		tabCtx: tabCtx,
		cancel: func() { cancelTab(); cancelAlloc() },
	}, nil
}

type browserSession struct {
	opts   Options
	tabCtx context.Context
	cancel func()
}

func (s *browserSession) Search(ctx context.Context, term string) (domain.ResultsPage, error) {
	waitCtx, cancel := context.WithTimeout(s.tabCtx, s.opts.WaitTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		markup    string
		userAgent string
		cookies   []*network.Cookie
	)
	err := chromedp.Run(waitCtx,
		chromedp.Navigate(SearchURL(s.opts.Instance, term, s.opts.Language)),
		chromedp.WaitReady(domain.ListingSelector, chromedp.ByQuery),
		chromedp.Evaluate(`navigator.userAgent`, &userAgent),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ResultsPage{}, ctx.Err()
		}
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return domain.ResultsPage{}, fmt.Errorf("%w: %q after %s", domain.ErrListingTimeout, term, s.opts.WaitTimeout)
		}
		return domain.ResultsPage{}, fmt.Errorf("loading results for %q: %w", term, err)
	}

	exported := make([]exportedCookie, 0, len(cookies))
	for _, c := range cookies {
		exported = append(exported, exportedCookie{
			Domain:  c.Domain,
			Path:    c.Path,
			Secure:  c.Secure,
			Expires: int64(c.Expires),
			Name:    c.Name,
			Value:   c.Value,
		})
	}
	if err := writeCookieFile(s.opts.CookieFile, exported); err != nil {
		return domain.ResultsPage{}, err
	}

	return domain.ResultsPage{
		Term:   term,
		Markup: markup,
		Credentials: domain.Credentials{
			CookieFile: s.opts.CookieFile,
			UserAgent:  userAgent,
		},
	}, nil
}

// Close shuts the browser down and removes the exported cookie file.
func (s *browserSession) Close() error {
	s.cancel()
	return removeCookieFile(s.opts.CookieFile)
}
