package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// PublicCollector fetches results pages over plain HTTP. It works against
// mirror instances that serve listings without a JavaScript challenge.
type PublicCollector struct {
	opts     Options
	instance *url.URL
	limiter  *rate.Limiter
}

func NewPublicCollector(opts Options) (*PublicCollector, error) {
	u, err := url.Parse(opts.Instance)
	if err != nil {
		return nil, fmt.Errorf("parsing instance url: %w", err)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	limit := rate.Inf
	if opts.RequestInterval > 0 {
		limit = rate.Every(opts.RequestInterval)
	}
	return &PublicCollector{
		opts:     opts,
		instance: u,
		limiter:  rate.NewLimiter(limit, 1),
	}, nil
}

func (pc *PublicCollector) Open(ctx context.Context) (domain.Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &publicSession{
		pc:         pc,
		httpClient: &http.Client{Timeout: pc.opts.WaitTimeout, Jar: jar},
	}, nil
}

type publicSession struct {
	pc         *PublicCollector
	httpClient *http.Client
}

func (s *publicSession) Search(ctx context.Context, term string) (domain.ResultsPage, error) {
	if err := s.pc.limiter.Wait(ctx); err != nil {
		return domain.ResultsPage{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, SearchURL(s.pc.opts.Instance, term, s.pc.opts.Language), nil)
	if err != nil {
		return domain.ResultsPage{}, err
	}
	req.Header.Set("User-Agent", s.pc.opts.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return domain.ResultsPage{}, fmt.Errorf("%w: %q: %v", domain.ErrListingTimeout, term, err)
		}
		return domain.ResultsPage{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ResultsPage{}, fmt.Errorf("mirror search status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ResultsPage{}, fmt.Errorf("reading results page: %w", err)
	}
	markup := string(body)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return domain.ResultsPage{}, fmt.Errorf("parsing results page: %w", err)
	}
	if doc.Find(domain.ListingSelector).Length() == 0 {
		return domain.ResultsPage{}, fmt.Errorf("%w: %q: page has no listing markup", domain.ErrListingTimeout, term)
	}

	if err := s.exportCookies(); err != nil {
		return domain.ResultsPage{}, err
	}

	return domain.ResultsPage{
		Term:   term,
		Markup: markup,
		Credentials: domain.Credentials{
			CookieFile: s.pc.opts.CookieFile,
			UserAgent:  s.pc.opts.UserAgent,
		},
	}, nil
}

func (s *publicSession) exportCookies() error {
	var exported []exportedCookie
	for _, c := range s.httpClient.Jar.Cookies(s.pc.instance) {
		exported = append(exported, exportedCookie{
			Domain: s.pc.instance.Hostname(),
			Path:   "/",
			Secure: s.pc.instance.Scheme == "https",
			Name:   c.Name,
			Value:  c.Value,
		})
	}
	return writeCookieFile(s.pc.opts.CookieFile, exported)
}

func (s *publicSession) Close() error {
	s.httpClient.CloseIdleConnections()
	return removeCookieFile(s.pc.opts.CookieFile)
}
