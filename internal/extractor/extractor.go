// Package extractor turns listing markup into enriched CollectedPost records.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/normalize"
)

// Listing fields, most specific markup first.
var (
	permalinkField   = nonEmpty(attrOf(`a[href*="/status/"]`, "href"))
	textField        = textOf("div.tweet-content")
	handleField      = textOf("a.username")
	dateField        = firstOf(attrOf(".tweet-date a", "title"), attrOf(".tweet-date", "title"))
	displayNameField = textOf("a.fullname")
	verifiedField    = firstOf(present(".icon-verified"), present(".verified-icon"))
	repliesField     = parentTextOf(".tweet-stats", ".icon-comment")
	repostsField     = parentTextOf(".tweet-stats", ".icon-retweet")
	likesField       = parentTextOf(".tweet-stats", ".icon-heart")
	videoField       = present("div.attachments .attachment.video-container")
	imageField       = nonEmpty(attrOf("div.attachments .attachment.image img", "src"))
)

// SeenSet is the part of the ledger the extractor needs.
type SeenSet interface {
	Contains(id string) bool
	Add(id string)
}

type LanguageFilter interface {
	Accept(text string) bool
}

type Pseudonymizer interface {
	ID(handle string) string
}

// MediaAcquirer resolves an attachment to a local file.
type MediaAcquirer interface {
	Acquire(ctx context.Context, url, destDir, postID string, creds domain.Credentials) (string, error)
}

// ContentExtractor pulls text out of a local media file.
type ContentExtractor interface {
	Extract(ctx context.Context, path string) (*string, error)
}

type Config struct {
	Instance string
	MediaDir string
}

type Extractor struct {
	cfg      Config
	seen     SeenSet
	filter   LanguageFilter
	pseudo   Pseudonymizer
	acquirer MediaAcquirer
	content  ContentExtractor
	now      func() time.Time
}

func New(cfg Config, seen SeenSet, filter LanguageFilter, pseudo Pseudonymizer, acq MediaAcquirer, content ContentExtractor) *Extractor {
	return &Extractor{
		cfg:      cfg,
		seen:     seen,
		filter:   filter,
		pseudo:   pseudo,
		acquirer: acq,
		content:  content,
		now:      time.Now,
	}
}

// Items parses a results page and returns at most limit listing items in
// document order.
func Items(markup string, limit int) ([]*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}
	var items []*goquery.Selection
	doc.Find(domain.ListingSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}
		items = append(items, s)
		return true
	})
	return items, nil
}

// Extract builds a CollectedPost from one listing item. It returns false when
// the item is skipped: already collected, missing a required field, not in
// the target language, or its media could not be downloaded or transcribed.
// Only an emitted post is added to the seen set.
func (e *Extractor) Extract(ctx context.Context, item *goquery.Selection, page domain.ResultsPage) (domain.CollectedPost, bool) {
	path, _ := permalinkField(item)
	if i := strings.Index(path, "#"); i >= 0 {
		path = path[:i]
	}
	postID := postIDFromPath(path)
	if postID == "" || e.seen.Contains(postID) {
		return domain.CollectedPost{}, false
	}
	log := slog.With("post_id", postID, "term", page.Term)

	text, _ := textField(item)
	if text == "" || !e.filter.Accept(text) {
		log.Debug("skipping post: empty or not in target language")
		return domain.CollectedPost{}, false
	}

	rawHandle, _ := handleField(item)
	handle := strings.Trim(rawHandle, "@")
	if handle == "" {
		log.Debug("skipping post: no author handle")
		return domain.CollectedPost{}, false
	}

	published := normalize.ParseDateToISO(valueOr(dateField, item, ""))
	engagement := domain.Engagement{
		Replies: normalize.ParseStatValue(valueOr(repliesField, item, "")),
		Reposts: normalize.ParseStatValue(valueOr(repostsField, item, "")),
		Likes:   normalize.ParseStatValue(valueOr(likesField, item, "")),
	}

	var attachments []domain.Attachment
	if ref, ok := e.mediaReference(item, path); ok {
		att, ok := e.enrich(ctx, log, ref, postID, page.Credentials)
		if !ok {
			return domain.CollectedPost{}, false
		}
		attachments = append(attachments, att)
	}

	post := domain.CollectedPost{
		Metadata: domain.CollectionMetadata{
			Platform:    domain.PlatformX,
			CollectedAt: e.now().UTC().Format(time.RFC3339),
			CollectedBy: domain.MethodWebScraping,
			SearchTerm:  page.Term,
		},
		Post: domain.PostData{
			ID:          postID,
			URL:         fmt.Sprintf("https://x.com/%s/status/%s", handle, postID),
			PublishedAt: optional(published),
			Author: domain.Author{
				PseudonymID: e.pseudo.ID(handle),
				Handle:      handle,
				DisplayName: valueOr(displayNameField, item, ""),
				Verified:    valueOr(verifiedField, item, false),
			},
		},
		Engagement: engagement,
		Content: domain.Content{
			Text:        text,
			Attachments: attachments,
		},
	}

	e.seen.Add(postID)
	log.Info("new post collected", "handle", handle, "attachments", len(attachments))
	return post, true
}

// mediaReference picks at most one attachment; a video wins over an image.
func (e *Extractor) mediaReference(item *goquery.Selection, path string) (domain.MediaReference, bool) {
	if _, ok := videoField(item); ok {
		return domain.MediaReference{Kind: domain.MediaVideo, URL: e.cfg.Instance + path}, true
	}
	if src, ok := imageField(item); ok {
		if strings.HasPrefix(src, "/") {
			src = e.cfg.Instance + src
		}
		return domain.MediaReference{Kind: domain.MediaImage, URL: src}, true
	}
	return domain.MediaReference{}, false
}

func (e *Extractor) enrich(ctx context.Context, log *slog.Logger, ref domain.MediaReference, postID string, creds domain.Credentials) (domain.Attachment, bool) {
	local, err := e.acquirer.Acquire(ctx, ref.URL, e.cfg.MediaDir, postID, creds)
	if err != nil {
		log.Info("media download failed, post left for next cycle", "err", err)
		return domain.Attachment{}, false
	}
	text, err := e.content.Extract(ctx, local)
	if err != nil {
		log.Info("transcription failed, post left for next cycle", "err", err)
		return domain.Attachment{}, false
	}
	return domain.Attachment{Kind: ref.Kind, URL: ref.URL, ExtractedText: text}, true
}

func postIDFromPath(path string) string {
	const marker = "/status/"
	i := strings.LastIndex(path, marker)
	if i < 0 {
		return ""
	}
	return path[i+len(marker):]
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
