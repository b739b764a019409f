package domain

import (
	"context"
	"errors"
)

// Platform and method tags stamped on every collected post.
const (
	PlatformX         = "X"
	MethodWebScraping = "web_scraping"
)

// MediaKind is the kind of attachment detected on a listing item.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

var (
	// ErrListingTimeout means the results page never showed recognizable listing markup.
	ErrListingTimeout = errors.New("listing markup did not appear in time")
	// ErrDownloadFailed means media acquisition gave up on a post.
	ErrDownloadFailed = errors.New("media download failed")
	// ErrTranscriptionFailed means speech-to-text failed on a video that has audio.
	ErrTranscriptionFailed = errors.New("transcription failed")
	// ErrToolMissing means a required external program could not be found.
	ErrToolMissing = errors.New("required tool not found")
)

// MediaReference points at the single attachment of a post.
type MediaReference struct {
	Kind MediaKind
	URL  string
}

// Credentials is what the downloader needs to reuse the browser session.
type Credentials struct {
	CookieFile string
	UserAgent  string
}

// ResultsPage is one search-results page as returned by a Collector.
type ResultsPage struct {
	Term        string
	Markup      string
	Credentials Credentials
}

// Attachment is an enriched media attachment.
type Attachment struct {
	Kind          MediaKind `json:"media_kind"`
	URL           string    `json:"media_url"`
	ExtractedText *string   `json:"extracted_text"`
}

// Author is the author block of a post.
type Author struct {
	RawID         *string `json:"user_id"`
	PseudonymID   string  `json:"pseudonymized_id"`
	Handle        string  `json:"handle"`
	DisplayName   string  `json:"display_name"`
	Verified      bool    `json:"verified"`
	FollowerCount *int    `json:"follower_count"`
}

// CollectionMetadata describes how and when a post was collected.
type CollectionMetadata struct {
	Platform    string `json:"platform"`
	CollectedAt string `json:"collected_at"`
	CollectedBy string `json:"collected_via"`
	SearchTerm  string `json:"search_term"`
}

// PostData identifies the post on the origin platform.
type PostData struct {
	ID          string  `json:"post_id"`
	URL         string  `json:"url"`
	PublishedAt *string `json:"published_at"`
	Author      Author  `json:"author"`
}

// Engagement holds the listing's counters. A missing counter is 0.
type Engagement struct {
	Replies int  `json:"reply_count"`
	Reposts int  `json:"repost_count"`
	Likes   int  `json:"like_count"`
	Views   *int `json:"view_count"`
}

// Content is the post body plus its enriched attachments.
type Content struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments"`
}

// CollectedPost is the persisted unit, written once and never updated.
type CollectedPost struct {
	Metadata   CollectionMetadata `json:"collection_metadata"`
	Post       PostData           `json:"post_data"`
	Engagement Engagement         `json:"engagement"`
	Content    Content            `json:"content"`
}

// Session is a live collector session. Close releases the browser and
// removes any exported credential file.
type Session interface {
	Search(ctx context.Context, term string) (ResultsPage, error)
	Close() error
}

// Collector opens sessions against the mirror front-end.
type Collector interface {
	Open(ctx context.Context) (Session, error)
}

// Ledger is the set of post identifiers already collected.
type Ledger interface {
	Contains(id string) bool
	Add(id string)
	Flush() error
	Len() int
	Close() error
}

// ListingSelector matches one post container in a results page.
const ListingSelector = "div.tweet-card, div.timeline-item"
