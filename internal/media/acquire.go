package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
)

const ytdlpFormat = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"

// Downloader fetches one media URL into destDir as <id>.<ext>.
type Downloader interface {
	Download(ctx context.Context, url, destDir, id string, creds domain.Credentials) error
}

// BlockedError is a download failure that looks like rate limiting or a block.
type BlockedError struct {
	Detail string
}

func (e *BlockedError) Error() string {
	return "download blocked: " + e.Detail
}

// YtDlp runs the yt-dlp binary, one process per attempt.
type YtDlp struct {
	Bin     string
	Timeout time.Duration
}

func (y *YtDlp) Download(ctx context.Context, url, destDir, id string, creds domain.Credentials) error {
	ctx, cancel := context.WithTimeout(ctx, y.Timeout)
	defer cancel()

	args := []string{"--no-warnings", "-f", ytdlpFormat, "--merge-output-format", "mp4",
		"-o", filepath.Join(destDir, id+".%(ext)s"), "--restrict-filenames"}
	if creds.CookieFile != "" {
		args = append(args, "--cookies", creds.CookieFile)
	}
	if creds.UserAgent != "" {
		args = append(args, "--user-agent", creds.UserAgent)
	}
	args = append(args, url)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, y.Bin, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if isBlocked(msg) {
			return &BlockedError{Detail: msg}
		}
		return fmt.Errorf("yt-dlp: %w: %s", err, msg)
	}
	return nil
}

func isBlocked(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "403") || strings.Contains(s, "forbidden")
}

// Acquirer resolves a post's media to a local file with bounded retries.
type Acquirer struct {
	downloader Downloader
	attempts   int
	backoff    time.Duration
}

func NewAcquirer(d Downloader, attempts int, wait time.Duration) *Acquirer {
	return &Acquirer{downloader: d, attempts: attempts, backoff: wait}
}

// Acquire returns the local path of the media for postID, downloading it only
// when no <postID>.* file already exists in destDir. Blocked downloads are
// retried after a fixed wait; any other failure stops immediately.
func (a *Acquirer) Acquire(ctx context.Context, url, destDir, postID string, creds domain.Credentials) (string, error) {
	if path, ok := existingMedia(destDir, postID); ok {
		slog.Info("media already present", "post_id", postID, "path", path)
		return path, nil
	}

	attempt := 0
	op := func() error {
		attempt++
		slog.Debug("downloading media", "post_id", postID, "attempt", attempt)
		err := a.downloader.Download(ctx, url, destDir, postID, creds)
		if err == nil {
			return nil
		}
		var blocked *BlockedError
		if errors.As(err, &blocked) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("download blocked, retrying", "post_id", postID, "attempt", attempt, "wait", wait)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(a.backoff), uint64(a.attempts-1)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		slog.Error("media download failed", "post_id", postID, "attempts", attempt, "err", err)
		removePartial(destDir, postID)
		return "", fmt.Errorf("%w: post %s: %v", domain.ErrDownloadFailed, postID, err)
	}

	path, ok := existingMedia(destDir, postID)
	if !ok {
		return "", fmt.Errorf("%w: post %s: downloader produced no file", domain.ErrDownloadFailed, postID)
	}
	if info, err := os.Stat(path); err == nil {
		slog.Info("media saved", "post_id", postID, "path", path, "size", humanize.Bytes(uint64(info.Size())))
	}
	return path, nil
}

func existingMedia(dir, id string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(dir, globEscape(id)+".*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	for _, m := range matches {
		// yt-dlp leaves fragments around while merging.
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		return m, true
	}
	return "", false
}

// removePartial deletes whatever a failed download left behind for id.
func removePartial(dir, id string) {
	matches, _ := filepath.Glob(filepath.Join(dir, globEscape(id)+".*"))
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			slog.Warn("could not remove partial download", "path", m, "err", err)
		}
	}
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `\`, `\\`)
	return r.Replace(s)
}
