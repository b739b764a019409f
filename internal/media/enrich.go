package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
)

var (
	imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
	videoExts = map[string]bool{
		".mp4": true, ".mov": true, ".avi": true, ".mkv": true,
		".webm": true, ".unknown_video": true, ".m3u8": true,
	}
)

// Enricher routes a downloaded file to OCR or transcription.
type Enricher struct {
	ocr          OCR
	transcriber  Transcriber
	inspector    Inspector
	ocrLanguages []string
	language     string
	keepMedia    bool
}

type EnricherConfig struct {
	OCRLanguages []string
	Language     string
	KeepMedia    bool
}

func NewEnricher(ocr OCR, tr Transcriber, in Inspector, cfg EnricherConfig) *Enricher {
	return &Enricher{
		ocr:          ocr,
		transcriber:  tr,
		inspector:    in,
		ocrLanguages: cfg.OCRLanguages,
		language:     cfg.Language,
		keepMedia:    cfg.KeepMedia,
	}
}

// Extract returns the text found in the file at path, or nil when there is
// none to find (failed OCR, unknown extension, video without audio). Only a
// failed transcription is an error, wrapping domain.ErrTranscriptionFailed.
// Unless media is kept, the file is removed before returning.
func (e *Enricher) Extract(ctx context.Context, path string) (*string, error) {
	defer e.discard(path)

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExts[ext]:
		return e.fromImage(ctx, path), nil
	case videoExts[ext]:
		if !e.inspector.HasAudioStream(ctx, path) {
			slog.Info("video has no audio, skipping transcription", "path", path)
			return nil, nil
		}
		return e.fromVideo(ctx, path)
	default:
		slog.Warn("unrecognized media extension", "path", path)
		return nil, nil
	}
}

func (e *Enricher) fromImage(ctx context.Context, path string) *string {
	slog.Debug("running OCR", "path", path)
	text, err := e.ocr.Recognize(ctx, path, e.ocrLanguages)
	if err != nil {
		slog.Warn("OCR failed", "path", path, "err", err)
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &text
}

func (e *Enricher) fromVideo(ctx context.Context, path string) (*string, error) {
	slog.Debug("transcribing video", "path", path)
	text, err := e.transcriber.Transcribe(ctx, path, e.language)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrTranscriptionFailed, filepath.Base(path), err)
	}
	text = strings.TrimSpace(text)
	return &text, nil
}

// discard removes a media file unless media is kept.
func (e *Enricher) discard(path string) {
	if e.keepMedia || path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not remove media", "path", path, "err", err)
	}
}
