package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// OCR reads text out of an image.
type OCR interface {
	Recognize(ctx context.Context, imagePath string, languages []string) (string, error)
}

// Transcriber turns the speech in a media file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath, language string) (string, error)
}

// Inspector reports whether a media file carries an audio stream.
type Inspector interface {
	HasAudioStream(ctx context.Context, mediaPath string) bool
}

// Tesseract runs the tesseract CLI and reads its stdout.
type Tesseract struct {
	Bin string
}

func (t *Tesseract) Recognize(ctx context.Context, imagePath string, languages []string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Bin, imagePath, "stdout", "-l", strings.Join(languages, "+"))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract %s: %w: %s", filepath.Base(imagePath), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// FFprobe inspects streams with ffprobe.
type FFprobe struct {
	Bin string
}

// HasAudioStream is false on any failure, so a broken probe and a silent video
// look the same.
func (f *FFprobe) HasAudioStream(ctx context.Context, mediaPath string) bool {
	if _, err := os.Stat(mediaPath); err != nil {
		return false
	}
	out, err := exec.CommandContext(ctx, f.Bin,
		"-v", "error", "-select_streams", "a:0",
		"-show_entries", "stream=codec_type",
		"-of", "default=noprint_wrappers=1:nokey=1",
		mediaPath,
	).Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) != ""
}

// Whisper runs the openai-whisper CLI on CPU in fp32 and reads the txt output.
type Whisper struct {
	Bin   string
	Model string
}

func (w *Whisper) Transcribe(ctx context.Context, mediaPath, language string) (string, error) {
	outDir, err := os.MkdirTemp("", "whisper-*")
	if err != nil {
		return "", fmt.Errorf("creating whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.Bin, mediaPath,
		"--model", w.Model,
		"--language", language,
		"--fp16", "False",
		"--output_format", "txt",
		"--output_dir", outDir,
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper %s: %w: %s", filepath.Base(mediaPath), err, strings.TrimSpace(stderr.String()))
	}

	stem := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	data, err := os.ReadFile(filepath.Join(outDir, stem+".txt"))
	if err != nil {
		return "", fmt.Errorf("reading whisper output: %w", err)
	}
	return string(data), nil
}
