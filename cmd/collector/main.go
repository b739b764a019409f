package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/collector"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/config"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/extractor"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/ingest"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/language"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/media"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/pipeline"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/pseudonym"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("collector stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("collector finished")
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	slog.Info("config loaded", "mode", cfg.Mode, "instance", cfg.Instance, "ledger_backend", cfg.LedgerBackend)

	tools, err := media.ResolveTools(
		media.Tool{Name: "yt-dlp", Path: cfg.Tools.YtDlp},
		media.Tool{Name: "tesseract", Path: cfg.Tools.Tesseract},
		media.Tool{Name: "ffprobe", Path: cfg.Tools.FFprobe},
		media.Tool{Name: "whisper", Path: cfg.Tools.Whisper},
	)
	if err != nil {
		return err
	}
	slog.Info("external tools found", "tools", tools)

	terms, err := ingest.LoadSearchTerms(cfg.SearchTermsFile)
	if err != nil {
		return err
	}
	slog.Info("search terms loaded", "count", len(terms), "file", cfg.SearchTermsFile)

	ledger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer ledger.Close()
	slog.Info("ledger loaded", "backend", cfg.LedgerBackend, "known_ids", ledger.Len())

	if err := os.MkdirAll(cfg.MediaDir, 0755); err != nil {
		return err
	}

	client, err := collector.NewCollector(collector.Options{
		Mode:            cfg.Mode,
		Instance:        cfg.Instance,
		Language:        cfg.Language,
		WaitTimeout:     cfg.WaitTimeout,
		RequestInterval: cfg.RequestInterval,
		CookieFile:      cfg.CookieFile,
		ProfileDir:      cfg.ProfileDir,
		Headless:        cfg.Headless,
		UserAgent:       cfg.UserAgent,
		FixtureFile:     cfg.FixtureFile,
	})
	if err != nil {
		return err
	}

	slog.Info("loading language models", "candidates", cfg.LanguageCandidates)
	detector, err := language.NewLinguaDetector(cfg.LanguageCandidates...)
	if err != nil {
		return err
	}
	filter := language.NewFilter(detector, cfg.Language, cfg.LanguageThreshold)

	acquirer := media.NewAcquirer(
		&media.YtDlp{Bin: tools["yt-dlp"], Timeout: cfg.DownloadTimeout},
		cfg.DownloadAttempts, cfg.DownloadBackoff,
	)
	enricher := media.NewEnricher(
		&media.Tesseract{Bin: tools["tesseract"]},
		&media.Whisper{Bin: tools["whisper"], Model: cfg.WhisperModel},
		&media.FFprobe{Bin: tools["ffprobe"]},
		media.EnricherConfig{OCRLanguages: cfg.OCRLanguages, Language: cfg.Language, KeepMedia: cfg.KeepMedia},
	)

	ex := extractor.New(
		extractor.Config{Instance: cfg.Instance, MediaDir: cfg.MediaDir},
		ledger, filter, pseudonym.New(cfg.PseudonymSalt), acquirer, enricher,
	)
	runner := pipeline.NewRunner(
		pipeline.Config{Terms: terms, MaxResults: cfg.MaxResults, Interval: cfg.Interval},
		client, ex, ledger, &storage.BatchWriter{Dir: cfg.OutputDir},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting collector", "interval", cfg.Interval, "terms", len(terms))
	return runner.Run(ctx)
}

func openLedger(cfg config.Config) (domain.Ledger, error) {
	if cfg.LedgerBackend == "sqlite" {
		return storage.OpenSQLiteLedger(cfg.LedgerFile)
	}
	return storage.OpenFileLedger(cfg.LedgerFile)
}
