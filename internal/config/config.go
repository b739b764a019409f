package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all collector settings.
type Config struct {
	Mode     string `mapstructure:"mode"`
	Instance string `mapstructure:"instance"`

	SearchTermsFile string `mapstructure:"search_terms_file"`
	LedgerFile      string `mapstructure:"ledger_file"`
	LedgerBackend   string `mapstructure:"ledger_backend"`
	OutputDir       string `mapstructure:"output_dir"`
	MediaDir        string `mapstructure:"media_dir"`
	KeepMedia       bool   `mapstructure:"keep_media"`

	MaxResults      int           `mapstructure:"max_results"`
	Interval        time.Duration `mapstructure:"interval"`
	WaitTimeout     time.Duration `mapstructure:"wait_timeout"`
	RequestInterval time.Duration `mapstructure:"request_interval"`

	DownloadTimeout  time.Duration `mapstructure:"download_timeout"`
	DownloadAttempts int           `mapstructure:"download_attempts"`
	DownloadBackoff  time.Duration `mapstructure:"download_backoff"`

	Language           string   `mapstructure:"language"`
	LanguageThreshold  float64  `mapstructure:"language_threshold"`
	LanguageCandidates []string `mapstructure:"language_candidates"`
	OCRLanguages       []string `mapstructure:"ocr_languages"`
	WhisperModel       string   `mapstructure:"whisper_model"`
	PseudonymSalt      string   `mapstructure:"pseudonym_salt"`

	ProfileDir  string `mapstructure:"profile_dir"`
	CookieFile  string `mapstructure:"cookie_file"`
	Headless    bool   `mapstructure:"headless"`
	UserAgent   string `mapstructure:"user_agent"`
	FixtureFile string `mapstructure:"fixture_file"`

	Tools Tools `mapstructure:"tools"`

	LogLevel string `mapstructure:"log_level"`
}

// Tools holds the external programs. Empty values are looked up on PATH.
type Tools struct {
	YtDlp     string `mapstructure:"ytdlp"`
	Tesseract string `mapstructure:"tesseract"`
	FFprobe   string `mapstructure:"ffprobe"`
	Whisper   string `mapstructure:"whisper"`
}

// Defaults returns a Config with all default values set.
func Defaults() Config {
	return Config{
		Mode:               "browser",
		Instance:           "https://twiiit.com",
		SearchTermsFile:    "search_terms.txt",
		LedgerFile:         "collected_ids.txt",
		LedgerBackend:      "file",
		OutputDir:          "collections",
		MediaDir:           "media",
		KeepMedia:          false,
		MaxResults:         20,
		Interval:           60 * time.Second,
		WaitTimeout:        60 * time.Second,
		RequestInterval:    2 * time.Second,
		DownloadTimeout:    120 * time.Second,
		DownloadAttempts:   3,
		DownloadBackoff:    5 * time.Second,
		Language:           "pt",
		LanguageThreshold:  0.95,
		LanguageCandidates: []string{"pt", "en", "es"},
		OCRLanguages:       []string{"por", "eng"},
		WhisperModel:       "base",
		PseudonymSalt:      "dAurora_Salt",
		ProfileDir:         "chrome_profile",
		CookieFile:         "cookies.txt",
		Headless:           true,
		LogLevel:           "info",
	}
}

// Load reads .env, then an optional YAML file at path, then COLLECTOR_* environment
// variables, each layer overriding the previous one.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix("collector")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
			}
			slog.Info("config file not found, using defaults and environment", "path", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	switch c.Mode {
	case "browser", "public", "mock":
	default:
		return fmt.Errorf("unknown mode %q (use 'browser', 'public', or 'mock')", c.Mode)
	}
	switch c.LedgerBackend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown ledger_backend %q (use 'file' or 'sqlite')", c.LedgerBackend)
	}
	if c.Mode == "mock" && c.FixtureFile == "" {
		return fmt.Errorf("fixture_file is required in mock mode")
	}
	if c.Instance == "" {
		return fmt.Errorf("instance is required")
	}
	if c.SearchTermsFile == "" {
		return fmt.Errorf("search_terms_file is required")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", c.MaxResults)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.DownloadAttempts < 1 {
		return fmt.Errorf("download_attempts must be at least 1, got %d", c.DownloadAttempts)
	}
	if c.LanguageThreshold <= 0 || c.LanguageThreshold > 1 {
		return fmt.Errorf("language_threshold must be in (0, 1], got %v", c.LanguageThreshold)
	}
	if len(c.LanguageCandidates) < 2 {
		return fmt.Errorf("language_candidates needs at least 2 languages, got %v", c.LanguageCandidates)
	}
	if !slices.Contains(c.LanguageCandidates, c.Language) {
		return fmt.Errorf("language_candidates %v must include language %q", c.LanguageCandidates, c.Language)
	}
	if c.PseudonymSalt == "" {
		return fmt.Errorf("pseudonym_salt is required")
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("mode", d.Mode)
	v.SetDefault("instance", d.Instance)
	v.SetDefault("search_terms_file", d.SearchTermsFile)
	v.SetDefault("ledger_file", d.LedgerFile)
	v.SetDefault("ledger_backend", d.LedgerBackend)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("media_dir", d.MediaDir)
	v.SetDefault("keep_media", d.KeepMedia)
	v.SetDefault("max_results", d.MaxResults)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("wait_timeout", d.WaitTimeout)
	v.SetDefault("request_interval", d.RequestInterval)
	v.SetDefault("download_timeout", d.DownloadTimeout)
	v.SetDefault("download_attempts", d.DownloadAttempts)
	v.SetDefault("download_backoff", d.DownloadBackoff)
	v.SetDefault("language", d.Language)
	v.SetDefault("language_threshold", d.LanguageThreshold)
	v.SetDefault("language_candidates", d.LanguageCandidates)
	v.SetDefault("ocr_languages", d.OCRLanguages)
	v.SetDefault("whisper_model", d.WhisperModel)
	v.SetDefault("pseudonym_salt", d.PseudonymSalt)
	v.SetDefault("profile_dir", d.ProfileDir)
	v.SetDefault("cookie_file", d.CookieFile)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("fixture_file", d.FixtureFile)
	v.SetDefault("tools.ytdlp", d.Tools.YtDlp)
	v.SetDefault("tools.tesseract", d.Tools.Tesseract)
	v.SetDefault("tools.ffprobe", d.Tools.FFprobe)
	v.SetDefault("tools.whisper", d.Tools.Whisper)
	v.SetDefault("log_level", d.LogLevel)
}
