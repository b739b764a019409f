package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/dashboard"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/storage"
)

func main() {
	dir := flag.String("dir", "collections", "directory holding Collection_*.json batches")
	out := flag.String("out", "report.html", "output HTML file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	posts, err := storage.ReadBatches(*dir)
	if err != nil {
		logger.Error("reading batches failed", "dir", *dir, "err", err)
		os.Exit(1)
	}
	if err := dashboard.WriteFile(*out, posts); err != nil {
		logger.Error("writing report failed", "err", err)
		os.Exit(1)
	}
	logger.Info("report written", "path", *out, "posts", len(posts))
}
