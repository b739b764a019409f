// Package dashboard renders a static HTML report of collected batches.
package dashboard

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
)

// Summary aggregates collected posts for charting.
type Summary struct {
	Posts       int
	PerTerm     map[string]int
	PerMedia    map[string]int
	Transcribed int
}

// Summarize counts posts per search term and attachments per media kind.
// Posts without attachments count under "none".
func Summarize(posts []domain.CollectedPost) Summary {
	s := Summary{
		Posts:    len(posts),
		PerTerm:  make(map[string]int),
		PerMedia: make(map[string]int),
	}
	for _, p := range posts {
		s.PerTerm[p.Metadata.SearchTerm]++
		if len(p.Content.Attachments) == 0 {
			s.PerMedia["none"]++
			continue
		}
		for _, a := range p.Content.Attachments {
			s.PerMedia[string(a.Kind)]++
			if a.ExtractedText != nil && *a.ExtractedText != "" {
				s.Transcribed++
			}
		}
	}
	return s
}

// Render writes the report page for posts to w.
func Render(w io.Writer, posts []domain.CollectedPost) error {
	s := Summarize(posts)

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Posts per search term", Subtitle: fmt.Sprintf("%d posts", s.Posts)}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)
	var pieItems []opts.PieData
	for _, k := range sortedKeys(s.PerTerm) {
		pieItems = append(pieItems, opts.PieData{Name: k, Value: s.PerTerm[k]})
	}
	pie.AddSeries("Posts", pieItems)

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title:    "Attachments by media kind",
		Subtitle: fmt.Sprintf("%d with extracted text", s.Transcribed),
	}))
	var barX []string
	var barY []opts.BarData
	for _, k := range sortedKeys(s.PerMedia) {
		barX = append(barX, k)
		barY = append(barY, opts.BarData{Value: s.PerMedia[k]})
	}
	bar.SetXAxis(barX).AddSeries("Attachments", barY)

	page := components.NewPage()
	page.PageTitle = "Collection report"
	page.AddCharts(pie, bar)
	return page.Render(w)
}

// WriteFile renders the report into path.
func WriteFile(path string, posts []domain.CollectedPost) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := Render(f, posts); err != nil {
		f.Close()
		return fmt.Errorf("rendering report: %w", err)
	}
	return f.Close()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
