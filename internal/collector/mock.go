package collector

import (
	"context"
	"fmt"
	"os"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
)

// MockCollector serves the same saved results page for every term.
type MockCollector struct {
	fixture string
}

func NewMockCollector(fixtureFile string) *MockCollector {
	return &MockCollector{fixture: fixtureFile}
}

func (mc *MockCollector) Open(ctx context.Context) (domain.Session, error) {
	data, err := os.ReadFile(mc.fixture)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	return &mockSession{markup: string(data)}, nil
}

type mockSession struct {
	markup string
}

func (m *mockSession) Search(ctx context.Context, term string) (domain.ResultsPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.ResultsPage{}, err
	}
	return domain.ResultsPage{
		Term:        term,
		Markup:      m.markup,
		Credentials: domain.Credentials{UserAgent: "mock"},
	}, nil
}

func (m *mockSession) Close() error { return nil }
