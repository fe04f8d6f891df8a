package enrich

import (
	"context"

	"cardscraper/pkg/browser"
	"cardscraper/pkg/models"
	"cardscraper/pkg/report"
)

// PageRenderer renders a profile page with its dynamic content expanded
type PageRenderer interface {
	RenderStands(ctx context.Context, url string) (*browser.RenderResult, error)
}

// ProfileFetcher fetches the free-text blocks of a profile page
type ProfileFetcher interface {
	FetchProfileText(ctx context.Context, profileURL string) (*report.ProfileText, error)
}

// StanceAnalyzer produces a stance analysis from profile text
type StanceAnalyzer interface {
	Analyze(ctx context.Context, text *report.ProfileText) *models.Analysis
}
