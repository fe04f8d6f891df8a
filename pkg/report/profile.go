package report

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "cardscraper/pkg/errors"
)

// Sentinels for absent profile text blocks
const (
	SummaryNotFound = "Summary not found"
	ProfileNotFound = "Profile not found"
)

// ProfileText holds the free-text blocks of a profile page that feed the
// reasoning pass
type ProfileText struct {
	Summary   string
	Narrative string
}

// ParseProfileText extracts the summary block and the full narrative from a
// profile page. Missing blocks are represented with sentinel strings, not
// errors, so a sparse profile still reaches the reasoning pass.
func ParseProfileText(html string) (*ProfileText, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, "failed to parse profile page", 0)
	}

	text := &ProfileText{
		Summary:   SummaryNotFound,
		Narrative: ProfileNotFound,
	}

	if summary := doc.Find("div.cardinals-summary-block").First(); summary.Length() > 0 {
		text.Summary = strings.TrimSpace(summary.Text())
	}
	if narrative := doc.Find("div.dynamic-entry-content").First(); narrative.Length() > 0 {
		text.Narrative = strings.TrimSpace(narrative.Text())
	}

	return text, nil
}
