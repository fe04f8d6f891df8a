package report

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cardscraper/pkg/models"
)

// Selectors for the stands section. The rating fragment inside each content
// block is a PHP array dumped as text, hence the regexes below instead of
// markup parsing.
const (
	standsSectionID    = "wherehestands"
	loadMoreSelector   = "a.accrodin-btn.button-secondary" // typo is the site's
	StandsSectionProbe = "#" + standsSectionID
	LoadMoreProbe      = loadMoreSelector
)

var (
	valuePattern = regexp.MustCompile(`\[value\] =>\s*(\d+)`)
	labelPattern = regexp.MustCompile(`\[label\] =>\s*([^\)]+)`)
)

// ExtractStands extracts issue attributes from a fully rendered profile page.
// A missing stands section yields an empty slice; missing fragments within an
// item yield Unknown sentinels. The function never fails on absent data.
func ExtractStands(html string) []models.Attribute {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	section := doc.Find("div#" + standsSectionID).First()
	if section.Length() == 0 {
		return nil
	}

	var attributes []models.Attribute

	section.Find("div.accordion-heading").Each(func(_ int, item *goquery.Selection) {
		issueTitle := extractIssueTitle(item)

		details := item.Parent().Find("div.accordion-details").First()
		if details.Length() == 0 {
			return
		}

		details.Find("div.accordion-content").Each(func(_ int, content *goquery.Selection) {
			subtitle := models.NoSubtitle
			if titleElem := content.Find("p.accordion-sub-title").First(); titleElem.Length() > 0 {
				subtitle = strings.TrimSpace(titleElem.Text())
			}

			value, label := models.UnknownValue, models.UnknownLabel
			if hidden := content.Find(`div[a="b"]`).First(); hidden.Length() > 0 {
				value, label = parseRatingFragment(hidden.Text())
			}

			attributes = append(attributes, models.Attribute{
				IssueTitle: issueTitle,
				Subtitle:   subtitle,
				Value:      value,
				Label:      label,
			})
		})
	})

	return attributes
}

// extractIssueTitle pulls the issue heading out of an accordion item
func extractIssueTitle(item *goquery.Selection) string {
	heading := item.Find("h3").First()
	if heading.Length() == 0 {
		return models.UnknownIssueTitle
	}

	if span := heading.Find("span.accordion-title").First(); span.Length() > 0 {
		return strings.TrimSpace(span.Text())
	}

	// Fallback: strip the trailing "See evidence" link text
	title := strings.TrimSpace(heading.Text())
	if idx := strings.Index(title, "See evidence"); idx >= 0 {
		title = strings.TrimSpace(title[:idx])
	}
	return title
}

// parseRatingFragment reads the serialized-array-as-text fragment, e.g.
//
//	Array ( [value] => 3 [label] => Neutral )
//
// Either match failing defaults that field to Unknown.
func parseRatingFragment(fragment string) (value, label string) {
	value, label = models.UnknownValue, models.UnknownLabel

	fragment = strings.TrimSpace(fragment)
	if m := valuePattern.FindStringSubmatch(fragment); m != nil {
		value = m[1]
	}
	if m := labelPattern.FindStringSubmatch(fragment); m != nil {
		label = strings.TrimSpace(m[1])
	}
	return value, label
}
