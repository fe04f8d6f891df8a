package report

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "cardscraper/pkg/errors"
)

// CardinalRow is one entity stub scraped from the cardinals table
type CardinalRow struct {
	Name         string
	ProfileURL   string
	ImageURL     string
	VotingStatus string
	CreatedBy    string
	Age          string
	Nation       string
	Continent    string
	Position     string
}

// ParseCardinalsTable extracts entity stubs from the cardinals listing page.
// Column order is fixed by the site: name/photo, voting status, created by,
// age, nation, continent, position.
func ParseCardinalsTable(html string) ([]CardinalRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, "failed to parse listing page", 0)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errs.New(errs.ErrorTypeParsing, "cardinals table not found", 0)
	}

	var rows []CardinalRow
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 7 {
			return
		}

		row := CardinalRow{Name: "Name not found"}

		nameCell := cells.Eq(0)
		nameLink := nameCell.Find("h6.cardinal-item-cardinal-name a").First()
		if nameLink.Length() > 0 {
			row.Name = strings.TrimSpace(nameLink.Text())
			row.ProfileURL, _ = nameLink.Attr("href")
		}
		if img := nameCell.Find("img").First(); img.Length() > 0 {
			row.ImageURL, _ = img.Attr("src")
		}

		row.VotingStatus = strings.TrimSpace(cells.Eq(1).Text())
		row.CreatedBy = strings.TrimSpace(cells.Eq(2).Text())
		row.Age = strings.TrimSpace(cells.Eq(3).Text())
		row.Nation = strings.TrimSpace(cells.Eq(4).Text())
		row.Continent = strings.TrimSpace(cells.Eq(5).Text())
		row.Position = strings.TrimSpace(cells.Eq(6).Text())

		rows = append(rows, row)
	})

	return rows, nil
}
