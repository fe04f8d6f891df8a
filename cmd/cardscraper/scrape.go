package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"cardscraper/pkg/models"
	"cardscraper/pkg/report"
)

var scrapeOutput string

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch the cardinals table and build the collection file",
	Long: `Fetch the public cardinals table (voting members) and parse each row into
an entity record: name, profile URL, photo, voting status, age, nation,
continent, and position.

If the collection file already exists, records are merged by name so that
attributes and analysis results from previous enrich/analyze runs are kept.`,
	Example: `  # Write the collection to the default data directory
  cardscraper scrape

  # Write to a specific file
  cardscraper scrape --output ./cardinals.json`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "collection file to write (default: <data-dir>/cardinals.json)")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	output := collectionPath(cfg, scrapeOutput)
	ctx := context.Background()

	client := report.NewClient(cfg.Site.BaseURL, cfg.Site.UserAgent,
		cfg.Site.RequestTimeout, cfg.Site.MaxRetries, log)

	log.WithField("base_url", cfg.Site.BaseURL).Info("Fetching cardinals table")
	rows, err := client.FetchCardinals(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to fetch cardinals table")
		return err
	}

	// Merge into the existing collection so re-scrapes keep enrichment data
	existing, err := models.LoadCollection(output)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	collection := make(models.Collection, 0, len(rows))
	for _, row := range rows {
		cardinal := &models.Cardinal{
			Name:         row.Name,
			ProfileURL:   row.ProfileURL,
			ImageURL:     row.ImageURL,
			VotingStatus: row.VotingStatus,
			CreatedBy:    row.CreatedBy,
			Age:          row.Age,
			Nation:       row.Nation,
			Continent:    row.Continent,
			Position:     row.Position,
		}
		if prev := existing.FindByName(row.Name); prev != nil {
			cardinal.Attributes = prev.Attributes
			cardinal.Analysis = prev.Analysis
		}
		collection = append(collection, cardinal)
	}

	if err := collection.Save(output); err != nil {
		log.WithError(err).Error("Failed to save collection")
		return err
	}

	log.WithFields(map[string]interface{}{
		"cardinals": len(collection),
		"output":    output,
	}).Info("Scrape completed")
	return nil
}
