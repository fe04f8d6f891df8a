package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cardscraper/pkg/models"
	"cardscraper/pkg/store"
)

var (
	indexInput   string
	indexCSV     string
	indexSimilar string
	indexK       int
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Store records and stance vectors in SQLite",
	Long: `Upsert every cardinal into a SQLite database and, for analyzed cardinals,
index a 4-dimension stance vector (conservatism, reform-leaning, LGBTQ+
policies, environmentalism; missing dimensions default to the 3.0 midpoint).

With --similar the database is queried for the cardinals nearest in stance
space to the named cardinal. With --csv the indexed stance vectors are also
exported as a CSV file.`,
	Example: `  # Index the default collection
  cardscraper index

  # Index and export stance vectors as CSV
  cardscraper index --csv ./stances.csv

  # Find the five cardinals with the most similar stances
  cardscraper index --similar "Pietro Parolin" -k 5`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().StringVarP(&indexInput, "input", "i", "", "collection file to read (default: <data-dir>/cardinals.json)")
	indexCmd.Flags().StringVar(&indexCSV, "csv", "", "export indexed stance vectors to this CSV file")
	indexCmd.Flags().StringVar(&indexSimilar, "similar", "", "query for cardinals with stances nearest to this cardinal")
	indexCmd.Flags().IntVarP(&indexK, "k", "k", 5, "number of neighbours for --similar")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	input := collectionPath(cfg, indexInput)
	ctx := context.Background()

	collection, err := models.LoadCollection(input)
	if err != nil {
		log.WithError(err).WithField("input", input).Error("Failed to load collection")
		return err
	}

	db, err := store.New(cfg.Storage.DatabasePath)
	if err != nil {
		log.WithError(err).Error("Failed to open database")
		return err
	}
	defer db.Close()

	indexed, withStance, err := db.IndexCollection(ctx, collection)
	if err != nil {
		log.WithError(err).Error("Failed to index collection")
		return err
	}

	log.WithFields(map[string]interface{}{
		"indexed":  indexed,
		"stances":  withStance,
		"database": cfg.Storage.DatabasePath,
	}).Info("Index completed")

	if indexCSV != "" {
		f, err := os.Create(indexCSV)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		defer f.Close()

		if err := db.ExportCSV(ctx, f); err != nil {
			log.WithError(err).Error("CSV export failed")
			return err
		}
		log.WithField("csv", indexCSV).Info("Stance vectors exported")
	}

	if indexSimilar != "" {
		neighbors, err := db.NearestByName(ctx, indexSimilar, indexK)
		if err != nil {
			log.WithError(err).WithField("name", indexSimilar).Error("Similarity query failed")
			return err
		}

		fmt.Printf("Cardinals with stances nearest to %s:\n", indexSimilar)
		for i, n := range neighbors {
			fmt.Printf("%2d. %-40s %-20s distance=%.3f\n", i+1, n.Name, n.Nation, n.Distance)
		}
	}

	return nil
}
