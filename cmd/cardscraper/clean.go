package main

import (
	"github.com/spf13/cobra"

	"cardscraper/pkg/models"
)

var (
	cleanInput  string
	cleanOutput string
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: `Drop attributes with an "Unknown" label`,
	Long: `Remove attributes whose label could not be determined during extraction.
Cardinals themselves are never removed, only their unusable attributes.`,
	Example: `  # Clean the default collection in place
  cardscraper clean

  # Write the cleaned collection elsewhere
  cardscraper clean --output ./cardinals_clean.json`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringVarP(&cleanInput, "input", "i", "", "collection file to read (default: <data-dir>/cardinals.json)")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "collection file to write (default: same as input)")
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	input := collectionPath(cfg, cleanInput)
	output := cleanOutput
	if output == "" {
		output = input
	}

	collection, err := models.LoadCollection(input)
	if err != nil {
		log.WithError(err).WithField("input", input).Error("Failed to load collection")
		return err
	}

	removed := collection.FilterUnknown()

	if err := collection.Save(output); err != nil {
		log.WithError(err).Error("Failed to save collection")
		return err
	}

	log.WithFields(map[string]interface{}{
		"removed": removed,
		"output":  output,
	}).Info("Clean completed")
	return nil
}
