package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardscraper/pkg/auth"
	"cardscraper/pkg/enrich"
	"cardscraper/pkg/models"
	"cardscraper/pkg/ratelimit"
	"cardscraper/pkg/reasoning"
	"cardscraper/pkg/report"
)

var (
	analyzeInput        string
	analyzeOutput       string
	analyzeResume       bool
	analyzeForceRestart bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rate theological stances with a reasoning model",
	Long: `Fetch each cardinal's profile summary and narrative text, send them to the
configured reasoning service, and record ratings on four dimensions:
theological conservatism, reform-leaning theology, LGBTQ+ policies, and
environmentalism. Ratings are merged into the cardinal's attributes and the
full model response is stored under analysis_results.

The API key is resolved from the GROQ_API_KEY environment variable or the
credential store (see 'cardscraper auth'). Progress is checkpointed per
cardinal and can be resumed with --resume.`,
	Example: `  # Analyze the default collection
  cardscraper analyze

  # Resume an interrupted run
  cardscraper analyze --resume`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "collection file to read (default: <data-dir>/cardinals.json)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "collection file to write (default: same as input)")
	analyzeCmd.Flags().BoolVar(&analyzeResume, "resume", false, "resume from last checkpoint")
	analyzeCmd.Flags().BoolVar(&analyzeForceRestart, "force-restart", false, "discard existing checkpoint and start over")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	input := collectionPath(cfg, analyzeInput)
	output := analyzeOutput
	if output == "" {
		output = input
	}

	// Resolve the API key through the credential chain when not configured
	if cfg.Reasoning.APIKey == "" {
		manager, err := auth.NewManager()
		if err != nil {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		key, err := manager.ResolveAPIKey(cfg.Reasoning.Provider)
		if err != nil {
			log.WithField("provider", cfg.Reasoning.Provider).Error("No API key found")
			return fmt.Errorf("no API key for %s: set GROQ_API_KEY or run 'cardscraper auth set'", cfg.Reasoning.Provider)
		}
		cfg.Reasoning.APIKey = key
	}

	collection, err := models.LoadCollection(input)
	if err != nil {
		log.WithError(err).WithField("input", input).Error("Failed to load collection")
		return err
	}

	analyzer, err := reasoning.NewClient(cfg.Reasoning, log)
	if err != nil {
		return err
	}

	fetcher := report.NewClient(cfg.Site.BaseURL, cfg.Site.UserAgent,
		cfg.Site.RequestTimeout, cfg.Site.MaxRetries, log)

	ctx, cancel := signalContext()
	defer cancel()

	pacer := ratelimit.NewPacer(cfg.RateLimit.EntityDelay)
	orchestrator := enrich.New(nil, fetcher, analyzer, pacer, cfg.Storage.DataDir, log)

	log.WithFields(map[string]interface{}{
		"cardinals": len(collection),
		"model":     cfg.Reasoning.Model,
	}).Info("Starting stance analysis")
	stats, err := orchestrator.AnalyzeProfiles(ctx, collection, output, enrich.Options{
		Resume:       analyzeResume,
		ForceRestart: analyzeForceRestart,
	})
	if err != nil {
		log.WithError(err).Error("Analysis failed")
		return err
	}

	log.WithFields(map[string]interface{}{
		"processed": stats.Processed,
		"skipped":   stats.Skipped,
		"failed":    stats.Failed,
		"output":    output,
	}).Info("Analysis completed")
	return nil
}
