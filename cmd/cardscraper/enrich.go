package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cardscraper/pkg/browser"
	"cardscraper/pkg/enrich"
	"cardscraper/pkg/models"
	"cardscraper/pkg/ratelimit"
)

var (
	enrichInput        string
	enrichOutput       string
	enrichResume       bool
	enrichForceRestart bool
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: `Extract "Where He Stands" attributes for each cardinal`,
	Long: `Drive a headless browser over each cardinal's profile page, expand the
"Where He Stands" accordion by clicking its load-more control, and extract
issue attributes (title, subtitle, rating value, label) from the rendered HTML.

The collection file is rewritten after every cardinal, and progress is
checkpointed so an interrupted run can be resumed with --resume. Cardinals
whose pages lack the stands section are skipped.`,
	Example: `  # Enrich the default collection
  cardscraper enrich

  # Resume an interrupted run
  cardscraper enrich --resume

  # Discard the checkpoint and start over
  cardscraper enrich --force-restart`,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().StringVarP(&enrichInput, "input", "i", "", "collection file to read (default: <data-dir>/cardinals.json)")
	enrichCmd.Flags().StringVarP(&enrichOutput, "output", "o", "", "collection file to write (default: same as input)")
	enrichCmd.Flags().BoolVar(&enrichResume, "resume", false, "resume from last checkpoint")
	enrichCmd.Flags().BoolVar(&enrichForceRestart, "force-restart", false, "discard existing checkpoint and start over")
}

// signalContext returns a context cancelled on SIGINT/SIGTERM so an
// interrupted pass still leaves a usable checkpoint behind.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	input := collectionPath(cfg, enrichInput)
	output := enrichOutput
	if output == "" {
		output = input
	}

	collection, err := models.LoadCollection(input)
	if err != nil {
		log.WithError(err).WithField("input", input).Error("Failed to load collection")
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	loader := browser.NewLoader(cfg.Browser, cfg.Site.UserAgent, log)
	pacer := ratelimit.NewPacer(cfg.RateLimit.EntityDelay)
	orchestrator := enrich.New(loader, nil, nil, pacer, cfg.Storage.DataDir, log)

	log.WithField("cardinals", len(collection)).Info("Starting stands enrichment")
	stats, err := orchestrator.EnrichStands(ctx, collection, output, enrich.Options{
		Resume:       enrichResume,
		ForceRestart: enrichForceRestart,
	})
	if err != nil {
		log.WithError(err).Error("Enrichment failed")
		return err
	}

	log.WithFields(map[string]interface{}{
		"processed": stats.Processed,
		"skipped":   stats.Skipped,
		"failed":    stats.Failed,
		"output":    output,
	}).Info("Enrichment completed")
	return nil
}
