// Package enrich orchestrates the two per-entity enrichment passes: stands
// extraction through a headless browser, and stance analysis through the
// reasoning service. Entities are processed strictly one at a time with a
// pacing delay in between, and the collection file is rewritten atomically
// after every entity so a crash loses at most the in-flight record.
package enrich

import (
	"context"
	"fmt"

	"cardscraper/pkg/checkpoint"
	"cardscraper/pkg/logger"
	"cardscraper/pkg/models"
	"cardscraper/pkg/ratelimit"
	"cardscraper/pkg/report"
	"cardscraper/pkg/reasoning"
)

// Stats summarises one orchestrator pass
type Stats struct {
	Processed int
	Skipped   int
	Failed    int
}

// Options control checkpoint behaviour for a pass
type Options struct {
	// Resume skips entities the stage checkpoint marks as done
	Resume bool
	// ForceRestart discards an existing checkpoint before starting
	ForceRestart bool
}

// Orchestrator drives the enrichment passes over a collection
type Orchestrator struct {
	renderer PageRenderer
	fetcher  ProfileFetcher
	analyzer StanceAnalyzer
	pacer    ratelimit.Limiter
	dataDir  string
	logger   logger.Logger
}

// New creates an orchestrator. Either renderer or fetcher+analyzer may be
// nil when only one pass will run.
func New(renderer PageRenderer, fetcher ProfileFetcher, analyzer StanceAnalyzer,
	pacer ratelimit.Limiter, dataDir string, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Orchestrator{
		renderer: renderer,
		fetcher:  fetcher,
		analyzer: analyzer,
		pacer:    pacer,
		dataDir:  dataDir,
		logger:   log,
	}
}

// openCheckpoint applies the resume/force-restart semantics for a stage
func (o *Orchestrator) openCheckpoint(stage string, opts Options) (*checkpoint.Manager, *checkpoint.Checkpoint, error) {
	mgr, err := checkpoint.NewManager(o.dataDir, stage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}

	if opts.ForceRestart && mgr.Exists() {
		if err := mgr.Delete(); err != nil {
			o.logger.WithError(err).Warn("Failed to delete existing checkpoint")
		}
	} else if mgr.Exists() && !opts.Resume {
		return nil, nil, fmt.Errorf("checkpoint exists for stage %q - use --resume to continue or --force-restart to start fresh", stage)
	}

	if opts.Resume && mgr.Exists() {
		cp, err := mgr.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if cp != nil {
			return mgr, cp, nil
		}
	}

	cp, err := mgr.Create()
	if err != nil {
		return nil, nil, err
	}
	return mgr, cp, nil
}

// EnrichStands runs the stands-extraction pass over the collection, writing
// the updated collection to outputPath after every entity. Per-entity
// failures are logged and skipped; the pass only fails on persistence or
// cancellation errors.
func (o *Orchestrator) EnrichStands(ctx context.Context, collection models.Collection, outputPath string, opts Options) (*Stats, error) {
	mgr, cp, err := o.openCheckpoint("enrich", opts)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}

	for i, cardinal := range collection {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		log := o.logger.WithFields(map[string]interface{}{
			"name":  cardinal.Name,
			"index": i + 1,
			"total": len(collection),
		})

		if cardinal.ProfileURL == "" {
			log.Info("No profile URL, skipping")
			stats.Skipped++
			continue
		}
		if cp.IsProcessed(cardinal.Name) {
			log.Debug("Already processed in a previous run, skipping")
			stats.Skipped++
			continue
		}

		// Pacing applies regardless of how the previous entity ended
		if err := o.pacer.Wait(ctx); err != nil {
			return stats, err
		}

		log.WithField("url", cardinal.ProfileURL).Info("Rendering profile page")

		result, err := o.renderer.RenderStands(ctx, cardinal.ProfileURL)
		if err != nil {
			// Failures are not checkpointed as done; a resumed run retries them
			log.WithError(err).Error("Failed to render profile page")
			stats.Failed++
			if err := mgr.MarkFailed(cp); err != nil {
				return stats, err
			}
			continue
		}

		if !result.Found {
			log.Info("No stands section found")
			stats.Skipped++
			if err := mgr.MarkSkipped(cp, cardinal.Name); err != nil {
				return stats, err
			}
			continue
		}

		attributes := report.ExtractStands(result.HTML)
		if len(attributes) == 0 {
			log.Warn("No attributes extracted despite stands section being present")
		}

		cardinal.MergeAttributes(attributes)

		if err := collection.Save(outputPath); err != nil {
			return stats, fmt.Errorf("failed to persist collection: %w", err)
		}
		if err := mgr.MarkProcessed(cp, cardinal.Name); err != nil {
			return stats, err
		}

		stats.Processed++
		log.InfoWithFields("Added attributes", map[string]interface{}{
			"attributes": len(attributes),
			"clicks":     result.Clicks,
			"truncated":  result.Truncated,
		})
	}

	if err := collection.Save(outputPath); err != nil {
		return stats, fmt.Errorf("failed to persist collection: %w", err)
	}

	return stats, nil
}

// AnalyzeProfiles runs the stance-reasoning pass over the collection,
// writing the updated collection to outputPath after every entity
func (o *Orchestrator) AnalyzeProfiles(ctx context.Context, collection models.Collection, outputPath string, opts Options) (*Stats, error) {
	mgr, cp, err := o.openCheckpoint("analyze", opts)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}

	for i, cardinal := range collection {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		log := o.logger.WithFields(map[string]interface{}{
			"name":  cardinal.Name,
			"index": i + 1,
			"total": len(collection),
		})

		if cardinal.ProfileURL == "" {
			log.Info("No profile URL, skipping")
			stats.Skipped++
			continue
		}
		if cp.IsProcessed(cardinal.Name) {
			log.Debug("Already processed in a previous run, skipping")
			stats.Skipped++
			continue
		}

		if err := o.pacer.Wait(ctx); err != nil {
			return stats, err
		}

		log.WithField("url", cardinal.ProfileURL).Info("Fetching profile text")

		text, err := o.fetcher.FetchProfileText(ctx, cardinal.ProfileURL)
		if err != nil {
			// Failures are not checkpointed as done; a resumed run retries them
			log.WithError(err).Error("Failed to fetch profile text")
			stats.Failed++
			if err := mgr.MarkFailed(cp); err != nil {
				return stats, err
			}
			continue
		}

		log.Info("Analyzing profile with reasoning service")

		analysis := o.analyzer.Analyze(ctx, text)
		if analysis.Failed() {
			// Keep the raw response in the log for later inspection
			log.ErrorWithFields("Analysis failed", map[string]interface{}{
				"error":        analysis.Err,
				"raw_response": analysis.RawResponse,
			})
			stats.Failed++
			if err := mgr.MarkFailed(cp); err != nil {
				return stats, err
			}
			continue
		}

		attributes := reasoning.ConvertToAttributes(analysis)
		cardinal.MergeAttributes(attributes)
		// Raw analysis kept verbatim alongside the derived attributes
		cardinal.Analysis = analysis

		if err := collection.Save(outputPath); err != nil {
			return stats, fmt.Errorf("failed to persist collection: %w", err)
		}
		if err := mgr.MarkProcessed(cp, cardinal.Name); err != nil {
			return stats, err
		}

		stats.Processed++
		log.InfoWithFields("Added analysis", map[string]interface{}{
			"attributes": len(attributes),
		})
	}

	if err := collection.Save(outputPath); err != nil {
		return stats, fmt.Errorf("failed to persist collection: %w", err)
	}

	return stats, nil
}
