// Package monitor drives the platform adapters: a Runner scans one
// adapter, the Coordinator fans out over all of them.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"RecipeRadar/internal/config"
	"RecipeRadar/internal/domain"
	"RecipeRadar/internal/ports"
	"RecipeRadar/internal/scoring"
)

// Runner executes the scan workflow for a single adapter: trending fetch,
// per-tag fetches, in-scan URL dedupe, and scoring. A scan never fails
// past this boundary; fetch errors are logged and the scan continues with
// whatever succeeded.
type Runner struct {
	adapter    ports.Monitor
	thresholds config.ThresholdConfig
	logger     *slog.Logger

	mu              sync.Mutex
	totalScanned    int
	totalViralFound int
	lastCheck       time.Time
}

// NewRunner wires an adapter with the shared thresholds.
func NewRunner(adapter ports.Monitor, thresholds config.ThresholdConfig, logger *slog.Logger) *Runner {
	return &Runner{
		adapter:    adapter,
		thresholds: thresholds,
		logger:     logger.With("monitor", adapter.Name()),
	}
}

// Name reports the underlying adapter's identity.
func (r *Runner) Name() string { return r.adapter.Name() }

// Close shuts down the underlying adapter.
func (r *Runner) Close() error { return r.adapter.Close() }

// Scan fetches trending plus tagged content, deduplicates by URL within
// the scan, scores every unique item, and returns the viral signals.
// An empty slice means nothing viral was found or every fetch failed.
func (r *Runner) Scan(ctx context.Context) []domain.ViralSignal {
	var all []domain.RawContent

	trending, err := r.adapter.FetchTrending(ctx)
	if err != nil {
		r.logger.Error("trending fetch failed", "error", err)
	} else {
		all = append(all, trending...)
		r.logger.Debug("trending fetched", "items", len(trending))
	}

	for _, tag := range r.adapter.Tags() {
		tagged, err := r.adapter.FetchByTag(ctx, tag)
		if err != nil {
			r.logger.Error("tag fetch failed", "tag", tag, "error", err)
			continue
		}
		r.logger.Debug("tag fetched", "tag", tag, "items", len(tagged))
		all = append(all, tagged...)
	}

	unique := dedupeByURL(all)

	now := time.Now().UTC()
	var viral []domain.ViralSignal
	for _, content := range unique {
		signal := scoring.Score(content, now, r.thresholds)
		if signal.IsViral {
			viral = append(viral, signal)
			r.logger.Info("viral content detected",
				"profile", content.SourceProfile,
				"views", content.Views,
				"score", signal.ViralScore,
			)
		}
	}

	r.mu.Lock()
	r.totalScanned += len(unique)
	r.totalViralFound += len(viral)
	r.lastCheck = now
	r.mu.Unlock()

	r.logger.Info("scan finished", "scanned", len(unique), "viral", len(viral))
	return viral
}

// Stats returns a snapshot of the runner's lifetime counters.
func (r *Runner) Stats() domain.MonitorStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := domain.MonitorStats{
		Monitor:         r.adapter.Name(),
		TotalScanned:    r.totalScanned,
		TotalViralFound: r.totalViralFound,
	}
	if !r.lastCheck.IsZero() {
		t := r.lastCheck
		stats.LastCheck = &t
	}
	return stats
}

// dedupeByURL drops items whose source URL was already seen; the first
// occurrence wins, so trending items take precedence over tag results.
func dedupeByURL(items []domain.RawContent) []domain.RawContent {
	seen := make(map[string]struct{}, len(items))
	unique := make([]domain.RawContent, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.SourceURL]; ok {
			continue
		}
		seen[item.SourceURL] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}
