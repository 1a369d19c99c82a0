package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"RecipeRadar/internal/domain"
)

// structuralPrefix is how much of the lowercased title participates in
// the cross-platform fingerprint. Enough to catch a creator cross-posting
// the same caption, cheap enough to compute for every signal.
const structuralPrefix = 50

// Coordinator fans a scan out over every runner concurrently and merges
// the results. One failing platform never blocks or poisons the others:
// runners already isolate fetch failures, and the coordinator guards
// against a runner panicking by recovering per goroutine.
type Coordinator struct {
	runners []*Runner
	logger  *slog.Logger
}

// NewCoordinator holds the runner list in configuration order.
func NewCoordinator(runners []*Runner, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		runners: runners,
		logger:  logger.With("component", "coordinator"),
	}
}

// RunAll scans every platform in parallel, joins, merges the results in
// configuration order, and removes cross-platform duplicates.
func (c *Coordinator) RunAll(ctx context.Context) []domain.ViralSignal {
	c.logger.Info("starting scan", "monitors", len(c.runners))

	results := make([][]domain.ViralSignal, len(c.runners))

	var wg sync.WaitGroup
	for i, runner := range c.runners {
		wg.Add(1)
		go func(idx int, r *Runner) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					c.logger.Error("monitor panicked", "monitor", r.Name(), "panic", fmt.Sprint(rec))
				}
			}()
			results[idx] = r.Scan(ctx)
		}(i, runner)
	}
	wg.Wait()

	var merged []domain.ViralSignal
	for i, signals := range results {
		if len(signals) > 0 {
			c.logger.Info("monitor results", "monitor", c.runners[i].Name(), "viral", len(signals))
		}
		merged = append(merged, signals...)
	}

	unique := c.dedupeSignals(merged)

	c.logger.Info("scan complete", "unique_signals", len(unique), "total_signals", len(merged))
	return unique
}

// dedupeSignals removes cross-platform duplicates inside one scan using
// two rules applied in order: exact URL match, then a structural
// fingerprint of profile plus the first characters of the lowered title.
// The state lives only for this invocation.
func (c *Coordinator) dedupeSignals(signals []domain.ViralSignal) []domain.ViralSignal {
	if len(signals) == 0 {
		return nil
	}

	seenURLs := make(map[string]struct{}, len(signals))
	seenFingerprints := make(map[string]struct{}, len(signals))
	unique := make([]domain.ViralSignal, 0, len(signals))

	for _, signal := range signals {
		url := signal.Content.SourceURL
		if _, ok := seenURLs[url]; ok {
			continue
		}

		fp := structuralFingerprint(signal.Content)
		if _, ok := seenFingerprints[fp]; ok {
			c.logger.Debug("cross-platform duplicate dropped", "profile", signal.Content.SourceProfile)
			continue
		}

		seenURLs[url] = struct{}{}
		seenFingerprints[fp] = struct{}{}
		unique = append(unique, signal)
	}

	if removed := len(signals) - len(unique); removed > 0 {
		c.logger.Info("cross-platform duplicates removed", "count", removed)
	}
	return unique
}

func structuralFingerprint(content domain.RawContent) string {
	title := strings.ToLower(content.RawTitle)
	if len(title) > structuralPrefix {
		title = title[:structuralPrefix]
	}
	return content.SourceProfile + ":" + title
}

// Stats collects the lifetime counters of every runner.
func (c *Coordinator) Stats() []domain.MonitorStats {
	stats := make([]domain.MonitorStats, 0, len(c.runners))
	for _, runner := range c.runners {
		stats = append(stats, runner.Stats())
	}
	return stats
}

// CloseAll shuts every adapter down, logging failures without stopping.
func (c *Coordinator) CloseAll() {
	for _, runner := range c.runners {
		if err := runner.Close(); err != nil {
			c.logger.Error("adapter close failed", "monitor", runner.Name(), "error", err)
		}
	}
	c.logger.Info("all monitors closed")
}
