// Package usecase drives the scan-process-publish cycle.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"RecipeRadar/internal/dedup"
	"RecipeRadar/internal/domain"
	"RecipeRadar/internal/metrics"
	"RecipeRadar/internal/monitor"
	"RecipeRadar/internal/ports"
)

// Deps wires all driven adapters into the orchestrator.
type Deps struct {
	Coordinator *monitor.Coordinator
	Processor   ports.RecipeProcessor
	Dedup       *dedup.Service
	Publisher   ports.RecipePublisher
	Repository  ports.RecipeRepository
	Metrics     *metrics.Collector
	Interval    time.Duration
	Logger      *slog.Logger
}

// Status is the external view of the orchestrator.
type Status struct {
	Running        bool                  `json:"running"`
	CycleCount     int                   `json:"cycle_count"`
	UptimeSeconds  float64               `json:"uptime_seconds"`
	LastCycle      *domain.CycleStats    `json:"last_cycle,omitempty"`
	Monitors       []domain.MonitorStats `json:"monitors"`
	HistorySize    int                   `json:"dedup_history_size"`
	PendingRecipes int                   `json:"pending_recipes"`
}

// Orchestrator owns the periodic cycle. All pipeline state, including
// the dedup service, is mutated only from the cycle goroutine; the
// mutex protects the run state and published statistics.
type Orchestrator struct {
	coordinator *monitor.Coordinator
	processor   ports.RecipeProcessor
	dedup       *dedup.Service
	publisher   ports.RecipePublisher
	repository  ports.RecipeRepository
	metrics     *metrics.Collector
	interval    time.Duration
	logger      *slog.Logger

	mu          sync.Mutex
	running     bool
	startedAt   time.Time
	cycleCount  int
	lastCycle   *domain.CycleStats
	lastScanned map[string]int
	stop        chan struct{}
	done        chan struct{}
}

// NewOrchestrator constructs the orchestration component.
func NewOrchestrator(deps Deps) *Orchestrator {
	interval := deps.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Orchestrator{
		coordinator: deps.Coordinator,
		processor:   deps.Processor,
		dedup:       deps.Dedup,
		publisher:   deps.Publisher,
		repository:  deps.Repository,
		metrics:     deps.Metrics,
		interval:    interval,
		logger:      deps.Logger.With("component", "orchestrator"),
		lastScanned: make(map[string]int),
	}
}

// Start launches the cycle loop. It fails when the loop already runs.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return fmt.Errorf("orchestrator already running")
	}

	o.running = true
	o.startedAt = time.Now()
	o.stop = make(chan struct{})
	o.done = make(chan struct{})

	go o.loop(ctx, o.stop, o.done)

	o.logger.Info("orchestrator started", "interval", o.interval)
	return nil
}

// Stop interrupts the sleep between cycles and waits for the current
// cycle to finish. Calling Stop on a stopped orchestrator is a no-op.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	stop, done := o.stop, o.done
	o.mu.Unlock()

	close(stop)
	<-done

	o.coordinator.CloseAll()
	if err := o.publisher.Close(); err != nil {
		o.logger.Warn("publisher close failed", "error", err)
	}
	o.logger.Info("orchestrator stopped")
}

// Status reports the current run state and the last cycle summary.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := Status{
		Running:        o.running,
		CycleCount:     o.cycleCount,
		Monitors:       o.coordinator.Stats(),
		HistorySize:    o.dedup.Size(),
		PendingRecipes: len(o.publisher.Pending()),
	}
	if o.running {
		status.UptimeSeconds = time.Since(o.startedAt).Seconds()
	}
	if o.lastCycle != nil {
		cycle := *o.lastCycle
		status.LastCycle = &cycle
	}
	return status
}

// Pending returns the recipes waiting for manual approval.
func (o *Orchestrator) Pending() []*domain.Recipe {
	return o.publisher.Pending()
}

func (o *Orchestrator) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for cycle := 1; ; cycle++ {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		stats := o.runCycle(ctx, cycle)

		o.mu.Lock()
		o.cycleCount = cycle
		o.lastCycle = &stats
		o.mu.Unlock()

		timer := time.NewTimer(o.interval)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runCycle executes one full pass: scan, process, dedupe, publish,
// persist. Failures in a single item never abort the cycle.
func (o *Orchestrator) runCycle(ctx context.Context, cycle int) domain.CycleStats {
	started := time.Now()
	stats := domain.CycleStats{Cycle: cycle, StartedAt: started}

	o.logger.Info("cycle started", "cycle", cycle)

	signals := o.coordinator.RunAll(ctx)
	stats.SignalsFound = len(signals)
	o.recordScanCounters(signals)

	for _, signal := range signals {
		recipe, err := o.processor.Process(ctx, signal)
		if err != nil {
			o.logger.Warn("processing skipped",
				"url", signal.Content.SourceURL, "error", err)
			continue
		}
		stats.RecipesProcessed++

		// Duplicates are flagged and persisted for audit, never
		// published and never added to the dedup history.
		if dup, reason := o.dedup.IsDuplicate(recipe); dup {
			recipe.Duplicate = true
			recipe.Plan.Publish = false
			stats.DuplicatesFlagged++
			o.metrics.RecordDuplicate()
			o.logger.Info("duplicate flagged", "title", recipe.Title, "reason", reason)
			o.persist(ctx, recipe)
			continue
		}

		published, err := o.publisher.Publish(ctx, recipe)
		switch {
		case err != nil:
			stats.PublishFailed++
			o.metrics.RecordPublishFailure()
			o.logger.Error("publish failed", "title", recipe.Title, "error", err)
		case published:
			stats.Published++
			o.metrics.RecordPublished()
		default:
			stats.Pending++
		}

		o.dedup.MarkSeen(recipe)
		o.persist(ctx, recipe)
	}

	stats.Duration = time.Since(started)
	o.metrics.RecordCycle(stats.Duration)
	o.metrics.SetPending(len(o.publisher.Pending()))
	o.metrics.SetHistorySize(o.dedup.Size())

	o.logger.Info("cycle finished",
		"cycle", cycle,
		"duration", stats.Duration.Round(time.Millisecond),
		"signals", stats.SignalsFound,
		"processed", stats.RecipesProcessed,
		"duplicates", stats.DuplicatesFlagged,
		"published", stats.Published,
		"pending", stats.Pending)

	return stats
}

func (o *Orchestrator) persist(ctx context.Context, recipe *domain.Recipe) {
	if o.repository == nil {
		return
	}
	if err := o.repository.SaveRecipe(ctx, recipe); err != nil {
		o.logger.Warn("persist failed", "title", recipe.Title, "error", err)
	}
}

// recordScanCounters converts the runners' cumulative tallies into
// per-cycle deltas for the metrics counters.
func (o *Orchestrator) recordScanCounters(signals []domain.ViralSignal) {
	perPlatform := make(map[string]int)
	for _, signal := range signals {
		perPlatform[string(signal.Content.SourceType)]++
	}
	for platform, count := range perPlatform {
		o.metrics.RecordViral(platform, count)
	}

	for _, ms := range o.coordinator.Stats() {
		delta := ms.TotalScanned - o.lastScanned[ms.Monitor]
		if delta > 0 {
			o.metrics.RecordScanned(ms.Monitor, delta)
		}
		o.lastScanned[ms.Monitor] = ms.TotalScanned
	}
}
