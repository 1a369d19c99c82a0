package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"RecipeRadar/internal/config"
	"RecipeRadar/internal/dedup"
	"RecipeRadar/internal/domain"
	"RecipeRadar/internal/metrics"
	"RecipeRadar/internal/monitor"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lowThresholds() config.ThresholdConfig {
	return config.ThresholdConfig{
		ViralViews:      100,
		ViralLikes:      10,
		ViralShares:     5,
		GrowthRatePct:   1,
		TimeWindowHours: 6,
	}
}

type stubAdapter struct {
	name  string
	items []domain.RawContent
}

func (s *stubAdapter) Name() string { return s.name }
func (s *stubAdapter) FetchTrending(context.Context) ([]domain.RawContent, error) {
	return s.items, nil
}
func (s *stubAdapter) FetchByTag(context.Context, string) ([]domain.RawContent, error) {
	return nil, nil
}
func (s *stubAdapter) Tags() []string { return nil }
func (s *stubAdapter) Close() error   { return nil }

// stubProcessor turns the caption into a one-ingredient-per-line recipe
// so the dedup fingerprint tracks the caption text.
type stubProcessor struct {
	failFor string
}

func (p *stubProcessor) Process(_ context.Context, signal domain.ViralSignal) (*domain.Recipe, error) {
	if p.failFor != "" && signal.Content.RawTitle == p.failFor {
		return nil, errors.New("caption too sparse")
	}
	recipe := &domain.Recipe{
		ID:    signal.Content.SourceURL,
		Title: signal.Content.RawTitle,
		Ingredients: []domain.Ingredient{
			{Name: "farinha"}, {Name: "ovo"},
		},
		Plan: domain.PublishPlan{Publish: signal.IsViral, Priority: domain.PriorityNormal},
	}
	recipe.Fingerprint = dedup.Fingerprint(recipe.Title, recipe.IngredientNames())
	return recipe, nil
}

type stubPublisher struct {
	mu        sync.Mutex
	published []*domain.Recipe
	pending   []*domain.Recipe
	failNext  bool
}

func (p *stubPublisher) Publish(_ context.Context, recipe *domain.Recipe) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext {
		p.failNext = false
		return false, errors.New("cms unavailable")
	}
	if !recipe.Plan.Publish {
		p.pending = append(p.pending, recipe)
		return false, nil
	}
	p.published = append(p.published, recipe)
	return true, nil
}

func (p *stubPublisher) Pending() []*domain.Recipe {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.Recipe(nil), p.pending...)
}

func (p *stubPublisher) Close() error { return nil }

type stubRepository struct {
	mu    sync.Mutex
	saved []*domain.Recipe
}

func (r *stubRepository) KnownFingerprints(context.Context, int) ([]string, error) {
	return nil, nil
}

func (r *stubRepository) SaveRecipe(_ context.Context, recipe *domain.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, recipe)
	return nil
}

func viralContent(profile, title, url string) domain.RawContent {
	return domain.RawContent{
		SourceType:    domain.SourceTikTok,
		SourceURL:     url,
		SourceProfile: profile,
		RawTitle:      title,
		Views:         200000,
		Likes:         9000,
		Shares:        700,
		PublishedAt:   time.Now().UTC().Add(-time.Hour),
	}
}

func newTestOrchestrator(items []domain.RawContent, processor *stubProcessor,
	publisher *stubPublisher, repository *stubRepository) *Orchestrator {

	runner := monitor.NewRunner(&stubAdapter{name: "tiktok", items: items},
		lowThresholds(), discardLogger())
	coordinator := monitor.NewCoordinator([]*monitor.Runner{runner}, discardLogger())

	return NewOrchestrator(Deps{
		Coordinator: coordinator,
		Processor:   processor,
		Dedup:       dedup.NewService(0.9, 500, discardLogger()),
		Publisher:   publisher,
		Repository:  repository,
		Metrics:     metrics.NewCollector(prometheus.NewRegistry()),
		Interval:    time.Hour,
		Logger:      discardLogger(),
	})
}

func TestRunCycleFlagsDuplicatesAndPublishes(t *testing.T) {
	t.Parallel()

	// Two different creators post the same recipe, so the structural
	// prefilter lets both through and the fingerprint check catches it.
	items := []domain.RawContent{
		viralContent("chef_a", "Bolo de cenoura da vovó", "https://t.example/1"),
		viralContent("chef_b", "Bolo de cenoura da vovó", "https://t.example/2"),
		viralContent("chef_c", "Mousse de maracujá", "https://t.example/3"),
	}

	publisher := &stubPublisher{}
	repository := &stubRepository{}
	orch := newTestOrchestrator(items, &stubProcessor{}, publisher, repository)

	stats := orch.runCycle(context.Background(), 1)

	if stats.SignalsFound != 3 {
		t.Fatalf("expected 3 signals, got %d", stats.SignalsFound)
	}
	if stats.RecipesProcessed != 3 {
		t.Fatalf("expected 3 processed, got %d", stats.RecipesProcessed)
	}
	if stats.DuplicatesFlagged != 1 {
		t.Fatalf("expected 1 duplicate, got %d", stats.DuplicatesFlagged)
	}
	if stats.Published != 2 {
		t.Fatalf("expected 2 published, got %d", stats.Published)
	}

	// Duplicates are persisted for audit but never published and never
	// added to the dedup history.
	repository.mu.Lock()
	saved := len(repository.saved)
	var dupSaved *domain.Recipe
	for _, r := range repository.saved {
		if r.Duplicate {
			dupSaved = r
		}
	}
	repository.mu.Unlock()

	if saved != 3 {
		t.Fatalf("expected all 3 recipes persisted, got %d", saved)
	}
	if dupSaved == nil {
		t.Fatal("expected the duplicate to be persisted with the flag set")
	}
	if dupSaved.Plan.Publish {
		t.Fatal("duplicate must not be marked for publication")
	}
	if orch.dedup.Size() != 2 {
		t.Fatalf("expected history of 2 unique recipes, got %d", orch.dedup.Size())
	}
}

func TestRunCycleSkipsFailedProcessing(t *testing.T) {
	t.Parallel()

	items := []domain.RawContent{
		viralContent("chef_a", "Legenda sem receita", "https://t.example/1"),
		viralContent("chef_b", "Pudim de leite", "https://t.example/2"),
	}

	publisher := &stubPublisher{}
	orch := newTestOrchestrator(items, &stubProcessor{failFor: "Legenda sem receita"},
		publisher, &stubRepository{})

	stats := orch.runCycle(context.Background(), 1)

	if stats.SignalsFound != 2 {
		t.Fatalf("expected 2 signals, got %d", stats.SignalsFound)
	}
	if stats.RecipesProcessed != 1 {
		t.Fatalf("expected 1 processed after skip, got %d", stats.RecipesProcessed)
	}
	if stats.Published != 1 {
		t.Fatalf("expected 1 published, got %d", stats.Published)
	}
}

func TestRunCycleCountsPublishFailures(t *testing.T) {
	t.Parallel()

	items := []domain.RawContent{
		viralContent("chef_a", "Bolo de fubá", "https://t.example/1"),
	}

	publisher := &stubPublisher{failNext: true}
	orch := newTestOrchestrator(items, &stubProcessor{}, publisher, &stubRepository{})

	stats := orch.runCycle(context.Background(), 1)

	if stats.PublishFailed != 1 {
		t.Fatalf("expected 1 publish failure, got %d", stats.PublishFailed)
	}
	// A failed publish still enters the dedup history so the next cycle
	// does not treat the same content as new.
	if orch.dedup.Size() != 1 {
		t.Fatalf("expected recipe in history after failed publish, got %d", orch.dedup.Size())
	}
}

func TestStartAndStopLifecycle(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(nil, &stubProcessor{}, &stubPublisher{}, &stubRepository{})

	if err := orch.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := orch.Start(context.Background()); err == nil {
		t.Fatal("expected error starting an already-running orchestrator")
	}

	// Wait for the first cycle to land in the status snapshot.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if orch.Status().CycleCount >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first cycle never completed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	status := orch.Status()
	if !status.Running {
		t.Fatal("expected running status")
	}
	if len(status.Monitors) != 1 {
		t.Fatalf("expected 1 monitor in status, got %d", len(status.Monitors))
	}

	orch.Stop()
	orch.Stop() // second call is a no-op

	if orch.Status().Running {
		t.Fatal("expected stopped status")
	}
}

func TestStatusReportsLastCycle(t *testing.T) {
	t.Parallel()

	items := []domain.RawContent{
		viralContent("chef_a", "Bolo de cenoura", "https://t.example/1"),
	}
	orch := newTestOrchestrator(items, &stubProcessor{}, &stubPublisher{}, &stubRepository{})

	stats := orch.runCycle(context.Background(), 7)
	orch.mu.Lock()
	orch.cycleCount = 7
	orch.lastCycle = &stats
	orch.mu.Unlock()

	status := orch.Status()
	if status.CycleCount != 7 {
		t.Fatalf("unexpected cycle count: %d", status.CycleCount)
	}
	if status.LastCycle == nil || status.LastCycle.Published != 1 {
		t.Fatalf("unexpected last cycle: %+v", status.LastCycle)
	}
	if status.HistorySize != 1 {
		t.Fatalf("unexpected history size: %d", status.HistorySize)
	}
}
