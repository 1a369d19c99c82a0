package ports

import (
	"context"

	"RecipeRadar/internal/domain"
)

// Monitor is the capability contract every platform adapter implements.
// Both fetch calls may fail; callers are expected to isolate those
// failures rather than abort a scan.
type Monitor interface {
	Name() string
	FetchTrending(ctx context.Context) ([]domain.RawContent, error)
	FetchByTag(ctx context.Context, tag string) ([]domain.RawContent, error)
	Tags() []string
	Close() error
}

// RecipeProcessor turns a viral signal into a structured recipe.
// A nil recipe with an error means the item could not be processed.
type RecipeProcessor interface {
	Process(ctx context.Context, signal domain.ViralSignal) (*domain.Recipe, error)
}

// RecipePublisher delivers unique recipes downstream. Publish reports
// whether the recipe went out immediately or queued for approval.
type RecipePublisher interface {
	Publish(ctx context.Context, recipe *domain.Recipe) (published bool, err error)
	Pending() []*domain.Recipe
	Close() error
}

// RecipeRepository persists accepted recipes for audit and warm-up.
type RecipeRepository interface {
	KnownFingerprints(ctx context.Context, limit int) ([]string, error)
	SaveRecipe(ctx context.Context, recipe *domain.Recipe) error
}
