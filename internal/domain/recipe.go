package domain

import "time"

// Difficulty levels assigned by the processor.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Priority drives how prominently a published recipe is featured.
type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityHighlight Priority = "highlight"
	PriorityViral     Priority = "viral"
)

// Ingredient is one parsed ingredient line.
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

// SourceRef points back at the originating post.
type SourceRef struct {
	Type    SourceType `json:"type"`
	Profile string     `json:"profile"`
	URL     string     `json:"url"`
}

// TrendMetrics is the engagement snapshot taken at detection time.
type TrendMetrics struct {
	Views           int     `json:"views"`
	Likes           int     `json:"likes"`
	Shares          int     `json:"shares"`
	GrowthRatePct   float64 `json:"growth_rate_percent"`
	TimeWindowHours int     `json:"time_window_hours"`
}

// SocialCaptions carries ready-to-post texts for re-publication.
type SocialCaptions struct {
	TikTok    string `json:"tiktok_caption"`
	Instagram string `json:"instagram_caption"`
}

// PublishPlan is the automatic publication recommendation.
type PublishPlan struct {
	Publish  bool     `json:"publish"`
	Priority Priority `json:"priority"`
}

// Audit records who processed the recipe and how confident the pass was.
type Audit struct {
	CreatedAt       time.Time `json:"created_at"`
	ProcessedBy     string    `json:"processed_by"`
	ConfidenceScore float64   `json:"confidence_score"`
}

// Recipe is an item that survived scanning, scoring, and processing.
// After creation the only mutation allowed is flagging it as a duplicate.
type Recipe struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Summary string `json:"summary"`

	Source  SourceRef    `json:"source"`
	Metrics TrendMetrics `json:"trend_metrics"`

	Category string   `json:"category"`
	Tags     []string `json:"tags"`

	Servings     string     `json:"servings"`
	PrepMinutes  int        `json:"prep_time_minutes"`
	CookMinutes  int        `json:"cook_time_minutes"`
	TotalMinutes int        `json:"total_time_minutes"`
	Difficulty   Difficulty `json:"difficulty"`

	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	Tips         string       `json:"tips,omitempty"`

	Captions SocialCaptions `json:"social_captions"`
	Plan     PublishPlan    `json:"publish_recommendation"`

	// Fingerprint is the identity key for cross-cycle deduplication:
	// sha256 over the normalized title plus the sorted normalized
	// ingredient names. Equal fingerprints mean identical content,
	// whatever platform it was captured from.
	Fingerprint string `json:"duplicate_fingerprint"`
	Duplicate   bool   `json:"duplicate"`

	Audit Audit `json:"audit"`
}

// IngredientNames returns the plain ingredient names in recipe order.
func (r *Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}
