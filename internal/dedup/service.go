// Package dedup maintains the bounded memory of previously accepted
// recipes and decides whether a new recipe is a duplicate of one of them.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"RecipeRadar/internal/domain"
	"RecipeRadar/internal/textutil"
)

// Service owns the history window and the known-fingerprint set. It is
// not safe for concurrent use; the orchestrator is its only caller and
// runs it single-threaded with respect to the scan phase.
type Service struct {
	logger              *slog.Logger
	similarityThreshold float64
	historyCap          int

	knownFingerprints map[string]struct{}
	history           []*domain.Recipe
}

// NewService builds an empty history with the given similarity threshold
// and cap. A cap below 2 falls back to the default of 500.
func NewService(similarityThreshold float64, historyCap int, logger *slog.Logger) *Service {
	if similarityThreshold <= 0 || similarityThreshold > 1 {
		similarityThreshold = 0.9
	}
	if historyCap < 2 {
		historyCap = 500
	}
	return &Service{
		logger:              logger.With("component", "dedup"),
		similarityThreshold: similarityThreshold,
		historyCap:          historyCap,
		knownFingerprints:   make(map[string]struct{}),
	}
}

// Fingerprint computes the stable identity hash for a recipe: sha256 over
// the normalized title joined with the sorted normalized ingredient
// names. Accents and case never change the result.
func Fingerprint(title string, ingredientNames []string) string {
	normalized := make([]string, 0, len(ingredientNames))
	for _, name := range ingredientNames {
		normalized = append(normalized, textutil.Normalize(name))
	}
	sort.Strings(normalized)

	combined := textutil.Normalize(title) + "::" + strings.Join(normalized, ":")
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])
}

// IsDuplicate checks the recipe against the known-fingerprint set and the
// history window. The fuzzy rule requires BOTH title similarity and
// ingredient-set similarity to exceed the threshold, so generic titles
// over unrelated ingredient lists never trigger a false positive.
func (s *Service) IsDuplicate(recipe *domain.Recipe) (bool, string) {
	if _, ok := s.knownFingerprints[recipe.Fingerprint]; ok {
		return true, "identical fingerprint already seen"
	}

	for _, existing := range s.history {
		if recipe.Fingerprint == existing.Fingerprint {
			return true, fmt.Sprintf("duplicate of: %s", existing.Title)
		}

		titleSim := textutil.Similarity(recipe.Title, existing.Title)
		if titleSim <= s.similarityThreshold {
			continue
		}

		ingredientSim := textutil.SetSimilarity(recipe.IngredientNames(), existing.IngredientNames())
		if ingredientSim > s.similarityThreshold {
			return true, fmt.Sprintf("high similarity with: %s (%.2f)", existing.Title, titleSim)
		}
	}

	return false, ""
}

// MarkSeen appends the recipe to history and records its fingerprint.
// When the cap is exceeded the oldest half is dropped and the fingerprint
// set rebuilt from the survivors, keeping memory bounded while retaining
// recall for roughly the newest half of the window.
func (s *Service) MarkSeen(recipe *domain.Recipe) {
	s.knownFingerprints[recipe.Fingerprint] = struct{}{}
	s.history = append(s.history, recipe)

	if len(s.history) <= s.historyCap {
		return
	}

	keepFrom := len(s.history) - s.historyCap/2
	survivors := make([]*domain.Recipe, s.historyCap/2)
	copy(survivors, s.history[keepFrom:])
	s.history = survivors

	s.knownFingerprints = make(map[string]struct{}, len(s.history))
	for _, r := range s.history {
		s.knownFingerprints[r.Fingerprint] = struct{}{}
	}

	s.logger.Info("history evicted", "kept", len(s.history), "cap", s.historyCap)
}

// WarmUp seeds the fingerprint set from persisted recipes so a restart
// does not re-accept content published in a previous run.
func (s *Service) WarmUp(fingerprints []string) {
	for _, fp := range fingerprints {
		if fp != "" {
			s.knownFingerprints[fp] = struct{}{}
		}
	}
	if len(fingerprints) > 0 {
		s.logger.Info("dedup history warmed up", "fingerprints", len(fingerprints))
	}
}

// Size reports how many records the history window currently holds.
func (s *Service) Size() int {
	return len(s.history)
}

// KnownFingerprintCount reports the size of the fingerprint set.
func (s *Service) KnownFingerprintCount() int {
	return len(s.knownFingerprints)
}
