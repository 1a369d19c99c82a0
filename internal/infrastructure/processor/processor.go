// Package processor turns viral signals into structured recipes using
// line-based extraction heuristics over the post caption.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"RecipeRadar/internal/config"
	"RecipeRadar/internal/dedup"
	"RecipeRadar/internal/domain"
	"RecipeRadar/internal/ports"
	"RecipeRadar/internal/textutil"
)

const processorID = "caption-recipe-processor-v1"

const (
	maxIngredients  = 15
	maxInstructions = 20
	defaultPrepMin  = 15
	defaultCookMin  = 20
)

var (
	ingredientsSectionExpr  = regexp.MustCompile(`(?is)(?:ingredientes?|ingredients?)[\s:]*\n(.*?)(?:\n\n|modo de|instructions?|preparo)`)
	instructionsSectionExpr = regexp.MustCompile(`(?is)(?:modo de preparo|instructions?|preparo|como fazer)[\s:]*\n(.*)`)
	ingredientLineExpr      = regexp.MustCompile(`(?i)^[\-\*•]?\s*(\d+[.,]?\d*)\s*(\p{L}+)\s+(?:de\s+)?(.+)$`)
	bulletExpr              = regexp.MustCompile(`^[\d.\-\*•]+\s*`)
	prepTimeExpr            = regexp.MustCompile(`(?i)(?:preparo|prep\s+time)[\s:]*(\d+)\s*(?:min|minutos?|minutes?)`)
	cookTimeExpr            = regexp.MustCompile(`(?i)(?:cozimento|cook\s+time|forno)[\s:]*(\d+)\s*(?:min|minutos?|minutes?)`)
	servingsExpr            = regexp.MustCompile(`(?i)(?:rende|serve|por[cç][oõ]es?|servings?)[\s:]*(\d+)`)
	hashtagStripExpr        = regexp.MustCompile(`#\w+`)
)

// categoryKeywords maps a category to caption keywords, checked in order.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"doces", []string{"bolo", "torta", "doce", "chocolate", "sobremesa", "cake", "dessert"}},
	{"bebidas", []string{"suco", "bebida", "drink", "smoothie", "cafe"}},
	{"vegana", []string{"vegan", "vegano", "sem carne"}},
	{"fitness", []string{"fit", "fitness", "saudavel", "healthy", "proteina"}},
	{"rapidas", []string{"rapido", "quick", "facil", "5 minutos", "express"}},
	{"salgados", []string{"salgado", "pao", "pizza", "savory"}},
}

// Processor implements ports.RecipeProcessor with pure-text heuristics;
// no external calls are made.
type Processor struct {
	cfg      config.ProcessingConfig
	autoMode bool
	logger   *slog.Logger
}

var _ ports.RecipeProcessor = (*Processor)(nil)

// New builds the processor from configuration.
func New(cfg config.ProcessingConfig, autoMode bool, logger *slog.Logger) *Processor {
	return &Processor{
		cfg:      cfg,
		autoMode: autoMode,
		logger:   logger.With("component", "processor"),
	}
}

// Process extracts a structured recipe from the signal's caption text.
// It returns an error when the text does not yield the configured minimum
// of ingredients and instructions; the caller skips such items.
func (p *Processor) Process(_ context.Context, signal domain.ViralSignal) (*domain.Recipe, error) {
	content := signal.Content

	fullText := strings.TrimSpace(content.RawTitle + "\n" + content.RawCaption)
	if fullText == "" {
		return nil, fmt.Errorf("empty caption for %s", content.SourceURL)
	}

	ingredients := extractIngredients(fullText)
	if len(ingredients) < p.cfg.MinIngredients {
		return nil, fmt.Errorf("only %d ingredient(s) extracted (minimum: %d)", len(ingredients), p.cfg.MinIngredients)
	}

	instructions := extractInstructions(fullText)
	if len(instructions) < p.cfg.MinInstructions {
		return nil, fmt.Errorf("only %d instruction(s) extracted (minimum: %d)", len(instructions), p.cfg.MinInstructions)
	}

	title := buildTitle(content)
	category := inferCategory(fullText)
	difficulty := inferDifficulty(fullText)
	prepMin := extractMinutes(fullText, prepTimeExpr, defaultPrepMin)
	cookMin := extractMinutes(fullText, cookTimeExpr, defaultCookMin)

	priority := domain.PriorityNormal
	if signal.ViralScore >= 0.8 {
		priority = domain.PriorityViral
	}

	summary := textutil.Truncate(fmt.Sprintf("%s. Ready in %d minutes, difficulty %s. Viral with %s views.",
		title, prepMin+cookMin, difficulty, formatCount(content.Views)), 150)

	recipe := &domain.Recipe{
		ID:      uuid.NewString(),
		Title:   title,
		Slug:    textutil.Slugify(title, 150),
		Summary: summary,
		Source: domain.SourceRef{
			Type:    content.SourceType,
			Profile: content.SourceProfile,
			URL:     content.SourceURL,
		},
		Metrics: domain.TrendMetrics{
			Views:           content.Views,
			Likes:           content.Likes,
			Shares:          content.Shares,
			GrowthRatePct:   signal.GrowthRate,
			TimeWindowHours: int(signal.ElapsedH),
		},
		Category:     category,
		Tags:         uniqueTags(content.Hashtags, 10),
		Servings:     extractServings(fullText),
		PrepMinutes:  prepMin,
		CookMinutes:  cookMin,
		TotalMinutes: prepMin + cookMin,
		Difficulty:   difficulty,
		Ingredients:  ingredients,
		Instructions: instructions,
		Tips:         extractTip(fullText),
		Captions: domain.SocialCaptions{
			TikTok:    textutil.Truncate(title+" 🔥 #receita #tiktokfood #viral", 300),
			Instagram: textutil.Truncate(title+" 😍 Salva para fazer depois 📌 #receitas #reels #viral", 2200),
		},
		Plan: domain.PublishPlan{
			Publish:  p.autoMode && signal.IsViral,
			Priority: priority,
		},
		Audit: domain.Audit{
			CreatedAt:       time.Now().UTC(),
			ProcessedBy:     processorID,
			ConfidenceScore: signal.ViralScore,
		},
	}
	recipe.Fingerprint = dedup.Fingerprint(recipe.Title, recipe.IngredientNames())

	p.logger.Debug("recipe processed", "title", recipe.Title, "ingredients", len(ingredients), "instructions", len(instructions))
	return recipe, nil
}

func buildTitle(content domain.RawContent) string {
	title := content.RawTitle
	if title == "" {
		lines := strings.SplitN(content.RawCaption, "\n", 2)
		title = lines[0]
	}
	title = hashtagStripExpr.ReplaceAllString(title, "")
	title = textutil.CleanText(title)
	if title == "" {
		title = "Viral recipe from " + content.SourceProfile
	}
	return textutil.Truncate(title, 120)
}

func extractIngredients(text string) []domain.Ingredient {
	section := ingredientsSectionExpr.FindStringSubmatch(text)
	if section == nil {
		return nil
	}

	var ingredients []domain.Ingredient
	for _, line := range strings.Split(section[1], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(ingredients) == maxIngredients {
			break
		}

		if match := ingredientLineExpr.FindStringSubmatch(line); match != nil {
			ingredients = append(ingredients, domain.Ingredient{
				Name:     strings.TrimSpace(match[3]),
				Quantity: strings.ReplaceAll(match[1], ",", "."),
				Unit:     strings.ToLower(match[2]),
			})
			continue
		}

		// Bare line without quantity; keep the name if it is substantive.
		name := bulletExpr.ReplaceAllString(line, "")
		if len(name) > 3 {
			ingredients = append(ingredients, domain.Ingredient{Name: strings.TrimSpace(name), Quantity: "to taste"})
		}
	}
	return ingredients
}

func extractInstructions(text string) []string {
	section := instructionsSectionExpr.FindStringSubmatch(text)
	if section == nil {
		return nil
	}

	body := section[1]
	if cut := strings.Index(body, "\n\n"); cut >= 0 {
		body = body[:cut]
	}

	var steps []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(bulletExpr.ReplaceAllString(strings.TrimSpace(line), ""))
		if len(line) <= 10 {
			continue
		}
		if len(steps) == maxInstructions {
			break
		}
		steps = append(steps, numberStep(len(steps)+1, line))
	}
	return steps
}

// numberStep prefixes the step index and guarantees a closing period.
func numberStep(n int, line string) string {
	runes := []rune(line)
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	step := fmt.Sprintf("%d. %s", n, string(runes))
	if !strings.HasSuffix(step, ".") {
		step += "."
	}
	return step
}

func extractMinutes(text string, expr *regexp.Regexp, fallback int) int {
	if match := expr.FindStringSubmatch(text); match != nil {
		if minutes, err := strconv.Atoi(match[1]); err == nil && minutes >= 0 {
			return minutes
		}
	}
	return fallback
}

func extractServings(text string) string {
	if match := servingsExpr.FindStringSubmatch(text); match != nil {
		return match[1] + " servings"
	}
	return "4 servings"
}

func extractTip(text string) string {
	tipExpr := regexp.MustCompile(`(?i)(?:dica|tip|obs|observa[cç][aã]o)[\s:]+(.+)`)
	if match := tipExpr.FindStringSubmatch(text); match != nil {
		tip := textutil.CleanText(match[1])
		if len(tip) > 10 {
			return textutil.Truncate(tip, 200)
		}
	}
	return ""
}

func inferDifficulty(text string) domain.Difficulty {
	lower := textutil.Normalize(text)
	switch {
	case containsAny(lower, "facil", "easy", "simples", "rapid"):
		return domain.DifficultyEasy
	case containsAny(lower, "dificil", "complexo", "advanced"):
		return domain.DifficultyHard
	default:
		return domain.DifficultyMedium
	}
}

func inferCategory(text string) string {
	lower := textutil.Normalize(text)
	for _, entry := range categoryKeywords {
		if containsAny(lower, entry.words...) {
			return entry.category
		}
	}
	return "salgados"
}

func containsAny(text string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

func uniqueTags(hashtags []string, limit int) []string {
	seen := make(map[string]struct{}, len(hashtags))
	tags := make([]string, 0, limit)
	for _, tag := range hashtags {
		normalized := textutil.Normalize(tag)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		tags = append(tags, normalized)
		if len(tags) == limit {
			break
		}
	}
	return tags
}

func formatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%dK", n/1_000)
	default:
		return strconv.Itoa(n)
	}
}
