// Package textutil holds the text normalization helpers shared by the
// scoring, dedup, and processing layers.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	hashtagExpr = regexp.MustCompile(`#(\w+)`)
	mentionExpr = regexp.MustCompile(`@(\w+)`)
	spaceExpr   = regexp.MustCompile(`\s+`)
	slugExpr    = regexp.MustCompile(`[^a-z0-9]+`)

	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalize lowercases the text and strips diacritic marks, so that
// accented and plain spellings of the same title compare equal.
func Normalize(text string) string {
	out, _, err := transform.String(stripMarks, text)
	if err != nil {
		out = text
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// CleanText squeezes whitespace runs and drops characters outside the
// letter/number/punctuation classes (emoji, pictograms).
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsPunct(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(spaceExpr.ReplaceAllString(b.String(), " "))
}

// ExtractHashtags returns the hashtag words found in text, without '#'.
func ExtractHashtags(text string) []string {
	return captures(hashtagExpr, text)
}

// ExtractMentions returns the @-mentioned handles found in text.
func ExtractMentions(text string) []string {
	return captures(mentionExpr, text)
}

func captures(expr *regexp.Regexp, text string) []string {
	if text == "" {
		return nil
	}
	matches := expr.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// Slugify builds a URL-safe slug from the title, capped at maxLen runes.
func Slugify(title string, maxLen int) string {
	slug := slugExpr.ReplaceAllString(Normalize(title), "-")
	slug = strings.Trim(slug, "-")
	if maxLen > 0 && len(slug) > maxLen {
		slug = strings.Trim(slug[:maxLen], "-")
	}
	return slug
}

// Truncate shortens text to maxLen runes, appending an ellipsis when cut.
func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return strings.TrimSpace(string(runes[:maxLen-3])) + "..."
}

// Similarity computes a Jaccard coefficient over character trigrams of the
// normalized inputs. Result is in [0, 1]; empty inputs score 0.
func Similarity(a, b string) float64 {
	na, nb := ngrams(Normalize(a), 3), ngrams(Normalize(b), 3)
	return jaccard(na, nb)
}

// SetSimilarity computes the Jaccard coefficient of two string sets after
// normalizing each element.
func SetSimilarity(a, b []string) float64 {
	sa := make(map[string]struct{}, len(a))
	for _, s := range a {
		sa[Normalize(s)] = struct{}{}
	}
	sb := make(map[string]struct{}, len(b))
	for _, s := range b {
		sb[Normalize(s)] = struct{}{}
	}
	return jaccard(sa, sb)
}

func ngrams(text string, n int) map[string]struct{} {
	runes := []rune(text)
	if len(runes) < n {
		return nil
	}
	grams := make(map[string]struct{}, len(runes))
	for i := 0; i+n <= len(runes); i++ {
		grams[string(runes[i:i+n])] = struct{}{}
	}
	return grams
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var inter int
	for g := range a {
		if _, ok := b[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
