// Package rss fetches recipe entries from configured RSS/Atom feeds.
package rss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"RecipeRadar/internal/config"
	"RecipeRadar/internal/domain"
	"RecipeRadar/internal/ports"
	"RecipeRadar/internal/textutil"
)

const (
	maxEntriesPerFeed = 50
	maxBodySize       = 4 << 20
)

// recipeKeywords filters feed entries down to recipe-related ones.
var recipeKeywords = []string{"receita", "recipe", "cozinha", "ingrediente", "food", "comida"}

// Monitor implements ports.Monitor over a set of feed URLs. RSS carries
// no hashtag query, so FetchByTag filters the fetched entries instead.
type Monitor struct {
	feedURLs  []string
	userAgent string
	client    *http.Client
	parser    *gofeed.Parser
	sanitizer *bluemonday.Policy
	limiter   *rate.Limiter
}

var _ ports.Monitor = (*Monitor)(nil)

// New builds the adapter from configuration.
func New(cfg config.RSSConfig, scraping config.ScrapingConfig) *Monitor {
	delay := scraping.RequestDelay.Std()
	if delay <= 0 {
		delay = time.Second
	}
	return &Monitor{
		feedURLs:  cfg.FeedURLs,
		userAgent: scraping.UserAgent,
		client:    &http.Client{Timeout: scraping.Timeout.Std()},
		parser:    gofeed.NewParser(),
		sanitizer: bluemonday.StrictPolicy(),
		limiter:   rate.NewLimiter(rate.Every(delay), 1),
	}
}

// Name identifies the adapter in logs and stats.
func (m *Monitor) Name() string { return string(domain.SourceRSS) }

// Tags is empty: the runner queries tags per adapter, and feed entries
// already arrive from FetchTrending.
func (m *Monitor) Tags() []string { return nil }

// FetchTrending fetches every configured feed, skipping feeds that fail.
// It only errors when every single feed failed.
func (m *Monitor) FetchTrending(ctx context.Context) ([]domain.RawContent, error) {
	if len(m.feedURLs) == 0 {
		return nil, nil
	}

	var (
		all      []domain.RawContent
		failures int
		lastErr  error
	)
	for _, feedURL := range m.feedURLs {
		items, err := m.fetchFeed(ctx, feedURL)
		if err != nil {
			failures++
			lastErr = fmt.Errorf("feed %s: %w", feedURL, err)
			continue
		}
		all = append(all, items...)
	}

	if failures == len(m.feedURLs) {
		return nil, lastErr
	}
	return all, nil
}

// FetchByTag filters the fetched feed entries by hashtag.
func (m *Monitor) FetchByTag(ctx context.Context, tag string) ([]domain.RawContent, error) {
	all, err := m.FetchTrending(ctx)
	if err != nil {
		return nil, err
	}

	var filtered []domain.RawContent
	for _, item := range all {
		for _, hashtag := range item.Hashtags {
			if strings.EqualFold(hashtag, tag) {
				filtered = append(filtered, item)
				break
			}
		}
	}
	return filtered, nil
}

// Close releases the adapter's idle connections.
func (m *Monitor) Close() error {
	m.client.CloseIdleConnections()
	return nil
}

func (m *Monitor) fetchFeed(ctx context.Context, feedURL string) ([]domain.RawContent, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	feed, err := m.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]domain.RawContent, 0, len(feed.Items))
	for i, entry := range feed.Items {
		if i >= maxEntriesPerFeed {
			break
		}
		if entry == nil || entry.Link == "" {
			continue
		}
		content := m.convertEntry(entry, feed)
		if m.isRecipeRelated(content) {
			items = append(items, content)
		}
	}
	return items, nil
}

func (m *Monitor) convertEntry(entry *gofeed.Item, feed *gofeed.Feed) domain.RawContent {
	now := time.Now().UTC()

	title := textutil.CleanText(m.sanitizer.Sanitize(entry.Title))
	caption := textutil.CleanText(m.sanitizer.Sanitize(entry.Description))
	if caption == "" {
		caption = textutil.CleanText(m.sanitizer.Sanitize(entry.Content))
	}

	publishedAt := now
	if entry.PublishedParsed != nil {
		publishedAt = entry.PublishedParsed.UTC()
	} else if entry.UpdatedParsed != nil {
		publishedAt = entry.UpdatedParsed.UTC()
	}

	profile := feed.Title
	if entry.Author != nil && entry.Author.Name != "" {
		profile = entry.Author.Name
	}

	var mediaURL string
	mediaType := domain.MediaImage
	if len(entry.Enclosures) > 0 {
		mediaURL = entry.Enclosures[0].URL
		if strings.HasPrefix(entry.Enclosures[0].Type, "video/") {
			mediaType = domain.MediaVideo
		}
	}
	if mediaURL == "" && entry.Image != nil {
		mediaURL = entry.Image.URL
	}

	fullText := title + " " + caption
	return domain.RawContent{
		SourceType:    domain.SourceRSS,
		SourceURL:     entry.Link,
		SourceProfile: profile,
		RawTitle:      title,
		RawCaption:    caption,
		MediaURL:      mediaURL,
		MediaType:     mediaType,
		PublishedAt:   publishedAt,
		Views:         extensionMetric(entry, "views", "view_count"),
		Likes:         extensionMetric(entry, "likes", "like_count", "favorites"),
		Shares:        extensionMetric(entry, "shares", "share_count"),
		Comments:      extensionMetric(entry, "comments", "comment_count"),
		Hashtags:      textutil.ExtractHashtags(fullText),
		Mentions:      textutil.ExtractMentions(fullText),
		CapturedAt:    now,
	}
}

// extensionMetric digs engagement counters out of feed extension
// elements; most feeds do not carry them, in which case zero stands.
func extensionMetric(entry *gofeed.Item, names ...string) int {
	for _, exts := range entry.Extensions {
		for _, name := range names {
			for _, ext := range exts[name] {
				if value, err := strconv.Atoi(strings.TrimSpace(ext.Value)); err == nil && value >= 0 {
					return value
				}
			}
		}
	}
	return 0
}

func (m *Monitor) isRecipeRelated(content domain.RawContent) bool {
	text := strings.ToLower(content.RawTitle + " " + content.RawCaption)
	for _, keyword := range recipeKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
