// Package instagram fetches recipe reels via the Instagram Graph API
// when a token is configured, falling back to public tag-page scraping.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"RecipeRadar/internal/config"
	"RecipeRadar/internal/domain"
	"RecipeRadar/internal/ports"
	"RecipeRadar/internal/textutil"
)

const graphBaseURL = "https://graph.facebook.com/v19.0"

// Monitor implements ports.Monitor for Instagram.
type Monitor struct {
	token     string
	hashtags  []string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

var _ ports.Monitor = (*Monitor)(nil)

// New builds the adapter from configuration.
func New(cfg config.InstagramConfig, scraping config.ScrapingConfig) *Monitor {
	delay := scraping.RequestDelay.Std()
	if delay <= 0 {
		delay = time.Second
	}
	return &Monitor{
		token:     cfg.GraphAPIToken,
		hashtags:  cfg.Hashtags,
		userAgent: scraping.UserAgent,
		client:    &http.Client{Timeout: scraping.Timeout.Std()},
		limiter:   rate.NewLimiter(rate.Every(delay), 1),
	}
}

// Name identifies the adapter in logs and stats.
func (m *Monitor) Name() string { return string(domain.SourceInstagram) }

// Tags lists the configured hashtags this adapter should query.
func (m *Monitor) Tags() []string { return m.hashtags }

// FetchTrending queries the first configured hashtag's top media; the
// Graph API has no global trending endpoint, so the primary hashtag
// stands in for it.
func (m *Monitor) FetchTrending(ctx context.Context) ([]domain.RawContent, error) {
	if len(m.hashtags) == 0 {
		return nil, nil
	}
	return m.FetchByTag(ctx, m.hashtags[0])
}

// FetchByTag returns recent media posted under the given hashtag.
func (m *Monitor) FetchByTag(ctx context.Context, tag string) ([]domain.RawContent, error) {
	if m.token != "" {
		return m.fetchViaGraphAPI(ctx, tag)
	}
	return m.scrapeTagPage(ctx, tag)
}

// Close releases the adapter's idle connections.
func (m *Monitor) Close() error {
	m.client.CloseIdleConnections()
	return nil
}

type graphMedia struct {
	ID            string `json:"id"`
	Caption       string `json:"caption"`
	MediaType     string `json:"media_type"`
	MediaURL      string `json:"media_url"`
	Permalink     string `json:"permalink"`
	Username      string `json:"username"`
	Timestamp     string `json:"timestamp"`
	LikeCount     int    `json:"like_count"`
	CommentsCount int    `json:"comments_count"`
	PlayCount     int    `json:"video_play_count"`
}

func (m *Monitor) fetchViaGraphAPI(ctx context.Context, tag string) ([]domain.RawContent, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	query := url.Values{}
	query.Set("q", tag)
	query.Set("fields", "id,caption,media_type,media_url,permalink,username,timestamp,like_count,comments_count,video_play_count")
	query.Set("access_token", m.token)

	endpoint := fmt.Sprintf("%s/ig_hashtag_search?%s", graphBaseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request hashtag media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph api returned %s", resp.Status)
	}

	var payload struct {
		Data []graphMedia `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return m.convertMedia(payload.Data), nil
}

func (m *Monitor) convertMedia(media []graphMedia) []domain.RawContent {
	now := time.Now().UTC()
	items := make([]domain.RawContent, 0, len(media))

	for _, entry := range media {
		if entry.Permalink == "" {
			continue
		}

		publishedAt := now
		if parsed, err := time.Parse(time.RFC3339, entry.Timestamp); err == nil {
			publishedAt = parsed.UTC()
		}

		mediaType := domain.MediaImage
		if entry.MediaType == "VIDEO" || entry.MediaType == "REELS" {
			mediaType = domain.MediaVideo
		}

		items = append(items, domain.RawContent{
			SourceType:    domain.SourceInstagram,
			SourceURL:     entry.Permalink,
			SourceProfile: "@" + entry.Username,
			RawTitle:      textutil.Truncate(entry.Caption, 120),
			RawCaption:    entry.Caption,
			MediaURL:      entry.MediaURL,
			MediaType:     mediaType,
			PublishedAt:   publishedAt,
			Views:         entry.PlayCount,
			Likes:         entry.LikeCount,
			Comments:      entry.CommentsCount,
			Hashtags:      textutil.ExtractHashtags(entry.Caption),
			Mentions:      textutil.ExtractMentions(entry.Caption),
			CapturedAt:    now,
		})
	}

	return items
}

// scrapeTagPage extracts posts from the JSON-LD blocks of a public
// explore page. Instagram mostly renders client-side; whatever the
// server still embeds is returned, which may be nothing.
func (m *Monitor) scrapeTagPage(ctx context.Context, tag string) ([]domain.RawContent, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("https://www.instagram.com/explore/tags/%s/", url.PathEscape(tag))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request tag page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tag page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse tag page: %w", err)
	}

	now := time.Now().UTC()
	var items []domain.RawContent

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var post struct {
			URL     string `json:"url"`
			Caption string `json:"caption"`
			Author  struct {
				AlternateName string `json:"alternateName"`
			} `json:"author"`
			InteractionStatistic []struct {
				InteractionType      string `json:"interactionType"`
				UserInteractionCount int    `json:"userInteractionCount"`
			} `json:"interactionStatistic"`
			UploadDate string `json:"uploadDate"`
		}
		if err := json.Unmarshal([]byte(sel.Text()), &post); err != nil || post.URL == "" {
			return
		}

		item := domain.RawContent{
			SourceType:    domain.SourceInstagram,
			SourceURL:     post.URL,
			SourceProfile: post.Author.AlternateName,
			RawTitle:      textutil.Truncate(post.Caption, 120),
			RawCaption:    post.Caption,
			MediaType:     domain.MediaVideo,
			PublishedAt:   now,
			Hashtags:      textutil.ExtractHashtags(post.Caption),
			Mentions:      textutil.ExtractMentions(post.Caption),
			CapturedAt:    now,
		}
		if parsed, err := time.Parse(time.RFC3339, post.UploadDate); err == nil {
			item.PublishedAt = parsed.UTC()
		}
		for _, stat := range post.InteractionStatistic {
			switch {
			case stat.InteractionType == "http://schema.org/LikeAction":
				item.Likes = stat.UserInteractionCount
			case stat.InteractionType == "http://schema.org/WatchAction":
				item.Views = stat.UserInteractionCount
			case stat.InteractionType == "http://schema.org/CommentAction":
				item.Comments = stat.UserInteractionCount
			}
		}

		items = append(items, item)
	})

	return items, nil
}
