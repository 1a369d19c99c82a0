// Package tiktok fetches trending recipe videos from TikTok, either via
// the official API when a key is configured or by scraping public tag
// pages.
package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"RecipeRadar/internal/config"
	"RecipeRadar/internal/domain"
	"RecipeRadar/internal/ports"
	"RecipeRadar/internal/textutil"
)

const (
	apiTrendingURL = "https://open-api.tiktok.com/v1/trending/"
	tagPageURL     = "https://www.tiktok.com/tag/"
)

// Monitor implements ports.Monitor for TikTok. It owns its HTTP client
// and releases it on Close.
type Monitor struct {
	apiKey    string
	hashtags  []string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

var _ ports.Monitor = (*Monitor)(nil)

// New builds the adapter from configuration. The request delay becomes a
// rate limit shared by all fetches of this adapter.
func New(cfg config.TikTokConfig, scraping config.ScrapingConfig) *Monitor {
	delay := scraping.RequestDelay.Std()
	if delay <= 0 {
		delay = time.Second
	}
	return &Monitor{
		apiKey:    cfg.APIKey,
		hashtags:  cfg.Hashtags,
		userAgent: scraping.UserAgent,
		client:    &http.Client{Timeout: scraping.Timeout.Std()},
		limiter:   rate.NewLimiter(rate.Every(delay), 1),
	}
}

// Name identifies the adapter in logs and stats.
func (m *Monitor) Name() string { return string(domain.SourceTikTok) }

// Tags lists the configured hashtags this adapter should query.
func (m *Monitor) Tags() []string { return m.hashtags }

// FetchTrending returns the current trending videos in the food category.
func (m *Monitor) FetchTrending(ctx context.Context) ([]domain.RawContent, error) {
	if m.apiKey != "" {
		return m.fetchViaAPI(ctx, apiTrendingURL+"?category=food&count=50")
	}
	return m.scrapeTagPage(ctx, "receita")
}

// FetchByTag returns videos posted under the given hashtag.
func (m *Monitor) FetchByTag(ctx context.Context, tag string) ([]domain.RawContent, error) {
	if m.apiKey != "" {
		return m.fetchViaAPI(ctx, fmt.Sprintf("%s?hashtag=%s&count=50", apiTrendingURL, tag))
	}
	return m.scrapeTagPage(ctx, tag)
}

// Close releases the adapter's idle connections.
func (m *Monitor) Close() error {
	m.client.CloseIdleConnections()
	return nil
}

type apiVideo struct {
	ShareURL   string `json:"share_url"`
	Desc       string `json:"desc"`
	CreateTime int64  `json:"create_time"`
	Author     struct {
		UniqueID string `json:"unique_id"`
	} `json:"author"`
	Video struct {
		PlayAddr string `json:"play_addr"`
	} `json:"video"`
	Statistics struct {
		PlayCount    int `json:"play_count"`
		DiggCount    int `json:"digg_count"`
		ShareCount   int `json:"share_count"`
		CommentCount int `json:"comment_count"`
	} `json:"statistics"`
	Music struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"music"`
}

type apiResponse struct {
	Data struct {
		Videos []apiVideo `json:"videos"`
	} `json:"data"`
}

func (m *Monitor) fetchViaAPI(ctx context.Context, url string) ([]domain.RawContent, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request trending: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tiktok api returned %s", resp.Status)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return m.convertVideos(payload.Data.Videos), nil
}

func (m *Monitor) convertVideos(videos []apiVideo) []domain.RawContent {
	now := time.Now().UTC()
	items := make([]domain.RawContent, 0, len(videos))

	for _, video := range videos {
		if video.ShareURL == "" {
			continue
		}
		items = append(items, domain.RawContent{
			SourceType:    domain.SourceTikTok,
			SourceURL:     video.ShareURL,
			SourceProfile: "@" + video.Author.UniqueID,
			RawTitle:      textutil.Truncate(video.Desc, 120),
			RawCaption:    video.Desc,
			MediaURL:      video.Video.PlayAddr,
			MediaType:     domain.MediaVideo,
			PublishedAt:   time.Unix(video.CreateTime, 0).UTC(),
			Views:         video.Statistics.PlayCount,
			Likes:         video.Statistics.DiggCount,
			Shares:        video.Statistics.ShareCount,
			Comments:      video.Statistics.CommentCount,
			Hashtags:      textutil.ExtractHashtags(video.Desc),
			Mentions:      textutil.ExtractMentions(video.Desc),
			SoundID:       video.Music.ID,
			SoundName:     video.Music.Title,
			CapturedAt:    now,
		})
	}

	return items
}

// scrapeTagPage pulls the server-rendered item list embedded in a public
// tag page. TikTok ships the initial state as JSON inside a script tag;
// items missing from it are simply skipped.
func (m *Monitor) scrapeTagPage(ctx context.Context, tag string) ([]domain.RawContent, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tagPageURL+tag, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8")

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

	state := doc.Find("script#SIGI_STATE").First().Text()
	if strings.TrimSpace(state) == "" {
		// Rendered entirely client-side; nothing to extract.
		return nil, nil
	}

	var embedded struct {
		ItemModule map[string]apiVideo `json:"ItemModule"`
	}
	if err := json.Unmarshal([]byte(state), &embedded); err != nil {
		return nil, fmt.Errorf("decode embedded state: %w", err)
	}

	videos := make([]apiVideo, 0, len(embedded.ItemModule))
	for _, video := range embedded.ItemModule {
		videos = append(videos, video)
	}
	return m.convertVideos(videos), nil
}
