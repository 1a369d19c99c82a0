package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"RecipeRadar/internal/config"
	"RecipeRadar/internal/domain"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Blog da Cozinha</title>
    <link>https://blog.example</link>
    <item>
      <title>Receita de &lt;b&gt;bolo de fubá&lt;/b&gt; cremoso #receita</title>
      <link>https://blog.example/bolo-de-fuba</link>
      <description>&lt;p&gt;Uma receita simples com &lt;script&gt;alert(1)&lt;/script&gt; fubá e queijo.&lt;/p&gt;</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title>Novidades do mercado financeiro</title>
      <link>https://blog.example/financas</link>
      <description>Juros, bolsa e inflação da semana.</description>
    </item>
  </channel>
</rss>`

func testScraping() config.ScrapingConfig {
	return config.ScrapingConfig{
		UserAgent:    "RecipeRadar/1.0",
		RequestDelay: config.Duration(time.Millisecond),
		Timeout:      config.Duration(5 * time.Second),
	}
}

func TestFetchTrendingFiltersAndSanitizes(t *testing.T) {
	t.Parallel()

	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	monitor := New(config.RSSConfig{FeedURLs: []string{server.URL}}, testScraping())

	items, err := monitor.FetchTrending(context.Background())
	if err != nil {
		t.Fatalf("FetchTrending error: %v", err)
	}

	// The finance entry is filtered out by the recipe keyword check.
	if len(items) != 1 {
		t.Fatalf("expected 1 recipe entry, got %d", len(items))
	}

	item := items[0]
	if item.SourceType != domain.SourceRSS {
		t.Fatalf("unexpected source type: %s", item.SourceType)
	}
	if item.SourceURL != "https://blog.example/bolo-de-fuba" {
		t.Fatalf("unexpected url: %s", item.SourceURL)
	}
	if item.RawTitle != "Receita de bolo de fubá cremoso #receita" {
		t.Fatalf("expected markup stripped from title, got %q", item.RawTitle)
	}
	if item.RawCaption != "Uma receita simples com fubá e queijo." {
		t.Fatalf("expected scripts stripped from caption, got %q", item.RawCaption)
	}
	if len(item.Hashtags) != 1 || item.Hashtags[0] != "receita" {
		t.Fatalf("unexpected hashtags: %v", item.Hashtags)
	}
	if item.PublishedAt.Year() != 2006 {
		t.Fatalf("unexpected published date: %v", item.PublishedAt)
	}
	if gotUserAgent != "RecipeRadar/1.0" {
		t.Fatalf("unexpected user agent: %q", gotUserAgent)
	}
}

func TestFetchTrendingToleratesPartialFailures(t *testing.T) {
	t.Parallel()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer bad.Close()

	monitor := New(config.RSSConfig{FeedURLs: []string{bad.URL, good.URL}}, testScraping())

	items, err := monitor.FetchTrending(context.Background())
	if err != nil {
		t.Fatalf("expected partial success, got error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected entries from the healthy feed, got %d", len(items))
	}
}

func TestFetchTrendingErrorsWhenAllFeedsFail(t *testing.T) {
	t.Parallel()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	monitor := New(config.RSSConfig{FeedURLs: []string{bad.URL}}, testScraping())

	if _, err := monitor.FetchTrending(context.Background()); err == nil {
		t.Fatal("expected error when every feed fails")
	}
}

func TestFetchByTagFiltersHashtags(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	monitor := New(config.RSSConfig{FeedURLs: []string{server.URL}}, testScraping())

	matched, err := monitor.FetchByTag(context.Background(), "receita")
	if err != nil {
		t.Fatalf("FetchByTag error: %v", err)
	}
	if len(matched) != 1 {
		t.Fatalf("expected 1 tagged entry, got %d", len(matched))
	}

	none, err := monitor.FetchByTag(context.Background(), "fitness")
	if err != nil {
		t.Fatalf("FetchByTag error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no entries for unused tag, got %d", len(none))
	}
}
