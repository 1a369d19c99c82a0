package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if !cfg.AutoMode {
		t.Fatal("expected auto mode enabled by default")
	}
	if cfg.CycleInterval.Std() != 10*time.Minute {
		t.Fatalf("unexpected cycle interval: %v", cfg.CycleInterval)
	}
	if cfg.Thresholds.ViralViews != 100000 {
		t.Fatalf("unexpected viral views threshold: %d", cfg.Thresholds.ViralViews)
	}
	if cfg.Dedup.SimilarityThreshold != 0.9 || cfg.Dedup.HistoryCap != 500 {
		t.Fatalf("unexpected dedup defaults: %+v", cfg.Dedup)
	}
	if cfg.Processing.MinIngredients != 2 || cfg.Processing.MinInstructions != 2 {
		t.Fatalf("unexpected processing defaults: %+v", cfg.Processing)
	}
	if cfg.API.Addr != ":8080" {
		t.Fatalf("unexpected api addr: %s", cfg.API.Addr)
	}
	if len(cfg.Platforms.TikTok.Hashtags) == 0 {
		t.Fatal("expected default tiktok hashtags")
	}
}

func TestLoadFromFile(t *testing.T) {
	raw := `
autoMode: false
cycleInterval: 45m
thresholds:
  viralViews: 250000
platforms:
  rss:
    feedUrls:
      - https://blog.example/feed.xml
cms:
  endpoint: https://cms.example/api/recipes
logging:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RECIPE_RADAR_CONFIG", path)

	cfg := Load()

	if cfg.AutoMode {
		t.Fatal("expected auto mode disabled via file")
	}
	if cfg.CycleInterval.Std() != 45*time.Minute {
		t.Fatalf("unexpected cycle interval: %v", cfg.CycleInterval)
	}
	if cfg.Thresholds.ViralViews != 250000 {
		t.Fatalf("unexpected viral views threshold: %d", cfg.Thresholds.ViralViews)
	}
	// Unset fields keep their defaults.
	if cfg.Thresholds.ViralLikes != 5000 {
		t.Fatalf("expected default likes threshold, got %d", cfg.Thresholds.ViralLikes)
	}
	if !reflect.DeepEqual(cfg.Platforms.RSS.FeedURLs, []string{"https://blog.example/feed.xml"}) {
		t.Fatalf("unexpected feed urls: %v", cfg.Platforms.RSS.FeedURLs)
	}
	if cfg.CMS.Endpoint != "https://cms.example/api/recipes" {
		t.Fatalf("unexpected cms endpoint: %s", cfg.CMS.Endpoint)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.Logging.Level)
	}
}

func TestEnvOverridesBeatFile(t *testing.T) {
	raw := `
cms:
  endpoint: https://file.example/api
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("RECIPE_RADAR_CONFIG", path)
	t.Setenv("CMS_ENDPOINT", "https://env.example/api")
	t.Setenv("CMS_API_KEY", "env-key")
	t.Setenv("DATABASE_DSN", "postgres://env")
	t.Setenv("RSS_FEED_URLS", "https://a.example/feed, https://b.example/feed")
	t.Setenv("CYCLE_MINUTES", "5")
	t.Setenv("AUTO_MODE", "false")

	cfg := Load()

	if cfg.CMS.Endpoint != "https://env.example/api" {
		t.Fatalf("expected env override for endpoint, got %s", cfg.CMS.Endpoint)
	}
	if cfg.CMS.APIKey != "env-key" {
		t.Fatalf("unexpected api key: %s", cfg.CMS.APIKey)
	}
	if cfg.Database.DSN != "postgres://env" {
		t.Fatalf("unexpected dsn: %s", cfg.Database.DSN)
	}
	want := []string{"https://a.example/feed", "https://b.example/feed"}
	if !reflect.DeepEqual(cfg.Platforms.RSS.FeedURLs, want) {
		t.Fatalf("unexpected feed urls: %v", cfg.Platforms.RSS.FeedURLs)
	}
	if cfg.CycleInterval.Std() != 5*time.Minute {
		t.Fatalf("unexpected cycle interval: %v", cfg.CycleInterval)
	}
	if cfg.AutoMode {
		t.Fatal("expected auto mode disabled via env")
	}
}

func TestLoadIgnoresBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{nope: ["), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RECIPE_RADAR_CONFIG", path)

	cfg := Load()

	if cfg.Thresholds.ViralViews != 100000 {
		t.Fatal("expected defaults when the config file cannot be parsed")
	}
}
