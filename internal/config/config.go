package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "RECIPE_RADAR_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	cmsEndpointEnv    = "CMS_ENDPOINT"
	cmsAPIKeyEnv      = "CMS_API_KEY"
	tiktokAPIKeyEnv   = "TIKTOK_API_KEY"
	instagramTokenEnv = "INSTAGRAM_GRAPH_API_TOKEN"
	rssFeedURLsEnv    = "RSS_FEED_URLS"
	cycleMinutesEnv   = "CYCLE_MINUTES"
	autoModeEnv       = "AUTO_MODE"
	logLevelEnv       = "LOG_LEVEL"
)

// Duration wraps time.Duration so YAML values can be written in the
// usual "10m" / "2s" form.
type Duration time.Duration

// UnmarshalYAML parses the standard duration string syntax.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard-library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds every setting consumed across the application.
type Config struct {
	AutoMode      bool             `yaml:"autoMode"`
	CycleInterval Duration         `yaml:"cycleInterval"`
	Thresholds    ThresholdConfig  `yaml:"thresholds"`
	Dedup         DedupConfig      `yaml:"dedup"`
	Processing    ProcessingConfig `yaml:"processing"`
	Scraping      ScrapingConfig   `yaml:"scraping"`
	Platforms     PlatformConfig   `yaml:"platforms"`
	CMS           CMSConfig        `yaml:"cms"`
	Database      DatabaseConfig   `yaml:"database"`
	API           APIConfig        `yaml:"api"`
	Logging       LoggingConfig    `yaml:"logging"`
}

// ThresholdConfig defines the viral-detection rule set.
type ThresholdConfig struct {
	ViralViews      int     `yaml:"viralViews"`
	ViralLikes      int     `yaml:"viralLikes"`
	ViralShares     int     `yaml:"viralShares"`
	GrowthRatePct   float64 `yaml:"growthRatePercent"`
	TimeWindowHours int     `yaml:"timeWindowHours"`
}

// DedupConfig controls duplicate detection and history retention.
type DedupConfig struct {
	SimilarityThreshold float64 `yaml:"similarityThreshold"`
	HistoryCap          int     `yaml:"historyCap"`
}

// ProcessingConfig bounds what counts as a usable recipe.
type ProcessingConfig struct {
	MinIngredients  int `yaml:"minIngredients"`
	MinInstructions int `yaml:"minInstructions"`
	MaxPrepMinutes  int `yaml:"maxPrepMinutes"`
}

// ScrapingConfig tunes outbound HTTP behaviour for the adapters.
type ScrapingConfig struct {
	UserAgent    string   `yaml:"userAgent"`
	RequestDelay Duration `yaml:"requestDelay"`
	Timeout      Duration `yaml:"timeout"`
}

// PlatformConfig lists per-platform credentials, tags, and feeds.
type PlatformConfig struct {
	TikTok    TikTokConfig    `yaml:"tiktok"`
	Instagram InstagramConfig `yaml:"instagram"`
	RSS       RSSConfig       `yaml:"rss"`
}

// TikTokConfig wires the TikTok adapter.
type TikTokConfig struct {
	APIKey   string   `yaml:"apiKey"`
	Hashtags []string `yaml:"hashtags"`
}

// InstagramConfig wires the Instagram adapter.
type InstagramConfig struct {
	GraphAPIToken string   `yaml:"graphApiToken"`
	Hashtags      []string `yaml:"hashtags"`
}

// RSSConfig wires the RSS adapter.
type RSSConfig struct {
	FeedURLs []string `yaml:"feedUrls"`
}

// CMSConfig describes the downstream publishing endpoint.
type CMSConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
}

// DatabaseConfig describes the optional Postgres audit store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// APIConfig describes the control/metrics HTTP listener.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			// Seed with defaults so fields absent from the file,
			// booleans included, keep their default values.
			fileCfg := cfg
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(cmsEndpointEnv); v != "" {
		c.CMS.Endpoint = v
	}
	if v := os.Getenv(cmsAPIKeyEnv); v != "" {
		c.CMS.APIKey = v
	}
	if v := os.Getenv(tiktokAPIKeyEnv); v != "" {
		c.Platforms.TikTok.APIKey = v
	}
	if v := os.Getenv(instagramTokenEnv); v != "" {
		c.Platforms.Instagram.GraphAPIToken = v
	}
	if v := os.Getenv(rssFeedURLsEnv); v != "" {
		c.Platforms.RSS.FeedURLs = splitList(v)
	}
	if v := os.Getenv(cycleMinutesEnv); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			c.CycleInterval = Duration(time.Duration(minutes) * time.Minute)
		}
	}
	if v := os.Getenv(autoModeEnv); v != "" {
		c.AutoMode = strings.EqualFold(v, "true")
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func mergeConfig(base, override Config) Config {
	if override.CycleInterval > 0 {
		base.CycleInterval = override.CycleInterval
	}
	base.AutoMode = override.AutoMode

	if override.Thresholds.ViralViews > 0 {
		base.Thresholds.ViralViews = override.Thresholds.ViralViews
	}
	if override.Thresholds.ViralLikes > 0 {
		base.Thresholds.ViralLikes = override.Thresholds.ViralLikes
	}
	if override.Thresholds.ViralShares > 0 {
		base.Thresholds.ViralShares = override.Thresholds.ViralShares
	}
	if override.Thresholds.GrowthRatePct > 0 {
		base.Thresholds.GrowthRatePct = override.Thresholds.GrowthRatePct
	}
	if override.Thresholds.TimeWindowHours > 0 {
		base.Thresholds.TimeWindowHours = override.Thresholds.TimeWindowHours
	}

	if override.Dedup.SimilarityThreshold > 0 {
		base.Dedup.SimilarityThreshold = override.Dedup.SimilarityThreshold
	}
	if override.Dedup.HistoryCap > 0 {
		base.Dedup.HistoryCap = override.Dedup.HistoryCap
	}

	if override.Processing.MinIngredients > 0 {
		base.Processing.MinIngredients = override.Processing.MinIngredients
	}
	if override.Processing.MinInstructions > 0 {
		base.Processing.MinInstructions = override.Processing.MinInstructions
	}
	if override.Processing.MaxPrepMinutes > 0 {
		base.Processing.MaxPrepMinutes = override.Processing.MaxPrepMinutes
	}

	if override.Scraping.UserAgent != "" {
		base.Scraping.UserAgent = override.Scraping.UserAgent
	}
	if override.Scraping.RequestDelay > 0 {
		base.Scraping.RequestDelay = override.Scraping.RequestDelay
	}
	if override.Scraping.Timeout > 0 {
		base.Scraping.Timeout = override.Scraping.Timeout
	}

	if override.Platforms.TikTok.APIKey != "" {
		base.Platforms.TikTok.APIKey = override.Platforms.TikTok.APIKey
	}
	if len(override.Platforms.TikTok.Hashtags) > 0 {
		base.Platforms.TikTok.Hashtags = override.Platforms.TikTok.Hashtags
	}
	if override.Platforms.Instagram.GraphAPIToken != "" {
		base.Platforms.Instagram.GraphAPIToken = override.Platforms.Instagram.GraphAPIToken
	}
	if len(override.Platforms.Instagram.Hashtags) > 0 {
		base.Platforms.Instagram.Hashtags = override.Platforms.Instagram.Hashtags
	}
	if len(override.Platforms.RSS.FeedURLs) > 0 {
		base.Platforms.RSS.FeedURLs = override.Platforms.RSS.FeedURLs
	}

	if override.CMS.Endpoint != "" {
		base.CMS.Endpoint = override.CMS.Endpoint
	}
	if override.CMS.APIKey != "" {
		base.CMS.APIKey = override.CMS.APIKey
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.API.Addr != "" {
		base.API.Addr = override.API.Addr
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		AutoMode:      true,
		CycleInterval: Duration(10 * time.Minute),
		Thresholds: ThresholdConfig{
			ViralViews:      100000,
			ViralLikes:      5000,
			ViralShares:     500,
			GrowthRatePct:   50,
			TimeWindowHours: 6,
		},
		Dedup: DedupConfig{
			SimilarityThreshold: 0.9,
			HistoryCap:          500,
		},
		Processing: ProcessingConfig{
			MinIngredients:  2,
			MinInstructions: 2,
			MaxPrepMinutes:  30,
		},
		Scraping: ScrapingConfig{
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			RequestDelay: Duration(2 * time.Second),
			Timeout:      Duration(30 * time.Second),
		},
		Platforms: PlatformConfig{
			TikTok: TikTokConfig{
				Hashtags: []string{"receita", "food", "tiktokfood", "receitafacil"},
			},
			Instagram: InstagramConfig{
				Hashtags: []string{"reels", "receitas", "receitasfit"},
			},
		},
		CMS: CMSConfig{
			Endpoint: "http://localhost:8000/api/recipes",
		},
		API: APIConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
