package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	base := defaultConfig()
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:         "http://127.0.0.1:0",
			ImageBaseURL:    "https://image.tmdb.org/t/p/w500",
			Token:           "test-token",
			Region:          "US",
			HTTPTimeout:     5 * time.Second,
			UserAgent:       "reel-test/1.0",
			RateLimit:       1000,
			RateBurst:       100,
			BreakerFailures: 100,
			BreakerTimeout:  time.Second,
		},
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		Search: SearchConfig{
			DebounceDelay:  10 * time.Millisecond,
			MaxQueryLength: 256,
		},
		Trending: TrendingConfig{
			Backend: "memory",
			Limit:   5,
		},
		Feedback: base.Feedback,
		UI:       base.UI,
		Media:    base.Media,
		Keys:     base.Keys,
		Log:      LogConfig{Level: "off"},
	}
}
