package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Database DatabaseConfig `mapstructure:"database"`
	Search   SearchConfig   `mapstructure:"search"`
	Trending TrendingConfig `mapstructure:"trending"`
	Feedback FeedbackConfig `mapstructure:"feedback"`
	UI       UIConfig       `mapstructure:"ui"`
	Media    MediaConfig    `mapstructure:"media"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

type CatalogConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	ImageBaseURL    string        `mapstructure:"image_base_url"`
	Token           string        `mapstructure:"token"`
	Region          string        `mapstructure:"region"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type SearchConfig struct {
	DebounceDelay  time.Duration `mapstructure:"debounce_delay"`
	MaxQueryLength int           `mapstructure:"max_query_length"`
}

type TrendingConfig struct {
	// Backend is one of "bolt", "redis" or "memory".
	Backend string      `mapstructure:"backend"`
	Limit   int         `mapstructure:"limit"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type FeedbackConfig struct {
	SMTPHost string        `mapstructure:"smtp_host"`
	SMTPPort int           `mapstructure:"smtp_port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	To       string        `mapstructure:"to"`
	Subject  string        `mapstructure:"subject"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type UIConfig struct {
	Theme  string   `mapstructure:"theme"`
	Colors UIColors `mapstructure:"colors"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type MediaConfig struct {
	// DefaultOpener overrides the platform opener from the embedded table.
	DefaultOpener string `mapstructure:"default_opener"`
	// UsePlayers prefers an installed player (mpv, vlc, ...) for trailers.
	UsePlayers bool `mapstructure:"use_players"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Search    string `mapstructure:"search"`
	Trending  string `mapstructure:"trending"`
	Favorites string `mapstructure:"favorites"`
	Favorite  string `mapstructure:"favorite"`
	Rate      string `mapstructure:"rate"`
	Genre     string `mapstructure:"genre"`
	Feedback  string `mapstructure:"feedback"`
	Open      string `mapstructure:"open"`
	Trailer   string `mapstructure:"trailer"`
	Theme     string `mapstructure:"theme"`
	NextPage  string `mapstructure:"next_page"`
	PrevPage  string `mapstructure:"prev_page"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".reel")

	return &Config{
		Catalog: CatalogConfig{
			BaseURL:         "https://api.themoviedb.org/3",
			ImageBaseURL:    "https://image.tmdb.org/t/p/w500",
			Region:          "US",
			HTTPTimeout:     15 * time.Second,
			UserAgent:       "reel/1.0 (https://github.com/pders01/reel)",
			RateLimit:       20,
			RateBurst:       5,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(dataDir, "reel.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dataDir, "favorites.bleve"),
		},
		Search: SearchConfig{
			DebounceDelay:  900 * time.Millisecond,
			MaxQueryLength: 256,
		},
		Trending: TrendingConfig{
			Backend: "bolt",
			Limit:   5,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "reel:trending",
			},
		},
		Feedback: FeedbackConfig{
			SMTPPort: 587,
			Subject:  "reel feedback",
			Timeout:  20 * time.Second,
		},
		UI: UIConfig{
			Theme: "dark",
			Colors: UIColors{
				Primary:   "#AB8BFF",
				Secondary: "#D6C7FF",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Search:    "s",
				Trending:  "t",
				Favorites: "f",
				Favorite:  "a",
				Rate:      "r",
				Genre:     "g",
				Feedback:  "b",
				Open:      "o",
				Trailer:   "y",
				Theme:     "l",
				NextPage:  "n",
				PrevPage:  "p",
			},
		},
		Log: LogConfig{
			Level:      "off",
			File:       filepath.Join(dataDir, "reel.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// defaults flattens cfg into dotted viper keys. Nested struct defaults are
// not visible to AutomaticEnv, so every leaf is registered on its own.
func defaults(cfg *Config) map[string]any {
	return map[string]any{
		"catalog.base_url":         cfg.Catalog.BaseURL,
		"catalog.image_base_url":   cfg.Catalog.ImageBaseURL,
		"catalog.token":            cfg.Catalog.Token,
		"catalog.region":           cfg.Catalog.Region,
		"catalog.http_timeout":     cfg.Catalog.HTTPTimeout,
		"catalog.user_agent":       cfg.Catalog.UserAgent,
		"catalog.rate_limit":       cfg.Catalog.RateLimit,
		"catalog.rate_burst":       cfg.Catalog.RateBurst,
		"catalog.breaker_failures": cfg.Catalog.BreakerFailures,
		"catalog.breaker_timeout":  cfg.Catalog.BreakerTimeout,

		"database.path":         cfg.Database.Path,
		"database.timeout":      cfg.Database.Timeout,
		"database.search_index": cfg.Database.SearchIndex,

		"search.debounce_delay":   cfg.Search.DebounceDelay,
		"search.max_query_length": cfg.Search.MaxQueryLength,

		"trending.backend":        cfg.Trending.Backend,
		"trending.limit":          cfg.Trending.Limit,
		"trending.redis.addr":     cfg.Trending.Redis.Addr,
		"trending.redis.password": cfg.Trending.Redis.Password,
		"trending.redis.db":       cfg.Trending.Redis.DB,
		"trending.redis.prefix":   cfg.Trending.Redis.Prefix,

		"feedback.smtp_host": cfg.Feedback.SMTPHost,
		"feedback.smtp_port": cfg.Feedback.SMTPPort,
		"feedback.username":  cfg.Feedback.Username,
		"feedback.password":  cfg.Feedback.Password,
		"feedback.from":      cfg.Feedback.From,
		"feedback.to":        cfg.Feedback.To,
		"feedback.subject":   cfg.Feedback.Subject,
		"feedback.timeout":   cfg.Feedback.Timeout,

		"ui.theme":            cfg.UI.Theme,
		"ui.colors.primary":   cfg.UI.Colors.Primary,
		"ui.colors.secondary": cfg.UI.Colors.Secondary,
		"ui.colors.accent":    cfg.UI.Colors.Accent,
		"ui.colors.text":      cfg.UI.Colors.Text,
		"ui.colors.muted":     cfg.UI.Colors.Muted,
		"ui.colors.error":     cfg.UI.Colors.Error,
		"ui.colors.success":   cfg.UI.Colors.Success,

		"media.default_opener": cfg.Media.DefaultOpener,
		"media.use_players":    cfg.Media.UsePlayers,

		"keys.modifier":           cfg.Keys.Modifier,
		"keys.bindings.search":    cfg.Keys.Bindings.Search,
		"keys.bindings.trending":  cfg.Keys.Bindings.Trending,
		"keys.bindings.favorites": cfg.Keys.Bindings.Favorites,
		"keys.bindings.favorite":  cfg.Keys.Bindings.Favorite,
		"keys.bindings.rate":      cfg.Keys.Bindings.Rate,
		"keys.bindings.genre":     cfg.Keys.Bindings.Genre,
		"keys.bindings.feedback":  cfg.Keys.Bindings.Feedback,
		"keys.bindings.open":      cfg.Keys.Bindings.Open,
		"keys.bindings.trailer":   cfg.Keys.Bindings.Trailer,
		"keys.bindings.theme":     cfg.Keys.Bindings.Theme,
		"keys.bindings.next_page": cfg.Keys.Bindings.NextPage,
		"keys.bindings.prev_page": cfg.Keys.Bindings.PrevPage,

		"log.level":       cfg.Log.Level,
		"log.file":        cfg.Log.File,
		"log.max_size_mb": cfg.Log.MaxSizeMB,
		"log.max_backups": cfg.Log.MaxBackups,
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults(defaultConfig()) {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "reel")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("REEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The catalog token is commonly exported under the provider's own name.
	if err := v.BindEnv("catalog.token", "REEL_CATALOG_TOKEN", "TMDB_API_TOKEN"); err != nil {
		return nil, fmt.Errorf("binding env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	for key, value := range defaults(config) {
		// Durations read better as "900ms" than as nanoseconds.
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
