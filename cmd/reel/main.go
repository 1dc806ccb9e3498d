package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/reel/internal/catalog"
	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/discover"
	"github.com/pders01/reel/internal/feedback"
	"github.com/pders01/reel/internal/media"
	"github.com/pders01/reel/internal/search"
	"github.com/pders01/reel/internal/storage"
	"github.com/pders01/reel/internal/trending"
	"github.com/pders01/reel/internal/tui"
	"github.com/pders01/reel/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	dbPath     string
	logLevel   string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           "reel",
	Short:         "Find movies you'll enjoy without the hassle",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, off")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Skip startup banner")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runtime holds everything opened for one invocation.
type runtime struct {
	cfg         *config.Config
	store       *storage.Store
	coordinator *discover.Coordinator
	closers     []func() error
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			debuglog.Warnf("shutdown: %v", err)
		}
	}
}

func loadConfig() (*config.Config, error) {
	paths := validation.NewPathValidator()

	if configPath != "" {
		clean, err := paths.ValidateFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("config path: %w", err)
		}
		configPath = clean
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if cfg.Database.Path, err = paths.ValidateFile(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}
	if cfg.Database.SearchIndex != "" {
		if cfg.Database.SearchIndex, err = paths.ValidateDirectory(cfg.Database.SearchIndex); err != nil {
			return nil, fmt.Errorf("search index path: %w", err)
		}
	}
	if cfg.Log.File != "" {
		if cfg.Log.File, err = paths.ValidateFile(cfg.Log.File); err != nil {
			return nil, fmt.Errorf("log path: %w", err)
		}
	}
	return cfg, nil
}

// open loads the config and wires the store, trending backend, catalog
// client and coordinator.
func open(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := debuglog.SetupWithOptions(debuglog.ParseLogLevel(cfg.Log.Level), debuglog.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}); err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	if cfg.Catalog.Token == "" {
		return nil, fmt.Errorf("no catalog token: set catalog.token in the config or export TMDB_API_TOKEN")
	}

	rt := &runtime{cfg: cfg, closers: []func() error{debuglog.Close}}

	store, err := storage.Open(cfg.Database)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.store = store
	rt.closers = append(rt.closers, store.Close)

	counters, err := openTrending(ctx, cfg.Trending, store)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if c, ok := counters.(io.Closer); ok && counters != trending.Store(store) {
		rt.closers = append(rt.closers, c.Close)
	}

	client := catalog.New(cfg.Catalog)
	rt.coordinator = discover.New(client, counters,
		discover.WithImageBase(client.ImageBase()),
		discover.WithGenreCache(store, genreCacheAge),
	)

	debuglog.WithFields(map[string]any{
		"db":       cfg.Database.Path,
		"trending": cfg.Trending.Backend,
		"version":  Version,
	}).Infof("reel started")
	return rt, nil
}

func openTrending(ctx context.Context, cfg config.TrendingConfig, store *storage.Store) (trending.Store, error) {
	switch cfg.Backend {
	case "", "bolt":
		return store, nil
	case "memory":
		return trending.NewMemoryStore(), nil
	case "redis":
		rs, err := trending.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connecting trending store: %w", err)
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown trending backend %q (want bolt, redis or memory)", cfg.Backend)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rt, err := open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !quiet {
		tui.ShowBanner(Version)
	}

	searcher := search.New(rt.store, rt.cfg.Database.SearchIndex)
	if c, ok := searcher.(io.Closer); ok {
		defer c.Close()
	}

	app := tui.NewApp(rt.cfg, tui.Deps{
		Coordinator: rt.coordinator,
		Store:       rt.store,
		Searcher:    searcher,
		Launcher:    media.NewLauncher(rt.cfg.Media),
		Feedback:    feedback.NewSender(rt.cfg.Feedback),
	}, tui.WithContext(ctx))

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
