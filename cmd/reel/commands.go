package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/discover"
	"github.com/pders01/reel/internal/tui"
)

const genreCacheAge = 24 * time.Hour

var (
	searchPage  int
	searchGenre int
	topLimit    int
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("reel %s\n", Version)
		fmt.Println("Movie discovery in the terminal")
		fmt.Println("github.com/pders01/reel")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration to ~/.config/reel/config.toml",
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := os.UserHomeDir()
		configFile := filepath.Join(home, ".config", "reel", "config.toml")

		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			return
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search the catalog once and count the term towards trending",
	Long: "Runs a single catalog query. Without a term it lists popular movies.\n" +
		"A search that finds movies increments the term's trending counter.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		rt, err := open(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		term := ""
		if len(args) == 1 {
			term = args[0]
		}
		state := discover.NewState().WithTerm(term).WithGenre(searchGenre).WithPage(searchPage)
		state, req := state.Begin()
		out := rt.coordinator.SearchAndRecord(ctx, req)
		state, _ = state.Resolve(out)

		w := cmd.OutOrStdout()
		switch state.Status {
		case discover.StatusFailed:
			return fmt.Errorf("%s: %w", state.Message, out.Err)
		case discover.StatusEmpty:
			fmt.Fprintln(w, state.Message)
			return nil
		}

		for i, m := range state.Movies {
			fmt.Fprintf(w, "%2d. %s (%s) ★ %s\n", i+1, m.Title, m.Year(), m.Rating())
		}
		fmt.Fprintln(w, tui.MsgPage(state.Query.Page, state.TotalPages))
		return nil
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show the most searched terms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		rt, err := open(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		limit := topLimit
		if limit <= 0 {
			limit = rt.cfg.Trending.Limit
		}
		counters, err := rt.coordinator.Leaderboard(ctx, limit)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(counters) == 0 {
			fmt.Fprintln(w, tui.MsgNoTrending)
			return nil
		}
		for i, c := range counters {
			fmt.Fprintf(w, "%d. %s • searched %q %d×\n", i+1, c.Movie.Title, c.Term, c.Count)
		}
		return nil
	},
}

var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "List the catalog's genres and their ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		rt, err := open(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		genres, err := rt.coordinator.Genres(ctx)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, g := range genres {
			fmt.Fprintf(w, "%6d  %s\n", g.ID, strings.TrimSpace(g.Name))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Result page")
	searchCmd.Flags().IntVar(&searchGenre, "genre", 0, "Genre id filter (see `reel genres`)")
	trendingCmd.Flags().IntVar(&topLimit, "limit", 0, "Number of entries (default from config)")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd, searchCmd, trendingCmd, genresCmd)
}
