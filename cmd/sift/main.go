package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pders01/sift/internal/config"
	"github.com/pders01/sift/internal/debuglog"
	"github.com/pders01/sift/internal/pager"
	"github.com/pders01/sift/internal/search"
	"github.com/pders01/sift/internal/source"
	"github.com/pders01/sift/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	endpoint   string
	sourceKind string
	startPage  int
	modeFlag   string
	logLevel   string
	quiet      bool

	listQuery string
)

var rootCmd = &cobra.Command{
	Use:           "sift",
	Short:         "Browse and search blog posts in the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print one page of posts, optionally filtered",
	RunE:  runList,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sift %s\n", Version)
		fmt.Println("Blog post browser")
		fmt.Println("github.com/pders01/sift")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		path := config.DefaultPath()
		if err := config.GenerateDefaultConfig(path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", path)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to configuration file")
	pf.StringVar(&endpoint, "endpoint", "", "Posts endpoint (overrides config)")
	pf.StringVar(&sourceKind, "kind", "", "Source kind: json or feed (overrides config)")
	pf.IntVar(&startPage, "page", 0, "Page to open, starting at 0")
	pf.StringVar(&modeFlag, "mode", "", "Search mode: "+modeNames()+" (overrides config)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error or off")

	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Skip startup banner")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Only print posts matching this query")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(listCmd, versionCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func modeNames() string {
	var names []string
	for _, m := range search.Modes() {
		names = append(names, m.String())
	}
	return strings.Join(names, ", ")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if endpoint != "" {
		cfg.API.Endpoint = endpoint
	}
	if sourceKind != "" {
		cfg.API.Kind = strings.ToLower(sourceKind)
	}
	if modeFlag != "" {
		cfg.Search.DefaultMode = search.ParseMode(modeFlag).String()
	}
	if logLevel != "" {
		cfg.Log.Level = strings.ToLower(logLevel)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	if err := debuglog.Configure(debuglog.Options{
		Level:      debuglog.ParseLogLevel(cfg.Log.Level),
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debuglog.Close()

	tui.ApplyColors(cfg.UI.Colors)
	if !quiet {
		tui.ShowBanner(Version)
	}

	src, err := source.New(cfg)
	if err != nil {
		return err
	}

	debuglog.Infof("starting sift %s against %s", Version, cfg.API.Endpoint)
	app := tui.NewApp(src, cfg, tui.WithStartPage(startPage))
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debuglog.Close()

	src, err := source.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode := search.ParseMode(cfg.Search.DefaultMode)
	return listPosts(ctx, cmd.OutOrStdout(), pager.NewFetcher(src, cfg.API.PageSize), startPage, listQuery, mode)
}

// listPosts prints one page as "id. title" lines followed by a summary.
func listPosts(ctx context.Context, w io.Writer, f *pager.Fetcher, page int, query string, mode search.Mode) error {
	batch, err := f.Load(ctx, page)
	if err != nil {
		return fmt.Errorf("page %d: %w", pager.Clamp(page)+1, err)
	}

	visible := search.Filter(batch.Posts, query, mode)

	id := color.New(color.FgCyan, color.Bold)
	muted := color.New(color.Faint)
	for _, p := range visible {
		id.Fprintf(w, "%s.", p.ID)
		fmt.Fprintf(w, " %s\n", p.Title)
	}

	summary := fmt.Sprintf("Page %d · %d of %d posts", batch.Page+1, len(visible), batch.Len())
	if query != "" {
		summary += fmt.Sprintf(" · %s: %q", mode.Label(), query)
	}
	muted.Fprintln(w, summary)
	return nil
}
