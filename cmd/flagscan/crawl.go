package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/flagscan/flagscan/internal/config"
	"github.com/flagscan/flagscan/internal/database"
	"github.com/flagscan/flagscan/internal/log"
	"github.com/flagscan/flagscan/internal/model"
	"github.com/flagscan/flagscan/internal/pipeline"
	"github.com/flagscan/flagscan/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [username] [password]",
		Short: "Log in and crawl the target site for hidden flags",
		Long: `Crawl authenticates against the target server over TLS and walks the
site breadth-first until the configured number of flags is found or
every reachable page has been visited.

Flags are printed to stdout one per line as they are discovered.
Credentials come from the positional arguments, or from the .flagscan
configuration file entry for the server when the arguments are absent.

Examples:
  # Crawl the default server
  flagscan crawl myuser mypassword

  # Crawl a specific server and port
  flagscan crawl -s fakebook.example -p 8443 myuser mypassword

  # Write a JSON report in addition to the flag lines
  flagscan crawl --json -o report.json myuser mypassword

  # Crawl every site listed in the config file
  flagscan crawl --all -c sites.yaml

Configuration file (.flagscan) example:
  defaults:
    username: shared-account
  sites:
    fakebook.example:
      password: site-password
      port: 8443`,
		Args: cobra.MaximumNArgs(2),
		RunE: runCrawlCmd,
	}

	// Target flags
	cmd.Flags().StringP("server", "s", config.DefaultServer,
		"Target server to crawl")
	cmd.Flags().IntP("port", "p", config.DefaultPort,
		"TCP port to connect to")

	// Crawl behavior flags
	cmd.Flags().Int("max-flags", config.DefaultFlagLimit,
		"Number of flags that completes the run")

	// Batch crawling flags
	cmd.Flags().Bool("all", false,
		"Crawl every site listed in the configuration file")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls in --all mode")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .flagscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Persistence flags
	cmd.Flags().Bool("no-save", false,
		"Do not record this run in the history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Structured logging with credential masking: session cookies and
	// passwords flow through debug output in verbose mode.
	verbose := getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Server, err = cmd.Flags().GetString("server")
	if err != nil {
		return nil, err
	}

	cfg.Port, err = cmd.Flags().GetInt("port")
	if err != nil {
		return nil, err
	}

	cfg.FlagLimit, err = cmd.Flags().GetInt("max-flags")
	if err != nil {
		return nil, err
	}

	cfg.All, err = cmd.Flags().GetBool("all")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site configurations from the config file.
	// If the user explicitly specified a path, a missing file is an error.
	// Otherwise a missing file just means an empty config.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.Sites, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.Sites = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.DBDir = config.XDGDataDir()

	// Credentials: positional arguments win, the config file entry for
	// the server fills in whatever is missing.
	if len(args) > 0 {
		cfg.Username = args[0]
	}
	if len(args) > 1 {
		cfg.Password = args[1]
	}
	site := cfg.Sites.GetSiteConfig(cfg.Server)
	if cfg.Username == "" {
		cfg.Username = site.Username
	}
	if cfg.Password == "" {
		cfg.Password = site.Password
	}
	if site.Port != 0 && !cmd.Flags().Changed("port") {
		cfg.Port = site.Port
	}
	cfg.Headers = site.Headers

	return cfg, nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Open database connection if saving is enabled
	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "dir", cfg.DBDir)
	}

	runnerOpts := []pipeline.RunnerOption{
		pipeline.WithFlagLimit(cfg.FlagLimit),
		pipeline.WithFlagWriter(os.Stdout),
		pipeline.WithLogger(logger),
	}
	if db != nil {
		runnerOpts = append(runnerOpts, pipeline.WithStore(db))
	}
	runner := pipeline.NewRunner(runnerOpts...)

	if cfg.All {
		return runBatchCrawl(ctx, cfg, runner, logger)
	}

	crawlReport, err := runner.Run(ctx, pipeline.Target{
		Server:   cfg.Server,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		Headers:  cfg.Headers,
	})
	if err != nil {
		return err
	}

	return outputReport(cfg, crawlReport)
}

// runBatchCrawl crawls every site in the config file concurrently.
func runBatchCrawl(ctx context.Context, cfg *config.Config, runner *pipeline.Runner, logger *slog.Logger) error {
	targets := batchTargets(cfg)
	if len(targets) == 0 {
		return errors.New("no sites in configuration file (use 'flagscan init' to create one)")
	}

	fmt.Fprintf(os.Stderr, "Crawling %d sites (concurrency: %d)...\n",
		len(targets), cfg.BatchSize)
	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(runner,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	reports, err := bp.ProcessBatch(ctx, targets)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Batch crawl completed in %s\n",
		time.Since(startTime).Round(time.Millisecond))

	for _, r := range reports {
		if r == nil {
			continue
		}
		if reportErr := outputReport(cfg, r); reportErr != nil {
			logger.Error("report failed", "server", r.Server, "error", reportErr)
		}
	}
	return nil
}

// batchTargets builds the target list from the config file, applying
// defaults and per-site overrides.
func batchTargets(cfg *config.Config) []pipeline.Target {
	if cfg.Sites == nil {
		return nil
	}

	targets := make([]pipeline.Target, 0, len(cfg.Sites.Sites))
	for host := range cfg.Sites.Sites {
		site := cfg.Sites.GetSiteConfig(host)
		port := site.Port
		if port == 0 {
			port = config.DefaultPort
		}
		targets = append(targets, pipeline.Target{
			Server:   host,
			Port:     port,
			Username: site.Username,
			Password: site.Password,
			Headers:  site.Headers,
		})
	}
	return targets
}

// outputReport writes the run report in the requested format. With no
// format flag and no output file, the flags already streamed to stdout
// are the whole output.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport) error {
	if !cfg.JSONReport && !cfg.MarkdownReport && cfg.ReportFile == "" {
		return nil
	}

	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// 0600: the report names the account that was crawled.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}

	_, err := writer.Write(crawlReport)
	return err
}
