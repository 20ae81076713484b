package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/phidi/identity-crawler/internal/batch"
	"github.com/phidi/identity-crawler/internal/clock/system"
	"github.com/phidi/identity-crawler/internal/config"
	"github.com/phidi/identity-crawler/internal/crawler"
	"github.com/phidi/identity-crawler/internal/domains"
	"github.com/phidi/identity-crawler/internal/id/uuid"
	"github.com/phidi/identity-crawler/internal/logging"
	"github.com/phidi/identity-crawler/internal/metrics"
	"github.com/phidi/identity-crawler/internal/politeness"
	"github.com/phidi/identity-crawler/internal/sink"
)

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls the configured domain list",
		Long: `Reads the input domain file, crawls every domain with bounded
concurrency, and writes one NDJSON record per domain to the output file.`,
		RunE: runCrawlCommand,
	}

	cmd.Flags().String("input", "", "path to the domain list (CSV or plain text)")
	cmd.Flags().String("output", "", "path for the NDJSON output file")
	cmd.Flags().Int("concurrency", 0, "maximum simultaneous fetches")
	cmd.Flags().Float64("timeout", 0, "per-request timeout in seconds")
	cmd.Flags().Bool("respect-robots", true, "honor robots.txt disallow rules and crawl delays")

	// Flags override file and environment values through Viper.
	_ = viper.BindPFlag("input.path", cmd.Flags().Lookup("input"))
	_ = viper.BindPFlag("output.path", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("http.concurrency", cmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("http.timeout_seconds", cmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("robots.enabled", cmd.Flags().Lookup("respect-robots"))

	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	list, err := domains.Load(cfg.Input.Path)
	if err != nil {
		return fmt.Errorf("load domains from %s: %w", cfg.Input.Path, err)
	}
	if len(list) == 0 {
		logger.Warn("no domains found in input file", zap.String("path", cfg.Input.Path))
	}

	out, err := sink.NewNDJSONSink(cfg.Output.Path, logger)
	if err != nil {
		return fmt.Errorf("init output sink: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			logger.Warn("failed to close output sink", zap.Error(cerr))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.ListenAddr != "" {
		startMetricsListener(ctx, cfg.Metrics.ListenAddr, logger)
	}

	orchestrator := buildCrawlEngine(cfg, out, logger)
	summary := orchestrator.Run(ctx, list)

	logger.Info("crawl summary",
		zap.String("run_id", summary.RunID),
		zap.Int("domains", summary.Domains),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("blocked", summary.Blocked),
		zap.Int("failed", summary.Failed),
		zap.Int("robots_cache_size", summary.RobotsCacheSize),
		zap.Duration("elapsed", summary.Elapsed))

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("crawl interrupted: %w", err)
	}
	return nil
}

// buildCrawlEngine wires the politeness layer, fetch state machine, and
// orchestrator from the typed configuration.
func buildCrawlEngine(cfg config.Config, out *sink.NDJSONSink, logger *zap.Logger) *batch.Orchestrator {
	clk := system.New()

	var robots *politeness.RobotsCache
	if cfg.Robots.Enabled {
		robots = politeness.NewRobotsCache(cfg.RobotsTTL(), cfg.HTTP.UserAgent, nil, clk, logger)
	}

	var agents *politeness.UserAgentRotator
	if cfg.Rotation.Enabled {
		identifier := ""
		if cfg.Rotation.Identify {
			identifier = cfg.Rotation.Identifier
		}
		agents = politeness.NewUserAgentRotator(nil, cfg.Rotation.Identify, identifier)
	}

	opts := crawler.Options{
		Timeout:         cfg.Timeout(),
		UserAgent:       cfg.HTTP.UserAgent,
		Protocols:       cfg.Protocols(),
		MaxAttempts:     cfg.Retry.MaxAttempts,
		BackoffBase:     cfg.BackoffBase(),
		JitterMax:       cfg.JitterMax(),
		MaxPageBytes:    cfg.HTTP.MaxPageBytes,
		FollowRedirects: cfg.HTTP.FollowRedirects,
		MaxRedirects:    cfg.HTTP.MaxRedirects,
	}

	// Interface conversions stay explicit so a disabled layer passes a
	// typed nil check inside the fetcher.
	var robotsPolicy crawler.RobotsPolicy
	if robots != nil {
		robotsPolicy = robots
	}
	var agentPool crawler.AgentPool
	if agents != nil {
		agentPool = agents
	}

	fetcher := crawler.New(opts, nil, robotsPolicy, agentPool, clk, logger)

	var cacheStats batch.CacheStats
	if robots != nil {
		cacheStats = robots
	}
	return batch.New(fetcher, out, uuid.New(), cacheStats, clk, cfg.HTTP.Concurrency, logger)
}

// startMetricsListener serves Prometheus metrics until the context ends.
func startMetricsListener(ctx context.Context, addr string, logger *zap.Logger) {
	metrics.Init()
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("metrics listener starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
}
