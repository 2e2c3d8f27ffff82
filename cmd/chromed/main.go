// chromed serves the dashboard's navigation search: it indexes the
// navigation graphs, aggregates remote result sources, and streams grouped
// results to the dashboard shell over HTTP and WebSocket.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/commercekit/chrome/pkg/analytics"
	"github.com/commercekit/chrome/pkg/common/config"
	"github.com/commercekit/chrome/pkg/common/logging"
	"github.com/commercekit/chrome/pkg/nav"
	"github.com/commercekit/chrome/pkg/remote/merchantdb"
	"github.com/commercekit/chrome/pkg/remote/objectapi"
	"github.com/commercekit/chrome/pkg/remote/rediscache"
	"github.com/commercekit/chrome/pkg/remote/zendesk"
	"github.com/commercekit/chrome/pkg/search"
)

var configPath = flag.String("config", "", "Path to the YAML config file (optional)")

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chromed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	store, err := analytics.Open(cfg.Analytics.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	metrics := search.NewMetrics(registry)

	aggOpts, cleanup, err := buildAggregatorOptions(cfg, store, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	engine := search.NewEngine(search.EngineConfig{
		AggregatorOptions: aggOpts,
		StoreOptions: []search.StoreOption{
			search.WithDebounce(cfg.Search.Debounce),
			search.WithRemoteTimeout(cfg.Search.RemoteTimeout),
		},
		Logger:  logger,
		Metrics: metrics,
	})
	defer engine.Close()

	loader, err := nav.NewLoader(logger)
	if err != nil {
		return err
	}
	if err := reloadGraphs(engine, loader, store, cfg, logger); err != nil {
		return err
	}

	watchPaths := []string{cfg.Graphs.UserPath}
	if cfg.Graphs.AdminPath != "" {
		watchPaths = append(watchPaths, cfg.Graphs.AdminPath)
	}
	watcher, err := nav.NewWatcher(watchPaths, func(path string) {
		logger.Info("graph file changed", zap.String("path", path))
		if err := reloadGraphs(engine, loader, store, cfg, logger); err != nil {
			logger.Error("graph reload failed", zap.Error(err))
		}
	}, logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	server := NewServer(engine, store, registry, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: server.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chromed listening", zap.String("address", cfg.Server.Address))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// buildAggregatorOptions wires the configured remote sources and policy.
// The returned cleanup closes whatever connections were opened.
func buildAggregatorOptions(cfg *config.Config, store *analytics.Store, logger *zap.Logger) ([]search.AggregatorOption, func(), error) {
	opts := []search.AggregatorOption{
		search.WithHistory(newHistoryAdapter(store, logger)),
		search.WithSession(search.Session{IsMerchant: true, Locale: "en-us"}),
		search.WithPolicy(search.Policy{
			IncludeRecentLogins:  cfg.Search.IncludeRecentLogins,
			PlusArticleAllowList: cfg.Search.PlusArticleAllowList,
		}),
		search.WithStaging(cfg.Search.Staging),
	}
	var closers []func()
	cleanup := func() {
		for _, fn := range closers {
			fn()
		}
	}

	if cfg.Remote.ObjectAPIBaseURL != "" {
		opts = append(opts, search.WithObjectSearcher(
			objectapi.New(cfg.Remote.ObjectAPIBaseURL, objectapi.WithLogger(logger))))
	}

	redisClient := redisClientIfEnabled(cfg, &closers)

	if cfg.Postgres.Enabled {
		merchants, err := merchantdb.Open(cfg.Postgres.URL, merchantdb.WithLogger(logger))
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { merchants.Close() })
		if err := merchants.Migrate(cfg.Postgres.MigrationsPath); err != nil {
			cleanup()
			return nil, nil, err
		}
		var searcher search.MerchantSearcher = merchants
		if redisClient != nil {
			searcher = rediscache.NewMerchantCache(merchants, redisClient, cfg.Redis.TTL, logger)
		}
		opts = append(opts, search.WithMerchantSearcher(searcher))
	}

	if cfg.Remote.ZendeskBaseURL != "" {
		var searcher search.HelpCenterSearcher = zendesk.New(cfg.Remote.ZendeskBaseURL, zendesk.WithLogger(logger))
		if redisClient != nil {
			searcher = rediscache.NewHelpCenterCache(searcher, redisClient, cfg.Redis.TTL, logger)
		}
		opts = append(opts, search.WithHelpCenterSearcher(searcher))
	}

	return opts, cleanup, nil
}

func redisClientIfEnabled(cfg *config.Config, closers *[]func()) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := rediscache.NewClient(rediscache.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	})
	*closers = append(*closers, func() { client.Close() })
	return client
}

// reloadGraphs loads, validates and indexes the navigation graphs, merging
// usage counters from the analytics store into the user graph.
func reloadGraphs(engine *search.Engine, loader *nav.Loader, store *analytics.Store, cfg *config.Config, logger *zap.Logger) error {
	user, err := loader.LoadFile(cfg.Graphs.UserPath)
	if err != nil {
		return fmt.Errorf("load user graph: %w", err)
	}
	stats, err := store.Stats()
	if err != nil {
		logger.Warn("usage stats unavailable", zap.Error(err))
	} else {
		nav.ApplyUsage(user, stats)
	}

	var admin *nav.NavigationNode
	if cfg.Graphs.AdminPath != "" {
		admin, err = loader.LoadFile(cfg.Graphs.AdminPath)
		if err != nil {
			return fmt.Errorf("load admin graph: %w", err)
		}
		nav.RewriteAdminURLs(admin)
	}

	return engine.SetGraphs(user, admin)
}
