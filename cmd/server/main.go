package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lookboard/backend/config"
	httpDelivery "github.com/lookboard/backend/internal/delivery/http"
	"github.com/lookboard/backend/internal/domain"
	"github.com/lookboard/backend/internal/infrastructure/cache"
	"github.com/lookboard/backend/internal/infrastructure/fetcher"
	"github.com/lookboard/backend/internal/infrastructure/llm"
	"github.com/lookboard/backend/internal/logging"
	"github.com/lookboard/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Server.Environment, cfg.Log.Level)
	logger.Info().
		Str("version", httpDelivery.Version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Msg("starting Lookboard enrichment service")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	// Initialize infrastructure dependencies
	pageFetcher := fetcher.NewFetcher(fetcher.Config{
		UserAgent:    cfg.Scraper.UserAgent,
		Timeout:      cfg.Scraper.Timeout,
		MaxBodyBytes: cfg.Scraper.MaxBodyBytes,
	})

	// A nil completer means every AI call site takes its fallback path
	var ai domain.ChatCompleter
	if cfg.AIConfigured() {
		client := llm.NewClient(llm.Config{
			APIKey:            cfg.AI.APIKey,
			BaseURL:           cfg.AI.BaseURL,
			Model:             cfg.AI.Model,
			Timeout:           cfg.AI.Timeout,
			RequestsPerMinute: cfg.AI.RequestsPerMinute,
		}, logger)
		if cfg.Server.Environment == "development" {
			client.SetDebug(true)
		}
		ai = client
		logger.Info().Str("model", client.Model()).Str("base_url", cfg.AI.BaseURL).Msg("AI backend configured")
	} else {
		logger.Warn().Msg("AI backend not configured (set LOOKBOARD_AI_API_KEY); using heuristic fallbacks")
	}

	var knowledgeCache domain.CacheRepository
	if cfg.Cache.Type == "memory" {
		memoryCache := cache.NewMemoryCache(10 * time.Minute)
		defer memoryCache.Close()
		knowledgeCache = memoryCache
		logger.Info().Dur("ttl", cfg.Cache.TTL).Msg("retailer knowledge cache enabled")
	}

	// Initialize usecase layer
	extractor := usecase.NewPageExtractor(pageFetcher, ai, usecase.PageExtractorConfig{
		TextSampleChars: cfg.Scraper.TextSampleChars,
	}, logger)
	finder := usecase.NewRetailerFinder(ai, knowledgeCache, usecase.NewSimulatedMarketData(0), usecase.RetailerFinderConfig{
		MaxResults:    cfg.Retailers.MaxResults,
		DefaultRegion: cfg.Retailers.DefaultRegion,
		KnowledgeTTL:  cfg.Cache.TTL,
	}, logger)
	suggester := usecase.NewSimilarProductSuggester(ai, usecase.SimilarProductsConfig{
		DefaultLimit: cfg.Similar.DefaultLimit,
		MaxLimit:     cfg.Similar.MaxLimit,
	}, logger)
	enricher := usecase.NewEnrichmentService(extractor, finder, suggester, cfg.Retailers.EnrichMaxResults)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(httpDelivery.Services{
		Extractor:    extractor,
		Finder:       finder,
		Suggester:    suggester,
		Enricher:     enricher,
		AIConfigured: ai != nil,
	}, logger)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info().Dur("timeout", cfg.Server.ShutdownTimeout).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
