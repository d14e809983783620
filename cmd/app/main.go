package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"ai-search-stream/internal/config"
	"ai-search-stream/internal/domain/ports/adapter"
	aiAdapters "ai-search-stream/internal/infra/adapters/ai"
	"ai-search-stream/internal/infra/adapters/docfetch"
	searchAdapters "ai-search-stream/internal/infra/adapters/search"
	"ai-search-stream/internal/infra/logging"
	"ai-search-stream/internal/infra/memstore"
	"ai-search-stream/internal/infra/metrics"
	red "ai-search-stream/internal/infra/redis"
	"ai-search-stream/internal/infra/web"
	"ai-search-stream/internal/infra/worker"
	"ai-search-stream/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "", "path to YAML config file (optional, defaults apply)")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging, scripted producer pacing)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Job store + admission queue ----
	registry := memstore.NewRegistry(cfg.Queue.Retention, logger)
	queue := worker.NewQueue()

	// ---- Producer (Gemini -> OpenAI -> scripted demo) ----
	var chat adapter.ChatStreamer
	switch {
	case cfg.AI.GeminiKey != "":
		chat, err = aiAdapters.NewGeminiStreamer(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.Model, cfg.AI.MaxTokens)
		if err != nil {
			log.Fatalf("gemini: %v", err)
		}
		logger.Info().Str("provider", "gemini").Str("model", cfg.AI.Model).Msg("chat streamer ready")
	case cfg.AI.OpenAIKey != "":
		chat, err = aiAdapters.NewOpenAIStreamer(cfg.AI.OpenAIKey, cfg.AI.Model, cfg.AI.MaxTokens)
		if err != nil {
			log.Fatalf("openai: %v", err)
		}
		logger.Info().Str("provider", "openai").Str("model", cfg.AI.Model).Msg("chat streamer ready")
	}

	var producer adapter.Producer
	if chat != nil {
		var search adapter.SearchClient
		if cfg.Search.BraveKey != "" {
			search, err = searchAdapters.NewBraveClient(cfg.Search.BraveKey)
			if err != nil {
				log.Fatalf("brave: %v", err)
			}
		} else {
			logger.Warn().Msg("no search key configured, answering without web context")
		}
		provider := "openai"
		if cfg.AI.GeminiKey != "" {
			provider = "gemini"
		}
		producer = aiAdapters.NewResearchProducer(search, chat, cfg.Search.MaxResults, provider, cfg.AI.Model, logger)
	} else {
		logger.Warn().Msg("no AI provider configured, using scripted demo producer")
		delay := time.Duration(0)
		if cfg.Runtime.Dev {
			delay = 150 * time.Millisecond
		}
		producer = aiAdapters.NewScriptedProducer(delay)
	}

	// ---- Redis submit limiter (optional) ----
	var limiter web.SubmitLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
	}

	// ---- Wiring ----
	jobsUC := usecase.NewJobService(registry, queue, logger)
	pool := worker.NewPool(cfg.Queue.Workers, queue, registry, producer, logger)
	docs := docfetch.NewHTTPFetcher(cfg.Document.MaxBytes, cfg.Document.Timeout)
	srv := web.NewServer(cfg, jobsUC, docs, limiter, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		registry.Run(gctx, cfg.Queue.SweepInterval)
		return nil
	})
	g.Go(func() error {
		pool.Start(gctx)
		pool.Wait()
		return nil
	})
	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info().Int("workers", pool.Size()).Msg("pipeline started")
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("shutdown with error")
	}
	logger.Info().Msg("shutdown complete")
}
