package main

import (
	"context"
	"fmt"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/docent"
	"github.com/hupe1980/docent/cache"
	"github.com/hupe1980/docent/config"
	"github.com/hupe1980/docent/indexer"
	"github.com/hupe1980/docent/logging"
	"github.com/hupe1980/docent/metrics"
	"github.com/hupe1980/docent/model"
	"github.com/hupe1980/docent/model/anthropic"
	"github.com/hupe1980/docent/model/gemini"
	"github.com/hupe1980/docent/model/openai"
)

// app bundles the configured assistant and the resources it owns.
type app struct {
	cfg    *config.Config
	logger logging.Logger
	bot    *docent.Docent
	index  *indexer.Index
}

func (a *app) Close() error {
	if a.index != nil {
		return a.index.Close()
	}
	return nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewZerologLogger(logging.ParseLogLevel(cfg.LogLevel), cfg.LogPretty)

	llm, err := buildModel(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cacheBackend, err := buildCache(cfg)
	if err != nil {
		return nil, err
	}

	index, err := indexer.Open(cfg.IndexPath, func(o *indexer.Options) {
		o.Logger = logger
	})
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	recorder := metrics.Nop()
	if cfg.MetricsEnabled {
		recorder = metrics.NewPrometheusRecorder()
	}

	llm = model.Chain(llm, model.WithLogging(logger), model.WithMetrics(recorder))

	bot := docent.New(llm, func(o *docent.Options) {
		o.Retriever = index
		o.Cache = cacheBackend
		o.Metrics = recorder
		o.Logger = logger
		o.EnableStreaming = cfg.Streaming
		o.MaxTurns = cfg.MaxTurns
		o.MaxToolCalls = cfg.MaxToolCalls
		o.ContextBudget = cfg.ContextBudget
	})

	return &app{cfg: cfg, logger: logger, bot: bot, index: index}, nil
}

func buildModel(ctx context.Context, cfg *config.Config) (model.Model, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.NewModel(ctx, func(o *gemini.Options) {
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
			o.APIKey = cfg.GeminiAPIKey
		})
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.ModelName != "" {
				o.Model = anthropicsdk.Model(cfg.ModelName)
			}
			o.APIKey = cfg.AnthropicAPIKey
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func buildCache(cfg *config.Config) (cache.Cache, error) {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second

	switch cfg.CacheBackend {
	case "redis":
		client, err := cfg.Redis.NewClient()
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return cache.NewRedis(client, ttl), nil
	default:
		return cache.NewMemory(cfg.CacheSize, ttl), nil
	}
}
