package server

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fleveque/bizmatch-service/internal/config"
	"github.com/fleveque/bizmatch-service/internal/directory"
	"github.com/fleveque/bizmatch-service/internal/extractor"
	"github.com/fleveque/bizmatch-service/internal/llm"
	"github.com/fleveque/bizmatch-service/internal/resolver"
	"github.com/fleveque/bizmatch-service/internal/storage"
	"github.com/fleveque/bizmatch-service/internal/website"
)

// Deps holds the wired components the routes need. Built once at process
// start and shared by every request.
type Deps struct {
	Resolver    *resolver.Resolver
	CardService *extractor.Service // nil when no vision-capable provider is configured
}

// BuildDeps wires every component from configuration. The returned cleanup
// function closes resources (currently the resolution-log database) and is
// safe to call even on partial failure.
func BuildDeps(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Deps, func(), error) {
	cleanup := func() {}

	modelClient, err := buildModelClient(ctx, cfg.LLM)
	if err != nil {
		return Deps{}, cleanup, fmt.Errorf("building model client: %w", err)
	}
	logger.Info("model client configured",
		zap.String("provider", modelClient.ProviderName()),
		zap.String("model", modelClient.ModelName()),
	)

	store, err := directory.NewObjectStore(cfg.Directory)
	if err != nil {
		return Deps{}, cleanup, fmt.Errorf("building directory store: %w", err)
	}

	fetcher := website.NewFetcher(cfg.Website.Timeout(), cfg.Website.MaxChars, logger)

	// The card service needs a vision-capable client. When the primary
	// provider can't take images, fall back to any configured one.
	var cardService *extractor.Service
	if vision := buildVisionClient(ctx, cfg.LLM, modelClient); vision != nil {
		cardService = extractor.NewService(vision, cfg.Card.Timeout(), logger)
	} else {
		logger.Warn("no vision-capable provider configured, card extraction endpoint disabled")
	}

	// The resolver's extractor: prefer the sibling service when one is
	// configured, then the local vision path.
	var cards extractor.Extractor
	switch {
	case cfg.Card.SiblingURL != "":
		cards = extractor.NewRemoteExtractor(
			cfg.Card.SiblingURL,
			extractor.StaticToken(cfg.Card.AuthToken),
			cfg.Card.Timeout(),
			logger,
		)
	case cardService != nil:
		cards = cardService
	default:
		cards = extractor.Disabled{}
	}

	var logRepo storage.ResolutionRepository
	var db *sqlx.DB
	if cfg.Storage.DatabasePath != "" {
		db, err = storage.NewDatabase(cfg.Storage.DatabasePath)
		if err != nil {
			return Deps{}, cleanup, fmt.Errorf("opening resolution log: %w", err)
		}
		cleanup = func() { _ = db.Close() }
		logRepo = storage.NewResolutionRepository(db)
	}

	res := resolver.New(
		modelClient,
		store,
		cards,
		fetcher,
		cfg.LLM.RatePerMinute,
		cfg.Resolver.EnrichWorkers,
		logRepo,
		logger,
	)

	return Deps{Resolver: res, CardService: cardService}, cleanup, nil
}

// buildModelClient walks llm.provider_order and returns the first provider
// with credentials configured.
func buildModelClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	for _, name := range cfg.ProviderOrder {
		switch name {
		case "gemini":
			if cfg.Gemini.APIKey != "" {
				return llm.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL)
			}
		case "openai":
			if cfg.OpenAI.APIKey != "" {
				return llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model), nil
			}
		case "anthropic":
			if cfg.Anthropic.APIKey != "" {
				return llm.NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model), nil
			}
		default:
			return nil, fmt.Errorf("unknown provider %q in llm.provider_order", name)
		}
	}
	return nil, fmt.Errorf("no model provider has credentials configured")
}

// buildVisionClient returns a vision-capable client, reusing the primary
// client when it already qualifies.
func buildVisionClient(ctx context.Context, cfg config.LLMConfig, primary llm.Client) llm.VisionClient {
	if vision, ok := primary.(llm.VisionClient); ok {
		return vision
	}
	if cfg.Gemini.APIKey != "" {
		if client, err := llm.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL); err == nil {
			return client
		}
	}
	if cfg.OpenAI.APIKey != "" {
		return llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}
	return nil
}
