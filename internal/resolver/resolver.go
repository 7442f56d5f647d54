// Package resolver contains the query-resolution pipeline. One resolution
// is a linear sequence — prepare, initial match, per-candidate enrichment,
// refinement, assembly — with multiple blocking model and network calls.
// Only the initial match call is fatal to a request; everything downstream
// degrades to whatever the initial call already provided.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fleveque/bizmatch-service/internal/directory"
	"github.com/fleveque/bizmatch-service/internal/extractor"
	"github.com/fleveque/bizmatch-service/internal/llm"
	"github.com/fleveque/bizmatch-service/internal/model"
	"github.com/fleveque/bizmatch-service/internal/storage"
	"github.com/fleveque/bizmatch-service/internal/website"
)

// Resolver orchestrates the pipeline. Requests share no mutable state, so
// a single Resolver serves all of them concurrently.
type Resolver struct {
	model    llm.Client
	store    directory.Store
	cards    extractor.Extractor
	websites *website.Fetcher
	limiter  *rate.Limiter
	logRepo  storage.ResolutionRepository // nil when the resolution log is disabled
	logger   *zap.Logger
	workers  int
}

// New creates a Resolver. ratePerMinute bounds model calls across all
// requests; workers bounds the per-candidate enrichment fan-out.
// logRepo can be nil — the resolver gracefully skips logging.
func New(
	modelClient llm.Client,
	store directory.Store,
	cards extractor.Extractor,
	websites *website.Fetcher,
	ratePerMinute int,
	workers int,
	logRepo storage.ResolutionRepository,
	logger *zap.Logger,
) *Resolver {
	if workers < 1 {
		workers = 1
	}
	// Zero or negative disables model-call throttling.
	rps := rate.Inf
	if ratePerMinute > 0 {
		rps = rate.Every(time.Minute / time.Duration(ratePerMinute))
	}

	return &Resolver{
		model:    modelClient,
		store:    store,
		cards:    cards,
		websites: websites,
		// burst of 2: one resolution makes up to two model calls
		limiter: rate.NewLimiter(rps, 2),
		logRepo: logRepo,
		logger:  logger,
		workers: workers,
	}
}

// matchResponse is the JSON shape requested from the initial match call.
type matchResponse struct {
	MatchedBusinesses []model.MatchCandidate `json:"matched_businesses"`
	BestMatch         *model.BestMatch       `json:"best_match"`
}

// Resolve runs the full pipeline for one user query.
// Error taxonomy for callers: llm.ErrQuotaExceeded (retryable, surface as
// throttling), *llm.MalformedOutputError (initial response unparsable),
// anything else is an upstream transport fault.
func (r *Resolver) Resolve(ctx context.Context, query string) (*model.ResultEnvelope, error) {
	start := time.Now()
	env, err := r.resolve(ctx, query)
	r.record(ctx, query, env, err, time.Since(start).Milliseconds())
	return env, err
}

func (r *Resolver) resolve(ctx context.Context, query string) (*model.ResultEnvelope, error) {
	// Prepare: fetch the prompt documents, falling back per documented
	// policy — the pipeline always proceeds with some string.
	systemPrompt, err := r.store.FetchSystemPrompt(ctx)
	if err != nil {
		r.logger.Warn("system prompt fetch failed, using offline fallback", zap.Error(err))
		systemPrompt = offlineSystemPrompt
	}
	snapshot, err := r.store.FetchDirectory(ctx)
	if err != nil {
		r.logger.Warn("directory fetch failed, using empty directory", zap.Error(err))
		snapshot = ""
	}

	// InitialMatch: the only fatal model call. Quota and transport
	// failures propagate unchanged; unparsable output is its own error.
	text, err := r.generate(ctx, buildMatchPrompt(systemPrompt, snapshot, query))
	if err != nil {
		return nil, err
	}

	var matched matchResponse
	if err := json.Unmarshal([]byte(llm.CleanJSON(text)), &matched); err != nil {
		return nil, &llm.MalformedOutputError{RawText: text, Err: err}
	}

	candidates := matched.MatchedBusinesses
	r.enrich(ctx, candidates)

	best := r.refine(ctx, query, candidates, matched.BestMatch)

	// Assemble. Every initial candidate stays in the list — enrichment
	// fields are simply null when there was nothing to enrich — so
	// match_count always equals len(matched_businesses).
	if candidates == nil {
		candidates = []model.MatchCandidate{}
	}
	return &model.ResultEnvelope{
		MatchedBusinesses: candidates,
		MatchCount:        len(candidates),
		BestMatch:         best,
	}, nil
}

// generate waits for a rate-limit token and performs one model call.
func (r *Resolver) generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", &llm.TransportError{Provider: r.model.ProviderName(), Err: err}
	}
	return r.model.Generate(ctx, prompt, llm.StructuredOptions())
}

// enrich fans per-candidate work across a bounded worker pool. Each
// worker writes only to its own candidate, so output order always matches
// the model's original ordering. Enrichment is fail-soft per candidate:
// the extractor and fetcher never return errors.
func (r *Resolver) enrich(ctx context.Context, candidates []model.MatchCandidate) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)

	for i := range candidates {
		c := &candidates[i]
		if !c.HasCardLink() && !c.HasBusinessLink() {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if c.HasCardLink() {
				card := r.cards.Extract(ctx, *c.CardLink)
				c.CardInfo = &card
			}
			if c.HasBusinessLink() {
				c.WebsiteText = r.websites.Fetch(ctx, *c.BusinessLink)
			}
		}()
	}

	wg.Wait()
}

// refine runs the second model call that selects the single best match.
// Branching on enrichment yield: website text is higher-fidelity than card
// text, so it is preferred whenever at least one fetch succeeded. Any
// refinement failure is non-fatal — the initial best match stands.
func (r *Resolver) refine(ctx context.Context, query string, candidates []model.MatchCandidate, initial *model.BestMatch) *model.BestMatch {
	sites := make([]siteText, 0, len(candidates))
	cards := make([]cardEntry, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.WebsiteText != "" && c.HasBusinessLink() {
			sites = append(sites, siteText{Link: *c.BusinessLink, Text: c.WebsiteText})
		}
		if c.CardInfo != nil && !c.CardInfo.IsEmpty() && c.HasCardLink() {
			cards = append(cards, cardEntry{CardLink: *c.CardLink, Card: *c.CardInfo})
		}
	}

	var (
		refined *model.BestMatch
		err     error
	)
	switch {
	case len(sites) > 0:
		refined, err = r.refineByWebsite(ctx, query, sites, candidates)
	case len(cards) > 0:
		refined, err = r.refineByCard(ctx, query, cards, candidates)
	default:
		return initial
	}
	if err != nil {
		r.logger.Warn("refinement failed, keeping initial best match", zap.Error(err))
		return initial
	}
	if refinedIsEmpty(refined) {
		r.logger.Warn("refinement selected nothing, keeping initial best match")
		return initial
	}
	return refined
}

// refinedIsEmpty reports whether a parsed refinement choice carries no
// selection at all, e.g. the model replied with a bare {}.
func refinedIsEmpty(b *model.BestMatch) bool {
	return b == nil ||
		(b.BusinessLink == nil && b.CardLink == nil && b.BusinessName == nil && b.Reason == nil)
}

type websiteChoice struct {
	BusinessLink *string `json:"business_link"`
	BusinessName *string `json:"business_name"`
	Reason       *string `json:"reason"`
}

func (r *Resolver) refineByWebsite(ctx context.Context, query string, sites []siteText, candidates []model.MatchCandidate) (*model.BestMatch, error) {
	text, err := r.generate(ctx, buildWebsiteRefinePrompt(query, sites))
	if err != nil {
		return nil, err
	}

	var choice websiteChoice
	if err := json.Unmarshal([]byte(llm.CleanJSON(text)), &choice); err != nil {
		return nil, &llm.MalformedOutputError{RawText: text, Err: err}
	}

	best := &model.BestMatch{
		BusinessLink: choice.BusinessLink,
		BusinessName: choice.BusinessName,
		Reason:       choice.Reason,
	}
	// Backfill the card link from the chosen candidate.
	if choice.BusinessLink != nil {
		for i := range candidates {
			c := &candidates[i]
			if c.HasBusinessLink() && *c.BusinessLink == *choice.BusinessLink {
				best.CardLink = c.CardLink
				break
			}
		}
	}
	return best, nil
}

type cardChoice struct {
	CardLink     *string `json:"card_link"`
	BusinessName *string `json:"business_name"`
	Reason       *string `json:"reason"`
}

func (r *Resolver) refineByCard(ctx context.Context, query string, cards []cardEntry, candidates []model.MatchCandidate) (*model.BestMatch, error) {
	text, err := r.generate(ctx, buildCardRefinePrompt(query, cards))
	if err != nil {
		return nil, err
	}

	var choice cardChoice
	if err := json.Unmarshal([]byte(llm.CleanJSON(text)), &choice); err != nil {
		return nil, &llm.MalformedOutputError{RawText: text, Err: err}
	}

	best := &model.BestMatch{
		CardLink:     choice.CardLink,
		BusinessName: choice.BusinessName,
		Reason:       choice.Reason,
	}
	if choice.CardLink != nil {
		for i := range candidates {
			c := &candidates[i]
			if c.HasCardLink() && *c.CardLink == *choice.CardLink {
				best.BusinessLink = c.BusinessLink
				break
			}
		}
	}
	return best, nil
}

// record writes one resolution-log row. Logging failures are reported but
// never affect the response.
func (r *Resolver) record(ctx context.Context, query string, env *model.ResultEnvelope, resolveErr error, durationMs int64) {
	if r.logRepo == nil {
		return
	}

	res := &storage.Resolution{
		Query:    query,
		Provider: r.model.ProviderName(),
		Model:    r.model.ModelName(),
		Success:  resolveErr == nil,
	}
	res.DurationMs = &durationMs
	if env != nil {
		res.MatchCount = env.MatchCount
	}
	if resolveErr != nil {
		kind := errorKind(resolveErr)
		res.ErrorKind = &kind
	}

	if err := r.logRepo.Create(ctx, res); err != nil {
		r.logger.Error("recording resolution", zap.Error(err))
	}
}

func errorKind(err error) string {
	var malformed *llm.MalformedOutputError
	switch {
	case errors.Is(err, llm.ErrQuotaExceeded):
		return "quota"
	case errors.As(err, &malformed):
		return "malformed_output"
	default:
		return "transport"
	}
}
