package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
	"github.com/nexushealth/clinical-assistant/internal/core/ports"
)

type RetrievalConfig struct {
	TopK          int
	MinScore      float64
	Overfetch     int
	MaxConcurrent int
}

func (c RetrievalConfig) normalize() RetrievalConfig {
	out := c
	if out.TopK <= 0 {
		out.TopK = 5
	}
	if out.MinScore <= 0 {
		out.MinScore = 0.60
	}
	if out.Overfetch <= 0 {
		out.Overfetch = 2
	}
	if out.MaxConcurrent <= 0 {
		out.MaxConcurrent = 5
	}
	return out
}

// RetrievalPipeline composes expansion, per-variant vector search,
// deduplication, cross-scoring, and threshold filtering.
type RetrievalPipeline struct {
	expander *QueryExpander
	embedder ports.Embedder
	store    ports.DocumentStore
	scorer   ports.RelevanceScorer
	cfg      RetrievalConfig
	logger   *slog.Logger
}

func NewRetrievalPipeline(
	expander *QueryExpander,
	embedder ports.Embedder,
	store ports.DocumentStore,
	scorer ports.RelevanceScorer,
	cfg RetrievalConfig,
	logger *slog.Logger,
) *RetrievalPipeline {
	return &RetrievalPipeline{
		expander: expander,
		embedder: embedder,
		store:    store,
		scorer:   scorer,
		cfg:      cfg.normalize(),
		logger:   logger,
	}
}

// Retrieve returns at most k documents relevant to the query, sorted by
// descending relevance score. An empty result is a normal outcome.
func (p *RetrievalPipeline) Retrieve(ctx context.Context, query string, k int, contextSummary string) ([]domain.Candidate, error) {
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", fmt.Errorf("query is required"))
	}
	if k <= 0 {
		k = p.cfg.TopK
	}

	variants := p.expander.Expand(ctx, query, contextSummary)

	// Per-variant embed+search are independent; fan out with a bounded
	// group and keep results indexed by variant so dedup priority follows
	// variant order, not completion order.
	perVariant := make([][]domain.Document, len(variants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrent)
	for i, variant := range variants {
		i, variant := i, variant
		g.Go(func() error {
			vector, err := p.embedder.EmbedQuery(gctx, variant)
			if err != nil {
				return fmt.Errorf("embed variant %q: %w", variant, err)
			}
			docs, err := p.store.NearestNeighbors(gctx, vector, p.cfg.Overfetch*k)
			if err != nil {
				return fmt.Errorf("nearest neighbors for %q: %w", variant, err)
			}
			perVariant[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalFailed, "retrieve", err)
	}

	merged := mergeCandidates(perVariant)
	if len(merged) == 0 {
		p.logger.Info("retrieval_empty", "query", query, "variants", len(variants))
		return []domain.Candidate{}, nil
	}

	scoreQuery := query
	if contextSummary != "" {
		scoreQuery = query + "\n" + contextSummary
	}
	results, err := p.scorer.Score(ctx, scoreQuery, toScoreCandidates(merged))
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalFailed, "rerank", err)
	}

	scored := applyScores(merged, results)
	sortByScore(scored)
	final := filterByThreshold(scored, p.cfg.MinScore, k)

	p.logger.Info("retrieval_completed",
		"query", query,
		"variants", len(variants),
		"candidates", len(merged),
		"returned", len(final),
	)
	return final, nil
}

func toScoreCandidates(candidates []domain.Candidate) []domain.ScoreCandidate {
	out := make([]domain.ScoreCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, domain.ScoreCandidate{
			ID:    c.Document.ID,
			Title: c.Document.Title,
			Text:  c.Document.Content,
		})
	}
	return out
}
