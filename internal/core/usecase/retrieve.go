package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/core/ports"
	"github.com/rulevii/compliance-rag/internal/core/routing"
)

const queryPrefixRunes = 50

// Degrade kinds reported to the observer and in RetrievalResult.Degraded.
const (
	DegradeVectorSearch   = "vector_search_unavailable"
	DegradeDirectFetch    = "direct_fetch_unavailable"
	DegradeMalformedBatch = "malformed_vector_fallback"
)

type RetrievalConfig struct {
	MaxRoutedLawCodes int
	DirectFetchLimit  int
	DirectBoost       float64
	FallbackBoost     float64
	// VectorCandidateFactor multiplies the mode's TopK to get the vector-search match count,
	// leaving room for the floor and dedup to discard candidates.
	VectorCandidateFactor int
	RemoteTimeout         time.Duration
	ContentHints          bool
}

func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		MaxRoutedLawCodes:     4,
		DirectFetchLimit:      5,
		DirectBoost:           0.15,
		FallbackBoost:         0.10,
		VectorCandidateFactor: 2,
		RemoteTimeout:         4 * time.Second,
	}
}

func (c RetrievalConfig) normalized() RetrievalConfig {
	def := DefaultRetrievalConfig()
	if c.MaxRoutedLawCodes <= 0 {
		c.MaxRoutedLawCodes = def.MaxRoutedLawCodes
	}
	if c.DirectFetchLimit <= 0 {
		c.DirectFetchLimit = def.DirectFetchLimit
	}
	if c.DirectBoost < 0 {
		c.DirectBoost = def.DirectBoost
	}
	if c.FallbackBoost < 0 {
		c.FallbackBoost = def.FallbackBoost
	}
	if c.VectorCandidateFactor <= 0 {
		c.VectorCandidateFactor = def.VectorCandidateFactor
	}
	if c.RemoteTimeout <= 0 {
		c.RemoteTimeout = def.RemoteTimeout
	}
	return c
}

type RetrievalOption func(*RetrievalUseCase)

func WithRetrievalLogger(logger *slog.Logger) RetrievalOption {
	return func(uc *RetrievalUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

func WithRetrievalObserver(observer ports.RetrievalObserver) RetrievalOption {
	return func(uc *RetrievalUseCase) {
		if observer != nil {
			uc.observer = observer
		}
	}
}

// RetrievalUseCase turns a question into ranked citations and a prompt context by combining
// vector search with direct fetches of the law codes the router picks for the question.
type RetrievalUseCase struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	fetcher  ports.ChunkFetcher
	router   *routing.Router
	cfg      RetrievalConfig
	logger   *slog.Logger
	observer ports.RetrievalObserver
}

func NewRetrievalUseCase(
	embedder ports.Embedder,
	index ports.VectorIndex,
	fetcher ports.ChunkFetcher,
	router *routing.Router,
	cfg RetrievalConfig,
	opts ...RetrievalOption,
) *RetrievalUseCase {
	if router == nil {
		router = routing.NewDefaultRouter()
	}
	uc := &RetrievalUseCase{
		embedder: embedder,
		index:    index,
		fetcher:  fetcher,
		router:   router,
		cfg:      cfg.normalized(),
		logger:   slog.Default(),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type directBatch struct {
	lawCode string
	chunks  []domain.StoredChunk
	err     error
}

// Retrieve runs the full pipeline for one query. Only an embedding failure or cancellation of
// ctx is returned as an error; every other remote failure degrades the result instead.
func (uc *RetrievalUseCase) Retrieve(ctx context.Context, query domain.Query) (*domain.RetrievalResult, error) {
	profile := domain.ResolveMode(query.Mode).WithSourceTypes(query.SourceTypes)
	result := &domain.RetrievalResult{
		Citations: []domain.Citation{},
		Mode:      profile,
		LawCodes:  []string{},
	}
	if strings.TrimSpace(query.Text) == "" {
		return result, nil
	}

	prefix := queryPrefix(query.Text)
	uc.logger.Debug("retrieval started", "query", query.Text, "mode", profile.Name)

	queryVector, err := uc.embedQuery(ctx, query.Text)
	if err != nil {
		return nil, err
	}

	lawCodes := uc.router.Prioritized(query.Text, uc.cfg.MaxRoutedLawCodes)
	result.LawCodes = append(result.LawCodes, lawCodes...)
	uc.observer.ObserveRoutedLawCodes(len(lawCodes))

	var (
		vectorCandidates []domain.Candidate
		vectorFailed     bool
		batches          []directBatch
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		vectorCandidates, vectorFailed = uc.searchVector(groupCtx, queryVector, profile, prefix)
		return groupCtx.Err()
	})
	group.Go(func() error {
		batches = uc.fetchDirect(groupCtx, lawCodes)
		return groupCtx.Err()
	})
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	if vectorFailed {
		result.Degraded = append(result.Degraded, DegradeVectorSearch)
		uc.observer.ObserveDegrade(DegradeVectorSearch)
	}

	seen := make(map[string]struct{}, len(vectorCandidates))
	for _, candidate := range vectorCandidates {
		seen[candidate.ID] = struct{}{}
	}

	direct := make([]domain.Candidate, 0, len(batches)*uc.cfg.DirectFetchLimit)
	fallbackCodes := make(map[string]struct{})
	for _, batch := range batches {
		scored, kind := uc.scoreBatch(batch, queryVector, seen, prefix)
		if kind != "" {
			result.Degraded = append(result.Degraded, kind+":"+batch.lawCode)
			uc.observer.ObserveDegrade(kind)
		}
		if kind == DegradeMalformedBatch {
			fallbackCodes[batch.lawCode] = struct{}{}
			continue
		}
		for _, candidate := range scored {
			seen[candidate.ID] = struct{}{}
		}
		direct = append(direct, scored...)
	}

	vectorCandidates = applyFallbackBoost(vectorCandidates, fallbackCodes, uc.cfg.FallbackBoost)
	merged := MergeCandidates(vectorCandidates, direct)
	if uc.cfg.ContentHints {
		merged = applyContentHints(query.Text, merged, contentHintBoost)
	}

	ranked := RankCandidates(merged, profile)
	result.Citations, result.ContextText = AssembleContext(ranked)

	uc.logger.Info(
		"retrieval completed",
		"query_prefix", prefix,
		"mode", profile.Name,
		"law_codes", lawCodes,
		"vector_candidates", len(vectorCandidates),
		"direct_candidates", len(direct),
		"citations", len(result.Citations),
	)
	return result, nil
}

func (uc *RetrievalUseCase) embedQuery(ctx context.Context, text string) (domain.Vector, error) {
	return embedQueryWithin(ctx, uc.embedder, text, uc.cfg.RemoteTimeout, "embed query")
}

func (uc *RetrievalUseCase) searchVector(ctx context.Context, vector domain.Vector, profile domain.ModeProfile, prefix string) ([]domain.Candidate, bool) {
	if uc.index == nil {
		return nil, false
	}
	callCtx, cancel := context.WithTimeout(ctx, uc.cfg.RemoteTimeout)
	defer cancel()

	matchCount := profile.TopK * uc.cfg.VectorCandidateFactor
	candidates, err := uc.index.SearchSimilar(callCtx, vector, matchCount, profile.SourceTypes)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false
		}
		uc.logger.Warn("vector search degraded", "query_prefix", prefix, "mode", profile.Name, "error", err)
		return nil, true
	}

	out := make([]domain.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Similarity >= profile.SimilarityFloor {
			out = append(out, candidate)
		}
	}
	return out, false
}

func (uc *RetrievalUseCase) fetchDirect(ctx context.Context, lawCodes []string) []directBatch {
	if uc.fetcher == nil || len(lawCodes) == 0 {
		return nil
	}
	batches := make([]directBatch, len(lawCodes))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(uc.cfg.MaxRoutedLawCodes)
	for i, lawCode := range lawCodes {
		group.Go(func() error {
			callCtx, cancel := context.WithTimeout(groupCtx, uc.cfg.RemoteTimeout)
			defer cancel()
			chunks, err := uc.fetcher.FetchByLawCode(callCtx, lawCode, uc.cfg.DirectFetchLimit)
			batches[i] = directBatch{lawCode: lawCode, chunks: chunks, err: err}
			return nil
		})
	}
	_ = group.Wait()
	return batches
}

// scoreBatch returns the scored candidates of one law code, or the degrade kind that applied.
func (uc *RetrievalUseCase) scoreBatch(batch directBatch, queryVector domain.Vector, seen map[string]struct{}, prefix string) ([]domain.Candidate, string) {
	if batch.err != nil {
		if domain.IsKind(batch.err, domain.ErrMalformedVector) {
			uc.logger.Warn("direct fetch returned malformed vectors", "query_prefix", prefix, "law_code", batch.lawCode, "error", batch.err)
			return nil, DegradeMalformedBatch
		}
		uc.logger.Warn("direct fetch degraded", "query_prefix", prefix, "law_code", batch.lawCode, "error", batch.err)
		return nil, DegradeDirectFetch
	}

	scored, err := scoreDirectChunks(queryVector, batch.chunks, seen, uc.cfg.DirectBoost)
	if err != nil {
		uc.logger.Warn("direct chunk scoring failed", "query_prefix", prefix, "law_code", batch.lawCode, "error", err)
		return nil, DegradeMalformedBatch
	}
	return scored, ""
}

func queryPrefix(text string) string {
	return runePrefix(strings.TrimSpace(text), queryPrefixRunes)
}

type noopObserver struct{}

func (noopObserver) ObserveDegrade(string)      {}
func (noopObserver) ObserveRoutedLawCodes(int) {}
