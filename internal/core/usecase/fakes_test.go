package usecase

import (
	"context"
	"sync"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

type embedderFake struct {
	mu      sync.Mutex
	vector  domain.Vector
	err     error
	queries []string
	batches [][]string
	// perText returns a fixed vector per input text when set.
	perText func(string) domain.Vector
	// block makes EmbedQuery wait for its context to end.
	block bool
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([]domain.Vector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Vector, 0, len(texts))
	for _, text := range texts {
		if f.perText != nil {
			out = append(out, f.perText(text))
			continue
		}
		out = append(out, f.vector)
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(ctx context.Context, text string) (domain.Vector, error) {
	f.mu.Lock()
	f.queries = append(f.queries, text)
	block := f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type indexFake struct {
	mu         sync.Mutex
	candidates []domain.Candidate
	err        error
	block      bool
	matchCount int
	docTypes   []string
	calls      int
}

func (f *indexFake) SearchSimilar(ctx context.Context, _ domain.Vector, matchCount int, docTypes []string) ([]domain.Candidate, error) {
	f.mu.Lock()
	f.calls++
	f.matchCount = matchCount
	f.docTypes = append([]string(nil), docTypes...)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Candidate, len(f.candidates))
	copy(out, f.candidates)
	return out, nil
}

type fetcherFake struct {
	mu      sync.Mutex
	byCode  map[string][]domain.StoredChunk
	errs    map[string]error
	block   bool
	fetched []string
	limits  []int
}

func (f *fetcherFake) FetchByLawCode(ctx context.Context, lawCode string, limit int) ([]domain.StoredChunk, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, lawCode)
	f.limits = append(f.limits, limit)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.errs[lawCode]; err != nil {
		return nil, err
	}
	chunks := f.byCode[lawCode]
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, nil
}

func (f *fetcherFake) fetchedCodes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

type observerFake struct {
	mu       sync.Mutex
	degrades []string
	routed   []int
}

func (f *observerFake) ObserveDegrade(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.degrades = append(f.degrades, kind)
}

func (f *observerFake) ObserveRoutedLawCodes(count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routed = append(f.routed, count)
}

type generatorFake struct {
	req    domain.GenerationRequest
	answer string
	err    error
}

func (f *generatorFake) GenerateAnswer(_ context.Context, req domain.GenerationRequest) (string, error) {
	f.req = req
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func candidate(id, lawCode, content string, similarity float64) domain.Candidate {
	return domain.Candidate{
		ID:           id,
		Content:      content,
		Source:       lawCode + " text",
		LawCode:      lawCode,
		DocumentType: domain.DocTypeStatutory,
		Similarity:   similarity,
	}
}

func storedChunk(id, lawCode, content string, embedding domain.Vector) domain.StoredChunk {
	return domain.StoredChunk{
		Candidate: domain.Candidate{
			ID:           id,
			Content:      content,
			Source:       lawCode + " text",
			LawCode:      lawCode,
			DocumentType: domain.DocTypeStatutory,
		},
		Embedding: embedding,
	}
}
