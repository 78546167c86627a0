package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/core/ports"
)

const defaultEmbedBatchSize = 16

type ProcessOption func(*ProcessDocumentUseCase)

// WithEmbedPool embeds chunk batches concurrently on pool. Without it batches run in order.
func WithEmbedPool(pool *ants.Pool) ProcessOption {
	return func(uc *ProcessDocumentUseCase) {
		uc.pool = pool
	}
}

func WithEmbedBatchSize(size int) ProcessOption {
	return func(uc *ProcessDocumentUseCase) {
		if size > 0 {
			uc.batchSize = size
		}
	}
}

func WithProcessLogger(logger *slog.Logger) ProcessOption {
	return func(uc *ProcessDocumentUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	indexer   ports.ChunkIndexer
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	indexer ports.ChunkIndexer,
	opts ...ProcessOption,
) *ProcessDocumentUseCase {
	uc := &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		indexer:   indexer,
		batchSize: defaultEmbedBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	doc, chunkCount, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveChunkCount(ctx, doc.ID, chunkCount); err != nil {
		err = fmt.Errorf("save chunk count: %w", err)
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	uc.logger.Info("document indexed", "document_id", doc.ID, "law_code", doc.LawCode, "chunks", chunkCount)
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (*domain.LawDocument, int, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractText(ctx, doc)
	if err != nil {
		return nil, 0, err
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, 0, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return nil, 0, err
	}

	if err := uc.indexer.IndexChunks(ctx, doc, chunks, vectors); err != nil {
		return nil, 0, fmt.Errorf("index chunks: %w", err)
	}
	return doc, len(chunks), nil
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.LawDocument) (string, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

// embed splits chunks into batches and keeps the output aligned with the input order.
func (uc *ProcessDocumentUseCase) embed(ctx context.Context, chunks []domain.ChunkDraft) ([]domain.Vector, error) {
	vectors := make([]domain.Vector, len(chunks))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(chunks); start += uc.batchSize {
		end := min(start+uc.batchSize, len(chunks))
		task := func() {
			defer wg.Done()
			if ctx.Err() != nil {
				setErr(ctx.Err())
				return
			}
			texts := make([]string, 0, end-start)
			for _, chunk := range chunks[start:end] {
				texts = append(texts, chunk.Text)
			}
			batch, err := uc.embedder.Embed(ctx, texts)
			if err != nil {
				setErr(fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err))
				return
			}
			if len(batch) != len(texts) {
				setErr(domain.WrapError(
					domain.ErrInvalidInput,
					"embed chunks",
					fmt.Errorf("vectors/chunks mismatch: %d/%d", len(batch), len(texts)),
				))
				return
			}
			copy(vectors[start:end], batch)
		}

		wg.Add(1)
		if uc.pool == nil {
			task()
			continue
		}
		if err := uc.pool.Submit(task); err != nil {
			wg.Done()
			setErr(fmt.Errorf("submit embed batch: %w", err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
