package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/rulevii/compliance-rag/internal/config"
	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/core/ports"
	"github.com/rulevii/compliance-rag/internal/core/routing"
	"github.com/rulevii/compliance-rag/internal/core/usecase"
	"github.com/rulevii/compliance-rag/internal/infrastructure/chunking"
	"github.com/rulevii/compliance-rag/internal/infrastructure/embedding"
	"github.com/rulevii/compliance-rag/internal/infrastructure/extractor"
	"github.com/rulevii/compliance-rag/internal/infrastructure/llm/ollama"
	"github.com/rulevii/compliance-rag/internal/infrastructure/queue/nats"
	"github.com/rulevii/compliance-rag/internal/infrastructure/repository/postgres"
	"github.com/rulevii/compliance-rag/internal/infrastructure/resilience"
	"github.com/rulevii/compliance-rag/internal/infrastructure/storage/localfs"
	"github.com/rulevii/compliance-rag/internal/infrastructure/vector/qdrant"
)

// ChunkLister pages through indexed chunks for the corpus audit.
type ChunkLister interface {
	ListPage(ctx context.Context, afterID string, limit int) ([]domain.Candidate, error)
}

type vectorStore interface {
	ports.VectorIndex
	ports.ChunkFetcher
	ports.ChunkIndexer
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	Chunks    ChunkLister
	Router    *routing.Router
	Embedder  *embedding.Provider
	Retriever *usecase.RetrievalUseCase
	QueryUC   *usecase.QueryUseCase
	LookupUC  *usecase.LawLookupUseCase
	IngestUC  *usecase.IngestDocumentUseCase
	ProcessUC *usecase.ProcessDocumentUseCase

	closers []func()
}

type Option func(*options)

type options struct {
	logger        *slog.Logger
	observer      ports.RetrievalObserver
	stateListener resilience.StateListener
	inlineIngest  bool
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRetrievalObserver forwards engine degrade events, usually to Prometheus.
func WithRetrievalObserver(observer ports.RetrievalObserver) Option {
	return func(o *options) {
		o.observer = observer
	}
}

func WithBreakerListener(listener resilience.StateListener) Option {
	return func(o *options) {
		o.stateListener = listener
	}
}

// WithInlineIngest processes uploads in the calling goroutine instead of publishing to NATS.
func WithInlineIngest() Option {
	return func(o *options) {
		o.inlineIngest = true
	}
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &App{Config: cfg, Logger: o.logger}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.closers = append(app.closers, func() { _ = db.Close() })

	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	app.Repo = repo

	executorOpts := []resilience.Option{resilience.WithLogger(o.logger)}
	if o.stateListener != nil {
		executorOpts = append(executorOpts, resilience.WithStateListener(o.stateListener))
	}
	executor := resilience.NewExecutor(resilienceConfig(cfg), executorOpts...)

	store, lister, err := newVectorStore(ctx, cfg, db, executor)
	if err != nil {
		return nil, err
	}
	app.Chunks = lister

	router, err := NewLawRouter(cfg)
	if err != nil {
		return nil, err
	}
	app.Router = router

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.WithExecutor(executor))
	provider, closeCache, err := newEmbeddingProvider(cfg, ollamaClient, executor, o.logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeCache)
	app.Embedder = provider

	app.Retriever = usecase.NewRetrievalUseCase(provider, store, store, router, retrievalConfig(cfg),
		usecase.WithRetrievalLogger(o.logger),
		usecase.WithRetrievalObserver(o.observer),
	)
	app.QueryUC = usecase.NewQueryUseCase(app.Retriever, ollama.NewGenerator(ollamaClient))
	app.LookupUC = usecase.NewLawLookupUseCase(provider, store,
		usecase.WithLookupTimeout(time.Duration(cfg.RAGRemoteTimeoutMS)*time.Millisecond),
	)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	pool, err := ants.NewPool(max(cfg.IngestEmbedWorkers, 1))
	if err != nil {
		return nil, fmt.Errorf("init embed pool: %w", err)
	}
	app.closers = append(app.closers, pool.Release)

	app.ProcessUC = usecase.NewProcessDocumentUseCase(
		repo,
		extractor.New(storage, cfg.MaxUploadBytes),
		chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		provider,
		store,
		usecase.WithEmbedPool(pool),
		usecase.WithEmbedBatchSize(cfg.IngestEmbedBatchSize),
		usecase.WithProcessLogger(o.logger),
	)

	if o.inlineIngest {
		app.Queue = inlineQueue{processor: app.ProcessUC}
	} else {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             o.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.closers = append(app.closers, queue.Close)
		app.Queue = queue
	}
	app.IngestUC = usecase.NewIngestDocumentUseCase(repo, storage, app.Queue)

	ok = true
	return app, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newVectorStore(ctx context.Context, cfg config.Config, db *sql.DB, executor *resilience.Executor) (vectorStore, ChunkLister, error) {
	switch cfg.VectorBackend {
	case config.VectorBackendQdrant:
		return qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, qdrant.WithExecutor(executor)), nil, nil
	default:
		chunks := postgres.NewChunkRepository(db,
			postgres.WithDimension(cfg.EmbeddingDimension),
			postgres.WithExecutor(executor),
		)
		if err := chunks.EnsureSchema(ctx); err != nil {
			return nil, nil, fmt.Errorf("ensure chunk schema: %w", err)
		}
		return chunks, chunks, nil
	}
}

// NewLawRouter builds the keyword router, appending ROUTING_RULES_FILE entries when set.
func NewLawRouter(cfg config.Config) (*routing.Router, error) {
	if cfg.RoutingRulesFile == "" {
		return routing.NewDefaultRouter(), nil
	}
	extra, err := routing.LoadRulesFile(cfg.RoutingRulesFile)
	if err != nil {
		return nil, fmt.Errorf("load routing rules: %w", err)
	}
	return routing.NewRouter(routing.WithExtraRules(extra)), nil
}

func newEmbeddingProvider(cfg config.Config, ollamaClient *ollama.Client, executor *resilience.Executor, logger *slog.Logger) (*embedding.Provider, func(), error) {
	var (
		backend embedding.Backend
		model   string
	)
	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderOpenAI:
		openaiBackend, err := embedding.NewOpenAIBackend(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIEmbedModel)
		if err != nil {
			return nil, nil, fmt.Errorf("init openai embeddings: %w", err)
		}
		backend, model = openaiBackend, cfg.OpenAIEmbedModel
	case config.EmbeddingProviderHash:
		backend, model = embedding.NewHashBackend(cfg.EmbeddingDimension), fmt.Sprintf("hash-%d", cfg.EmbeddingDimension)
	default:
		backend, model = ollama.NewEmbedder(ollamaClient), cfg.OllamaEmbedModel
	}

	cache, err := embedding.OpenCache(cfg.EmbeddingCacheDir, time.Duration(cfg.EmbeddingCacheTTLHours)*time.Hour, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open embedding cache: %w", err)
	}

	provider := embedding.NewProvider(backend, model,
		embedding.WithCache(cache),
		embedding.WithDimension(cfg.EmbeddingDimension),
		embedding.WithExecutor(executor),
		embedding.WithLogger(logger),
	)
	return provider, func() { _ = cache.Close() }, nil
}

func retrievalConfig(cfg config.Config) usecase.RetrievalConfig {
	return usecase.RetrievalConfig{
		MaxRoutedLawCodes: cfg.RAGMaxRoutedLawCodes,
		DirectFetchLimit:  cfg.RAGDirectFetchLimit,
		DirectBoost:       cfg.RAGDirectBoost,
		FallbackBoost:     cfg.RAGFallbackBoost,
		RemoteTimeout:     time.Duration(cfg.RAGRemoteTimeoutMS) * time.Millisecond,
		ContentHints:      cfg.RAGContentHints,
	}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:    cfg.ResilienceRetryMaxAttempts,
		RetryInitialBackoff: time.Duration(cfg.ResilienceRetryInitialBackoffMS) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(cfg.ResilienceRetryMaxBackoffMS) * time.Millisecond,
		AttemptTimeout:      time.Duration(cfg.ResilienceAttemptTimeoutMS) * time.Millisecond,

		BreakerEnabled:      cfg.ResilienceBreakerEnabled,
		BreakerMinRequests:  uint32(max(cfg.ResilienceBreakerMinRequests, 0)),
		BreakerFailureRatio: cfg.ResilienceBreakerFailureRatio,
		BreakerOpenTimeout:  time.Duration(cfg.ResilienceBreakerOpenTimeoutMS) * time.Millisecond,
	}
}
