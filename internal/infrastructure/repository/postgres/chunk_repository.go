package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/infrastructure/resilience"
)

// ChunkRepository keeps embedded regulation chunks in a pgvector table and serves similarity
// search through the search_documents_filtered function.
type ChunkRepository struct {
	db        *sql.DB
	dimension int
	executor  *resilience.Executor
}

type ChunkOption func(*ChunkRepository)

// WithDimension pins the embedding column to a fixed size, which enables the HNSW index.
func WithDimension(dim int) ChunkOption {
	return func(r *ChunkRepository) {
		if dim > 0 {
			r.dimension = dim
		}
	}
}

func WithExecutor(executor *resilience.Executor) ChunkOption {
	return func(r *ChunkRepository) {
		r.executor = executor
	}
}

func NewChunkRepository(db *sql.DB, opts ...ChunkOption) *ChunkRepository {
	r := &ChunkRepository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ChunkRepository) EnsureSchema(ctx context.Context) error {
	column := "vector"
	index := ""
	if r.dimension > 0 {
		column = fmt.Sprintf("vector(%d)", r.dimension)
		index = `CREATE INDEX IF NOT EXISTS idx_rag_documents_embedding ON rag_documents USING hnsw (embedding vector_cosine_ops);`
	}

	return execSchema(ctx, r.db, fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS rag_documents (
	id TEXT PRIMARY KEY,
	doc_id TEXT NOT NULL,
	content TEXT NOT NULL,
	source TEXT NOT NULL,
	law_code TEXT NOT NULL,
	document_type TEXT NOT NULL,
	section_ref TEXT NOT NULL DEFAULT '',
	chunk_index INTEGER NOT NULL,
	embedding %s NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rag_documents_law_code ON rag_documents(law_code);
CREATE INDEX IF NOT EXISTS idx_rag_documents_doc_id ON rag_documents(doc_id);
%s

CREATE OR REPLACE FUNCTION search_documents_filtered(
	query_embedding vector,
	match_count INTEGER,
	doc_types TEXT[] DEFAULT NULL
)
RETURNS TABLE (
	id TEXT,
	content TEXT,
	source TEXT,
	law_code TEXT,
	document_type TEXT,
	section_ref TEXT,
	chunk_index INTEGER,
	similarity DOUBLE PRECISION
)
LANGUAGE sql STABLE AS $fn$
	SELECT d.id, d.content, d.source, d.law_code, d.document_type, d.section_ref, d.chunk_index,
		1 - (d.embedding <=> query_embedding) AS similarity
	FROM rag_documents d
	WHERE doc_types IS NULL OR cardinality(doc_types) = 0 OR d.document_type = ANY(doc_types)
	ORDER BY d.embedding <=> query_embedding
	LIMIT match_count;
$fn$;
`, column, index))
}

// IndexChunks replaces every chunk of doc in one transaction.
func (r *ChunkRepository) IndexChunks(ctx context.Context, doc *domain.LawDocument, chunks []domain.ChunkDraft, vectors []domain.Vector) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rag_documents WHERE doc_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("delete previous chunks: %w", err)
	}

	for i, chunk := range chunks {
		_, err := tx.ExecContext(ctx, `
INSERT INTO rag_documents (id, doc_id, content, source, law_code, document_type, section_ref, chunk_index, embedding)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::vector)
`,
			chunkID(doc.ID, chunk.Index), doc.ID, chunk.Text, doc.Source, doc.LawCode, doc.DocumentType,
			chunk.SectionRef, chunk.Index, toPgvector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index tx: %w", err)
	}
	return nil
}

func (r *ChunkRepository) SearchSimilar(ctx context.Context, query domain.Vector, matchCount int, docTypes []string) ([]domain.Candidate, error) {
	var out []domain.Candidate
	err := r.run(ctx, "search_similar", func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, `
SELECT id, content, source, law_code, document_type, section_ref, chunk_index, similarity
FROM search_documents_filtered($1::vector, $2, $3::text[])
`, toPgvector(query), matchCount, nonEmpty(docTypes))
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var c domain.Candidate
			if err := rows.Scan(&c.ID, &c.Content, &c.Source, &c.LawCode, &c.DocumentType, &c.SectionRef, &c.ChunkIndex, &c.Similarity); err != nil {
				return fmt.Errorf("scan candidate: %w", err)
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FetchByLawCode reads up to limit chunks of one law together with their embeddings.
func (r *ChunkRepository) FetchByLawCode(ctx context.Context, lawCode string, limit int) ([]domain.StoredChunk, error) {
	var out []domain.StoredChunk
	err := r.run(ctx, "fetch_by_law_code", func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, `
SELECT id, content, source, law_code, document_type, section_ref, chunk_index, embedding
FROM rag_documents
WHERE law_code = $1
ORDER BY chunk_index
LIMIT $2
`, lawCode, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var (
				chunk domain.StoredChunk
				raw   pgvector.Vector
			)
			if err := rows.Scan(
				&chunk.ID, &chunk.Content, &chunk.Source, &chunk.LawCode, &chunk.DocumentType,
				&chunk.SectionRef, &chunk.ChunkIndex, &raw,
			); err != nil {
				return domain.WrapError(domain.ErrMalformedVector, "scan chunk", err)
			}
			vector, err := fromPgvector(raw)
			if err != nil {
				return err
			}
			chunk.Embedding = vector
			out = append(out, chunk)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListPage returns chunks ordered by id, starting after afterID. It backs the corpus audit.
func (r *ChunkRepository) ListPage(ctx context.Context, afterID string, limit int) ([]domain.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, content, source, law_code, document_type, section_ref, chunk_index
FROM rag_documents
WHERE id > $1
ORDER BY id
LIMIT $2
`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.ID, &c.Content, &c.Source, &c.LawCode, &c.DocumentType, &c.SectionRef, &c.ChunkIndex); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}

func (r *ChunkRepository) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	var err error
	if r.executor == nil {
		err = fn(ctx)
	} else {
		err = r.executor.Execute(ctx, "postgres."+operation, fn, classifyStoreError)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrMalformedVector) || errors.Is(err, context.Canceled) {
		return err
	}
	return domain.WrapError(domain.ErrRemoteUnavailable, "postgres "+operation, err)
}

func classifyStoreError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case errors.Is(err, domain.ErrMalformedVector):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	default:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
}

func chunkID(docID string, index int) string {
	return fmt.Sprintf("%s:%05d", docID, index)
}

// nonEmpty maps an empty filter to NULL so the search function skips type filtering.
func nonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}
