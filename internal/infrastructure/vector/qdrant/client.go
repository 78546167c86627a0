package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/infrastructure/resilience"
)

// pointNamespace derives stable point IDs from document ID and chunk index, so re-indexing a
// document overwrites its previous points.
var pointNamespace = uuid.MustParse("6f1c2a8e-3d4b-5c6d-8e9f-0a1b2c3d4e5f")

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

type Option func(*Client)

func WithExecutor(executor *resilience.Executor) Option {
	return func(c *Client) {
		c.executor = executor
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func New(baseURL, collection string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type point struct {
	ID      string         `json:"id"`
	Vector  domain.Vector  `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type scoredPoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
	Vector  json.RawMessage `json:"vector"`
}

func (c *Client) IndexChunks(ctx context.Context, doc *domain.LawDocument, chunks []domain.ChunkDraft, vectors []domain.Vector) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, point{
			ID:     uuid.NewSHA1(pointNamespace, []byte(doc.ID+":"+strconv.Itoa(chunk.Index))).String(),
			Vector: vectors[i],
			Payload: map[string]any{
				"doc_id":        doc.ID,
				"source":        doc.Source,
				"law_code":      doc.LawCode,
				"document_type": doc.DocumentType,
				"section_ref":   chunk.SectionRef,
				"chunk_index":   chunk.Index,
				"content":       chunk.Text,
			},
		})
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", c.collection)
	return c.call(ctx, "upsert", http.MethodPut, path, map[string]any{"points": points}, nil)
}

// SearchSimilar runs a cosine search, restricted to docTypes when given.
func (c *Client) SearchSimilar(ctx context.Context, query domain.Vector, matchCount int, docTypes []string) ([]domain.Candidate, error) {
	reqBody := map[string]any{
		"vector":       query,
		"limit":        matchCount,
		"with_payload": true,
	}
	if len(docTypes) > 0 {
		reqBody["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": "document_type", "match": map[string]any{"any": docTypes}},
			},
		}
	}

	var resp struct {
		Result []scoredPoint `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", c.collection)
	if err := c.call(ctx, "search", http.MethodPost, path, reqBody, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Candidate, 0, len(resp.Result))
	for _, r := range resp.Result {
		out = append(out, candidateFromPoint(r))
	}
	return out, nil
}

// FetchByLawCode scrolls up to limit points tagged with lawCode, vectors included.
func (c *Client) FetchByLawCode(ctx context.Context, lawCode string, limit int) ([]domain.StoredChunk, error) {
	reqBody := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  true,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "law_code", "match": map[string]any{"value": lawCode}},
			},
		},
	}

	var resp struct {
		Result struct {
			Points []scoredPoint `json:"points"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/scroll", c.collection)
	if err := c.call(ctx, "scroll", http.MethodPost, path, reqBody, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.StoredChunk, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		vector, err := decodePointVector(p.Vector)
		if err != nil {
			return nil, domain.WrapError(domain.ErrMalformedVector, "qdrant scroll "+lawCode, err)
		}
		out = append(out, domain.StoredChunk{Candidate: candidateFromPoint(p), Embedding: vector})
	}
	return out, nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	err := c.call(ctx, "ensure collection", http.MethodPut, "/collections/"+c.collection, reqBody, nil)
	var statusErr *HTTPStatusError
	// 409 means the collection already exists.
	if err != nil && !(errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict) {
		return err
	}

	c.ensureMu.Lock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
	c.ensureMu.Unlock()
	return nil
}

func candidateFromPoint(p scoredPoint) domain.Candidate {
	return domain.Candidate{
		ID:           pointID(p.ID),
		Content:      getStringPayload(p.Payload, "content"),
		Source:       getStringPayload(p.Payload, "source"),
		LawCode:      getStringPayload(p.Payload, "law_code"),
		DocumentType: getStringPayload(p.Payload, "document_type"),
		SectionRef:   getStringPayload(p.Payload, "section_ref"),
		ChunkIndex:   getIntPayload(p.Payload, "chunk_index"),
		Similarity:   p.Score,
	}
}

func decodePointVector(raw json.RawMessage) (domain.Vector, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New("point has no vector")
	}
	var vector domain.Vector
	if err := json.Unmarshal(raw, &vector); err != nil {
		return nil, fmt.Errorf("decode point vector: %w", err)
	}
	if len(vector) == 0 {
		return nil, errors.New("point vector is empty")
	}
	return vector, nil
}

func pointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}
