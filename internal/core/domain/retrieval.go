package domain

// Vector is a fixed-length embedding. Store adapters always hand the core a decoded Vector.
type Vector []float32

// Query is one retrieval request.
type Query struct {
	Text        string
	Mode        string
	SourceTypes []string
}

// Candidate is a retrieved chunk before ranking. It never carries an embedding.
type Candidate struct {
	ID           string  `json:"id"`
	Content      string  `json:"content"`
	Source       string  `json:"source"`
	LawCode      string  `json:"law_code"`
	DocumentType string  `json:"document_type"`
	SectionRef   string  `json:"section_ref"`
	ChunkIndex   int     `json:"chunk_index"`
	Similarity   float64 `json:"similarity"`
}

// StoredChunk is a document store row fetched directly by law code, including its embedding.
type StoredChunk struct {
	Candidate
	Embedding Vector
}

// Citation is what the API returns for every ranked chunk.
type Citation struct {
	Document   string  `json:"document"`
	Page       int     `json:"page"`
	Section    string  `json:"section"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
	LawCode    string  `json:"law_code"`
}

// RetrievalResult is the engine output: citations for the client and a context block for the
// generator.
type RetrievalResult struct {
	Citations   []Citation  `json:"citations"`
	ContextText string      `json:"context"`
	Mode        ModeProfile `json:"mode"`
	LawCodes    []string    `json:"law_codes"`
	Degraded    []string    `json:"degraded,omitempty"`
}

// LawReference is the single best match returned by a direct law lookup.
type LawReference struct {
	Content   string  `json:"content"`
	Source    string  `json:"source"`
	Relevance float64 `json:"relevance"`
}

type Answer struct {
	Text      string      `json:"answer"`
	Citations []Citation  `json:"citations"`
	Mode      ModeProfile `json:"mode"`
}

// GenerationRequest is everything the downstream generator needs.
type GenerationRequest struct {
	Question    string
	ContextText string
	Temperature float64
	Mode        string
}
