package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document types accepted in the regulation corpus.
const (
	DocTypeStatutory           = "statutory"
	DocTypeProcedural          = "procedural"
	DocTypeHeuristics          = "heuristics"
	DocTypeSpecializedPlanning = "specialized_planning"
)

var validDocumentTypes = map[string]struct{}{
	DocTypeStatutory:           {},
	DocTypeProcedural:          {},
	DocTypeHeuristics:          {},
	DocTypeSpecializedPlanning: {},
}

func IsValidDocumentType(docType string) bool {
	_, ok := validDocumentTypes[docType]
	return ok
}

// LawDocument is a corpus source file (a statute, its IRR, a planning guide) queued for chunking.
type LawDocument struct {
	ID           string         `json:"id"`
	Filename     string         `json:"filename"`
	MimeType     string         `json:"mime_type"`
	StoragePath  string         `json:"storage_path"`
	Source       string         `json:"source"`
	LawCode      string         `json:"law_code"`
	DocumentType string         `json:"document_type"`
	ChunkCount   int            `json:"chunk_count"`
	Status       DocumentStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// DocumentMetadata is supplied by the operator when a corpus file is uploaded.
type DocumentMetadata struct {
	Source       string
	LawCode      string
	DocumentType string
}

// ChunkDraft is a piece of extracted text ready to be embedded and indexed.
type ChunkDraft struct {
	Index      int
	Text       string
	SectionRef string
}
