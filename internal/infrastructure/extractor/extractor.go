package extractor

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/core/ports"
)

const defaultMaxBytes = 64 << 20

type format int

const (
	formatUnknown format = iota
	formatText
	formatPDF
	formatXLSX
)

// Extractor turns a stored corpus file into plain text. Plain text, PDF and XLSX are supported.
type Extractor struct {
	storage  ports.ObjectStorage
	maxBytes int64
}

func New(storage ports.ObjectStorage, maxBytes int64) *Extractor {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Extractor{storage: storage, maxBytes: maxBytes}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.LawDocument) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, e.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}
	if int64(len(raw)) > e.maxBytes {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract "+doc.Filename, fmt.Errorf("file exceeds %d bytes", e.maxBytes))
	}

	var text string
	switch detectFormat(doc.MimeType, doc.Filename, raw) {
	case formatPDF:
		text, err = extractPDF(raw)
	case formatXLSX:
		text, err = extractXLSX(raw)
	case formatText:
		text = string(raw)
	default:
		err = domain.WrapError(domain.ErrInvalidInput, "extract "+doc.Filename, fmt.Errorf("unsupported format %q", doc.MimeType))
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func detectFormat(mimeType, filename string, raw []byte) format {
	media, _, _ := mime.ParseMediaType(mimeType)
	switch media {
	case "application/pdf":
		return formatPDF
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return formatXLSX
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return formatPDF
	case ".xlsx":
		return formatXLSX
	}

	if strings.HasPrefix(string(raw), "%PDF-") {
		return formatPDF
	}
	if strings.HasPrefix(media, "text/") || utf8.Valid(raw) {
		return formatText
	}
	return formatUnknown
}
