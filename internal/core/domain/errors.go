package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")

	// ErrRemoteUnavailable marks a vector index or document store that could not be reached
	// or answered with an error. The retrieval engine recovers it locally.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrEmbeddingFailure is fatal to a single query: nothing can be searched without a vector.
	ErrEmbeddingFailure = errors.New("embedding failure")
	// ErrMalformedVector is returned by store adapters when a stored embedding cannot be decoded.
	ErrMalformedVector = errors.New("malformed stored vector")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
