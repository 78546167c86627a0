package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

func TestLookupReturnsBestMatch(t *testing.T) {
	index := &indexFake{candidates: []domain.Candidate{
		candidate("best", "RA 9514", "Section 10.2.5 exits", 0.91),
	}}
	uc := NewLawLookupUseCase(&embedderFake{vector: domain.Vector{1}}, index)

	ref, err := uc.Lookup(context.Background(), "RA 9514 Section 10.2.5")
	require.NoError(t, err)

	assert.Equal(t, &domain.LawReference{Content: "Section 10.2.5 exits", Source: "RA 9514 text", Relevance: 0.91}, ref)
	assert.Equal(t, 1, index.matchCount)
	assert.Empty(t, index.docTypes)
}

func TestLookupNotFound(t *testing.T) {
	uc := NewLawLookupUseCase(&embedderFake{vector: domain.Vector{1}}, &indexFake{})

	ref, err := uc.Lookup(context.Background(), "PD 9999")
	require.NoError(t, err)

	assert.Equal(t, "Reference not found in the database.", ref.Content)
	assert.Equal(t, "System", ref.Source)
	assert.Zero(t, ref.Relevance)
}

func TestLookupErrors(t *testing.T) {
	_, err := NewLawLookupUseCase(&embedderFake{}, &indexFake{}).Lookup(context.Background(), " ")
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))

	_, err = NewLawLookupUseCase(&embedderFake{err: errors.New("down")}, &indexFake{}).Lookup(context.Background(), "RA 9514")
	assert.True(t, domain.IsKind(err, domain.ErrEmbeddingFailure))

	_, err = NewLawLookupUseCase(&embedderFake{vector: domain.Vector{1}}, &indexFake{err: errors.New("refused")}).Lookup(context.Background(), "RA 9514")
	assert.True(t, domain.IsKind(err, domain.ErrRemoteUnavailable))
}

func TestLookupBelowFloorIsNotFound(t *testing.T) {
	index := &indexFake{candidates: []domain.Candidate{
		candidate("weak", "PD 957", "Subdivision road widths", 0.02),
	}}
	uc := NewLawLookupUseCase(&embedderFake{vector: domain.Vector{1}}, index)

	ref, err := uc.Lookup(context.Background(), "RA 9514 sprinkler spacing")
	require.NoError(t, err)

	assert.Equal(t, &domain.LawReference{Content: "Reference not found in the database.", Source: "System", Relevance: 0}, ref)
}

func TestLookupFloorIsConfigurable(t *testing.T) {
	index := &indexFake{candidates: []domain.Candidate{
		candidate("weak", "PD 957", "Subdivision road widths", 0.2),
	}}
	uc := NewLawLookupUseCase(&embedderFake{vector: domain.Vector{1}}, index, WithLookupFloor(0.1))

	ref, err := uc.Lookup(context.Background(), "road widths")
	require.NoError(t, err)
	assert.Equal(t, "Subdivision road widths", ref.Content)
}

func TestLookupEmbeddingTimeoutIsEmbeddingFailure(t *testing.T) {
	index := &indexFake{}
	uc := NewLawLookupUseCase(&embedderFake{block: true}, index, WithLookupTimeout(30*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	started := time.Now()
	_, err := uc.Lookup(ctx, "RA 9514 Section 10")

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrEmbeddingFailure))
	assert.Less(t, time.Since(started), time.Second)
	assert.Zero(t, index.calls)
}

func TestLookupCallerCancellationKeepsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLawLookupUseCase(&embedderFake{err: context.Canceled}, &indexFake{}).Lookup(ctx, "RA 9514")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, domain.IsKind(err, domain.ErrEmbeddingFailure))

	ctx, cancel = context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()
	_, err = NewLawLookupUseCase(&embedderFake{vector: domain.Vector{1}}, &indexFake{err: context.DeadlineExceeded}).Lookup(ctx, "RA 9514")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, domain.IsKind(err, domain.ErrRemoteUnavailable))
}
