package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/core/ports"
)

// QueryUseCase answers a question with the generator, grounded on retrieved context.
type QueryUseCase struct {
	retriever ports.ContextRetriever
	generator ports.AnswerGenerator
}

func NewQueryUseCase(retriever ports.ContextRetriever, generator ports.AnswerGenerator) *QueryUseCase {
	return &QueryUseCase{
		retriever: retriever,
		generator: generator,
	}
}

func (uc *QueryUseCase) Answer(ctx context.Context, query domain.Query) (*domain.Answer, error) {
	if strings.TrimSpace(query.Text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer question", errors.New("question is required"))
	}

	retrieved, err := uc.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	answerText, err := uc.generator.GenerateAnswer(ctx, domain.GenerationRequest{
		Question:    query.Text,
		ContextText: retrieved.ContextText,
		Temperature: retrieved.Mode.Temperature,
		Mode:        retrieved.Mode.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:      answerText,
		Citations: retrieved.Citations,
		Mode:      retrieved.Mode,
	}, nil
}
