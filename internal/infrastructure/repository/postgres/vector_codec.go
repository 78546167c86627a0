package postgres

import (
	"errors"
	"fmt"
	"math"

	"github.com/pgvector/pgvector-go"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

func toPgvector(v domain.Vector) pgvector.Vector {
	return pgvector.NewVector(v)
}

// fromPgvector accepts only a non-empty list of finite numbers. Anything else is
// reported as domain.ErrMalformedVector.
func fromPgvector(v pgvector.Vector) (domain.Vector, error) {
	values := v.Slice()
	if len(values) == 0 {
		return nil, domain.WrapError(domain.ErrMalformedVector, "decode vector", errors.New("empty vector"))
	}
	for i, x := range values {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil, domain.WrapError(domain.ErrMalformedVector, "decode vector", fmt.Errorf("element %d is not finite", i))
		}
	}
	return domain.Vector(values), nil
}
