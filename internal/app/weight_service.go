package app

import (
	"context"

	"myweight/internal/domain"
)

// WeightService encapsulates the weight lookup use case.
type WeightService struct {
	source domain.WeightSource
}

// NewWeightService creates a WeightService backed by the given source.
func NewWeightService(source domain.WeightSource) *WeightService {
	return &WeightService{source: source}
}

// FetchRange returns the weight records between r.From and r.To in
// chronological order. A successful fetch never returns a nil slice.
func (s *WeightService) FetchRange(ctx context.Context, r domain.DateRange) ([]domain.WeightRecord, error) {
	records, err := s.source.FetchWeights(ctx, r)
	if err != nil {
		return nil, domain.NormalizeError(err)
	}
	if records == nil {
		records = []domain.WeightRecord{}
	}
	return records, nil
}
