// Package fact はdog factsの取得を提供する。
package fact

import (
	"context"
	"fmt"

	"github.com/hitoshi/pawpost/internal/model"
	"github.com/hitoshi/pawpost/internal/repository"
)

// Service はdog factsのサービス層。
type Service struct {
	facts repository.FactRepository
}

// NewService はServiceを生成する。
func NewService(facts repository.FactRepository) *Service {
	return &Service{facts: facts}
}

// List は全件を返す。1件も無い場合はFACTS_NOT_FOUNDを返す。
func (s *Service) List(ctx context.Context) ([]model.DogFact, error) {
	facts, err := s.facts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dog facts: %w", err)
	}
	if len(facts) == 0 {
		return nil, model.NewFactsNotFoundError()
	}
	return facts, nil
}
