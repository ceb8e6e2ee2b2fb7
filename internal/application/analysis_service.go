package application

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/viralsafe/content-safety/internal/domain"
	"github.com/viralsafe/content-safety/internal/domain/analysis"
	"github.com/viralsafe/content-safety/internal/ports"
)

// AnalysisService orchestrates the analysis use case: rate limiting,
// request validation, ensemble evaluation and persistence.
type AnalysisService struct {
	storage  ports.Storage
	combiner *analysis.Combiner
	limiter  *RateLimiter
}

func NewAnalysisService(storage ports.Storage, combiner *analysis.Combiner, limiter *RateLimiter) *AnalysisService {
	return &AnalysisService{
		storage:  storage,
		combiner: combiner,
		limiter:  limiter,
	}
}

// Analyze evaluates one piece of content and records the result.
// A persistence failure is logged but never fails the analysis.
func (s *AnalysisService) Analyze(ctx context.Context, clientKey string, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	if s.limiter != nil && !s.limiter.Allow(clientKey) {
		return nil, fmt.Errorf("%w: client %s", domain.ErrRateLimited, clientKey)
	}

	if err := domain.ValidateRequest(req); err != nil {
		return nil, err
	}

	result := s.combiner.Evaluate(ctx, req)

	if err := s.storage.SaveAnalysis(ctx, &result); err != nil {
		log.Printf("failed to persist analysis %s: %v", result.ID, err)
	}

	return &result, nil
}

// GetAnalysis retrieves a previously stored analysis result
func (s *AnalysisService) GetAnalysis(ctx context.Context, id uuid.UUID) (*domain.AnalysisResult, error) {
	return s.storage.GetAnalysis(ctx, id)
}

// Analytics returns aggregate statistics over stored results
func (s *AnalysisService) Analytics(ctx context.Context) (*ports.AnalyticsSummary, error) {
	return s.storage.Analytics(ctx)
}
