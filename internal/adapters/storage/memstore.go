package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/viralsafe/content-safety/internal/domain"
	"github.com/viralsafe/content-safety/internal/ports"
)

// MemoryStore is an in-memory ports.Storage used when no database is
// configured and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[uuid.UUID]*domain.AnalysisResult
	order   []uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results: make(map[uuid.UUID]*domain.AnalysisResult),
	}
}

func (s *MemoryStore) SaveAnalysis(_ context.Context, result *domain.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *result
	s.results[result.ID] = &copied
	s.order = append(s.order, result.ID)
	return nil
}

func (s *MemoryStore) GetAnalysis(_ context.Context, id uuid.UUID) (*domain.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[id]
	if !ok {
		return nil, fmt.Errorf("analysis not found: %s", id)
	}
	copied := *result
	return &copied, nil
}

func (s *MemoryStore) Analytics(_ context.Context) (*ports.AnalyticsSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &ports.AnalyticsSummary{
		TotalAnalyses:    len(s.order),
		RiskDistribution: make(map[string]int),
		PlatformStats:    make(map[string]int),
	}
	var total int
	for _, id := range s.order {
		result := s.results[id]
		summary.RiskDistribution[result.Level]++
		platform := result.Platform
		if platform == "" {
			platform = "general"
		}
		summary.PlatformStats[platform]++
		total += result.Score
	}
	if len(s.order) > 0 {
		summary.AvgRiskScore = float64(total) / float64(len(s.order))
	}
	return summary, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
