package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralsafe/content-safety/internal/adapters/storage"
	"github.com/viralsafe/content-safety/internal/domain"
	"github.com/viralsafe/content-safety/internal/domain/analysis"
	"github.com/viralsafe/content-safety/internal/ports"
)

type failingStorage struct{}

func (failingStorage) SaveAnalysis(context.Context, *domain.AnalysisResult) error {
	return errors.New("database is down")
}

func (failingStorage) GetAnalysis(context.Context, uuid.UUID) (*domain.AnalysisResult, error) {
	return nil, errors.New("database is down")
}

func (failingStorage) Analytics(context.Context) (*ports.AnalyticsSummary, error) {
	return nil, errors.New("database is down")
}

func (failingStorage) Close() error { return nil }

func newTestService(store ports.Storage, limiter *RateLimiter) *AnalysisService {
	combiner := analysis.NewCombiner(
		analysis.NewHeuristicScanner(),
		analysis.NewURLAnalyzer(nil),
		nil, nil,
		analysis.DefaultPolicy(),
	)
	return NewAnalysisService(store, combiner, limiter)
}

func TestAnalyzePersistsResult(t *testing.T) {
	store := storage.NewMemoryStore()
	service := newTestService(store, nil)

	result, err := service.Analyze(context.Background(), "10.0.0.1", domain.AnalysisRequest{
		ContentKind: domain.ContentKindText,
		RawContent:  "URGENT! verify your account: bit.ly/xyz",
	})

	require.NoError(t, err)
	assert.Equal(t, "high", result.Level)

	stored, err := service.GetAnalysis(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Score, stored.Score)
}

func TestAnalyzeRejectsInvalidRequest(t *testing.T) {
	service := newTestService(storage.NewMemoryStore(), nil)

	_, err := service.Analyze(context.Background(), "10.0.0.1", domain.AnalysisRequest{
		ContentKind: domain.ContentKindText,
		RawContent:  "",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestAnalyzeRateLimited(t *testing.T) {
	service := newTestService(storage.NewMemoryStore(), NewRateLimiter(1, time.Minute))
	req := domain.AnalysisRequest{ContentKind: domain.ContentKindText, RawContent: "hello there"}

	_, err := service.Analyze(context.Background(), "10.0.0.1", req)
	require.NoError(t, err)

	_, err = service.Analyze(context.Background(), "10.0.0.1", req)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	// a different caller is unaffected
	_, err = service.Analyze(context.Background(), "10.0.0.2", req)
	assert.NoError(t, err)
}

func TestAnalyzeSurvivesStorageFailure(t *testing.T) {
	service := newTestService(failingStorage{}, nil)

	result, err := service.Analyze(context.Background(), "10.0.0.1", domain.AnalysisRequest{
		ContentKind: domain.ContentKindText,
		RawContent:  "Let's meet for coffee tomorrow",
	})

	require.NoError(t, err, "persistence failures never fail the analysis")
	assert.Equal(t, "low", result.Level)
}

func TestAnalyticsAggregatesStoredResults(t *testing.T) {
	store := storage.NewMemoryStore()
	service := newTestService(store, nil)

	_, err := service.Analyze(context.Background(), "a", domain.AnalysisRequest{
		ContentKind:  domain.ContentKindText,
		RawContent:   "coffee tomorrow?",
		PlatformHint: "telegram",
	})
	require.NoError(t, err)
	_, err = service.Analyze(context.Background(), "a", domain.AnalysisRequest{
		ContentKind: domain.ContentKindText,
		RawContent:  "URGENT! verify your account: bit.ly/xyz",
	})
	require.NoError(t, err)

	summary, err := service.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalAnalyses)
	assert.Equal(t, 1, summary.RiskDistribution["low"])
	assert.Equal(t, 1, summary.RiskDistribution["high"])
	assert.Equal(t, 1, summary.PlatformStats["telegram"])
	assert.Equal(t, 1, summary.PlatformStats["general"])
	assert.Greater(t, summary.AvgRiskScore, 0.0)
}
