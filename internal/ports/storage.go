package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/viralsafe/content-safety/internal/domain"
)

// AnalyticsSummary aggregates stored analysis results for reporting
type AnalyticsSummary struct {
	TotalAnalyses    int            `json:"total_analyses"`
	RiskDistribution map[string]int `json:"risk_distribution"`
	PlatformStats    map[string]int `json:"platform_stats"`
	AvgRiskScore     float64        `json:"avg_risk_score"`
}

// Storage defines the contract for persisting and querying analysis results
type Storage interface {
	SaveAnalysis(ctx context.Context, result *domain.AnalysisResult) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (*domain.AnalysisResult, error)
	Analytics(ctx context.Context) (*AnalyticsSummary, error)

	// Lifecycle
	Close() error
}
