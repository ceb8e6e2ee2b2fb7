package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/viralsafe/content-safety/internal/domain"
	"github.com/viralsafe/content-safety/internal/ports"
)

// PostgresStore implements ports.Storage for PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL storage instance
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// InitSchema creates the analyses table if it doesn't exist
func (s *PostgresStore) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id UUID PRIMARY KEY,
		score INT NOT NULL CHECK (score BETWEEN 0 AND 100),
		level VARCHAR(10) NOT NULL CHECK (level IN ('low', 'medium', 'high', 'critical')),
		reasons JSONB NOT NULL,
		categories JSONB NOT NULL,
		recommendations JSONB NOT NULL,
		signal_breakdown JSONB NOT NULL,
		content_hash VARCHAR(64) NOT NULL,
		content_preview VARCHAR(160) NOT NULL,
		platform VARCHAR(50),
		generated_at TIMESTAMP NOT NULL
	);

	-- Backs the analytics level distribution
	CREATE INDEX IF NOT EXISTS idx_analyses_level ON analyses(level);
	CREATE INDEX IF NOT EXISTS idx_analyses_generated_at ON analyses(generated_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveAnalysis persists one analysis result. Results are immutable:
// inserts only, no updates.
func (s *PostgresStore) SaveAnalysis(ctx context.Context, result *domain.AnalysisResult) error {
	reasons, err := json.Marshal(result.Reasons)
	if err != nil {
		return fmt.Errorf("failed to marshal reasons: %w", err)
	}
	categories, err := json.Marshal(result.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	recommendations, err := json.Marshal(result.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	signals, err := json.Marshal(result.SignalBreakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal signal breakdown: %w", err)
	}

	query := `
		INSERT INTO analyses (id, score, level, reasons, categories, recommendations,
			signal_breakdown, content_hash, content_preview, platform, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		result.ID, result.Score, result.Level, reasons, categories, recommendations,
		signals, result.ContentHash, result.ContentPreview, result.Platform, result.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis retrieves one stored analysis result by id
func (s *PostgresStore) GetAnalysis(ctx context.Context, id uuid.UUID) (*domain.AnalysisResult, error) {
	query := `
		SELECT id, score, level, reasons, categories, recommendations,
			signal_breakdown, content_hash, content_preview, platform, generated_at
		FROM analyses WHERE id = $1
	`
	var result domain.AnalysisResult
	var reasons, categories, recommendations, signals []byte
	var platform sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&result.ID, &result.Score, &result.Level, &reasons, &categories,
		&recommendations, &signals, &result.ContentHash, &result.ContentPreview,
		&platform, &result.GeneratedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis: %w", err)
	}

	if err := json.Unmarshal(reasons, &result.Reasons); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reasons: %w", err)
	}
	if err := json.Unmarshal(categories, &result.Categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
	}
	if err := json.Unmarshal(recommendations, &result.Recommendations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
	}
	if err := json.Unmarshal(signals, &result.SignalBreakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signal breakdown: %w", err)
	}
	result.Platform = platform.String

	return &result, nil
}

// Analytics aggregates stored results: totals, level distribution,
// platform counts and average score
func (s *PostgresStore) Analytics(ctx context.Context) (*ports.AnalyticsSummary, error) {
	summary := &ports.AnalyticsSummary{
		RiskDistribution: make(map[string]int),
		PlatformStats:    make(map[string]int),
	}

	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(score) FROM analyses`,
	).Scan(&summary.TotalAnalyses, &avg)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	summary.AvgRiskScore = avg.Float64

	rows, err := s.db.QueryContext(ctx,
		`SELECT level, COUNT(*) FROM analyses GROUP BY level`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query level distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan level row: %w", err)
		}
		summary.RiskDistribution[level] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	platformRows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(NULLIF(platform, ''), 'general'), COUNT(*) FROM analyses GROUP BY 1`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query platform stats: %w", err)
	}
	defer platformRows.Close()
	for platformRows.Next() {
		var platform string
		var count int
		if err := platformRows.Scan(&platform, &count); err != nil {
			return nil, fmt.Errorf("failed to scan platform row: %w", err)
		}
		summary.PlatformStats[platform] = count
	}
	return summary, platformRows.Err()
}
