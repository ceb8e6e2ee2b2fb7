package ports

import (
	"context"

	"github.com/viralsafe/content-safety/internal/domain"
)

// URLScanner defines the contract for the external multi-engine scan
// aggregator. Scan drives the full submit-then-poll protocol under the
// client's wall-clock budget; a budget expiry yields a TimedOut verdict,
// never an unbounded wait.
type URLScanner interface {
	Scan(ctx context.Context, url string) (domain.ExternalScanVerdict, error)
}

// HealthReader is a read-only view of a dependency's cached health state.
// Reading it must never trigger a network call.
type HealthReader interface {
	Snapshot() domain.HealthSnapshot
}
