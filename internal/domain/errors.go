package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Caller-visible errors. Everything else that goes wrong below the
// combiner is recovered locally and reflected in the result's reasons.
var (
	ErrInvalidRequest = errors.New("invalid analysis request")
	ErrRateLimited    = errors.New("rate limit exceeded")
)

// ValidateRequest rejects malformed requests before any signal is computed
func ValidateRequest(req AnalysisRequest) error {
	content := strings.TrimSpace(req.RawContent)
	if content == "" {
		return fmt.Errorf("%w: content is empty", ErrInvalidRequest)
	}
	if len(req.RawContent) > MaxContentLength {
		return fmt.Errorf("%w: content exceeds %d characters", ErrInvalidRequest, MaxContentLength)
	}
	switch req.ContentKind {
	case ContentKindText, ContentKindURL:
	case "":
		return fmt.Errorf("%w: content kind is required", ErrInvalidRequest)
	default:
		return fmt.Errorf("%w: unknown content kind %q", ErrInvalidRequest, req.ContentKind)
	}
	if req.ContentKind == ContentKindURL && req.DeclaredURL == "" && !strings.Contains(content, ".") {
		return fmt.Errorf("%w: url request carries no url", ErrInvalidRequest)
	}
	return nil
}
