package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"notesnap/internal/domain"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var quotaMarkers = []string{"resource_exhausted", "resource has been exhausted", "quota", "rate limit", "429"}

// classify wraps rate-limit failures with domain.ErrQuotaExhausted so callers
// can tell them apart from other provider errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isQuotaError(err) {
		return fmt.Errorf("%w: %v", domain.ErrQuotaExhausted, err)
	}
	return fmt.Errorf("LLM call failed: %w", err)
}

func isQuotaError(err error) bool {
	if errors.Is(err, domain.ErrQuotaExhausted) {
		return true
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
