package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lawpaw/lawpaw/internal/infrastructure/resilience"
)

// HTTPStatusError carries the status and body of a non-2xx completion
// response so the classifier can separate throttling from hard failures.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: unexpected status %s: %s", e.Operation, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: unexpected status %s", e.Operation, e.Status)
}

// classifyHTTPError records server-side and throttling failures against the
// breaker while keeping client mistakes (bad request, auth) out of it.
func classifyHTTPError(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		case statusErr.StatusCode >= 500:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}

	// Transport-level errors count against the breaker.
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
