package freelancer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken is returned on HTTP 401. The bidding loop treats it as fatal.
	ErrInvalidToken = errors.New("freelancer: invalid or expired OAuth token")
	// ErrRateLimited is returned on HTTP 429
	ErrRateLimited = errors.New("freelancer: rate limited")
	// ErrNotFound is returned on HTTP 404
	ErrNotFound = errors.New("freelancer: not found")
)

// APIError is any other non-2xx response, or a 2xx body with status "error"
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("freelancer: HTTP %d %s: %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("freelancer: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsTransient reports whether a later retry of the same call may succeed
func IsTransient(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}
