package gemini

import (
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy surfaced to callers. Routes map each sentinel to a
// fixed user-facing message; only ErrRateLimited is ever retried.
var (
	ErrInvalidCredential = errors.New("gemini: invalid credentials")
	ErrRateLimited       = errors.New("gemini: rate limited")
	ErrUnavailable       = errors.New("gemini: upstream unavailable")
	ErrUnknown           = errors.New("gemini: upstream error")
)

// IsRateLimited reports whether err carries the rate-limit sentinel.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// classifyStatus maps a non-200 generateContent response onto the
// taxonomy. The API signals quota exhaustion either with a 429 or with
// RESOURCE_EXHAUSTED in the body, and bad keys either with 401/403 or
// API_KEY_INVALID inside a 400.
func classifyStatus(status int, body string) error {
	switch {
	case status == 401 || status == 403 || strings.Contains(body, "API_KEY_INVALID"):
		return fmt.Errorf("%w: status %d: %s", ErrInvalidCredential, status, snippet(body))
	case status == 429 || strings.Contains(body, "RESOURCE_EXHAUSTED"):
		return fmt.Errorf("%w: status %d: %s", ErrRateLimited, status, snippet(body))
	case status == 503 || strings.Contains(body, "UNAVAILABLE"):
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, status, snippet(body))
	default:
		return fmt.Errorf("%w: status %d: %s", ErrUnknown, status, snippet(body))
	}
}

func snippet(body string) string {
	const max = 200
	body = strings.TrimSpace(body)
	if len(body) > max {
		return body[:max]
	}
	return body
}
