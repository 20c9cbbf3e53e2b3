package fastbound

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMaxRetries is returned when a request keeps hitting HTTP 429 after the
// configured number of reset-and-retry cycles.
var ErrMaxRetries = errors.New("rate limit retries exhausted")

// ErrBoundBookNotReady is returned by DownloadBoundBook when the server
// answers 204: the nightly book has not been generated yet.
var ErrBoundBookNotReady = errors.New("bound book is not ready")

// APIError is any non-retryable non-2xx response, with enough context to
// log the failing call without re-deriving it.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// PlanLimitError reports that the account's plan capacity is exhausted.
// The caller decides whether to upgrade, wait, or retry; the client never
// blocks on input. TrailingYearCount is filled in by the importer with the
// number of items acquired in the trailing 365-day window, when known.
type PlanLimitError struct {
	Message           string
	TrailingYearCount int
}

func (e *PlanLimitError) Error() string {
	if e.TrailingYearCount > 0 {
		return fmt.Sprintf("plan limit reached (%d items acquired in the trailing 365 days): %s",
			e.TrailingYearCount, e.Message)
	}
	return "plan limit reached: " + e.Message
}

// apiErrorPayload is the error body shape the API returns. Field-level
// errors are concatenated into one message.
type apiErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

// parseErrorMessage extracts a human-readable message from an error body.
// Non-JSON bodies are returned as-is (truncated) so the caller still sees
// something useful from proxies and gateways.
func parseErrorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var payload apiErrorPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
		parts := make([]string, 0, len(payload.Errors)+2)
		if payload.Error != "" {
			parts = append(parts, payload.Error)
		}
		if payload.Message != "" {
			parts = append(parts, payload.Message)
		}
		for _, fe := range payload.Errors {
			if fe.Field != "" {
				parts = append(parts, fe.Field+": "+fe.Message)
			} else {
				parts = append(parts, fe.Message)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	if len(trimmed) > 512 {
		trimmed = trimmed[:512]
	}
	return trimmed
}

// isPlanLimitMessage recognizes the application-level capacity error that
// arrives as a plain HTTP 400.
func isPlanLimitMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "plan limit")
}

// isAlreadyExistsMessage recognizes the duplicate-contact rejection used by
// the resolver's re-download-and-match recovery.
func isAlreadyExistsMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "already exists")
}

// IsAlreadyExists reports whether err is the API telling us the record was
// created by someone else first (HTTP 409, or 400 with a duplicate message).
func IsAlreadyExists(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Status == 409 {
		return true
	}
	return apiErr.Status == 400 && isAlreadyExistsMessage(apiErr.Message)
}
