package providers

import "fmt"

// Validation failure reasons.
const (
	ReasonInvalidJSON     = "invalid_json"
	ReasonSchemaViolation = "schema_violation"
)

// ProviderError reports a network, authentication, or rate-limit failure
// from a backend. It is never cached; callers may retry when Retryable.
type ProviderError struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: provider error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: provider error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ValidationError reports provider output that failed to parse as JSON or
// failed schema validation, including reconstruction failures. Never cached.
// Distinct from ProviderError so callers can retry with adjusted
// instructions instead of blindly re-sending.
type ValidationError struct {
	Provider string
	Reason   string // invalid_json or schema_violation
	Detail   string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Reason, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// retryableStatus reports whether an HTTP status is worth retrying at the
// caller's discretion.
func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}
