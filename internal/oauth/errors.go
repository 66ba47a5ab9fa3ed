package oauth

import "fmt"

// Kind classifies token acquisition failures. It is a closed set; retry
// decisions key on the Kind, never on error message text.
type Kind string

const (
	// KindConfiguration: a required OAuth setting is missing. Never retried.
	KindConfiguration Kind = "configuration_error"

	// KindInvalidResponse: the provider response lacks required fields.
	// A malformed response will not fix itself on retry.
	KindInvalidResponse Kind = "invalid_response"

	// KindProviderRejected: HTTP 4xx other than 429. Never retried.
	KindProviderRejected Kind = "provider_rejected"

	// KindProviderUnavailable: HTTP 5xx, HTTP 429, timeout or network
	// failure. Retried within the attempt budget.
	KindProviderUnavailable Kind = "provider_unavailable"

	// KindUnexpected: any other failure during an attempt. Treated as
	// retryable under the same attempt budget.
	KindUnexpected Kind = "unexpected_error"
)

// Error is the tagged error type crossing the Manager boundary.
// ProviderCode and ProviderDescription carry the provider's own
// error/error_description fields when its failure body was parseable JSON.
type Error struct {
	Kind                Kind
	Message             string
	ProviderCode        string
	ProviderDescription string

	err error
}

func (e *Error) Error() string {
	if e.ProviderCode != "" {
		return fmt.Sprintf("oauth: %s (%s)", e.Message, e.ProviderCode)
	}
	return "oauth: " + e.Message
}

func (e *Error) Unwrap() error { return e.err }

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindProviderUnavailable || e.Kind == KindUnexpected
}
