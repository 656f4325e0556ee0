// Package broker defines the failure taxonomy shared with the broker
// collaborators. Kinds form a closed set so callers switch on category
// instead of matching concrete types.
package broker

import "fmt"

type Kind int

const (
	// KindAPI carries an upstream HTTP status; 5xx is retryable with
	// backoff, 4xx is a permanent rejection.
	KindAPI Kind = iota
	// KindAuthentication is fatal to the session; a fresh handshake is
	// required before further submissions.
	KindAuthentication
	// KindEncryption signals a configuration or key-material problem
	// and is never retried automatically.
	KindEncryption
	// KindOrder is a broker-side order rejection.
	KindOrder
	// KindValidation wraps local pre-submission rule violations.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAPI:
		return "api"
	case KindAuthentication:
		return "authentication"
	case KindEncryption:
		return "encryption"
	case KindOrder:
		return "order"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

type Error struct {
	Kind       Kind
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("broker %s error [%s, status %d]: %s", e.Kind, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("broker %s error [%s]: %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether the caller may retry with backoff. Only
// upstream server errors qualify.
func (e *Error) Retryable() bool {
	return e.Kind == KindAPI && e.StatusCode >= 500
}

// Fatal reports failures that require operator or re-authentication
// intervention; retry loops must not run on these.
func (e *Error) Fatal() bool {
	return e.Kind == KindAuthentication || e.Kind == KindEncryption
}

func NewAPIError(statusCode int, code, message string) *Error {
	return &Error{Kind: KindAPI, Code: code, Message: message, StatusCode: statusCode}
}

func NewAuthenticationError(message string) *Error {
	return &Error{Kind: KindAuthentication, Code: "AUTH_ERROR", Message: message, StatusCode: 401}
}

func NewEncryptionError(message string, cause error) *Error {
	return &Error{Kind: KindEncryption, Code: "ENCRYPTION_ERROR", Message: message, Cause: cause}
}

func NewOrderError(orderID, message string) *Error {
	return &Error{Kind: KindOrder, Code: "ORDER_ERROR", Message: fmt.Sprintf("order %s: %s", orderID, message), StatusCode: 422}
}
