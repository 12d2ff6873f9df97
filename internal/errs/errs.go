// Package errs implements the normalized error taxonomy every provider
// adapter must translate into, per the router's error handling design.
package errs

import "fmt"

// Code is one of the fixed normalized error codes. Every RouterError carries
// exactly one.
type Code string

const (
	ProviderUnavailable    Code = "PROVIDER_UNAVAILABLE"
	ModelNotFound          Code = "MODEL_NOT_FOUND"
	RateLimited            Code = "RATE_LIMITED"
	AuthenticationFailed   Code = "AUTHENTICATION_FAILED"
	ContextLengthExceeded  Code = "CONTEXT_LENGTH_EXCEEDED"
	ContentFiltered        Code = "CONTENT_FILTERED"
	Timeout                Code = "TIMEOUT"
	NetworkError           Code = "NETWORK_ERROR"
	InvalidRequest         Code = "INVALID_REQUEST"
	UnknownError           Code = "UNKNOWN_ERROR"
)

// retryableByDefault is the default retryable set referenced by §4.5.
var retryableByDefault = map[Code]bool{
	RateLimited:         true,
	Timeout:             true,
	NetworkError:        true,
	ProviderUnavailable: true,
}

// IsRetryableByDefault reports whether code is in the default retryable set.
func IsRetryableByDefault(code Code) bool {
	return retryableByDefault[code]
}

// RouterError is the single error shape that crosses adapter, retry, and
// router-core boundaries. It always carries a code, a retryable flag, and
// (when known) the provider and underlying cause.
type RouterError struct {
	Code      Code
	Provider  string
	Retryable bool
	Cause     error
}

func (e *RouterError) Error() string {
	if e.Provider != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: provider=%s: %v", e.Code, e.Provider, e.Cause)
		}
		return fmt.Sprintf("%s: provider=%s", e.Code, e.Provider)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return string(e.Code)
}

// Unwrap exposes the original cause to errors.Is/errors.As.
func (e *RouterError) Unwrap() error { return e.Cause }

// New builds a RouterError whose Retryable flag is taken from the code's
// default retryable set.
func New(code Code, provider string, cause error) *RouterError {
	return &RouterError{
		Code:      code,
		Provider:  provider,
		Retryable: IsRetryableByDefault(code),
		Cause:     cause,
	}
}

// Aggregate builds the terminal PROVIDER_UNAVAILABLE error the Router Core
// surfaces once every candidate has failed, wrapping the last underlying
// error as its cause.
func Aggregate(last error) *RouterError {
	return &RouterError{
		Code:      ProviderUnavailable,
		Retryable: false,
		Cause:     last,
	}
}

// As extracts a *RouterError from err or from the chain reached through
// successive single-error Unwrap calls; errors joined with errors.Join are
// not searched.
func As(err error) (*RouterError, bool) {
	re, ok := err.(*RouterError)
	if ok {
		return re, true
	}
	type unwrapper interface{ Unwrap() error }
	for u, ok := err.(unwrapper); ok; u, ok = err.(unwrapper) {
		err = u.Unwrap()
		if re, ok := err.(*RouterError); ok {
			return re, true
		}
	}
	return nil, false
}
