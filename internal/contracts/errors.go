package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInsufficientHistory is returned when a lookup needs more bars than exist
var ErrInsufficientHistory = errors.New("not enough historical data")

// UpstreamFetchError means the provider was unreachable, timed out, or returned a malformed payload
type UpstreamFetchError struct {
	Symbol string
	Err    error
}

func (e *UpstreamFetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to fetch data for %s", e.Symbol)
	}
	return fmt.Sprintf("failed to fetch data for %s: %v", e.Symbol, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// QuoteUnavailableError means both the quote endpoint and the chart fallback failed
type QuoteUnavailableError struct {
	Symbols []string
	Err     error
}

func (e *QuoteUnavailableError) Error() string {
	msg := fmt.Sprintf("failed to fetch quotes for %s", strings.Join(e.Symbols, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *QuoteUnavailableError) Unwrap() error { return e.Err }

// DepthUnavailableError means no usable price exists to build market depth from
type DepthUnavailableError struct {
	Symbol string
	Err    error
}

func (e *DepthUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to generate market depth for %s: no current price", e.Symbol)
	}
	return fmt.Sprintf("failed to generate market depth for %s: %v", e.Symbol, e.Err)
}

func (e *DepthUnavailableError) Unwrap() error { return e.Err }

// ValidationError rejects a request before any network call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError is a shorthand constructor
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
