package provider

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
)

// TransportError is a network or HTTP-level failure talking to a provider.
// It is the only adapter failure the orchestrator will retry.
type TransportError struct {
	Source     domain.Source
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: request to %s failed with status %d", e.Source, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: request to %s failed: %v", e.Source, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a network-level failure.
func NewTransportError(source domain.Source, url string, err error) *TransportError {
	return &TransportError{Source: source, URL: url, Err: err}
}

// NewStatusError wraps a non-2xx HTTP response.
func NewStatusError(source domain.Source, url string, statusCode int) *TransportError {
	return &TransportError{Source: source, URL: url, StatusCode: statusCode}
}

// ParseError is a malformed provider payload. Never retried: the provider
// answered, it just answered garbage.
type ParseError struct {
	Source domain.Source
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse provider payload: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError wraps a payload decoding failure.
func NewParseError(source domain.Source, err error) *ParseError {
	return &ParseError{Source: source, Err: err}
}

// IsRetryable reports whether an adapter failure is worth one more attempt:
// transport failures and timeouts only. Parse failures and well-formed empty
// results are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
