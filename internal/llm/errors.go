package llm

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded is returned when the provider signals rate limiting
// (HTTP 429). Callers surface it as a retryable, user-facing throttling
// condition. It is never retried internally.
// Check with errors.Is(err, llm.ErrQuotaExceeded).
var ErrQuotaExceeded = errors.New("model provider quota exceeded")

// TransportError wraps network, TLS and non-2xx failures from a provider.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport failure: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedOutputError is returned when model output that was expected to
// be JSON could not be parsed. The raw text is carried along so callers
// can log it or attempt their own recovery.
type MalformedOutputError struct {
	RawText string
	Err     error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("model output is not valid JSON: %v", e.Err)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }
