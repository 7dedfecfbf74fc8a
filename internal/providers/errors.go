package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ConfigError means a provider cannot be constructed at all: bad kind,
// missing credential, undecodable params. Fatal at registry build time, never
// retried.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("providers: %s misconfigured: %s", e.Provider, e.Reason)
}

// CallError is one failed vendor call, classified at the point where the SDK
// error shape is still known.
type CallError struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s call failed (HTTP %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s call failed: %v", e.Provider, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// IsRetryable reports whether another attempt could plausibly succeed.
// Classified CallErrors carry their own verdict; otherwise only timeouts
// qualify. A cancelled context is never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var call *CallError
	if errors.As(err, &call) {
		return call.Retryable
	}

	return transient(err)
}

// transient reports whether an unclassified error looks like a transport
// timeout worth another attempt.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// retryableStatus is the shared HTTP status classification: throttling,
// server faults, and timeouts are transient; everything else is not.
func retryableStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504, 529:
		return true
	default:
		return false
	}
}

// statusCode extracts the HTTP status from a classified call error, or 0.
func statusCode(err error) int {
	var call *CallError
	if errors.As(err, &call) {
		return call.StatusCode
	}
	return 0
}
