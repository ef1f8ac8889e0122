package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind classifies a failed completion call
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindRateLimited
	KindConnection
	KindAuthentication
	KindAPI
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindConnection:
		return "connection"
	case KindAuthentication:
		return "authentication"
	case KindAPI:
		return "api"
	default:
		return "unexpected"
	}
}

// ErrMissingAPIKey is returned by NewGateway when no key is configured
var ErrMissingAPIKey = errors.New("ai: missing API key")

// GatewayError is returned for every failed completion call
type GatewayError struct {
	Kind       ErrorKind
	StatusCode int
	// Message is the provider's own error text when it sent one
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm %s error (status %d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("llm %s error: %s", e.Kind, msg)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a gateway error anywhere in err's chain,
// KindUnexpected otherwise
func KindOf(err error) ErrorKind {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindUnexpected
}

// ParseRetryAfter parses the Retry-After header value as either seconds or
// an HTTP-date. Returns zero if unparseable or in the past.
func ParseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
