package llm

import "errors"

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// Kind classifies provider failures for retry decisions.
type Kind int

const (
	// KindTransient failures (rate limits, timeouts, 5xx) may succeed
	// on retry.
	KindTransient Kind = iota
	// KindPermanent failures (bad request, auth) will not.
	KindPermanent
)

// Error wraps a provider failure with its retry classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "llm error"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Transient wraps err as a retryable failure.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindTransient, Err: err}
}

// Permanent wraps err as a non-retryable failure.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindPermanent, Err: err}
}

// IsTransient reports whether err should be retried. Unclassified
// errors are treated as transient so network-level failures get the
// benefit of the doubt.
func IsTransient(err error) bool {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind == KindTransient
	}
	return true
}
