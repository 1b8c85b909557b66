package llm

import (
	"errors"
	"fmt"
)

var (
	ErrUpstreamConnection = errors.New("upstream connection error")
	ErrUpstreamRateLimit  = errors.New("upstream rate limit reached")
	ErrUpstreamAPI        = errors.New("upstream api error")
)

type Kind int

const (
	KindConnection Kind = iota + 1
	KindRateLimit
	KindAPI
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindRateLimit:
		return "rate_limit"
	case KindAPI:
		return "api"
	default:
		return "unknown"
	}
}

// UpstreamError is any failure reported by the model provider.
type UpstreamError struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstreamConnection:
		return e.Kind == KindConnection
	case ErrUpstreamRateLimit:
		return e.Kind == KindRateLimit
	case ErrUpstreamAPI:
		return e.Kind == KindAPI
	}
	return false
}

// Fragment is the text appended to a stream that ended because of this error.
func (e *UpstreamError) Fragment() string {
	switch e.Kind {
	case KindConnection:
		return ConnectionErrorFragment
	case KindRateLimit:
		return RateLimitFragment
	default:
		msg := "unknown error"
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return fmt.Sprintf(apiErrorFragmentFormat, msg)
	}
}

const (
	ConnectionErrorFragment = "\n\n[Connection error. Please try again.]"
	RateLimitFragment       = "\n\n[Rate limit reached. Please wait.]"
	apiErrorFragmentFormat  = "\n\n[Error: %s]"
)
