package collector

import (
	"fmt"

	"github.com/qepting91/recordsync/internal/domain"
)

// NetworkError means the remote source was unreachable or answered non-2xx.
type NetworkError struct {
	Kind       domain.Kind
	URL        string
	StatusCode int // zero when the request never got a response
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s returned status %d", e.Kind, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Kind, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError means the response body was not a JSON array of objects.
type DecodeError struct {
	Kind domain.Kind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
