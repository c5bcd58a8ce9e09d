package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig   = errors.New("catalog: invalid config")
	ErrUnknownResource = errors.New("catalog: unknown resource")
	ErrNotFound        = errors.New("catalog: not found")
	ErrInvalidPayload  = errors.New("catalog: response is not valid json")
	ErrRequestFailed   = errors.New("catalog: request failed")
)

// HTTPError captures an unexpected status code and the response body.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("catalog: unexpected status code: %d, body: %s", e.StatusCode, string(e.Body))
}

// retryable reports whether the upstream may succeed on a later attempt.
func (e *HTTPError) retryable() bool {
	switch e.StatusCode {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}
