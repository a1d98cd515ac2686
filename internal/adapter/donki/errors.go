package donki

import "fmt"

// RequestError means the client gave up on an endpoint after exhausting its
// retry budget on transient failures (network errors, 5xx, 429).
type RequestError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: giving up after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ClientError means the upstream rejected the request with a non-retryable
// 4xx status. The body is truncated to keep logs readable.
type ClientError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: upstream rejected request: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}
