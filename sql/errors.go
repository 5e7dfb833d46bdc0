package sql

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	sdk "github.com/bunnydb/sdk"
)

var (
	// ErrInvalidURL indicates a missing or malformed pipeline endpoint.
	ErrInvalidURL = errors.New("invalid pipeline URL")

	// ErrMissingAuthorization indicates neither a token nor an authorization
	// header value was configured.
	ErrMissingAuthorization = errors.New("authorization is required")

	// ErrInvalidOptions indicates negative timeout, retry, or backoff values.
	ErrInvalidOptions = errors.New("invalid client options")
)

// maxErrorBody caps the response body kept on an HTTPError.
const maxErrorBody = 4096

// TransportError reports a request that never produced an HTTP response.
type TransportError struct {
	// Attempts is the number of attempts made, including the failing one.
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %v", sdk.ErrTransport, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is matches sdk.ErrTransport.
func (e *TransportError) Is(target error) bool { return target == sdk.ErrTransport }

// HTTPError reports a non-2xx response.
type HTTPError struct {
	Status int
	// Body holds at most the first 4 KiB of the response body.
	Body     string
	Attempts int
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %d %s", sdk.ErrHTTP, e.Status, http.StatusText(e.Status))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is matches sdk.ErrHTTP.
func (e *HTTPError) Is(target error) bool { return target == sdk.ErrHTTP }

func newHTTPError(status int, body []byte, attempts int) *HTTPError {
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	return &HTTPError{Status: status, Body: string(body), Attempts: attempts}
}

// PipelineError is a statement the database rejected. RequestIndex is the
// position of the operation within the pipeline request.
type PipelineError struct {
	RequestIndex int
	Message      string
	// Code is the server error code, or empty.
	Code string
}

func (e *PipelineError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s at request %d: %s (%s)", sdk.ErrPipeline, e.RequestIndex, e.Message, e.Code)
	}
	return fmt.Sprintf("%s at request %d: %s", sdk.ErrPipeline, e.RequestIndex, e.Message)
}

// Is matches sdk.ErrPipeline.
func (e *PipelineError) Is(target error) bool { return target == sdk.ErrPipeline }

// IsRetryable reports whether err is a transport failure or an HTTP 429 or
// 5xx response.
func IsRetryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return retryableStatus(httpErr.Status)
	}
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}
