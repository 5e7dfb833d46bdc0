package sdk

import "errors"

var (
	// ErrTransport indicates a failure before any HTTP response was received
	// (connection refused, timeout, cancelled context, host call failure).
	ErrTransport = errors.New("transport failure")

	// ErrHTTP indicates a non-2xx HTTP response that was not retried or that
	// exhausted its retries.
	ErrHTTP = errors.New("unexpected http status")

	// ErrPipeline indicates a pipeline operation was rejected by the database.
	ErrPipeline = errors.New("pipeline operation rejected")

	// ErrDecode indicates a malformed or structurally unexpected response.
	ErrDecode = errors.New("failed to decode response")

	// ErrEncoding indicates a value that cannot be represented on the wire.
	ErrEncoding = errors.New("failed to encode value")
)

var (
	// ErrHostCall indicates that a waPC host invocation failed.
	ErrHostCall = errors.New("host call failed")

	// ErrHostResponseInvalid signals that the host returned an invalid or unexpected payload.
	ErrHostResponseInvalid = errors.New("host response is invalid or unexpected")

	// ErrHostError means the host completed the call but reported a failure status.
	ErrHostError = errors.New("host returned an error status")
)
