package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Transport sends a single pipeline POST and returns the raw response.
//
// Implementations must honour ctx cancellation and deadlines and must be
// safe for concurrent use.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Request is an outgoing pipeline POST.
type Request struct {
	// URL is the full pipeline endpoint.
	URL string
	// Header holds request headers. Nil is treated as empty.
	Header http.Header
	// Body is the serialized pipeline envelope.
	Body []byte
}

// Response is the status and fully read body of an HTTP response.
type Response struct {
	// StatusCode is the numeric HTTP status code (e.g., 200).
	StatusCode int
	// Body is the response payload. It may be empty.
	Body []byte
}

var (
	// ErrNilRequest indicates Do received a nil Request pointer.
	ErrNilRequest = errors.New("request is nil")

	// ErrReadBody wraps failures while reading a response body stream.
	ErrReadBody = errors.New("failed to read response body")
)

// HTTP implements Transport using net/http.
type HTTP struct {
	client *http.Client
}

// Ensure HTTP always satisfies the Transport interface at compile time.
var _ Transport = (*HTTP)(nil)

// NewHTTP returns a Transport backed by client. A nil client uses a new
// http.Client with no overall timeout; per-attempt deadlines come from ctx.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTP{client: client}
}

// Do issues a POST to req.URL with req.Body and reads the full response.
func (t *HTTP) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Join(ErrReadBody, err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// CloseIdleConnections closes idle keep-alive connections held by the
// underlying client.
func (t *HTTP) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}
