package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	sdk "github.com/bunnydb/sdk"
	"github.com/bunnydb/sdk/transport"
	proto "github.com/tarmac-project/protobuf-go/sdk/http"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	capabilityName = "httpclient"
	fnCall         = "call"

	hostStatusOK       = int32(200)
	hostStatusPartial  = int32(206)
	hostStatusBadInput = int32(400)
	hostStatusMissing  = int32(404)
	hostStatusError    = int32(500)
)

var (
	// ErrInvalidURL indicates a malformed or unsupported URL.
	ErrInvalidURL = errors.New("invalid URL provided")

	// ErrMarshalRequest wraps failures while encoding the request payload.
	ErrMarshalRequest = errors.New("failed to create request")

	// ErrUnmarshalResponse wraps failures while decoding the host response.
	ErrUnmarshalResponse = errors.New("failed to unmarshal response")
)

// HostCall defines the waPC host function signature used for HTTP requests.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Config configures the host transport.
//
// SDKConfig supplies the namespace used when making waPC host calls. If the
// Namespace is empty, it defaults to sdk.DefaultNamespace during New.
// InsecureSkipVerify controls TLS verification behavior on the host side when
// supported by the runtime. HostCall allows tests to inject a custom host
// function; when nil, the client uses wapc.HostCall.
type Config struct {
	// SDKConfig provides the runtime namespace for host calls.
	SDKConfig sdk.RuntimeConfig
	// InsecureSkipVerify disables TLS verification when supported.
	InsecureSkipVerify bool
	// HostCall overrides the waPC host function used for requests.
	HostCall HostCall
}

// HTTPClient sends pipeline requests through the host's httpclient
// capability. It lets a WebAssembly guest use the sql client without a
// network stack of its own.
type HTTPClient struct {
	runtime  sdk.RuntimeConfig
	insecure bool
	hostCall HostCall
}

// Ensure HTTPClient always satisfies the Transport interface at compile time.
var _ transport.Transport = (*HTTPClient)(nil)

// New creates a host-backed transport with the provided configuration.
func New(config Config) (*HTTPClient, error) {
	runtime := config.SDKConfig.WithDefaults()

	hostCall := config.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &HTTPClient{runtime: runtime, insecure: config.InsecureSkipVerify, hostCall: hostCall}, nil
}

// Do posts req through the host and returns the HTTP status and body.
//
// Host calls cannot be interrupted, so ctx is only checked before the call
// is made.
func (c *HTTPClient) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if req == nil {
		return nil, transport.ErrNilRequest
	}

	u, err := url.Parse(req.URL)
	if err != nil || u.Host == "" {
		return nil, ErrInvalidURL
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pbReq := &proto.HTTPClient{
		Method:   http.MethodPost,
		Url:      req.URL,
		Insecure: c.insecure,
		Body:     req.Body,
		Headers:  make(map[string]*proto.Header, len(req.Header)),
	}
	for key, values := range req.Header {
		pbReq.Headers[key] = &proto.Header{Values: values}
	}

	return c.call(pbReq)
}

// call marshals the protobuf request, performs the host call, and converts
// the host response using proto getters.
func (c *HTTPClient) call(req *proto.HTTPClient) (*transport.Response, error) {
	b, err := req.MarshalVT()
	if err != nil {
		return nil, errors.Join(ErrMarshalRequest, err)
	}

	resp, err := c.hostCall(c.runtime.Namespace, capabilityName, fnCall, b)
	if err != nil {
		return nil, errors.Join(sdk.ErrHostCall, err)
	}

	var r proto.HTTPClientResponse
	if unmarshalErr := r.UnmarshalVT(resp); unmarshalErr != nil {
		return nil, errors.Join(ErrUnmarshalResponse, unmarshalErr)
	}

	status := r.GetStatus()
	if status == nil {
		return nil, sdk.ErrHostResponseInvalid
	}

	switch code := status.GetCode(); code {
	case hostStatusOK, hostStatusPartial:
	case hostStatusBadInput, hostStatusMissing, hostStatusError:
		detail := fmt.Sprintf("host status %d", code)
		if msg := status.GetStatus(); msg != "" {
			detail = fmt.Sprintf("%s: %s", detail, msg)
		}
		return nil, errors.Join(sdk.ErrHostError, errors.New(detail))
	default:
		return nil, errors.Join(
			sdk.ErrHostResponseInvalid,
			fmt.Errorf("unexpected host status code %d", code),
		)
	}

	return &transport.Response{StatusCode: int(r.GetCode()), Body: r.GetBody()}, nil
}
