package hostmock

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnexpectedNamespace is returned when the namespace is not as expected.
	ErrUnexpectedNamespace = errors.New("unexpected namespace")

	// ErrUnexpectedCapability is returned when the capability is not as expected.
	ErrUnexpectedCapability = errors.New("unexpected capability")

	// ErrUnexpectedFunction is returned when the function is not as expected.
	ErrUnexpectedFunction = errors.New("unexpected function")

	// ErrOperationFailed is returned when Fail is set without a custom error.
	ErrOperationFailed = errors.New("operation failed")

	// ErrInvalidConfig is returned by New when both Replies and Response are set.
	ErrInvalidConfig = errors.New("replies and response are mutually exclusive")
)

// Reply is one scripted host answer.
type Reply struct {
	// Payload is returned as the host response bytes.
	Payload []byte
	// Err, when set, is returned alongside Payload.
	Err error
}

// Call records a single host invocation.
type Call struct {
	Namespace  string
	Capability string
	Function   string
	Payload    []byte
}

// Config represents the configuration for creating a Mock instance.
//
// Empty Expected* fields match any value.
type Config struct {
	// ExpectedNamespace defines the namespace expected in the host call.
	ExpectedNamespace string

	// ExpectedCapability defines the capability expected in the host call.
	ExpectedCapability string

	// ExpectedFunction defines the function name expected in the host call.
	ExpectedFunction string

	// PayloadValidator validates the payload passed to the host call.
	PayloadValidator func([]byte) error

	// Replies are returned in order, one per call. The last reply repeats
	// once the list is exhausted.
	Replies []Reply

	// Response builds the response for every call when Replies is empty.
	Response func() []byte

	// Fail makes every call return Error, or ErrOperationFailed when Error
	// is nil.
	Fail bool

	// Error is the error to return if the mock is configured to fail.
	Error error
}

// Mock simulates a waPC host. It is safe for concurrent use.
type Mock struct {
	cfg Config

	mu    sync.Mutex
	calls []Call
}

// New creates a new instance of the Mock based on the provided Config.
func New(config Config) (*Mock, error) {
	if len(config.Replies) > 0 && config.Response != nil {
		return nil, ErrInvalidConfig
	}
	return &Mock{cfg: config}, nil
}

// HostCall simulates a host call, validating inputs and returning a response or error.
func (m *Mock) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{
		Namespace:  namespace,
		Capability: capability,
		Function:   function,
		Payload:    append([]byte(nil), payload...),
	})
	n := len(m.calls)
	m.mu.Unlock()

	if m.cfg.Fail {
		if m.cfg.Error != nil {
			return nil, m.cfg.Error
		}
		return nil, ErrOperationFailed
	}

	if err := expect(ErrUnexpectedNamespace, "namespace", m.cfg.ExpectedNamespace, namespace); err != nil {
		return nil, err
	}
	if err := expect(ErrUnexpectedCapability, "capability", m.cfg.ExpectedCapability, capability); err != nil {
		return nil, err
	}
	if err := expect(ErrUnexpectedFunction, "function", m.cfg.ExpectedFunction, function); err != nil {
		return nil, err
	}

	if m.cfg.PayloadValidator != nil {
		if err := m.cfg.PayloadValidator(payload); err != nil {
			return nil, err
		}
	}

	if len(m.cfg.Replies) > 0 {
		r := m.cfg.Replies[len(m.cfg.Replies)-1]
		if n <= len(m.cfg.Replies) {
			r = m.cfg.Replies[n-1]
		}
		return r.Payload, r.Err
	}

	if m.cfg.Response != nil {
		return m.cfg.Response(), nil
	}

	return nil, nil
}

// Calls returns a copy of every recorded invocation, in order.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallCount returns the number of recorded invocations.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func expect(sentinel error, field, want, got string) error {
	if want == "" || want == got {
		return nil
	}
	return fmt.Errorf("%w: expected %s %s, got %s", sentinel, field, want, got)
}
