package metrics

import (
	"errors"
	"regexp"
	"time"

	sdk "github.com/bunnydb/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	capabilityName = "metrics"
	fnCounter      = "counter"
	fnGauge        = "gauge"
	fnHistogram    = "histogram"
	actionInc      = "inc"
	actionDec      = "dec"
)

// DefaultPrefix is the metric name prefix used when none is configured.
const DefaultPrefix = "sql_pipeline"

// Metric name suffixes. Full names are the configured prefix followed by
// the suffix.
const (
	SuffixRequests        = "_requests_total"
	SuffixFailures        = "_request_errors_total"
	SuffixRetried         = "_retried_requests_total"
	SuffixInFlight        = "_requests_in_flight"
	SuffixAttempts        = "_request_attempts"
	SuffixStatementErrors = "_statement_errors"
	SuffixDuration        = "_request_duration_seconds"
	SuffixRows            = "_rows_returned"
)

var (
	// ErrInvalidMetricName indicates a metric prefix that does not match the supported format.
	ErrInvalidMetricName = errors.New("metric name is invalid")

	// isMetricNameValid validates metric names using the same pattern as tarmac callback validation.
	isMetricNameValid = regexp.MustCompile(`^[a-zA-Z0-9_:][a-zA-Z0-9_:]*$`)
)

// HostCall defines the waPC host function signature used by metrics operations.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Client records pipeline client calls.
type Client interface {
	// Started marks a call as in flight.
	Started()

	// Finished records the outcome of a call previously passed to Started.
	Finished(call Call)
}

// Call summarises one finished pipeline call.
type Call struct {
	Failed          bool
	Attempts        int
	StatementErrors int
	Rows            int
	Duration        time.Duration
}

// Config controls how a Recorder interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig sdk.RuntimeConfig

	// Prefix is prepended to every metric name. Defaults to DefaultPrefix.
	Prefix string

	// HostCall overrides the waPC host function used for metrics operations.
	HostCall HostCall
}

// Recorder emits pipeline metrics through the host metrics capability.
// Emission is best-effort: marshal and host-call failures are dropped.
type Recorder struct {
	namespace string
	prefix    string
	hostCall  HostCall
}

// Ensure Recorder satisfies the Client interface at compile time.
var _ Client = (*Recorder)(nil)

// New creates a Recorder. It returns ErrInvalidMetricName when the prefix
// cannot form valid metric names.
func New(config Config) (*Recorder, error) {
	runtime := config.SDKConfig.WithDefaults()

	prefix := config.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !isMetricNameValid.MatchString(prefix) {
		return nil, ErrInvalidMetricName
	}

	hostCall := config.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &Recorder{namespace: runtime.Namespace, prefix: prefix, hostCall: hostCall}, nil
}

// Name returns the full metric name for suffix.
func (r *Recorder) Name(suffix string) string {
	return r.prefix + suffix
}

// Started increments the in-flight gauge.
func (r *Recorder) Started() {
	r.gauge(SuffixInFlight, actionInc)
}

// Finished decrements the in-flight gauge and records the call. A call that
// never reached the network (zero attempts) only updates the counters.
func (r *Recorder) Finished(call Call) {
	r.gauge(SuffixInFlight, actionDec)
	r.counter(SuffixRequests)
	if call.Failed {
		r.counter(SuffixFailures)
	}
	if call.Attempts == 0 {
		return
	}
	if call.Attempts > 1 {
		r.counter(SuffixRetried)
	}
	r.observe(SuffixAttempts, float64(call.Attempts))
	r.observe(SuffixStatementErrors, float64(call.StatementErrors))
	r.observe(SuffixDuration, call.Duration.Seconds())
	r.observe(SuffixRows, float64(call.Rows))
}

func (r *Recorder) counter(suffix string) {
	payload, err := (&proto.MetricsCounter{Name: r.Name(suffix)}).MarshalVT()
	if err != nil {
		return
	}
	_, _ = r.hostCall(r.namespace, capabilityName, fnCounter, payload)
}

func (r *Recorder) gauge(suffix, action string) {
	payload, err := (&proto.MetricsGauge{Name: r.Name(suffix), Action: action}).MarshalVT()
	if err != nil {
		return
	}
	_, _ = r.hostCall(r.namespace, capabilityName, fnGauge, payload)
}

func (r *Recorder) observe(suffix string, value float64) {
	payload, err := (&proto.MetricsHistogram{Name: r.Name(suffix), Value: value}).MarshalVT()
	if err != nil {
		return
	}
	_, _ = r.hostCall(r.namespace, capabilityName, fnHistogram, payload)
}
