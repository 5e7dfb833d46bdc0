package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	sdk "github.com/bunnydb/sdk"
	"github.com/bunnydb/sdk/hostmock"
	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
)

// describe renders a recorded metrics call as "function name[=value]".
func describe(t *testing.T, call hostmock.Call) string {
	t.Helper()

	switch call.Function {
	case fnCounter:
		var m proto.MetricsCounter
		if err := m.UnmarshalVT(call.Payload); err != nil {
			t.Fatalf("counter payload: %v", err)
		}
		return "counter " + m.GetName()
	case fnGauge:
		var m proto.MetricsGauge
		if err := m.UnmarshalVT(call.Payload); err != nil {
			t.Fatalf("gauge payload: %v", err)
		}
		return "gauge " + m.GetName() + " " + m.GetAction()
	case fnHistogram:
		var m proto.MetricsHistogram
		if err := m.UnmarshalVT(call.Payload); err != nil {
			t.Fatalf("histogram payload: %v", err)
		}
		return fmt.Sprintf("histogram %s=%g", m.GetName(), m.GetValue())
	default:
		t.Fatalf("unexpected function %q", call.Function)
		return ""
	}
}

func newRecorderUnderTest(t *testing.T, cfg Config, replies ...hostmock.Reply) (*Recorder, *hostmock.Mock) {
	t.Helper()

	mock, err := hostmock.New(hostmock.Config{
		ExpectedNamespace:  cfg.SDKConfig.WithDefaults().Namespace,
		ExpectedCapability: capabilityName,
		Replies:            replies,
	})
	if err != nil {
		t.Fatalf("hostmock: %v", err)
	}
	cfg.HostCall = mock.HostCall
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return r, mock
}

func assertCalls(t *testing.T, mock *hostmock.Mock, want []string) {
	t.Helper()

	calls := mock.Calls()
	if len(calls) != len(want) {
		got := make([]string, len(calls))
		for i, c := range calls {
			got[i] = describe(t, c)
		}
		t.Fatalf("expected %d calls, got %d: %q", len(want), len(calls), got)
	}
	for i, w := range want {
		if calls[i].Capability != capabilityName {
			t.Fatalf("call %d: unexpected capability %q", i, calls[i].Capability)
		}
		if got := describe(t, calls[i]); got != w {
			t.Fatalf("call %d: want %q, got %q", i, w, got)
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name       string
		cfg        Config
		wantNS     string
		wantPrefix string
		wantErr    error
	}{
		{
			name:       "defaults",
			wantNS:     sdk.DefaultNamespace,
			wantPrefix: DefaultPrefix,
		},
		{
			name:       "custom namespace and prefix",
			cfg:        Config{SDKConfig: sdk.RuntimeConfig{Namespace: "custom"}, Prefix: "orders:db"},
			wantNS:     "custom",
			wantPrefix: "orders:db",
		},
		{
			name:    "prefix with space",
			cfg:     Config{Prefix: "orders db"},
			wantErr: ErrInvalidMetricName,
		},
		{
			name:    "prefix with dash",
			cfg:     Config{Prefix: "orders-db"},
			wantErr: ErrInvalidMetricName,
		},
		{
			name:    "whitespace prefix",
			cfg:     Config{Prefix: " \n\t "},
			wantErr: ErrInvalidMetricName,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r, err := New(tc.cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("unexpected error: want %v got %v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}
			if r.namespace != tc.wantNS {
				t.Fatalf("namespace mismatch: want %q, got %q", tc.wantNS, r.namespace)
			}
			if got := r.Name(SuffixRequests); got != tc.wantPrefix+"_requests_total" {
				t.Fatalf("name mismatch: got %q", got)
			}
			if r.hostCall == nil {
				t.Fatal("expected default host call")
			}
		})
	}
}

func TestRecorderStarted(t *testing.T) {
	t.Parallel()

	r, mock := newRecorderUnderTest(t, Config{SDKConfig: sdk.RuntimeConfig{Namespace: "tarmac"}, Prefix: "db"})
	r.Started()

	assertCalls(t, mock, []string{"gauge db_requests_in_flight inc"})
}

func TestRecorderFinished(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		call Call
		want []string
	}{
		{
			name: "single attempt success",
			call: Call{Attempts: 1, Rows: 3, Duration: 250 * time.Millisecond},
			want: []string{
				"gauge db_requests_in_flight dec",
				"counter db_requests_total",
				"histogram db_request_attempts=1",
				"histogram db_statement_errors=0",
				"histogram db_request_duration_seconds=0.25",
				"histogram db_rows_returned=3",
			},
		},
		{
			name: "retried failure with statement errors",
			call: Call{Failed: true, Attempts: 3, StatementErrors: 2, Rows: 4, Duration: 1500 * time.Millisecond},
			want: []string{
				"gauge db_requests_in_flight dec",
				"counter db_requests_total",
				"counter db_request_errors_total",
				"counter db_retried_requests_total",
				"histogram db_request_attempts=3",
				"histogram db_statement_errors=2",
				"histogram db_request_duration_seconds=1.5",
				"histogram db_rows_returned=4",
			},
		},
		{
			name: "rejected before any attempt",
			call: Call{Failed: true},
			want: []string{
				"gauge db_requests_in_flight dec",
				"counter db_requests_total",
				"counter db_request_errors_total",
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r, mock := newRecorderUnderTest(t, Config{Prefix: "db"})
			r.Finished(tc.call)
			assertCalls(t, mock, tc.want)
		})
	}
}

func TestRecorderHostFailuresIgnored(t *testing.T) {
	t.Parallel()

	r, mock := newRecorderUnderTest(t, Config{}, hostmock.Reply{Err: errors.New("host failure should not panic")})
	r.Started()
	r.Finished(Call{Attempts: 2})

	if mock.CallCount() != 8 {
		t.Fatalf("expected 8 host calls, got %d", mock.CallCount())
	}
	if got := describe(t, mock.Calls()[0]); got != "gauge "+DefaultPrefix+"_requests_in_flight inc" {
		t.Fatalf("unexpected first call %q", got)
	}
}
