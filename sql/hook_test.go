package sql

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	sdk "github.com/bunnydb/sdk"
)

type hookCall struct {
	info  RequestInfo
	stats RequestStats
	token HookToken
	err   error
}

type recordingHook struct {
	mu     sync.Mutex
	starts int
	ends   []hookCall
}

type ctxKey struct{}

func (h *recordingHook) OnRequestStart(ctx context.Context, info RequestInfo) (context.Context, HookToken) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts++
	info.Header.Set("Traceparent", "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	return context.WithValue(ctx, ctxKey{}, "started"), info.RequestID
}

func (h *recordingHook) OnRequestEnd(ctx context.Context, token HookToken, info RequestInfo, stats *RequestStats, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ctx.Value(ctxKey{}) != "started" {
		panic("OnRequestEnd must receive the context returned by OnRequestStart")
	}
	h.ends = append(h.ends, hookCall{info: info, stats: *stats, token: token, err: err})
}

func TestHookPairing(t *testing.T) {
	t.Parallel()

	tr := &scriptedTransport{replies: []reply{{status: 503}, {status: 200, body: envelope(
		`{"type":"ok","response":{"type":"execute","result":{"cols":[],"rows":[],"affected_row_count":0,"last_insert_rowid":null}}}`,
		`{"type":"error","error":{"message":"boom"}}`,
		closeOK,
	)}}}
	hook := &recordingHook{}
	c, err := New(Config{
		URL:       "https://db.example.test/v2/pipeline",
		Token:     "secret-token",
		Options:   Options{MaxRetries: 1},
		Transport: tr,
		Hook:      hook,
		Sleep:     (&sleepRecorder{}).Sleep,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = c.Batch(context.Background(),
		ExecStatement("DELETE FROM t", Params{}),
		ExecStatement("DELETE FROM nope", Params{}),
	)
	if err != nil {
		t.Fatalf("Batch returned error: %v", err)
	}

	if hook.starts != 1 || len(hook.ends) != 1 {
		t.Fatalf("expected one start and one end, got %d/%d", hook.starts, len(hook.ends))
	}
	end := hook.ends[0]
	if end.err != nil {
		t.Fatalf("unexpected hook error: %v", end.err)
	}
	if end.info.RequestID == "" || end.token != end.info.RequestID {
		t.Fatalf("token and request id mismatch: %v / %q", end.token, end.info.RequestID)
	}
	if end.info.Operation != OperationBatch || end.info.Statements != 2 {
		t.Fatalf("unexpected info: %+v", end.info)
	}
	if end.stats.Attempts != 2 || end.stats.StatusCode != 200 || end.stats.SQLErrors != 1 {
		t.Fatalf("unexpected stats: %+v", end.stats)
	}
	if end.info.Header.Get("Authorization") != "" {
		t.Fatalf("hook info must not expose credentials")
	}

	for i, req := range tr.requests {
		if req.Header.Get("Traceparent") == "" {
			t.Fatalf("attempt %d missing hook header", i)
		}
		if req.Header.Get("Authorization") != "Bearer secret-token" {
			t.Fatalf("attempt %d authorization mismatch", i)
		}
	}
}

func TestHookSeesSingleStatementSQLError(t *testing.T) {
	t.Parallel()

	tr := &scriptedTransport{replies: []reply{{status: 200, body: envelope(
		`{"type":"error","error":{"message":"boom"}}`,
		closeOK,
	)}}}
	hook := &recordingHook{}
	c, err := New(Config{URL: "https://db.example.test/v2/pipeline", Token: "t", Transport: tr, Hook: hook})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := c.Execute(context.Background(), "DELETE FROM nope", Params{}); !errors.Is(err, sdk.ErrPipeline) {
		t.Fatalf("expected ErrPipeline, got %v", err)
	}
	if len(hook.ends) != 1 || !errors.Is(hook.ends[0].err, sdk.ErrPipeline) {
		t.Fatalf("hook should observe the pipeline error")
	}
}

type panickingHook struct{}

func (panickingHook) OnRequestStart(context.Context, RequestInfo) (context.Context, HookToken) {
	panic("start")
}

func (panickingHook) OnRequestEnd(context.Context, HookToken, RequestInfo, *RequestStats, error) {
	panic("end")
}

// recordingLogger keeps Error entries.
type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Error(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, message)
}

func (l *recordingLogger) Info(string)  {}
func (l *recordingLogger) Warn(string)  {}
func (l *recordingLogger) Debug(string) {}
func (l *recordingLogger) Trace(string) {}

func TestHookPanicsRecovered(t *testing.T) {
	t.Parallel()

	tr := &scriptedTransport{replies: []reply{{status: 200, body: envelope(closeOK)}}}
	logger := &recordingLogger{}
	c, err := New(Config{
		URL:       "https://db.example.test/v2/pipeline",
		Token:     "t",
		Transport: tr,
		Hook:      panickingHook{},
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := c.Batch(context.Background()); err != nil {
		t.Fatalf("Batch returned error: %v", err)
	}

	want := []string{"hook OnRequestStart panicked: start", "hook OnRequestEnd panicked: end"}
	if len(logger.errors) != len(want) {
		t.Fatalf("expected %d logged panics, got %q", len(want), logger.errors)
	}
	for i, w := range want {
		if !strings.HasPrefix(logger.errors[i], w) {
			t.Fatalf("entry %d: want prefix %q, got %q", i, w, logger.errors[i])
		}
	}
}
