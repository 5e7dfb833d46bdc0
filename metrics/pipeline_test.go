package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bunnydb/sdk/sql"
	"github.com/bunnydb/sdk/transport"
)

// fakeClient records the calls a PipelineHook reports.
type fakeClient struct {
	mu       sync.Mutex
	started  int
	finished []Call
}

func (f *fakeClient) Started() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
}

func (f *fakeClient) Finished(call Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, call)
}

func TestPipelineHookReports(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name  string
		stats *sql.RequestStats
		err   error
		want  Call
	}{
		{
			name: "failed retried call",
			stats: &sql.RequestStats{
				Attempts:  3,
				Duration:  1500 * time.Millisecond,
				SQLErrors: 2,
				Rows:      4,
			},
			err:  errors.New("boom"),
			want: Call{Failed: true, Attempts: 3, StatementErrors: 2, Rows: 4, Duration: 1500 * time.Millisecond},
		},
		{
			name:  "successful call",
			stats: &sql.RequestStats{Attempts: 1, Rows: 1},
			want:  Call{Attempts: 1, Rows: 1},
		},
		{
			name: "missing stats",
			err:  errors.New("boom"),
			want: Call{Failed: true},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fc := &fakeClient{}
			hook := NewPipelineHook(fc)

			info := sql.RequestInfo{Operation: sql.OperationBatch}
			ctx, token := hook.OnRequestStart(context.Background(), info)
			hook.OnRequestEnd(ctx, token, info, tc.stats, tc.err)

			if fc.started != 1 {
				t.Fatalf("expected 1 start, got %d", fc.started)
			}
			if len(fc.finished) != 1 || fc.finished[0] != tc.want {
				t.Fatalf("unexpected finished calls: %+v", fc.finished)
			}
		})
	}
}

type staticTransport struct{ body string }

func (s staticTransport) Do(context.Context, *transport.Request) (*transport.Response, error) {
	return &transport.Response{StatusCode: 200, Body: []byte(s.body)}, nil
}

func TestPipelineHookWithClient(t *testing.T) {
	t.Parallel()

	rec, mock := newRecorderUnderTest(t, Config{})

	client, err := sql.New(sql.Config{
		URL:   "https://db.example.test/v2/pipeline",
		Token: "t",
		Transport: staticTransport{body: `{"results":[` +
			`{"type":"ok","response":{"type":"execute","result":{"cols":[{"name":"a"}],"rows":[[{"type":"null"}]],"affected_row_count":0,"last_insert_rowid":null}}},` +
			`{"type":"ok","response":{"type":"close"}}]}`},
		Hook: NewPipelineHook(rec),
	})
	if err != nil {
		t.Fatalf("sql.New returned error: %v", err)
	}

	if _, err := client.Query(context.Background(), "SELECT NULL", sql.Params{}); err != nil {
		t.Fatalf("Query returned error: %v", err)
	}

	seen := map[string]int{}
	for _, call := range mock.Calls() {
		seen[describe(t, call)]++
	}
	if seen["counter "+rec.Name(SuffixRequests)] != 1 {
		t.Fatalf("expected one request counted, got %v", seen)
	}
	if seen["histogram "+rec.Name(SuffixRows)+"=1"] != 1 {
		t.Fatalf("expected one row observed, got %v", seen)
	}
	if seen["histogram "+rec.Name(SuffixAttempts)+"=1"] != 1 {
		t.Fatalf("expected one attempt observed, got %v", seen)
	}
	if seen["counter "+rec.Name(SuffixFailures)] != 0 || seen["counter "+rec.Name(SuffixRetried)] != 0 {
		t.Fatalf("unexpected failure counts: %v", seen)
	}
}
