package metrics

import (
	"context"

	"github.com/bunnydb/sdk/sql"
)

// PipelineHook adapts a Client to sql.Hook. Install it with sql.Config.Hook.
type PipelineHook struct {
	client Client
}

// Ensure PipelineHook satisfies the sql.Hook interface at compile time.
var _ sql.Hook = (*PipelineHook)(nil)

// NewPipelineHook returns a hook that reports every pipeline call to c.
func NewPipelineHook(c Client) *PipelineHook {
	return &PipelineHook{client: c}
}

// OnRequestStart marks a call as in flight.
func (h *PipelineHook) OnRequestStart(ctx context.Context, _ sql.RequestInfo) (context.Context, sql.HookToken) {
	h.client.Started()
	return ctx, nil
}

// OnRequestEnd records the outcome of a call.
func (h *PipelineHook) OnRequestEnd(_ context.Context, _ sql.HookToken, _ sql.RequestInfo, stats *sql.RequestStats, err error) {
	call := Call{Failed: err != nil}
	if stats != nil {
		call.Attempts = stats.Attempts
		call.StatementErrors = stats.SQLErrors
		call.Rows = stats.Rows
		call.Duration = stats.Duration
	}
	h.client.Finished(call)
}
