package sql

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Operation names the client method that issued a pipeline request.
type Operation string

const (
	OperationQuery   Operation = "query"
	OperationExecute Operation = "execute"
	OperationBatch   Operation = "batch"
)

// Hook provides observability callpoints around each pipeline call.
// Implementations must be safe for concurrent use.
//
// OnRequestStart may add headers to info.Header; they are sent on every
// attempt of the call. A panicking hook is recovered and logged.
type Hook interface {
	OnRequestStart(ctx context.Context, info RequestInfo) (context.Context, HookToken)
	OnRequestEnd(ctx context.Context, token HookToken, info RequestInfo, stats *RequestStats, err error)
}

// HookToken is an opaque value returned by OnRequestStart and passed back to
// OnRequestEnd. Only meaningful to the Hook that created it.
type HookToken interface{}

// RequestInfo describes a pipeline call.
type RequestInfo struct {
	RequestID  string
	Operation  Operation
	Statements int
	URL        string
	Header     http.Header
}

// RequestStats holds per-call counters reported to OnRequestEnd.
type RequestStats struct {
	Attempts int
	Duration time.Duration
	// StatusCode is the last HTTP status seen, or zero if none.
	StatusCode   int
	RequestBytes int
	// ResponseBytes is the size of the last response body.
	ResponseBytes int
	// SQLErrors counts statements rejected by the database.
	SQLErrors int
	// Rows counts rows returned across all statements.
	Rows int
}

func (c *DBClient) hookStart(ctx context.Context, info RequestInfo) (rctx context.Context, token HookToken) {
	if c.hook == nil {
		return ctx, nil
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("hook OnRequestStart panicked: " + fmt.Sprint(r) + " request_id=" + info.RequestID)
			rctx, token = ctx, nil
		}
	}()
	rctx, token = c.hook.OnRequestStart(ctx, info)
	if rctx == nil {
		rctx = ctx
	}
	return rctx, token
}

func (c *DBClient) hookEnd(ctx context.Context, token HookToken, info RequestInfo, stats *RequestStats, err error) {
	if c.hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("hook OnRequestEnd panicked: " + fmt.Sprint(r) + " request_id=" + info.RequestID)
		}
	}()
	c.hook.OnRequestEnd(ctx, token, info, stats, err)
}
