package sql

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	sdk "github.com/bunnydb/sdk"
)

// buildRequest encodes statements as execute operations followed by a
// single close operation.
func buildRequest(statements []Statement) (pipelineRequest, error) {
	req := pipelineRequest{Requests: make([]streamRequest, 0, len(statements)+1)}
	for i, stmt := range statements {
		ws, err := encodeStatement(stmt)
		if err != nil {
			return pipelineRequest{}, fmt.Errorf("statement %d: %w", i, err)
		}
		req.Requests = append(req.Requests, streamRequest{Type: requestTypeExecute, Stmt: ws})
	}
	req.Requests = append(req.Requests, streamRequest{Type: requestTypeClose})
	return req, nil
}

func encodeStatement(stmt Statement) (*wireStmt, error) {
	ws := &wireStmt{SQL: stmt.SQL, WantRows: stmt.WantRows}

	for i, v := range stmt.Params.positional {
		wv, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		ws.Args = append(ws.Args, wv)
	}

	for _, arg := range stmt.Params.named {
		wv, err := encodeValue(arg.Value)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", arg.Name, err)
		}
		ws.NamedArgs = append(ws.NamedArgs, wireNamedArg{Name: arg.Name, Value: wv})
	}

	return ws, nil
}

// marshalRequest serializes the envelope for statements.
func marshalRequest(statements []Statement) ([]byte, error) {
	req, err := buildRequest(statements)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Join(sdk.ErrEncoding, err)
	}
	return b, nil
}

// parseResponse decodes a response envelope and checks that it carries one
// result per requested operation.
func parseResponse(body []byte, expectedOps int) (pipelineResponse, error) {
	var resp pipelineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return pipelineResponse{}, errors.Join(sdk.ErrDecode, fmt.Errorf("malformed response envelope: %w", err))
	}
	if resp.Results == nil {
		return pipelineResponse{}, errors.Join(sdk.ErrDecode, errors.New("response envelope has no results"))
	}
	if len(resp.Results) != expectedOps {
		return pipelineResponse{}, errors.Join(
			sdk.ErrDecode,
			fmt.Errorf("expected %d results, got %d", expectedOps, len(resp.Results)),
		)
	}
	return resp, nil
}

// decodeResult converts the result at index into an outcome. SQL errors are
// returned as OutcomeSQLError outcomes; only malformed results fail.
func decodeResult(index int, result streamResult, wantRows bool) (StatementOutcome, error) {
	switch result.Type {
	case resultTypeError:
		return StatementOutcome{Kind: OutcomeSQLError, SQLError: pipelineErrorAt(index, result.Error)}, nil

	case resultTypeOK:
		if result.Response == nil || result.Response.Type != requestTypeExecute {
			return StatementOutcome{}, decodeErrorAt(index, errors.New("expected an execute response"))
		}
		payload := result.Response.Result
		if payload == nil {
			return StatementOutcome{}, decodeErrorAt(index, errors.New("execute response has no result"))
		}

		reportsRows := payload.Cols != nil
		switch {
		case wantRows && !reportsRows:
			return StatementOutcome{}, decodeErrorAt(index, errors.New("expected rows but result has no columns"))
		case !wantRows && len(payload.Rows) > 0:
			return StatementOutcome{}, decodeErrorAt(index, errors.New("unexpected rows in exec result"))
		case wantRows:
			q, err := decodeQuery(payload)
			if err != nil {
				return StatementOutcome{}, decodeErrorAt(index, err)
			}
			return StatementOutcome{Kind: OutcomeQuery, Query: &q}, nil
		default:
			e, err := decodeExec(payload)
			if err != nil {
				return StatementOutcome{}, decodeErrorAt(index, err)
			}
			return StatementOutcome{Kind: OutcomeExec, Exec: &e}, nil
		}

	default:
		return StatementOutcome{}, decodeErrorAt(index, fmt.Errorf("unknown result type %q", result.Type))
	}
}

func decodeQuery(payload *executeResult) (QueryResult, error) {
	q := QueryResult{
		Cols:            make([]Col, len(payload.Cols)),
		Rows:            make([][]Value, 0, len(payload.Rows)),
		RowsRead:        payload.RowsRead,
		RowsWritten:     payload.RowsWritten,
		QueryDurationMS: payload.QueryDurationMS,
	}
	if payload.ReplicationIndex != nil {
		q.ReplicationIndex = *payload.ReplicationIndex
	}
	for i, c := range payload.Cols {
		q.Cols[i] = Col{Name: c.Name}
		if c.DeclType != nil {
			q.Cols[i].DeclType = *c.DeclType
		}
	}

	for r, raw := range payload.Rows {
		if len(raw) != len(q.Cols) {
			return QueryResult{}, fmt.Errorf("row %d has %d values, want %d", r, len(raw), len(q.Cols))
		}
		row := make([]Value, len(raw))
		for c, rv := range raw {
			v, err := decodeValue(rv)
			if err != nil {
				return QueryResult{}, fmt.Errorf("row %d column %d: %w", r, c, err)
			}
			row[c] = v
		}
		q.Rows = append(q.Rows, row)
	}
	return q, nil
}

func decodeExec(payload *executeResult) (ExecResult, error) {
	e := ExecResult{
		AffectedRowCount: payload.AffectedRowCount,
		RowsRead:         payload.RowsRead,
		RowsWritten:      payload.RowsWritten,
		QueryDurationMS:  payload.QueryDurationMS,
	}
	if payload.ReplicationIndex != nil {
		e.ReplicationIndex = *payload.ReplicationIndex
	}
	if payload.LastInsertRowID != nil {
		id, err := strconv.ParseInt(*payload.LastInsertRowID, 10, 64)
		if err != nil {
			return ExecResult{}, fmt.Errorf("invalid last_insert_rowid %q: %w", *payload.LastInsertRowID, err)
		}
		e.LastInsertRowID = &id
	}
	return e, nil
}

// checkClose validates the trailing close result.
func checkClose(index int, result streamResult) error {
	switch result.Type {
	case resultTypeOK:
		if result.Response == nil || result.Response.Type != requestTypeClose {
			return decodeErrorAt(index, errors.New("expected a close response"))
		}
		return nil
	case resultTypeError:
		return pipelineErrorAt(index, result.Error)
	default:
		return decodeErrorAt(index, fmt.Errorf("unknown result type %q", result.Type))
	}
}

func pipelineErrorAt(index int, e *streamError) *PipelineError {
	pe := &PipelineError{RequestIndex: index}
	if e != nil {
		pe.Message = e.Message
		if e.Code != nil {
			pe.Code = *e.Code
		}
	}
	return pe
}

func decodeErrorAt(index int, err error) error {
	if errors.Is(err, sdk.ErrDecode) {
		return fmt.Errorf("result %d: %w", index, err)
	}
	return errors.Join(sdk.ErrDecode, fmt.Errorf("result %d: %w", index, err))
}
