package sql

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	sdk "github.com/bunnydb/sdk"
)

const (
	requestTypeExecute = "execute"
	requestTypeClose   = "close"

	resultTypeOK    = "ok"
	resultTypeError = "error"
)

// pipelineRequest is the top-level request envelope.
type pipelineRequest struct {
	Requests []streamRequest `json:"requests"`
}

type streamRequest struct {
	Type string    `json:"type"`
	Stmt *wireStmt `json:"stmt,omitempty"`
}

type wireStmt struct {
	SQL       string         `json:"sql"`
	Args      []wireValue    `json:"args,omitempty"`
	NamedArgs []wireNamedArg `json:"named_args,omitempty"`
	WantRows  bool           `json:"want_rows"`
}

type wireNamedArg struct {
	Name  string    `json:"name"`
	Value wireValue `json:"value"`
}

// wireValue is the tagged JSON form of a Value. Value holds a string for
// integers and text, a float64 for floats, base64 text for blobs, and nil
// for NULL.
type wireValue struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

// pipelineResponse is the top-level response envelope.
type pipelineResponse struct {
	Baton   *string        `json:"baton,omitempty"`
	BaseURL *string        `json:"base_url,omitempty"`
	Results []streamResult `json:"results"`
}

type streamResult struct {
	Type     string          `json:"type"`
	Response *streamResponse `json:"response,omitempty"`
	Error    *streamError    `json:"error,omitempty"`
}

type streamResponse struct {
	Type   string         `json:"type"`
	Result *executeResult `json:"result,omitempty"`
}

type streamError struct {
	Message string  `json:"message"`
	Code    *string `json:"code,omitempty"`
}

type executeResult struct {
	Cols             []wireCol        `json:"cols"`
	Rows             [][]rawWireValue `json:"rows"`
	AffectedRowCount uint64           `json:"affected_row_count"`
	LastInsertRowID  *string          `json:"last_insert_rowid"`
	ReplicationIndex *string          `json:"replication_index,omitempty"`
	RowsRead         *uint64          `json:"rows_read,omitempty"`
	RowsWritten      *uint64          `json:"rows_written,omitempty"`
	QueryDurationMS  *float64         `json:"query_duration_ms,omitempty"`
}

type wireCol struct {
	Name     string  `json:"name"`
	DeclType *string `json:"decltype"`
}

// rawWireValue defers decoding of the payload until the type tag is known.
type rawWireValue struct {
	Type   string          `json:"type"`
	Value  json.RawMessage `json:"value"`
	Base64 json.RawMessage `json:"base64"`
}

// encodeValue converts v into its wire form.
func encodeValue(v Value) (wireValue, error) {
	switch v.kind {
	case KindNull:
		return wireValue{Type: "null"}, nil
	case KindInteger:
		return wireValue{Type: "integer", Value: strconv.FormatInt(v.i, 10)}, nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return wireValue{}, errors.Join(sdk.ErrEncoding, fmt.Errorf("non-finite float %v", v.f))
		}
		return wireValue{Type: "float", Value: v.f}, nil
	case KindText:
		return wireValue{Type: "text", Value: v.s}, nil
	case KindBlob:
		return wireValue{Type: "blob", Value: base64.StdEncoding.EncodeToString(v.b)}, nil
	default:
		return wireValue{}, errors.Join(sdk.ErrEncoding, fmt.Errorf("unknown value kind %d", v.kind))
	}
}

// decodeValue converts a wire value into a Value.
func decodeValue(raw rawWireValue) (Value, error) {
	switch raw.Type {
	case "null":
		return Null(), nil

	case "integer":
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return Value{}, errors.Join(sdk.ErrDecode, fmt.Errorf("integer value must be a string: %w", err))
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, errors.Join(sdk.ErrDecode, fmt.Errorf("invalid integer %q: %w", s, err))
		}
		return Integer(i), nil

	case "float":
		f, err := decodeFloat(raw.Value)
		if err != nil {
			return Value{}, errors.Join(sdk.ErrDecode, err)
		}
		return Float(f), nil

	case "text":
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return Value{}, errors.Join(sdk.ErrDecode, fmt.Errorf("text value must be a string: %w", err))
		}
		return Text(s), nil

	case "blob":
		payload := raw.Value
		if isAbsent(payload) {
			payload = raw.Base64
		}
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return Value{}, errors.Join(sdk.ErrDecode, fmt.Errorf("blob value must be a string: %w", err))
		}
		b, err := decodeBase64(s)
		if err != nil {
			return Value{}, errors.Join(sdk.ErrDecode, fmt.Errorf("invalid base64 blob: %w", err))
		}
		return Value{kind: KindBlob, b: b}, nil

	default:
		return Value{}, errors.Join(sdk.ErrDecode, fmt.Errorf("unknown value type %q", raw.Type))
	}
}

// decodeBase64 accepts standard base64 with or without padding.
func decodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return b, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

// decodeFloat accepts a JSON number or a string holding one.
func decodeFloat(payload json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(payload, &f); err != nil {
		var s string
		if strErr := json.Unmarshal(payload, &s); strErr != nil {
			return 0, fmt.Errorf("float value must be a number: %w", err)
		}
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid float %q: %w", s, err)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite float %v", f)
	}
	return f, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
