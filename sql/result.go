package sql

// Col describes a result column. DeclType is empty when the server does not
// report a declared type.
type Col struct {
	Name     string
	DeclType string
}

// QueryResult is the decoded row set of a statement that wanted rows. Every
// row holds exactly len(Cols) values.
type QueryResult struct {
	Cols             []Col
	Rows             [][]Value
	ReplicationIndex string
	RowsRead         *uint64
	RowsWritten      *uint64
	QueryDurationMS  *float64
}

// ExecResult is the decoded outcome of a statement that did not want rows.
type ExecResult struct {
	AffectedRowCount uint64
	// LastInsertRowID is nil when the server did not report one.
	LastInsertRowID  *int64
	ReplicationIndex string
	RowsRead         *uint64
	RowsWritten      *uint64
	QueryDurationMS  *float64
}

// OutcomeKind identifies the variant of a StatementOutcome.
type OutcomeKind uint8

const (
	OutcomeExec OutcomeKind = iota
	OutcomeQuery
	OutcomeSQLError
)

// String returns a short name for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeExec:
		return "exec"
	case OutcomeQuery:
		return "query"
	case OutcomeSQLError:
		return "sql_error"
	default:
		return "unknown"
	}
}

// StatementOutcome is the result of one statement in a batch. Exactly one
// of Exec, Query or SQLError is set, as selected by Kind.
type StatementOutcome struct {
	Kind     OutcomeKind
	Exec     *ExecResult
	Query    *QueryResult
	SQLError *PipelineError
}

// Err returns the statement's SQL error, or nil.
func (o StatementOutcome) Err() error {
	if o.SQLError == nil {
		return nil
	}
	return o.SQLError
}
