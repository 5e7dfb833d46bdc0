package sql

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyParameterName indicates a named parameter whose name is empty
	// once its sigil is removed.
	ErrEmptyParameterName = errors.New("parameter name is empty")

	// ErrDuplicateParameter indicates the same named parameter was bound
	// more than once.
	ErrDuplicateParameter = errors.New("parameter bound more than once")
)

// NamedArg binds a value to a named placeholder.
type NamedArg struct {
	Name  string
	Value Value
}

// Param returns a NamedArg. The name may carry a leading ":", "@" or "$"
// sigil; all three bind the same placeholder.
func Param(name string, v Value) NamedArg {
	return NamedArg{Name: name, Value: v}
}

// Params holds statement parameters, either positional or named. The zero
// value binds no parameters.
type Params struct {
	positional []Value
	named      []NamedArg
}

// Positional returns parameters bound in placeholder order.
func Positional(values ...Value) Params {
	return Params{positional: append([]Value(nil), values...)}
}

// Named returns parameters bound by name. Names are normalized by stripping
// leading sigils, and a name that is empty or repeated after normalization
// is rejected.
func Named(args ...NamedArg) (Params, error) {
	seen := make(map[string]struct{}, len(args))
	named := make([]NamedArg, 0, len(args))
	for _, arg := range args {
		name := normalizeParamName(arg.Name)
		if name == "" {
			return Params{}, fmt.Errorf("%w: %q", ErrEmptyParameterName, arg.Name)
		}
		if _, dup := seen[name]; dup {
			return Params{}, fmt.Errorf("%w: %q", ErrDuplicateParameter, name)
		}
		seen[name] = struct{}{}
		named = append(named, NamedArg{Name: name, Value: arg.Value})
	}
	return Params{named: named}, nil
}

// MustNamed is like Named but panics on error.
func MustNamed(args ...NamedArg) Params {
	p, err := Named(args...)
	if err != nil {
		panic(err)
	}
	return p
}

// IsNamed reports whether p binds parameters by name.
func (p Params) IsNamed() bool { return len(p.named) > 0 }

// Len returns the number of bound parameters.
func (p Params) Len() int { return len(p.positional) + len(p.named) }

// Values returns a copy of the positional values.
func (p Params) Values() []Value { return append([]Value(nil), p.positional...) }

// NamedArgs returns a copy of the named arguments with normalized names.
func (p Params) NamedArgs() []NamedArg { return append([]NamedArg(nil), p.named...) }

func normalizeParamName(name string) string {
	return strings.TrimLeft(name, ":@$")
}

// Statement is one SQL statement with its parameters. WantRows asks the
// server to return a row set.
type Statement struct {
	SQL      string
	Params   Params
	WantRows bool
}

// QueryStatement returns a Statement that expects rows.
func QueryStatement(sql string, params Params) Statement {
	return Statement{SQL: sql, Params: params, WantRows: true}
}

// ExecStatement returns a Statement that does not expect rows.
func ExecStatement(sql string, params Params) Statement {
	return Statement{SQL: sql, Params: params}
}
