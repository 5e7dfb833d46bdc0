package sql

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNamed(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name      string
		args      []NamedArg
		wantNames []string
		wantErr   error
	}{
		{
			name:      "sigils stripped",
			args:      []NamedArg{Param(":a", Integer(1)), Param("@b", Integer(2)), Param("$c", Integer(3)), Param("d", Null())},
			wantNames: []string{"a", "b", "c", "d"},
		},
		{
			name:    "empty after sigil",
			args:    []NamedArg{Param(":", Integer(1))},
			wantErr: ErrEmptyParameterName,
		},
		{
			name:    "empty name",
			args:    []NamedArg{Param("", Integer(1))},
			wantErr: ErrEmptyParameterName,
		},
		{
			name:    "duplicate across sigils",
			args:    []NamedArg{Param(":id", Integer(1)), Param("$id", Integer(2))},
			wantErr: ErrDuplicateParameter,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p, err := Named(tc.args...)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !p.IsNamed() || p.Len() != len(tc.wantNames) {
				t.Fatalf("unexpected params: named=%v len=%d", p.IsNamed(), p.Len())
			}
			for i, arg := range p.NamedArgs() {
				if arg.Name != tc.wantNames[i] {
					t.Fatalf("name %d: want %q, got %q", i, tc.wantNames[i], arg.Name)
				}
			}
		})
	}
}

func TestMustNamedPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustNamed(Param("", Null()))
}

func TestNamedSigilEquivalence(t *testing.T) {
	t.Parallel()

	var encoded []string
	for _, name := range []string{":id", "@id", "$id", "id"} {
		stmt := QueryStatement("SELECT * FROM t WHERE id = :id", MustNamed(Param(name, Integer(7))))
		ws, err := encodeStatement(stmt)
		if err != nil {
			t.Fatalf("encode %q: %v", name, err)
		}
		b, err := json.Marshal(ws)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		encoded = append(encoded, string(b))
	}

	want := `{"sql":"SELECT * FROM t WHERE id = :id","named_args":[{"name":"id","value":{"type":"integer","value":"7"}}],"want_rows":true}`
	for i, got := range encoded {
		if got != want {
			t.Fatalf("encoding %d: want %s, got %s", i, want, got)
		}
	}
}

func TestPositionalCopiesInput(t *testing.T) {
	t.Parallel()

	in := []Value{Integer(1), Integer(2)}
	p := Positional(in...)
	in[0] = Text("changed")

	got := p.Values()
	if !got[0].Equal(Integer(1)) || p.IsNamed() || p.Len() != 2 {
		t.Fatalf("unexpected params: %v", got)
	}

	var zero Params
	if zero.Len() != 0 || zero.IsNamed() {
		t.Fatalf("zero Params should bind nothing")
	}
}

func TestStatementConstructors(t *testing.T) {
	t.Parallel()

	if !QueryStatement("SELECT 1", Params{}).WantRows {
		t.Fatalf("QueryStatement must want rows")
	}
	if ExecStatement("DELETE FROM t", Params{}).WantRows {
		t.Fatalf("ExecStatement must not want rows")
	}
}
