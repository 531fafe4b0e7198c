package filter

import (
	"errors"
	"strings"
	"testing"

	"github.com/blogfeed/aggregator/pkg/blog"
)

func mustFilter(t *testing.T, key string, op Operator, value Value) Filter {
	t.Helper()
	f, err := New(key, op, value)
	if err != nil {
		t.Fatalf("unexpected error building filter: %v", err)
	}
	return f
}

func TestParseOperator(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Operator
		wantErr bool
	}{
		{name: "equals", input: "equals", want: OpEquals},
		{name: "eq alias", input: "eq", want: OpEquals},
		{name: "between", input: "between", want: OpBetween},
		{name: "gt", input: "gt", want: OpGT},
		{name: "lt", input: "lt", want: OpLT},
		{name: "gte", input: "gte", want: OpGTE},
		{name: "lte", input: "lte", want: OpLTE},
		{name: "uppercase accepted", input: "EQUALS", want: OpEquals},
		{name: "unknown tilde", input: "~", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOperator(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var invalidErr *InvalidFilterError
				if !errors.As(err, &invalidErr) {
					t.Fatalf("expected *InvalidFilterError, got %T", err)
				}
				if !strings.Contains(invalidErr.Error(), tt.input) && tt.input != "" {
					t.Errorf("expected operator %q named in error, got %q", tt.input, invalidErr.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		op       Operator
		value    Value
		wantCode string
	}{
		{
			name:     "empty key",
			key:      "",
			op:       OpEquals,
			value:    Scalar(1),
			wantCode: ErrCodeBadValueKind,
		},
		{
			name:     "between with scalar",
			key:      "created_at",
			op:       OpBetween,
			value:    Scalar("2021-01-01"),
			wantCode: ErrCodeBadValueKind,
		},
		{
			name:     "equals with range",
			key:      "userId",
			op:       OpEquals,
			value:    Range(1, 2),
			wantCode: ErrCodeBadValueKind,
		},
		{
			name:     "between with unparseable lower bound",
			key:      "created_at",
			op:       OpBetween,
			value:    Range("not-a-date", "2021-12-31"),
			wantCode: ErrCodeBadDate,
		},
		{
			name:     "between with unparseable upper bound",
			key:      "created_at",
			op:       OpBetween,
			value:    Range("2021-01-01", 42),
			wantCode: ErrCodeBadDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.key, tt.op, tt.value)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var invalidErr *InvalidFilterError
			if !errors.As(err, &invalidErr) {
				t.Fatalf("expected *InvalidFilterError, got %T", err)
			}
			if invalidErr.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, invalidErr.Code)
			}
		})
	}
}

func TestRangeFromSlice_Arity(t *testing.T) {
	tests := []struct {
		name    string
		vals    []interface{}
		wantErr bool
	}{
		{name: "two elements", vals: []interface{}{"2021-01-01", "2021-12-31"}, wantErr: false},
		{name: "one element", vals: []interface{}{"2021-01-01"}, wantErr: true},
		{name: "three elements", vals: []interface{}{"a", "b", "c"}, wantErr: true},
		{name: "empty", vals: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RangeFromSlice(tt.vals)
			if tt.wantErr {
				var invalidErr *InvalidFilterError
				if !errors.As(err, &invalidErr) {
					t.Fatalf("expected *InvalidFilterError, got %v", err)
				}
				if invalidErr.Code != ErrCodeBadArity {
					t.Errorf("expected code %s, got %s", ErrCodeBadArity, invalidErr.Code)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEvaluate_Equals(t *testing.T) {
	tests := []struct {
		name  string
		rec   blog.Record
		value interface{}
		want  bool
	}{
		{name: "int equals int", rec: blog.Record{"userId": 1}, value: 1, want: true},
		{name: "float equals int", rec: blog.Record{"userId": float64(1)}, value: 1, want: true},
		{name: "numeric string equals int", rec: blog.Record{"userId": "1"}, value: 1, want: true},
		{name: "int equals numeric string", rec: blog.Record{"userId": 1}, value: "1", want: true},
		{name: "different numbers", rec: blog.Record{"userId": 2}, value: 1, want: false},
		{name: "string equals string", rec: blog.Record{"title": "A"}, value: "A", want: true},
		{name: "different strings", rec: blog.Record{"title": "A"}, value: "B", want: false},
		{name: "missing field fails", rec: blog.Record{}, value: 1, want: false},
		{name: "nil field vs value", rec: blog.Record{"userId": nil}, value: 1, want: false},
		{name: "bool equals bool", rec: blog.Record{"draft": true}, value: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "userId"
			for k := range tt.rec {
				key = k
			}
			f := mustFilter(t, key, OpEquals, Scalar(tt.value))
			got, err := f.Evaluate(tt.rec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvaluate_BetweenInclusive(t *testing.T) {
	f := mustFilter(t, "created_at", OpBetween, Range("2021-01-01", "2021-12-31"))

	tests := []struct {
		name string
		date string
		want bool
	}{
		{name: "inside range", date: "2021-06-01", want: true},
		{name: "equal to lower bound", date: "2021-01-01", want: true},
		{name: "equal to upper bound", date: "2021-12-31", want: true},
		{name: "one day before", date: "2020-12-31", want: false},
		{name: "one day after", date: "2022-01-01", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Evaluate(blog.Record{"created_at": tt.date})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("date %s: expected %v, got %v", tt.date, tt.want, got)
			}
		})
	}
}

func TestEvaluate_BetweenBadFieldValue(t *testing.T) {
	f := mustFilter(t, "created_at", OpBetween, Range("2021-01-01", "2021-12-31"))

	_, err := f.Evaluate(blog.Record{"created_at": "not a date"})
	var invalidErr *InvalidFilterError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected *InvalidFilterError, got %v", err)
	}
	if invalidErr.Code != ErrCodeBadDate {
		t.Errorf("expected code %s, got %s", ErrCodeBadDate, invalidErr.Code)
	}
}

func TestEvaluate_BetweenMissingFieldFails(t *testing.T) {
	f := mustFilter(t, "created_at", OpBetween, Range("2021-01-01", "2021-12-31"))

	got, err := f.Evaluate(blog.Record{"id": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("missing field should fail the comparison")
	}
}

func TestEvaluate_Ordering(t *testing.T) {
	tests := []struct {
		name  string
		op    Operator
		field interface{}
		value interface{}
		want  bool
	}{
		{name: "gt true", op: OpGT, field: float64(10), value: 5, want: true},
		{name: "gt false on equal", op: OpGT, field: float64(5), value: 5, want: false},
		{name: "gte true on equal", op: OpGTE, field: float64(5), value: 5, want: true},
		{name: "lt true", op: OpLT, field: float64(3), value: 5, want: true},
		{name: "lte true on equal", op: OpLTE, field: float64(5), value: 5, want: true},
		{name: "numeric strings compare numerically", op: OpGT, field: "10", value: "9", want: true},
		{name: "strings compare lexicographically", op: OpLT, field: "apple", value: "banana", want: true},
		{name: "gte string equal", op: OpGTE, field: "same", value: "same", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustFilter(t, "v", tt.op, Scalar(tt.value))
			got, err := f.Evaluate(blog.Record{"v": tt.field})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvaluate_IncomparableTypes(t *testing.T) {
	tests := []struct {
		name  string
		field interface{}
		value interface{}
	}{
		{name: "number vs word", field: float64(5), value: "banana"},
		{name: "bool vs number", field: true, value: 5},
		{name: "slice vs number", field: []interface{}{1}, value: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustFilter(t, "v", OpGT, Scalar(tt.value))
			_, err := f.Evaluate(blog.Record{"v": tt.field})
			var invalidErr *InvalidFilterError
			if !errors.As(err, &invalidErr) {
				t.Fatalf("expected *InvalidFilterError, got %v", err)
			}
			if invalidErr.Code != ErrCodeIncomparable {
				t.Errorf("expected code %s, got %s", ErrCodeIncomparable, invalidErr.Code)
			}
		})
	}
}

func TestEvaluate_MissingFieldNeverErrors(t *testing.T) {
	ops := []Operator{OpEquals, OpGT, OpLT, OpGTE, OpLTE}
	for _, op := range ops {
		t.Run(op.String(), func(t *testing.T) {
			f := mustFilter(t, "absent", op, Scalar(1))
			got, err := f.Evaluate(blog.Record{"id": 1})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got {
				t.Error("missing field should evaluate false")
			}
		})
	}
}
