// Package filter provides the predicates applied by the pipeline's filter
// stage. The core predicate is a (key, operator, value) comparison over a
// closed operator set; expression and script predicates extend it.
package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blogfeed/aggregator/pkg/blog"
)

// Error codes for filter construction and evaluation failures
const (
	ErrCodeUnknownOperator = "UNKNOWN_OPERATOR"
	ErrCodeBadValueKind    = "BAD_VALUE_KIND"
	ErrCodeBadArity        = "BAD_ARITY"
	ErrCodeBadDate         = "BAD_DATE"
	ErrCodeIncomparable    = "INCOMPARABLE_TYPES"
)

// Predicate evaluates a single composite record.
// Filter is the core implementation; ExprPredicate and ScriptPredicate
// provide expression- and script-based extensions.
type Predicate interface {
	Evaluate(rec blog.Record) (bool, error)
}

// InvalidFilterError indicates a malformed filter: unknown operator, wrong
// value shape, unparseable date, or incomparable types. It is a caller
// error, surfaced immediately and never retried.
type InvalidFilterError struct {
	Code     string
	Message  string
	Key      string
	Operator string
}

func (e *InvalidFilterError) Error() string {
	return e.Message
}

func newInvalidFilterError(code, message, key, operator string) *InvalidFilterError {
	return &InvalidFilterError{
		Code:     code,
		Message:  message,
		Key:      key,
		Operator: operator,
	}
}

// Operator is the closed set of comparison operators.
type Operator int

// Supported operators.
const (
	OpEquals Operator = iota
	OpBetween
	OpGT
	OpLT
	OpGTE
	OpLTE
)

var operatorNames = map[Operator]string{
	OpEquals:  "equals",
	OpBetween: "between",
	OpGT:      "gt",
	OpLT:      "lt",
	OpGTE:     "gte",
	OpLTE:     "lte",
}

// String returns the operator's configuration name.
func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("operator(%d)", int(op))
}

// ParseOperator parses an operator name. Unknown names fail with an
// *InvalidFilterError naming the operator.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equals", "eq":
		return OpEquals, nil
	case "between":
		return OpBetween, nil
	case "gt":
		return OpGT, nil
	case "lt":
		return OpLT, nil
	case "gte":
		return OpGTE, nil
	case "lte":
		return OpLTE, nil
	default:
		return 0, newInvalidFilterError(
			ErrCodeUnknownOperator,
			fmt.Sprintf("unknown operator %q", s),
			"", s,
		)
	}
}

// ValueKind discriminates filter value shapes.
type ValueKind int

// Value shapes.
const (
	KindScalar ValueKind = iota
	KindRange
)

// Value is the discriminated filter value: a scalar for comparison
// operators, or an ordered [lo, hi] pair for between. Construct with
// Scalar, Range, or RangeFromSlice; the zero Value is a nil scalar.
type Value struct {
	kind   ValueKind
	scalar interface{}
	lo, hi interface{}
}

// Scalar wraps a single comparison value.
func Scalar(v interface{}) Value {
	return Value{kind: KindScalar, scalar: v}
}

// Range wraps an ordered [lo, hi] pair for the between operator.
func Range(lo, hi interface{}) Value {
	return Value{kind: KindRange, lo: lo, hi: hi}
}

// RangeFromSlice builds a Range from a decoded JSON array, enforcing the
// exactly-two-elements rule.
func RangeFromSlice(vals []interface{}) (Value, error) {
	if len(vals) != 2 {
		return Value{}, newInvalidFilterError(
			ErrCodeBadArity,
			fmt.Sprintf("between requires exactly 2 values, got %d", len(vals)),
			"", operatorNames[OpBetween],
		)
	}
	return Range(vals[0], vals[1]), nil
}

// Kind returns the value's shape.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Filter is an immutable (key, operator, value) predicate.
//
// A key absent on the record fails the comparison (evaluates false) for
// every operator; it never raises an error. Between bounds are parsed as
// calendar dates at construction time.
type Filter struct {
	key   string
	op    Operator
	value Value

	// parsed between bounds, valid only when op == OpBetween
	lo, hi time.Time
}

// New creates a filter, validating the operator/value combination up front:
// between requires a Range with date-parseable bounds, every other operator
// a Scalar.
func New(key string, op Operator, value Value) (Filter, error) {
	if key == "" {
		return Filter{}, newInvalidFilterError(
			ErrCodeBadValueKind, "filter key is required", key, op.String(),
		)
	}
	if _, ok := operatorNames[op]; !ok {
		return Filter{}, newInvalidFilterError(
			ErrCodeUnknownOperator,
			fmt.Sprintf("unknown operator %q", op.String()),
			key, op.String(),
		)
	}

	f := Filter{key: key, op: op, value: value}

	if op == OpBetween {
		if value.kind != KindRange {
			return Filter{}, newInvalidFilterError(
				ErrCodeBadValueKind,
				fmt.Sprintf("operator %q requires a [lo, hi] range value", op),
				key, op.String(),
			)
		}
		lo, ok := parseDate(value.lo)
		if !ok {
			return Filter{}, newInvalidFilterError(
				ErrCodeBadDate,
				fmt.Sprintf("between lower bound %v is not a parseable date", value.lo),
				key, op.String(),
			)
		}
		hi, ok := parseDate(value.hi)
		if !ok {
			return Filter{}, newInvalidFilterError(
				ErrCodeBadDate,
				fmt.Sprintf("between upper bound %v is not a parseable date", value.hi),
				key, op.String(),
			)
		}
		f.lo, f.hi = lo, hi
		return f, nil
	}

	if value.kind != KindScalar {
		return Filter{}, newInvalidFilterError(
			ErrCodeBadValueKind,
			fmt.Sprintf("operator %q requires a scalar value", op),
			key, op.String(),
		)
	}
	return f, nil
}

// Key returns the record field the filter compares.
func (f Filter) Key() string { return f.key }

// Op returns the filter's operator.
func (f Filter) Op() Operator { return f.op }

// Evaluate reports whether the record passes the filter.
func (f Filter) Evaluate(rec blog.Record) (bool, error) {
	field, ok := rec[f.key]
	if !ok {
		// Missing field fails the comparison; it is not a filter error.
		return false, nil
	}

	switch f.op {
	case OpEquals:
		return looseEqual(field, f.value.scalar), nil
	case OpBetween:
		return f.evaluateBetween(field)
	case OpGT, OpLT, OpGTE, OpLTE:
		cmp, err := f.compare(field)
		if err != nil {
			return false, err
		}
		switch f.op {
		case OpGT:
			return cmp > 0, nil
		case OpLT:
			return cmp < 0, nil
		case OpGTE:
			return cmp >= 0, nil
		default:
			return cmp <= 0, nil
		}
	default:
		return false, newInvalidFilterError(
			ErrCodeUnknownOperator,
			fmt.Sprintf("unknown operator %q", f.op.String()),
			f.key, f.op.String(),
		)
	}
}

// evaluateBetween checks lo <= field <= hi, inclusive on both ends.
// The bounds were parsed at construction; only the record's value can
// still fail date parsing here.
func (f Filter) evaluateBetween(field interface{}) (bool, error) {
	t, ok := parseDate(field)
	if !ok {
		return false, newInvalidFilterError(
			ErrCodeBadDate,
			fmt.Sprintf("field %q value %v is not a parseable date", f.key, field),
			f.key, f.op.String(),
		)
	}
	return !t.Before(f.lo) && !t.After(f.hi), nil
}

// compare orders the record field against the filter's scalar value.
// Numeric values (including numeric strings) compare numerically; otherwise
// both sides must be strings. Anything else is incomparable.
func (f Filter) compare(field interface{}) (int, error) {
	fieldNum, fieldIsNum := toNumber(field)
	wantNum, wantIsNum := toNumber(f.value.scalar)
	if fieldIsNum && wantIsNum {
		switch {
		case fieldNum < wantNum:
			return -1, nil
		case fieldNum > wantNum:
			return 1, nil
		default:
			return 0, nil
		}
	}

	fieldStr, fieldIsStr := field.(string)
	wantStr, wantIsStr := f.value.scalar.(string)
	if fieldIsStr && wantIsStr {
		return strings.Compare(fieldStr, wantStr), nil
	}

	return 0, newInvalidFilterError(
		ErrCodeIncomparable,
		fmt.Sprintf("cannot compare %T with %T for field %q", field, f.value.scalar, f.key),
		f.key, f.op.String(),
	)
}

// looseEqual reports loose equality: numeric values and numeric strings
// compare by numeric value, everything else by matching kind.
func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	aNum, aIsNum := toNumber(a)
	bNum, bIsNum := toNumber(b)
	if aIsNum && bIsNum {
		return aNum == bNum
	}

	if aStr, ok := a.(string); ok {
		if bStr, ok := b.(string); ok {
			return aStr == bStr
		}
	}
	if aBool, ok := a.(bool); ok {
		if bBool, ok := b.(bool); ok {
			return aBool == bBool
		}
	}
	return false
}

// toNumber coerces numeric types, json.Number, and numeric strings to
// float64.
func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// dateLayouts are the accepted calendar date formats, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate parses a record value as a calendar date.
func parseDate(v interface{}) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// Verify interface compliance at compile time
var _ Predicate = Filter{}
