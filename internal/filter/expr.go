// Package filter provides the predicates applied by the pipeline's filter
// stage. This file implements the expression predicate, which evaluates a
// boolean expression against each record.
package filter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/blogfeed/aggregator/internal/logger"
	"github.com/blogfeed/aggregator/pkg/blog"
)

// Error codes for expression predicates
const (
	ErrCodeInvalidExpression = "INVALID_EXPRESSION"
	ErrCodeEvaluationFailed  = "EVALUATION_FAILED"
)

// ExprPredicate evaluates a compiled expression against a record.
// Record fields are available as top-level variables; missing fields
// resolve to nil rather than failing compilation.
type ExprPredicate struct {
	source  string
	program *vm.Program
}

// NewExpr compiles an expression into a predicate.
// An empty expression or a syntax error fails with *InvalidFilterError.
func NewExpr(expression string) (*ExprPredicate, error) {
	if expression == "" {
		return nil, newInvalidFilterError(
			ErrCodeInvalidExpression, "expression cannot be empty", "", "",
		)
	}

	// AllowUndefinedVariables handles records with missing fields gracefully
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, newInvalidFilterError(
			ErrCodeInvalidExpression,
			fmt.Sprintf("invalid expression syntax: %v", err),
			"", "",
		)
	}

	logger.Debug("expression predicate compiled", "expression", expression)

	return &ExprPredicate{source: expression, program: program}, nil
}

// Evaluate runs the expression against the record. Non-boolean results are
// coerced through a truthy check.
func (p *ExprPredicate) Evaluate(rec blog.Record) (bool, error) {
	output, err := expr.Run(p.program, map[string]interface{}(rec))
	if err != nil {
		return false, newInvalidFilterError(
			ErrCodeEvaluationFailed,
			fmt.Sprintf("expression evaluation failed: %v", err),
			"", "",
		)
	}

	if result, ok := output.(bool); ok {
		return result, nil
	}
	return toBool(output), nil
}

// Source returns the original expression text.
func (p *ExprPredicate) Source() string {
	return p.source
}

// toBool converts a non-boolean expression result to a truthy value.
func toBool(value interface{}) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}

// Verify interface compliance at compile time
var _ Predicate = (*ExprPredicate)(nil)
