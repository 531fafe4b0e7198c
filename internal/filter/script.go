// Package filter provides the predicates applied by the pipeline's filter
// stage. This file implements the script predicate, which keeps or drops
// records via a JavaScript keep(record) function executed with Goja.
package filter

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/blogfeed/aggregator/internal/logger"
	"github.com/blogfeed/aggregator/pkg/blog"
)

// Error codes for script predicates
const (
	ErrCodeScriptEmpty       = "SCRIPT_EMPTY"
	ErrCodeScriptTooLong     = "SCRIPT_TOO_LONG"
	ErrCodeCompilationFailed = "COMPILATION_FAILED"
	ErrCodeMissingKeepFunc   = "MISSING_KEEP_FUNCTION"
	ErrCodeNotFunction       = "NOT_FUNCTION"
	ErrCodeScriptFailed      = "SCRIPT_FAILED"
)

// MaxScriptLength is the maximum allowed script length in bytes (100KB).
const MaxScriptLength = 100 * 1024

// ScriptPredicate keeps or drops records via a user-defined JavaScript
// keep(record) function.
//
// Thread safety: Goja runtime instances are not goroutine-safe. Each
// ScriptPredicate has its own runtime; Evaluate must not be called
// concurrently on the same instance.
type ScriptPredicate struct {
	source  string
	runtime *goja.Runtime
	keepFn  goja.Callable
}

// NewScript compiles a script and verifies it defines a keep function.
//
// Goja provides sandboxed execution: scripts have no file system or
// network access and cannot reach Go runtime internals.
func NewScript(script string) (*ScriptPredicate, error) {
	if strings.TrimSpace(script) == "" {
		return nil, newInvalidFilterError(
			ErrCodeScriptEmpty, "script cannot be empty", "", "",
		)
	}
	if len(script) > MaxScriptLength {
		return nil, newInvalidFilterError(
			ErrCodeScriptTooLong,
			fmt.Sprintf("script exceeds maximum length of %d bytes", MaxScriptLength),
			"", "",
		)
	}

	runtime := goja.New()
	if _, err := runtime.RunString(script); err != nil {
		return nil, newInvalidFilterError(
			ErrCodeCompilationFailed,
			fmt.Sprintf("script compilation failed: %v", err),
			"", "",
		)
	}

	keepVal := runtime.Get("keep")
	if keepVal == nil || goja.IsUndefined(keepVal) {
		return nil, newInvalidFilterError(
			ErrCodeMissingKeepFunc, "keep function not found in script", "", "",
		)
	}

	keepFn, ok := goja.AssertFunction(keepVal)
	if !ok {
		return nil, newInvalidFilterError(
			ErrCodeNotFunction, "keep is not a function", "", "",
		)
	}

	logger.Debug("script predicate compiled", "script_length", len(script))

	return &ScriptPredicate{
		source:  script,
		runtime: runtime,
		keepFn:  keepFn,
	}, nil
}

// Evaluate calls keep(record) and coerces the result to a boolean.
func (p *ScriptPredicate) Evaluate(rec blog.Record) (bool, error) {
	result, err := p.keepFn(goja.Undefined(), p.runtime.ToValue(map[string]interface{}(rec)))
	if err != nil {
		return false, newInvalidFilterError(
			ErrCodeScriptFailed,
			fmt.Sprintf("script execution failed: %v", err),
			"", "",
		)
	}
	return result.ToBoolean(), nil
}

// Verify interface compliance at compile time
var _ Predicate = (*ScriptPredicate)(nil)
