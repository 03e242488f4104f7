// Package errs implements the structured error kinds used across the
// simulation kernel: ParseError, ValidationError, RuntimeError, and the
// non-fatal NumericWarning / CancellationRequested signals.
package errs

import (
	"fmt"
	"strings"
)

// Kind categorizes an engine error for callers that need to branch on it
// without string-matching messages.
type Kind string

const (
	KindParse        Kind = "parse_error"
	KindValidation   Kind = "validation_error"
	KindRuntime      Kind = "runtime_error"
	KindCancellation Kind = "cancellation_requested"
)

// EngineError is a structured error carrying source location and context,
// categorizing errors as ParseError/ValidationError/RuntimeError.
type EngineError struct {
	Kind       Kind
	SourcePath string
	LineNo     int // 1-based; 0 means not applicable
	Reason     string
	Context    map[string]any
	Cause      error
}

func (e *EngineError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Kind, e.Reason)
	if e.SourcePath != "" {
		fmt.Fprintf(&b, " (%s", e.SourcePath)
		if e.LineNo > 0 {
			fmt.Fprintf(&b, ":%d", e.LineNo)
		}
		b.WriteString(")")
	} else if e.LineNo > 0 {
		fmt.Fprintf(&b, " (line %d)", e.LineNo)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %s", e.Cause.Error())
	}
	return b.String()
}

func (e *EngineError) Unwrap() error { return e.Cause }

// WithContext attaches a key/value pair for diagnostics and returns the
// same error for chaining.
func (e *EngineError) WithContext(key string, value any) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewParseError reports malformed photometry/geometry input. Parse
// failures abort the job immediately; there is no recovery path.
func NewParseError(sourcePath string, lineNo int, reason string) *EngineError {
	return &EngineError{Kind: KindParse, SourcePath: sourcePath, LineNo: lineNo, Reason: reason}
}

// NewValidationError reports schema/reference violations: missing asset,
// unknown material ID, negative dimension, etc.
func NewValidationError(reason string) *EngineError {
	return &EngineError{Kind: KindValidation, Reason: reason}
}

// NewRuntimeError reports unsupported job types or missing required fields.
func NewRuntimeError(reason string) *EngineError {
	return &EngineError{Kind: KindRuntime, Reason: reason}
}

// IsCancellation reports whether err represents a cooperative cancellation.
func IsCancellation(err error) bool {
	ee, ok := err.(*EngineError)
	return ok && ee.Kind == KindCancellation
}

// ErrCancelled is returned by long-running loops when their context is
// cancelled mid-job. No result.json is written when this propagates out
// of a job.
var ErrCancelled = &EngineError{Kind: KindCancellation, Reason: "job cancelled"}

// Recovery accumulates NumericWarnings across a solve without aborting it.
// Warnings are carried into result.summary.warnings[]; they are never
// returned as Go errors.
type Recovery struct {
	warnings []string
}

// NewRecovery returns an empty warning collector.
func NewRecovery() *Recovery { return &Recovery{} }

// Warn records a NumericWarning. Typical reasons: a non-finite intermediate
// clamped to zero, an energy-balance error exceeding 5%, a tilt factor
// clamped outside the table range, or an angle axis that the parser
// reordered during normalization.
func (r *Recovery) Warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Warnings returns the accumulated messages in insertion order.
func (r *Recovery) Warnings() []string {
	if len(r.warnings) == 0 {
		return nil
	}
	out := make([]string, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// HasWarnings reports whether any NumericWarning was recorded.
func (r *Recovery) HasWarnings() bool { return len(r.warnings) > 0 }
