// Package mediaerr defines the error taxonomy shared by the pipeline stages.
// Every stage failure is a *Error carrying a Kind, so callers can decide between
// degrading (probe, single analysis pass) and failing the run (transcode, validation).
package mediaerr

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure
type Kind string

const (
	// KindProbe is non-fatal: the prober degrades to empty metadata
	KindProbe Kind = "probe"
	// KindTranscode is fatal to a single run
	KindTranscode Kind = "transcode"
	// KindAnalysis is non-fatal per measurement pass
	KindAnalysis Kind = "analysis"
	// KindValidation means the caller supplied an out-of-range parameter
	KindValidation Kind = "validation"
)

// Sentinel errors, one per Kind, for use with errors.Is
var (
	ErrProbeFailed      = errors.New("probe failed")
	ErrTranscodeFailed  = errors.New("transcode failed")
	ErrAnalysisFailed   = errors.New("analysis failed")
	ErrValidationFailed = errors.New("validation failed")
)

var sentinels = map[Kind]error{
	KindProbe:      ErrProbeFailed,
	KindTranscode:  ErrTranscodeFailed,
	KindAnalysis:   ErrAnalysisFailed,
	KindValidation: ErrValidationFailed,
}

// Error provides structured error information with context
type Error struct {
	Kind    Kind   // Error classification
	Op      string // Operation that failed, e.g. "extract"
	Path    string // Media file involved, if any
	Err     error  // Underlying error
	Details string // Diagnostic text, e.g. the engine's stderr tail
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s failed in %s", e.Kind, e.Op)
	if e.Path != "" {
		msg += fmt.Sprintf(" for %s", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for the Kind, then falls through to the wrapped error
func (e *Error) Is(target error) bool {
	if s, ok := sentinels[e.Kind]; ok && s == target {
		return true
	}
	return false
}

// New creates a new Error
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Validation creates a KindValidation error from a formatted message
func Validation(op, format string, args ...any) *Error {
	return New(KindValidation, op, "", fmt.Errorf(format, args...))
}

// WithDetails attaches diagnostic text to the error
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a caller error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

// HTTPStatusClass maps a Kind to the status class an outer API is expected to use:
// 4 for caller errors, 5 for everything else.
func HTTPStatusClass(kind Kind) int {
	if kind == KindValidation {
		return 4
	}
	return 5
}
