// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package plan

import (
	"fmt"
)

// ResultType describes the outcome of running a step.
type ResultType string

const (
	// Completed means the step ran and its effect is now true.
	Completed = ResultType("completed")

	// Failed means the step could not achieve its effect.
	Failed = ResultType("failed")

	// Skipped means the step's effect was already true and nothing was
	// done. Skipped carries the same postcondition guarantees as
	// Completed for any step that depends on it.
	Skipped = ResultType("skipped")
)

// Result is the outcome of a step's IsSkip or Run. It is immutable once
// constructed.
type Result struct {
	// Type is the outcome classification.
	Type ResultType

	// Message is an optional human readable payload. For failed results
	// it describes the cause; it never carries a stack trace.
	Message string

	// Err holds the underlying error for failed results, when one
	// exists. It is used by retry decorators to classify the failure;
	// user facing output uses Message.
	Err error
}

// String implements fmt.Stringer.
func (t ResultType) String() string {
	return string(t)
}

// NewResult returns a result of the given type with an optional message.
func NewResult(resultType ResultType, message string) Result {
	return Result{Type: resultType, Message: message}
}

// CompletedResult returns a bare completed result.
func CompletedResult() Result {
	return Result{Type: Completed}
}

// SkippedResult returns a skipped result with the given message.
func SkippedResult(message string) Result {
	return Result{Type: Skipped, Message: message}
}

// Failedf returns a failed result with a formatted message.
func Failedf(format string, args ...any) Result {
	return Result{Type: Failed, Message: fmt.Sprintf(format, args...)}
}

// FailedErr returns a failed result carrying err as both the message
// and the classifiable cause.
func FailedErr(err error) Result {
	return Result{Type: Failed, Message: err.Error(), Err: err}
}
