package domain

import (
	"fmt"
	"time"
)

// ValidationError reports bad, missing, or oversized input before any
// external work starts.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ExecutionTimeoutError reports a scan that exceeded its wall-clock budget.
type ExecutionTimeoutError struct {
	Timeout time.Duration
}

func (e *ExecutionTimeoutError) Error() string {
	return fmt.Sprintf("command timed out after %d seconds", int(e.Timeout.Seconds()))
}

// ExecutionFailureError reports a non-zero exit, carrying the captured stderr.
type ExecutionFailureError struct {
	ExitCode int
	Stderr   string
}

func (e *ExecutionFailureError) Error() string {
	return fmt.Sprintf("command failed (exit %d): %s", e.ExitCode, e.Stderr)
}

// SubmissionError reports that the remote queue was unreachable or rejected
// the payload. The queue's message is surfaced verbatim and never retried.
type SubmissionError struct {
	Msg string
}

func (e *SubmissionError) Error() string {
	return "job submission failed: " + e.Msg
}

// NotFoundError reports a job identifier unknown to the queue.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job not found: %s", e.JobID)
}

// NotReadyError reports a result request for a job that has not succeeded.
type NotReadyError struct {
	JobID string
	State JobState
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("job %s is not finished yet (status: %s)", e.JobID, e.State)
}

// FailedJobError reports a result request for a job that ended in failure.
type FailedJobError struct {
	JobID  string
	Detail string
}

func (e *FailedJobError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("job %s failed", e.JobID)
	}
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Detail)
}

// InvalidStateError reports an operation that is illegal in the job's current
// state, e.g. cancelling a job that already finished.
type InvalidStateError struct {
	JobID string
	State JobState
	Op    string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s job %s: job is already %s", e.Op, e.JobID, e.State)
}

// UnknownToolError reports an unrecognized tool name at the dispatch boundary.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "unknown tool: " + e.Name
}
