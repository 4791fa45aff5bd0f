package domain

import "time"

// CommandSpec is a fully resolved subprocess invocation. It is built once per
// tool call, never mutated afterwards, and discarded when the process exits.
type CommandSpec struct {
	Path    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

type OutcomeKind string

const (
	OutcomeSuccess  OutcomeKind = "SUCCESS"
	OutcomeFailure  OutcomeKind = "FAILURE"
	OutcomeTimedOut OutcomeKind = "TIMED_OUT"
)

// ExecutionOutcome is the terminal result of running a CommandSpec. Exactly
// one outcome is produced per invocation.
type ExecutionOutcome struct {
	Kind     OutcomeKind
	Stdout   []byte
	ExitCode int
	Stderr   string
}
