package domain

import (
	"encoding/json"
	"time"
)

type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// Terminal reports whether no further state transition can occur.
func (s JobState) Terminal() bool {
	switch s {
	case JobSucceeded, JobFailed, JobCancelled:
		return true
	}
	return false
}

// JobSubmission is the payload sent to the remote queue. Parameters carry the
// tool's domain arguments only; scheduling metadata lives in Priority/Tags.
type JobSubmission struct {
	JobType    string         `json:"job_type"`
	Parameters map[string]any `json:"parameters"`
	Priority   int            `json:"priority"`
	Tags       []string       `json:"tags"`
}

// JobHandle is the queue's acknowledgement of a submission.
type JobHandle struct {
	JobID     string    `json:"job_id"`
	Status    JobState  `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// JobStatus is a read-only snapshot owned by the remote queue. scanq never
// mutates it; states only move forward and freeze once terminal.
type JobStatus struct {
	JobID    string         `json:"job_id"`
	State    JobState       `json:"status"`
	Progress map[string]any `json:"progress,omitempty"`
	Detail   string         `json:"detail,omitempty"`
}

// JobResult exists only once the job has succeeded. It is fetched on demand;
// the queue remains the source of truth.
type JobResult struct {
	JobID     string          `json:"job_id"`
	Summary   map[string]any  `json:"summary,omitempty"`
	ResultURL string          `json:"result_url,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}
