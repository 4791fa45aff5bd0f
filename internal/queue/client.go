// Package queue is an HTTP client of the remote job queue service. The queue
// owns all job records; this package holds nothing but transient job_id
// strings and maps queue responses onto the domain error taxonomy.
package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bioscanq/scanq/internal/metrics"
	"github.com/bioscanq/scanq/internal/tracing"
	"github.com/bioscanq/scanq/pkg/domain"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a queue client with its own request timeout, independent
// of any scan execution timeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path, operation string, body any) (int, []byte, error) {
	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	tracing.InjectHeaders(ctx, req.Header)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.QueueRequestDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read queue response: %w", err)
	}
	return resp.StatusCode, out, nil
}

// Submit sends a job to the queue and returns as soon as it is acknowledged.
// Queue rejections are surfaced verbatim; nothing is retried here (retry
// policy belongs to the queue, not this layer).
func (c *Client) Submit(ctx context.Context, sub domain.JobSubmission) (domain.JobHandle, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/jobs", "submit", sub)
	if err != nil {
		return domain.JobHandle{}, &domain.SubmissionError{Msg: err.Error()}
	}
	if status < 200 || status >= 300 {
		return domain.JobHandle{}, &domain.SubmissionError{Msg: fmt.Sprintf("queue returned %d: %s", status, strings.TrimSpace(string(body)))}
	}
	var handle domain.JobHandle
	if err := json.Unmarshal(body, &handle); err != nil {
		return domain.JobHandle{}, &domain.SubmissionError{Msg: "invalid queue response: " + err.Error()}
	}
	if handle.Status == "" {
		handle.Status = domain.JobQueued
	}
	if handle.CreatedAt.IsZero() {
		// Display only; the queue's own record stays authoritative.
		handle.CreatedAt = time.Now().UTC()
	}
	metrics.JobsSubmittedTotal.WithLabelValues(sub.JobType).Inc()
	return handle, nil
}

// Status fetches the current job state from the queue.
func (c *Client) Status(ctx context.Context, jobID string) (domain.JobStatus, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID), "status", nil)
	if err != nil {
		return domain.JobStatus{}, fmt.Errorf("queue unreachable: %w", err)
	}
	if status == http.StatusNotFound {
		return domain.JobStatus{}, &domain.NotFoundError{JobID: jobID}
	}
	if status < 200 || status >= 300 {
		return domain.JobStatus{}, fmt.Errorf("queue returned %d: %s", status, strings.TrimSpace(string(body)))
	}
	var st domain.JobStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return domain.JobStatus{}, fmt.Errorf("invalid queue response: %w", err)
	}
	st.State = domain.JobState(strings.ToLower(string(st.State)))
	if st.JobID == "" {
		st.JobID = jobID
	}
	return st, nil
}

// Result fetches the result of a succeeded job. Jobs that have not finished
// yield NotReadyError; failed jobs yield FailedJobError with the queue's
// failure detail.
func (c *Client) Result(ctx context.Context, jobID string) (domain.JobResult, error) {
	st, err := c.Status(ctx, jobID)
	if err != nil {
		return domain.JobResult{}, err
	}
	switch st.State {
	case domain.JobSucceeded:
	case domain.JobFailed:
		return domain.JobResult{}, &domain.FailedJobError{JobID: jobID, Detail: st.Detail}
	default:
		return domain.JobResult{}, &domain.NotReadyError{JobID: jobID, State: st.State}
	}

	status, body, err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/result", "result", nil)
	if err != nil {
		return domain.JobResult{}, fmt.Errorf("queue unreachable: %w", err)
	}
	if status == http.StatusNotFound {
		return domain.JobResult{}, &domain.NotFoundError{JobID: jobID}
	}
	if status < 200 || status >= 300 {
		return domain.JobResult{}, fmt.Errorf("queue returned %d: %s", status, strings.TrimSpace(string(body)))
	}
	var res domain.JobResult
	if err := json.Unmarshal(body, &res); err != nil {
		return domain.JobResult{}, fmt.Errorf("invalid queue response: %w", err)
	}
	if res.JobID == "" {
		res.JobID = jobID
	}
	if len(res.Raw) == 0 {
		res.Raw = json.RawMessage(body)
	}
	return res, nil
}

// Cancel asks the queue to cancel a job. Cancellation is cooperative: the
// queue may take time to stop the job. Terminal jobs are rejected with
// InvalidStateError rather than silently accepted.
func (c *Client) Cancel(ctx context.Context, jobID string) error {
	st, err := c.Status(ctx, jobID)
	if err != nil {
		return err
	}
	if st.State.Terminal() {
		return &domain.InvalidStateError{JobID: jobID, State: st.State, Op: "cancel"}
	}

	status, body, err := c.do(ctx, http.MethodPost, "/jobs/"+url.PathEscape(jobID)+"/cancel", "cancel", nil)
	if err != nil {
		return fmt.Errorf("queue unreachable: %w", err)
	}
	switch {
	case status == http.StatusNotFound:
		return &domain.NotFoundError{JobID: jobID}
	case status == http.StatusConflict:
		// The job finished between the pre-check and the cancel call;
		// re-fetch so the error names the state the queue actually saw.
		if latest, serr := c.Status(ctx, jobID); serr == nil {
			st = latest
		}
		return &domain.InvalidStateError{JobID: jobID, State: st.State, Op: "cancel"}
	case status < 200 || status >= 300:
		return fmt.Errorf("queue returned %d: %s", status, strings.TrimSpace(string(body)))
	}
	return nil
}
