package dispatch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bioscanq/scanq/internal/scan"
	"github.com/bioscanq/scanq/pkg/domain"
)

type fakeExecutor struct {
	outcome domain.ExecutionOutcome
	err     error
	lastReq scan.Request
}

func (f *fakeExecutor) Run(ctx context.Context, req scan.Request) (domain.ExecutionOutcome, error) {
	f.lastReq = req
	return f.outcome, f.err
}

func (f *fakeExecutor) Timeout() time.Duration { return 1800 * time.Second }

type fakeJobs struct {
	submitted domain.JobSubmission
	handle    domain.JobHandle
	status    domain.JobStatus
	result    domain.JobResult
	err       error
	cancelErr error
}

func (f *fakeJobs) Submit(ctx context.Context, sub domain.JobSubmission) (domain.JobHandle, error) {
	f.submitted = sub
	return f.handle, f.err
}

func (f *fakeJobs) Status(ctx context.Context, jobID string) (domain.JobStatus, error) {
	return f.status, f.err
}

func (f *fakeJobs) Result(ctx context.Context, jobID string) (domain.JobResult, error) {
	return f.result, f.err
}

func (f *fakeJobs) Cancel(ctx context.Context, jobID string) error { return f.cancelErr }

func call(t *testing.T, d *Dispatcher, name string, args map[string]any) domain.Content {
	t.Helper()
	contents := d.Call(context.Background(), domain.ToolRequest{Name: name, Arguments: args})
	if len(contents) != 1 {
		t.Fatalf("Call(%s) returned %d content items", name, len(contents))
	}
	return contents[0]
}

func TestToolRegistrationWithoutJobClient(t *testing.T) {
	d := New(&fakeExecutor{}, nil, nil)
	tools := d.Tools()
	if len(tools) != 1 || tools[0].Name != ToolScan {
		t.Fatalf("tools = %+v", tools)
	}

	// Async and job tools must be rejected as unknown, not half-registered.
	got := call(t, d, ToolScanAsync, map[string]any{"input_file": "/x"})
	if got.Type != domain.ContentError || !strings.Contains(got.Text, "unknown tool") {
		t.Errorf("async call = %+v", got)
	}
}

func TestToolRegistrationWithJobClient(t *testing.T) {
	d := New(&fakeExecutor{}, &fakeJobs{}, nil)
	want := []string{ToolScan, ToolScanAsync, ToolJobStatus, ToolJobResult, ToolListJobs, ToolCancelJob}
	tools := d.Tools()
	if len(tools) != len(want) {
		t.Fatalf("got %d tools, want %d", len(tools), len(want))
	}
	for i, name := range want {
		if tools[i].Name != name {
			t.Errorf("tools[%d] = %q, want %q", i, tools[i].Name, name)
		}
	}
}

func TestUnknownTool(t *testing.T) {
	d := New(&fakeExecutor{}, nil, nil)
	got := call(t, d, "blast_run", nil)
	if got.Type != domain.ContentError {
		t.Fatalf("Type = %q", got.Type)
	}
	if got.Text != "unknown tool: blast_run" {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestScanSuccessReturnsStdoutVerbatim(t *testing.T) {
	exec := &fakeExecutor{outcome: domain.ExecutionOutcome{
		Kind:   domain.OutcomeSuccess,
		Stdout: []byte("P12345\tPfam\tPF00069\n"),
	}}
	d := New(exec, nil, nil)

	got := call(t, d, ToolScan, map[string]any{"input_file": "/data/p.fasta"})
	if got.Type != domain.ContentText {
		t.Fatalf("Type = %q, text = %q", got.Type, got.Text)
	}
	if got.Text != "P12345\tPfam\tPF00069\n" {
		t.Errorf("stdout not verbatim: %q", got.Text)
	}
}

func TestScanForcesAnnotations(t *testing.T) {
	exec := &fakeExecutor{outcome: domain.ExecutionOutcome{Kind: domain.OutcomeSuccess}}
	d := New(exec, nil, nil)

	call(t, d, ToolScan, map[string]any{
		"input_file": "/data/p.fasta",
		"databases":  "Pfam, SMART,,CDD",
	})
	if !exec.lastReq.GoTerms || !exec.lastReq.Pathways {
		t.Errorf("annotations not forced: %+v", exec.lastReq)
	}
	want := []string{"Pfam", "SMART", "CDD"}
	if len(exec.lastReq.Databases) != len(want) {
		t.Fatalf("Databases = %v", exec.lastReq.Databases)
	}
	for i, db := range want {
		if exec.lastReq.Databases[i] != db {
			t.Errorf("Databases[%d] = %q, want %q", i, exec.lastReq.Databases[i], db)
		}
	}
}

func TestScanMissingInputFile(t *testing.T) {
	d := New(&fakeExecutor{}, nil, nil)
	got := call(t, d, ToolScan, map[string]any{})
	if got.Type != domain.ContentError || got.Text != "missing required argument: input_file" {
		t.Errorf("got %+v", got)
	}
}

func TestScanTimeoutMapsToTimeoutError(t *testing.T) {
	exec := &fakeExecutor{outcome: domain.ExecutionOutcome{Kind: domain.OutcomeTimedOut}}
	d := New(exec, nil, nil)

	got := call(t, d, ToolScan, map[string]any{"input_file": "/x"})
	if got.Type != domain.ContentError {
		t.Fatalf("Type = %q", got.Type)
	}
	if got.Text != "command timed out after 1800 seconds" {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestScanFailureCarriesStderr(t *testing.T) {
	exec := &fakeExecutor{outcome: domain.ExecutionOutcome{
		Kind:     domain.OutcomeFailure,
		ExitCode: 2,
		Stderr:   "invalid FASTA header",
	}}
	d := New(exec, nil, nil)

	got := call(t, d, ToolScan, map[string]any{"input_file": "/x"})
	if got.Type != domain.ContentError {
		t.Fatalf("Type = %q", got.Type)
	}
	if !strings.Contains(got.Text, "exit 2") || !strings.Contains(got.Text, "invalid FASTA header") {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestScanAsyncSubmits(t *testing.T) {
	jobs := &fakeJobs{handle: domain.JobHandle{JobID: "job-7", Status: domain.JobQueued}}
	d := New(&fakeExecutor{}, jobs, nil)

	got := call(t, d, ToolScanAsync, map[string]any{
		"input_file":         "/data/p.fasta",
		"priority":           float64(8),
		"notification_email": "lab@example.org",
	})
	if got.Type != domain.ContentText {
		t.Fatalf("got %+v", got)
	}
	if !strings.Contains(got.Text, "job-7") {
		t.Errorf("Text = %q", got.Text)
	}
	if jobs.submitted.JobType != "interpro_scan" {
		t.Errorf("JobType = %q", jobs.submitted.JobType)
	}
	if jobs.submitted.Priority != 8 {
		t.Errorf("Priority = %d", jobs.submitted.Priority)
	}
	if _, leaked := jobs.submitted.Parameters["notification_email"]; leaked {
		t.Error("notification_email leaked into parameters")
	}
}

func TestScanAsyncValidatesBeforeSubmitting(t *testing.T) {
	jobs := &fakeJobs{}
	d := New(&fakeExecutor{}, jobs, nil)

	got := call(t, d, ToolScanAsync, map[string]any{})
	if got.Type != domain.ContentError {
		t.Fatalf("got %+v", got)
	}
	if jobs.submitted.JobType != "" {
		t.Error("submission should not reach the queue on validation failure")
	}
}

func TestJobStatus(t *testing.T) {
	jobs := &fakeJobs{status: domain.JobStatus{JobID: "job-7", State: domain.JobRunning}}
	d := New(&fakeExecutor{}, jobs, nil)

	got := call(t, d, ToolJobStatus, map[string]any{"job_id": "job-7"})
	if got.Type != domain.ContentText || !strings.Contains(got.Text, "Status: running") {
		t.Errorf("got %+v", got)
	}
}

func TestJobResultErrorsBecomeErrorContent(t *testing.T) {
	jobs := &fakeJobs{err: &domain.NotReadyError{JobID: "job-7", State: domain.JobRunning}}
	d := New(&fakeExecutor{}, jobs, nil)

	got := call(t, d, ToolJobResult, map[string]any{"job_id": "job-7"})
	if got.Type != domain.ContentError {
		t.Fatalf("Type = %q", got.Type)
	}
	if got.Text != "job job-7 is not finished yet (status: running)" {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestListJobsStub(t *testing.T) {
	d := New(&fakeExecutor{}, &fakeJobs{}, nil)
	got := call(t, d, ToolListJobs, nil)
	if got.Type != domain.ContentText {
		t.Fatalf("Type = %q", got.Type)
	}
	if got.Text != "Job listing not yet implemented.\nUse individual job IDs to check status." {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestCancelJob(t *testing.T) {
	d := New(&fakeExecutor{}, &fakeJobs{}, nil)
	got := call(t, d, ToolCancelJob, map[string]any{"job_id": "job-7"})
	if got.Type != domain.ContentText {
		t.Fatalf("got %+v", got)
	}
	if got.Text != "InterProScan job job-7 cancelled successfully" {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestCancelJobInvalidState(t *testing.T) {
	jobs := &fakeJobs{cancelErr: &domain.InvalidStateError{JobID: "job-7", State: domain.JobSucceeded, Op: "cancel"}}
	d := New(&fakeExecutor{}, jobs, nil)

	got := call(t, d, ToolCancelJob, map[string]any{"job_id": "job-7"})
	if got.Type != domain.ContentError {
		t.Fatalf("Type = %q", got.Type)
	}
	if got.Text != "cannot cancel job job-7: job is already succeeded" {
		t.Errorf("Text = %q", got.Text)
	}
}

type panickyExecutor struct{ fakeExecutor }

func (p *panickyExecutor) Run(ctx context.Context, req scan.Request) (domain.ExecutionOutcome, error) {
	panic("boom")
}

func TestPanicIsContained(t *testing.T) {
	d := New(&panickyExecutor{}, nil, nil)
	got := call(t, d, ToolScan, map[string]any{"input_file": "/x"})
	if got.Type != domain.ContentError || got.Text != "internal error" {
		t.Errorf("got %+v", got)
	}
}
