// Package dispatch routes tool requests to the synchronous scan path, the
// asynchronous queue path, or job-management operations. Routing is an
// explicit registration table built at startup; there is no name mangling at
// call time.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bioscanq/scanq/internal/metrics"
	"github.com/bioscanq/scanq/internal/queue"
	"github.com/bioscanq/scanq/internal/scan"
	"github.com/bioscanq/scanq/pkg/domain"
)

// ScanExecutor is the synchronous path: build a command, run it, clean up.
type ScanExecutor interface {
	Run(ctx context.Context, req scan.Request) (domain.ExecutionOutcome, error)
	Timeout() time.Duration
}

// AsyncJobClient is the queue-backed path. A nil client means the async tool
// variants and job-management tools are simply not registered.
type AsyncJobClient interface {
	Submit(ctx context.Context, sub domain.JobSubmission) (domain.JobHandle, error)
	Status(ctx context.Context, jobID string) (domain.JobStatus, error)
	Result(ctx context.Context, jobID string) (domain.JobResult, error)
	Cancel(ctx context.Context, jobID string) error
}

type handlerFunc func(ctx context.Context, args map[string]any) ([]domain.Content, error)

type registration struct {
	def domain.ToolDefinition
	fn  handlerFunc
}

// Dispatcher is a stateless router over an immutable registration table.
// Safe for concurrent use.
type Dispatcher struct {
	table  map[string]registration
	order  []string
	logger *slog.Logger
}

func New(exec ScanExecutor, jobs AsyncJobClient, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{table: make(map[string]registration), logger: logger}

	d.register(scanToolDef(), d.handleScan(exec))
	if jobs != nil {
		d.register(scanAsyncToolDef(), d.handleScanAsync(jobs))
		d.register(jobStatusToolDef(), d.handleJobStatus(jobs))
		d.register(jobResultToolDef(), d.handleJobResult(jobs))
		d.register(listJobsToolDef(), d.handleListJobs())
		d.register(cancelJobToolDef(), d.handleCancelJob(jobs))
	}
	return d
}

func (d *Dispatcher) register(def domain.ToolDefinition, fn handlerFunc) {
	d.table[def.Name] = registration{def: def, fn: fn}
	d.order = append(d.order, def.Name)
}

// Tools lists the registered tool definitions in registration order.
func (d *Dispatcher) Tools() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.table[name].def)
	}
	return out
}

// Call routes one request and always returns a well-formed response: a single
// error content item for every failure class, text content otherwise. No
// error and no panic escapes to the serving loop.
func (d *Dispatcher) Call(ctx context.Context, req domain.ToolRequest) (contents []domain.Content) {
	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool handler panicked", "tool", req.Name, "panic", r)
			contents = []domain.Content{domain.ErrorContent("internal error")}
			outcome = "panic"
		}
		metrics.ToolCallsTotal.WithLabelValues(req.Name, outcome).Inc()
	}()

	reg, ok := d.table[req.Name]
	if !ok {
		outcome = "unknown_tool"
		return []domain.Content{domain.ErrorContent((&domain.UnknownToolError{Name: req.Name}).Error())}
	}

	args := req.Arguments
	if args == nil {
		args = map[string]any{}
	}
	contents, err := reg.fn(ctx, args)
	if err != nil {
		outcome = "error"
		return []domain.Content{domain.ErrorContent(err.Error())}
	}
	return contents
}

func (d *Dispatcher) handleScan(exec ScanExecutor) handlerFunc {
	return func(ctx context.Context, args map[string]any) ([]domain.Content, error) {
		req, err := parseScanRequest(args)
		if err != nil {
			return nil, err
		}
		// The synchronous tool always annotates; the async variant lets the
		// caller opt out because queue workers charge for the extra passes.
		req.GoTerms = true
		req.Pathways = true

		outcome, err := exec.Run(ctx, req)
		if err != nil {
			return nil, err
		}
		switch outcome.Kind {
		case domain.OutcomeSuccess:
			return []domain.Content{domain.TextContent(string(outcome.Stdout))}, nil
		case domain.OutcomeTimedOut:
			return nil, &domain.ExecutionTimeoutError{Timeout: exec.Timeout()}
		default:
			return nil, &domain.ExecutionFailureError{ExitCode: outcome.ExitCode, Stderr: outcome.Stderr}
		}
	}
}

func (d *Dispatcher) handleScanAsync(jobs AsyncJobClient) handlerFunc {
	return func(ctx context.Context, args map[string]any) ([]domain.Content, error) {
		// Validate the same way the sync path does before spending a queue slot.
		if _, err := requireString(args, "input_file"); err != nil {
			return nil, err
		}
		sub := queue.NewSubmission("interpro_scan", args)
		handle, err := jobs.Submit(ctx, sub)
		if err != nil {
			return nil, err
		}
		return []domain.Content{domain.TextContent(queue.FormatSubmitted(handle))}, nil
	}
}

func (d *Dispatcher) handleJobStatus(jobs AsyncJobClient) handlerFunc {
	return func(ctx context.Context, args map[string]any) ([]domain.Content, error) {
		jobID, err := requireString(args, "job_id")
		if err != nil {
			return nil, err
		}
		st, err := jobs.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		return []domain.Content{domain.TextContent(queue.FormatStatus(st))}, nil
	}
}

func (d *Dispatcher) handleJobResult(jobs AsyncJobClient) handlerFunc {
	return func(ctx context.Context, args map[string]any) ([]domain.Content, error) {
		jobID, err := requireString(args, "job_id")
		if err != nil {
			return nil, err
		}
		res, err := jobs.Result(ctx, jobID)
		if err != nil {
			return nil, err
		}
		return []domain.Content{domain.TextContent(queue.FormatResult(res))}, nil
	}
}

// listJobsMessage is the fixed stub response. Listing is not implemented by
// the remote queue's API yet; an empty success list would be
// indistinguishable from "no jobs", so the stub is explicit.
const listJobsMessage = "Job listing not yet implemented.\nUse individual job IDs to check status."

func (d *Dispatcher) handleListJobs() handlerFunc {
	return func(ctx context.Context, args map[string]any) ([]domain.Content, error) {
		return []domain.Content{domain.TextContent(listJobsMessage)}, nil
	}
}

func (d *Dispatcher) handleCancelJob(jobs AsyncJobClient) handlerFunc {
	return func(ctx context.Context, args map[string]any) ([]domain.Content, error) {
		jobID, err := requireString(args, "job_id")
		if err != nil {
			return nil, err
		}
		if err := jobs.Cancel(ctx, jobID); err != nil {
			return nil, err
		}
		return []domain.Content{domain.TextContent(fmt.Sprintf("InterProScan job %s cancelled successfully", jobID))}, nil
	}
}

func parseScanRequest(args map[string]any) (scan.Request, error) {
	inputFile, err := requireString(args, "input_file")
	if err != nil {
		return scan.Request{}, err
	}
	req := scan.Request{InputFile: inputFile}
	if v, ok := args["databases"].(string); ok && strings.TrimSpace(v) != "" {
		for _, db := range strings.Split(v, ",") {
			db = strings.TrimSpace(db)
			if db != "" {
				req.Databases = append(req.Databases, db)
			}
		}
	}
	if v, ok := args["output_format"].(string); ok {
		req.OutputFormat = v
	}
	return req, nil
}

func requireString(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", domain.NewValidationError("missing required argument: %s", key)
	}
	return v, nil
}
