package dispatch

import "github.com/bioscanq/scanq/pkg/domain"

// Tool names. Job-management names are reserved and never overloaded by
// scan tools.
const (
	ToolScan      = "interpro_run"
	ToolScanAsync = "interpro_run_async"
	ToolJobStatus = "get_job_status"
	ToolJobResult = "get_job_result"
	ToolListJobs  = "list_my_jobs"
	ToolCancelJob = "cancel_job"
)

func scanToolDef() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        ToolScan,
		Description: "Run InterProScan protein domain and family analysis",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"input_file": map[string]any{
					"type":        "string",
					"description": "Path to protein FASTA file",
				},
				"databases": map[string]any{
					"type":        "string",
					"description": "Comma-separated list of databases to search (optional)",
				},
				"output_format": map[string]any{
					"type":        "string",
					"description": "Output format (tsv, xml, json, gff3)",
					"default":     "tsv",
				},
			},
			"required": []string{"input_file"},
		},
	}
}

func scanAsyncToolDef() domain.ToolDefinition {
	def := scanToolDef()
	def.Name = ToolScanAsync
	def.Description = "Submit InterProScan analysis as an asynchronous job"
	props := def.InputSchema["properties"].(map[string]any)
	props["goterms"] = map[string]any{
		"type":        "boolean",
		"description": "Include GO term annotations",
		"default":     true,
	}
	props["pathways"] = map[string]any{
		"type":        "boolean",
		"description": "Include pathway annotations",
		"default":     true,
	}
	props["priority"] = map[string]any{
		"type":        "integer",
		"description": "Job priority (queue scheduling hint)",
		"default":     5,
	}
	props["tags"] = map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": "Tags attached to the job",
	}
	props["notification_email"] = map[string]any{
		"type":        "string",
		"description": "Email to notify on completion (optional)",
	}
	return def
}

func jobIDSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"job_id": map[string]any{
				"type":        "string",
				"description": "Job identifier returned at submission",
			},
		},
		"required": []string{"job_id"},
	}
}

func jobStatusToolDef() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        ToolJobStatus,
		Description: "Get the status of a submitted job",
		InputSchema: jobIDSchema(),
	}
}

func jobResultToolDef() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        ToolJobResult,
		Description: "Get the results of a completed job",
		InputSchema: jobIDSchema(),
	}
}

func listJobsToolDef() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        ToolListJobs,
		Description: "List submitted jobs (not yet implemented)",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func cancelJobToolDef() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        ToolCancelJob,
		Description: "Cancel a queued or running job",
		InputSchema: jobIDSchema(),
	}
}
