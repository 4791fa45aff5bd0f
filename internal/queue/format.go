package queue

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bioscanq/scanq/pkg/domain"
)

// The functions below render queue data for human consumption. They are pure:
// same input, same output, no clock, no I/O.

// FormatSubmitted renders the acknowledgement message for a fresh submission.
func FormatSubmitted(h domain.JobHandle) string {
	var b strings.Builder
	b.WriteString("InterProScan job submitted successfully!\n\n")
	b.WriteString(FormatStatus(domain.JobStatus{JobID: h.JobID, State: h.Status}))
	if !h.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Submitted: %s\n", h.CreatedAt.UTC().Format(time.RFC3339))
	}
	b.WriteString("\nUse 'get_job_status' with the job ID to check progress.\n")
	b.WriteString("InterProScan jobs typically take 30 minutes to several hours depending on:\n")
	b.WriteString("- Number and length of input sequences\n")
	b.WriteString("- Number of databases selected\n")
	b.WriteString("- Server load\n")
	b.WriteString("\nYou will be notified when the job completes.\n")
	return b.String()
}

// FormatStatus renders a job status snapshot.
func FormatStatus(st domain.JobStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job ID: %s\n", st.JobID)
	fmt.Fprintf(&b, "Status: %s\n", st.State)
	if st.Detail != "" {
		fmt.Fprintf(&b, "Detail: %s\n", st.Detail)
	}
	for _, k := range sortedKeys(st.Progress) {
		fmt.Fprintf(&b, "  %s: %v\n", k, st.Progress[k])
	}
	return b.String()
}

// FormatResult renders a succeeded job's result, including where to download
// the full output and how long it stays available.
func FormatResult(res domain.JobResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "InterProScan Job %s Results\n", res.JobID)
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	if len(res.Summary) > 0 {
		b.WriteString("Analysis Summary:\n")
		for _, k := range sortedKeys(res.Summary) {
			fmt.Fprintf(&b, "  - %s: %v\n", k, res.Summary[k])
		}
		b.WriteString("\n")
	}
	if res.ResultURL != "" {
		fmt.Fprintf(&b, "Full results: %s\n", res.ResultURL)
		b.WriteString("TSV/XML/JSON results and detailed annotations available for download.\n")
		b.WriteString("Results available for 30 days.\n")
	}
	return b.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
