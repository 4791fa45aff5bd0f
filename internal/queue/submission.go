package queue

import "github.com/bioscanq/scanq/pkg/domain"

const defaultPriority = 5

// NewSubmission splits a tool argument mapping into the job's domain payload
// and its scheduling metadata. Queue-control keys (priority, tags,
// notification_email) are stripped from the parameters: they instruct the
// queue, not the scanner. The input map is not modified.
func NewSubmission(jobType string, args map[string]any) domain.JobSubmission {
	params := make(map[string]any, len(args))
	priority := defaultPriority
	var tags []string

	for k, v := range args {
		switch k {
		case "priority":
			if p, ok := toInt(v); ok {
				priority = p
			}
		case "tags":
			tags = toStringSlice(v)
		case "notification_email":
			// Consumed by the queue's notifier, never forwarded to the tool.
		default:
			params[k] = v
		}
	}

	if tags == nil {
		tags = []string{}
	}
	return domain.JobSubmission{
		JobType:    jobType,
		Parameters: params,
		Priority:   priority,
		Tags:       tags,
	}
}

// toInt accepts the numeric shapes JSON decoding can produce.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func toStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		out := make([]string, len(s))
		copy(out, s)
		return out
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
