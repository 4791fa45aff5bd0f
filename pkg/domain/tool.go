package domain

// ToolRequest is a single incoming tool invocation: a tool name plus a
// tool-specific argument mapping. The argument schema is validated by the
// handler that owns the tool, not here.
type ToolRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type ContentType string

const (
	ContentText  ContentType = "text"
	ContentError ContentType = "error"
)

// Content is one item of a tool response. A single call returns either text
// items or one error item, never a mix.
type Content struct {
	Type ContentType `json:"type"`
	Text string      `json:"text"`
}

func TextContent(text string) Content {
	return Content{Type: ContentText, Text: text}
}

func ErrorContent(text string) Content {
	return Content{Type: ContentError, Text: text}
}

// ToolDefinition describes a callable tool for the catalog endpoint.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}
