package batch

import (
	"trinity/internal/parser"
	"trinity/internal/response"
)

// Record is one JSONL input line. Tools and ToolChoice are optional; when
// present the extracted calls are validated against them.
type Record struct {
	ID         string                  `json:"id"`
	Text       string                  `json:"text"`
	Tools      []parser.ToolDefinition `json:"tools,omitempty"`
	ToolChoice string                  `json:"tool_choice,omitempty"`
}

func (r Record) request() parser.Request {
	return parser.Request{Tools: r.Tools, ToolChoice: r.ToolChoice}
}

// Output is one JSONL output line, written in input order.
type Output struct {
	ID               string               `json:"id"`
	Message          response.ChatMessage `json:"message"`
	FinishReason     string               `json:"finish_reason"`
	ValidationErrors []string             `json:"validation_errors,omitempty"`
}

// Summary describes a finished run.
type Summary struct {
	BatchID   string `json:"batch_id"`
	Records   int    `json:"records"`
	WithCalls int    `json:"with_calls"`
	ToolCalls int    `json:"tool_calls"`
	Invalid   int    `json:"invalid"`
	CacheHits int    `json:"cache_hits"`
}
