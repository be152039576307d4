package parser

// ToolCall is one decoded <tool_call> block. Arguments is always compact JSON
// text with sorted keys.
type ToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ExtractionResult is the outcome of one-shot extraction over a complete text.
type ExtractionResult struct {
	Called  bool       `json:"tools_called"`
	Calls   []ToolCall `json:"tool_calls"`
	Content *string    `json:"content,omitempty"`
}

// ToolCallDelta is a completed call emitted while streaming. Name and
// Arguments are always whole; they are never split across deltas.
type ToolCallDelta struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// DeltaResult is what one fragment contributes to the response.
type DeltaResult struct {
	Content   *string         `json:"content,omitempty"`
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
}

// IsEmpty reports whether the delta carries neither content nor calls.
func (d *DeltaResult) IsEmpty() bool {
	return d == nil || (d.Content == nil && len(d.ToolCalls) == 0)
}

// Fragment is one arriving piece of generated text. TokenIDs is optional.
type Fragment struct {
	Text     string
	TokenIDs []int
}

// ToolDefinition describes a tool declared by the request.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ParameterSchema defines the JSON schema of a tool's arguments.
type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property defines a single parameter
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Enum        []any  `json:"enum,omitempty"`
}

// Request carries the request fields the parser is handed. Extraction never
// branches on them; Validate does.
type Request struct {
	Tools      []ToolDefinition `json:"tools,omitempty"`
	ToolChoice string           `json:"tool_choice,omitempty"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
