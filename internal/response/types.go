package response

// ToolCallType is the only tool call type the chat API defines.
const ToolCallType = "function"

// Finish reasons reported for a completed assistant message.
const (
	FinishReasonStop      = "stop"
	FinishReasonToolCalls = "tool_calls"
)

// ChatMessage is a complete assistant message in chat-completions shape.
type ChatMessage struct {
	Role      string     `json:"role" yaml:"role"`
	Content   *string    `json:"content" yaml:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id" yaml:"id"`
	Type     string       `json:"type" yaml:"type"`
	Function FunctionCall `json:"function" yaml:"function"`
}

type FunctionCall struct {
	Name      string `json:"name" yaml:"name"`
	Arguments string `json:"arguments" yaml:"arguments"`
}

// DeltaMessage is one streamed chunk of an assistant message.
type DeltaMessage struct {
	Content   *string         `json:"content,omitempty" yaml:"content,omitempty"`
	ToolCalls []DeltaToolCall `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
}

type DeltaToolCall struct {
	Index    int                `json:"index" yaml:"index"`
	ID       string             `json:"id,omitempty" yaml:"id,omitempty"`
	Type     string             `json:"type,omitempty" yaml:"type,omitempty"`
	Function *DeltaFunctionCall `json:"function,omitempty" yaml:"function,omitempty"`
}

type DeltaFunctionCall struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Arguments string `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// FinishReason returns tool_calls when the message carries calls.
func FinishReason(msg ChatMessage) string {
	if len(msg.ToolCalls) > 0 {
		return FinishReasonToolCalls
	}
	return FinishReasonStop
}
