package response

import (
	"trinity/internal/parser"
	"trinity/internal/shared/utils/id"
)

// Mapper converts parser results into chat-completions messages, assigning
// a fresh id to every tool call.
type Mapper struct {
	newID func() string
}

// NewMapper returns a mapper using newID for tool call ids, or
// chatcmpl-tool-<hex> ids when newID is nil.
func NewMapper(newID func() string) *Mapper {
	if newID == nil {
		newID = id.NewToolCallID
	}
	return &Mapper{newID: newID}
}

var defaultMapper = NewMapper(nil)

// FromExtraction maps a one-shot result with the default mapper.
func FromExtraction(result parser.ExtractionResult) ChatMessage {
	return defaultMapper.FromExtraction(result)
}

// FromDelta maps a streamed result with the default mapper.
func FromDelta(delta *parser.DeltaResult) *DeltaMessage {
	return defaultMapper.FromDelta(delta)
}

func (m *Mapper) FromExtraction(result parser.ExtractionResult) ChatMessage {
	msg := ChatMessage{Role: "assistant", Content: copyString(result.Content)}
	if !result.Called {
		return msg
	}
	for _, call := range result.Calls {
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:   m.newID(),
			Type: ToolCallType,
			Function: FunctionCall{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		})
	}
	return msg
}

// FromDelta maps one streamed result. Nil maps to nil: the caller sends
// nothing for that fragment.
func (m *Mapper) FromDelta(delta *parser.DeltaResult) *DeltaMessage {
	if delta == nil {
		return nil
	}
	out := &DeltaMessage{Content: copyString(delta.Content)}
	for _, call := range delta.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, DeltaToolCall{
			Index: call.Index,
			ID:    m.newID(),
			Type:  ToolCallType,
			Function: &DeltaFunctionCall{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		})
	}
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
