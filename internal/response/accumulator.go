package response

import (
	"maps"
	"slices"
	"strings"
)

// Accumulator folds streamed deltas into the final message, the way a
// client reassembles a streamed completion.
type Accumulator struct {
	content    strings.Builder
	hasContent bool
	calls      map[int]*ToolCall
}

func NewAccumulator() *Accumulator {
	return &Accumulator{calls: make(map[int]*ToolCall)}
}

// Add merges one delta. Nil deltas are ignored. Arguments for the same index
// are concatenated; id, type and name keep their first non-empty value.
func (a *Accumulator) Add(delta *DeltaMessage) {
	if delta == nil {
		return
	}
	if delta.Content != nil {
		a.content.WriteString(*delta.Content)
		a.hasContent = true
	}
	for _, dc := range delta.ToolCalls {
		call, ok := a.calls[dc.Index]
		if !ok {
			call = &ToolCall{}
			a.calls[dc.Index] = call
		}
		if call.ID == "" {
			call.ID = dc.ID
		}
		if call.Type == "" {
			call.Type = dc.Type
		}
		if dc.Function == nil {
			continue
		}
		if call.Function.Name == "" {
			call.Function.Name = dc.Function.Name
		}
		call.Function.Arguments += dc.Function.Arguments
	}
}

// Message returns the accumulated message with calls ordered by index.
func (a *Accumulator) Message() ChatMessage {
	msg := ChatMessage{Role: "assistant"}
	if a.hasContent {
		content := a.content.String()
		msg.Content = &content
	}
	for _, index := range slices.Sorted(maps.Keys(a.calls)) {
		msg.ToolCalls = append(msg.ToolCalls, *a.calls[index])
	}
	return msg
}
