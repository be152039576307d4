package parser

import "strings"

const (
	ToolCallStart = "<tool_call>"
	ToolCallEnd   = "</tool_call>"
	ThinkStart    = "<think>"
	ThinkEnd      = "</think>"
)

// StripThinkTags removes the <think> and </think> literals and keeps
// everything between them. Removal repeats until neither literal remains, so
// the result never contains a delimiter and stripping twice equals stripping
// once.
func StripThinkTags(text string) string {
	for strings.Contains(text, ThinkStart) || strings.Contains(text, ThinkEnd) {
		text = strings.ReplaceAll(text, ThinkStart, "")
		text = strings.ReplaceAll(text, ThinkEnd, "")
	}
	return text
}
