package parser

import (
	"errors"
	"fmt"
	"strings"

	jsonx "trinity/internal/shared/json"
)

const (
	ToolChoiceAuto     = "auto"
	ToolChoiceNone     = "none"
	ToolChoiceRequired = "required"
)

var (
	ErrToolCallsDisabled  = errors.New("tool calls are disabled by tool_choice")
	ErrToolCallRequired   = errors.New("tool_choice requires a tool call")
	ErrUndeclaredTool     = errors.New("tool is not declared in the request")
	ErrToolChoiceMismatch = errors.New("tool does not match the forced tool_choice")
)

// Validate checks one extracted call against the request. ToolChoice is one
// of auto, none, required or the name of a forced tool.
func Validate(call ToolCall, req Request) error {
	choice := strings.TrimSpace(req.ToolChoice)
	switch choice {
	case ToolChoiceNone:
		return fmt.Errorf("%w: %s", ErrToolCallsDisabled, call.Name)
	case "", ToolChoiceAuto, ToolChoiceRequired:
	default:
		if call.Name != choice {
			return fmt.Errorf("%w: got %s, want %s", ErrToolChoiceMismatch, call.Name, choice)
		}
	}

	if len(req.Tools) == 0 {
		return nil
	}
	definition, ok := findTool(req.Tools, call.Name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUndeclaredTool, call.Name)
	}
	if len(definition.Parameters.Required) == 0 {
		return nil
	}

	value, err := jsonx.DecodeValue([]byte(call.Arguments))
	if err != nil {
		return fmt.Errorf("decode arguments of %s: %w", call.Name, err)
	}
	args, _ := value.(map[string]any)
	for _, required := range definition.Parameters.Required {
		if _, ok := args[required]; !ok {
			return fmt.Errorf("missing required parameter: %s", required)
		}
	}
	return nil
}

// ValidateCalls validates every call and joins the failures.
func ValidateCalls(calls []ToolCall, req Request) error {
	if len(calls) == 0 && strings.TrimSpace(req.ToolChoice) == ToolChoiceRequired {
		return ErrToolCallRequired
	}
	var errs []error
	for i, call := range calls {
		if err := Validate(call, req); err != nil {
			errs = append(errs, fmt.Errorf("tool call %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func findTool(tools []ToolDefinition, name string) (ToolDefinition, bool) {
	for _, tool := range tools {
		if tool.Name == name {
			return tool, true
		}
	}
	return ToolDefinition{}, false
}
