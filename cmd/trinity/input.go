package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"trinity/internal/parser"
	errs "trinity/internal/shared/errors"
	jsonx "trinity/internal/shared/json"
)

// readInput returns the text of the file named by args[0], or stdin when no
// file (or "-") is given.
func (a *app) readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", errs.NewPermanentError(err, fmt.Sprintf("read stdin: %v", err))
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", errs.NewPermanentError(err, fmt.Sprintf("read %s: %v", args[0], err))
	}
	return string(data), nil
}

// loadTools reads a JSON array of tool definitions. Entries may be bare
// definitions or chat-completions tools ({"type":"function","function":{...}}).
func loadTools(path string) ([]parser.ToolDefinition, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewPermanentError(err, fmt.Sprintf("read tools %s: %v", path, err))
	}
	tools, err := decodeTools(data)
	if err != nil {
		return nil, errs.NewPermanentError(err, fmt.Sprintf("decode tools %s: %v", path, err))
	}
	return tools, nil
}

func decodeTools(data []byte) ([]parser.ToolDefinition, error) {
	var entries []jsonx.RawMessage
	if err := jsonx.Unmarshal(bytes.TrimSpace(data), &entries); err != nil {
		return nil, err
	}
	tools := make([]parser.ToolDefinition, 0, len(entries))
	for i, entry := range entries {
		var wrapped struct {
			Function *parser.ToolDefinition `json:"function"`
		}
		if err := jsonx.Unmarshal(entry, &wrapped); err != nil {
			return nil, fmt.Errorf("tool %d: %w", i, err)
		}
		if wrapped.Function != nil {
			tools = append(tools, *wrapped.Function)
			continue
		}
		var tool parser.ToolDefinition
		if err := jsonx.Unmarshal(entry, &tool); err != nil {
			return nil, fmt.Errorf("tool %d: %w", i, err)
		}
		if tool.Name == "" {
			return nil, fmt.Errorf("tool %d: missing name", i)
		}
		tools = append(tools, tool)
	}
	return tools, nil
}
