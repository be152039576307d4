package main

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"trinity/internal/response"
	jsonx "trinity/internal/shared/json"
)

// render writes v as json or yaml, or calls text for the text format.
func render(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case "", "json":
		data, err := jsonx.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "text":
		return text(w)
	default:
		return fmt.Errorf("unknown output format %q (want json, yaml or text)", format)
	}
}

func writeMessageText(w io.Writer, msg response.ChatMessage) error {
	var b strings.Builder
	if msg.Content != nil {
		b.WriteString(*msg.Content)
		if !strings.HasSuffix(*msg.Content, "\n") {
			b.WriteString("\n")
		}
	}
	for _, call := range msg.ToolCalls {
		fmt.Fprintf(&b, "%s %s(%s) %s\n", green("tool call"), cyan(call.Function.Name), call.Function.Arguments, gray(call.ID))
	}
	fmt.Fprintf(&b, "%s %s\n", gray("finish_reason:"), response.FinishReason(msg))
	_, err := io.WriteString(w, b.String())
	return err
}
