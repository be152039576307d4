package main

import (
	"io"

	"github.com/spf13/cobra"

	"trinity/internal/parser"
	"trinity/internal/response"
)

type extractOutput struct {
	ToolsCalled  bool                 `json:"tools_called" yaml:"tools_called"`
	Message      response.ChatMessage `json:"message" yaml:"message"`
	FinishReason string               `json:"finish_reason" yaml:"finish_reason"`
}

func newExtractCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract tool calls from a complete model output",
		Long:  "Reads the whole output (from file or stdin) and extracts every <tool_call> block at once.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readInput(args)
			if err != nil {
				return err
			}
			p, err := a.newParser()
			if err != nil {
				return err
			}

			result := p.ExtractToolCalls(text, parser.Request{})
			msg := response.FromExtraction(result)
			out := extractOutput{
				ToolsCalled:  result.Called,
				Message:      msg,
				FinishReason: response.FinishReason(msg),
			}
			return render(a.stdout, a.format(cmd), out, func(w io.Writer) error {
				return writeMessageText(w, msg)
			})
		},
	}
}
