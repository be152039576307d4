package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"trinity/internal/parser"
	"trinity/internal/response"
)

type validateOutput struct {
	Valid   bool                 `json:"valid" yaml:"valid"`
	Errors  []string             `json:"errors,omitempty" yaml:"errors,omitempty"`
	Message response.ChatMessage `json:"message" yaml:"message"`
}

func newValidateCommand(a *app) *cobra.Command {
	var (
		toolsPath  string
		toolChoice string
	)
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Extract tool calls and check them against declared tools",
		Long: `Extracts tool calls like "extract", then checks each one against the tools
file and tool_choice. Exits with status 2 when any call is rejected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := loadTools(toolsPath)
			if err != nil {
				return err
			}
			text, err := a.readInput(args)
			if err != nil {
				return err
			}
			p, err := a.newParser()
			if err != nil {
				return err
			}

			req := parser.Request{Tools: tools, ToolChoice: toolChoice}
			result := p.ExtractToolCalls(text, req)
			validationErr := parser.ValidateCalls(result.Calls, req)

			out := validateOutput{
				Valid:   validationErr == nil,
				Errors:  errorLines(validationErr),
				Message: response.FromExtraction(result),
			}
			if err := render(a.stdout, a.format(cmd), out, func(w io.Writer) error {
				return writeValidationText(w, out)
			}); err != nil {
				return err
			}
			if validationErr != nil {
				return &ExitCodeError{Code: 2, Err: fmt.Errorf("%d tool call check(s) failed", len(out.Errors))}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&toolsPath, "tools", "", "JSON file with the declared tools")
	cmd.Flags().StringVar(&toolChoice, "tool-choice", parser.ToolChoiceAuto, "auto, none, required or a tool name")
	return cmd
}

func errorLines(err error) []string {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var lines []string
		for _, e := range joined.Unwrap() {
			lines = append(lines, e.Error())
		}
		return lines
	}
	return []string{err.Error()}
}

func writeValidationText(w io.Writer, out validateOutput) error {
	if err := writeMessageText(w, out.Message); err != nil {
		return err
	}
	if out.Valid {
		_, err := fmt.Fprintln(w, green("valid"))
		return err
	}
	for _, line := range out.Errors {
		if _, err := fmt.Fprintf(w, "%s %s\n", red("rejected:"), line); err != nil {
			return err
		}
	}
	return nil
}
