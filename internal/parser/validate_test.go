package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func weatherRequest(choice string) Request {
	return Request{
		ToolChoice: choice,
		Tools: []ToolDefinition{
			{
				Name: "get_weather",
				Parameters: ParameterSchema{
					Type: "object",
					Properties: map[string]Property{
						"location": {Type: "string"},
					},
					Required: []string{"location"},
				},
			},
			{Name: "get_time"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		call    ToolCall
		req     Request
		wantErr error
		errText string
	}{
		{
			name: "declared with required args",
			call: ToolCall{Name: "get_weather", Arguments: `{"location":"Paris"}`},
			req:  weatherRequest(ToolChoiceAuto),
		},
		{
			name: "no declared tools accepts anything",
			call: ToolCall{Name: "anything", Arguments: `{}`},
			req:  Request{},
		},
		{
			name:    "undeclared tool",
			call:    ToolCall{Name: "delete_everything", Arguments: `{}`},
			req:     weatherRequest(ToolChoiceAuto),
			wantErr: ErrUndeclaredTool,
		},
		{
			name:    "missing required parameter",
			call:    ToolCall{Name: "get_weather", Arguments: `{"units":"metric"}`},
			req:     weatherRequest(ToolChoiceRequired),
			errText: "missing required parameter: location",
		},
		{
			name:    "non object arguments miss required parameter",
			call:    ToolCall{Name: "get_weather", Arguments: `null`},
			req:     weatherRequest(ToolChoiceAuto),
			errText: "missing required parameter: location",
		},
		{
			name:    "tool choice none",
			call:    ToolCall{Name: "get_time", Arguments: `{}`},
			req:     weatherRequest(ToolChoiceNone),
			wantErr: ErrToolCallsDisabled,
		},
		{
			name: "forced tool matches",
			call: ToolCall{Name: "get_time", Arguments: `{}`},
			req:  weatherRequest("get_time"),
		},
		{
			name:    "forced tool mismatch",
			call:    ToolCall{Name: "get_time", Arguments: `{}`},
			req:     weatherRequest("get_weather"),
			wantErr: ErrToolChoiceMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.call, tt.req)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.EqualError(t, err, tt.errText)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateCalls(t *testing.T) {
	req := weatherRequest(ToolChoiceRequired)
	require.ErrorIs(t, ValidateCalls(nil, req), ErrToolCallRequired)
	require.NoError(t, ValidateCalls(nil, weatherRequest(ToolChoiceAuto)))

	err := ValidateCalls([]ToolCall{
		{Name: "get_weather", Arguments: `{"location":"Oslo"}`},
		{Name: "nope", Arguments: `{}`},
		{Name: "get_weather", Arguments: `{}`},
	}, req)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUndeclaredTool))
	require.Contains(t, err.Error(), "tool call 1:")
	require.Contains(t, err.Error(), "tool call 2: missing required parameter: location")
	require.NotContains(t, err.Error(), "tool call 0")
}

func TestExtractionDoesNotDependOnRequest(t *testing.T) {
	text := "pre " + block("not_declared", `{"a": 1}`)
	plain := quietParser().ExtractToolCalls(text, Request{})
	restricted := quietParser().ExtractToolCalls(text, weatherRequest(ToolChoiceNone))
	require.Equal(t, plain, restricted)
	require.Len(t, restricted.Calls, 1)
}
