package parser

import (
	"fmt"
	"strings"

	errs "trinity/internal/shared/errors"
	jsonx "trinity/internal/shared/json"
)

// PayloadErrorKind classifies why a block's JSON payload was rejected.
type PayloadErrorKind string

const (
	PayloadInvalidJSON  PayloadErrorKind = "invalid_json"
	PayloadNotObject    PayloadErrorKind = "not_object"
	PayloadBadName      PayloadErrorKind = "bad_name"
	PayloadBadArguments PayloadErrorKind = "bad_arguments"
)

// PayloadError reports a <tool_call> block whose payload could not become a
// ToolCall.
type PayloadError struct {
	Kind    PayloadErrorKind
	Payload string
	Err     error
}

func (e *PayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool call payload %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("tool call payload %s", e.Kind)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// Extract runs one-shot extraction over a complete text.
func Extract(text string) ExtractionResult {
	result, _ := extract(text)
	return result
}

// extract returns the result together with the reason it degraded, if it did.
// A degraded result is always the no-calls result over the stripped text.
func extract(text string) (ExtractionResult, error) {
	stripped := StripThinkTags(text)
	first := strings.Index(stripped, ToolCallStart)
	if first == -1 {
		return noCalls(stripped), nil
	}

	var calls []ToolCall
	for _, payload := range blockPayloads(stripped) {
		call, err := decodeToolCall(payload)
		if err != nil {
			return noCalls(stripped), errs.NewDegradedError(err, "extract tool calls", stripped)
		}
		calls = append(calls, call)
	}

	return ExtractionResult{
		Called:  true,
		Calls:   calls,
		Content: optional(strings.TrimRight(stripped[:first], "\n")),
	}, nil
}

func noCalls(stripped string) ExtractionResult {
	return ExtractionResult{Content: optional(stripped)}
}

// blockPayloads returns the trimmed inner text of every complete block, left
// to right. Each block runs from a start marker to the first end marker after
// it; a start marker with no end marker after it ends the scan.
func blockPayloads(text string) []string {
	var payloads []string
	pos := 0
	for {
		start := strings.Index(text[pos:], ToolCallStart)
		if start == -1 {
			return payloads
		}
		inner := pos + start + len(ToolCallStart)
		end := strings.Index(text[inner:], ToolCallEnd)
		if end == -1 {
			return payloads
		}
		payloads = append(payloads, strings.TrimSpace(text[inner:inner+end]))
		pos = inner + end + len(ToolCallEnd)
	}
}

func decodeToolCall(payload string) (ToolCall, error) {
	data := []byte(payload)
	if !jsonx.Valid(data) {
		return ToolCall{}, &PayloadError{Kind: PayloadInvalidJSON, Payload: payload}
	}
	value, err := jsonx.DecodeValue(data)
	if err != nil {
		return ToolCall{}, &PayloadError{Kind: PayloadInvalidJSON, Payload: payload, Err: err}
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return ToolCall{}, &PayloadError{Kind: PayloadNotObject, Payload: payload}
	}

	call := ToolCall{Arguments: "{}"}
	if raw, present := obj["name"]; present {
		name, ok := raw.(string)
		if !ok {
			return ToolCall{}, &PayloadError{
				Kind:    PayloadBadName,
				Payload: payload,
				Err:     fmt.Errorf("name is %T, want string", raw),
			}
		}
		call.Name = name
	}
	if raw, present := obj["arguments"]; present {
		args, err := jsonx.Compact(raw)
		if err != nil {
			return ToolCall{}, &PayloadError{Kind: PayloadBadArguments, Payload: payload, Err: err}
		}
		call.Arguments = args
	}
	return call, nil
}
