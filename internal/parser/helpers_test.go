package parser

import (
	"fmt"
	"strings"
)

type recordingLogger struct {
	debugs []string
	warns  []string
}

func (l *recordingLogger) Debug(format string, args ...any) {
	l.debugs = append(l.debugs, fmt.Sprintf(format, args...))
}
func (l *recordingLogger) Info(string, ...any) {}
func (l *recordingLogger) Warn(format string, args ...any) {
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}
func (l *recordingLogger) Error(string, ...any) {}

type recordingObserver struct {
	extractions []string
	fragments   []FragmentOutcome
}

func (o *recordingObserver) ObserveExtraction(outcome ExtractionOutcome, calls int) {
	o.extractions = append(o.extractions, fmt.Sprintf("%s:%d", outcome, calls))
}

func (o *recordingObserver) ObserveFragment(outcome FragmentOutcome) {
	o.fragments = append(o.fragments, outcome)
}

// streamOutcome is everything a stream produced, aggregated the way a
// response layer would.
type streamOutcome struct {
	content string
	calls   []ToolCallDelta
	nils    int
}

func collect(out *streamOutcome, delta *DeltaResult) {
	if delta == nil {
		out.nils++
		return
	}
	if delta.Content != nil {
		out.content += *delta.Content
	}
	out.calls = append(out.calls, delta.ToolCalls...)
}

func runStream(p *Parser, fragments []string, finish bool) streamOutcome {
	var out streamOutcome
	for _, f := range fragments {
		collect(&out, p.ExtractToolCallsStreaming(Fragment{Text: f}, Request{}))
	}
	if finish {
		if delta := p.Finish(Request{}); delta != nil {
			collect(&out, delta)
		}
	}
	return out
}

func quietParser(opts ...Option) *Parser {
	return New(append([]Option{WithLogger(&recordingLogger{})}, opts...)...)
}

func splitAt(text string, cuts ...int) []string {
	var parts []string
	prev := 0
	for _, c := range cuts {
		parts = append(parts, text[prev:c])
		prev = c
	}
	return append(parts, text[prev:])
}

func callsOf(deltas []ToolCallDelta) []ToolCall {
	out := make([]ToolCall, 0, len(deltas))
	for _, d := range deltas {
		out = append(out, ToolCall{Name: d.Name, Arguments: d.Arguments})
	}
	return out
}

func joinLines(lines ...string) string {
	return strings.Join(lines, "\n")
}
