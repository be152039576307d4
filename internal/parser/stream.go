package parser

import (
	"slices"
	"strings"
)

// callIndex is either notStarted or the index the next completed call gets.
type callIndex int

const notStarted callIndex = -1

// callLog records emitted calls by index, in emission order.
type callLog struct {
	order   []int
	byIndex map[int]ToolCall
}

func (l *callLog) put(index int, call ToolCall) {
	if l.byIndex == nil {
		l.byIndex = make(map[int]ToolCall)
	}
	if _, ok := l.byIndex[index]; !ok {
		l.order = append(l.order, index)
	}
	l.byIndex[index] = call
}

func (l *callLog) snapshot() []ToolCallDelta {
	out := make([]ToolCallDelta, 0, len(l.order))
	for _, index := range l.order {
		call := l.byIndex[index]
		out = append(out, ToolCallDelta{Index: index, Name: call.Name, Arguments: call.Arguments})
	}
	return out
}

type streamState struct {
	buffer   string
	next     callIndex
	streamed callLog
	started  bool
}

func newStreamState() *streamState {
	return &streamState{next: notStarted}
}

// ExtractToolCallsStreaming consumes the next fragment of the stream. It
// returns nil when a complete block failed to decode; otherwise the result
// carries the narration the fragment settled and at most one completed call.
//
// Once the first call has been emitted, text that contains no start marker is
// dropped rather than emitted as content.
func (p *Parser) ExtractToolCallsStreaming(frag Fragment, _ Request) *DeltaResult {
	if p.idleFastPath(frag) {
		p.observer.ObserveFragment(FragmentFastPath)
		return &DeltaResult{Content: optional(frag.Text)}
	}
	return p.process(StripThinkTags(frag.Text), false)
}

// process appends text to the buffer and settles what it can. Unless final,
// a buffer tail that could still grow into a start marker is held back.
func (p *Parser) process(text string, final bool) *DeltaResult {
	s := p.state
	s.buffer += text

	start := strings.Index(s.buffer, ToolCallStart)
	if start == -1 {
		cut := len(s.buffer)
		if !final {
			cut -= partialSuffix(s.buffer, ToolCallStart)
		}
		content := s.buffer[:cut]
		s.buffer = s.buffer[cut:]
		if s.started {
			if content != "" {
				p.observer.ObserveFragment(FragmentSuppressed)
			}
			return &DeltaResult{}
		}
		p.observer.ObserveFragment(FragmentContent)
		return &DeltaResult{Content: optional(content)}
	}

	endRel := strings.Index(s.buffer[start:], ToolCallEnd)
	if endRel == -1 {
		content := strings.TrimRight(s.buffer[:start], "\n")
		s.buffer = s.buffer[start:]
		p.observer.ObserveFragment(FragmentBuffered)
		return &DeltaResult{Content: optional(content)}
	}
	end := start + endRel + len(ToolCallEnd)

	result, _ := p.extract(s.buffer[:end])
	if len(result.Calls) == 0 {
		p.logger.Warn("Failed to extract any tool calls.")
		p.observer.ObserveFragment(FragmentFailed)
		return nil
	}
	call := result.Calls[0]

	if s.next == notStarted {
		s.next = 0
		s.started = true
	}
	index := int(s.next)
	s.next++
	s.streamed.put(index, call)
	s.buffer = s.buffer[end:]

	p.logger.Debug("tool call %d completed: %s", index, call.Name)
	p.observer.ObserveFragment(FragmentCall)
	return &DeltaResult{
		Content:   result.Content,
		ToolCalls: []ToolCallDelta{{Index: index, Name: call.Name, Arguments: call.Arguments}},
	}
}

// idleFastPath reports whether frag can be emitted as content without
// touching the buffer: nothing is pending, no call has started, the tokenizer
// says the start marker token is absent and the text has no tag at all.
func (p *Parser) idleFastPath(frag Fragment) bool {
	s := p.state
	if s.buffer != "" || s.started || !p.hasStartID || len(frag.TokenIDs) == 0 {
		return false
	}
	if slices.Contains(frag.TokenIDs, p.startTokenID) {
		return false
	}
	return !strings.Contains(frag.Text, "<")
}

// partialSuffix returns the length of the longest proper prefix of marker
// that text ends with.
func partialSuffix(text, marker string) int {
	for n := min(len(marker)-1, len(text)); n > 0; n-- {
		if strings.HasSuffix(text, marker[:n]) {
			return n
		}
	}
	return 0
}

// Finish drains calls whose blocks completed in the same fragment as an
// earlier call and were deferred, then releases any held-back text. Call it
// once when the stream ends. The returned delta merges everything drained; it
// is nil when nothing was. A start marker that never got its end marker stays
// pending and is not emitted.
func (p *Parser) Finish(_ Request) *DeltaResult {
	var content strings.Builder
	var calls []ToolCallDelta
	for {
		delta := p.process("", true)
		if delta == nil {
			break
		}
		if delta.Content != nil {
			content.WriteString(*delta.Content)
		}
		if len(delta.ToolCalls) == 0 {
			break
		}
		calls = append(calls, delta.ToolCalls...)
	}

	merged := &DeltaResult{Content: optional(content.String()), ToolCalls: calls}
	if merged.IsEmpty() {
		return nil
	}
	return merged
}

// StreamedCalls returns every call emitted so far, ordered by index.
func (p *Parser) StreamedCalls() []ToolCallDelta {
	return p.state.streamed.snapshot()
}

// Pending returns the buffered text that has not been settled yet.
func (p *Parser) Pending() string {
	return p.state.buffer
}
