package parser

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	tokenutil "trinity/internal/shared/token"
)

var weatherBlock = "<tool_call>\n" +
	`{"name": "get_weather", "arguments": {"location": "Paris"}}` + "\n" +
	"</tool_call>"

func TestStreamingBasic(t *testing.T) {
	p := quietParser()
	out := runStream(p, []string{
		"hello <think>thought</think>\n",
		weatherBlock,
	}, false)

	require.Equal(t, "hello thought\n", out.content)
	require.Equal(t, []ToolCallDelta{{Index: 0, Name: "get_weather", Arguments: `{"location":"Paris"}`}}, out.calls)
}

func propertyText() string {
	return joinLines(
		"Let me look that up, since 3 < 4 and <b>bold</b> is fine.",
		block("get_weather", `{"location": "Zürich", "units": "metric"}`),
		"",
		block("get_time", `{"timezone": "UTC", "nested": {"list": [1, 2.5, "x"]}}`),
		block("no_args", `{}`),
		"",
	)
}

func assertMatchesOneShot(t *testing.T, text string, out streamOutcome, label string) {
	t.Helper()
	want := Extract(text)
	require.True(t, want.Called, label)
	require.Equal(t, want.Calls, callsOf(out.calls), label)
	for i, call := range out.calls {
		require.Equal(t, i, call.Index, label)
	}
	require.Zero(t, out.nils, label)
}

func TestStreamingMatchesOneShotForEveryTwoWaySplit(t *testing.T) {
	text := propertyText()
	for i := 0; i <= len(text); i++ {
		for j := i; j <= len(text); j += 3 {
			out := runStream(quietParser(), splitAt(text, i, j), true)
			assertMatchesOneShot(t, text, out, "split")
		}
	}
}

func TestStreamingMatchesOneShotForSingleByteFragments(t *testing.T) {
	text := propertyText()
	fragments := make([]string, 0, len(text))
	for i := 0; i < len(text); i++ {
		fragments = append(fragments, text[i:i+1])
	}
	out := runStream(quietParser(), fragments, true)
	assertMatchesOneShot(t, text, out, "bytes")
}

func TestStreamingMatchesOneShotForRandomChunkings(t *testing.T) {
	text := propertyText()
	rng := rand.New(rand.NewPCG(7, 11))
	for iter := 0; iter < 300; iter++ {
		var fragments []string
		for pos := 0; pos < len(text); {
			size := 1 + rng.IntN(24)
			end := min(pos+size, len(text))
			fragments = append(fragments, text[pos:end])
			pos = end
		}
		out := runStream(quietParser(), fragments, true)
		assertMatchesOneShot(t, text, out, "random")
	}
}

func TestStreamingEmitsAtMostOneCallPerFragment(t *testing.T) {
	p := quietParser()
	both := block("a", `{"n": 1}`) + block("b", `{"n": 2}`)

	first := p.ExtractToolCallsStreaming(Fragment{Text: both}, Request{})
	require.NotNil(t, first)
	require.Equal(t, []ToolCallDelta{{Index: 0, Name: "a", Arguments: `{"n":1}`}}, first.ToolCalls)
	require.Equal(t, block("b", `{"n": 2}`), p.Pending())

	second := p.ExtractToolCallsStreaming(Fragment{}, Request{})
	require.NotNil(t, second)
	require.Equal(t, []ToolCallDelta{{Index: 1, Name: "b", Arguments: `{"n":2}`}}, second.ToolCalls)
	require.Empty(t, p.Pending())

	require.Equal(t, []ToolCallDelta{
		{Index: 0, Name: "a", Arguments: `{"n":1}`},
		{Index: 1, Name: "b", Arguments: `{"n":2}`},
	}, p.StreamedCalls())
}

func TestFinishDrainsDeferredCalls(t *testing.T) {
	p := quietParser()
	text := block("a", "{}") + "\n" + block("b", "{}") + "\n" + block("c", "{}")

	out := runStream(p, []string{text}, false)
	require.Len(t, out.calls, 1)

	drained := p.Finish(Request{})
	require.NotNil(t, drained)
	require.Nil(t, drained.Content)
	require.Equal(t, []ToolCallDelta{
		{Index: 1, Name: "b", Arguments: "{}"},
		{Index: 2, Name: "c", Arguments: "{}"},
	}, drained.ToolCalls)
	require.Nil(t, p.Finish(Request{}))
}

func TestStreamingSuppressesNarrationAfterFirstCall(t *testing.T) {
	// Pinned: once a call has been emitted, fragments without a start marker
	// produce no content, even when they carry real prose.
	obs := &recordingObserver{}
	p := quietParser(WithObserver(obs))

	out := runStream(p, []string{
		"Checking. ",
		weatherBlock,
		"\nThe forecast is sunny.",
	}, true)

	require.Equal(t, "Checking. ", out.content)
	require.Len(t, out.calls, 1)
	require.Contains(t, obs.fragments, FragmentSuppressed)

	trailing := p.ExtractToolCallsStreaming(Fragment{Text: "more prose"}, Request{})
	require.NotNil(t, trailing)
	require.True(t, trailing.IsEmpty())
}

func TestStreamingEmitsProseThatShareAFragmentWithALaterBlock(t *testing.T) {
	p := quietParser()
	out := runStream(p, []string{
		block("a", "{}"),
		"then\n\n" + block("b", "{}"),
	}, false)

	require.Equal(t, "then", out.content)
	require.Equal(t, []string{"a", "b"}, []string{out.calls[0].Name, out.calls[1].Name})
}

func TestStreamingBuffersUnterminatedBlock(t *testing.T) {
	obs := &recordingObserver{}
	p := quietParser(WithObserver(obs))

	delta := p.ExtractToolCallsStreaming(Fragment{Text: "Checking\n\n<tool_call>\n{\"na"}, Request{})
	require.NotNil(t, delta)
	require.Equal(t, "Checking", contentOf(delta.Content))
	require.Empty(t, delta.ToolCalls)
	require.Equal(t, "<tool_call>\n{\"na", p.Pending())

	delta = p.ExtractToolCallsStreaming(Fragment{Text: "me\": \"a\"}\n</tool"}, Request{})
	require.True(t, delta.IsEmpty())

	delta = p.ExtractToolCallsStreaming(Fragment{Text: "_call>"}, Request{})
	require.Equal(t, []ToolCallDelta{{Index: 0, Name: "a", Arguments: "{}"}}, delta.ToolCalls)
	require.Equal(t, []FragmentOutcome{FragmentBuffered, FragmentBuffered, FragmentCall}, obs.fragments)
}

func TestStreamingStartMarkerSplitAcrossFragments(t *testing.T) {
	p := quietParser()

	first := p.ExtractToolCallsStreaming(Fragment{Text: "Sure <tool"}, Request{})
	require.Equal(t, "Sure ", contentOf(first.Content))
	require.Equal(t, "<tool", p.Pending())

	second := p.ExtractToolCallsStreaming(Fragment{Text: `_call>{"name": "a", "arguments": {}}</tool_call>`}, Request{})
	require.Equal(t, []ToolCallDelta{{Index: 0, Name: "a", Arguments: "{}"}}, second.ToolCalls)
}

func TestFinishReleasesHeldBackText(t *testing.T) {
	p := quietParser()
	out := runStream(p, []string{"compare a <", "to"}, false)
	require.Equal(t, "compare a ", out.content)

	drained := p.Finish(Request{})
	require.NotNil(t, drained)
	require.Equal(t, "<to", contentOf(drained.Content))
	require.Empty(t, p.Pending())
}

func TestFinishLeavesUnterminatedBlockPending(t *testing.T) {
	p := quietParser()
	runStream(p, []string{"x <tool_call>{\"name\""}, false)

	require.Nil(t, p.Finish(Request{}))
	require.Equal(t, "<tool_call>{\"name\"", p.Pending())
	require.Empty(t, p.StreamedCalls())
}

func TestStreamingMalformedBlockIsSuppressedAndRetained(t *testing.T) {
	// Pinned: a balanced block that does not decode yields no result and stays
	// buffered, so every later fragment rescans it.
	logger := &recordingLogger{}
	obs := &recordingObserver{}
	p := New(WithLogger(logger), WithObserver(obs))

	bad := "<tool_call>{not json}</tool_call>"
	require.Nil(t, p.ExtractToolCallsStreaming(Fragment{Text: "ok " + bad}, Request{}))
	require.Equal(t, "ok "+bad, p.Pending())
	require.Contains(t, logger.warns, "Failed to extract any tool calls.")

	require.Nil(t, p.ExtractToolCallsStreaming(Fragment{Text: " later"}, Request{}))
	require.Equal(t, "ok "+bad+" later", p.Pending())
	require.Equal(t, []FragmentOutcome{FragmentFailed, FragmentFailed}, obs.fragments)
	require.Empty(t, p.StreamedCalls())
}

func TestStreamingThinkDelimiterSplitAcrossFragmentsIsNotStripped(t *testing.T) {
	// Pinned: delimiters are stripped per fragment, so one cut in half survives.
	out := runStream(quietParser(), []string{"hello <thi", "nk>idea</think> done"}, true)
	require.Equal(t, "hello <think>idea done", out.content)
}

func TestStreamingStripsDelimitersInsideBlocks(t *testing.T) {
	out := runStream(quietParser(), []string{
		"<think>plan</think><tool_call><think>",
		`{"name": "a", "arguments": {"k": "v"}}</think></tool_call>`,
	}, true)
	require.Equal(t, "plan", out.content)
	require.Equal(t, []ToolCall{{Name: "a", Arguments: `{"k":"v"}`}}, callsOf(out.calls))
}

func TestStreamingFastPathMatchesSlowPath(t *testing.T) {
	vocab := tokenutil.MapVocabulary{ToolCallStart: 1, ToolCallEnd: 2}
	fragments := []Fragment{
		{Text: "The ", TokenIDs: []int{10}},
		{Text: "answer", TokenIDs: []int{11}},
		{Text: " is ", TokenIDs: []int{12}},
		{Text: ToolCallStart, TokenIDs: []int{1}},
		{Text: `{"name": "a", "arguments": {}}`, TokenIDs: []int{13, 14}},
		{Text: ToolCallEnd, TokenIDs: []int{2}},
		{Text: "bye", TokenIDs: []int{15}},
	}

	obs := &recordingObserver{}
	fast := quietParser(WithVocabulary(vocab), WithObserver(obs))
	slow := quietParser()

	id, ok := fast.StartTokenID()
	require.True(t, ok)
	require.Equal(t, 1, id)
	_, ok = slow.StartTokenID()
	require.False(t, ok)

	for _, frag := range fragments {
		require.Equal(t,
			slow.ExtractToolCallsStreaming(Fragment{Text: frag.Text}, Request{}),
			fast.ExtractToolCallsStreaming(frag, Request{}),
			"fragment %q", frag.Text)
	}
	require.Equal(t, []FragmentOutcome{FragmentFastPath, FragmentFastPath, FragmentFastPath}, obs.fragments[:3])
	require.NotContains(t, obs.fragments[3:], FragmentFastPath)
}

func TestStreamingFastPathNeedsTokenIDs(t *testing.T) {
	obs := &recordingObserver{}
	p := quietParser(WithVocabulary(tokenutil.MapVocabulary{ToolCallStart: 1}), WithObserver(obs))

	p.ExtractToolCallsStreaming(Fragment{Text: "no ids"}, Request{})
	p.ExtractToolCallsStreaming(Fragment{Text: "has <b>", TokenIDs: []int{5}}, Request{})
	require.Equal(t, []FragmentOutcome{FragmentContent, FragmentContent}, obs.fragments)
}

func TestStreamingEmptyFragments(t *testing.T) {
	p := quietParser()
	delta := p.ExtractToolCallsStreaming(Fragment{}, Request{})
	require.NotNil(t, delta)
	require.True(t, delta.IsEmpty())
	require.Nil(t, p.Finish(Request{}))
}
