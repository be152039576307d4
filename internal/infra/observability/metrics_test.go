package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"trinity/internal/parser"

	"github.com/stretchr/testify/require"
)

func TestDisabledCollectorIsNoop(t *testing.T) {
	m, err := NewMetricsCollector(MetricsConfig{})
	require.NoError(t, err)
	require.False(t, m.Enabled())

	m.ObserveExtraction(parser.ExtractionCalled, 2)
	m.ObserveFragment(parser.FragmentCall)

	var buf bytes.Buffer
	require.NoError(t, m.WriteText(&buf))
	require.Empty(t, buf.String())
	require.Nil(t, m.Registerer())
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var m *MetricsCollector
	m.ObserveExtraction(parser.ExtractionNoCalls, 0)
	m.ObserveFragment(parser.FragmentContent)
	m.SetTestHooks(MetricsTestHooks{})
	require.False(t, m.Enabled())
}

func TestCollectorHooksFireWhenDisabled(t *testing.T) {
	m, err := NewMetricsCollector(MetricsConfig{})
	require.NoError(t, err)

	var outcomes []parser.FragmentOutcome
	calls := 0
	m.SetTestHooks(MetricsTestHooks{
		Extraction: func(_ parser.ExtractionOutcome, n int) { calls += n },
		Fragment:   func(o parser.FragmentOutcome) { outcomes = append(outcomes, o) },
	})

	p := parser.New(parser.WithObserver(m), parser.WithLogger(nil))
	p.ExtractToolCalls(`<tool_call>{"name": "a"}</tool_call><tool_call>{"name": "b"}</tool_call>`, parser.Request{})
	p.ExtractToolCallsStreaming(parser.Fragment{Text: "hi"}, parser.Request{})

	require.Equal(t, 2, calls)
	require.Equal(t, []parser.FragmentOutcome{parser.FragmentContent}, outcomes)
}

func TestCollectorExportsParserMetrics(t *testing.T) {
	m, err := NewMetricsCollector(MetricsConfig{Enabled: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	p := parser.New(parser.WithObserver(m), parser.WithLogger(nil))
	p.ExtractToolCalls(`<tool_call>{"name": "a"}</tool_call>`, parser.Request{})
	p.ExtractToolCalls("plain", parser.Request{})
	p.ExtractToolCallsStreaming(parser.Fragment{Text: `<tool_call>{"name": "a"}</tool_call>`}, parser.Request{})

	var buf bytes.Buffer
	require.NoError(t, m.WriteText(&buf))
	text := buf.String()
	require.Contains(t, text, "trinity_extractions")
	require.Contains(t, text, `outcome="called"`)
	require.Contains(t, text, `outcome="no_calls"`)
	require.Contains(t, text, "trinity_fragments")
	require.Contains(t, text, `mode="stream"`)
	require.Contains(t, text, `mode="oneshot"`)
	require.Contains(t, text, "trinity_extraction_calls")
}

func TestCollectorHandlerServesRegistry(t *testing.T) {
	m, err := NewMetricsCollector(MetricsConfig{Enabled: true})
	require.NoError(t, err)
	m.ObserveFragment(parser.FragmentBuffered)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `outcome="buffered"`)
}
