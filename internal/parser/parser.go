package parser

import (
	"errors"

	"trinity/internal/shared/logging"
	tokenutil "trinity/internal/shared/token"
)

const payloadLogLimit = 200

// Parser extracts <tool_call> blocks from model output. One-shot extraction
// is stateless and safe for concurrent use; the streaming methods own the
// state of a single response stream and must be called from one goroutine.
type Parser struct {
	logger   logging.Logger
	observer Observer

	startTokenID int
	hasStartID   bool
	endTokenID   int
	hasEndID     bool

	state *streamState
}

type Option func(*Parser)

// WithVocabulary resolves the marker token ids used by the streaming fast path.
func WithVocabulary(vocab tokenutil.Vocabulary) Option {
	return func(p *Parser) {
		if vocab == nil {
			return
		}
		p.startTokenID, p.hasStartID = vocab.TokenID(ToolCallStart)
		p.endTokenID, p.hasEndID = vocab.TokenID(ToolCallEnd)
	}
}

func WithLogger(logger logging.Logger) Option {
	return func(p *Parser) {
		p.logger = logging.OrNop(logger)
	}
}

func WithObserver(observer Observer) Option {
	return func(p *Parser) {
		if observer != nil {
			p.observer = observer
		}
	}
}

// New creates a parser for one response stream.
func New(opts ...Option) *Parser {
	p := &Parser{
		logger:   logging.NewParserLogger("tool-parser"),
		observer: nopObserver{},
		state:    newStreamState(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StartTokenID returns the vocabulary id of <tool_call>, if known.
func (p *Parser) StartTokenID() (int, bool) {
	return p.startTokenID, p.hasStartID
}

// EndTokenID returns the vocabulary id of </tool_call>, if known.
func (p *Parser) EndTokenID() (int, bool) {
	return p.endTokenID, p.hasEndID
}

// ExtractToolCalls runs one-shot extraction over a complete model output.
func (p *Parser) ExtractToolCalls(text string, _ Request) ExtractionResult {
	result, err := p.extract(text)
	switch {
	case err != nil:
		p.observer.ObserveExtraction(ExtractionDegraded, 0)
	case result.Called:
		p.observer.ObserveExtraction(ExtractionCalled, len(result.Calls))
	default:
		p.observer.ObserveExtraction(ExtractionNoCalls, 0)
	}
	return result
}

func (p *Parser) extract(text string) (ExtractionResult, error) {
	result, err := extract(text)
	if err != nil {
		p.logger.Warn("Error in extracting tool call from response: %v (payload: %q)", err, payloadOf(err))
	}
	return result, err
}

func payloadOf(err error) string {
	var payloadErr *PayloadError
	if !errors.As(err, &payloadErr) {
		return ""
	}
	payload := payloadErr.Payload
	if len(payload) > payloadLogLimit {
		payload = payload[:payloadLogLimit] + "..."
	}
	return payload
}
