package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"trinity/internal/parser"
	"trinity/internal/response"
	tokenutil "trinity/internal/shared/token"
)

type streamEvent struct {
	Fragment string                 `json:"fragment" yaml:"fragment"`
	Delta    *response.DeltaMessage `json:"delta" yaml:"delta"`
}

type streamOutput struct {
	Fragments int                  `json:"fragments" yaml:"fragments"`
	Tokens    int                  `json:"tokens" yaml:"tokens"`
	Events    []streamEvent        `json:"events" yaml:"events"`
	Message   response.ChatMessage `json:"message" yaml:"message"`
	Pending   string               `json:"pending,omitempty" yaml:"pending,omitempty"`
}

func newStreamCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream [file]",
		Short: "Replay a model output fragment by fragment through the streaming parser",
		Long: `Cuts the output into fragments (fixed rune chunks, or one fragment per
token with --by-tokens) and feeds them to the streaming parser in order,
printing what each fragment produced and the reassembled message.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readInput(args)
			if err != nil {
				return err
			}
			fragments, err := a.fragments(text)
			if err != nil {
				return err
			}
			p, err := a.newParser()
			if err != nil {
				return err
			}

			format := a.format(cmd)
			out := replay(p, fragments, func(event streamEvent) {
				if format == "text" {
					writeEventText(a.stdout, event)
				}
			})
			out.Tokens = a.countTokens(text)
			if format == "text" {
				_, err := fmt.Fprintf(a.stdout, "%s %s\n", bold("message:"), gray(fmt.Sprintf("(%d tokens)", out.Tokens)))
				if err != nil {
					return err
				}
			}
			return render(a.stdout, format, out, func(w io.Writer) error {
				if out.Pending != "" {
					fmt.Fprintf(w, "%s %q\n", yellow("unterminated:"), out.Pending)
				}
				return writeMessageText(w, out.Message)
			})
		},
	}
	cmd.Flags().Int("chunk-size", 0, "Runes per fragment (default from config stream.chunk_size)")
	cmd.Flags().Bool("by-tokens", false, "Cut one fragment per tokenizer token")
	return cmd
}

// fragments cuts text the way the configuration asks.
func (a *app) fragments(text string) ([]parser.Fragment, error) {
	if !a.cfg.Stream.ByTokens {
		var out []parser.Fragment
		for _, chunk := range tokenutil.ChunkRunes(text, a.cfg.Stream.ChunkSize) {
			out = append(out, parser.Fragment{Text: chunk})
		}
		return out, nil
	}

	vocab, err := tokenutil.NewTiktokenVocabulary(a.cfg.Tokenizer.Encoding)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", a.cfg.Tokenizer.Encoding, err)
	}
	texts, ids := vocab.Split(text)
	out := make([]parser.Fragment, 0, len(texts))
	for i, t := range texts {
		frag := parser.Fragment{Text: t}
		if i < len(ids) {
			frag.TokenIDs = ids[i]
		}
		out = append(out, frag)
	}
	return out, nil
}

// countTokens counts with the tokenizer when one is configured and estimates
// otherwise.
func (a *app) countTokens(text string) int {
	if a.cfg.Tokenizer.Enabled || a.cfg.Stream.ByTokens {
		if vocab, err := tokenutil.NewTiktokenVocabulary(a.cfg.Tokenizer.Encoding); err == nil {
			return vocab.CountTokens(text)
		}
	}
	return tokenutil.EstimateFast(text)
}

// replay feeds every fragment to p, then finishes the stream.
func replay(p *parser.Parser, fragments []parser.Fragment, onEvent func(streamEvent)) streamOutput {
	mapper := response.NewMapper(nil)
	acc := response.NewAccumulator()
	out := streamOutput{Fragments: len(fragments), Events: []streamEvent{}}

	emit := func(fragment string, delta *parser.DeltaResult) {
		msg := mapper.FromDelta(delta)
		acc.Add(msg)
		event := streamEvent{Fragment: fragment, Delta: msg}
		out.Events = append(out.Events, event)
		onEvent(event)
	}
	for _, frag := range fragments {
		emit(frag.Text, p.ExtractToolCallsStreaming(frag, parser.Request{}))
	}
	if delta := p.Finish(parser.Request{}); delta != nil {
		emit("", delta)
	}

	out.Message = acc.Message()
	out.Pending = p.Pending()
	return out
}

func writeEventText(w io.Writer, event streamEvent) {
	switch {
	case event.Delta == nil:
		fmt.Fprintf(w, "%s %q\n", red("failed  "), event.Fragment)
	case len(event.Delta.ToolCalls) > 0:
		call := event.Delta.ToolCalls[0]
		fmt.Fprintf(w, "%s %q -> %s(%s)\n", green("call    "), event.Fragment, cyan(call.Function.Name), call.Function.Arguments)
	case event.Delta.Content != nil:
		fmt.Fprintf(w, "%s %q -> %q\n", gray("content "), event.Fragment, *event.Delta.Content)
	default:
		fmt.Fprintf(w, "%s %q\n", gray("held    "), event.Fragment)
	}
}
