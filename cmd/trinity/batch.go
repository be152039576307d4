package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"trinity/internal/batch"
	"trinity/internal/parser"
	errs "trinity/internal/shared/errors"
)

func newBatchCommand(a *app) *cobra.Command {
	var (
		inPath  string
		outPath string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Extract tool calls from a JSONL file of model outputs",
		Long: `Reads {"id": ..., "text": ...} records (one per line) and writes
{"id": ..., "message": ...} records in the same order. Records may carry
"tools" and "tool_choice" to have their calls validated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, closeIn, err := a.openIn(inPath)
			if err != nil {
				return err
			}
			defer closeIn()
			out, closeOut, err := openOut(outPath, a.stdout)
			if err != nil {
				return err
			}
			defer closeOut()

			p, err := a.newParser()
			if err != nil {
				return err
			}
			opts := []batch.Option{
				batch.WithWorkers(a.cfg.Batch.Workers),
				batch.WithTracer(a.obs.Tracer),
				batch.WithMetrics(a.obs.Batch),
			}
			if !noCache {
				cache, err := parser.NewCachedExtractor(p, a.cfg.Batch.CacheSize)
				if err != nil {
					return err
				}
				opts = append(opts, batch.WithCache(cache))
			}

			summary, err := batch.NewRunner(p, opts...).Run(cmd.Context(), in, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stderr, "%s %d records, %d with tool calls (%d calls), %d invalid, %d cache hits [%s]\n",
				green("done:"), summary.Records, summary.WithCalls, summary.ToolCalls, summary.Invalid, summary.CacheHits, gray(summary.BatchID))
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "-", "Input JSONL file (- for stdin)")
	cmd.Flags().StringVar(&outPath, "out", "-", "Output JSONL file (- for stdout)")
	cmd.Flags().Int("workers", 0, "Parallel workers (default from config batch.workers)")
	cmd.Flags().Int("cache-size", 0, "Extraction cache entries (default from config batch.cache_size)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable the extraction cache")
	return cmd
}

func (a *app) openIn(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return a.stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errs.NewPermanentError(err, fmt.Sprintf("open %s: %v", path, err))
	}
	return f, func() { _ = f.Close() }, nil
}

func openOut(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errs.NewPermanentError(err, fmt.Sprintf("create %s: %v", path, err))
	}
	return f, func() { _ = f.Close() }, nil
}
