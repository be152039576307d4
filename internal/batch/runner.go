package batch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"trinity/internal/infra/observability"
	"trinity/internal/parser"
	"trinity/internal/response"
	errs "trinity/internal/shared/errors"
	jsonx "trinity/internal/shared/json"
	"trinity/internal/shared/logging"
	"trinity/internal/shared/utils/id"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers = 4
	maxLineBytes   = 16 << 20
)

// Runner extracts tool calls from JSONL records with a bounded worker pool.
type Runner struct {
	parser  *parser.Parser
	cache   *parser.CachedExtractor
	mapper  *response.Mapper
	workers int
	logger  logging.Logger
	tracer  *observability.TracerProvider
	metrics *observability.BatchMetrics
}

type Option func(*Runner)

func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithCache memoizes extraction by record text.
func WithCache(cache *parser.CachedExtractor) Option {
	return func(r *Runner) {
		r.cache = cache
	}
}

func WithMapper(mapper *response.Mapper) Option {
	return func(r *Runner) {
		if mapper != nil {
			r.mapper = mapper
		}
	}
}

func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logging.OrNop(logger)
	}
}

func WithTracer(tracer *observability.TracerProvider) Option {
	return func(r *Runner) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

func WithMetrics(metrics *observability.BatchMetrics) Option {
	return func(r *Runner) {
		r.metrics = metrics
	}
}

// NewRunner builds a runner around p. One-shot extraction is stateless, so
// every worker shares p.
func NewRunner(p *parser.Parser, opts ...Option) *Runner {
	r := &Runner{
		parser:  p,
		mapper:  response.NewMapper(nil),
		workers: defaultWorkers,
		logger:  logging.NewComponentLogger("batch"),
		tracer:  observability.NoopTracerProvider(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type job struct {
	line   int
	record Record
}

// Run reads every record from in, extracts in parallel and writes one
// output line per record to out in input order. A malformed input line
// fails the run before any extraction starts.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) (summary Summary, err error) {
	ctx, batchID := id.EnsureBatchID(ctx, nil)
	summary.BatchID = batchID

	ctx, span := r.tracer.StartSpan(ctx, observability.SpanBatchRun,
		attribute.String(observability.AttrBatchID, batchID),
		attribute.Int(observability.AttrBatchWorkers, r.workers),
	)
	defer func() { observability.EndSpan(span, err) }()

	jobs, err := readJobs(in)
	if err != nil {
		return summary, err
	}
	summary.Records = len(jobs)

	results := make([]Output, len(jobs))
	var hits atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			output, hit := r.process(gctx, j)
			if hit {
				hits.Add(1)
			}
			results[i] = output
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	enc := jsonx.NewEncoder(out)
	enc.SetEscapeHTML(false)
	for _, output := range results {
		if err := enc.Encode(output); err != nil {
			return summary, fmt.Errorf("write output %s: %w", output.ID, err)
		}
		if n := len(output.Message.ToolCalls); n > 0 {
			summary.WithCalls++
			summary.ToolCalls += n
		}
		if len(output.ValidationErrors) > 0 {
			summary.Invalid++
		}
	}
	summary.CacheHits = int(hits.Load())

	logging.WithPrefix(r.logger, "batch "+batchID).Info("%d records, %d with tool calls, %d invalid, %d cache hits",
		summary.Records, summary.WithCalls, summary.Invalid, summary.CacheHits)
	return summary, nil
}

func (r *Runner) process(ctx context.Context, j job) (Output, bool) {
	_, span := r.tracer.StartSpan(ctx, observability.SpanBatchRecord,
		attribute.String(observability.AttrRecordID, j.record.ID),
		attribute.Int(observability.AttrRecordLine, j.line),
	)

	req := j.record.request()
	var (
		result parser.ExtractionResult
		hit    bool
	)
	if r.cache != nil {
		result, hit = r.cache.Lookup(j.record.Text, req)
		r.metrics.RecordCache(hit)
	} else {
		result = r.parser.ExtractToolCalls(j.record.Text, req)
	}

	msg := r.mapper.FromExtraction(result)
	output := Output{ID: j.record.ID, Message: msg, FinishReason: response.FinishReason(msg)}

	var validationErr error
	if len(req.Tools) > 0 || req.ToolChoice != "" {
		validationErr = parser.ValidateCalls(result.Calls, req)
		output.ValidationErrors = splitJoined(validationErr)
	}

	status := "ok"
	if validationErr != nil {
		status = "invalid"
	}
	r.metrics.RecordRecord(status)

	span.SetAttributes(
		attribute.Bool(observability.AttrToolsCalled, result.Called),
		attribute.Int(observability.AttrToolCalls, len(result.Calls)),
	)
	observability.EndSpan(span, validationErr)
	return output, hit
}

func readJobs(in io.Reader) ([]job, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var jobs []job
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var record Record
		if err := jsonx.Unmarshal(raw, &record); err != nil {
			return nil, errs.NewPermanentError(err, fmt.Sprintf("line %d: invalid batch record: %v", line, err))
		}
		if record.ID == "" {
			record.ID = fmt.Sprintf("line-%d", line)
		}
		jobs = append(jobs, job{line: line, record: record})
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.NewPermanentError(err, fmt.Sprintf("read batch input after line %d: %v", line, err))
	}
	return jobs, nil
}

// splitJoined flattens an errors.Join tree into one message per error.
func splitJoined(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, splitJoined(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
