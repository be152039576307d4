package parser

// ExtractionOutcome labels a one-shot extraction.
type ExtractionOutcome string

const (
	ExtractionCalled   ExtractionOutcome = "called"
	ExtractionNoCalls  ExtractionOutcome = "no_calls"
	ExtractionDegraded ExtractionOutcome = "degraded"
)

// FragmentOutcome labels what a streamed fragment produced.
type FragmentOutcome string

const (
	FragmentContent    FragmentOutcome = "content"
	FragmentFastPath   FragmentOutcome = "fast_path"
	FragmentBuffered   FragmentOutcome = "buffered"
	FragmentCall       FragmentOutcome = "call"
	FragmentSuppressed FragmentOutcome = "suppressed"
	FragmentFailed     FragmentOutcome = "failed"
)

// Observer receives parser instrumentation events. Implementations must be
// safe for concurrent use when shared across parsers.
type Observer interface {
	ObserveExtraction(outcome ExtractionOutcome, calls int)
	ObserveFragment(outcome FragmentOutcome)
}

type nopObserver struct{}

func (nopObserver) ObserveExtraction(ExtractionOutcome, int) {}
func (nopObserver) ObserveFragment(FragmentOutcome)          {}
