package attribution

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/poiesic/lexcite/ai"
	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/extract"
	"github.com/poiesic/lexcite/index"
)

var reattributionOptions = ai.GenerateOptions{
	Temperature: 0,
	MaxTokens:   5000,
}

// Attributor verifies and repairs case citations in generated answers.
type Attributor struct {
	index            *index.MetadataIndex
	pairs            extract.PairExtractor
	generator        ai.Generator
	strictThreshold  float64
	relaxedThreshold float64
	maxCandidates    int
	maxWorkers       int
	timeout          time.Duration
	minDrift         float64
	maxDrift         float64
	chunkSize        int
	logger           *slog.Logger

	// match scans the corpus for one pair; replaced in tests.
	match func(ctx context.Context, pair core.PartyPair) ([]core.CitationCandidate, error)
}

// NewAttributor creates a new attributor.
func NewAttributor(
	idx *index.MetadataIndex,
	pairs extract.PairExtractor,
	generator ai.Generator,
	opts ...Option,
) (*Attributor, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if pairs == nil {
		return nil, ErrPairExtractorRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	a := &Attributor{
		index:            idx,
		pairs:            pairs,
		generator:        generator,
		strictThreshold:  DefaultStrictThreshold,
		relaxedThreshold: DefaultRelaxedThreshold,
		maxCandidates:    DefaultMaxCandidates,
		maxWorkers:       DefaultMaxWorkers,
		timeout:          DefaultTimeout,
		minDrift:         DefaultMinDriftRatio,
		maxDrift:         DefaultMaxDriftRatio,
		chunkSize:        DefaultFallbackChunkSize,
		logger:           slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.relaxedThreshold > a.strictThreshold {
		return nil, fmt.Errorf("%w: relaxed threshold %v above strict threshold %v",
			ErrInvalidOption, a.relaxedThreshold, a.strictThreshold)
	}

	a.logger = a.logger.With("component", "attributor")
	a.match = a.matchPair
	return a, nil
}

// Status describes how an attribution ended.
type Status string

const (
	// StatusPending means the stream has not been consumed yet.
	StatusPending Status = "pending"
	// StatusNoPairs means the answer names no party pairs.
	StatusNoPairs Status = "no_pairs"
	// StatusNoCitations means no pair matched a corpus judgment.
	StatusNoCitations Status = "no_citations"
	// StatusReattributed means the corrected answer was streamed in full.
	StatusReattributed Status = "reattributed"
	// StatusFallback means the correction was abandoned and the original streamed.
	StatusFallback Status = "fallback"
	// StatusAbandoned means the consumer stopped reading early, or closed
	// the attribution without reading it.
	StatusAbandoned Status = "abandoned"
)

// Outcome summarizes an attribution once its stream has been consumed.
type Outcome struct {
	Status    Status
	Pairs     int
	Citations int
	// Err is set for StatusFallback. It wraps ErrAttributionTimeout or
	// ErrReattributionFailed.
	Err error
	// Partial reports that corrected output had already been streamed when
	// the fallback started, so the original follows it.
	Partial bool
	// DriftRatio is the output/input length ratio of a completed correction.
	DriftRatio float64
	Drift      bool
	Elapsed    time.Duration
}

// Attribution is the result of Attribute. Citations are available at once;
// the text arrives through Stream. An attribution holds its timeout until the
// stream is drained or Close is called.
type Attribution struct {
	citations []PairCitations
	seq       iter.Seq[string]
	cancel    context.CancelFunc

	mu      sync.Mutex
	started bool
	outcome Outcome
}

// Stream returns the answer text as a sequence of fragments. It can be
// consumed once; later iterations yield nothing.
func (at *Attribution) Stream() iter.Seq[string] {
	return func(yield func(string) bool) {
		at.mu.Lock()
		if at.started {
			at.mu.Unlock()
			return
		}
		at.started = true
		at.mu.Unlock()
		defer at.cancel()
		at.seq(yield)
	}
}

// Close releases the attribution's timeout. A stream that was never started
// is discarded and the outcome becomes StatusAbandoned. Close is safe to call
// more than once and after the stream has been consumed.
func (at *Attribution) Close() {
	at.mu.Lock()
	if !at.started {
		at.started = true
		if at.outcome.Status == StatusPending {
			at.outcome.Status = StatusAbandoned
		}
	}
	at.mu.Unlock()
	at.cancel()
}

// Citations returns the selected citations keyed by party pair.
func (at *Attribution) Citations() map[core.PartyPair][]core.CitationCandidate {
	out := make(map[core.PartyPair][]core.CitationCandidate, len(at.citations))
	for _, pc := range at.citations {
		out[pc.Pair] = pc.Candidates
	}
	return out
}

// PairCitations returns the selected citations in pair extraction order.
func (at *Attribution) PairCitations() []PairCitations {
	return at.citations
}

// Outcome reports how the attribution ended. Before the stream is consumed
// the status of a correction is StatusPending.
func (at *Attribution) Outcome() Outcome {
	at.mu.Lock()
	defer at.mu.Unlock()
	return at.outcome
}

func (at *Attribution) update(fn func(o *Outcome)) {
	at.mu.Lock()
	fn(&at.outcome)
	at.mu.Unlock()
}

// Attribute extracts party pairs from answer, matches them against the
// corpus and returns an Attribution whose stream carries the corrected
// answer. The timeout covers every stage including the stream; on expiry or
// any failure the stream carries the original answer.
func (a *Attributor) Attribute(ctx context.Context, answer string) *Attribution {
	start := time.Now()
	logger := a.logger.With("request_id", uuid.NewString())
	ctx, cancel := context.WithTimeout(ctx, a.timeout)

	at := &Attribution{cancel: cancel, outcome: Outcome{Status: StatusPending}}
	original := func(status Status, err error) *Attribution {
		cancel()
		at.seq = a.streamOriginal(answer)
		at.update(func(o *Outcome) {
			o.Status = status
			o.Err = err
			o.Elapsed = time.Since(start)
		})
		return at
	}

	// 1. Extract party pairs
	pairs := a.pairs.ExtractPairs(ctx, answer)
	at.outcome.Pairs = len(pairs)
	if len(pairs) == 0 {
		logger.Info("no party pairs in answer")
		return original(StatusNoPairs, nil)
	}

	// 2. Match pairs against the corpus
	citations, err := a.matchAll(ctx, pairs)
	at.citations = citations
	at.outcome.Citations = countCandidates(citations)
	if err != nil {
		err = classify(err)
		logger.Warn("pair matching did not finish, streaming original", "pairs", len(pairs), "err", err)
		return original(StatusFallback, err)
	}
	if len(citations) == 0 {
		logger.Info("no citations found for party pairs", "pairs", len(pairs))
		return original(StatusNoCitations, nil)
	}

	logger.Info("citations found",
		"pairs", len(pairs),
		"matched_pairs", len(citations),
		"citations", at.outcome.Citations)

	// 3. Stream the re-attribution
	at.seq = a.reattribute(ctx, cancel, logger, answer, at, start)
	return at
}

// AttributeText runs Attribute and collects the stream. If the correction
// fell back or drifted, the original answer is returned with the citations
// appended as a section instead.
func (a *Attributor) AttributeText(ctx context.Context, answer string) (string, []PairCitations) {
	at := a.Attribute(ctx, answer)
	defer at.Close()
	var b strings.Builder
	for fragment := range at.Stream() {
		b.WriteString(fragment)
	}

	citations := at.PairCitations()
	if len(citations) == 0 {
		return answer, nil
	}
	if outcome := at.Outcome(); outcome.Status != StatusReattributed || outcome.Drift {
		return answer + FormatCitationSection(citations), citations
	}
	return b.String(), citations
}

func (a *Attributor) streamOriginal(answer string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, piece := range chunkText(answer, a.chunkSize) {
			if !yield(piece) {
				return
			}
		}
	}
}

type streamFragment struct {
	text string
	err  error
}

// reattribute streams the generator's corrected answer. The generator runs
// in its own goroutine so the deadline is honoured even if it stalls.
func (a *Attributor) reattribute(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *slog.Logger,
	answer string,
	at *Attribution,
	start time.Time,
) iter.Seq[string] {
	return func(yield func(string) bool) {
		defer cancel()

		var out strings.Builder
		fallback := func(err error) {
			if ctx.Err() != nil {
				err = classify(ctx.Err())
			}
			partial := out.Len() > 0
			logger.Warn("re-attribution abandoned, streaming original", "partial", partial, "err", err)
			at.update(func(o *Outcome) {
				o.Status = StatusFallback
				o.Err = err
				o.Partial = partial
				o.Elapsed = time.Since(start)
			})
			if partial && !yield("\n\n") {
				return
			}
			a.streamOriginal(answer)(yield)
		}

		prompt, err := buildReattributionPrompt(answer, at.citations)
		if err != nil {
			fallback(fmt.Errorf("%w: %w", ErrReattributionFailed, err))
			return
		}

		fragments := make(chan streamFragment)
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			defer close(fragments)
			for text, err := range a.generator.CompleteStream(ctx, prompt, reattributionOptions) {
				select {
				case fragments <- streamFragment{text: text, err: err}:
				case <-stop:
					return
				}
				if err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				fallback(ctx.Err())
				return

			case f, ok := <-fragments:
				if !ok {
					if out.Len() == 0 {
						fallback(fmt.Errorf("%w: empty response", ErrReattributionFailed))
						return
					}
					a.finish(logger, at, answer, out.String(), start)
					return
				}
				if f.err != nil {
					fallback(fmt.Errorf("%w: %w", ErrReattributionFailed, f.err))
					return
				}
				if f.text == "" {
					continue
				}
				out.WriteString(f.text)
				if !yield(f.text) {
					at.update(func(o *Outcome) {
						o.Status = StatusAbandoned
						o.Elapsed = time.Since(start)
					})
					return
				}
			}
		}
	}
}

// finish records a completed correction and checks it for content drift.
// Drift is only logged; the output has already been streamed.
func (a *Attributor) finish(logger *slog.Logger, at *Attribution, answer, corrected string, start time.Time) {
	ratio := float64(utf8.RuneCountInString(corrected)) / float64(max(1, utf8.RuneCountInString(answer)))
	drift := ratio < a.minDrift || ratio > a.maxDrift
	if drift {
		logger.Warn("re-attributed answer drifted in length",
			"original_chars", utf8.RuneCountInString(answer),
			"corrected_chars", utf8.RuneCountInString(corrected),
			"ratio", ratio)
	}
	at.update(func(o *Outcome) {
		o.Status = StatusReattributed
		o.DriftRatio = ratio
		o.Drift = drift
		o.Elapsed = time.Since(start)
	})
	logger.Info("re-attribution complete", "ratio", ratio, "elapsed", time.Since(start))
}

// classify maps a context error to the attribution error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrAttributionTimeout, err)
	}
	return err
}

func countCandidates(citations []PairCitations) int {
	n := 0
	for _, pc := range citations {
		n += len(pc.Candidates)
	}
	return n
}
