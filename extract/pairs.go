package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/lexcite/ai"
	"github.com/poiesic/lexcite/core"
)

// PairExtractor finds litigant pairs in generated text. Implementations
// never fail and return pairs deduplicated by core.PartyPair.Key.
type PairExtractor interface {
	ExtractPairs(ctx context.Context, text string) []core.PartyPair
}

// PairStrategy is one way of extracting pairs, which may fail.
type PairStrategy interface {
	TryExtractPairs(ctx context.Context, text string) ([]core.PartyPair, error)
}

var invalidNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*on\s+`),
	regexp.MustCompile(`(?i)^\s*in\s+`),
	regexp.MustCompile(`(?i)^\s*the\s+`),
	regexp.MustCompile(`(?i)HC\s+on\s+`),
	regexp.MustCompile(`(?i)court\s+`),
	regexp.MustCompile(`(?i)judgment\s+`),
	regexp.MustCompile(`(?i)case\s+of\s+`),
}

var hasLetter = regexp.MustCompile(`[a-zA-Z]`)

// IsValidPartyName rejects descriptive fragments such as "on numeric error"
// or "court held" and anything without a letter.
func IsValidPartyName(name string) bool {
	for _, p := range invalidNamePatterns {
		if p.MatchString(name) {
			return false
		}
	}
	return hasLetter.MatchString(name)
}

// pairPatterns capture "Capitalized ... v. Capitalized ..." mentions that
// end at an opening parenthesis, "case", "judgment" or the end of the text.
var pairPatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-Z][A-Za-z\s&.,()]+?)\s+v\.?\s+([A-Z][A-Za-z\s&.,()]+?)(?:\s+\(|$|\s+case|\s+judgment)`),
	regexp.MustCompile(`([A-Z][A-Za-z\s&.,()]+?)\s+vs\.?\s+([A-Z][A-Za-z\s&.,()]+?)(?:\s+\(|$|\s+case|\s+judgment)`),
}

// RegexPairExtractor finds pairs with fixed patterns and never fails.
type RegexPairExtractor struct{}

var (
	_ PairStrategy  = (*RegexPairExtractor)(nil)
	_ PairExtractor = (*RegexPairExtractor)(nil)
)

// NewRegexPairExtractor creates the deterministic pair strategy.
func NewRegexPairExtractor() *RegexPairExtractor {
	return &RegexPairExtractor{}
}

// TryExtractPairs implements PairStrategy. The error is always nil.
func (e *RegexPairExtractor) TryExtractPairs(ctx context.Context, text string) ([]core.PartyPair, error) {
	return e.ExtractPairs(ctx, text), nil
}

// ExtractPairs returns valid pairs in order of appearance, per pattern.
func (e *RegexPairExtractor) ExtractPairs(_ context.Context, text string) []core.PartyPair {
	var pairs []core.PartyPair
	for _, p := range pairPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			pairs = appendValid(pairs, m[1], m[2])
		}
	}
	return DedupPairs(pairs)
}

// pairResponse mirrors the JSON contract of the pair prompt.
type pairResponse struct {
	Pairs [][]*string `json:"pairs"`
}

// GenerativePairExtractor asks a language model for literal "X v. Y" pairs.
type GenerativePairExtractor struct {
	generator ai.Generator
	logger    *slog.Logger
}

var _ PairStrategy = (*GenerativePairExtractor)(nil)

// NewGenerativePairExtractor creates a model-backed pair strategy.
func NewGenerativePairExtractor(generator ai.Generator) *GenerativePairExtractor {
	return &GenerativePairExtractor{
		generator: generator,
		logger:    slog.Default().With("component", "generative-pair-extractor"),
	}
}

// TryExtractPairs sends the pair prompt and parses the response. Pairs that
// are not exactly two valid names are dropped with a warning. Any failure is
// wrapped in ErrExtractionFailed.
func (e *GenerativePairExtractor) TryExtractPairs(ctx context.Context, text string) ([]core.PartyPair, error) {
	if e.generator == nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, ErrGeneratorRequired)
	}

	opts := extractionOptions
	opts.MaxTokens = 1500
	content, err := e.generator.Complete(ctx, buildPairPrompt(text), opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	var resp pairResponse
	if err := json.Unmarshal([]byte(cleanResponse(content)), &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	var pairs []core.PartyPair
	for _, raw := range resp.Pairs {
		if len(raw) != 2 {
			continue
		}
		before := len(pairs)
		pairs = appendValid(pairs, deref(raw[0]), deref(raw[1]))
		if len(pairs) == before {
			e.logger.Warn("filtered invalid pair", "first", deref(raw[0]), "second", deref(raw[1]))
		}
	}
	return DedupPairs(pairs), nil
}

// FallbackPairExtractor tries a primary strategy and falls back to a
// secondary one on any error.
type FallbackPairExtractor struct {
	primary   PairStrategy
	secondary PairStrategy
	logger    *slog.Logger
}

var _ PairExtractor = (*FallbackPairExtractor)(nil)

// NewFallbackPairExtractor composes two strategies. A nil primary means the
// secondary is used alone; a nil secondary defaults to the regex strategy.
func NewFallbackPairExtractor(primary, secondary PairStrategy) *FallbackPairExtractor {
	if secondary == nil {
		secondary = NewRegexPairExtractor()
	}
	return &FallbackPairExtractor{
		primary:   primary,
		secondary: secondary,
		logger:    slog.Default().With("component", "pair-extractor"),
	}
}

// WithLogger replaces the extractor's logger and returns the extractor.
func (e *FallbackPairExtractor) WithLogger(logger *slog.Logger) *FallbackPairExtractor {
	if logger != nil {
		e.logger = logger.With("component", "pair-extractor")
	}
	return e
}

// ExtractPairs never fails; if both strategies fail it returns no pairs.
func (e *FallbackPairExtractor) ExtractPairs(ctx context.Context, text string) []core.PartyPair {
	if e.primary != nil {
		pairs, err := e.primary.TryExtractPairs(ctx, text)
		if err == nil {
			e.logger.Info("extracted party pairs", "strategy", "primary", "count", len(pairs))
			return DedupPairs(pairs)
		}
		e.logger.Warn("primary pair extraction failed, falling back", "err", err)
	}

	pairs, err := e.secondary.TryExtractPairs(ctx, text)
	if err != nil {
		e.logger.Warn("fallback pair extraction failed", "err", err)
		return nil
	}
	e.logger.Info("extracted party pairs", "strategy", "fallback", "count", len(pairs))
	return DedupPairs(pairs)
}

// DedupPairs keeps the first pair for every case-insensitive sorted-name key.
func DedupPairs(pairs []core.PartyPair) []core.PartyPair {
	seen := make(map[string]bool, len(pairs))
	out := make([]core.PartyPair, 0, len(pairs))
	for _, p := range pairs {
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

func appendValid(pairs []core.PartyPair, first, second string) []core.PartyPair {
	first = strings.TrimSpace(first)
	second = strings.TrimSpace(second)
	if first == "" || second == "" || !IsValidPartyName(first) || !IsValidPartyName(second) {
		return pairs
	}
	return append(pairs, core.PartyPair{First: first, Second: second})
}
