package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/lexcite/core"
)

// QueryExtractor turns a free-text query into a fully populated
// core.ExtractedQuery. Implementations never fail.
type QueryExtractor interface {
	Extract(ctx context.Context, query string) core.ExtractedQuery
}

// QueryStrategy is one way of extracting a query, which may fail.
type QueryStrategy interface {
	TryExtract(ctx context.Context, query string) (core.ExtractedQuery, error)
}

// FallbackQueryExtractor tries a primary strategy and falls back to a
// secondary one on any error.
type FallbackQueryExtractor struct {
	primary   QueryStrategy
	secondary QueryStrategy
	logger    *slog.Logger
}

var _ QueryExtractor = (*FallbackQueryExtractor)(nil)

// NewFallbackQueryExtractor composes two strategies. A nil primary means the
// secondary is used alone; a nil secondary defaults to the regex strategy.
func NewFallbackQueryExtractor(primary, secondary QueryStrategy) *FallbackQueryExtractor {
	if secondary == nil {
		secondary = NewRegexQueryExtractor()
	}
	return &FallbackQueryExtractor{
		primary:   primary,
		secondary: secondary,
		logger:    slog.Default().With("component", "query-extractor"),
	}
}

// WithLogger replaces the extractor's logger and returns the extractor.
func (e *FallbackQueryExtractor) WithLogger(logger *slog.Logger) *FallbackQueryExtractor {
	if logger != nil {
		e.logger = logger.With("component", "query-extractor")
	}
	return e
}

// Extract returns the primary strategy's result, or the secondary's if the
// primary fails. If both fail the result is empty.
func (e *FallbackQueryExtractor) Extract(ctx context.Context, query string) core.ExtractedQuery {
	if e.primary != nil {
		q, err := e.primary.TryExtract(ctx, query)
		if err == nil {
			q = sanitize(q)
			e.logger.Info("extracted query",
				"strategy", "primary",
				"citation", q.Citation,
				"case_number", q.CaseNumber,
				"party_names", q.PartyNames)
			return q
		}
		e.logger.Warn("primary extraction failed, falling back", "err", err)
	}

	q, err := e.secondary.TryExtract(ctx, query)
	if err != nil {
		e.logger.Warn("fallback extraction failed", "err", err)
		return core.NewExtractedQuery()
	}
	q = sanitize(q)
	e.logger.Info("extracted query",
		"strategy", "fallback",
		"citation", q.Citation,
		"case_number", q.CaseNumber,
		"party_names", q.PartyNames)
	return q
}

// sanitize trims every field, maps the literal "null" to empty and drops
// blank party names so the result is always fully populated.
func sanitize(q core.ExtractedQuery) core.ExtractedQuery {
	out := core.ExtractedQuery{
		Citation:   cleanField(q.Citation),
		CaseNumber: cleanField(q.CaseNumber),
		CaseName:   cleanField(q.CaseName),
		PartyNames: make([]string, 0, len(q.PartyNames)),
	}
	for _, name := range q.PartyNames {
		if name = cleanField(name); name != "" {
			out.PartyNames = append(out.PartyNames, name)
		}
	}
	return out
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "none", "n/a":
		return ""
	}
	return s
}
