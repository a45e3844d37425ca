package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/lexcite/ai"
	"github.com/poiesic/lexcite/core"
)

// extractionOptions keeps extraction deterministic and short.
var extractionOptions = ai.GenerateOptions{
	Temperature: 0.0,
	MaxTokens:   500,
	JSONMode:    true,
}

// queryResponse mirrors the JSON contract of the query prompt. Pointers
// distinguish null from empty.
type queryResponse struct {
	Citation   *string         `json:"citation"`
	CaseNumber *string         `json:"case_number"`
	CaseName   *string         `json:"case_name"`
	PartyNames json.RawMessage `json:"party_names"`
}

// GenerativeQueryExtractor asks a language model for a JSON extraction.
type GenerativeQueryExtractor struct {
	generator ai.Generator
	logger    *slog.Logger
}

var _ QueryStrategy = (*GenerativeQueryExtractor)(nil)

// NewGenerativeQueryExtractor creates a model-backed query strategy.
func NewGenerativeQueryExtractor(generator ai.Generator) *GenerativeQueryExtractor {
	return &GenerativeQueryExtractor{
		generator: generator,
		logger:    slog.Default().With("component", "generative-query-extractor"),
	}
}

// TryExtract sends the query prompt and parses the response. Any failure is
// wrapped in ErrExtractionFailed.
func (e *GenerativeQueryExtractor) TryExtract(ctx context.Context, query string) (core.ExtractedQuery, error) {
	if e.generator == nil {
		return core.ExtractedQuery{}, fmt.Errorf("%w: %w", ErrExtractionFailed, ErrGeneratorRequired)
	}

	content, err := e.generator.Complete(ctx, buildQueryPrompt(query), extractionOptions)
	if err != nil {
		return core.ExtractedQuery{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	cleaned := cleanResponse(content)
	e.logger.Debug("cleaned model response", "response", cleaned)

	var resp queryResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return core.ExtractedQuery{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	q := core.NewExtractedQuery()
	q.Citation = deref(resp.Citation)
	q.CaseNumber = deref(resp.CaseNumber)
	q.CaseName = deref(resp.CaseName)

	// A non-list party_names is treated as no names.
	var names []string
	if len(resp.PartyNames) > 0 && json.Unmarshal(resp.PartyNames, &names) == nil {
		q.PartyNames = append(q.PartyNames, names...)
	}
	return q, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
