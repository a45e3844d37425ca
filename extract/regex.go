package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/poiesic/lexcite/core"
)

// Citation formats, most specific first.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d{4}\s*\(\s*\d+\s*\)\s*TMI\s*\d+`),
	regexp.MustCompile(`(?i)\d{4}\s*TMI\s*\d+`),
	regexp.MustCompile(`(?i)\d{4}\s+Taxo\.online\s+\d+`),
	regexp.MustCompile(`(?i)\d{4}\s*\(\s*\d+\s*\)\s*SCC\s+\d+`),
	regexp.MustCompile(`(?i)\d{4}\s+SCC\s+\d+`),
	regexp.MustCompile(`(?i)\d{4}\s+SCR\s+\d+`),
	regexp.MustCompile(`(?i)AIR\s+\d{4}\s+\w+\s+\d+`),
}

// genericCitation is the catch-all "YYYY Reporter N" format.
var genericCitation = regexp.MustCompile(`(?i)\d{4}\s+([A-Za-z.]+)\s+\d+`)

// Case-number formats, in priority order.
var caseNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Civil\s+Appeal\s+(?:No\.?|Number)?\s*\d+\s*(?:of|/)?\s*\d{4}`),
	regexp.MustCompile(`(?i)\bC\.?A\.?\s+(?:No\.?|Number)?\s*\d+\s*(?:of|/)?\s*\d{4}`),
	regexp.MustCompile(`(?i)Criminal\s+Appeal\s+(?:No\.?|Number)?\s*\d+\s*(?:of|/)?\s*\d{4}`),
	regexp.MustCompile(`(?i)Writ\s+Petition\s+(?:\(C\)\s+)?(?:No\.?|Number)?\s*\d+\s*(?:of|/)?\s*\d{4}`),
	regexp.MustCompile(`(?i)\bW\.?\s*P\.?\s*(?:\(C\)\.?\s*)?(?:No\.?|Number)?\s*\d+\s*(?:of|/)?\s*\d{4}`),
	regexp.MustCompile(`(?i)\bSLP\s*(?:\(C\)|\(Crl\))?\s*(?:No\.?|Number)?\s*\d+\s*(?:of|/)?\s*\d{4}`),
}

// RegexQueryExtractor finds citations and case numbers with fixed patterns.
// It never extracts party names and never fails.
type RegexQueryExtractor struct{}

var (
	_ QueryStrategy  = (*RegexQueryExtractor)(nil)
	_ QueryExtractor = (*RegexQueryExtractor)(nil)
)

// NewRegexQueryExtractor creates the deterministic query strategy.
func NewRegexQueryExtractor() *RegexQueryExtractor {
	return &RegexQueryExtractor{}
}

// TryExtract implements QueryStrategy. The error is always nil.
func (e *RegexQueryExtractor) TryExtract(ctx context.Context, query string) (core.ExtractedQuery, error) {
	return e.Extract(ctx, query), nil
}

// Extract returns the first match of each field's patterns.
func (e *RegexQueryExtractor) Extract(_ context.Context, query string) core.ExtractedQuery {
	q := core.NewExtractedQuery()
	q.Citation = findCitation(query)
	q.CaseNumber = firstMatch(caseNumberPatterns, query)
	return q
}

func findCitation(query string) string {
	if m := firstMatch(citationPatterns, query); m != "" {
		return m
	}
	// "1234 of 2023" inside a case number is not a reporter citation.
	for _, m := range genericCitation.FindAllStringSubmatch(query, -1) {
		switch strings.ToLower(m[1]) {
		case "of", "no", "no.", "number":
			continue
		}
		return strings.TrimSpace(m[0])
	}
	return ""
}

func firstMatch(patterns []*regexp.Regexp, s string) string {
	for _, p := range patterns {
		if m := p.FindString(s); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}
