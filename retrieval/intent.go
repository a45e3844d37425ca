package retrieval

import (
	"strings"

	"github.com/poiesic/lexcite/core"
)

// Intent is a coarse classification of what a query asks for.
type Intent string

const (
	IntentJudgment   Intent = "judgment"
	IntentDefinition Intent = "definition"
	IntentRCM        Intent = "rcm"
	IntentRate       Intent = "rate"
	IntentProcedure  Intent = "procedure"
	IntentComparison Intent = "comparison"
	IntentGeneral    Intent = "general"
)

var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentJudgment, []string{"judgment", "case law", "court"}},
	{IntentDefinition, []string{"define", "what is section", "meaning of"}},
	{IntentRCM, []string{"rcm", "reverse charge"}},
	{IntentRate, []string{"rate", "gst rate"}},
	{IntentProcedure, []string{"procedure", "how to"}},
	{IntentComparison, []string{"difference", "vs"}},
}

// ClassifyIntent returns the first intent whose keywords occur in the query.
func ClassifyIntent(query string) Intent {
	q := strings.ToLower(query)
	for _, rule := range intentKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.intent
			}
		}
	}
	return IntentGeneral
}

// SplitPrimarySupporting separates the chunks that directly answer an intent
// from the rest, preserving order. When nothing qualifies as primary, the
// first three chunks are.
func SplitPrimarySupporting(chunks []*core.Chunk, intent Intent) (primary, supporting []*core.Chunk) {
	for _, c := range chunks {
		if isPrimary(c.ChunkType, intent) {
			primary = append(primary, c)
		} else {
			supporting = append(supporting, c)
		}
	}
	if len(primary) == 0 {
		n := min(3, len(chunks))
		return chunks[:n], chunks[n:]
	}
	return primary, supporting
}

func isPrimary(t core.ChunkType, intent Intent) bool {
	switch intent {
	case IntentJudgment:
		return t == core.ChunkTypeJudgment
	case IntentDefinition:
		return t == core.ChunkTypeDefinition || t == core.ChunkTypeOperative || t == core.ChunkTypeAct
	case IntentProcedure:
		return t == core.ChunkTypeRule
	}
	return false
}
