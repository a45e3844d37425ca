package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/lexcite/ai"
	"github.com/poiesic/lexcite/ai/mock"
	"github.com/poiesic/lexcite/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPartyName(t *testing.T) {
	valid := []string{"Safari Retreat", "State of Karnataka", "Commissioner of GST", "M/s. ABC"}
	invalid := []string{"on numeric error", "in the case of X", "the judgment", "Gujarat HC on e-way bill", "Court held", "Judgment in ABC", "case of X", "123", ""}

	for _, name := range valid {
		assert.True(t, IsValidPartyName(name), name)
	}
	for _, name := range invalid {
		assert.False(t, IsValidPartyName(name), name)
	}
}

func TestRegexPairExtractor(t *testing.T) {
	ctx := context.Background()
	extractor := NewRegexPairExtractor()

	t.Run("both separators", func(t *testing.T) {
		text := "as held in Safari Retreat v. State of Karnataka (2024) and later by Modern Traders vs State of U.P. case law."
		pairs := extractor.ExtractPairs(ctx, text)
		assert.Equal(t, []core.PartyPair{
			{First: "Safari Retreat", Second: "State of Karnataka"},
			{First: "Modern Traders", Second: "State of U.P."},
		}, pairs)
	})

	t.Run("pair at end of text", func(t *testing.T) {
		pairs := extractor.ExtractPairs(ctx, "relied upon ABC Company v. Commissioner of GST")
		assert.Equal(t, []core.PartyPair{{First: "ABC Company", Second: "Commissioner of GST"}}, pairs)
	})

	t.Run("descriptive fragments rejected", func(t *testing.T) {
		assert.Empty(t, extractor.ExtractPairs(ctx, "The judgment v. Something"))
	})

	t.Run("no pattern", func(t *testing.T) {
		assert.Empty(t, extractor.ExtractPairs(ctx, "Input tax credit is available under section 16."))
	})
}

func TestDedupPairs(t *testing.T) {
	pairs := DedupPairs([]core.PartyPair{
		{First: "Safari Retreat", Second: "State of Karnataka"},
		{First: "state of karnataka", Second: "SAFARI RETREAT"},
		{First: "Modern Traders", Second: "State of U.P."},
	})
	assert.Equal(t, []core.PartyPair{
		{First: "Safari Retreat", Second: "State of Karnataka"},
		{First: "Modern Traders", Second: "State of U.P."},
	}, pairs)
}

func TestGenerativePairExtractor(t *testing.T) {
	ctx := context.Background()

	t.Run("filters invalid and malformed pairs", func(t *testing.T) {
		gen := mock.NewMockGenerator()
		gen.CompleteFunc = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
			assert.Contains(t, prompt, "answer text")
			return `{"pairs": [["Safari Retreat", "State of Karnataka"], ["on numeric error", "State"], ["Only one"], ["State of Karnataka", "Safari Retreat"], [null, "X"]]}`, nil
		}

		pairs, err := NewGenerativePairExtractor(gen).TryExtractPairs(ctx, "answer text")
		require.NoError(t, err)
		assert.Equal(t, []core.PartyPair{{First: "Safari Retreat", Second: "State of Karnataka"}}, pairs)
	})

	t.Run("malformed response", func(t *testing.T) {
		gen := mock.NewMockGenerator()
		gen.CompleteFunc = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
			return "no pairs here", nil
		}

		_, err := NewGenerativePairExtractor(gen).TryExtractPairs(ctx, "x")
		assert.ErrorIs(t, err, ErrExtractionFailed)
	})
}

func TestFallbackPairExtractor(t *testing.T) {
	ctx := context.Background()
	text := "as held in Safari Retreat v. State of Karnataka (2024)"

	t.Run("primary success", func(t *testing.T) {
		gen := mock.NewMockGenerator()
		gen.CompleteFunc = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
			return `{"pairs": []}`, nil
		}

		pairs := NewFallbackPairExtractor(NewGenerativePairExtractor(gen), nil).ExtractPairs(ctx, text)
		assert.Empty(t, pairs)
	})

	t.Run("primary failure uses regex", func(t *testing.T) {
		gen := mock.NewMockGenerator()
		gen.CompleteFunc = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
			return "", errors.New("unavailable")
		}

		pairs := NewFallbackPairExtractor(NewGenerativePairExtractor(gen), nil).ExtractPairs(ctx, text)
		assert.Equal(t, []core.PartyPair{{First: "Safari Retreat", Second: "State of Karnataka"}}, pairs)
	})
}
