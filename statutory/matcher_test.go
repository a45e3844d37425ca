package statutory

import (
	"testing"

	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/index"
	"github.com/stretchr/testify/assert"
)

func ids(chunks []*core.Chunk) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c.ID)
	}
	return out
}

func newTestMatcher() *Matcher {
	return NewMatcher(index.Build([]*core.Chunk{
		{ID: "s16-1", ChunkType: core.ChunkTypeOperative, SectionNumber: "16", Subsection: "1", IsStatutory: true},
		{ID: "s16-2", ChunkType: core.ChunkTypeOperative, SectionNumber: "16", Subsection: "2", IsStatutory: true},
		{ID: "s17", ChunkType: core.ChunkTypeOperative, SectionNumber: "17", IsStatutory: true},
		{ID: "r36", ChunkType: core.ChunkTypeRule, RuleNumber: "36", IsStatutory: true},
		{ID: "r42a", ChunkType: core.ChunkTypeRule, RuleNumber: "42a", IsStatutory: true},
		{ID: "hsn", ChunkType: core.ChunkTypeHSN, Metadata: map[string]string{core.MetaHSNCode: "0902"}},
		{ID: "sac", ChunkType: core.ChunkTypeSAC, Metadata: map[string]string{core.MetaSACCode: "9982"}},
	}))
}

func TestMatchWithKind(t *testing.T) {
	m := newTestMatcher()

	tests := []struct {
		name  string
		query string
		kind  Kind
		ids   []string
	}{
		{"section with subsection", "What does Section 16(2) say?", KindSectionSubsection, []string{"s16-2"}},
		{"spaced subsection", "section 16 ( 1 ) conditions", KindSectionSubsection, []string{"s16-1"}},
		{"section alone", "explain section 16 of the CGST Act", KindSection, []string{"s16-1", "s16-2"}},
		{"section without chunks stops dispatch", "section 99 and rule 36", KindSection, []string{}},
		{"rule", "what is Rule 36 about", KindRule, []string{"r36"}},
		{"rule with letter", "rule 42a reversal", KindRule, []string{"r42a"}},
		{"hsn", "rate for HSN 0902", KindHSN, []string{"hsn"}},
		{"sac", "SAC 9982 services", KindSAC, []string{"sac"}},
		{"no reference", "what is input tax credit", KindNone, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, kind := m.MatchWithKind(tt.query)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.ids, ids(chunks))
		})
	}
}

func TestMatch(t *testing.T) {
	m := newTestMatcher()
	assert.Len(t, m.Match("section 17"), 1)
	assert.Empty(t, m.Match("nothing here"))
	assert.Empty(t, NewMatcher(nil).Match("section 17"))
}
