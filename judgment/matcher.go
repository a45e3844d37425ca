package judgment

import (
	"log/slog"
	"strings"

	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/index"
	"github.com/poiesic/lexcite/normalize"
)

// minPartyNameLength is the shortest normalized party name that is matched.
const minPartyNameLength = 3

// Substring match types.
const (
	SubstringCitation   = "substring_citation"
	SubstringCaseNumber = "substring_case_number"
)

// Result groups the three match sets. Candidates appear in corpus order of
// the chunk that first matched them.
type Result struct {
	Exact     []core.MatchCandidate
	Partial   []core.MatchCandidate
	Substring []core.SubstringMatch
}

// Empty reports whether nothing matched.
func (r Result) Empty() bool {
	return len(r.Exact) == 0 && len(r.Partial) == 0 && len(r.Substring) == 0
}

// Matcher finds judgments for an extracted query.
type Matcher struct {
	index  *index.MetadataIndex
	logger *slog.Logger
}

// NewMatcher creates a matcher over a built index.
func NewMatcher(idx *index.MetadataIndex) *Matcher {
	return &Matcher{
		index:  idx,
		logger: slog.Default().With("component", "judgment-matcher"),
	}
}

// WithLogger replaces the matcher's logger and returns the matcher.
func (m *Matcher) WithLogger(logger *slog.Logger) *Matcher {
	if logger != nil {
		m.logger = logger.With("component", "judgment-matcher")
	}
	return m
}

// FindMatchingJudgments runs the exact, partial and substring passes over
// every judgment chunk.
func (m *Matcher) FindMatchingJudgments(q core.ExtractedQuery) Result {
	if m.index == nil {
		return Result{}
	}

	citation := normalize.Citation(q.Citation)
	caseNumber := normalize.CoreCaseNumber(q.CaseNumber)
	names := normalizedPartyNames(q.PartyNames)

	if citation == "" && caseNumber == "" && len(names) == 0 {
		m.logger.Debug("no citation, case number or party names to match")
		return Result{}
	}

	m.logger.Debug("matching judgments",
		"citation", citation,
		"case_number", caseNumber,
		"party_names", names)

	judgments := m.index.Judgments()
	exact := newCandidateSet(core.ExactMatchScore)
	var citationFound, caseNumberFound bool

	for _, c := range judgments {
		ext := c.ExternalID()
		if ext == "" {
			continue
		}
		pet, resp := c.Meta(core.MetaPetitioner), c.Meta(core.MetaRespondent)

		if citation != "" && citation == normalize.Citation(c.Meta(core.MetaCitation)) {
			citationFound = true
			exact.add(ext, core.MatchFieldCitation, c.Meta(core.MetaCitation), pet, resp)
		}

		if caseNumber != "" && caseNumber == normalize.CoreCaseNumber(c.Meta(core.MetaCaseNumber)) {
			caseNumberFound = true
			exact.add(ext, core.MatchFieldCaseNumber, c.Meta(core.MetaCaseNumber), pet, resp)
		}

		if len(names) == 0 {
			continue
		}
		switch field := matchPartiesExactly(names, pet, resp); field {
		case core.MatchFieldBothParties:
			exact.promote(ext, field, pet+" v. "+resp, pet, resp)
		case core.MatchFieldPetitioner:
			exact.add(ext, field, pet, pet, resp)
		case core.MatchFieldRespondent:
			exact.add(ext, field, resp, pet, resp)
		}
	}

	partial := newCandidateSet(core.PartialMatchScore)
	if len(names) > 0 {
		for _, c := range judgments {
			ext := c.ExternalID()
			if ext == "" || exact.has(ext) {
				continue
			}
			pet, resp := c.Meta(core.MetaPetitioner), c.Meta(core.MetaRespondent)
			if field := matchPartiesPartially(names, pet, resp); field != "" {
				value := pet
				if field == core.MatchFieldRespondent {
					value = resp
				}
				partial.add(ext, field, value, pet, resp)
			}
		}
	}

	var substring []core.SubstringMatch
	if (citation != "" && !citationFound) || (caseNumber != "" && !caseNumberFound) {
		for _, c := range judgments {
			ext := c.ExternalID()
			if ext == "" || exact.has(ext) || partial.has(ext) {
				continue
			}
			if !citationFound {
				if db := c.Meta(core.MetaCitation); strictlyContains(normalize.Citation(db), citation) {
					substring = append(substring, core.SubstringMatch{
						Chunk: c, MatchType: SubstringCitation, MatchedValue: db, Score: core.SubstringMatchScore,
					})
					continue
				}
			}
			if !caseNumberFound {
				if db := c.Meta(core.MetaCaseNumber); strictlyContains(normalize.CoreCaseNumber(db), caseNumber) {
					substring = append(substring, core.SubstringMatch{
						Chunk: c, MatchType: SubstringCaseNumber, MatchedValue: db, Score: core.SubstringMatchScore,
					})
				}
			}
		}
	}

	result := Result{
		Exact:     exact.expand(m.index),
		Partial:   partial.expand(m.index),
		Substring: substring,
	}

	for _, c := range result.Exact {
		m.logger.Info("exact judgment match",
			"external_id", c.ExternalID,
			"field", c.MatchedField,
			"value", c.MatchedValue,
			"chunks", len(c.Chunks))
	}
	for _, c := range result.Partial {
		m.logger.Info("partial judgment match",
			"external_id", c.ExternalID,
			"field", c.MatchedField,
			"value", c.MatchedValue,
			"chunks", len(c.Chunks))
	}
	if len(substring) > 0 {
		m.logger.Info("substring judgment matches", "chunks", len(substring))
	}
	return result
}

// matchPartiesExactly returns both_parties when at least two distinct
// names equal the normalized petitioner or respondent, otherwise the field
// the first equal name hit, or "".
func matchPartiesExactly(names []string, petitioner, respondent string) core.MatchField {
	pet := normalize.PartyName(petitioner)
	resp := normalize.PartyName(respondent)

	var first core.MatchField
	hits := 0
	for _, name := range names {
		var field core.MatchField
		switch {
		case name == pet:
			field = core.MatchFieldPetitioner
		case name == resp:
			field = core.MatchFieldRespondent
		default:
			continue
		}
		if hits == 0 {
			first = field
		}
		hits++
	}

	if len(names) >= 2 && hits >= 2 {
		return core.MatchFieldBothParties
	}
	return first
}

// matchPartiesPartially returns the field of the first name contained in,
// but not equal to, the normalized petitioner or respondent.
func matchPartiesPartially(names []string, petitioner, respondent string) core.MatchField {
	pet := normalize.PartyName(petitioner)
	resp := normalize.PartyName(respondent)
	for _, name := range names {
		if strictlyContains(pet, name) {
			return core.MatchFieldPetitioner
		}
		if strictlyContains(resp, name) {
			return core.MatchFieldRespondent
		}
	}
	return ""
}

func strictlyContains(s, sub string) bool {
	return sub != "" && s != sub && strings.Contains(s, sub)
}

// normalizedPartyNames normalizes, deduplicates and drops names that are
// too short to match on.
func normalizedPartyNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		n := normalize.PartyName(name)
		if len(n) < minPartyNameLength || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// candidateSet keeps candidates keyed by external id in first-hit order.
type candidateSet struct {
	score float64
	order []string
	byID  map[string]*core.MatchCandidate
}

func newCandidateSet(score float64) *candidateSet {
	return &candidateSet{score: score, byID: make(map[string]*core.MatchCandidate)}
}

func (s *candidateSet) has(ext string) bool {
	_, ok := s.byID[ext]
	return ok
}

// add records a candidate unless one already exists for ext.
func (s *candidateSet) add(ext string, field core.MatchField, value, pet, resp string) {
	if s.has(ext) {
		return
	}
	s.order = append(s.order, ext)
	s.byID[ext] = &core.MatchCandidate{
		ExternalID:   ext,
		MatchedField: field,
		MatchedValue: value,
		Score:        s.score,
		Petitioner:   pet,
		Respondent:   resp,
	}
}

// promote records a candidate, replacing the field of an existing one.
func (s *candidateSet) promote(ext string, field core.MatchField, value, pet, resp string) {
	if c, ok := s.byID[ext]; ok {
		c.MatchedField = field
		c.MatchedValue = value
		return
	}
	s.add(ext, field, value, pet, resp)
}

// expand returns the candidates in order, each carrying every chunk that
// shares its external id.
func (s *candidateSet) expand(idx *index.MetadataIndex) []core.MatchCandidate {
	out := make([]core.MatchCandidate, 0, len(s.order))
	for _, ext := range s.order {
		c := *s.byID[ext]
		c.Chunks = idx.ByExternalID(ext)
		out = append(out, c)
	}
	return out
}
