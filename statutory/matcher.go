// Package statutory resolves explicit statutory references in a query, such
// as "section 16(2)" or "hsn 8471", to the chunks that carry them.
package statutory

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/index"
)

// Kind names the reference category that matched a query.
type Kind string

const (
	KindNone              Kind = ""
	KindSectionSubsection Kind = "section_subsection"
	KindSection           Kind = "section"
	KindRule              Kind = "rule"
	KindHSN               Kind = "hsn"
	KindSAC               Kind = "sac"
)

var (
	sectionSubsectionPattern = regexp.MustCompile(`section\s+(\d+)\s*\(\s*(\d+)\s*\)`)
	sectionPattern           = regexp.MustCompile(`section\s+(\d+)`)
	rulePattern              = regexp.MustCompile(`rule\s+(\d+[a-z]?)`)
	hsnPattern               = regexp.MustCompile(`hsn\s+(\d+)`)
	sacPattern               = regexp.MustCompile(`sac\s+(\d+)`)
)

// Matcher dispatches a query to the index lookup of the first reference
// category it mentions.
type Matcher struct {
	index  *index.MetadataIndex
	logger *slog.Logger
}

// NewMatcher creates a matcher over a built index.
func NewMatcher(idx *index.MetadataIndex) *Matcher {
	return &Matcher{
		index:  idx,
		logger: slog.Default().With("component", "statutory-matcher"),
	}
}

// Match returns the chunks referenced by the query, or nil.
func (m *Matcher) Match(query string) []*core.Chunk {
	chunks, _ := m.MatchWithKind(query)
	return chunks
}

// MatchWithKind is Match plus the category that was tried. Categories are
// tried in the order section(sub), section, rule, hsn, sac, and only the
// first one the query mentions is looked up, even if it yields nothing.
func (m *Matcher) MatchWithKind(query string) ([]*core.Chunk, Kind) {
	if m.index == nil {
		return nil, KindNone
	}
	q := strings.ToLower(query)

	var (
		chunks []*core.Chunk
		kind   Kind
	)
	switch {
	case sectionSubsectionPattern.MatchString(q):
		g := sectionSubsectionPattern.FindStringSubmatch(q)
		chunks, kind = m.index.BySection(g[1], g[2]), KindSectionSubsection
	case sectionPattern.MatchString(q):
		g := sectionPattern.FindStringSubmatch(q)
		chunks, kind = m.index.BySectionNumber(g[1]), KindSection
	case rulePattern.MatchString(q):
		g := rulePattern.FindStringSubmatch(q)
		chunks, kind = m.index.ByRule(g[1]), KindRule
	case hsnPattern.MatchString(q):
		g := hsnPattern.FindStringSubmatch(q)
		chunks, kind = m.index.ByHSN(g[1]), KindHSN
	case sacPattern.MatchString(q):
		g := sacPattern.FindStringSubmatch(q)
		chunks, kind = m.index.BySAC(g[1]), KindSAC
	default:
		return nil, KindNone
	}

	m.logger.Debug("statutory reference", "kind", kind, "hits", len(chunks))
	return chunks, kind
}
