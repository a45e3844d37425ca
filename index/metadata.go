// Package index builds the read-only lookup tables the exact matchers use.
package index

import (
	"slices"

	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/normalize"
)

type sectionKey struct {
	section    string
	subsection string
}

// MetadataIndex holds lookup tables over a corpus keyed by normalized
// citation, (section, subsection), rule number, HSN code, SAC code and
// external id. It is built once by Build and never mutated afterwards, so a
// single instance is shared by concurrent readers without locking. Lookups
// return fresh slices, so callers may reorder or append to them freely; the
// chunks themselves are shared and must not be modified.
type MetadataIndex struct {
	chunks       []*core.Chunk
	judgments    []*core.Chunk
	byCitation   map[string][]*core.Chunk
	bySection    map[sectionKey][]*core.Chunk
	sectionOrder map[string][]sectionKey
	byRule       map[string][]*core.Chunk
	byHSN        map[string][]*core.Chunk
	bySAC        map[string][]*core.Chunk
	byExternalID map[string][]*core.Chunk
}

// Build indexes chunks in a single pass. Within every bucket chunks keep
// their corpus order.
func Build(chunks []*core.Chunk) *MetadataIndex {
	idx := &MetadataIndex{
		chunks:       slices.Clone(chunks),
		byCitation:   make(map[string][]*core.Chunk),
		bySection:    make(map[sectionKey][]*core.Chunk),
		sectionOrder: make(map[string][]sectionKey),
		byRule:       make(map[string][]*core.Chunk),
		byHSN:        make(map[string][]*core.Chunk),
		bySAC:        make(map[string][]*core.Chunk),
		byExternalID: make(map[string][]*core.Chunk),
	}

	for _, c := range chunks {
		if c == nil {
			continue
		}

		if c.IsJudgment() {
			idx.judgments = append(idx.judgments, c)
		}

		if cit := normalize.Citation(c.Meta(core.MetaCitation)); cit != "" {
			idx.byCitation[cit] = append(idx.byCitation[cit], c)
		}

		if c.SectionNumber != "" {
			key := sectionKey{section: c.SectionNumber, subsection: c.Subsection}
			if _, seen := idx.bySection[key]; !seen {
				idx.sectionOrder[c.SectionNumber] = append(idx.sectionOrder[c.SectionNumber], key)
			}
			idx.bySection[key] = append(idx.bySection[key], c)
		}

		if c.RuleNumber != "" {
			idx.byRule[c.RuleNumber] = append(idx.byRule[c.RuleNumber], c)
		}

		if code := c.Meta(core.MetaHSNCode); code != "" {
			idx.byHSN[code] = append(idx.byHSN[code], c)
		}

		if code := c.Meta(core.MetaSACCode); code != "" {
			idx.bySAC[code] = append(idx.bySAC[code], c)
		}

		if ext := c.ExternalID(); ext != "" {
			idx.byExternalID[ext] = append(idx.byExternalID[ext], c)
		}
	}

	return idx
}

// ByCitation returns chunks whose citation normalizes to the given key.
// The key is normalized again, so raw citations are accepted as well.
func (i *MetadataIndex) ByCitation(citation string) []*core.Chunk {
	return slices.Clone(i.byCitation[normalize.Citation(citation)])
}

// BySection returns chunks for an exact (section, subsection) pair.
func (i *MetadataIndex) BySection(section, subsection string) []*core.Chunk {
	return slices.Clone(i.bySection[sectionKey{section: section, subsection: subsection}])
}

// BySectionNumber returns the union of all subsections of a section, ordered
// by the first corpus appearance of each subsection.
func (i *MetadataIndex) BySectionNumber(section string) []*core.Chunk {
	keys := i.sectionOrder[section]
	if len(keys) == 0 {
		return nil
	}
	var out []*core.Chunk
	for _, key := range keys {
		out = append(out, i.bySection[key]...)
	}
	return out
}

// ByRule returns chunks carrying the rule number.
func (i *MetadataIndex) ByRule(rule string) []*core.Chunk {
	return slices.Clone(i.byRule[rule])
}

// ByHSN returns chunks for an HSN code.
func (i *MetadataIndex) ByHSN(code string) []*core.Chunk {
	return slices.Clone(i.byHSN[code])
}

// BySAC returns chunks for a SAC code.
func (i *MetadataIndex) BySAC(code string) []*core.Chunk {
	return slices.Clone(i.bySAC[code])
}

// ByExternalID returns every chunk of one source document in corpus order.
func (i *MetadataIndex) ByExternalID(externalID string) []*core.Chunk {
	return slices.Clone(i.byExternalID[externalID])
}

// Judgments returns all judgment chunks in corpus order.
func (i *MetadataIndex) Judgments() []*core.Chunk {
	return slices.Clone(i.judgments)
}

// Chunks returns the indexed corpus.
func (i *MetadataIndex) Chunks() []*core.Chunk {
	return slices.Clone(i.chunks)
}

// Len returns the number of indexed chunks.
func (i *MetadataIndex) Len() int {
	return len(i.chunks)
}
