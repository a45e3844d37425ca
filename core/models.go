package core

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID as a fixed-width hex string.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// ChunkType classifies the legal material a chunk was cut from.
type ChunkType string

const (
	ChunkTypeJudgment         ChunkType = "judgment"
	ChunkTypeDefinition       ChunkType = "definition"
	ChunkTypeOperative        ChunkType = "operative"
	ChunkTypeRule             ChunkType = "rule"
	ChunkTypeNotification     ChunkType = "notification"
	ChunkTypeCircular         ChunkType = "circular"
	ChunkTypeArticle          ChunkType = "article"
	ChunkTypeHSN              ChunkType = "hsn"
	ChunkTypeSAC              ChunkType = "sac"
	ChunkTypeAnalyticalReview ChunkType = "analytical_review"
	ChunkTypeAct              ChunkType = "act"
)

// Metadata keys read by the matchers.
const (
	MetaExternalID = "external_id"
	MetaCitation   = "citation"
	MetaCaseNumber = "case_number"
	MetaPetitioner = "petitioner"
	MetaRespondent = "respondent"
	MetaCourt      = "court"
	MetaYear       = "year"
	MetaDecision   = "decision"
	MetaTitle      = "title"
	MetaHSNCode    = "hsn_code"
	MetaSACCode    = "sac_code"
)

// Chunk is the minimal addressable unit of corpus text.
// Chunks are immutable once loaded; callers that need a modified text work on a Clone.
type Chunk struct {
	ID            string            `json:"id"`
	ChunkType     ChunkType         `json:"chunk_type"`
	Text          string            `json:"text"`
	IsStatutory   bool              `json:"is_statutory"`
	SectionNumber string            `json:"section_number,omitempty"`
	Subsection    string            `json:"subsection,omitempty"`
	RuleNumber    string            `json:"rule_number,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Meta returns a metadata value, or "" when absent.
func (c *Chunk) Meta(key string) string {
	if c == nil || c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}

// ExternalID returns the identifier shared by all chunks of the same source document.
func (c *Chunk) ExternalID() string {
	return c.Meta(MetaExternalID)
}

// IsJudgment reports whether the chunk belongs to a judgment.
func (c *Chunk) IsJudgment() bool {
	return c != nil && c.ChunkType == ChunkTypeJudgment
}

// Clone returns a copy that shares no mutable state with c.
func (c *Chunk) Clone() *Chunk {
	if c == nil {
		return nil
	}
	out := *c
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// ExtractedQuery is the structured intent pulled out of a free-text query.
// Empty strings stand for absent values; PartyNames is never nil.
type ExtractedQuery struct {
	Citation   string   `json:"citation"`
	CaseNumber string   `json:"case_number"`
	CaseName   string   `json:"case_name"`
	PartyNames []string `json:"party_names"`
}

// NewExtractedQuery returns an empty, fully populated extraction.
func NewExtractedQuery() ExtractedQuery {
	return ExtractedQuery{PartyNames: []string{}}
}

// HasJudgmentSignal reports whether the extraction carries anything a judgment can be matched on.
func (q ExtractedQuery) HasJudgmentSignal() bool {
	return strings.TrimSpace(q.Citation) != "" ||
		strings.TrimSpace(q.CaseNumber) != "" ||
		len(q.PartyNames) > 0
}

// MatchField names the judgment metadata field that produced a match.
type MatchField string

const (
	MatchFieldCitation    MatchField = "citation"
	MatchFieldCaseNumber  MatchField = "case_number"
	MatchFieldPetitioner  MatchField = "petitioner"
	MatchFieldRespondent  MatchField = "respondent"
	MatchFieldBothParties MatchField = "both_parties"
)

// Judgment match scores.
const (
	ExactMatchScore     = 1.0
	PartialMatchScore   = 0.5
	SubstringMatchScore = 0.1
)

// MatchCandidate is one judgment matched against an extracted query.
// Chunks always holds every corpus chunk sharing ExternalID.
type MatchCandidate struct {
	ExternalID   string
	MatchedField MatchField
	MatchedValue string
	Score        float64
	Petitioner   string
	Respondent   string
	Chunks       []*Chunk
}

// SubstringMatch is a weak signal that a chunk's citation or case number
// contains the queried value without equalling it.
type SubstringMatch struct {
	Chunk        *Chunk
	MatchType    string
	MatchedValue string
	Score        float64
}

// ScoredChunk pairs a chunk with its fused ranking score.
type ScoredChunk struct {
	Chunk *Chunk
	Score float64
}

// PartyPair is an unordered pair of litigant names found in generated text.
type PartyPair struct {
	First  string
	Second string
}

// Key returns the deduplication key: both names lower-cased and sorted.
func (p PartyPair) Key() string {
	a := strings.ToLower(strings.TrimSpace(p.First))
	b := strings.ToLower(strings.TrimSpace(p.Second))
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

// String renders the pair as "First v. Second".
func (p PartyPair) String() string {
	return p.First + " v. " + p.Second
}

// CitationCandidate is a corpus judgment proposed as the source of a party pair.
type CitationCandidate struct {
	Citation   string  `json:"citation"`
	CaseNumber string  `json:"case_number"`
	Petitioner string  `json:"petitioner"`
	Respondent string  `json:"respondent"`
	ExternalID string  `json:"external_id"`
	Court      string  `json:"court"`
	Year       string  `json:"year"`
	Decision   string  `json:"decision"`
	MatchScore float64 `json:"match_score"`
}

// CitationCandidateFromChunk builds a candidate from a judgment chunk's metadata.
func CitationCandidateFromChunk(c *Chunk, score float64) CitationCandidate {
	return CitationCandidate{
		Citation:   c.Meta(MetaCitation),
		CaseNumber: c.Meta(MetaCaseNumber),
		Petitioner: c.Meta(MetaPetitioner),
		Respondent: c.Meta(MetaRespondent),
		ExternalID: c.ExternalID(),
		Court:      c.Meta(MetaCourt),
		Year:       c.Meta(MetaYear),
		Decision:   c.Meta(MetaDecision),
		MatchScore: score,
	}
}
