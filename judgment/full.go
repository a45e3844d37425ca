package judgment

import (
	"strings"

	"github.com/poiesic/lexcite/core"
)

// FullJudgment is a judgment reassembled from all of its chunks.
type FullJudgment struct {
	ExternalID string
	Text       string
	// Metadata is copied from the judgment's first chunk.
	Metadata map[string]string
}

// FullJudgments reassembles every judgment that has at least one chunk in
// retrieved, in order of first appearance. Text is taken from the corpus,
// so provenance headers added during retrieval are not repeated.
func (m *Matcher) FullJudgments(retrieved []*core.Chunk) []FullJudgment {
	if m.index == nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []FullJudgment
	for _, rc := range retrieved {
		if rc == nil || !rc.IsJudgment() {
			continue
		}
		ext := rc.ExternalID()
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true

		var (
			texts []string
			first *core.Chunk
		)
		for _, c := range m.index.ByExternalID(ext) {
			if !c.IsJudgment() {
				continue
			}
			if first == nil {
				first = c
			}
			texts = append(texts, c.Text)
		}
		if first == nil {
			continue
		}

		meta := make(map[string]string, len(first.Metadata))
		for k, v := range first.Metadata {
			meta[k] = v
		}
		out = append(out, FullJudgment{
			ExternalID: ext,
			Text:       strings.Join(texts, "\n\n"),
			Metadata:   meta,
		})
	}
	return out
}
