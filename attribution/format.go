package attribution

import (
	"strings"

	"github.com/poiesic/lexcite/normalize"
)

// FormatCitationSection renders the citations as a markdown section that can
// be appended to an answer when it could not be corrected in place.
func FormatCitationSection(citations []PairCitations) string {
	if len(citations) == 0 {
		return ""
	}

	lines := []string{"\n\n---\n", "\n**Citations Referenced:**\n"}
	for _, pc := range citations {
		lines = append(lines, "\n**"+pc.Pair.First+" vs "+pc.Pair.Second+":**")
		for _, c := range pc.Candidates {
			caseNumber := normalize.StripDateSuffix(c.CaseNumber)
			if caseNumber != "" {
				lines = append(lines, "- "+c.Citation+" ("+caseNumber+")")
			} else {
				lines = append(lines, "- "+c.Citation)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// chunkText splits text into pieces of at most size characters. Joining the
// pieces yields text byte for byte.
func chunkText(text string, size int) []string {
	var pieces []string
	start, count := 0, 0
	for i := range text {
		if count == size {
			pieces = append(pieces, text[start:i])
			start, count = i, 0
		}
		count++
	}
	if start < len(text) {
		pieces = append(pieces, text[start:])
	}
	return pieces
}
