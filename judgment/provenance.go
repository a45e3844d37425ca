package judgment

import (
	"strings"

	"github.com/poiesic/lexcite/core"
)

// ProvenanceHeader describes why a judgment was surfaced: the matched field
// and value first, then any identifying metadata not already shown, then a
// blank line. It is prepended to each of the judgment's chunk texts.
func ProvenanceHeader(c core.MatchCandidate) string {
	var meta *core.Chunk
	if len(c.Chunks) > 0 {
		meta = c.Chunks[0]
	}
	get := func(key string) string {
		if meta == nil {
			return ""
		}
		return strings.TrimSpace(meta.Meta(key))
	}

	var lines []string
	shown := make(map[string]bool)

	switch c.MatchedField {
	case core.MatchFieldCitation:
		lines = append(lines, "Citation: "+c.MatchedValue)
		shown[core.MetaCitation] = true
	case core.MatchFieldCaseNumber:
		lines = append(lines, "Case Number: "+c.MatchedValue)
		shown[core.MetaCaseNumber] = true
	case core.MatchFieldPetitioner:
		lines = append(lines, "Matched Petitioner: "+c.MatchedValue)
		shown[core.MetaPetitioner] = true
	case core.MatchFieldRespondent:
		lines = append(lines, "Matched Respondent: "+c.MatchedValue)
		shown[core.MetaRespondent] = true
	case core.MatchFieldBothParties:
		lines = append(lines, "Matched Parties: "+c.MatchedValue)
		shown[core.MetaPetitioner] = true
		shown[core.MetaRespondent] = true
	}

	extras := []struct {
		key, label, value string
	}{
		{core.MetaCitation, "Citation", get(core.MetaCitation)},
		{core.MetaCaseNumber, "Case Number", get(core.MetaCaseNumber)},
		{core.MetaPetitioner, "Petitioner", firstNonEmpty(c.Petitioner, get(core.MetaPetitioner))},
		{core.MetaRespondent, "Respondent", firstNonEmpty(c.Respondent, get(core.MetaRespondent))},
		{core.MetaCourt, "Court", get(core.MetaCourt)},
		{core.MetaYear, "Year", get(core.MetaYear)},
	}
	for _, e := range extras {
		if shown[e.key] || e.value == "" {
			continue
		}
		lines = append(lines, e.label+": "+e.value)
	}

	return strings.Join(lines, "\n") + "\n\n"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
