package attribution

import (
	"encoding/json"
	"fmt"
)

// citationEntry is the minimal view of a candidate sent to the generator.
type citationEntry struct {
	Party1         string `json:"party1"`
	Party2         string `json:"party2"`
	PetitionerFull string `json:"petitioner_full"`
	RespondentFull string `json:"respondent_full"`
	Citation       string `json:"citation"`
	CaseNumber     string `json:"case_number"`
}

func citationEntries(citations []PairCitations) []citationEntry {
	var entries []citationEntry
	for _, pc := range citations {
		for _, c := range pc.Candidates {
			entries = append(entries, citationEntry{
				Party1:         pc.Pair.First,
				Party2:         pc.Pair.Second,
				PetitionerFull: c.Petitioner,
				RespondentFull: c.Respondent,
				Citation:       c.Citation,
				CaseNumber:     c.CaseNumber,
			})
		}
	}
	return entries
}

const reattributionTemplate = `CRITICAL RULES - READ CAREFULLY:

1. Return the original response below EXACTLY as written.
2. Only add or replace citations for the cases listed under VERIFIED CITATIONS.
3. Do not rephrase, reorder, shorten or extend any other text.
4. Leave citations of cases that are not listed untouched.
5. Do not add explanations, notes or commentary.

ORIGINAL RESPONSE (PRESERVE EXACTLY):
---START---
%s
---END---

VERIFIED CITATIONS (update only these cases):
%s

INSTRUCTIONS:
- Find every mention of each listed party pair. Match names loosely: "Shree Govind" matches "SHREE GOVIND ALLOYS PVT. LTD."
- If the mention already carries a citation, replace it with the verified one.
- If it carries none, add the verified citation after the case name.
- Use the form "Party1 v. Party2 (Citation)".
- Return the complete response with only these citation changes.

EXAMPLE:
Original: "In ABC Corp v. XYZ Ltd (2019 TMI 1), the court held that..."
Verified: ABC Corp v. XYZ Ltd -> "2024 TMI 123"
Corrected: "In ABC Corp v. XYZ Ltd (2024 TMI 123), the court held that..."

Return the complete corrected response now:`

func buildReattributionPrompt(answer string, citations []PairCitations) (string, error) {
	mapping, err := json.MarshalIndent(citationEntries(citations), "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(reattributionTemplate, answer, mapping), nil
}
