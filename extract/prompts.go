package extract

import "strings"

const queryPromptTemplate = `Extract legal information from this query. Return ONLY valid JSON, no explanation.

Query: {{query}}

Extract:
1. Citation (e.g., "2023 (12) TMI 456", "2017 Taxo.online 42")
2. Case number (e.g., "Civil Appeal No. 1234/2023", "WP(C). No. 34021 of 2017")
3. Case name (e.g., "ABC vs XYZ")
4. Party names - any company/person names mentioned (could be petitioner or respondent)

Return format:
{
    "citation": "full citation if found, else null",
    "case_number": "case number if found, else null",
    "case_name": "case name if found, else null",
    "party_names": ["name1", "name2"] or []
}

Examples:

Query: "What was held in 2023 (12) TMI 456?"
Output: {"citation": "2023 (12) TMI 456", "case_number": null, "case_name": null, "party_names": []}

Query: "Give me the judgment of Safari Retreat"
Output: {"citation": null, "case_number": null, "case_name": null, "party_names": ["Safari Retreat"]}

Query: "Show me Safari Retreat vs State of Karnataka case"
Output: {"citation": null, "case_number": null, "case_name": "Safari Retreat vs State of Karnataka", "party_names": ["Safari Retreat", "State of Karnataka"]}

Query: "What did the court say in WP(C). No. 34021 of 2017 regarding Mr. Sharma?"
Output: {"citation": null, "case_number": "WP(C). No. 34021 of 2017", "case_name": null, "party_names": ["Sharma"]}

Now extract from the given query. Return ONLY JSON, no other text.`

const pairPromptTemplate = `Extract ONLY actual party names (companies/persons) from legal text. Do NOT extract case descriptions.

STRICT RULES:
1. Extract pairs ONLY from patterns: "Party1 vs/v./v Party2"
2. Party names are companies, persons, or government entities (State of X, Commissioner, etc.)
3. Do NOT extract: case descriptions, court names, legal issues
4. Ignore case citations like "(2022)" - extract only names
5. Return empty array if no clear party pairs found

BAD EXAMPLES (do NOT extract these):
- "Gujarat HC on numeric error in e-way bill" (this is a description)
- "Court held that..." (not parties)
- "The judgment in..." (not parties)

GOOD EXAMPLES (extract these):
- "Shree Govind Alloys Pvt. Ltd. v. State of Gujarat"
- "Modern Traders vs State of U.P."
- "ABC Company v. Commissioner of GST"

Return ONLY this JSON:
{
    "pairs": [
        ["Party 1 Name", "Party 2 Name"]
    ]
}

Text:
{{text}}

JSON:`

func buildQueryPrompt(query string) string {
	return strings.Replace(queryPromptTemplate, "{{query}}", query, 1)
}

func buildPairPrompt(text string) string {
	return strings.Replace(pairPromptTemplate, "{{text}}", text, 1)
}
