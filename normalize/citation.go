// Package normalize holds the pure string normalizers shared by the matchers.
//
// Every function here is deterministic, case-insensitive and idempotent:
// applying it twice yields the same result as applying it once.
package normalize

import (
	"regexp"
	"strings"
)

var (
	citationNoiseWords = regexp.MustCompile(`\b(?:no|number|of)\b`)
	nonWordChars       = regexp.MustCompile(`[^\w\s]`)
	whitespaceRuns     = regexp.MustCompile(`\s+`)

	caseNumberDateClauses = []*regexp.Regexp{
		regexp.MustCompile(`(?is)\s+dated\s+\d{1,2}[./-]\d{1,2}[./-]\d{2,4}.*$`),
		regexp.MustCompile(`(?is)\s+dt\.?\s+\d{1,2}[./-]\d{1,2}[./-]\d{2,4}.*$`),
		regexp.MustCompile(`(?is)\s+on\s+\d{1,2}[./-]\d{1,2}[./-]\d{2,4}.*$`),
	}

	trailingDated = regexp.MustCompile(`(?is)\s+dated.*$`)
)

// Citation normalizes a citation or case number for equality matching.
// It lower-cases, drops the noise words "no", "number" and "of", strips
// punctuation and removes all whitespace:
//
//	Citation("2025 Taxo.online 455") == "2025taxoonline455"
func Citation(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = citationNoiseWords.ReplaceAllString(text, "")
	text = nonWordChars.ReplaceAllString(text, "")
	text = whitespaceRuns.ReplaceAllString(text, "")
	// A result that is itself a noise word would be removed on a second pass.
	switch text {
	case "no", "number", "of":
		return ""
	}
	return text
}

// CoreCaseNumber strips a trailing date clause ("dated 12.03.2024",
// "dt. 1/2/24", "on 05-06-2023") and normalizes the rest with Citation, so
// case numbers that differ only by an appended date compare equal.
func CoreCaseNumber(text string) string {
	if text == "" {
		return ""
	}
	for _, re := range caseNumberDateClauses {
		text = re.ReplaceAllString(text, "")
	}
	return Citation(text)
}

// StripDateSuffix removes everything from a trailing " dated" onwards, for display.
func StripDateSuffix(caseNumber string) string {
	return strings.TrimSpace(trailingDated.ReplaceAllString(caseNumber, ""))
}
