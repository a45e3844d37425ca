package normalize

import (
	"regexp"
	"strings"
)

var partyTitles = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true,
	"dr": true, "prof": true, "professor": true,
	"hon": true, "honourable": true, "honorable": true,
	"justice": true, "sri": true, "smt": true, "shri": true,
	"messrs": true,
}

var partySuffixes = map[string]bool{
	"ltd": true, "limited": true,
	"inc": true, "incorporated": true,
	"llc": true, "llp": true,
	"co": true, "company": true,
	"corp": true, "corporation": true,
}

// PartyName normalizes a litigant name for matching against judgment metadata.
// Leading honorifics (Mr., Dr., M/s., Shri, Smt., ...) and trailing entity
// suffixes (Ltd, Pvt Ltd, Private Limited, Inc, LLC, LLP, Corp, Co) are
// removed, punctuation becomes whitespace and whitespace is collapsed:
//
//	PartyName("M/s. Safari Retreats Pvt. Ltd.") == "safari retreats"
func PartyName(name string) string {
	if name == "" {
		return ""
	}
	name = strings.ToLower(name)
	name = nonWordChars.ReplaceAllString(name, " ")
	tokens := strings.Fields(name)

	for len(tokens) > 0 {
		if partyTitles[tokens[0]] {
			tokens = tokens[1:]
			continue
		}
		// "m/s" splits into "m" "s" once punctuation is gone.
		if len(tokens) > 1 && tokens[0] == "m" && tokens[1] == "s" {
			tokens = tokens[2:]
			continue
		}
		break
	}

	for len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		if !partySuffixes[last] {
			break
		}
		tokens = tokens[:len(tokens)-1]
		if (last == "ltd" || last == "limited") && len(tokens) > 0 {
			switch tokens[len(tokens)-1] {
			case "pvt", "private":
				tokens = tokens[:len(tokens)-1]
			}
		}
	}

	return strings.Join(tokens, " ")
}

var (
	attrTrailingOthers = []*regexp.Regexp{
		regexp.MustCompile(`\s*[&,]\s*ors\.?\s*$`),
		regexp.MustCompile(`\s*&\s*others?\s*$`),
		regexp.MustCompile(`\s*and\s+\d+\s+others?\s*$`),
	}
	attrLeadingTitles = []*regexp.Regexp{
		regexp.MustCompile(`^m/s\b\.?\s*`),
		regexp.MustCompile(`^messrs\b\.?\s*`),
		regexp.MustCompile(`^mr\b\.?\s*`),
		regexp.MustCompile(`^mrs\b\.?\s*`),
		regexp.MustCompile(`^ms\b\.?\s*`),
		regexp.MustCompile(`^dr\b\.?\s*`),
		regexp.MustCompile(`^prof\b\.?\s*`),
		regexp.MustCompile(`^hon\b\.?\s*`),
		regexp.MustCompile(`^justice\b\.?\s*`),
		regexp.MustCompile(`^sri\b\.?\s*`),
		regexp.MustCompile(`^smt\b\.?\s*`),
		regexp.MustCompile(`^shri\b\.?\s*`),
	}
	attrTrailingSuffixes = []*regexp.Regexp{
		regexp.MustCompile(`\s+pvt\.?\s*ltd\.?\s*$`),
		regexp.MustCompile(`\s+private\s+limited\s*$`),
		regexp.MustCompile(`\s+p\.?\s*ltd\.?\s*$`),
		regexp.MustCompile(`\s+ltd\.?\s*$`),
		regexp.MustCompile(`\s+limited\s*$`),
		regexp.MustCompile(`\s+inc\.?\s*$`),
		regexp.MustCompile(`\s+llc\.?\s*$`),
		regexp.MustCompile(`\s+llp\.?\s*$`),
		regexp.MustCompile(`\s+co\.?\s*$`),
		regexp.MustCompile(`\s+company\s*$`),
		regexp.MustCompile(`\s+corp\.?\s*$`),
	}
	dotsAndCommas = regexp.MustCompile(`[.,]+`)
)

// AttributionPartyName is the looser normalization used when matching party
// names lifted from generated prose. Unlike PartyName it keeps inner
// punctuation such as "&" and parentheses, and additionally drops trailing
// "& Ors", "& Others" and "and 3 others". Stacked titles and suffixes
// ("Shri Mr. X Co. Pvt. Ltd.") are all removed.
func AttributionPartyName(name string) string {
	if name == "" {
		return ""
	}
	name = strings.ToLower(strings.TrimSpace(name))
	// Every pass only shortens the name or turns "." and "," into spaces,
	// so this reaches a fixed point.
	for {
		next := attributionPass(name)
		if next == name {
			return name
		}
		name = next
	}
}

func attributionPass(name string) string {
	for _, re := range attrTrailingOthers {
		name = re.ReplaceAllString(name, "")
	}
	name = stripRepeated(name, attrLeadingTitles)
	name = stripRepeated(name, attrTrailingSuffixes)
	name = dotsAndCommas.ReplaceAllString(name, " ")
	return strings.Join(strings.Fields(name), " ")
}

// stripRepeated applies the patterns until none of them matches.
func stripRepeated(name string, patterns []*regexp.Regexp) string {
	for {
		before := name
		for _, re := range patterns {
			name = re.ReplaceAllString(name, "")
		}
		if name == before {
			return name
		}
	}
}
