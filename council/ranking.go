package council

import (
	"regexp"
	"strings"
)

// rankingMarker separates a member's prose evaluation from its ranking list.
const rankingMarker = "FINAL RANKING:"

var (
	// Strict numbered-list form: "1. Response A".
	numberedLabelPattern = regexp.MustCompile(`\d+\.\s*Response [A-Z]`)
	// Bare label form, the tolerant fallback.
	labelPattern = regexp.MustCompile(`Response [A-Z]`)
)

// ParseRanking extracts the ordered response labels from one member's
// free-form evaluation text.
//
// When the FINAL RANKING marker is present, only the text after its first
// occurrence is considered: first as a strict numbered list, then as a bare
// label scan. Without the marker the entire text is scanned. Extraction is
// deliberately lossy and non-validating: the result may contain duplicate or
// missing labels, and downstream consumers count whatever was parsed.
func ParseRanking(text string) []string {
	if idx := strings.Index(text, rankingMarker); idx >= 0 {
		section := text[idx+len(rankingMarker):]

		if numbered := numberedLabelPattern.FindAllString(section, -1); len(numbered) > 0 {
			labels := make([]string, 0, len(numbered))
			for _, match := range numbered {
				labels = append(labels, labelPattern.FindString(match))
			}
			return labels
		}

		return labelPattern.FindAllString(section, -1)
	}

	return labelPattern.FindAllString(text, -1)
}
