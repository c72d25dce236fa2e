package intent

import (
	"regexp"
	"strings"

	"library-assistant-be/pkg/utils"
)

// Phrases are matched on folded text (lowercase, no diacritics).
var summaryPhrases = []string{
	"tom tat",
	"tong quan",
	"tong ket",
	"khai quat",
	"noi dung chinh",
	"y chinh",
	"summary",
	"summarize",
	"summarise",
	"overview",
	"main points",
}

var sectionPattern = regexp.MustCompile(`\b(chuong|phan|muc|bai|tiet|chapter|section|part)\s+([0-9]+(?:\.[0-9]+)*|[ivxlc]+)\b`)

var sectionLabels = map[string]string{
	"chuong":  "Chương",
	"phan":    "Phần",
	"muc":     "Mục",
	"bai":     "Bài",
	"tiet":    "Tiết",
	"chapter": "Chapter",
	"section": "Section",
	"part":    "Part",
}

// minHeadingLen keeps short headings such as "A" from matching everything.
const minHeadingLen = 4

// matchRules applies the deterministic rules. ok is false when no rule fires.
func matchRules(question string, doc DocumentContext) (Result, bool) {
	folded := utils.Fold(question)
	if folded == "" {
		return Result{}, false
	}

	if heading, ok := matchHeading(folded, doc.Headings); ok {
		return Result{Strategy: SectionLookup, Query: question, TargetHeading: heading, Source: SourceRule}, true
	}

	if m := sectionPattern.FindStringSubmatch(folded); m != nil {
		heading := sectionLabels[m[1]] + " " + strings.ToUpper(m[2])
		if _, err := parseDigits(m[2]); err == nil {
			heading = sectionLabels[m[1]] + " " + m[2]
		}
		return Result{Strategy: SectionLookup, Query: question, TargetHeading: heading, Source: SourceRule}, true
	}

	for _, p := range summaryPhrases {
		if utils.ContainsPhrase(folded, p) {
			return Result{Strategy: Summary, Query: question, Source: SourceRule}, true
		}
	}

	return Result{}, false
}

// matchHeading returns the longest document heading quoted in the question.
func matchHeading(folded string, headings []string) (string, bool) {
	best := ""
	bestLen := 0
	for _, h := range headings {
		fh := strings.Join(utils.Words(utils.Fold(h)), " ")
		if len([]rune(fh)) < minHeadingLen {
			continue
		}
		if utils.ContainsPhrase(folded, fh) && len(fh) > bestLen {
			best, bestLen = h, len(fh)
		}
	}
	return best, best != ""
}

func parseDigits(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r == '.' {
			continue
		}
		if r < '0' || r > '9' {
			return 0, errNotNumeric
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
