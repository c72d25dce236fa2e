package router

import (
	"regexp"
	"strings"

	"library-assistant-be/pkg/utils"
)

// Action is what a library turn asks for.
type Action string

const (
	ActionDiscovery             Action = "DISCOVERY"
	ActionAvailability          Action = "AVAILABILITY"
	ActionDiscoveryAvailability Action = "DISCOVERY_AVAILABILITY"
)

// LibraryRequest is the deterministic reading of a library message.
type LibraryRequest struct {
	Original   string
	Action     Action
	Query      string // title or topic, accents preserved
	ExplicitID string // from @book:<id>
	Quoted     bool   // Query came from quotes or [[...]]
	Deictic    bool   // "sách đó", "that book"
}

// Empty is true when there is nothing to act on.
func (r *LibraryRequest) Empty() bool {
	return strings.TrimSpace(r.Original) == ""
}

// References:
// @book:ID-42      - catalog identifier
// [[Title]]        - exact title
// "Title" / “Title” - exact title
var (
	bookIDPattern    = regexp.MustCompile(`@book:(\S+)`)
	wikiTitlePattern = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	quotedPattern    = regexp.MustCompile(`["“]([^"”]+)["”]`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// Phrases are matched on folded text (no diacritics, lowercase).
var (
	availabilityPhrases = []string{
		"muon duoc", "co san", "con ban", "con hang", "het chua", "het sach", "con may",
		"bao nhieu ban", "available", "in stock", "can i borrow", "still have",
	}
	negativeParticles = []string{"khong", "ko", "k", "hong", "hok", "khum", "chua"}

	discoveryPhrases = []string{
		"tim", "tim kiem", "goi y", "gioi thieu", "co sach nao", "sach nao", "cuon nao",
		"sach ve", "liet ke", "danh sach", "search", "find", "recommend", "books about",
		"book about", "any books",
	}

	deicticPhrases = []string{
		"sach do", "sach nay", "sach ay", "sach kia", "sach vua roi",
		"cuon do", "cuon nay", "cuon ay", "cuon kia", "cuon vua roi",
		"quyen do", "quyen nay", "quyen ay",
		"that book", "this book", "that one", "the same book",
	}

	// Words trimmed from both ends of the extracted query.
	queryStopwords = map[string]bool{
		"sach": true, "cuon": true, "quyen": true, "con": true, "khong": true, "ko": true,
		"k": true, "hong": true, "hok": true, "khum": true, "chua": true, "a": true,
		"ah": true, "nhe": true, "oi": true, "vay": true, "co": true, "nao": true,
		"ve": true, "tim": true, "kiem": true, "giup": true, "minh": true, "toi": true,
		"em": true, "cho": true, "hoi": true, "xin": true, "thu": true, "vien": true,
		"goi": true, "y": true, "gioi": true, "thieu": true, "liet": true, "ke": true,
		"danh": true, "muon": true, "duoc": true, "hien": true, "tai": true, "dang": true,
		"van": true, "san": true, "bao": true, "nhieu": true, "may": true, "het": true,
		"roi": true, "ban": true, "do": true, "nay": true, "ay": true, "kia": true,
		"hang": true, "la": true, "gi": true, "loai": true,
		"book": true, "books": true, "about": true, "find": true, "search": true,
		"any": true, "is": true, "are": true, "available": true, "still": true,
		"in": true, "stock": true, "recommend": true, "please": true, "me": true,
		"have": true, "you": true, "can": true, "i": true, "borrow": true,
	}
)

// ParseLibraryRequest classifies a library message without any I/O.
func ParseLibraryRequest(message string) *LibraryRequest {
	req := &LibraryRequest{Original: message, Action: ActionDiscovery}
	rest := message

	if m := bookIDPattern.FindStringSubmatch(rest); m != nil {
		req.ExplicitID = strings.TrimRight(m[1], "?!.,;:")
		rest = strings.Replace(rest, m[0], " ", 1)
	}
	if m := wikiTitlePattern.FindStringSubmatch(rest); m != nil {
		req.Query = strings.TrimSpace(m[1])
		req.Quoted = true
		rest = strings.Replace(rest, m[0], " ", 1)
	} else if m := quotedPattern.FindStringSubmatch(rest); m != nil {
		req.Query = strings.TrimSpace(m[1])
		req.Quoted = true
		rest = strings.Replace(rest, m[0], " ", 1)
	}

	folded := utils.Fold(rest)
	words := utils.Words(folded)
	availability := hasAvailabilitySignal(folded, words)
	discovery := containsAny(folded, discoveryPhrases)
	req.Deictic = req.ExplicitID == "" && req.Query == "" && containsAny(folded, deicticPhrases)

	switch {
	case availability && discovery && !req.Deictic && req.ExplicitID == "":
		req.Action = ActionDiscoveryAvailability
	case availability || req.ExplicitID != "" || req.Deictic:
		req.Action = ActionAvailability
	}

	if req.Query == "" && !req.Deictic {
		req.Query = extractQuery(rest)
	}
	return req
}

func hasAvailabilitySignal(folded string, words []string) bool {
	if containsAny(folded, availabilityPhrases) {
		return true
	}
	hasCon := false
	for _, w := range words {
		if w == "con" {
			hasCon = true
			break
		}
	}
	return hasCon && containsAny(folded, negativeParticles)
}

func containsAny(folded string, phrases []string) bool {
	for _, p := range phrases {
		if utils.ContainsPhrase(folded, p) {
			return true
		}
	}
	return false
}

// extractQuery trims request wording from both ends and keeps the original
// spelling of what remains.
func extractQuery(text string) string {
	raw := strings.Fields(spacePattern.ReplaceAllString(text, " "))
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.Trim(w, "?!.,;:\"'“”«»()…")
		if w != "" {
			words = append(words, w)
		}
	}

	start, end := 0, len(words)
	for start < end && queryStopwords[utils.Fold(words[start])] {
		start++
	}
	for end > start && queryStopwords[utils.Fold(words[end-1])] {
		end--
	}
	return strings.Join(words[start:end], " ")
}
