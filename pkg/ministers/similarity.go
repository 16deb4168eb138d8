package ministers

import (
	"strings"
	"unicode"
)

// keyTermStems maps each canonical ministry key term to the Slovenian and
// English stems that signal it. A stem of five or more characters matches any
// word it prefixes; shorter stems must match a whole word.
var keyTermStems = []struct {
	term  string
	stems []string
}{
	{"finance", []string{"finan"}},
	{"justice", []string{"pravosod", "justic"}},
	{"interior", []string{"notranj", "interior"}},
	{"health", []string{"zdrav", "health"}},
	{"defense", []string{"obramb", "defen"}},
	{"foreign", []string{"zunanj", "foreign"}},
	{"economy", []string{"gospodar", "econom"}},
	{"agriculture", []string{"kmetij", "agricult"}},
	{"education", []string{"izobraž", "izobraz", "educat", "šolstv", "solstv"}},
	{"culture", []string{"kultur", "cultur"}},
	{"environment", []string{"okolj", "environ"}},
	{"infrastructure", []string{"infrastruktur", "infrastruct", "promet"}},
	{"labor", []string{"delo", "dela", "delu", "labor", "labour"}},
	{"family", []string{"družin", "druzin", "famil"}},
}

const minPrefixStem = 5

// boilerplateWords appear in nearly every ministry name and carry no signal.
var boilerplateWords = map[string]struct{}{
	"ministrstvo": {}, "za": {}, "in": {},
	"ministry": {}, "of": {}, "the": {}, "and": {}, "for": {},
}

// substringFloor is the lowest score given to names where one contains the
// other.
const substringFloor = 0.5

// Similarity scores how well a candidate ministry name matches a query, from
// 0 to 1. Identical names score 1. When both names carry canonical key terms
// the score is the share of key terms they have in common. When only one of
// them does, they name different portfolios and score 0. When neither does,
// the score is the share of common words, ignoring boilerplate such as
// "Ministrstvo za". Containment of one name in the other raises a word-overlap
// or key-term score to at least 0.5.
func Similarity(query, candidate string) float64 {
	normalizedQuery := normalize(query)
	normalizedCandidate := normalize(candidate)
	if normalizedQuery == "" || normalizedCandidate == "" {
		return 0
	}
	if normalizedQuery == normalizedCandidate {
		return 1
	}

	var score float64
	queryTerms, candidateTerms := KeyTerms(query), KeyTerms(candidate)
	switch {
	case len(queryTerms) > 0 && len(candidateTerms) > 0:
		score = overlapRatio(queryTerms, candidateTerms)
	case len(queryTerms) > 0 || len(candidateTerms) > 0:
		return 0
	default:
		score = overlapRatio(contentWords(normalizedQuery), contentWords(normalizedCandidate))
	}

	if score < substringFloor &&
		(strings.Contains(normalizedQuery, normalizedCandidate) ||
			strings.Contains(normalizedCandidate, normalizedQuery)) {
		score = substringFloor
	}
	return score
}

// KeyTerms returns the set of canonical key terms recognized in name.
func KeyTerms(name string) map[string]struct{} {
	terms := make(map[string]struct{})
	for word := range wordSet(normalize(name)) {
		for _, entry := range keyTermStems {
			if matchesAnyStem(word, entry.stems) {
				terms[entry.term] = struct{}{}
			}
		}
	}
	return terms
}

func matchesAnyStem(word string, stems []string) bool {
	for _, stem := range stems {
		if word == stem {
			return true
		}
		if len([]rune(stem)) >= minPrefixStem && strings.HasPrefix(word, stem) {
			return true
		}
	}
	return false
}

func overlapRatio(left, right map[string]struct{}) float64 {
	larger := len(left)
	if len(right) > larger {
		larger = len(right)
	}
	if larger == 0 {
		return 0
	}
	common := 0
	for key := range left {
		if _, ok := right[key]; ok {
			common++
		}
	}
	return float64(common) / float64(larger)
}

// normalize lower-cases name and collapses whitespace runs to single spaces.
func normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// contentWords is wordSet without boilerplateWords.
func contentWords(normalized string) map[string]struct{} {
	words := wordSet(normalized)
	for word := range boilerplateWords {
		delete(words, word)
	}
	return words
}

func wordSet(normalized string) map[string]struct{} {
	words := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}
