package match

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultMinScore is the floor below which a candidate is discarded
	// from the ranking entirely.
	DefaultMinScore = 0.3

	// DefaultAmbiguityGap and DefaultNearCertain drive ambiguity
	// rejection: when the top two surviving scores are closer than the
	// gap and the top score is not near-certain, the resolution is
	// rejected instead of silently picking the first candidate. The
	// constants are empirical; keep them configurable.
	DefaultAmbiguityGap = 0.1
	DefaultNearCertain  = 0.9

	maxSuggestions = 3
)

var numberQueryRe = regexp.MustCompile(`^#?(\d+)$`)

// ParseNumberQuery recognizes an optional '#' followed by digits. Number
// lookups are always exact, never fuzzy.
func ParseNumberQuery(query string) (int, bool) {
	m := numberQueryRe.FindStringSubmatch(strings.TrimSpace(query))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ScoreMatch scores query against a candidate title. Rules are evaluated in
// strict priority order and the first one that fires wins:
//
//  1. exact normalized match          -> 1.0
//  2. title starts with query         -> 0.9 plus a length-ratio bonus
//  3. title contains query            -> 0.7 plus a length-ratio bonus
//  4. token overlap (Jaccard)         -> moderate band below the substring tier
//  5. edit similarity                 -> smooth fallback
func ScoreMatch(query, title string) float64 {
	q := Normalize(query)
	t := Normalize(title)
	if q == "" || t == "" {
		return 0
	}
	if q == t {
		return 1.0
	}

	qlen := len([]rune(q))
	tlen := len([]rune(t))
	ratio := float64(qlen) / float64(tlen)
	if ratio > 1 {
		ratio = 1
	}
	if strings.HasPrefix(t, q) {
		return 0.9 + 0.1*ratio
	}
	if strings.Contains(t, q) {
		return 0.7 + 0.2*ratio
	}
	if j := jaccard(q, t); j > 0 {
		return 0.4 + 0.3*j
	}
	return 1 - float64(EditDistance(q, t))/float64(max(qlen, tlen, 1))
}
