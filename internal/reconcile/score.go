package reconcile

import (
	"strings"

	"supplydesk/internal"
)

const (
	scoreEqual     = 100
	scoreContains  = 80
	scorePartial   = 70
	scoreSubstring = 40

	tokenBase      = 30
	tokenStep      = 10
	tokenCap       = 60
	minTokenPoints = 2

	minContainLen   = 4
	minSubstringLen = 3
	minPartialToken = 2
)

// Score rates how likely candidate is the code the query meant. The highest
// applicable rule wins; rules are not summed.
func Score(query, candidate string) (float64, internal.MatchType) {
	return scoreNormalized(NormalizeCode(query), NormalizeCode(candidate), Tokenize(query), Tokenize(candidate))
}

func scoreNormalized(q, c string, qTokens, cTokens []string) (float64, internal.MatchType) {
	if q == "" || c == "" {
		return 0, ""
	}
	if q == c {
		return scoreEqual, internal.MatchExact
	}
	var best float64
	var kind internal.MatchType
	raise := func(score float64, t internal.MatchType) {
		if score > best {
			best, kind = score, t
		}
	}
	if len(q) >= minContainLen && strings.Contains(c, q) {
		raise(scoreContains, internal.MatchContains)
	}
	if len(c) >= minContainLen && strings.Contains(q, c) {
		raise(scorePartial, internal.MatchPartial)
	}
	if points := tokenPoints(qTokens, cTokens); points >= minTokenPoints {
		raise(min(float64(tokenBase+points*tokenStep), tokenCap), internal.MatchParts)
	}
	for _, t := range qTokens {
		if len(t) >= minSubstringLen && strings.Contains(c, t) {
			raise(scoreSubstring, internal.MatchSubstring)
			break
		}
	}
	return best, kind
}

// tokenPoints awards 2 per query token found verbatim among the candidate
// tokens and 1 per query token that only overlaps one as a substring.
func tokenPoints(qTokens, cTokens []string) int {
	points := 0
	for _, qt := range qTokens {
		partial := false
		exact := false
		for _, ct := range cTokens {
			if qt == ct {
				exact = true
				break
			}
			if len(qt) >= minPartialToken && len(ct) >= minPartialToken &&
				(strings.Contains(ct, qt) || strings.Contains(qt, ct)) {
				partial = true
			}
		}
		switch {
		case exact:
			points += 2
		case partial:
			points++
		}
	}
	return points
}
