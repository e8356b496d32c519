package bind

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxTypoDistance bounds the edit distance for "did you mean" suggestions.
const maxTypoDistance = 2

// suggest picks the candidate closest to target, or "".
func suggest(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	best, bestDist := "", maxTypoDistance+1
	lt := strings.ToLower(target)
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(lt, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
