package resolver

import (
	"strings"
	"unicode/utf8"
)

// SequenceRatio returns 2*M/T where M is the number of characters in the
// matching blocks found by recursive longest-common-substring search and T the
// total rune count. Two empty strings are identical.
func SequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingRunes(ra, rb)) / float64(total)
}

func matchingRunes(a, b []rune) int {
	var count func(alo, ahi, blo, bhi int) int
	count = func(alo, ahi, blo, bhi int) int {
		i, j, k := longestMatch(a, b, alo, ahi, blo, bhi)
		if k == 0 {
			return 0
		}
		n := k
		if alo < i && blo < j {
			n += count(alo, i, blo, j)
		}
		if i+k < ahi && j+k < bhi {
			n += count(i+k, ahi, j+k, bhi)
		}
		return n
	}
	return count(0, len(a), 0, len(b))
}

// longestMatch finds the longest common block in a[alo:ahi] and b[blo:bhi].
// Ties go to the block starting earliest in a, then earliest in b.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestk := alo, blo, 0
	width := bhi - blo
	if width <= 0 || ahi <= alo {
		return besti, bestj, 0
	}
	prev := make([]int, width+1)
	cur := make([]int, width+1)
	for i := alo; i < ahi; i++ {
		for j := blo; j < bhi; j++ {
			col := j - blo + 1
			if a[i] != b[j] {
				cur[col] = 0
				continue
			}
			k := prev[col-1] + 1
			cur[col] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		prev, cur = cur, prev
	}
	return besti, bestj, bestk
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Similarity blends sequence, token Jaccard and substring containment:
// 0.4*seq + 0.3*token + 0.3*substring, never below seq.
func Similarity(s1, s2 string) float64 {
	a, b := normalize(s1), normalize(s2)
	seq := SequenceRatio(a, b)

	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return seq
	}

	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	token := float64(shared) / float64(union)

	substring := 0.0
	switch {
	case strings.Contains(b, a) || strings.Contains(a, b):
		substring = 0.9
	default:
		for _, t := range strings.Fields(a) {
			if utf8.RuneCountInString(t) > 3 && strings.Contains(b, t) {
				substring = 0.8
				break
			}
		}
	}

	combined := 0.4*seq + 0.3*token + 0.3*substring
	if combined < seq {
		return seq
	}
	return combined
}
