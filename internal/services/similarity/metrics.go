package similarity

import (
	"math"
	"strings"
	"unicode"
)

// matchRatio is a sequence-alignment ratio: 2*M/T where M is the total size
// of the matching blocks found by recursive longest-common-substring
// alignment and T the combined length. Equivalent to difflib-style block
// matching without the junk heuristic.
func matchRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	matched := matchingSize(a, b)
	return 2.0 * float64(matched) / float64(total)
}

// matchingSize finds the longest common substring, then recurses on the
// unmatched pieces to its left and right
func matchingSize(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}

	return size +
		matchingSize(a[:ai], b[:bi]) +
		matchingSize(a[ai+size:], b[bi+size:])
}

// longestCommonBlock returns the start offsets and length of the longest
// common substring of a and b. O(len(a)*len(b)) time, O(len(b)) space.
func longestCommonBlock(a, b []rune) (bestA, bestB, bestSize int) {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > bestSize {
					bestSize = curr[j]
					bestA = i - bestSize
					bestB = j - bestSize
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return bestA, bestB, bestSize
}

// editRatio is the normalized character-level edit distance:
// 1 - levenshtein(a,b)/max(len(a),len(b))
func editRatio(a, b []rune) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes edit distance with the usual two-row DP
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// jaccard is word-set overlap: |intersection| / |union| of the lowercased
// word sets of both texts
func jaccard(a, b string) float64 {
	wordsA := tokenSet(a)
	wordsB := tokenSet(b)

	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 1.0
	}
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// tokenSet splits text into lowercased words on non-alphanumeric boundaries
func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[word] = struct{}{}
	}
	return set
}

// ngramCosine is the cosine of the two case-folded character n-gram
// frequency vectors over the union of n-grams
func ngramCosine(a, b string, n int) float64 {
	vecA := ngramCounts(strings.ToLower(a), n)
	vecB := ngramCounts(strings.ToLower(b), n)

	if len(vecA) == 0 && len(vecB) == 0 {
		return 1.0
	}
	if len(vecA) == 0 || len(vecB) == 0 {
		return 0.0
	}

	var dot, magA, magB float64
	for gram, countA := range vecA {
		magA += float64(countA) * float64(countA)
		if countB, ok := vecB[gram]; ok {
			dot += float64(countA) * float64(countB)
		}
	}
	for _, countB := range vecB {
		magB += float64(countB) * float64(countB)
	}

	if magA == 0 || magB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// ngramCounts builds the character n-gram frequency vector of text
func ngramCounts(text string, n int) map[string]int {
	runes := []rune(text)
	counts := make(map[string]int)
	for i := 0; i+n <= len(runes); i++ {
		counts[string(runes[i:i+n])]++
	}
	return counts
}

// lengthRatio is min(len)/max(len), 0 when either text is empty
func lengthRatio(lenA, lenB int) float64 {
	longest := max(lenA, lenB)
	if longest == 0 {
		return 0.0
	}
	return float64(min(lenA, lenB)) / float64(longest)
}
