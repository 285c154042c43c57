package fuzzy

// Levenshtein returns the minimum number of single-character insertions,
// deletions and substitutions turning a into b. Characters are runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two-row DP
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = 1 + min(prev[j], curr[j-1], prev[j-1])
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Dice returns the Dice coefficient of the character bigram sets of a and b:
// 2*|shared| / (|bigrams(a)| + |bigrams(b)|). Strings without bigrams score 0.
func Dice(a, b string) float64 {
	ba, bb := bigrams(a), bigrams(b)
	if len(ba)+len(bb) == 0 {
		return 0
	}
	shared := 0
	for g := range ba {
		if _, ok := bb[g]; ok {
			shared++
		}
	}
	return float64(2*shared) / float64(len(ba)+len(bb))
}

type bigram [2]rune

func bigrams(s string) map[bigram]struct{} {
	r := []rune(s)
	if len(r) < 2 {
		return nil
	}
	set := make(map[bigram]struct{}, len(r)-1)
	for i := 0; i+1 < len(r); i++ {
		set[bigram{r[i], r[i+1]}] = struct{}{}
	}
	return set
}

// maxDistance scales the tolerated edit distance with word length.
func maxDistance(wordLen int) int {
	switch {
	case wordLen <= 4:
		return 1
	case wordLen <= 6:
		return 2
	default:
		return 3
	}
}
