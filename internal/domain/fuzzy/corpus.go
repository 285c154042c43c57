package fuzzy

import (
	"strings"

	"github.com/kailas-cloud/evidex/internal/domain/catalog"
)

// Minimum token lengths (exclusive) per field kind. Descriptions use the
// longer floor so connector words don't become correction targets.
const (
	minTermLen        = 2
	minDescriptionLen = 3
	minCorrectableLen = 3
	minDiceSimilarity = 0.4
)

// Corpus is the ordered set of normalized words a query may be corrected to.
// It is immutable after construction and safe for concurrent use.
type Corpus struct {
	words []string
	index map[string]struct{}
}

// NewCorpus builds a corpus from already-normalized words, keeping the first
// occurrence of each.
func NewCorpus(words ...string) *Corpus {
	c := &Corpus{index: make(map[string]struct{}, len(words))}
	for _, w := range words {
		c.add(w)
	}
	return c
}

// BuildCorpus extracts the vocabulary of a catalog: record titles, authors and
// categories, category labels, and the longer words of every description.
func BuildCorpus(cat *catalog.Catalog) *Corpus {
	c := &Corpus{index: make(map[string]struct{})}
	for i := range cat.Records {
		r := &cat.Records[i]
		c.addText(r.Title, minTermLen)
		c.addText(r.Author, minTermLen)
		c.addText(r.Category, minTermLen)
		c.addText(r.Description, minDescriptionLen)
	}
	for _, cg := range cat.Categories {
		c.addText(cg.Label, minTermLen)
		c.addText(cg.Description, minDescriptionLen)
	}
	return c
}

// Merge returns a corpus holding the words of all corpora, in argument order.
func Merge(corpora ...*Corpus) *Corpus {
	c := &Corpus{index: make(map[string]struct{})}
	for _, other := range corpora {
		for _, w := range other.words {
			c.add(w)
		}
	}
	return c
}

func (c *Corpus) addText(text string, minLen int) {
	for _, w := range tokens(Normalize(text), minLen) {
		c.add(w)
	}
}

func (c *Corpus) add(w string) {
	if w == "" {
		return
	}
	if _, ok := c.index[w]; ok {
		return
	}
	c.index[w] = struct{}{}
	c.words = append(c.words, w)
}

// Len returns the number of distinct words.
func (c *Corpus) Len() int { return len(c.words) }

// Contains reports whether w is a corpus word.
func (c *Corpus) Contains(w string) bool {
	_, ok := c.index[w]
	return ok
}

// Words returns a copy of the corpus in construction order.
func (c *Corpus) Words() []string {
	out := make([]string, len(c.words))
	copy(out, c.words)
	return out
}

// Correct proposes the corpus word a normalized word was most likely meant to
// be. Words under three characters and words already in the corpus are never
// corrected.
func (c *Corpus) Correct(word string) Correction {
	n := runeLen(word)
	if n < minCorrectableLen || c.Contains(word) {
		return Uncorrected()
	}

	maxDist := maxDistance(n)
	bestDist := maxDist + 1
	var byDistance string

	bestSim := 0.0
	var bySimilarity string

	for _, cand := range c.words {
		if diff := runeLen(cand) - n; diff >= -(maxDist+1) && diff <= maxDist+1 {
			if d := Levenshtein(word, cand); d < bestDist {
				bestDist = d
				byDistance = cand
			}
		}
		if sim := Dice(word, cand); sim >= minDiceSimilarity && sim > bestSim {
			bestSim = sim
			bySimilarity = cand
		}
	}

	switch {
	case byDistance != "":
		return Corrected(byDistance)
	case bySimilarity != "":
		return Corrected(bySimilarity)
	default:
		return Uncorrected()
	}
}

// CorrectQuery corrects every word of a normalized query. It returns the
// words joined by single spaces, with uncorrected words kept verbatim, and
// whether any word changed.
func (c *Corpus) CorrectQuery(normalized string) (string, []string, bool) {
	words := strings.Fields(normalized)
	changed := false
	for i, w := range words {
		if fix, ok := c.Correct(w).Word(); ok {
			words[i] = fix
			changed = true
		}
	}
	return strings.Join(words, " "), words, changed
}
