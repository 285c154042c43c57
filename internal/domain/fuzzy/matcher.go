package fuzzy

import (
	"strings"

	"github.com/kailas-cloud/evidex/internal/domain/catalog"
)

// Outcome tells which stage of the search pipeline produced a result.
type Outcome string

const (
	// OutcomeAll is an empty query answered with the full catalog.
	OutcomeAll Outcome = "all"
	// OutcomeDirect is a substring hit on the query as typed.
	OutcomeDirect Outcome = "direct"
	// OutcomeCorrected is a substring hit on the whole corrected query.
	OutcomeCorrected Outcome = "corrected"
	// OutcomeCorrectedAnyWord is a hit on at least one corrected word.
	OutcomeCorrectedAnyWord Outcome = "corrected_any_word"
	// OutcomeNone means nothing matched and there is nothing to suggest.
	OutcomeNone Outcome = "none"
)

// Result is the answer to a fuzzy search.
type Result struct {
	Records []catalog.Record
	Outcome Outcome

	correctedQuery string
}

// Suggestion returns the "did you mean" text, if the result came from a
// corrected query.
func (r Result) Suggestion() (string, bool) {
	return r.correctedQuery, r.corrected()
}

// CorrectedQuery returns the query actually used to produce the records, if
// it differs from what was typed.
func (r Result) CorrectedQuery() (string, bool) {
	return r.correctedQuery, r.corrected()
}

func (r Result) corrected() bool {
	return r.Outcome == OutcomeCorrected || r.Outcome == OutcomeCorrectedAnyWord
}

// entry pairs a record with its normalized searchable fields.
type entry struct {
	record catalog.Record
	fields [4]string
}

func (e *entry) contains(q string) bool {
	for _, f := range e.fields {
		if strings.Contains(f, q) {
			return true
		}
	}
	return false
}

// Matcher answers fuzzy searches over one catalog. It is immutable and safe
// for concurrent use.
type Matcher struct {
	entries []entry
	corpus  *Corpus
}

// NewMatcher creates a matcher over the catalog's records using the given
// corpus for corrections.
func NewMatcher(cat *catalog.Catalog, corpus *Corpus) *Matcher {
	entries := make([]entry, len(cat.Records))
	for i := range cat.Records {
		r := cat.Records[i]
		fields := r.SearchFields()
		for j := range fields {
			fields[j] = Normalize(fields[j])
		}
		entries[i] = entry{record: r, fields: fields}
	}
	return &Matcher{entries: entries, corpus: corpus}
}

// Corpus returns the matcher's correction corpus.
func (m *Matcher) Corpus() *Corpus { return m.corpus }

// Search returns the records matching query. An empty query returns the whole
// catalog. A query with no direct match is spell-corrected word by word and
// searched again, first as a phrase, then as any of its corrected words.
func (m *Matcher) Search(query string) Result {
	q := Normalize(query)
	if q == "" {
		return Result{Records: m.all(), Outcome: OutcomeAll}
	}

	if direct := m.Direct(q); len(direct) > 0 {
		return Result{Records: direct, Outcome: OutcomeDirect}
	}

	corrected, words, changed := m.corpus.CorrectQuery(q)
	if !changed {
		return Result{Outcome: OutcomeNone}
	}

	if hits := m.Direct(corrected); len(hits) > 0 {
		return Result{Records: hits, Outcome: OutcomeCorrected, correctedQuery: corrected}
	}
	if hits := m.anyWord(words); len(hits) > 0 {
		return Result{Records: hits, Outcome: OutcomeCorrectedAnyWord, correctedQuery: corrected}
	}
	return Result{Outcome: OutcomeNone}
}

// Direct returns, in catalog order, the records with a searchable field
// containing the normalized query q.
func (m *Matcher) Direct(q string) []catalog.Record {
	var out []catalog.Record
	for i := range m.entries {
		if m.entries[i].contains(q) {
			out = append(out, m.entries[i].record)
		}
	}
	return out
}

func (m *Matcher) anyWord(words []string) []catalog.Record {
	var out []catalog.Record
	for i := range m.entries {
		for _, w := range words {
			if m.entries[i].contains(w) {
				out = append(out, m.entries[i].record)
				break
			}
		}
	}
	return out
}

func (m *Matcher) all() []catalog.Record {
	out := make([]catalog.Record, len(m.entries))
	for i := range m.entries {
		out[i] = m.entries[i].record
	}
	return out
}
