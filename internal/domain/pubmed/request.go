package pubmed

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/evidex/internal/domain"
)

// Paging limits.
const (
	DefaultMaxResults = 20
	MaxResultsLimit   = 100
	// esearch refuses retstart beyond this window.
	maxWindow = 10000
)

// qualityFilter restricts results to human studies, trials or reviews in English.
const qualityFilter = "(humans[MeSH] OR clinical trial[pt] OR review[pt]) AND english[la]"

// conditionTerms maps condition IDs to their MeSH search expressions.
var conditionTerms = map[string]string{
	"cancer": "(neoplasms[MeSH] OR cancer[tiab]) AND " +
		"(complementary therapies[MeSH] OR herbal medicine[MeSH] OR phytotherapy[MeSH])",
	"neurological": "(neurodegenerative diseases[MeSH] OR dementia[MeSH] OR alzheimer[tiab] OR parkinson[tiab]) AND " +
		"(neuroprotection[tiab] OR natural products[MeSH])",
	"cardiovascular": "(cardiovascular diseases[MeSH] OR heart diseases[MeSH]) AND " +
		"(dietary supplements[MeSH] OR phytotherapy[MeSH])",
	"metabolic": "(metabolic diseases[MeSH] OR diabetes mellitus[MeSH] OR obesity[MeSH]) AND " +
		"(herbal medicine[MeSH] OR dietary supplements[MeSH])",
	"autoimmune": "(autoimmune diseases[MeSH] OR rheumatoid arthritis[MeSH]) AND " +
		"(anti-inflammatory agents[MeSH] OR immunomodulation[tiab])",
	"infectious": "(communicable diseases[MeSH] OR COVID-19[MeSH] OR viral infections) AND " +
		"(antiviral agents[MeSH] OR immunomodulation[tiab])",
	"musculoskeletal": "(musculoskeletal diseases[MeSH] OR osteoarthritis[MeSH]) AND " +
		"(dietary supplements[MeSH] OR glucosamine[tiab])",
}

// ConditionTerms returns the MeSH expression for a known condition ID.
func ConditionTerms(condition string) (string, bool) {
	t, ok := conditionTerms[strings.ToLower(strings.TrimSpace(condition))]
	return t, ok
}

// StudyType narrows a search to one publication type.
type StudyType string

// Study types.
const (
	StudyAny           StudyType = ""
	StudyRCT           StudyType = "randomized_controlled_trial"
	StudyClinicalTrial StudyType = "clinical_trial"
	StudyMetaAnalysis  StudyType = "meta_analysis"
	StudySystematic    StudyType = "systematic_review"
	StudyReview        StudyType = "review"
	StudyObservational StudyType = "observational"
	StudyCaseReport    StudyType = "case_report"
)

var studyFilters = map[StudyType]string{
	StudyRCT:           "randomized controlled trial[pt]",
	StudyClinicalTrial: "clinical trial[pt]",
	StudyMetaAnalysis:  "meta-analysis[pt]",
	StudySystematic:    "systematic review[pt]",
	StudyReview:        "review[pt]",
	StudyObservational: "observational study[pt]",
	StudyCaseReport:    "case reports[pt]",
}

// ParseStudyType accepts the filter values used by the UI. "all" and "" mean no filter.
func ParseStudyType(s string) (StudyType, error) {
	v := StudyType(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case "", "all":
		return StudyAny, nil
	case "rct":
		return StudyRCT, nil
	}
	if _, ok := studyFilters[v]; !ok {
		return StudyAny, domain.NewValidationError("study_type", fmt.Sprintf("unsupported value %q", s))
	}
	return v, nil
}

var pubDateRe = regexp.MustCompile(`^\d{4}(/(0[1-9]|1[0-2])(/(0[1-9]|[12]\d|3[01]))?)?$`)

// Request is a validated research search.
type Request struct {
	Query      string
	Condition  string
	MaxResults int
	Page       int
	DateFrom   string
	DateTo     string
	StudyType  StudyType
}

// Normalize trims the request, applies defaults and validates it.
// Dates accept YYYY, YYYY/MM or YYYY/MM/DD, with "-" as an alternative separator.
func (r *Request) Normalize() error {
	r.Query = strings.Join(strings.Fields(r.Query), " ")
	r.Condition = strings.ToLower(strings.TrimSpace(r.Condition))
	r.DateFrom = strings.ReplaceAll(strings.TrimSpace(r.DateFrom), "-", "/")
	r.DateTo = strings.ReplaceAll(strings.TrimSpace(r.DateTo), "-", "/")

	switch {
	case r.MaxResults < 0:
		return domain.NewValidationError("max_results", "must be non-negative")
	case r.MaxResults == 0:
		r.MaxResults = DefaultMaxResults
	case r.MaxResults > MaxResultsLimit:
		r.MaxResults = MaxResultsLimit
	}

	switch {
	case r.Page < 0:
		return domain.NewValidationError("page", "must be positive")
	case r.Page == 0:
		r.Page = 1
	}
	// Page*MaxResults > maxWindow, without overflowing int for huge pages.
	if r.Page > maxWindow/r.MaxResults {
		return domain.NewValidationError("page", fmt.Sprintf("results beyond %d are not available", maxWindow))
	}

	if r.DateFrom != "" && !pubDateRe.MatchString(r.DateFrom) {
		return domain.NewValidationError("date_from", "expected YYYY, YYYY/MM or YYYY/MM/DD")
	}
	if r.DateTo != "" && !pubDateRe.MatchString(r.DateTo) {
		return domain.NewValidationError("date_to", "expected YYYY, YYYY/MM or YYYY/MM/DD")
	}
	if r.DateFrom != "" && r.DateTo != "" && r.DateFrom[:4] > r.DateTo[:4] {
		return domain.NewValidationError("date_from", "must not be after date_to")
	}
	return nil
}

// Empty reports whether there is nothing to search for.
func (r *Request) Empty() bool {
	return r.Query == "" && r.Condition == ""
}

// Offset is the zero-based index of the first result of the page.
func (r *Request) Offset() int {
	return (r.Page - 1) * r.MaxResults
}

// BaseTerm is the search expression before filters: the condition's MeSH
// expression and the free-text query, joined with AND when both are present.
// An unknown condition is searched as free text.
func (r *Request) BaseTerm() string {
	var parts []string
	if r.Condition != "" {
		if t, ok := ConditionTerms(r.Condition); ok {
			parts = append(parts, t)
		} else {
			parts = append(parts, r.Condition)
		}
	}
	if r.Query != "" {
		parts = append(parts, r.Query)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	for i, p := range parts {
		parts[i] = "(" + p + ")"
	}
	return strings.Join(parts, " AND ")
}

// Term is the full esearch expression including study type, date range and
// optionally the quality filter.
func (r *Request) Term(withQualityFilter bool) string {
	var b strings.Builder
	b.WriteString(r.BaseTerm())
	if f, ok := studyFilters[r.StudyType]; ok {
		b.WriteString(" AND ")
		b.WriteString(f)
	}
	if r.DateFrom != "" || r.DateTo != "" {
		from, to := r.DateFrom, r.DateTo
		if from == "" {
			from = "1800"
		}
		if to == "" {
			to = "3000"
		}
		fmt.Fprintf(&b, ` AND ("%s"[dp] : "%s"[dp])`, from, to)
	}
	if withQualityFilter {
		b.WriteString(" AND ")
		b.WriteString(qualityFilter)
	}
	return b.String()
}

// CacheKey identifies the request for response caching.
func (r *Request) CacheKey(withQualityFilter bool) string {
	return fmt.Sprintf("%s|%d|%d", r.Term(withQualityFilter), r.MaxResults, r.Page)
}
