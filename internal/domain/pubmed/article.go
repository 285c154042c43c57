// Package pubmed models literature searches against PubMed.
package pubmed

import "strings"

// Source is the attribution attached to every research response.
const Source = "PubMed/NCBI"

// Article is one parsed PubMed citation.
type Article struct {
	PMID             string   `json:"pmid"`
	Title            string   `json:"title"`
	Authors          []string `json:"authors"`
	Journal          string   `json:"journal"`
	Year             string   `json:"year"`
	Abstract         string   `json:"abstract"`
	DOI              string   `json:"doi,omitempty"`
	PMCID            string   `json:"pmcid,omitempty"`
	MeSHTerms        []string `json:"mesh_terms"`
	PublicationTypes []string `json:"publication_types"`
	StudyType        string   `json:"study_type"`
	URL              string   `json:"pubmed_url"`
}

// ArticleURL returns the public PubMed page of an article.
func ArticleURL(pmid string) string {
	return "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"
}

// studyLabels is checked in order; the first matching publication type wins.
var studyLabels = []struct {
	needle string
	label  string
}{
	{"randomized controlled trial", "RCT"},
	{"meta-analysis", "Meta-Analysis"},
	{"systematic review", "Systematic Review"},
	{"clinical trial", "Clinical Trial"},
	{"review", "Review"},
	{"observational", "Observational"},
}

// ClassifyStudy derives a display label from an article's publication types.
func ClassifyStudy(publicationTypes []string) string {
	for _, sl := range studyLabels {
		for _, pt := range publicationTypes {
			if strings.Contains(strings.ToLower(pt), sl.needle) {
				return sl.label
			}
		}
	}
	return "Journal Article"
}

// SearchResult is one page of PMIDs and the total hit count.
type SearchResult struct {
	IDs   []string
	Count int
}

// Response is one page of research results.
type Response struct {
	Articles   []Article `json:"articles"`
	TotalCount int       `json:"total_count"`
	Query      string    `json:"query"`
	Page       int       `json:"page"`
	MaxResults int       `json:"max_results"`
	Suggestion string    `json:"suggestion,omitempty"`
	Source     string    `json:"source"`
}
