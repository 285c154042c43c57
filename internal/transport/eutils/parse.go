package eutils

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/kailas-cloud/evidex/internal/domain/pubmed"
)

const (
	maxAuthors     = 5
	maxMeSHTerms   = 5
	maxAbstractLen = 1000

	unknownAuthor  = "Unknown"
	unknownJournal = "Unknown Journal"
	noAbstract     = "No abstract available."
	noTitle        = "No title"
)

type articleSet struct {
	Articles []xmlArticle `xml:"PubmedArticle"`
}

type xmlArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Journal struct {
				Title           string `xml:"Title"`
				ISOAbbreviation string `xml:"ISOAbbreviation"`
				PubDate         struct {
					Year        string `xml:"Year"`
					MedlineDate string `xml:"MedlineDate"`
				} `xml:"JournalIssue>PubDate"`
			} `xml:"Journal"`
			Title    *markup        `xml:"ArticleTitle"`
			Abstract []abstractPart `xml:"Abstract>AbstractText"`
			Authors  []struct {
				LastName string `xml:"LastName"`
				ForeName string `xml:"ForeName"`
			} `xml:"AuthorList>Author"`
			PublicationTypes []string `xml:"PublicationTypeList>PublicationType"`
		} `xml:"Article"`
		MeSH []string `xml:"MeshHeadingList>MeshHeading>DescriptorName"`
	} `xml:"MedlineCitation"`
	IDs []struct {
		Type  string `xml:"IdType,attr"`
		Value string `xml:",chardata"`
	} `xml:"PubmedData>ArticleIdList>ArticleId"`
}

// markup keeps inline tags (<i>, <sup>) so text can be flattened later.
type markup struct {
	Inner string `xml:",innerxml"`
}

type abstractPart struct {
	Label string `xml:"Label,attr"`
	Inner string `xml:",innerxml"`
}

// ParseArticles decodes an efetch PubmedArticleSet document. Articles without
// a PMID are skipped.
func ParseArticles(data []byte) ([]pubmed.Article, error) {
	var set articleSet
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("decode PubmedArticleSet: %w", err)
	}

	out := make([]pubmed.Article, 0, len(set.Articles))
	for i := range set.Articles {
		if a, ok := convert(&set.Articles[i]); ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func convert(x *xmlArticle) (pubmed.Article, bool) {
	c := &x.Citation
	pmid := strings.TrimSpace(c.PMID)
	if pmid == "" {
		return pubmed.Article{}, false
	}

	title := noTitle
	if c.Article.Title != nil {
		title = flatten(c.Article.Title.Inner)
	}

	a := pubmed.Article{
		PMID:             pmid,
		Title:            title,
		Authors:          authors(x),
		Journal:          journal(x),
		Year:             year(x),
		Abstract:         abstract(c.Article.Abstract),
		MeSHTerms:        firstN(trimAll(c.MeSH), maxMeSHTerms),
		PublicationTypes: trimAll(c.Article.PublicationTypes),
		URL:              pubmed.ArticleURL(pmid),
	}
	a.StudyType = pubmed.ClassifyStudy(a.PublicationTypes)
	for _, id := range x.IDs {
		v := strings.TrimSpace(id.Value)
		switch id.Type {
		case "doi":
			if a.DOI == "" {
				a.DOI = v
			}
		case "pmc":
			if a.PMCID == "" {
				a.PMCID = v
			}
		}
	}
	return a, true
}

func authors(x *xmlArticle) []string {
	var out []string
	for _, au := range x.Citation.Article.Authors {
		last := strings.TrimSpace(au.LastName)
		if last == "" {
			continue
		}
		out = append(out, strings.TrimSpace(last+" "+strings.TrimSpace(au.ForeName)))
		if len(out) == maxAuthors {
			break
		}
	}
	if len(out) == 0 {
		return []string{unknownAuthor}
	}
	return out
}

func journal(x *xmlArticle) string {
	j := &x.Citation.Article.Journal
	if t := strings.TrimSpace(j.Title); t != "" {
		return t
	}
	if t := strings.TrimSpace(j.ISOAbbreviation); t != "" {
		return t
	}
	return unknownJournal
}

func year(x *xmlArticle) string {
	d := &x.Citation.Article.Journal.PubDate
	if y := strings.TrimSpace(d.Year); y != "" {
		return y
	}
	md := strings.TrimSpace(d.MedlineDate)
	if len(md) >= 4 {
		return md[:4]
	}
	return md
}

func abstract(parts []abstractPart) string {
	if len(parts) == 0 {
		return noAbstract
	}
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		t := flatten(p.Inner)
		if p.Label != "" {
			t = p.Label + ": " + t
		}
		texts = append(texts, t)
	}
	s := strings.Join(texts, " ")
	if utf8.RuneCountInString(s) > maxAbstractLen {
		return string([]rune(s)[:maxAbstractLen]) + "..."
	}
	return s
}

// flatten drops inline markup, unescapes entities and collapses whitespace.
func flatten(inner string) string {
	z := html.NewTokenizer(strings.NewReader(inner))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstN(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}
