package chi

import (
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"
)

// queryParam binds one form-style query parameter. Optional params take a
// pointer to a pointer, as generated servers do.
type queryParam struct {
	name     string
	required bool
	dest     any
}

func bindQuery(r *http.Request, params ...queryParam) error {
	q := r.URL.Query()
	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, p.required, p.name, q, p.dest); err != nil {
			return fmt.Errorf("invalid format for parameter %s: %w", p.name, err)
		}
	}
	return nil
}

func bindCatalogSearch(r *http.Request) (CatalogSearchParams, error) {
	var p CatalogSearchParams
	err := bindQuery(r,
		queryParam{name: "q", dest: &p.Q},
		queryParam{name: "category", dest: &p.Category},
		queryParam{name: "offset", dest: &p.Offset},
		queryParam{name: "limit", dest: &p.Limit},
	)
	return p, err
}

func bindCorrect(r *http.Request) (CorrectParams, error) {
	var p CorrectParams
	err := bindQuery(r, queryParam{name: "word", required: true, dest: &p.Word})
	return p, err
}

func bindPubMedSearch(r *http.Request) (PubMedSearchParams, error) {
	var p PubMedSearchParams
	err := bindQuery(r,
		queryParam{name: "query", dest: &p.Query},
		queryParam{name: "condition", dest: &p.Condition},
		queryParam{name: "max_results", dest: &p.MaxResults},
		queryParam{name: "page", dest: &p.Page},
		queryParam{name: "date_from", dest: &p.DateFrom},
		queryParam{name: "date_to", dest: &p.DateTo},
		queryParam{name: "study_type", dest: &p.StudyType},
	)
	return p, err
}
