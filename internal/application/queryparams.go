package application

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

// QueryFromValues builds a query from request parameters: q, category, sort,
// dir and grouped. Unknown sort keys fall back to name; any dir other than
// desc means ascending.
func QueryFromValues(values url.Values) model.Query {
	q := model.Query{
		Text:     values.Get("q"),
		Category: strings.TrimSpace(values.Get("category")),
		Sort:     model.DefaultSort(),
	}
	if q.Category == "" {
		q.Category = model.CategoryAll
	}

	if key := model.SortKey(values.Get("sort")); key.Valid() {
		q.Sort.Key = key
	}
	if model.SortDir(strings.ToLower(values.Get("dir"))) == model.SortDesc {
		q.Sort.Dir = model.SortDesc
	}

	if grouped, err := strconv.ParseBool(values.Get("grouped")); err == nil {
		q.Grouped = grouped
	}
	return q
}

// Values is the inverse of QueryFromValues, omitting defaults.
func Values(q model.Query) url.Values {
	v := url.Values{}
	if q.Text != "" {
		v.Set("q", q.Text)
	}
	if q.Category != "" && q.Category != model.CategoryAll {
		v.Set("category", q.Category)
	}
	if q.Sort.Key != "" && q.Sort.Key != model.SortByName {
		v.Set("sort", string(q.Sort.Key))
	}
	if q.Sort.Dir == model.SortDesc {
		v.Set("dir", string(model.SortDesc))
	}
	if q.Grouped {
		v.Set("grouped", "true")
	}
	return v
}
