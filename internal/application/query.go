package application

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

// QueryPipeline filters, sorts, and groups a collection for display. It never
// mutates its input and is safe to call on every keystroke.
type QueryPipeline struct {
	tag language.Tag
}

// NewQueryPipeline creates a QueryPipeline that collates strings for the
// given language.
func NewQueryPipeline(tag language.Tag) *QueryPipeline {
	return &QueryPipeline{tag: tag}
}

// Evaluate applies the text and category filters, sorts by q.Sort, and
// partitions by category when q.Grouped is set.
func (p *QueryPipeline) Evaluate(services []model.Service, q model.Query) model.QueryResult {
	// Collators and casers carry internal buffers, so each call gets its own.
	coll := collate.New(p.tag)
	fold := cases.Fold()

	needle := fold.String(strings.TrimSpace(q.Text))

	out := make([]model.Service, 0, len(services))
	for _, s := range services {
		if !matchesCategory(s, q.Category) {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(s.Name), needle) &&
			!strings.Contains(fold.String(s.Notes), needle) {
			continue
		}
		out = append(out, s)
	}

	sortState := q.Sort
	if !sortState.Key.Valid() {
		sortState.Key = model.SortByName
	}
	compare := comparatorFor(sortState.Key, coll)
	slices.SortStableFunc(out, compare)
	if sortState.Dir == model.SortDesc {
		slices.Reverse(out)
	}

	result := model.QueryResult{Services: out}
	if q.Grouped {
		result.Groups = groupByCategory(out, coll)
	}
	return result
}

// Categories returns the distinct display categories of services, ordered
// the same way as groups.
func (p *QueryPipeline) Categories(services []model.Service) []string {
	coll := collate.New(p.tag)

	seen := make(map[string]struct{})
	var labels []string
	for _, s := range services {
		label := s.CategoryLabel()
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	sortCategoryLabels(labels, coll)
	return labels
}

func matchesCategory(s model.Service, category string) bool {
	switch category {
	case "", model.CategoryAll:
		return true
	case model.UncategorizedLabel:
		return s.Category == ""
	default:
		return s.Category == category
	}
}

func comparatorFor(key model.SortKey, coll *collate.Collator) func(a, b model.Service) int {
	switch key {
	case model.SortByURL:
		return func(a, b model.Service) int { return coll.CompareString(a.URL, b.URL) }
	case model.SortByCategory:
		return func(a, b model.Service) int { return coll.CompareString(a.Category, b.Category) }
	case model.SortByNotes:
		return func(a, b model.Service) int { return coll.CompareString(a.Notes, b.Notes) }
	case model.SortByMinLength:
		return func(a, b model.Service) int { return compareOptionalInt(a.MinLength, b.MinLength) }
	case model.SortByMaxLength:
		return func(a, b model.Service) int { return compareOptionalInt(a.MaxLength, b.MaxLength) }
	case model.SortByTwoFactor:
		return func(a, b model.Service) int { return compareBool(a.TwoFactor, b.TwoFactor) }
	case model.SortByPasskey:
		return func(a, b model.Service) int { return compareBool(a.Passkey, b.Passkey) }
	default:
		return func(a, b model.Service) int { return coll.CompareString(a.Name, b.Name) }
	}
}

// compareOptionalInt orders absent values before every present value.
func compareOptionalInt(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func groupByCategory(services []model.Service, coll *collate.Collator) []model.Group {
	index := make(map[string]int)
	var groups []model.Group
	for _, s := range services {
		label := s.CategoryLabel()
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, model.Group{Category: label})
		}
		groups[i].Services = append(groups[i].Services, s)
	}

	slices.SortStableFunc(groups, func(a, b model.Group) int {
		return compareCategoryLabels(a.Category, b.Category, coll)
	})
	return groups
}

func sortCategoryLabels(labels []string, coll *collate.Collator) {
	slices.SortStableFunc(labels, func(a, b string) int {
		return compareCategoryLabels(a, b, coll)
	})
}

// compareCategoryLabels collates labels alphabetically with the
// Uncategorized sentinel forced last.
func compareCategoryLabels(a, b string, coll *collate.Collator) int {
	switch {
	case a == b:
		return 0
	case a == model.UncategorizedLabel:
		return 1
	case b == model.UncategorizedLabel:
		return -1
	default:
		return coll.CompareString(a, b)
	}
}
