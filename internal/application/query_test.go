package application

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

func svc(id, name string, minLen, maxLen *int, category, notes string) model.Service {
	return model.Service{
		ID:        id,
		Name:      name,
		MinLength: minLen,
		MaxLength: maxLen,
		Category:  category,
		Notes:     notes,
	}
}

func names(services []model.Service) []string {
	out := make([]string, 0, len(services))
	for _, s := range services {
		out = append(out, s.Name)
	}
	return out
}

func fixture() []model.Service {
	return []model.Service{
		svc("1", "Google", model.IntPtr(10), model.IntPtr(20), "Search", "Recommended: enable 2FA"),
		svc("2", "GitHub", model.IntPtr(8), nil, "Dev", "Long passphrases allowed"),
		svc("3", "Netflix", model.IntPtr(6), model.IntPtr(60), "", ""),
		svc("4", "Bank", model.IntPtr(12), model.IntPtr(16), "Finance", "no emoji"),
		svc("5", "Forum", nil, nil, "", "legacy git mirror"),
	}
}

func TestEvaluate_TextFilterScenario(t *testing.T) {
	p := NewQueryPipeline(language.English)
	collection := []model.Service{
		svc("1", "Google", model.IntPtr(10), model.IntPtr(20), "", ""),
		svc("2", "GitHub", model.IntPtr(8), nil, "", ""),
	}

	result := p.Evaluate(collection, model.Query{Text: "git", Sort: model.DefaultSort()})

	require.Len(t, result.Services, 1)
	assert.Equal(t, "GitHub", result.Services[0].Name)
	assert.Nil(t, result.Groups, "ungrouped query has no groups")
}

func TestEvaluate_TextFilter(t *testing.T) {
	p := NewQueryPipeline(language.English)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty matches all", query: "", want: []string{"Bank", "Forum", "GitHub", "Google", "Netflix"}},
		{name: "whitespace matches all", query: "   ", want: []string{"Bank", "Forum", "GitHub", "Google", "Netflix"}},
		{name: "case insensitive name", query: "GOOGLE", want: []string{"Google"}},
		{name: "matches notes", query: "passphrase", want: []string{"GitHub"}},
		{name: "name or notes", query: "git", want: []string{"Forum", "GitHub"}},
		{name: "no match", query: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Evaluate(fixture(), model.Query{Text: tt.query, Sort: model.DefaultSort()})
			assert.Equal(t, tt.want, names(result.Services))
		})
	}
}

func TestEvaluate_CategoryFilter(t *testing.T) {
	p := NewQueryPipeline(language.English)
	services := fixture()

	t.Run("ALL equals unfiltered text result", func(t *testing.T) {
		for _, text := range []string{"", "g", "o"} {
			all := p.Evaluate(services, model.Query{Text: text, Category: model.CategoryAll})
			unfiltered := p.Evaluate(services, model.Query{Text: text})
			assert.Len(t, all.Services, len(unfiltered.Services), "text %q", text)
		}
	})

	t.Run("Uncategorized returns exactly empty categories", func(t *testing.T) {
		result := p.Evaluate(services, model.Query{Category: model.UncategorizedLabel})
		assert.Equal(t, []string{"Forum", "Netflix"}, names(result.Services))
		for _, s := range result.Services {
			assert.Empty(t, s.Category)
		}
	})

	t.Run("specific category", func(t *testing.T) {
		result := p.Evaluate(services, model.Query{Category: "Dev"})
		assert.Equal(t, []string{"GitHub"}, names(result.Services))
	})

	t.Run("combined with text filter", func(t *testing.T) {
		result := p.Evaluate(services, model.Query{Text: "git", Category: model.UncategorizedLabel})
		assert.Equal(t, []string{"Forum"}, names(result.Services))
	})
}

func TestEvaluate_Sorting(t *testing.T) {
	p := NewQueryPipeline(language.English)

	t.Run("min length nulls first ascending", func(t *testing.T) {
		result := p.Evaluate(fixture(), model.Query{Sort: model.SortState{Key: model.SortByMinLength, Dir: model.SortAsc}})
		assert.Equal(t, []string{"Forum", "Netflix", "GitHub", "Google", "Bank"}, names(result.Services))
	})

	t.Run("max length nulls last descending", func(t *testing.T) {
		result := p.Evaluate(fixture(), model.Query{Sort: model.SortState{Key: model.SortByMaxLength, Dir: model.SortDesc}})
		assert.Equal(t, []string{"Netflix", "Google", "Bank", "Forum", "GitHub"}, names(result.Services))
	})

	t.Run("boolean false first", func(t *testing.T) {
		services := fixture()
		services[2].TwoFactor = true
		result := p.Evaluate(services, model.Query{Sort: model.SortState{Key: model.SortByTwoFactor, Dir: model.SortAsc}})
		assert.Equal(t, "Netflix", result.Services[len(result.Services)-1].Name)
	})

	t.Run("stable for equal keys", func(t *testing.T) {
		result := p.Evaluate(fixture(), model.Query{Sort: model.SortState{Key: model.SortByCategory, Dir: model.SortAsc}})
		// Netflix precedes Forum in store order and both have an empty category.
		assert.Equal(t, []string{"Netflix", "Forum", "GitHub", "Bank", "Google"}, names(result.Services))
	})

	t.Run("unknown key falls back to name", func(t *testing.T) {
		result := p.Evaluate(fixture(), model.Query{Sort: model.SortState{Key: "bogus"}})
		assert.Equal(t, []string{"Bank", "Forum", "GitHub", "Google", "Netflix"}, names(result.Services))
	})
}

func TestEvaluate_LocaleAwareStrings(t *testing.T) {
	p := NewQueryPipeline(language.English)
	services := []model.Service{
		{ID: "1", Name: "Zebra"},
		{ID: "2", Name: "Äpfel"},
		{ID: "3", Name: "banana"},
		{ID: "4", Name: "Apple"},
	}

	result := p.Evaluate(services, model.Query{Sort: model.DefaultSort()})
	// Byte-wise ordering would put "banana" and "Äpfel" after "Zebra".
	assert.Equal(t, []string{"Äpfel", "Apple", "banana", "Zebra"}, names(result.Services))
}

func TestEvaluate_ToggleYieldsExactReverse(t *testing.T) {
	p := NewQueryPipeline(language.English)
	services := fixture()
	// Duplicate keys must also reverse exactly.
	services = append(services, svc("6", "Bank", nil, nil, "", "second bank"))

	for _, key := range []model.SortKey{model.SortByName, model.SortByCategory, model.SortByMinLength} {
		asc := model.SortState{}.Toggle(key)
		require.Equal(t, model.SortAsc, asc.Dir)
		desc := asc.Toggle(key)
		require.Equal(t, model.SortDesc, desc.Dir)

		up := p.Evaluate(services, model.Query{Sort: asc}).Services
		down := p.Evaluate(services, model.Query{Sort: desc}).Services

		reversed := slices.Clone(up)
		slices.Reverse(reversed)
		assert.Equal(t, reversed, down, "key %s", key)
	}
}

func TestSortState_Toggle(t *testing.T) {
	s := model.DefaultSort()
	s = s.Toggle(model.SortByName)
	assert.Equal(t, model.SortState{Key: model.SortByName, Dir: model.SortDesc}, s)

	s = s.Toggle(model.SortByName)
	assert.Equal(t, model.SortState{Key: model.SortByName, Dir: model.SortAsc}, s)

	s = s.Toggle(model.SortByName).Toggle(model.SortByMinLength)
	assert.Equal(t, model.SortState{Key: model.SortByMinLength, Dir: model.SortAsc}, s, "new key resets to ascending")
}

func TestEvaluate_Grouping(t *testing.T) {
	p := NewQueryPipeline(language.English)

	result := p.Evaluate(fixture(), model.Query{
		Grouped: true,
		Sort:    model.SortState{Key: model.SortByName, Dir: model.SortDesc},
	})

	require.Len(t, result.Groups, 4)
	var categories []string
	for _, g := range result.Groups {
		categories = append(categories, g.Category)
	}
	assert.Equal(t, []string{"Dev", "Finance", "Search", model.UncategorizedLabel}, categories)

	uncategorized := result.Groups[3]
	assert.Equal(t, []string{"Netflix", "Forum"}, names(uncategorized.Services), "members keep requested order")
	assert.Len(t, result.Services, 5)
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	p := NewQueryPipeline(language.English)
	services := fixture()
	before := names(services)

	p.Evaluate(services, model.Query{Sort: model.SortState{Key: model.SortByMinLength, Dir: model.SortDesc}, Grouped: true})

	assert.Equal(t, before, names(services))
}

func TestCategories(t *testing.T) {
	p := NewQueryPipeline(language.English)
	assert.Equal(t, []string{"Dev", "Finance", "Search", model.UncategorizedLabel}, p.Categories(fixture()))
	assert.Empty(t, p.Categories(nil))
}
