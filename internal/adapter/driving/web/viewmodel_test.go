package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

func TestToServiceRowViewModel(t *testing.T) {
	row := toServiceRowViewModel(model.Service{
		ID:        "a b",
		Name:      "GitHub",
		MinLength: model.IntPtr(8),
		Notes:     "_long_ passphrases",
	})

	assert.Equal(t, "8", row.MinLength)
	assert.Empty(t, row.MaxLength)
	assert.Equal(t, model.UncategorizedLabel, row.Category)
	assert.Contains(t, row.NotesHTML, "<em>long</em>")
	assert.Equal(t, "/services/a%20b/edit", row.EditPath)
	assert.Equal(t, "/services/a%20b/delete", row.DeletePath)
}

func TestToSortHeaders(t *testing.T) {
	q := model.Query{Text: "bank", Sort: model.SortState{Key: model.SortByMinLength, Dir: model.SortAsc}}

	headers := toSortHeaders(q)
	require.Len(t, headers, len(columns))

	byLabel := map[string]string{}
	for _, h := range headers {
		byLabel[h.Label] = h.Href
		assert.Equal(t, h.Label == "Min", h.Active, h.Label)
		assert.False(t, h.Desc)
	}

	assert.Equal(t, "/?dir=desc&q=bank&sort=minLength", byLabel["Min"])
	assert.Equal(t, "/?q=bank", byLabel["Service"])
	assert.Equal(t, "/?q=bank&sort=twoFactor", byLabel["2FA"])
}

func TestToCategoryChips(t *testing.T) {
	q := model.Query{Category: "Dev", Sort: model.DefaultSort()}

	chips := toCategoryChips(q, []string{"Dev", model.UncategorizedLabel})
	require.Len(t, chips, 3)

	assert.Equal(t, model.CategoryAll, chips[0].Label)
	assert.Equal(t, "/", chips[0].Href)
	assert.False(t, chips[0].Active)

	assert.True(t, chips[1].Active)
	assert.Equal(t, "/?category=Dev", chips[1].Href)
	assert.Equal(t, "/?category=Uncategorized", chips[2].Href)
}

func TestRefillForm(t *testing.T) {
	form := refillForm(newServiceForm(""), map[string][]string{
		"name":      {"Bank"},
		"minLength": {"abc"},
		"passkey":   {"on"},
	}, "Minimum length is required.")

	assert.Equal(t, "/services", form.Action)
	assert.Equal(t, "Minimum length is required.", form.Error)
	assert.Equal(t, "Bank", form.Name)
	assert.Equal(t, "abc", form.MinLength)
	assert.True(t, form.Passkey)
	assert.False(t, form.TwoFactor)
}

func TestCSSColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#4285f4", "#4285f4"},
		{"rebeccapurple", "rebeccapurple"},
		{"rgb(10, 20, 30)", "rgb(10, 20, 30)"},
		{"red;background:url(x)", ""},
		{`"><script>`, ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cssColor(tt.in), tt.in)
	}

	row := toServiceRowViewModel(model.Service{Name: "X", Color: "red;display:none"})
	assert.Empty(t, row.Color)
}
