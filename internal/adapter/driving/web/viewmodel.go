package web

import (
	"net/url"
	"strconv"
	"strings"

	vm "github.com/ericfisherdev/pwcatalog/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/pwcatalog/internal/application"
	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

// columns are the sortable table columns in display order.
var columns = []struct {
	key   model.SortKey
	label string
}{
	{model.SortByName, "Service"},
	{model.SortByURL, "URL"},
	{model.SortByMinLength, "Min"},
	{model.SortByMaxLength, "Max"},
	{model.SortByTwoFactor, "2FA"},
	{model.SortByPasskey, "Passkey"},
	{model.SortByCategory, "Category"},
	{model.SortByNotes, "Notes"},
}

// toServiceRowViewModel converts a domain Service to its row/card view model.
func toServiceRowViewModel(svc model.Service) vm.ServiceRowViewModel {
	return vm.ServiceRowViewModel{
		ID:                svc.ID,
		Name:              svc.Name,
		URL:               svc.URL,
		MinLength:         formatLength(svc.MinLength),
		MaxLength:         formatLength(svc.MaxLength),
		AllowedSpecials:   svc.AllowedSpecials,
		OtherRequirements: svc.OtherRequirements,
		NotesHTML:         RenderMarkdown(svc.Notes),
		TwoFactor:         svc.TwoFactor,
		Passkey:           svc.Passkey,
		Category:          svc.CategoryLabel(),
		Icon:              svc.Icon,
		Color:             cssColor(svc.Color),
		EditPath:          "/services/" + url.PathEscape(svc.ID) + "/edit",
		DeletePath:        "/services/" + url.PathEscape(svc.ID) + "/delete",
	}
}

func toServiceRows(services []model.Service) []vm.ServiceRowViewModel {
	rows := make([]vm.ServiceRowViewModel, 0, len(services))
	for _, svc := range services {
		rows = append(rows, toServiceRowViewModel(svc))
	}
	return rows
}

// cssColor returns s when every character is valid in a CSS color value, and
// "" otherwise.
func cssColor(s string) string {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("#(),.% ", r):
		default:
			return ""
		}
	}
	return s
}

func formatLength(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// newServiceForm returns the empty add form.
func newServiceForm(returnQuery string) vm.FormViewModel {
	return vm.FormViewModel{
		Action:      withQuery("/services", returnQuery),
		SubmitLabel: "Add service",
	}
}

// toEditFormViewModel pre-fills the edit form from a stored service.
func toEditFormViewModel(svc model.Service, returnQuery string) vm.FormViewModel {
	return vm.FormViewModel{
		Action:            withQuery("/services/"+url.PathEscape(svc.ID), returnQuery),
		SubmitLabel:       "Save changes",
		CancelPath:        withQuery("/", returnQuery),
		Name:              svc.Name,
		URL:               svc.URL,
		MinLength:         formatLength(svc.MinLength),
		MaxLength:         formatLength(svc.MaxLength),
		AllowedSpecials:   svc.AllowedSpecials,
		OtherRequirements: svc.OtherRequirements,
		Notes:             svc.Notes,
		TwoFactor:         svc.TwoFactor,
		Passkey:           svc.Passkey,
		Category:          svc.Category,
		Icon:              svc.Icon,
		Color:             svc.Color,
	}
}

// refillForm copies submitted values back into form so a rejected
// submission keeps what the user typed.
func refillForm(form vm.FormViewModel, values url.Values, message string) vm.FormViewModel {
	form.Error = message
	form.Name = values.Get("name")
	form.URL = values.Get("url")
	form.MinLength = values.Get("minLength")
	form.MaxLength = values.Get("maxLength")
	form.AllowedSpecials = values.Get("allowedSpecials")
	form.OtherRequirements = values.Get("otherRequirements")
	form.Notes = values.Get("notes")
	form.TwoFactor = values.Get("twoFactor") != ""
	form.Passkey = values.Get("passkey") != ""
	form.Category = values.Get("category")
	form.Icon = values.Get("icon")
	form.Color = values.Get("color")
	return form
}

// toCatalogPageViewModel assembles the index page for q.
func toCatalogPageViewModel(
	title string,
	readOnly bool,
	q model.Query,
	result model.QueryResult,
	categories []string,
	total int,
) vm.CatalogPageViewModel {
	returnQuery := application.Values(q).Encode()

	page := vm.CatalogPageViewModel{
		Title:       title,
		ReadOnly:    readOnly,
		ReturnQuery: returnQuery,
		SearchText:  q.Text,
		Category:    q.Category,
		SortKey:     string(q.Sort.Key),
		SortDir:     string(q.Sort.Dir),
		Chips:       toCategoryChips(q, categories),
		Headers:     toSortHeaders(q),
		Rows:        toServiceRows(result.Services),
		Total:       total,
		Shown:       len(result.Services),
		Form:        newServiceForm(returnQuery),
	}

	for _, g := range result.Groups {
		page.Groups = append(page.Groups, vm.GroupViewModel{
			Category: g.Category,
			Rows:     toServiceRows(g.Services),
		})
	}

	return page
}

// toSortHeaders builds header links whose target is the sort state after
// clicking them.
func toSortHeaders(q model.Query) []vm.SortHeaderViewModel {
	headers := make([]vm.SortHeaderViewModel, 0, len(columns))
	for _, col := range columns {
		next := q
		next.Sort = q.Sort.Toggle(col.key)
		headers = append(headers, vm.SortHeaderViewModel{
			Label:  col.label,
			Href:   withQuery("/", application.Values(next).Encode()),
			Active: q.Sort.Key == col.key,
			Desc:   q.Sort.Key == col.key && q.Sort.Dir == model.SortDesc,
		})
	}
	return headers
}

// toCategoryChips builds the ALL chip followed by one chip per category.
func toCategoryChips(q model.Query, categories []string) []vm.CategoryChipViewModel {
	labels := append([]string{model.CategoryAll}, categories...)
	active := q.Category
	if active == "" {
		active = model.CategoryAll
	}

	chips := make([]vm.CategoryChipViewModel, 0, len(labels))
	for _, label := range labels {
		next := q
		next.Category = label
		chips = append(chips, vm.CategoryChipViewModel{
			Label:  label,
			Href:   withQuery("/", application.Values(next).Encode()),
			Active: label == active,
		})
	}
	return chips
}

func withQuery(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}
