package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vm "github.com/ericfisherdev/pwcatalog/internal/adapter/driving/web/viewmodel"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestLayout(t *testing.T) {
	out := render(t, Layout("Pass <Catalog>", templ.Raw("<p>body</p>")))

	assert.Contains(t, out, "<!doctype html>")
	assert.Contains(t, out, "<title>Pass &lt;Catalog&gt;</title>")
	assert.Contains(t, out, `<main class="container"><header class="page-header"><h1>Pass &lt;Catalog&gt;</h1></header><p>body</p></main>`)
}

func TestLayout_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := Layout("Catalog", templ.NopComponent).Render(ctx, &buf)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestCatalogPage_EscapesUserContent(t *testing.T) {
	page := vm.CatalogPageViewModel{
		Title:      "Catalog",
		SearchText: `"><b>`,
		Rows: []vm.ServiceRowViewModel{{
			Name:     "<i>Evil</i>",
			URL:      "javascript:alert(1)",
			Category: "Uncategorized",
		}},
		Total: 1,
		Shown: 1,
	}

	out := render(t, Layout("Catalog", CatalogPage(page)))

	assert.Contains(t, out, "&lt;i&gt;Evil&lt;/i&gt;")
	assert.NotContains(t, out, `href="javascript:`)
	assert.Contains(t, out, `value="&#34;&gt;&lt;b&gt;"`)
	assert.Contains(t, out, "Showing 1 of 1 services")
}

func TestCatalogPage_Alerts(t *testing.T) {
	tests := []struct {
		name    string
		page    vm.CatalogPageViewModel
		want    string
		notWant string
	}{
		{
			name:    "flash",
			page:    vm.CatalogPageViewModel{Flash: "Imported 2 services."},
			want:    `<div role="alert" class="alert alert-info">Imported 2 services.</div>`,
			notWant: "alert-error",
		},
		{
			name:    "error",
			page:    vm.CatalogPageViewModel{Error: "File must contain a JSON array."},
			want:    `<div role="alert" class="alert alert-error">File must contain a JSON array.</div>`,
			notWant: "alert-info",
		},
		{
			name:    "none",
			page:    vm.CatalogPageViewModel{},
			notWant: `role="alert"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, CatalogPage(tt.page))
			if tt.want != "" {
				assert.Contains(t, out, tt.want)
			}
			assert.NotContains(t, out, tt.notWant)
		})
	}
}

func TestCatalogPage_EditableTable(t *testing.T) {
	page := vm.CatalogPageViewModel{
		CSRFToken:   "tok",
		ReturnQuery: "q=git",
		Headers: []vm.SortHeaderViewModel{
			{Label: "Service", Href: "/?dir=desc", Active: true},
			{Label: "Min", Href: "/?sort=minLength"},
		},
		Rows: []vm.ServiceRowViewModel{{
			Name:       "GitHub",
			URL:        "https://github.com",
			MinLength:  "8",
			TwoFactor:  true,
			Category:   "Dev",
			NotesHTML:  "<p><strong>2FA</strong></p>",
			Icon:       "🐙",
			Color:      "#333",
			EditPath:   "/services/gh/edit",
			DeletePath: "/services/gh/delete",
		}},
		Form:  vm.FormViewModel{Action: "/services?q=git", SubmitLabel: "Add service"},
		Total: 1,
		Shown: 1,
	}

	out := render(t, CatalogPage(page))

	assert.Contains(t, out, `<th scope="col" aria-sort="ascending"><a href="/?dir=desc">Service &#9650;</a></th>`)
	assert.Contains(t, out, `<th scope="col"><a href="/?sort=minLength">Min </a></th>`)
	assert.Contains(t, out, `<span class="icon" aria-hidden="true" style="background:#333;">🐙</span> GitHub`)
	assert.Contains(t, out, `<span class="badge yes">Yes</span>`)
	assert.Contains(t, out, `<span class="badge no">No</span>`)
	assert.Contains(t, out, "<p><strong>2FA</strong></p>", "notes are pre-sanitized HTML")
	assert.Contains(t, out, `href="/services/gh/edit?q=git"`)
	assert.Contains(t, out, `action="/services/gh/delete?q=git"`)
	assert.Contains(t, out, `<input type="hidden" name="csrf_token" value="tok">`)
	assert.Contains(t, out, `action="/services?q=git"`)
	assert.Contains(t, out, `action="/import"`)
	assert.NotContains(t, out, `class="card"`)
}

func TestCatalogPage_EmptyTable(t *testing.T) {
	out := render(t, CatalogPage(vm.CatalogPageViewModel{}))

	assert.Contains(t, out, `<p class="empty">No services match.</p>`)
	assert.NotContains(t, out, "<table")
	assert.NotContains(t, out, `name="csrf_token"`, "hidden fields are omitted without a token")
	assert.NotContains(t, out, `name="sort"`)
}

func TestCatalogPage_Chips(t *testing.T) {
	page := vm.CatalogPageViewModel{
		Chips: []vm.CategoryChipViewModel{
			{Label: "ALL", Href: "/"},
			{Label: "Dev", Href: "/?category=Dev", Active: true},
		},
	}

	out := render(t, CatalogPage(page))

	assert.Contains(t, out, `<a href="/" class="chip">ALL</a>`)
	assert.Contains(t, out, `<a href="/?category=Dev" class="chip active" aria-current="true">Dev</a>`)
}

func TestCatalogPage_ViewerCards(t *testing.T) {
	page := vm.CatalogPageViewModel{
		ReadOnly: true,
		Groups: []vm.GroupViewModel{{
			Category: "Search",
			Rows: []vm.ServiceRowViewModel{
				{Name: "Google", URL: "https://google.com", MinLength: "8", MaxLength: "100", Passkey: true, Color: "#4285f4"},
				{Name: "Bank", MinLength: "12", AllowedSpecials: "!@#"},
				{Name: "Legacy", MaxLength: "16", OtherRequirements: "No spaces"},
			},
		}},
	}

	out := render(t, CatalogPage(page))

	assert.Contains(t, out, `<section class="group"><h2>Search</h2><div class="cards">`)
	assert.Contains(t, out, `<article class="card" style="border-top-color:#4285f4;"><h3><a rel="noopener noreferrer" target="_blank" href="https://google.com">Google</a></h3>`)
	assert.Contains(t, out, `<p class="lengths">Length 8–100</p>`)
	assert.Contains(t, out, `<p class="lengths">Length ≥ 12</p>`)
	assert.Contains(t, out, `<p class="lengths">Length ≤ 16</p>`)
	assert.Contains(t, out, `<span class="badge yes">Passkey</span>`)
	assert.Contains(t, out, `<p>Specials: <code>!@#</code></p>`)
	assert.Contains(t, out, `<p>No spaces</p>`)
	assert.Contains(t, out, `<article class="card"><h3>Bank</h3>`)
	assert.NotContains(t, out, "<table")
	assert.NotContains(t, out, `action="/import"`)
}

func TestEditPage(t *testing.T) {
	page := vm.EditPageViewModel{
		CSRFToken: "tok",
		Form: vm.FormViewModel{
			Action:      "/services/gh",
			SubmitLabel: "Save changes",
			CancelPath:  "/",
			Error:       "Please enter a service name.",
			Name:        "Git<Hub>",
			MinLength:   "8",
			Notes:       "keep </textarea> safe",
			Passkey:     true,
		},
	}

	out := render(t, EditPage(page))

	assert.Contains(t, out, "<h2>Edit Git&lt;Hub&gt;</h2>")
	assert.Contains(t, out, `<form method="post" class="service-form" action="/services/gh">`)
	assert.Contains(t, out, `<p class="field-error" role="alert">Please enter a service name.</p>`)
	assert.Contains(t, out, `<label>Name<input type="text" name="name" value="Git&lt;Hub&gt;" required></label>`)
	assert.Contains(t, out, `<label>URL<input type="text" name="url" value=""></label>`)
	assert.Contains(t, out, `<input type="number" min="1" step="1" name="minLength" value="8" required>`)
	assert.Contains(t, out, `<input type="number" min="1" step="1" name="maxLength" value="">`)
	assert.Contains(t, out, `<textarea name="notes" rows="3">keep &lt;/textarea&gt; safe</textarea>`)
	assert.Contains(t, out, `<label class="check"><input type="checkbox" name="twoFactor"> Two-factor</label>`)
	assert.Contains(t, out, `<label class="check"><input type="checkbox" name="passkey" checked> Passkey</label>`)
	assert.Contains(t, out, `<button type="submit">Save changes</button> <a class="button secondary" href="/">Cancel</a>`)
}
