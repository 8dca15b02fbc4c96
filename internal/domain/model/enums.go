package model

// UncategorizedLabel is the display-only group for services without a category.
const UncategorizedLabel = "Uncategorized"

// CategoryAll is the category filter value that matches every service.
const CategoryAll = "ALL"

// SortKey names a sortable Service field.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByURL       SortKey = "url"
	SortByCategory  SortKey = "category"
	SortByNotes     SortKey = "notes"
	SortByMinLength SortKey = "minLength"
	SortByMaxLength SortKey = "maxLength"
	SortByTwoFactor SortKey = "twoFactor"
	SortByPasskey   SortKey = "passkey"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortByName, SortByURL, SortByCategory, SortByNotes,
		SortByMinLength, SortByMaxLength, SortByTwoFactor, SortByPasskey:
		return true
	}
	return false
}

// SortDir is the direction of a sort.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// CatalogMode selects between the editable catalog and the read-only viewer.
type CatalogMode string

const (
	ModeEditable CatalogMode = "editable"
	ModeViewer   CatalogMode = "viewer"
)
