// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// ServiceRowViewModel holds presentation-ready data for one service, used by
// both the editable table row and the viewer card.
type ServiceRowViewModel struct {
	ID                string
	Name              string
	URL               string
	MinLength         string // empty when the policy sets no minimum
	MaxLength         string
	AllowedSpecials   string
	OtherRequirements string
	NotesHTML         string // sanitized markdown
	TwoFactor         bool
	Passkey           bool
	Category          string // display label, never empty
	Icon              string
	Color             string // CSS color, empty when unset or unsafe
	EditPath          string
	DeletePath        string
}

// SortHeaderViewModel is one clickable column header of the editable table.
type SortHeaderViewModel struct {
	Label  string
	Href   string
	Active bool
	Desc   bool
}

// CategoryChipViewModel is one category filter chip.
type CategoryChipViewModel struct {
	Label  string
	Href   string
	Active bool
}

// GroupViewModel is a category section of the viewer card grid.
type GroupViewModel struct {
	Category string
	Rows     []ServiceRowViewModel
}

// FormViewModel holds the raw values of the add/edit form so a rejected
// submission can be re-rendered exactly as the user typed it.
type FormViewModel struct {
	Action      string
	SubmitLabel string
	CancelPath  string
	Error       string

	Name              string
	URL               string
	MinLength         string
	MaxLength         string
	AllowedSpecials   string
	OtherRequirements string
	Notes             string
	TwoFactor         bool
	Passkey           bool
	Category          string
	Icon              string
	Color             string
}

// CatalogPageViewModel holds everything the index page renders.
type CatalogPageViewModel struct {
	Title     string
	ReadOnly  bool
	CSRFToken string

	// ReturnQuery is the encoded current query, carried through forms so
	// redirects land on the same view.
	ReturnQuery string

	SearchText string
	Category   string
	SortKey    string
	SortDir    string

	Chips   []CategoryChipViewModel
	Headers []SortHeaderViewModel
	Rows    []ServiceRowViewModel
	Groups  []GroupViewModel

	Total int
	Shown int

	Form  FormViewModel
	Flash string
	Error string
}

// EditPageViewModel holds the data for the single-service edit page.
type EditPageViewModel struct {
	Title     string
	CSRFToken string
	Form      FormViewModel
}
