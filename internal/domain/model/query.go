package model

// SortState is the current sort column and direction.
type SortState struct {
	Key SortKey
	Dir SortDir
}

// DefaultSort sorts by name ascending.
func DefaultSort() SortState {
	return SortState{Key: SortByName, Dir: SortAsc}
}

// Toggle returns the state after the user selects key: selecting the current
// key flips the direction, any other key starts ascending.
func (s SortState) Toggle(key SortKey) SortState {
	if s.Key == key {
		if s.Dir == SortAsc {
			return SortState{Key: key, Dir: SortDesc}
		}
		return SortState{Key: key, Dir: SortAsc}
	}
	return SortState{Key: key, Dir: SortAsc}
}

// Query describes one evaluation of the query pipeline.
type Query struct {
	Text     string
	Category string
	Sort     SortState
	Grouped  bool
}

// Group is a category bucket of services in display order.
type Group struct {
	Category string
	Services []Service
}

// QueryResult is the ordered output of the query pipeline. Groups is only
// populated for grouped queries.
type QueryResult struct {
	Services []Service
	Groups   []Group
}
