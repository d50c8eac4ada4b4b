package extension

import "slices"

// Row is a listing entry with the values of added columns.
type Row[T any] struct {
	Item  T                 `json:"item"`
	Cells map[string]string `json:"cells"`
}

// Listing is a list of repositories or accounts on its way to display.
type Listing[T any] struct {
	// Columns are the columns added by decorators, in the order they
	// were added.
	Columns []string `json:"columns"`
	Rows    []Row[T] `json:"rows"`
}

// NewListing returns a listing of items without extra columns.
func NewListing[T any](items []T) *Listing[T] {
	l := &Listing[T]{Rows: make([]Row[T], len(items))}
	for i, it := range items {
		l.Rows[i] = Row[T]{Item: it, Cells: map[string]string{}}
	}
	return l
}

// Filter removes the rows keep returns false for.
func (l *Listing[T]) Filter(keep func(Row[T]) bool) {
	l.Rows = slices.DeleteFunc(l.Rows, func(r Row[T]) bool {
		return !keep(r)
	})
}

// AddColumn adds a column whose cells are computed by value.
func (l *Listing[T]) AddColumn(name string, value func(T) string) {
	if !slices.Contains(l.Columns, name) {
		l.Columns = append(l.Columns, name)
	}
	for _, r := range l.Rows {
		r.Cells[name] = value(r.Item)
	}
}

// Items returns the listed items.
func (l *Listing[T]) Items() []T {
	items := make([]T, len(l.Rows))
	for i, r := range l.Rows {
		items[i] = r.Item
	}
	return items
}

// ListOptions carries the request-scoped filters of a listing.
type ListOptions struct {
	Filters map[string]string
}

// Filter returns the value of a filter and whether it is set.
func (o ListOptions) Filter(name string) (string, bool) {
	v, ok := o.Filters[name]
	return v, ok && v != ""
}
