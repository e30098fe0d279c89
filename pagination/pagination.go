// Package pagination partitions a slice into fixed-size pages. Out-of-range
// page numbers are corrected silently: below one resolves to the first page,
// past the end resolves to the last.
package pagination

type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Count    int // total items across all pages
	PerPage  int
}

// Paginate returns the requested page of items. A slice with no items still
// yields one (empty) page so callers can always render page 1 of 1.
func Paginate[T any](items []T, number, perPage int) Page[T] {
	count := len(items)

	numPages := (count + perPage - 1) / perPage
	if numPages < 1 {
		numPages = 1
	}

	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}

	start := (number - 1) * perPage
	end := start + perPage
	if start > count {
		start = count
	}
	if end > count {
		end = count
	}

	return Page[T]{
		Items:    items[start:end],
		Number:   number,
		NumPages: numPages,
		Count:    count,
		PerPage:  perPage,
	}
}

func (p Page[T]) HasPrevious() bool {
	return p.Number > 1
}

func (p Page[T]) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page[T]) PreviousPageNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

func (p Page[T]) NextPageNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}
