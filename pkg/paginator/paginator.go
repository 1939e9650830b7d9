// Package paginator splits ordered listings into fixed-size numbered pages.
package paginator

import (
	"strconv"
	"strings"
)

const DefaultPerPage = 10

// Window is the slice of a listing that backs one page.
type Window struct {
	Number   int
	NumPages int
	Offset   int
	Limit    int
}

// Resolve maps a requested page number onto an existing page. Numbers below
// one become the first page, numbers past the end become the last page. An
// empty listing still has one (empty) page.
func Resolve(requested int, count int64, perPage int) Window {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	numPages := int((count + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}

	number := requested
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}

	return Window{
		Number:   number,
		NumPages: numPages,
		Offset:   (number - 1) * perPage,
		Limit:    perPage,
	}
}

// ParseNumber reads the "page" query value. Anything that is not a positive
// integer selects the first page.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

type Page[T any] struct {
	Items       []T   `json:"items"`
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	PerPage     int   `json:"per_page"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

func (p Page[T]) NextNumber() int {
	if !p.HasNext {
		return p.Number
	}
	return p.Number + 1
}

func (p Page[T]) PreviousNumber() int {
	if !p.HasPrevious {
		return p.Number
	}
	return p.Number - 1
}

func NewPage[T any](items []T, w Window, count int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		Number:      w.Number,
		NumPages:    w.NumPages,
		Count:       count,
		PerPage:     w.Limit,
		HasNext:     w.Number < w.NumPages,
		HasPrevious: w.Number > 1,
	}
}

// Fetch counts the listing, resolves the requested page against that count
// and loads exactly the items of that page.
func Fetch[T any](requested, perPage int, count func() (int64, error), list func(offset, limit int) ([]T, error)) (Page[T], error) {
	total, err := count()
	if err != nil {
		return Page[T]{}, err
	}

	w := Resolve(requested, total, perPage)
	if total == 0 {
		return NewPage[T](nil, w, 0), nil
	}

	items, err := list(w.Offset, w.Limit)
	if err != nil {
		return Page[T]{}, err
	}
	return NewPage(items, w, total), nil
}
