package pagination

import (
	"net/url"
	"strconv"
)

// DefaultPageSize is the backend's page size.
const DefaultPageSize = 20

// Page is one page of a list endpoint.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether another page follows.
func (p *Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

// NextPage returns the page number of the next link.
func (p *Page[T]) NextPage() (int, bool) {
	if !p.HasNext() {
		return 0, false
	}
	return PageNumber(*p.Next)
}

// TotalPages derives the number of pages from Count and the size of this
// page. Only meaningful for the first page.
func (p *Page[T]) TotalPages() int {
	size := len(p.Results)
	if size == 0 || p.Count <= size {
		return 1
	}
	return (p.Count + size - 1) / size
}

// PageNumber extracts the "page" query parameter of a pagination link.
// Links without the parameter point at page 1.
func PageNumber(link string) (int, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return 0, false
	}

	raw := u.Query().Get("page")
	if raw == "" {
		return 1, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
