package nomad

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Sternrassler/nomad-cafes-client/pkg/client"
	"github.com/Sternrassler/nomad-cafes-client/pkg/pagination"
)

// LocationFilter holds the list filters of /locations/. Zero values are omitted.
type LocationFilter struct {
	Search     string
	Country    string
	IsFeatured *bool
	HasCafes   bool
	Ordering   string // e.g. "name", "-cafe_count"
	Page       int
}

// Values encodes the filter as query parameters.
func (f LocationFilter) Values() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Country != "" {
		v.Set("country", f.Country)
	}
	if f.IsFeatured != nil {
		v.Set("is_featured", strconv.FormatBool(*f.IsFeatured))
	}
	if f.HasCafes {
		v.Set("has_cafes", "true")
	}
	if f.Ordering != "" {
		v.Set("ordering", f.Ordering)
	}
	if f.Page > 1 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	return v
}

// ListLocations returns one page of locations, most cafes first unless
// filter.Ordering says otherwise.
func (c *Client) ListLocations(ctx context.Context, filter LocationFilter) (*pagination.Page[Location], error) {
	return client.DoJSON[*pagination.Page[Location]](ctx, c.pipeline, client.Request{
		Method: http.MethodGet,
		Path:   "/locations/",
		Params: filter.Values(),
	})
}

// GetLocation returns the location with the given slug.
func (c *Client) GetLocation(ctx context.Context, slug string) (*Location, error) {
	return client.DoJSON[*Location](ctx, c.pipeline, client.Request{
		Method: http.MethodGet,
		Path:   "/locations/" + url.PathEscape(slug) + "/",
	})
}

// TrendingLocations returns featured locations with the most cafes. The
// backend default applies when limit is zero.
func (c *Client) TrendingLocations(ctx context.Context, limit int) ([]Location, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	return client.DoJSON[[]Location](ctx, c.pipeline, client.Request{
		Method: http.MethodGet,
		Path:   "/locations/trending/",
		Params: params,
	})
}
