package nomad

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Sternrassler/nomad-cafes-client/pkg/client"
	"github.com/Sternrassler/nomad-cafes-client/pkg/pagination"
)

// CafeFilter holds the list filters of /cafes/. Zero values are omitted.
type CafeFilter struct {
	Search     string
	Category   string
	City       string
	Location   string // location slug
	Feature    string
	PriceMin   int
	PriceMax   int
	RatingMin  float64
	IsFeatured *bool
	Ordering   string // e.g. "-rating_avg"
	Page       int
}

// Values encodes the filter as query parameters.
func (f CafeFilter) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}

	set("search", f.Search)
	set("category", f.Category)
	set("city", f.City)
	set("location", f.Location)
	set("feature", f.Feature)
	set("ordering", f.Ordering)
	if f.PriceMin > 0 {
		v.Set("price_min", strconv.Itoa(f.PriceMin))
	}
	if f.PriceMax > 0 {
		v.Set("price_max", strconv.Itoa(f.PriceMax))
	}
	if f.RatingMin > 0 {
		v.Set("rating_min", strconv.FormatFloat(f.RatingMin, 'f', -1, 64))
	}
	if f.IsFeatured != nil {
		v.Set("is_featured", strconv.FormatBool(*f.IsFeatured))
	}
	if f.Page > 1 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	return v
}

// ListCafes returns one page of cafes.
func (c *Client) ListCafes(ctx context.Context, filter CafeFilter) (*pagination.Page[Cafe], error) {
	return client.DoJSON[*pagination.Page[Cafe]](ctx, c.pipeline, client.Request{
		Method: http.MethodGet,
		Path:   "/cafes/",
		Params: filter.Values(),
	})
}

// ListAllCafes walks every page matching filter. filter.Page is ignored.
// On partial failure the cafes fetched so far are returned with the error.
func (c *Client) ListAllCafes(ctx context.Context, filter CafeFilter, cfg pagination.Config) ([]Cafe, error) {
	fetch := pagination.PageFetcherFunc[Cafe](func(ctx context.Context, page int) (*pagination.Page[Cafe], error) {
		f := filter
		f.Page = page
		return c.ListCafes(ctx, f)
	})

	return pagination.NewBatchFetcher[Cafe](fetch, cfg).FetchAll(ctx)
}

// GetCafe returns the cafe with the given slug.
func (c *Client) GetCafe(ctx context.Context, slug string) (*CafeDetail, error) {
	return client.DoJSON[*CafeDetail](ctx, c.pipeline, client.Request{
		Method: http.MethodGet,
		Path:   "/cafes/" + url.PathEscape(slug) + "/",
	})
}

// PopularCafes returns the top rated cafes.
func (c *Client) PopularCafes(ctx context.Context, limit int) ([]Cafe, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("page_size", strconv.Itoa(limit))
	}

	return client.DoJSON[[]Cafe](ctx, c.pipeline, client.Request{
		Method: http.MethodGet,
		Path:   "/cafes/popular/",
		Params: params,
	})
}

// Metadata returns the allowed categories and features.
func (c *Client) Metadata(ctx context.Context) (*Metadata, error) {
	return client.DoJSON[*Metadata](ctx, c.pipeline, client.Request{
		Method: http.MethodGet,
		Path:   "/cafes/metadata/",
	})
}

// Stats returns the platform counters.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	return client.DoJSON[*Stats](ctx, c.pipeline, client.Request{
		Method: http.MethodGet,
		Path:   "/stats/",
	})
}
