package nomad

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Sternrassler/nomad-cafes-client/pkg/client"
	"github.com/Sternrassler/nomad-cafes-client/pkg/pagination"
)

// ListFavorites returns one page of the current user's favorites.
func (c *Client) ListFavorites(ctx context.Context, page int) (*pagination.Page[Favorite], error) {
	params := url.Values{}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}

	return client.DoJSON[*pagination.Page[Favorite]](ctx, c.pipeline, client.Request{
		Method: http.MethodGet,
		Path:   "/favorites/",
		Params: params,
	})
}

// IsFavorited reports whether the current user saved the cafe.
func (c *Client) IsFavorited(ctx context.Context, cafeID string) (bool, error) {
	check, err := client.DoJSON[favoriteCheck](ctx, c.pipeline, client.Request{
		Method: http.MethodGet,
		Path:   "/favorites/" + url.PathEscape(cafeID) + "/",
	})
	if err != nil {
		return false, err
	}
	return check.IsFavorited, nil
}

// AddFavorite saves a cafe for the current user.
func (c *Client) AddFavorite(ctx context.Context, cafeID string) (*Favorite, error) {
	fav, err := client.DoJSON[*Favorite](ctx, c.pipeline, client.Request{
		Method: http.MethodPost,
		Path:   "/favorites/",
		Body:   favoriteRequest{CafeID: cafeID},
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, "/favorites/", "/cafes/")
	return fav, nil
}

// RemoveFavorite removes a saved cafe.
func (c *Client) RemoveFavorite(ctx context.Context, cafeID string) error {
	if _, err := c.pipeline.Delete(ctx, "/favorites/"+url.PathEscape(cafeID)+"/"); err != nil {
		return err
	}

	c.invalidate(ctx, "/favorites/", "/cafes/")
	return nil
}
