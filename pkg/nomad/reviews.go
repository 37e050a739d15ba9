package nomad

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Sternrassler/nomad-cafes-client/pkg/client"
	"github.com/Sternrassler/nomad-cafes-client/pkg/pagination"
)

func reviewsPath(slug string) string {
	return "/cafes/" + url.PathEscape(slug) + "/reviews/"
}

// ListReviews returns one page of a cafe's reviews.
func (c *Client) ListReviews(ctx context.Context, slug string, page int) (*pagination.Page[Review], error) {
	params := url.Values{}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}

	return client.DoJSON[*pagination.Page[Review]](ctx, c.pipeline, client.Request{
		Method: http.MethodGet,
		Path:   reviewsPath(slug),
		Params: params,
	})
}

func reviewPath(slug, id string) string {
	return reviewsPath(slug) + url.PathEscape(id) + "/"
}

// CreateReview posts a review. The cafe's cached detail, reviews and the
// cafe list are invalidated since ratings change.
func (c *Client) CreateReview(ctx context.Context, slug string, review ReviewCreate) (*Review, error) {
	created, err := client.DoJSON[*Review](ctx, c.pipeline, client.Request{
		Method: http.MethodPost,
		Path:   reviewsPath(slug),
		Body:   review,
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, "/cafes/", "/reviews/")
	return created, nil
}

// UpdateReview changes the given fields of one of the user's reviews.
func (c *Client) UpdateReview(ctx context.Context, slug, id string, update ReviewUpdate) (*Review, error) {
	updated, err := client.DoJSON[*Review](ctx, c.pipeline, client.Request{
		Method: http.MethodPatch,
		Path:   reviewPath(slug, id),
		Body:   update,
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, "/cafes/", "/reviews/")
	return updated, nil
}

// DeleteReview removes one of the user's reviews.
func (c *Client) DeleteReview(ctx context.Context, slug, id string) error {
	if _, err := c.pipeline.Delete(ctx, reviewPath(slug, id)); err != nil {
		return err
	}

	c.invalidate(ctx, "/cafes/", "/reviews/")
	return nil
}

// MyReviews returns one page of the current user's reviews, newest first.
func (c *Client) MyReviews(ctx context.Context, page int) (*pagination.Page[UserReview], error) {
	params := url.Values{}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}

	return client.DoJSON[*pagination.Page[UserReview]](ctx, c.pipeline, client.Request{
		Method: http.MethodGet,
		Path:   "/reviews/me/",
		Params: params,
	})
}
