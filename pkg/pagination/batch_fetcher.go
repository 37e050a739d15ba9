package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
	// MaxPages stops the walk early (0 = no limit).
	MaxPages int
}

// DefaultConfig returns a configuration that stays well below the backend's
// throttling limits.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// PageFetcher fetches a single page.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, page int) (*Page[T], error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc[T any] func(ctx context.Context, page int) (*Page[T], error)

// FetchPage implements PageFetcher.
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, page int) (*Page[T], error) {
	return f(ctx, page)
}

// BatchFetcher handles parallel fetching of all pages of a list.
type BatchFetcher[T any] struct {
	fetcher PageFetcher[T]
	config  Config
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher[T any](fetcher PageFetcher[T], config Config) *BatchFetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &BatchFetcher[T]{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAll fetches every page and returns the items in page order.
// When some pages fail, the items of the successful pages are returned
// together with an error.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context) ([]T, error) {
	start := time.Now()

	first, err := bf.fetchPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}

	if !first.HasNext() {
		return first.Results, nil
	}

	totalPages := first.TotalPages()
	if bf.config.MaxPages > 0 && totalPages > bf.config.MaxPages {
		totalPages = bf.config.MaxPages
	}

	log.Debug().
		Int("count", first.Count).
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	pages := make([][]T, totalPages)
	pages[0] = first.Results

	var (
		mu       sync.Mutex
		failed   int
		firstErr error
	)

	var g errgroup.Group
	g.SetLimit(bf.config.MaxConcurrency)

	for page := 2; page <= totalPages; page++ {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			result, err := bf.fetchPage(ctx, page)
			if err != nil {
				log.Warn().Err(err).Int("page", page).Msg("Page fetch failed")

				mu.Lock()
				failed++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}

			pages[page-1] = result.Results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return flatten(pages), fmt.Errorf("fetch pages: %w", err)
	}

	if firstErr != nil {
		return flatten(pages), fmt.Errorf("partial data (%d/%d pages): %w", totalPages-failed, totalPages, firstErr)
	}

	log.Debug().
		Int("pages", totalPages).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return flatten(pages), nil
}

func (bf *BatchFetcher[T]) fetchPage(ctx context.Context, page int) (*Page[T], error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	result, err := bf.fetcher.FetchPage(pageCtx, page)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("page %d: empty response", page)
	}
	return result, nil
}

func flatten[T any](pages [][]T) []T {
	n := 0
	for _, p := range pages {
		n += len(p)
	}

	out := make([]T, 0, n)
	for _, p := range pages {
		out = append(out, p...)
	}
	return out
}
