// Package pagination provides parallel batch fetching for the page-number
// paginated list endpoints of the Nomad Cafes API.
//
// List endpoints answer with an envelope of the form
//
//	{"count": 57, "next": ".../cafes/?page=2", "previous": null, "results": [...]}
//
// and accept a "page" query parameter. The batch fetcher:
//   - Fetches the first page to learn the item count and page size
//   - Fetches the remaining pages with bounded concurrency
//   - Returns results in page order
//   - Handles errors gracefully (returns partial data)
//
// Example usage:
//
//	fetcher := pagination.NewBatchFetcher[nomad.Cafe](pageFunc, pagination.DefaultConfig())
//	cafes, err := fetcher.FetchAll(ctx)
package pagination
