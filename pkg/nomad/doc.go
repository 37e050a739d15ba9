// Package nomad is the typed Nomad Cafes API client.
//
// It runs every call through the pkg/client pipeline with the casing
// transport installed, so models use camelCase JSON tags while the backend
// speaks snake_case. Field names in APIError details are camelCase for the
// same reason.
//
// Example usage:
//
//	api, err := nomad.New(client.DefaultConfig("https://api.nomadcafes.app/api"))
//	if err != nil {
//		return err
//	}
//	defer api.Close()
//
//	page, err := api.ListCafes(ctx, nomad.CafeFilter{City: "Berlin", Feature: "wifi"})
package nomad
