// Package domain contains the core business entities and interfaces.
package domain

import "context"

// TagWeight is the Health Planet classification code for body weight.
const TagWeight = "6021"

// WeightRecord is a single normalized weight measurement.
type WeightRecord struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}

// DateRange bounds a fetch. Both ends are YYYYMMDDHHmmss strings and are
// passed to the provider as given.
type DateRange struct {
	From string
	To   string
}

// WeightSource is the port for reading weight measurements from a remote
// provider. Records are returned oldest first.
type WeightSource interface {
	FetchWeights(ctx context.Context, r DateRange) ([]WeightRecord, error)
}
