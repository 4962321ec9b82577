package domain

import "context"

// RateQuotes maps currency code to the provider rate. Codes the provider
// omitted or sent malformed are absent.
type RateQuotes map[string]float64

type RateProvider interface {
	// FetchAll performs a single batched upstream request for codes.
	FetchAll(ctx context.Context, codes []string) (RateQuotes, error)
	GetName() string
}
