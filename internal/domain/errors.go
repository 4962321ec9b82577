package domain

import "errors"

var (
	ErrRateNotFound  = errors.New("rate not found")
	ErrStoreRead     = errors.New("rate store read failed")
	ErrStoreWrite    = errors.New("rate store write failed")
	ErrFetch         = errors.New("upstream rate fetch failed")
	ErrMalformedRate = errors.New("malformed rate entry")
)
