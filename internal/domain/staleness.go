package domain

import "time"

type Freshness int

const (
	Fresh Freshness = iota
	Stale
	Missing
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Missing:
		return "missing"
	default:
		return "unknown"
	}
}

// NeedsFetch is true for stale and missing codes.
func (f Freshness) NeedsFetch() bool {
	return f == Stale || f == Missing
}

// Evaluate decides the freshness of record relative to today.
// A record without LastUpdateDay is stale. A LastUpdateDay ahead of today
// only happens under clock skew and counts as fresh.
func Evaluate(record *RateRecord, today time.Time) Freshness {
	if record == nil {
		return Missing
	}
	if record.LastUpdateDay == nil {
		return Stale
	}
	if Day(today).After(Day(*record.LastUpdateDay)) {
		return Stale
	}
	return Fresh
}
