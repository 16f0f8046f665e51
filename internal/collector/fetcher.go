package collector

import (
	"context"
	"errors"
	"time"

	"MervalSentinel/internal/model"
)

// ErrNoData reports a structurally empty response from a provider.
var ErrNoData = errors.New("no data returned")

// BarsRequest asks a provider for a raw series. A non-empty Range ("1d",
// "5d", "1mo") is a lookback window ending now and takes precedence over
// From/To.
type BarsRequest struct {
	Symbol      string
	From        time.Time
	To          time.Time
	Range       string
	Granularity model.Granularity
	Adjusted    bool
}

// RawSeries is the provider's tabular output. Column entries are nil where
// the provider had no value.
type RawSeries struct {
	Symbol     string
	Timestamps []time.Time
	Open       []*float64
	High       []*float64
	Low        []*float64
	Close      []*float64
	Volume     []*float64
}

// Len returns the number of rows.
func (r *RawSeries) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Timestamps)
}

// SearchHit is one result of a provider search.
type SearchHit struct {
	Symbol    string
	ShortName string
	LongName  string
	Exchange  string
	QuoteType string
}

// Provider is the upstream market-data capability. Implementations enforce
// their own timeouts.
type Provider interface {
	Bars(ctx context.Context, req BarsRequest) (*RawSeries, error)
	Metadata(ctx context.Context, symbol string) (map[string]string, error)
	Search(ctx context.Context, query string) ([]SearchHit, error)
	Name() string
}
