package model

import (
	"encoding/json"
	"math"
	"time"
)

// Returns holds the per-series return statistics, all in percent.
type Returns struct {
	TotalPct      float64 `json:"totalReturnPct"`
	AnnualizedPct float64 `json:"annualizedReturnPct"`
	VolatilityPct float64 `json:"volatilityPct"`
}

// AnalyticsSummary is the per-symbol comparison row. The descriptive fields
// are set only when the instrument could be resolved.
type AnalyticsSummary struct {
	Returns
	MaxPrice    float64    `json:"maxPrice"`
	MinPrice    float64    `json:"minPrice"`
	LastPrice   float64    `json:"lastPrice"`
	AvgVolume   float64    `json:"avgVolume"`
	SampleCount int        `json:"sampleCount"`
	DisplayName string     `json:"displayName,omitempty"`
	AssetType   *AssetType `json:"assetType,omitempty"`
	Market      *Market    `json:"market,omitempty"`
	Currency    *Currency  `json:"currency,omitempty"`
}

// IndexSummary is an AnalyticsSummary with the index's last value.
type IndexSummary struct {
	AnalyticsSummary
	LastValue float64 `json:"lastValue"`
}

// Ratios are the risk-adjusted statistics of a series.
type Ratios struct {
	AnnualizedReturnPct     float64 `json:"annualizedReturnPct"`
	AnnualizedVolatilityPct float64 `json:"annualizedVolatilityPct"`
	Sharpe                  float64 `json:"sharpe"`
	Sortino                 float64 `json:"sortino"`
	MaxDrawdownPct          float64 `json:"maxDrawdownPct"`
}

// CorrelationMatrix is a square matrix over Symbols. Values[i][j] is NaN
// when the pair has no defined correlation.
type CorrelationMatrix struct {
	Symbols []string
	Values  [][]float64
}

// At returns the correlation of a and b; ok is false if either symbol is absent.
func (m *CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

// Sub returns the matrix restricted to the first n symbols.
func (m *CorrelationMatrix) Sub(n int) *CorrelationMatrix {
	if n >= len(m.Symbols) {
		return m
	}
	out := &CorrelationMatrix{Symbols: m.Symbols[:n], Values: make([][]float64, n)}
	for i := 0; i < n; i++ {
		out.Values[i] = m.Values[i][:n]
	}
	return out
}

func (m *CorrelationMatrix) index(sym string) int {
	for i, s := range m.Symbols {
		if s == sym {
			return i
		}
	}
	return -1
}

// MarshalJSON renders a nested symbol -> symbol -> value object, undefined
// correlations as null.
func (m *CorrelationMatrix) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]*float64, len(m.Symbols))
	for i, a := range m.Symbols {
		row := make(map[string]*float64, len(m.Symbols))
		for j, b := range m.Symbols {
			v := m.Values[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row[b] = nil
				continue
			}
			row[b] = &v
		}
		out[a] = row
	}
	return json.Marshal(out)
}

// Performer is one entry of the ranked leaders list.
type Performer struct {
	Symbol         string  `json:"symbol"`
	TotalReturnPct float64 `json:"totalReturnPct"`
}

// MarketReport is the composed market snapshot.
type MarketReport struct {
	ID                string                      `json:"id"`
	GeneratedAt       time.Time                   `json:"generatedAt"`
	PeriodFrom        time.Time                   `json:"periodFrom"`
	PeriodTo          time.Time                   `json:"periodTo"`
	Benchmark         string                      `json:"benchmark"`
	Indices           map[string]IndexSummary     `json:"indices"`
	Leaders           map[string]AnalyticsSummary `json:"leaders"`
	Betas             map[string]float64          `json:"betas"`
	CorrelationMatrix *CorrelationMatrix          `json:"correlationMatrix"`
	TopPerformers     []Performer                 `json:"topPerformers"`
}
