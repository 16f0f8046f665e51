package calculator

import (
	"math"

	"MervalSentinel/internal/model"
)

// CalculateCorrelation aligns the series of symbols on the timestamps they all
// share, converts closes to daily fractional returns (dropping the first row
// and any row with an undefined change) and returns the pairwise Pearson
// matrix. Symbols without bars are left out. It returns nil when no symbol
// has data. The diagonal is 1 for every symbol with at least two bars; an
// undefined off-diagonal pair is NaN.
func CalculateCorrelation(symbols []string, series map[string][]model.Bar) *model.CorrelationMatrix {
	var cols []string
	var data [][]model.Bar
	seen := make(map[string]bool)
	for _, sym := range symbols {
		if seen[sym] || len(series[sym]) == 0 {
			continue
		}
		seen[sym] = true
		cols = append(cols, sym)
		data = append(data, series[sym])
	}
	if len(cols) == 0 {
		return nil
	}

	ts := commonTimestamps(data...)
	closes := make([][]float64, len(cols))
	for i, bars := range data {
		closes[i] = closesAt(bars, ts)
	}

	returns := make([][]float64, len(cols))
rows:
	for t := 1; t < len(ts); t++ {
		row := make([]float64, len(cols))
		for c := range cols {
			r, ok := pctChange(closes[c][t-1], closes[c][t])
			if !ok {
				continue rows
			}
			row[c] = r
		}
		for c := range cols {
			returns[c] = append(returns[c], row[c])
		}
	}

	m := &model.CorrelationMatrix{Symbols: cols, Values: make([][]float64, len(cols))}
	for i := range cols {
		m.Values[i] = make([]float64, len(cols))
	}
	for i := range cols {
		m.Values[i][i] = math.NaN()
		if len(data[i]) >= 2 {
			m.Values[i][i] = 1
		}
		for j := i + 1; j < len(cols); j++ {
			v := Pearson(returns[i], returns[j])
			m.Values[i][j] = v
			m.Values[j][i] = v
		}
	}
	return m
}
