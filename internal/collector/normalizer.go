package collector

import (
	"math"

	"MervalSentinel/internal/model"
)

// Normalize converts raw provider rows into bars for domainSymbol, keeping
// row order. Rows missing any of open/high/low/close are dropped; a missing
// volume becomes 0. Bars are always marked adjusted since retrieval requests
// adjusted prices.
func Normalize(raw *RawSeries, domainSymbol string) []model.Bar {
	n := raw.Len()
	bars := make([]model.Bar, 0, n)
	for i := 0; i < n; i++ {
		o, okO := cell(raw.Open, i)
		h, okH := cell(raw.High, i)
		l, okL := cell(raw.Low, i)
		c, okC := cell(raw.Close, i)
		if !okO || !okH || !okL || !okC {
			continue
		}
		vol, _ := cell(raw.Volume, i)
		bars = append(bars, model.Bar{
			Symbol:        domainSymbol,
			Timestamp:     raw.Timestamps[i],
			Open:          o,
			High:          h,
			Low:           l,
			Close:         c,
			NominalVolume: vol,
			Adjusted:      true,
		})
	}
	return bars
}

func cell(col []*float64, i int) (float64, bool) {
	if i >= len(col) || col[i] == nil {
		return 0, false
	}
	v := *col[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
