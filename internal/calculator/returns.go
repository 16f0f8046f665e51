package calculator

import (
	"math"
	"time"

	"MervalSentinel/internal/model"
)

// CalculateReturns computes total and annualized return and the volatility of
// day-over-day close changes, all in percent. Empty and single-bar series
// yield zeros.
func CalculateReturns(bars []model.Bar) model.Returns {
	if len(bars) < 2 {
		return model.Returns{}
	}
	first, last := bars[0], bars[len(bars)-1]
	if first.Close == 0 {
		return model.Returns{}
	}

	var r model.Returns
	r.TotalPct = (last.Close - first.Close) / first.Close * 100

	days := int(last.Timestamp.Sub(first.Timestamp) / (24 * time.Hour))
	if days > 0 {
		r.AnnualizedPct = (math.Pow(1+r.TotalPct/100, 365/float64(days)) - 1) * 100
		if math.IsInf(r.AnnualizedPct, 1) {
			r.AnnualizedPct = math.MaxFloat64
		} else if math.IsNaN(r.AnnualizedPct) {
			r.AnnualizedPct = 0
		}
	}

	changes := PctChanges(extractCloses(bars))
	for i := range changes {
		changes[i] *= 100
	}
	r.VolatilityPct = SampleStdDev(changes)
	return r
}
