package calculator

import (
	"math"

	"MervalSentinel/internal/model"
)

const (
	// MinBetaObservations is the number of common timestamps beta requires.
	MinBetaObservations = 30
	// TradingDaysPerYear annualizes daily statistics.
	TradingDaysPerYear = 252
)

// CalculateBeta returns cov(asset, benchmark) / var(benchmark) over the daily
// returns of both series on their common timestamps. ok is false with fewer
// than MinBetaObservations common timestamps or a flat benchmark.
func CalculateBeta(asset, benchmark []model.Bar) (beta float64, ok bool) {
	ts := commonTimestamps(asset, benchmark)
	if len(ts) < MinBetaObservations {
		return 0, false
	}
	a, b := closesAt(asset, ts), closesAt(benchmark, ts)

	ra := make([]float64, 0, len(ts)-1)
	rb := make([]float64, 0, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		x, okA := pctChange(a[i-1], a[i])
		y, okB := pctChange(b[i-1], b[i])
		if !okA || !okB {
			continue
		}
		ra = append(ra, x)
		rb = append(rb, y)
	}

	variance := SampleCovariance(rb, rb)
	if variance == 0 {
		return 0, false
	}
	return SampleCovariance(ra, rb) / variance, true
}

// CalculateRatios computes annualized return and volatility, Sharpe and
// Sortino ratios and the maximum drawdown from daily fractional returns.
// riskFreeRate is a fraction (0.01 for 1%). It returns nil when the series
// has fewer than two daily returns.
func CalculateRatios(bars []model.Bar, riskFreeRate float64, tradingDays int) *model.Ratios {
	if tradingDays <= 0 {
		tradingDays = TradingDaysPerYear
	}
	returns := PctChanges(extractCloses(bars))
	if len(returns) < 2 {
		return nil
	}
	scale := math.Sqrt(float64(tradingDays))

	annReturn := math.Pow(1+Mean(returns), float64(tradingDays)) - 1
	annVol := SampleStdDev(returns) * scale

	sharpe := 0.0
	if annVol != 0 {
		sharpe = (annReturn - riskFreeRate) / annVol
	}

	var negatives []float64
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	downside := annVol
	if len(negatives) > 0 {
		downside = SampleStdDev(negatives) * scale
	}
	sortino := 0.0
	if downside != 0 {
		sortino = (annReturn - riskFreeRate) / downside
	}

	return &model.Ratios{
		AnnualizedReturnPct:     annReturn * 100,
		AnnualizedVolatilityPct: annVol * 100,
		Sharpe:                  sharpe,
		Sortino:                 sortino,
		MaxDrawdownPct:          MaxDrawdown(returns),
	}
}

// MaxDrawdown returns the deepest decline, in percent (<= 0), of the
// cumulative product of (1+r) relative to its running maximum.
func MaxDrawdown(returns []float64) float64 {
	cum, peak, worst := 1.0, math.Inf(-1), 0.0
	for _, r := range returns {
		cum *= 1 + r
		if cum > peak {
			peak = cum
		}
		if peak > 0 {
			if dd := (cum - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	return worst * 100
}
