package calculator

import (
	"math"
	"sort"
	"time"

	"MervalSentinel/internal/model"
)

func extractCloses(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// pctChange returns cur/prev - 1. ok is false when the change is undefined.
func pctChange(prev, cur float64) (float64, bool) {
	if prev == 0 {
		return 0, false
	}
	r := cur/prev - 1
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// PctChanges returns the fractional day-over-day changes of values, skipping
// undefined ones. The result has at most len(values)-1 elements.
func PctChanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if r, ok := pctChange(values[i-1], values[i]); ok {
			out = append(out, r)
		}
	}
	return out
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// SampleStdDev returns the n-1 standard deviation, 0 when fewer than two values.
func SampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return math.Sqrt(SampleCovariance(xs, xs))
}

// SampleCovariance returns the n-1 covariance of two equally long slices,
// 0 when fewer than two pairs.
func SampleCovariance(xs, ys []float64) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n < 2 {
		return 0
	}
	mx, my := Mean(xs[:n]), Mean(ys[:n])
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(n-1)
}

// Pearson returns the correlation coefficient of xs and ys, NaN when either
// side has no variance or there are fewer than two pairs.
func Pearson(xs, ys []float64) float64 {
	if len(xs) < 2 || len(xs) != len(ys) {
		return math.NaN()
	}
	vx, vy := SampleCovariance(xs, xs), SampleCovariance(ys, ys)
	if vx == 0 || vy == 0 {
		return math.NaN()
	}
	r := SampleCovariance(xs, ys) / math.Sqrt(vx*vy)
	// clamp rounding noise
	return math.Max(-1, math.Min(1, r))
}

// commonTimestamps returns the timestamps present in every series, ascending.
func commonTimestamps(series ...[]model.Bar) []time.Time {
	if len(series) == 0 {
		return nil
	}
	counts := make(map[int64]int)
	first := make(map[int64]time.Time)
	for _, bars := range series {
		seen := make(map[int64]bool, len(bars))
		for _, b := range bars {
			k := b.Timestamp.UnixNano()
			if seen[k] {
				continue
			}
			seen[k] = true
			counts[k]++
			if _, ok := first[k]; !ok {
				first[k] = b.Timestamp
			}
		}
	}
	var out []time.Time
	for k, c := range counts {
		if c == len(series) {
			out = append(out, first[k])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// closesAt returns the close of bars at each timestamp in ts. Every timestamp
// must be present in bars.
func closesAt(bars []model.Bar, ts []time.Time) []float64 {
	byTime := make(map[int64]float64, len(bars))
	for _, b := range bars {
		k := b.Timestamp.UnixNano()
		if _, ok := byTime[k]; !ok {
			byTime[k] = b.Close
		}
	}
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = byTime[t.UnixNano()]
	}
	return out
}
