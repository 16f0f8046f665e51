package calculator

import (
	"errors"
	"math"

	"MervalSentinel/internal/model"
)

// CalculatePriceRange scans every bar and returns the highest and lowest close.
func CalculatePriceRange(bars []model.Bar) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.Close > high {
			high = b.Close
		}
		if b.Close < low {
			low = b.Close
		}
	}
	return high, low, nil
}

// CalculateAverageVolume returns the mean nominal volume of bars.
func CalculateAverageVolume(bars []model.Bar) float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.NominalVolume
	}
	return Mean(vols)
}

// Summarize computes the comparison row of a series: returns, close range,
// last close, mean volume and sample count. Descriptive fields are left empty.
func Summarize(bars []model.Bar) model.AnalyticsSummary {
	s := model.AnalyticsSummary{
		Returns:     CalculateReturns(bars),
		SampleCount: len(bars),
	}
	if high, low, err := CalculatePriceRange(bars); err == nil {
		s.MaxPrice, s.MinPrice = high, low
		s.LastPrice = bars[len(bars)-1].Close
		s.AvgVolume = CalculateAverageVolume(bars)
	}
	return s
}
