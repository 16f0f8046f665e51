package model

import (
	"encoding/json"
	"time"
)

// Bar is one OHLCV observation. Open, High, Low and Close are never NaN.
type Bar struct {
	Symbol         string    `json:"symbol"`
	Timestamp      time.Time `json:"timestamp"`
	Open           float64   `json:"open"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	Close          float64   `json:"close"`
	NominalVolume  float64   `json:"nominalVolume"`
	NotionalVolume float64   `json:"notionalVolume"`
	TradeCount     int       `json:"tradeCount"`
	Adjusted       bool      `json:"adjusted"`
}

// SeriesMeta describes a retrieved series. From and To are the timestamps of
// the first and last bar actually returned, not the requested bounds.
type SeriesMeta struct {
	Symbol      string      `json:"symbol"`
	From        time.Time   `json:"requestedFrom"`
	To          time.Time   `json:"requestedTo"`
	Granularity Granularity `json:"granularity"`
	Adjusted    bool        `json:"adjusted"`
	RecordCount int         `json:"recordCount"`
}

// BarSeries holds the bars of a single symbol, ascending by timestamp.
type BarSeries struct {
	SeriesMeta
	Bars []Bar
}

// MarshalJSON emits only the bars; the metadata travels next to the payload
// in a Result.
func (s *BarSeries) MarshalJSON() ([]byte, error) {
	if s.Bars == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Bars)
}

// NewBarSeries builds a series whose metadata is derived from bars.
func NewBarSeries(symbol string, granularity Granularity, adjusted bool, bars []Bar) *BarSeries {
	s := &BarSeries{
		SeriesMeta: SeriesMeta{
			Symbol:      symbol,
			Granularity: granularity,
			Adjusted:    adjusted,
			RecordCount: len(bars),
		},
		Bars: bars,
	}
	if len(bars) > 0 {
		s.From = bars[0].Timestamp
		s.To = bars[len(bars)-1].Timestamp
	}
	return s
}

// Closes returns the close prices in series order.
func (s *BarSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar; ok is false for an empty series.
func (s *BarSeries) Last() (Bar, bool) {
	if s == nil || len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}
