package collector

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MockProvider returns scripted data for development and testing. Series are
// keyed by provider symbol, and by "symbol|range" for lookback windows; an
// entry in Errors makes the matching call fail.
type MockProvider struct {
	mu        sync.Mutex
	Series    map[string]*RawSeries
	Meta      map[string]map[string]string
	Hits      []SearchHit
	Errors    map[string]error
	SearchErr error
	Calls     []BarsRequest
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		Series: make(map[string]*RawSeries),
		Meta:   make(map[string]map[string]string),
		Errors: make(map[string]error),
	}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Bars(_ context.Context, req BarsRequest) (*RawSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)

	key := req.Symbol
	if req.Range != "" {
		key = req.Symbol + "|" + req.Range
	}
	if err, ok := m.Errors[key]; ok {
		return nil, err
	}
	if err, ok := m.Errors[req.Symbol]; ok {
		return nil, err
	}
	if s, ok := m.Series[key]; ok {
		return s, nil
	}
	return &RawSeries{Symbol: req.Symbol}, nil
}

func (m *MockProvider) Metadata(_ context.Context, symbol string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors["meta|"+symbol]; ok {
		return nil, err
	}
	return m.Meta[symbol], nil
}

func (m *MockProvider) Search(_ context.Context, _ string) ([]SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.Hits, nil
}

// RangeCalls returns the lookback windows requested for symbol, in order.
func (m *MockProvider) RangeCalls(symbol string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.Calls {
		if c.Symbol == symbol && c.Range != "" {
			out = append(out, c.Range)
		}
	}
	return out
}

// GenerateSeries builds a complete daily raw series of closes starting at
// start, one row per day.
func GenerateSeries(symbol string, start time.Time, closes ...float64) *RawSeries {
	s := &RawSeries{Symbol: symbol}
	for i, c := range closes {
		c := c
		o, h, l := c*0.999, c*1.005, c*0.995
		v := 1000000.0
		s.Timestamps = append(s.Timestamps, start.AddDate(0, 0, i))
		s.Open = append(s.Open, &o)
		s.High = append(s.High, &h)
		s.Low = append(s.Low, &l)
		s.Close = append(s.Close, &c)
		s.Volume = append(s.Volume, &v)
	}
	return s
}

// ErrMock is a convenience provider failure.
var ErrMock = errors.New("mock provider failure")
