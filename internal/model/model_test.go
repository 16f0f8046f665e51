package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumTokens(t *testing.T) {
	inst := Instrument{
		DomainSymbol:   "GGAL.ADR",
		ProviderSymbol: "GGAL",
		AssetType:      AssetDepositaryReceipt,
		Market:         MarketNYSE,
		Currency:       CurrencyUSD,
		DisplayName:    "Grupo Financiero Galicia",
		Tier:           TierBlueChip,
	}
	raw, err := json.Marshal(inst)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"domainSymbol":"GGAL.ADR","providerSymbol":"GGAL","assetType":"DEPOSITARY_RECEIPT",
		"market":"NYSE","currency":"USD","displayName":"Grupo Financiero Galicia","tier":"BLUE_CHIP"
	}`, string(raw))

	var back Instrument
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, inst, back)

	var m Market
	assert.Error(t, m.UnmarshalText([]byte("LSE")))
	assert.Equal(t, "BYMA", MarketLocalExchange.String())
}

func TestParseGranularity(t *testing.T) {
	for _, tok := range []string{"1m", "2m", "5m", "15m", "30m", "60m", "90m", "1h", "1d", "5d", "1wk", "1mo", "3mo"} {
		g, err := ParseGranularity(tok)
		require.NoError(t, err, tok)
		assert.Equal(t, tok, g.String())
	}
	_, err := ParseGranularity("7d")
	assert.Error(t, err)
}

func TestResultJSON(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	series := NewBarSeries("GGAL", Day1, true, []Bar{
		{Symbol: "GGAL", Timestamp: ts, Open: 1, High: 2, Low: 0.5, Close: 1.5, Adjusted: true},
		{Symbol: "GGAL", Timestamp: ts.AddDate(0, 0, 1), Open: 1.5, High: 2, Low: 1, Close: 1.8, Adjusted: true},
	})
	raw, err := json.Marshal(Ok(series, &series.SeriesMeta))
	require.NoError(t, err)

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &v))
	assert.Equal(t, "OK", v["status"])
	assert.Len(t, v["data"], 2)
	meta := v["metadata"].(map[string]interface{})
	assert.Equal(t, "2024-03-01T00:00:00Z", meta["requestedFrom"])
	assert.Equal(t, "2024-03-02T00:00:00Z", meta["requestedTo"])
	assert.Equal(t, "1d", meta["granularity"])
	assert.EqualValues(t, 2, meta["recordCount"])

	fail := Fail[*BarSeries](ErrNoDataInRange, "X", "X.BA", "no data")
	assert.False(t, fail.OK())
	assert.Equal(t, "NO_DATA_IN_RANGE: no data", fail.Err.Error())
	raw, err = json.Marshal(fail)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ERROR","message":"no data","code":"NO_DATA_IN_RANGE"}`, string(raw))
}

func TestBarSeries(t *testing.T) {
	empty := NewBarSeries("X", Day1, true, nil)
	_, ok := empty.Last()
	assert.False(t, ok)
	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	s := NewBarSeries("X", Day1, true, []Bar{{Close: 1}, {Close: 3}})
	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 3.0, last.Close)
	assert.Equal(t, []float64{1, 3}, s.Closes())
}

func TestCorrelationMatrix(t *testing.T) {
	m := &CorrelationMatrix{
		Symbols: []string{"A", "B", "C"},
		Values: [][]float64{
			{1, 0.5, math.NaN()},
			{0.5, 1, 0.2},
			{math.NaN(), 0.2, math.NaN()},
		},
	}
	v, ok := m.At("A", "B")
	require.True(t, ok)
	assert.Equal(t, 0.5, v)
	_, ok = m.At("A", "Z")
	assert.False(t, ok)

	sub := m.Sub(2)
	assert.Equal(t, []string{"A", "B"}, sub.Symbols)
	assert.Same(t, m, m.Sub(5))

	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"A":{"A":1,"B":0.5,"C":null},
		"B":{"A":0.5,"B":1,"C":0.2},
		"C":{"A":null,"B":0.2,"C":null}
	}`, string(raw))
}
