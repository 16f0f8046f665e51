package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MervalSentinel/internal/model"
)

var (
	day0    = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	fixedAt = time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
)

func newTestClient(p Provider, opts ...Option) *Client {
	opts = append([]Option{WithClock(func() time.Time { return fixedAt })}, opts...)
	return NewClient(p, nil, nil, opts...)
}

// panicProvider blows up on every call.
type panicProvider struct{}

func (panicProvider) Name() string { return "panic" }
func (panicProvider) Bars(context.Context, BarsRequest) (*RawSeries, error) {
	panic("boom")
}
func (panicProvider) Metadata(context.Context, string) (map[string]string, error) {
	panic("boom")
}
func (panicProvider) Search(context.Context, string) ([]SearchHit, error) {
	panic("boom")
}

func TestNormalize_DropsIncompleteRows(t *testing.T) {
	raw := GenerateSeries("GGAL.BA", day0, 10, 11, 12, 13, 14)
	raw.Open[1] = nil
	raw.Close[3] = nil
	raw.Volume[4] = nil

	bars := Normalize(raw, "GGAL")
	require.Len(t, bars, 3)
	assert.Equal(t, []float64{10, 12, 14}, []float64{bars[0].Close, bars[1].Close, bars[2].Close})
	for _, b := range bars {
		assert.Equal(t, "GGAL", b.Symbol)
		assert.True(t, b.Adjusted)
	}
	assert.Zero(t, bars[2].NominalVolume)
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil, "X"))
	assert.Empty(t, Normalize(&RawSeries{}, "X"))
}

func TestResolver(t *testing.T) {
	r := DefaultResolver()

	assert.Equal(t, "GGAL.BA", r.Resolve("GGAL"))
	assert.Equal(t, "^MERV", r.Resolve("MERVAL"))
	assert.Equal(t, "GGAL", r.Resolve("GGAL.ADR"))
	assert.Equal(t, "UNKNOWN123.BA", r.Resolve("UNKNOWN123"))
	assert.Equal(t, "FOO.BA", r.Resolve("FOO.BA"))
	assert.Equal(t, "FOO.ADR", r.Resolve("FOO.ADR"))

	assert.Equal(t, "YPFD.BA", r.ResolveTradable("YPF"))
	assert.Equal(t, "GGAL.BA", r.ResolveTradable("GGAL"))

	dom, ok := r.Reverse("YPFD.BA")
	require.True(t, ok)
	assert.Equal(t, "YPF", dom, "first mapping in table order wins")

	_, ok = r.Reverse("AAPL")
	assert.False(t, ok)
	assert.True(t, r.Known("TEO"))
	assert.False(t, r.Known("AAPL"))
}

func TestFetchHistorical_OK(t *testing.T) {
	p := NewMockProvider()
	p.Series["GGAL.BA"] = GenerateSeries("GGAL.BA", day0, 100, 101, 102)
	c := newTestClient(p)

	res := c.FetchHistorical(context.Background(), NewHistoricalRequest("GGAL"))
	require.True(t, res.OK(), "unexpected error: %v", res.Err)
	require.Len(t, res.Payload.Bars, 3)
	assert.Equal(t, day0, res.Meta.From)
	assert.Equal(t, day0.AddDate(0, 0, 2), res.Meta.To)
	assert.Equal(t, 3, res.Meta.RecordCount)
	assert.Equal(t, "GGAL", res.Meta.Symbol)

	require.Len(t, p.Calls, 1)
	assert.Equal(t, fixedAt, p.Calls[0].To)
	assert.Equal(t, fixedAt.Add(-DefaultLookback), p.Calls[0].From)
	assert.Equal(t, model.Day1, p.Calls[0].Granularity)
}

func TestFetchHistorical_ErrorKinds(t *testing.T) {
	p := NewMockProvider()
	p.Errors["BAD.BA"] = ErrMock
	p.Errors["NONE.BA"] = ErrNoData
	broken := GenerateSeries("BROKEN.BA", day0, 1, 2)
	broken.Close[0], broken.Close[1] = nil, nil
	p.Series["BROKEN.BA"] = broken
	c := newTestClient(p)
	ctx := context.Background()

	cases := []struct {
		symbol string
		kind   model.ErrorKind
	}{
		{"BAD", model.ErrProvider},
		{"EMPTY", model.ErrNoDataInRange},
		{"NONE", model.ErrNoDataInRange},
		{"BROKEN", model.ErrNormalizationFailure},
	}
	for _, tc := range cases {
		t.Run(tc.symbol, func(t *testing.T) {
			res := c.FetchHistorical(ctx, NewHistoricalRequest(tc.symbol))
			require.False(t, res.OK())
			assert.Equal(t, tc.kind, res.Err.Kind)
			assert.Contains(t, res.Err.Message, tc.symbol)
			assert.Contains(t, res.Err.Message, tc.symbol+".BA")
		})
	}
}

func TestFetchHistorical_ProviderPanic(t *testing.T) {
	c := newTestClient(panicProvider{})
	res := c.FetchHistorical(context.Background(), NewHistoricalRequest("GGAL"))
	require.False(t, res.OK())
	assert.Equal(t, model.ErrProvider, res.Err.Kind)
}

func TestFetchLatest_WidensWindow(t *testing.T) {
	p := NewMockProvider()
	p.Series["GGAL.BA|5d"] = GenerateSeries("GGAL.BA", day0, 50, 51)
	c := newTestClient(p)

	bar := c.FetchLatest(context.Background(), "GGAL")
	require.NotNil(t, bar)
	assert.Equal(t, 50.0, bar.Close)
	assert.Equal(t, "GGAL", bar.Symbol)
	assert.Equal(t, []string{"1d", "5d"}, p.RangeCalls("GGAL.BA"))
}

func TestFetchLatest_MostRecentSelection(t *testing.T) {
	p := NewMockProvider()
	p.Series["GGAL.BA|1d"] = GenerateSeries("GGAL.BA", day0, 50, 51)
	c := newTestClient(p, WithLatestSelection(SelectMostRecent))

	bar := c.FetchLatest(context.Background(), "GGAL")
	require.NotNil(t, bar)
	assert.Equal(t, 51.0, bar.Close)
}

func TestFetchLatest_AppliesOverride(t *testing.T) {
	p := NewMockProvider()
	p.Series["YPFD.BA|1d"] = GenerateSeries("YPFD.BA", day0, 30000)
	c := newTestClient(p)

	bar := c.FetchLatest(context.Background(), "YPF")
	require.NotNil(t, bar)
	assert.Equal(t, "YPF", bar.Symbol)
}

func TestFetchLatest_NothingAnywhere(t *testing.T) {
	p := NewMockProvider()
	c := newTestClient(p)
	assert.Nil(t, c.FetchLatest(context.Background(), "GGAL"))
	assert.Equal(t, []string{"1d", "5d", "1mo"}, p.RangeCalls("GGAL.BA"))
}

func TestFetchLatest_ProviderErrorStops(t *testing.T) {
	p := NewMockProvider()
	p.Errors["GGAL.BA|1d"] = ErrMock
	p.Series["GGAL.BA|5d"] = GenerateSeries("GGAL.BA", day0, 50)
	c := newTestClient(p)

	assert.Nil(t, c.FetchLatest(context.Background(), "GGAL"))
	assert.Equal(t, []string{"1d"}, p.RangeCalls("GGAL.BA"))
}

func TestFetchLatestBatch_IsolatesFailures(t *testing.T) {
	p := NewMockProvider()
	p.Errors["A.BA"] = ErrMock
	p.Series["B.BA|1d"] = GenerateSeries("B.BA", day0, 7)
	c := newTestClient(p)

	batch := c.FetchLatestBatch(context.Background(), []string{"A", "B", "A"})
	require.Len(t, batch, 2)
	assert.Equal(t, "A", batch[0].Symbol)
	assert.Nil(t, batch[0].Bar)
	assert.Equal(t, "B", batch[1].Symbol)
	require.NotNil(t, batch[1].Bar)
	assert.Equal(t, 7.0, batch[1].Bar.Close)

	m := batch.Map()
	assert.Contains(t, m, "A")
	assert.Nil(t, m["A"])
}

func TestFetchLatestBatch_SurvivesPanics(t *testing.T) {
	c := newTestClient(panicProvider{})
	batch := c.FetchLatestBatch(context.Background(), []string{"A", "B"})
	require.Len(t, batch, 2)
	assert.Nil(t, batch[0].Bar)
	assert.Nil(t, batch[1].Bar)
}

func TestFetchInstrument_Classification(t *testing.T) {
	p := NewMockProvider()
	p.Meta["^MERV"] = map[string]string{"shortName": "MERVAL"}
	p.Meta["GGAL"] = map[string]string{"longName": "Grupo Financiero Galicia S.A."}
	p.Meta["ARGT"] = map[string]string{"shortName": "Global X MSCI Argentina ETF"}
	p.Meta["GGAL.BA"] = map[string]string{"longName": "Grupo Financiero Galicia", "shortName": "GALICIA"}
	c := newTestClient(p)
	ctx := context.Background()

	cases := []struct {
		symbol   string
		provider string
		asset    model.AssetType
		market   model.Market
		currency model.Currency
		name     string
	}{
		{"MERVAL", "^MERV", model.AssetBond, model.MarketNYSE, model.CurrencyUSD, "MERVAL"},
		{"GGAL.ADR", "GGAL", model.AssetDepositaryReceipt, model.MarketNYSE, model.CurrencyUSD, "Grupo Financiero Galicia S.A."},
		{"ARGT", "ARGT", model.AssetETF, model.MarketNYSE, model.CurrencyUSD, "Global X MSCI Argentina ETF"},
		{"GGAL", "GGAL.BA", model.AssetStock, model.MarketLocalExchange, model.CurrencyARS, "Grupo Financiero Galicia"},
	}
	for _, tc := range cases {
		t.Run(tc.symbol, func(t *testing.T) {
			inst := c.FetchInstrument(ctx, tc.symbol)
			require.NotNil(t, inst)
			assert.Equal(t, tc.provider, inst.ProviderSymbol)
			assert.Equal(t, tc.asset, inst.AssetType)
			assert.Equal(t, tc.market, inst.Market)
			assert.Equal(t, tc.currency, inst.Currency)
			assert.Equal(t, tc.name, inst.DisplayName)
			assert.Equal(t, model.TierBlueChip, inst.Tier)
		})
	}
}

func TestFetchInstrument_Cached(t *testing.T) {
	p := NewMockProvider()
	p.Meta["GGAL.BA"] = map[string]string{"shortName": "GALICIA"}
	cache := NewMemoryCache()
	c := NewClient(p, cache, nil)
	ctx := context.Background()

	first := c.FetchInstrument(ctx, "GGAL")
	require.NotNil(t, first)
	p.Meta["GGAL.BA"] = map[string]string{"shortName": "CHANGED"}
	first.DisplayName = "mutated by caller"

	second := c.FetchInstrument(ctx, "GGAL")
	require.NotNil(t, second)
	assert.Equal(t, "GALICIA", second.DisplayName)
	assert.Equal(t, 1, cache.Len())
}

func TestFetchInstrument_ConfirmsWithoutMetadata(t *testing.T) {
	p := NewMockProvider()
	p.Errors["meta|NEW.BA"] = ErrMock
	p.Series["NEW.BA|1d"] = GenerateSeries("NEW.BA", day0, 5)
	c := newTestClient(p)
	ctx := context.Background()

	inst := c.FetchInstrument(ctx, "NEW")
	require.NotNil(t, inst)
	assert.Equal(t, "NEW.BA", inst.DisplayName)
	assert.Equal(t, model.MarketLocalExchange, inst.Market)

	assert.Nil(t, c.FetchInstrument(ctx, "GHOST"))
}

func TestFetchInstrument_Panic(t *testing.T) {
	c := newTestClient(panicProvider{})
	assert.Nil(t, c.FetchInstrument(context.Background(), "GGAL"))
}

func TestSearchInstruments(t *testing.T) {
	p := NewMockProvider()
	p.Hits = []SearchHit{
		{Symbol: "GGAL.BA", ShortName: "GALICIA"},
		{Symbol: "GGAL", ShortName: ""},
		{Symbol: "AAPL", ShortName: "Apple Inc."},
		{Symbol: "XYZ.BA", ShortName: "XYZ SA"},
	}
	c := newTestClient(p)

	got := c.SearchInstruments(context.Background(), "galicia")
	require.Len(t, got, 3)

	assert.Equal(t, "GGAL", got[0].DomainSymbol)
	assert.Equal(t, model.MarketLocalExchange, got[0].Market)
	assert.Equal(t, model.CurrencyARS, got[0].Currency)
	assert.Equal(t, "GALICIA", got[0].DisplayName)

	assert.Equal(t, "GGAL.ADR", got[1].DomainSymbol)
	assert.Equal(t, model.MarketNYSE, got[1].Market)
	assert.Equal(t, model.CurrencyUSD, got[1].Currency)
	assert.Equal(t, "GGAL", got[1].DisplayName)

	assert.Equal(t, "XYZ.BA", got[2].DomainSymbol)
}

func TestSearchInstruments_OnlyFirstTenHits(t *testing.T) {
	p := NewMockProvider()
	for i := 0; i < 10; i++ {
		p.Hits = append(p.Hits, SearchHit{Symbol: "AAPL"})
	}
	p.Hits = append(p.Hits, SearchHit{Symbol: "GGAL.BA"})
	c := newTestClient(p)

	assert.Empty(t, c.SearchInstruments(context.Background(), "x"))
}

func TestSearchInstruments_Failures(t *testing.T) {
	p := NewMockProvider()
	p.SearchErr = ErrMock
	got := newTestClient(p).SearchInstruments(context.Background(), "x")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = newTestClient(panicProvider{}).SearchInstruments(context.Background(), "x")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
