package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MervalSentinel/internal/model"
)

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {
        "symbol": "GGAL.BA",
        "currency": "ARS",
        "exchangeName": "BUE",
        "instrumentType": "EQUITY",
        "longName": "Grupo Financiero Galicia S.A.",
        "shortName": "GALICIA",
        "exchangeTimezoneName": "UTC"
      },
      "timestamp": [1709290800, 1709377200, 1709636400],
      "indicators": {
        "quote": [{
          "open":   [100.0, 102.0, 104.0],
          "high":   [110.0, 112.0, 114.0],
          "low":    [90.0, 92.0, 94.0],
          "close":  [100.0, null, 110.0],
          "volume": [5000, 6000, null]
        }],
        "adjclose": [{"adjclose": [50.0, null, 55.0]}]
      }
    }],
    "error": null
  }
}`

const notFoundBody = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func newTestYahoo(t *testing.T, handler http.HandlerFunc) (*YahooProvider, func() []*url.URL) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []*url.URL
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL)
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	y := NewYahooProvider(YahooOptions{BaseURL: srv.URL, SearchURL: srv.URL, Timeout: 5 * time.Second}, nil)
	return y, func() []*url.URL {
		mu.Lock()
		defer mu.Unlock()
		return append([]*url.URL(nil), seen...)
	}
}

func TestYahooBars_DecodesAndAdjusts(t *testing.T) {
	y, seen := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(chartBody))
	})

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 6, 17, 30, 0, 0, time.UTC)
	raw, err := y.Bars(context.Background(), BarsRequest{
		Symbol: "GGAL.BA", From: from, To: to, Granularity: model.Day1, Adjusted: true,
	})
	require.NoError(t, err)
	require.Equal(t, 3, raw.Len())

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), raw.Timestamps[0].UTC())
	require.NotNil(t, raw.Open[0])
	assert.InDelta(t, 50.0, *raw.Open[0], 1e-9)
	assert.InDelta(t, 50.0, *raw.Close[0], 1e-9)
	assert.InDelta(t, 55.0, *raw.High[0], 1e-9)
	assert.Nil(t, raw.Close[1])
	assert.InDelta(t, 102.0, *raw.Open[1], 1e-9, "rows without a close keep raw prices")
	assert.Nil(t, raw.Volume[2])

	require.Len(t, seen(), 1)
	u := seen()[0]
	assert.Equal(t, "/v8/finance/chart/GGAL.BA", u.Path)
	q := u.Query()
	assert.Equal(t, "1d", q.Get("interval"))
	assert.Equal(t, "1709251200", q.Get("period1"))
	assert.Equal(t, "1709683200", q.Get("period2"), "end rounds down to its day")
	assert.Empty(t, q.Get("range"))

	bars := Normalize(raw, "GGAL")
	assert.Len(t, bars, 2)
}

func TestYahooBars_Range(t *testing.T) {
	y, seen := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartBody))
	})
	_, err := y.Bars(context.Background(), BarsRequest{Symbol: "^MERV", Range: "5d", Granularity: model.Day1})
	require.NoError(t, err)
	q := seen()[0].Query()
	assert.Equal(t, "5d", q.Get("range"))
	assert.Empty(t, q.Get("period1"))
}

func TestYahooBars_NotFoundIsEmpty(t *testing.T) {
	y, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(notFoundBody))
	})
	raw, err := y.Bars(context.Background(), BarsRequest{Symbol: "NOPE.BA", Range: "1d", Granularity: model.Day1})
	require.NoError(t, err)
	assert.Zero(t, raw.Len())

	info, err := y.Metadata(context.Background(), "NOPE.BA")
	require.NoError(t, err)
	assert.Empty(t, info)
}

func TestYahooBars_ServerError(t *testing.T) {
	y, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	_, err := y.Bars(context.Background(), BarsRequest{Symbol: "GGAL.BA", Range: "1d", Granularity: model.Day1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestYahooMetadata(t *testing.T) {
	y, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartBody))
	})
	info, err := y.Metadata(context.Background(), "GGAL.BA")
	require.NoError(t, err)
	assert.Equal(t, "Grupo Financiero Galicia S.A.", info["longName"])
	assert.Equal(t, "GALICIA", info["shortName"])
	assert.Equal(t, "ARS", info["currency"])
	assert.Equal(t, "EQUITY", info["instrumentType"])
}

func TestYahooSearch(t *testing.T) {
	y, seen := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quotes":[
			{"symbol":"GGAL.BA","shortname":"GALICIA","longname":"Grupo Financiero Galicia","exchange":"BUE","quoteType":"EQUITY"},
			{"symbol":"GGAL","shortname":"Grupo Financiero Galicia S.A.","exchange":"NMS","quoteType":"EQUITY"}
		]}`))
	})
	hits, err := y.Search(context.Background(), "galicia")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "GGAL.BA", hits[0].Symbol)
	assert.Equal(t, "GALICIA", hits[0].ShortName)
	assert.Equal(t, "NMS", hits[1].Exchange)

	u := seen()[0]
	assert.True(t, strings.HasSuffix(u.Path, "/v1/finance/search"))
	assert.Equal(t, "galicia", u.Query().Get("q"))
	assert.Equal(t, "0", u.Query().Get("newsCount"))
}

func TestYahoo_ThroughClient(t *testing.T) {
	y, _ := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartBody))
	})
	c := NewClient(y, nil, nil)

	inst := c.FetchInstrument(context.Background(), "GGAL")
	require.NotNil(t, inst)
	assert.Equal(t, "Grupo Financiero Galicia S.A.", inst.DisplayName)

	bar := c.FetchLatest(context.Background(), "GGAL")
	require.NotNil(t, bar)
	assert.InDelta(t, 50.0, bar.Close, 1e-9)
}
