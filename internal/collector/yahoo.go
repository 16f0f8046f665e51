package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"MervalSentinel/internal/model"
)

const (
	DefaultYahooBaseURL   = "https://query1.finance.yahoo.com"
	DefaultYahooSearchURL = "https://query2.finance.yahoo.com"
)

// YahooOptions configures a YahooProvider. Zero values pick defaults.
type YahooOptions struct {
	BaseURL           string
	SearchURL         string
	Proxy             string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// YahooProvider implements Provider using the Yahoo Finance public API.
type YahooProvider struct {
	BaseURL   string
	SearchURL string
	UserAgent string
	Client    *http.Client
	limiter   *rate.Limiter
	logger    *zap.SugaredLogger
}

// NewYahooProvider creates a provider with optional proxy support and
// client-side rate limiting.
func NewYahooProvider(opts YahooOptions, logger *zap.SugaredLogger) *YahooProvider {
	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultYahooBaseURL
	}
	if opts.SearchURL == "" {
		opts.SearchURL = DefaultYahooSearchURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible; MervalSentinel/" + uuid.NewString()[:8] + ")"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return &YahooProvider{
		BaseURL:   opts.BaseURL,
		SearchURL: opts.SearchURL,
		UserAgent: opts.UserAgent,
		Client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter: limiter,
		logger:  logger,
	}
}

func (y *YahooProvider) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
// Columns are nullable: holidays and halted sessions come back as null.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				Currency             string `json:"currency"`
				ExchangeName         string `json:"exchangeName"`
				FullExchangeName     string `json:"fullExchangeName"`
				InstrumentType       string `json:"instrumentType"`
				LongName             string `json:"longName"`
				ShortName            string `json:"shortName"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooSearch struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// Bars fetches a chart. Unknown symbols yield an empty series rather than an
// error, matching what the API reports for delisted tickers.
func (y *YahooProvider) Bars(ctx context.Context, req BarsRequest) (*RawSeries, error) {
	q := url.Values{}
	q.Set("interval", req.Granularity.String())
	q.Set("includeAdjustedClose", "true")
	if req.Range != "" {
		q.Set("range", req.Range)
	} else {
		q.Set("period1", strconv.FormatInt(req.From.Unix(), 10))
		// end date is exclusive at day resolution
		to := req.To.UTC()
		end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	}

	chart, err := y.fetchChart(ctx, req.Symbol, q)
	if err != nil {
		return nil, err
	}
	out := &RawSeries{Symbol: req.Symbol}
	if chart == nil || len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return out, nil
	}
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return out, nil
	}
	quote := result.Indicators.Quote[0]

	loc := time.UTC
	if tz := result.Meta.ExchangeTimezoneName; tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			y.logger.Debugf("unknown exchange timezone %q for %s, using UTC", tz, req.Symbol)
		}
	}
	daily := req.Granularity >= model.Day1

	for _, ts := range result.Timestamp {
		t := time.Unix(ts, 0).In(loc)
		if daily {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		}
		out.Timestamps = append(out.Timestamps, t)
	}
	out.Open = quote.Open
	out.High = quote.High
	out.Low = quote.Low
	out.Close = quote.Close
	out.Volume = quote.Volume

	if req.Adjusted && len(result.Indicators.AdjClose) > 0 {
		adjustPrices(out, result.Indicators.AdjClose[0].AdjClose)
	}
	return out, nil
}

// adjustPrices scales open/high/low by adjclose/close and replaces close.
func adjustPrices(s *RawSeries, adj []*float64) {
	for i := range s.Timestamps {
		if i >= len(adj) || adj[i] == nil || i >= len(s.Close) || s.Close[i] == nil || *s.Close[i] == 0 {
			continue
		}
		ratio := *adj[i] / *s.Close[i]
		for _, col := range [][]*float64{s.Open, s.High, s.Low} {
			if i < len(col) && col[i] != nil {
				v := *col[i] * ratio
				col[i] = &v
			}
		}
		v := *adj[i]
		s.Close[i] = &v
	}
}

// Metadata returns the descriptive fields of the chart meta block. An
// unknown symbol yields an empty map.
func (y *YahooProvider) Metadata(ctx context.Context, symbol string) (map[string]string, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", "1d")
	chart, err := y.fetchChart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}
	info := make(map[string]string)
	if chart == nil || len(chart.Chart.Result) == 0 {
		return info, nil
	}
	meta := chart.Chart.Result[0].Meta
	for k, v := range map[string]string{
		"longName":       meta.LongName,
		"shortName":      meta.ShortName,
		"currency":       meta.Currency,
		"exchangeName":   meta.ExchangeName,
		"instrumentType": meta.InstrumentType,
		"timezone":       meta.ExchangeTimezoneName,
	} {
		if v != "" {
			info[k] = v
		}
	}
	return info, nil
}

// Search queries the Yahoo Finance symbol search.
func (y *YahooProvider) Search(ctx context.Context, query string) ([]SearchHit, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("quotesCount", strconv.Itoa(maxSearchResults))
	q.Set("newsCount", "0")
	u := y.SearchURL + "/v1/finance/search?" + q.Encode()

	status, body, err := y.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo search: status %d, body: %s", status, string(body))
	}
	var res yahooSearch
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("yahoo search decode: %w", err)
	}
	hits := make([]SearchHit, 0, len(res.Quotes))
	for _, r := range res.Quotes {
		hits = append(hits, SearchHit{
			Symbol:    r.Symbol,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Exchange:  r.Exchange,
			QuoteType: r.QuoteType,
		})
	}
	return hits, nil
}

// fetchChart returns nil, nil when the API reports the symbol as not found.
func (y *YahooProvider) fetchChart(ctx context.Context, symbol string, q url.Values) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.BaseURL, url.PathEscape(symbol), q.Encode())

	status, body, err := y.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)
	if decodeErr == nil && chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			y.logger.Debugf("yahoo: %s not found: %s", symbol, chart.Chart.Error.Description)
			return nil, nil
		}
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", status, string(body))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo decode: %w", decodeErr)
	}
	return &chart, nil
}

func (y *YahooProvider) get(ctx context.Context, u string) (int, []byte, error) {
	if y.limiter != nil {
		if err := y.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("yahoo rate limit: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", y.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := y.Client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("yahoo read body: %w", err)
	}
	y.logger.Debugf("GET %s %s", resp.Request.URL.Path, resp.Status)
	return resp.StatusCode, body, nil
}
