package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"MervalSentinel/internal/model"
)

// DefaultLookback is the historical range used when no start is given.
const DefaultLookback = 365 * 24 * time.Hour

// maxSearchResults caps how many provider hits are considered.
const maxSearchResults = 10

// latestWindows are tried in order until one yields a bar.
var latestWindows = []string{"1d", "5d", "1mo"}

// LatestSelection picks the bar returned by FetchLatest.
type LatestSelection int

const (
	// SelectFirstRow returns the first normalized row of the narrowest
	// window that produced data.
	SelectFirstRow LatestSelection = iota
	// SelectMostRecent returns the bar with the greatest timestamp.
	SelectMostRecent
)

// HistoricalRequest describes a FetchHistorical call. Zero From/To default
// to one year ago and now.
type HistoricalRequest struct {
	Symbol      string
	From        time.Time
	To          time.Time
	Granularity model.Granularity
	Adjusted    bool
}

// NewHistoricalRequest returns an adjusted daily request with default bounds.
func NewHistoricalRequest(symbol string) HistoricalRequest {
	return HistoricalRequest{Symbol: symbol, Granularity: model.Day1, Adjusted: true}
}

// BatchEntry is one symbol of a batch latest query. Bar is nil when the
// symbol could not be retrieved.
type BatchEntry struct {
	Symbol string
	Bar    *model.Bar
}

// Batch keeps the entries in request order.
type Batch []BatchEntry

// Map returns the symbol -> bar view of the batch.
func (b Batch) Map() map[string]*model.Bar {
	m := make(map[string]*model.Bar, len(b))
	for _, e := range b {
		m[e.Symbol] = e.Bar
	}
	return m
}

func (b Batch) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Map())
}

// Client resolves symbols, retrieves bars and instrument metadata from a
// Provider and normalizes them.
type Client struct {
	provider Provider
	resolver *Resolver
	cache    InstrumentCache
	logger   *zap.SugaredLogger
	now      func() time.Time
	latest   LatestSelection
}

// Option configures a Client.
type Option func(*Client)

func WithResolver(r *Resolver) Option { return func(c *Client) { c.resolver = r } }

func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

func WithLatestSelection(s LatestSelection) Option { return func(c *Client) { c.latest = s } }

// NewClient creates a Client. A nil cache gets a fresh MemoryCache.
func NewClient(provider Provider, cache InstrumentCache, logger *zap.SugaredLogger, opts ...Option) *Client {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	c := &Client{
		provider: provider,
		resolver: DefaultResolver(),
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolver returns the symbol resolver in use.
func (c *Client) Resolver() *Resolver { return c.resolver }

// FetchHistorical retrieves and normalizes a bar series. Metadata bounds are
// the first and last bar returned.
func (c *Client) FetchHistorical(ctx context.Context, req HistoricalRequest) model.Result[*model.BarSeries] {
	providerSym := c.resolver.Resolve(req.Symbol)
	to := req.To
	if to.IsZero() {
		to = c.now()
	}
	from := req.From
	if from.IsZero() {
		from = c.now().Add(-DefaultLookback)
	}

	c.logger.Infof("fetching %s (%s) from %s to %s at %s",
		req.Symbol, providerSym, from.Format(time.DateOnly), to.Format(time.DateOnly), req.Granularity)

	raw, err := c.bars(ctx, BarsRequest{
		Symbol:      providerSym,
		From:        from,
		To:          to,
		Granularity: req.Granularity,
		Adjusted:    req.Adjusted,
	})
	if err != nil && !errors.Is(err, ErrNoData) {
		c.logger.Errorf("provider error for %s: %v", providerSym, err)
		return model.Fail[*model.BarSeries](model.ErrProvider, req.Symbol, providerSym,
			fmt.Sprintf("provider request failed for %s (%s): %v", req.Symbol, providerSym, err))
	}
	if raw.Len() == 0 {
		c.logger.Warnf("empty series for %s", providerSym)
		return model.Fail[*model.BarSeries](model.ErrNoDataInRange, req.Symbol, providerSym,
			fmt.Sprintf("no data found for %s (%s) in the requested period", req.Symbol, providerSym))
	}

	bars := Normalize(raw, req.Symbol)
	if len(bars) == 0 {
		c.logger.Warnf("no usable rows for %s out of %d", providerSym, raw.Len())
		return model.Fail[*model.BarSeries](model.ErrNormalizationFailure, req.Symbol, providerSym,
			fmt.Sprintf("data for %s (%s) could not be processed: %d rows, none complete", req.Symbol, providerSym, raw.Len()))
	}

	series := model.NewBarSeries(req.Symbol, req.Granularity, req.Adjusted, bars)
	return model.Ok(series, &series.SeriesMeta)
}

// FetchLatest returns the latest bar of symbol, widening the lookback window
// from one day to five days to one month until a bar is found. It returns
// nil when every window is empty or the provider fails.
func (c *Client) FetchLatest(ctx context.Context, symbol string) *model.Bar {
	providerSym := c.resolver.ResolveTradable(symbol)
	c.logger.Infof("fetching latest bar for %s", providerSym)

	for i, window := range latestWindows {
		if ctx.Err() != nil {
			return nil
		}
		raw, err := c.bars(ctx, BarsRequest{
			Symbol:      providerSym,
			Range:       window,
			Granularity: model.Day1,
			Adjusted:    true,
		})
		if err != nil && !errors.Is(err, ErrNoData) {
			c.logger.Errorf("provider error for %s (%s window): %v", providerSym, window, err)
			return nil
		}
		bars := Normalize(raw, symbol)
		if len(bars) > 0 {
			bar := c.pickLatest(bars)
			return &bar
		}
		if i < len(latestWindows)-1 {
			c.logger.Warnf("%s window empty for %s, trying %s", window, providerSym, latestWindows[i+1])
		}
	}
	c.logger.Errorf("no data for %s in any window", providerSym)
	return nil
}

func (c *Client) pickLatest(bars []model.Bar) model.Bar {
	if c.latest != SelectMostRecent {
		return bars[0]
	}
	best := bars[0]
	for _, b := range bars[1:] {
		if b.Timestamp.After(best.Timestamp) {
			best = b
		}
	}
	return best
}

// FetchLatestBatch runs FetchLatest for every symbol independently. A failed
// symbol maps to nil and never affects the others.
func (c *Client) FetchLatestBatch(ctx context.Context, symbols []string) Batch {
	out := make(Batch, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		if seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, BatchEntry{Symbol: sym, Bar: c.latestIsolated(ctx, sym)})
	}
	return out
}

func (c *Client) latestIsolated(ctx context.Context, symbol string) (bar *model.Bar) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("processing %s individually: %v", symbol, r)
			bar = nil
		}
	}()
	return c.FetchLatest(ctx, symbol)
}

// FetchInstrument resolves and classifies symbol, memoizing the result for
// the life of the cache. When the provider has no metadata, a one-day bar
// fetch confirms the instrument exists; nil means it could not be confirmed.
func (c *Client) FetchInstrument(ctx context.Context, symbol string) *model.Instrument {
	if inst, ok := c.cache.Get(symbol); ok {
		out := *inst
		return &out
	}

	providerSym := c.resolver.Resolve(symbol)
	info, err := c.metadata(ctx, providerSym)
	if err != nil || len(info) == 0 {
		if err != nil {
			c.logger.Warnf("metadata for %s failed: %v", providerSym, err)
		} else {
			c.logger.Warnf("no metadata available for %s", providerSym)
		}
		raw, err := c.bars(ctx, BarsRequest{
			Symbol:      providerSym,
			Range:       latestWindows[0],
			Granularity: model.Day1,
			Adjusted:    true,
		})
		if err != nil && !errors.Is(err, ErrNoData) {
			c.logger.Errorf("could not confirm %s: %v", providerSym, err)
			return nil
		}
		if raw.Len() == 0 {
			c.logger.Errorf("could not confirm %s exists", providerSym)
			return nil
		}
		info = map[string]string{"shortName": providerSym}
	}

	inst := classify(symbol, providerSym, info)
	c.cache.Put(symbol, inst)
	out := *inst
	return &out
}

// classify applies the asset type, venue and display name rules. The
// benchmark index is labelled a bond; downstream reports rely on that label.
func classify(symbol, providerSym string, info map[string]string) *model.Instrument {
	asset := model.AssetStock
	switch {
	case providerSym == BenchmarkProviderSymbol:
		asset = model.AssetBond
	case providerSym == ETFProviderSymbol:
		asset = model.AssetETF
	case strings.HasSuffix(symbol, ADRSuffix):
		asset = model.AssetDepositaryReceipt
	}

	market, currency := inferVenue(providerSym)

	name := symbol
	if v := info["longName"]; v != "" {
		name = v
	} else if v := info["shortName"]; v != "" {
		name = v
	}

	return &model.Instrument{
		DomainSymbol:   symbol,
		ProviderSymbol: providerSym,
		AssetType:      asset,
		Market:         market,
		Currency:       currency,
		DisplayName:    name,
		Tier:           model.TierBlueChip,
	}
}

func inferVenue(providerSym string) (model.Market, model.Currency) {
	switch {
	case strings.HasSuffix(providerSym, LocalSuffix):
		return model.MarketLocalExchange, model.CurrencyARS
	case !strings.Contains(providerSym, ".") || strings.HasPrefix(providerSym, "^"):
		return model.MarketNYSE, model.CurrencyUSD
	default:
		return model.MarketLocalExchange, model.CurrencyARS
	}
}

// SearchInstruments returns local-exchange or known instruments among the
// first provider hits for query. Provider errors yield an empty slice.
func (c *Client) SearchInstruments(ctx context.Context, query string) []model.Instrument {
	out := []model.Instrument{}
	hits, err := c.search(ctx, query)
	if err != nil {
		c.logger.Errorf("search %q: %v", query, err)
		return out
	}
	if len(hits) > maxSearchResults {
		hits = hits[:maxSearchResults]
	}
	for _, h := range hits {
		local := strings.HasSuffix(h.Symbol, LocalSuffix)
		if !local && !c.resolver.Known(h.Symbol) {
			continue
		}
		domain, ok := c.resolver.Reverse(h.Symbol)
		if !ok {
			domain = h.Symbol
		}
		name := h.ShortName
		if name == "" {
			name = h.Symbol
		}
		inst := model.Instrument{
			DomainSymbol:   domain,
			ProviderSymbol: h.Symbol,
			AssetType:      model.AssetStock,
			Market:         model.MarketNYSE,
			Currency:       model.CurrencyUSD,
			DisplayName:    name,
			Tier:           model.TierBlueChip,
		}
		if local {
			inst.Market, inst.Currency = model.MarketLocalExchange, model.CurrencyARS
		}
		out = append(out, inst)
	}
	return out
}

// bars, metadata and search convert provider panics into errors so a single
// symbol can never take down a caller.

func (c *Client) bars(ctx context.Context, req BarsRequest) (raw *RawSeries, err error) {
	defer recoverProvider(&err)
	return c.provider.Bars(ctx, req)
}

func (c *Client) metadata(ctx context.Context, symbol string) (info map[string]string, err error) {
	defer recoverProvider(&err)
	return c.provider.Metadata(ctx, symbol)
}

func (c *Client) search(ctx context.Context, query string) (hits []SearchHit, err error) {
	defer recoverProvider(&err)
	return c.provider.Search(ctx, query)
}

func recoverProvider(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("provider panic: %v", r)
	}
}
