package report

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"MervalSentinel/internal/calculator"
	"MervalSentinel/internal/collector"
	"MervalSentinel/internal/model"
)

const (
	// DefaultReportLookback is the report period when no start is given.
	DefaultReportLookback = 90 * 24 * time.Hour
	// DefaultAnalysisLookback applies to beta and ratios.
	DefaultAnalysisLookback = 365 * 24 * time.Hour
	DefaultRiskFreeRate     = 0.01
	DefaultTopN             = 3
)

// DefaultLeaders is the leading panel analysed by the market report.
var DefaultLeaders = []string{"GGAL", "YPFD", "PAMP", "TXAR", "BYMA", "BBAR", "ALUA"}

// Options selects the symbols and parameters of a market report.
type Options struct {
	Benchmark    string
	Indices      []string
	Leaders      []string
	Lookback     time.Duration
	RiskFreeRate float64
	TopN         int
}

// DefaultOptions returns the standard Merval report setup.
func DefaultOptions() Options {
	return Options{
		Benchmark:    collector.BenchmarkSymbol,
		Indices:      []string{collector.BenchmarkSymbol},
		Leaders:      append([]string(nil), DefaultLeaders...),
		Lookback:     DefaultReportLookback,
		RiskFreeRate: DefaultRiskFreeRate,
		TopN:         DefaultTopN,
	}
}

// Analyzer runs the multi-symbol analytics on top of a collector.Client.
type Analyzer struct {
	client *collector.Client
	opts   Options
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewAnalyzer creates an Analyzer. Zero-valued options fall back to
// DefaultOptions field by field.
func NewAnalyzer(client *collector.Client, opts Options, logger *zap.SugaredLogger) *Analyzer {
	def := DefaultOptions()
	if opts.Benchmark == "" {
		opts.Benchmark = def.Benchmark
	}
	if len(opts.Indices) == 0 {
		opts.Indices = def.Indices
	}
	if len(opts.Leaders) == 0 {
		opts.Leaders = def.Leaders
	}
	if opts.Lookback <= 0 {
		opts.Lookback = def.Lookback
	}
	if opts.TopN <= 0 {
		opts.TopN = def.TopN
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Analyzer{client: client, opts: opts, logger: logger, now: time.Now}
}

// SetClock replaces the time source.
func (a *Analyzer) SetClock(now func() time.Time) { a.now = now }

// Options returns the effective report options.
func (a *Analyzer) Options() Options { return a.opts }

// Series retrieves the adjusted daily bars of symbol. It returns nil, after
// logging, when retrieval fails.
func (a *Analyzer) Series(ctx context.Context, symbol string, from, to time.Time) []model.Bar {
	req := collector.NewHistoricalRequest(symbol)
	req.From, req.To = from, to
	res := a.client.FetchHistorical(ctx, req)
	if !res.OK() {
		a.logger.Warnf("no series for %s: %v", symbol, res.Err)
		return nil
	}
	return res.Payload.Bars
}

// CompareAssets summarizes every symbol that has data over the period.
// Symbols without data are left out.
func (a *Analyzer) CompareAssets(ctx context.Context, symbols []string, from, to time.Time) map[string]model.AnalyticsSummary {
	series := a.fetchAll(ctx, symbols, from, to)
	return a.summarize(ctx, symbols, series)
}

// Correlation computes the correlation matrix of symbols over the period.
// It returns nil when no symbol has data.
func (a *Analyzer) Correlation(ctx context.Context, symbols []string, from, to time.Time) *model.CorrelationMatrix {
	return calculator.CalculateCorrelation(symbols, a.fetchAll(ctx, symbols, from, to))
}

// Beta computes the beta of symbol against benchmark. Empty benchmark means
// the configured one; zero bounds mean the last year.
func (a *Analyzer) Beta(ctx context.Context, symbol, benchmark string, from, to time.Time) (float64, bool) {
	if benchmark == "" {
		benchmark = a.opts.Benchmark
	}
	from, to = a.analysisBounds(from, to)
	asset := a.Series(ctx, symbol, from, to)
	if asset == nil {
		return 0, false
	}
	bench := a.Series(ctx, benchmark, from, to)
	if bench == nil {
		return 0, false
	}
	beta, ok := calculator.CalculateBeta(asset, bench)
	if !ok {
		a.logger.Debugf("beta of %s against %s not computable", symbol, benchmark)
	}
	return beta, ok
}

// Ratios computes the risk-adjusted ratios of symbol. A negative riskFree
// means the configured rate. Nil means not computable.
func (a *Analyzer) Ratios(ctx context.Context, symbol string, riskFree float64, from, to time.Time) *model.Ratios {
	if riskFree < 0 {
		riskFree = a.opts.RiskFreeRate
	}
	from, to = a.analysisBounds(from, to)
	bars := a.Series(ctx, symbol, from, to)
	if bars == nil {
		return nil
	}
	return calculator.CalculateRatios(bars, riskFree, calculator.TradingDaysPerYear)
}

func (a *Analyzer) analysisBounds(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = a.now()
	}
	if from.IsZero() {
		from = to.Add(-DefaultAnalysisLookback)
	}
	return from, to
}

// BuildReport assembles the market report from the configured indices and
// leaders. Each series is retrieved once. A symbol that fails is absent from
// its section; the report itself always builds.
func (a *Analyzer) BuildReport(ctx context.Context, from time.Time) *model.MarketReport {
	now := a.now()
	if from.IsZero() {
		from = now.Add(-a.opts.Lookback)
	}

	symbols := dedupe(append(append([]string(nil), a.opts.Leaders...), a.opts.Indices...))
	all := dedupe(append(append([]string(nil), symbols...), a.opts.Benchmark))
	a.logger.Infof("building market report for %d symbols from %s", len(all), from.Format(time.DateOnly))
	series := a.fetchAll(ctx, all, from, now)

	rep := &model.MarketReport{
		ID:          uuid.NewString(),
		GeneratedAt: now,
		PeriodFrom:  from,
		PeriodTo:    now,
		Benchmark:   a.opts.Benchmark,
		Indices:     make(map[string]model.IndexSummary),
		Betas:       make(map[string]float64),
	}

	for _, sym := range a.opts.Indices {
		bars, ok := series[sym]
		if !ok {
			continue
		}
		rep.Indices[sym] = model.IndexSummary{
			AnalyticsSummary: calculator.Summarize(bars),
			LastValue:        bars[len(bars)-1].Close,
		}
	}

	rep.Leaders = a.summarize(ctx, a.opts.Leaders, series)

	if bench, ok := series[a.opts.Benchmark]; ok {
		for _, sym := range a.opts.Leaders {
			bars, ok := series[sym]
			if !ok {
				continue
			}
			if beta, ok := calculator.CalculateBeta(bars, bench); ok {
				rep.Betas[sym] = beta
			}
		}
	} else {
		a.logger.Warnf("benchmark %s unavailable, betas skipped", a.opts.Benchmark)
	}

	rep.CorrelationMatrix = calculator.CalculateCorrelation(symbols, series)
	rep.TopPerformers = TopPerformers(rep.Leaders, a.opts.TopN)

	a.logger.Infof("report %s: %d indices, %d leaders, %d betas",
		rep.ID, len(rep.Indices), len(rep.Leaders), len(rep.Betas))
	return rep
}

// TopPerformers ranks summaries by total return, best first, ties by symbol.
func TopPerformers(summaries map[string]model.AnalyticsSummary, n int) []model.Performer {
	out := make([]model.Performer, 0, len(summaries))
	for sym, s := range summaries {
		out = append(out, model.Performer{Symbol: sym, TotalReturnPct: s.TotalPct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalReturnPct != out[j].TotalReturnPct {
			return out[i].TotalReturnPct > out[j].TotalReturnPct
		}
		return out[i].Symbol < out[j].Symbol
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// fetchAll retrieves each distinct symbol once, isolating failures.
func (a *Analyzer) fetchAll(ctx context.Context, symbols []string, from, to time.Time) map[string][]model.Bar {
	out := make(map[string][]model.Bar, len(symbols))
	for _, sym := range dedupe(symbols) {
		if ctx.Err() != nil {
			break
		}
		if bars := a.seriesIsolated(ctx, sym, from, to); len(bars) > 0 {
			out[sym] = bars
		}
	}
	return out
}

func (a *Analyzer) seriesIsolated(ctx context.Context, symbol string, from, to time.Time) (bars []model.Bar) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Errorf("processing %s: %v", symbol, r)
			bars = nil
		}
	}()
	return a.Series(ctx, symbol, from, to)
}

func (a *Analyzer) summarize(ctx context.Context, symbols []string, series map[string][]model.Bar) map[string]model.AnalyticsSummary {
	out := make(map[string]model.AnalyticsSummary)
	for _, sym := range symbols {
		bars, ok := series[sym]
		if !ok {
			continue
		}
		s := calculator.Summarize(bars)
		if inst := a.client.FetchInstrument(ctx, sym); inst != nil {
			s.DisplayName = inst.DisplayName
			s.AssetType = &inst.AssetType
			s.Market = &inst.Market
			s.Currency = &inst.Currency
		}
		out[sym] = s
	}
	return out
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
