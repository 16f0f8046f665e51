package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"MervalSentinel/internal/collector"
	"MervalSentinel/internal/config"
	"MervalSentinel/internal/logger"
	"MervalSentinel/internal/report"
)

// App carries the wired components shared by every subcommand.
type App struct {
	Config   *config.Config
	Logger   *zap.SugaredLogger
	Client   *collector.Client
	Analyzer *report.Analyzer
	Out      io.Writer
}

// Commands lists every subcommand, in help order.
var Commands = []subcommands.Command{
	&historicalCmd{},
	&latestCmd{},
	&batchCmd{},
	&instrumentCmd{},
	&searchCmd{},
	&correlationCmd{},
	&betaCmd{},
	&ratiosCmd{},
	&reportCmd{},
	&serveCmd{},
}

// NeedsApp reports whether the named subcommand runs against an App. Help,
// flags and unknown names are answered by the commander without config.
func NeedsApp(name string) bool {
	for _, c := range Commands {
		if c.Name() == name {
			return true
		}
	}
	return false
}

// NewApp loads configuration and wires the Yahoo-backed client and analyzer.
func NewApp() (*App, error) {
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	provider := collector.NewYahooProvider(collector.YahooOptions{
		BaseURL:           cfg.Provider.BaseURL,
		SearchURL:         cfg.Provider.SearchURL,
		Proxy:             cfg.Proxy,
		UserAgent:         cfg.Provider.UserAgent,
		Timeout:           cfg.Provider.Timeout,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		Burst:             cfg.Provider.Burst,
	}, log.Named("yahoo"))
	log.Infof("data source: %s", provider.Name())

	return Wire(cfg, provider, log), nil
}

// Wire builds an App around an arbitrary provider.
func Wire(cfg *config.Config, provider collector.Provider, log *zap.SugaredLogger) *App {
	client := collector.NewClient(provider, collector.NewMemoryCache(), log.Named("collector"))
	analyzer := report.NewAnalyzer(client, report.Options{
		Benchmark:    cfg.Report.Benchmark,
		Indices:      cfg.Report.Indices,
		Leaders:      cfg.Report.Leaders,
		Lookback:     cfg.Lookback(),
		RiskFreeRate: cfg.RiskFree(),
		TopN:         cfg.Report.TopN,
	}, log.Named("report"))
	return &App{Config: cfg, Logger: log, Client: client, Analyzer: analyzer, Out: os.Stdout}
}

func appFrom(args []interface{}) (*App, bool) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "internal error: no application context")
		return nil, false
	}
	app, ok := args[0].(*App)
	if !ok {
		fmt.Fprintln(os.Stderr, "internal error: bad application context")
	}
	return app, ok
}

func (a *App) printJSON(v interface{}) subcommands.ExitStatus {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// parseDate reads YYYY-MM-DD; empty yields the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	f, err := parseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	t, err := parseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !f.IsZero() && !t.IsZero() && t.Before(f) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", to, from)
	}
	return f, t, nil
}
