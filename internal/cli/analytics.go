package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"MervalSentinel/internal/model"
	"MervalSentinel/internal/notifier"
)

type correlationCmd struct {
	from string
	to   string
}

func (*correlationCmd) Name() string     { return "correlation" }
func (*correlationCmd) Synopsis() string { return "correlation matrix of daily returns" }
func (*correlationCmd) Usage() string {
	return `sentinel correlation [-from YYYY-MM-DD] [-to YYYY-MM-DD] <symbol> <symbol>...

  Prints a symbol -> symbol -> correlation object over the dates every symbol
  traded. Symbols without data are left out; null marks an undefined pair.
`
}

func (c *correlationCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "start date (defaults to one year ago)")
	f.StringVar(&c.to, "to", "", "end date (defaults to today)")
}

func (c *correlationCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app, ok := appFrom(args)
	if !ok {
		return subcommands.ExitFailure
	}
	symbols := symbolArgs(f.Args())
	if len(symbols) < 2 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	from, to, err := parseRange(c.from, c.to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	m := app.Analyzer.Correlation(ctx, symbols, from, to)
	if m == nil {
		app.printJSON(model.Fail[*model.CorrelationMatrix](model.ErrNoDataInRange, symbols[0], "",
			"no symbol returned data for the requested period"))
		return subcommands.ExitFailure
	}
	return app.printJSON(m)
}

type betaCmd struct {
	benchmark string
	from      string
	to        string
}

func (*betaCmd) Name() string     { return "beta" }
func (*betaCmd) Synopsis() string { return "beta of a symbol against the benchmark" }
func (*betaCmd) Usage() string {
	return `sentinel beta [-benchmark MERVAL] [-from YYYY-MM-DD] [-to YYYY-MM-DD] <symbol>

  Needs at least 30 dates traded by both the symbol and the benchmark.
`
}

func (c *betaCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.benchmark, "benchmark", "", "benchmark symbol (defaults to the configured one)")
	f.StringVar(&c.from, "from", "", "start date (defaults to one year before -to)")
	f.StringVar(&c.to, "to", "", "end date (defaults to today)")
}

func (c *betaCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app, ok := appFrom(args)
	if !ok {
		return subcommands.ExitFailure
	}
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	from, to, err := parseRange(c.from, c.to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	sym := f.Arg(0)
	bench := c.benchmark
	if bench == "" {
		bench = app.Analyzer.Options().Benchmark
	}
	beta, ok := app.Analyzer.Beta(ctx, sym, bench, from, to)
	if !ok {
		app.printJSON(model.Fail[float64](model.ErrInsufficientData, sym, "",
			fmt.Sprintf("beta of %s against %s needs at least 30 common dates", sym, bench)))
		return subcommands.ExitFailure
	}
	return app.printJSON(map[string]interface{}{"symbol": sym, "benchmark": bench, "beta": beta})
}

type ratiosCmd struct {
	rate float64
	from string
	to   string
}

func (*ratiosCmd) Name() string     { return "ratios" }
func (*ratiosCmd) Synopsis() string { return "annualized return, volatility, Sharpe, Sortino and drawdown" }
func (*ratiosCmd) Usage() string {
	return `sentinel ratios [-rate 0.01] [-from YYYY-MM-DD] [-to YYYY-MM-DD] <symbol>
`
}

func (c *ratiosCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.rate, "rate", -1, "annual risk-free rate as a fraction (defaults to the configured one)")
	f.StringVar(&c.from, "from", "", "start date (defaults to one year before -to)")
	f.StringVar(&c.to, "to", "", "end date (defaults to today)")
}

func (c *ratiosCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app, ok := appFrom(args)
	if !ok {
		return subcommands.ExitFailure
	}
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	from, to, err := parseRange(c.from, c.to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	sym := f.Arg(0)
	r := app.Analyzer.Ratios(ctx, sym, c.rate, from, to)
	if r == nil {
		app.printJSON(model.Fail[*model.Ratios](model.ErrInsufficientData, sym, "",
			fmt.Sprintf("ratios for %s need at least two daily returns", sym)))
		return subcommands.ExitFailure
	}
	return app.printJSON(r)
}

type reportCmd struct {
	from   string
	asJSON bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "build the market report" }
func (*reportCmd) Usage() string {
	return `sentinel report [-from YYYY-MM-DD] [-json]

  Builds the report over the configured indices and leaders. The default
  period is the configured lookback, 90 days unless changed.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "start of the report period")
	f.BoolVar(&c.asJSON, "json", false, "print JSON instead of the text rendering")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app, ok := appFrom(args)
	if !ok {
		return subcommands.ExitFailure
	}
	from, err := parseDate(c.from)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	rep := app.Analyzer.BuildReport(ctx, from)
	if c.asJSON {
		return app.printJSON(rep)
	}
	fmt.Fprintln(app.Out, notifier.FormatReport(rep))
	return subcommands.ExitSuccess
}
