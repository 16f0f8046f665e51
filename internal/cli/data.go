package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"MervalSentinel/internal/collector"
	"MervalSentinel/internal/model"
)

type historicalCmd struct {
	from     string
	to       string
	interval string
	raw      bool
}

func (*historicalCmd) Name() string     { return "historical" }
func (*historicalCmd) Synopsis() string { return "fetch the historical bar series of a symbol" }
func (*historicalCmd) Usage() string {
	return `sentinel historical [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-interval 1d] [-raw] <symbol>

  Prints the normalized bar series as {"status","data","metadata"} or the
  structured error {"status","message","code"}. Defaults to the last year of
  adjusted daily bars.
`
}

func (c *historicalCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "start date (defaults to one year ago)")
	f.StringVar(&c.to, "to", "", "end date (defaults to today)")
	f.StringVar(&c.interval, "interval", "1d", "bar granularity: 1m,2m,5m,15m,30m,60m,90m,1h,1d,5d,1wk,1mo,3mo")
	f.BoolVar(&c.raw, "raw", false, "request unadjusted prices")
}

func (c *historicalCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
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
	gran, err := model.ParseGranularity(c.interval)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	req := collector.NewHistoricalRequest(f.Arg(0))
	req.From, req.To, req.Granularity, req.Adjusted = from, to, gran, !c.raw
	res := app.Client.FetchHistorical(ctx, req)
	if status := app.printJSON(res); status != subcommands.ExitSuccess || !res.OK() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type latestCmd struct{}

func (*latestCmd) Name() string     { return "latest" }
func (*latestCmd) Synopsis() string { return "fetch the latest bar of a symbol" }
func (*latestCmd) Usage() string {
	return `sentinel latest <symbol>

  Prints the most recent bar, or null when none could be found in the last
  day, five days or month.
`
}
func (*latestCmd) SetFlags(*flag.FlagSet) {}

func (c *latestCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app, ok := appFrom(args)
	if !ok {
		return subcommands.ExitFailure
	}
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	bar := app.Client.FetchLatest(ctx, f.Arg(0))
	if status := app.printJSON(bar); status != subcommands.ExitSuccess || bar == nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type batchCmd struct{}

func (*batchCmd) Name() string     { return "batch" }
func (*batchCmd) Synopsis() string { return "fetch the latest bar of several symbols" }
func (*batchCmd) Usage() string {
	return `sentinel batch <symbol> [<symbol>...]

  Prints a symbol -> bar object. Symbols that could not be retrieved map to
  null; they never abort the others. Comma separated lists are accepted.
`
}
func (*batchCmd) SetFlags(*flag.FlagSet) {}

func (c *batchCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app, ok := appFrom(args)
	if !ok {
		return subcommands.ExitFailure
	}
	symbols := symbolArgs(f.Args())
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return app.printJSON(app.Client.FetchLatestBatch(ctx, symbols))
}

type instrumentCmd struct{}

func (*instrumentCmd) Name() string     { return "instrument" }
func (*instrumentCmd) Synopsis() string { return "resolve and classify a symbol" }
func (*instrumentCmd) Usage() string {
	return `sentinel instrument <symbol>

  Prints the instrument (provider symbol, asset type, market, currency,
  display name) or a NOT_FOUND error when it cannot be confirmed.
`
}
func (*instrumentCmd) SetFlags(*flag.FlagSet) {}

func (c *instrumentCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app, ok := appFrom(args)
	if !ok {
		return subcommands.ExitFailure
	}
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	sym := f.Arg(0)
	inst := app.Client.FetchInstrument(ctx, sym)
	if inst == nil {
		res := model.Fail[*model.Instrument](model.ErrNotFound, sym, app.Client.Resolver().Resolve(sym),
			fmt.Sprintf("instrument %s could not be confirmed", sym))
		app.printJSON(res)
		return subcommands.ExitFailure
	}
	return app.printJSON(inst)
}

type searchCmd struct{}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search local and known instruments" }
func (*searchCmd) Usage() string {
	return `sentinel search <query>

  Prints matching instruments listed locally or present in the symbol table.
`
}
func (*searchCmd) SetFlags(*flag.FlagSet) {}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app, ok := appFrom(args)
	if !ok {
		return subcommands.ExitFailure
	}
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return app.printJSON(app.Client.SearchInstruments(ctx, strings.Join(f.Args(), " ")))
}

// symbolArgs accepts both "A B" and "A,B".
func symbolArgs(args []string) []string {
	var out []string
	for _, a := range args {
		for _, s := range strings.Split(a, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
