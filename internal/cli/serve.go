package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"MervalSentinel/internal/notifier"
	"MervalSentinel/internal/scheduler"
)

type serveCmd struct {
	runOnStart bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the scheduled market report until interrupted" }
func (*serveCmd) Usage() string {
	return `sentinel serve [-now]

  Builds and sends the market report on the configured cron schedule. With
  Telegram configured the report goes to the chat and chat commands are
  answered; otherwise the report is logged. RUN_ON_START=true is the same
  as -now.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.runOnStart, "now", false, "also build a report right away")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app, ok := appFrom(args)
	if !ok {
		return subcommands.ExitFailure
	}
	log := app.Logger
	cfg := app.Config

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sink notifier.Sink = notifier.LogSink{Logger: log}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log.Named("telegram"))
		sink = tn
	} else {
		log.Warn("telegram not configured, reports will be logged")
	}

	sched := scheduler.NewScheduler(ctx, app.Client, app.Analyzer, sink, log.Named("scheduler"))
	if err := sched.Register(cfg.Report.Cron); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if c.runOnStart || os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, building report now")
		go sched.RunReportNow()
	}

	log.Infof("MervalSentinel is running, report cron %q. Press Ctrl+C to stop.", cfg.Report.Cron)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()
	return subcommands.ExitSuccess
}
