package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"MervalSentinel/internal/collector"
	"MervalSentinel/internal/notifier"
	"MervalSentinel/internal/report"
)

const sendRetries = 3

// Scheduler runs the periodic market report and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Analyzer *report.Analyzer
	Client   *collector.Client
	Sink     notifier.Sink
	Ctx      context.Context

	logger  *zap.SugaredLogger
	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, client *collector.Client, analyzer *report.Analyzer, sink notifier.Sink, logger *zap.SugaredLogger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	cl := cronLogger{logger}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		Analyzer: analyzer,
		Client:   client,
		Sink:     sink,
		Ctx:      ctx,
		logger:   logger,
	}
}

// Register schedules the market report on the given six-field cron spec.
func (s *Scheduler) Register(reportCron string) error {
	if _, err := s.Cron.AddFunc(reportCron, func() { s.RunReportNow() }); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running report to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunReportNow builds and sends the report immediately. It returns false
// without doing anything when a report is already being built.
func (s *Scheduler) RunReportNow() bool {
	if !s.running.TryLock() {
		s.logger.Warn("report already running, skipping")
		return false
	}
	defer s.running.Unlock()

	start := time.Now()
	s.logger.Info("running market report")
	rep := s.Analyzer.BuildReport(s.Ctx, time.Time{})
	s.trySend(notifier.FormatReport(rep))
	s.logger.Infof("market report %s done in %v", rep.ID, time.Since(start).Round(time.Millisecond))
	return true
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string, args []string) string {
	switch command {
	case "/report", "/reporte":
		if !s.RunReportNow() {
			return "ya hay un reporte en curso"
		}
		return ""
	case "/latest", "/ultimo":
		if len(args) == 0 {
			return "uso: /latest SIMBOLO [SIMBOLO...]"
		}
		batch := s.Client.FetchLatestBatch(ctx, upper(args))
		lines := make([]notifier.LatestLine, 0, len(batch))
		for _, e := range batch {
			lines = append(lines, notifier.LatestLine{Symbol: e.Symbol, Bar: e.Bar})
		}
		return notifier.FormatLatest(lines)
	case "/beta":
		if len(args) == 0 {
			return "uso: /beta SIMBOLO [BENCHMARK]"
		}
		args = upper(args)
		bench := ""
		if len(args) > 1 {
			bench = args[1]
		}
		beta, ok := s.Analyzer.Beta(ctx, args[0], bench, time.Time{}, time.Time{})
		if !ok {
			return fmt.Sprintf("%s: datos insuficientes para beta", args[0])
		}
		return fmt.Sprintf("Beta %s: %.2f", args[0], beta)
	case "/ratios":
		if len(args) == 0 {
			return "uso: /ratios SIMBOLO"
		}
		sym := strings.ToUpper(args[0])
		return notifier.FormatRatios(sym, s.Analyzer.Ratios(ctx, sym, -1, time.Time{}, time.Time{}))
	default:
		return "Comandos disponibles:\n• /report\n• /latest GGAL YPFD\n• /beta GGAL\n• /ratios GGAL"
	}
}

func (s *Scheduler) trySend(text string) {
	var err error
	if r, ok := s.Sink.(interface {
		SendWithRetry(ctx context.Context, text string, maxRetries int) error
	}); ok {
		err = r.SendWithRetry(s.Ctx, text, sendRetries)
	} else {
		err = s.Sink.Send(s.Ctx, text)
	}
	if err != nil {
		s.logger.Errorf("send notification: %v", err)
	}
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}

// cronLogger routes cron's internal logging through zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
