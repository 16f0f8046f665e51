package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MervalSentinel/internal/collector"
	"MervalSentinel/internal/report"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (r *recordingSink) Send(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, text)
	return r.err
}

func (r *recordingSink) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func closes(n int, k float64) []float64 {
	pattern := []float64{0.01, -0.005, 0.02, -0.01, 0.004}
	out := []float64{100}
	for i := 1; i < n; i++ {
		out = append(out, out[i-1]*(1+k*pattern[i%len(pattern)]))
	}
	return out
}

func newTestScheduler(t *testing.T) (*Scheduler, *recordingSink, *collector.MockProvider) {
	t.Helper()
	p := collector.NewMockProvider()
	p.Series["^MERV"] = collector.GenerateSeries("^MERV", day0, closes(40, 1)...)
	p.Series["GGAL.BA"] = collector.GenerateSeries("GGAL.BA", day0, closes(40, 2)...)
	p.Series["GGAL.BA|1d"] = collector.GenerateSeries("GGAL.BA", day0, 4200)
	p.Meta["GGAL.BA"] = map[string]string{"shortName": "GALICIA"}

	client := collector.NewClient(p, nil, nil)
	analyzer := report.NewAnalyzer(client, report.Options{Leaders: []string{"GGAL", "PAMP"}}, nil)
	sink := &recordingSink{}
	return NewScheduler(context.Background(), client, analyzer, sink, nil), sink, p
}

func TestRunReportNow_SendsReport(t *testing.T) {
	s, sink, _ := newTestScheduler(t)

	require.True(t, s.RunReportNow())
	msgs := sink.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Reporte de Mercado Argentino")
	assert.Contains(t, msgs[0], "GALICIA")
	assert.Contains(t, msgs[0], "MERVAL")
}

func TestRunReportNow_SkipsWhenRunning(t *testing.T) {
	s, sink, _ := newTestScheduler(t)

	s.running.Lock()
	assert.False(t, s.RunReportNow())
	assert.Equal(t, "ya hay un reporte en curso", s.HandleCommand(context.Background(), "/report", nil))
	s.running.Unlock()

	assert.Empty(t, sink.messages())
}

func TestRunReportNow_SendFailureIsLogged(t *testing.T) {
	s, sink, _ := newTestScheduler(t)
	sink.err = errors.New("network down")
	assert.True(t, s.RunReportNow())
}

func TestRegister(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	require.NoError(t, s.Register("0 0 18 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.Register("not a cron"))

	s.Start()
	s.Stop()
}

func TestHandleCommand(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	ctx := context.Background()

	latest := s.HandleCommand(ctx, "/latest", []string{"ggal", "nope"})
	assert.Contains(t, latest, "GGAL: 4200.00")
	assert.Contains(t, latest, "NOPE: sin datos")

	assert.Equal(t, "Beta GGAL: 2.00", s.HandleCommand(ctx, "/beta", []string{"ggal"}))
	assert.Contains(t, s.HandleCommand(ctx, "/beta", []string{"NOPE"}), "datos insuficientes")

	assert.Contains(t, s.HandleCommand(ctx, "/ratios", []string{"GGAL"}), "Sharpe")
	assert.Contains(t, s.HandleCommand(ctx, "/latest", nil), "uso:")
	assert.Contains(t, s.HandleCommand(ctx, "/help", nil), "/report")
}
