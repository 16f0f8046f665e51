package notifier

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"MervalSentinel/internal/model"
)

const (
	nameWidth          = 25
	correlationExcerpt = 5
	rule               = "────────────────────────────────────────"
)

// FormatReport renders a market report as a Telegram HTML message.
func FormatReport(rep *model.MarketReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Reporte de Mercado Argentino</b> | %s\n", rep.GeneratedAt.Format("02/01/2006 15:04")))
	b.WriteString(fmt.Sprintf("Período: %s al %s\n\n",
		rep.PeriodFrom.Format("02/01/2006"), rep.PeriodTo.Format("02/01/2006")))

	// Indices
	b.WriteString("📈 <b>Índices</b>\n<pre>")
	b.WriteString(fmt.Sprintf("%-8s %12s %9s %9s %9s\n", "Índice", "Último", "Total%", "Anual%", "Vol%"))
	for _, sym := range sortedKeys(rep.Indices) {
		s := rep.Indices[sym]
		b.WriteString(fmt.Sprintf("%-8s %12s %9s %9s %9s\n",
			html.EscapeString(sym), num(s.LastValue), num(s.TotalPct), num(s.AnnualizedPct), num(s.VolatilityPct)))
	}
	if len(rep.Indices) == 0 {
		b.WriteString("sin datos\n")
	}
	b.WriteString("</pre>\n")

	// Leaders
	b.WriteString("🏦 <b>Acciones líderes</b>\n<pre>")
	b.WriteString(fmt.Sprintf("%-6s %-*s %12s %9s %6s\n", "Símb.", nameWidth, "Denominación", "Precio", "Total%", "Beta"))
	for _, sym := range sortedKeys(rep.Leaders) {
		s := rep.Leaders[sym]
		name := s.DisplayName
		if name == "" {
			name = sym
		}
		beta := "N/A"
		if v, ok := rep.Betas[sym]; ok {
			beta = num(v)
		}
		b.WriteString(fmt.Sprintf("%-6s %-*s %12s %9s %6s\n",
			html.EscapeString(sym), nameWidth, html.EscapeString(truncate(name, nameWidth)),
			num(s.LastPrice), num(s.TotalPct), beta))
	}
	if len(rep.Leaders) == 0 {
		b.WriteString("sin datos\n")
	}
	b.WriteString("</pre>\n")

	if len(rep.TopPerformers) > 0 {
		b.WriteString(fmt.Sprintf("🏆 <b>Top %d rendimientos</b>\n", len(rep.TopPerformers)))
		for i, p := range rep.TopPerformers {
			b.WriteString(fmt.Sprintf("%d. %s: %s%%\n", i+1, html.EscapeString(p.Symbol), num(p.TotalReturnPct)))
		}
		b.WriteString("\n")
	}

	if rep.CorrelationMatrix != nil {
		b.WriteString("🔗 <b>Correlación (extracto)</b>\n<pre>")
		b.WriteString(FormatCorrelation(rep.CorrelationMatrix.Sub(correlationExcerpt)))
		b.WriteString("</pre>\n")
	}

	b.WriteString(rule)
	return b.String()
}

// FormatCorrelation renders a plain-text correlation table.
func FormatCorrelation(m *model.CorrelationMatrix) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-8s", ""))
	for _, sym := range m.Symbols {
		b.WriteString(fmt.Sprintf(" %7s", truncate(sym, 7)))
	}
	b.WriteString("\n")
	for i, a := range m.Symbols {
		b.WriteString(fmt.Sprintf("%-8s", truncate(a, 8)))
		for j := range m.Symbols {
			b.WriteString(fmt.Sprintf(" %7s", num(m.Values[i][j])))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// LatestLine is one row of FormatLatest.
type LatestLine struct {
	Symbol string
	Bar    *model.Bar
}

// FormatLatest renders a batch of latest bars, one symbol per line.
func FormatLatest(entries []LatestLine) string {
	var b strings.Builder
	b.WriteString("💹 <b>Últimos precios</b>\n")
	for _, e := range entries {
		if e.Bar == nil {
			b.WriteString(fmt.Sprintf("%s: sin datos\n", html.EscapeString(e.Symbol)))
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %s (%s)\n",
			html.EscapeString(e.Symbol), num(e.Bar.Close), e.Bar.Timestamp.Format("02/01/2006")))
	}
	return b.String()
}

// FormatRatios renders the risk-adjusted ratios of symbol.
func FormatRatios(symbol string, r *model.Ratios) string {
	if r == nil {
		return fmt.Sprintf("%s: ratios no calculables", html.EscapeString(symbol))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📐 <b>Ratios %s</b>\n", html.EscapeString(symbol)))
	b.WriteString(fmt.Sprintf("Rend. anualizado: %s%%\n", num(r.AnnualizedReturnPct)))
	b.WriteString(fmt.Sprintf("Volatilidad anual: %s%%\n", num(r.AnnualizedVolatilityPct)))
	b.WriteString(fmt.Sprintf("Sharpe: %s | Sortino: %s\n", num(r.Sharpe), num(r.Sortino)))
	b.WriteString(fmt.Sprintf("Máx. drawdown: %s%%\n", num(r.MaxDrawdownPct)))
	return b.String()
}

// num renders v with two decimals. Non-finite values and saturated
// annualized figures print as N/A.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= math.MaxFloat64 {
		return "N/A"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
