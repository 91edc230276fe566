package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"SmartRental/internal/model"
	"SmartRental/internal/recorder"
)

// Style selects the markup of a report.
type Style int

const (
	Plain Style = iota
	TelegramHTML
)

var printer = message.NewPrinter(language.Spanish)

// Money rounds to cents and formats with Spanish grouping, e.g. "170.000,00 €".
func Money(v float64) string {
	cents := decimal.NewFromFloat(v).Round(2)
	f, _ := cents.Float64()
	return printer.Sprintf("%.2f €", f)
}

// Percent formats a rate such as 0.1723 as "17,23 %".
func Percent(v float64) string {
	r, _ := decimal.NewFromFloat(v * 100).Round(2).Float64()
	return printer.Sprintf("%.2f %%", r)
}

func bold(style Style, s string) string {
	if style == TelegramHTML {
		return "<b>" + html.EscapeString(s) + "</b>"
	}
	return s
}

func text(style Style, s string) string {
	if style == TelegramHTML {
		return html.EscapeString(s)
	}
	return s
}

// FormatEvaluation renders one evaluation.
func FormatEvaluation(ev *model.Evaluation, style Style) string {
	var b strings.Builder

	title := "SmartRental"
	if ev.Name != "" {
		title += " | " + ev.Name
	}
	b.WriteString(bold(style, title) + "\n\n")

	source := string(ev.PriceSource)
	if ev.OracleName != "" {
		source += " (" + ev.OracleName + ")"
	}
	b.WriteString(fmt.Sprintf("Precio por noche: %s [%s]\n", Money(ev.NightlyPrice), text(style, source)))
	a := ev.Assumptions
	b.WriteString(fmt.Sprintf("Ocupación: %s | Costes operativos: %s | Horizonte: %d años\n",
		Percent(a.OccupancyRatio), Percent(a.OperatingCostRatio), a.HorizonYears))
	b.WriteString(fmt.Sprintf("Inversión inicial: %s\n", Money(ev.Costs.InitialOutlay())))
	if ev.Costs.AnnualAdminCost > 0 {
		b.WriteString(fmt.Sprintf("Gastos de administración: %s/año\n", Money(ev.Costs.AnnualAdminCost)))
	}
	terminal := a.Terminal.Resolve(ev.Costs)
	if terminal.Mode != model.TerminalNone {
		b.WriteString(fmt.Sprintf("Valor terminal: %s (%s)\n", Money(terminal.Value), terminal.Mode))
	}
	if len(ev.CashFlows) > 1 {
		b.WriteString(fmt.Sprintf("Flujo neto anual: %s\n", Money(ev.CashFlows[1])))
	}

	for _, w := range ev.Warnings {
		b.WriteString(fmt.Sprintf("Aviso: %s\n", text(style, w.Message)))
	}
	b.WriteString("\n")

	if ev.Failed() {
		b.WriteString(fmt.Sprintf("%s: %s\n", bold(style, "Sin resultado"), text(style, ev.FailureKind)))
		b.WriteString(text(style, ev.FailureMessage) + "\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("TIR: %s (objetivo %s)\n", bold(style, Percent(*ev.IRR)), Percent(a.TargetRate)))
	if ev.NPVAtTarget != nil {
		b.WriteString(fmt.Sprintf("VAN al objetivo: %s\n", Money(*ev.NPVAtTarget)))
	}
	verdict := "No recomendable"
	if ev.Verdict == model.VerdictFavorable {
		verdict = "Inversión favorable"
	}
	b.WriteString(fmt.Sprintf("Recomendación: %s (%s)\n", bold(style, verdict), text(style, ev.Rating)))
	return b.String()
}

// FormatWatchSummary renders the outcome of a watchlist run.
func FormatWatchSummary(evs []*model.Evaluation, style Style) string {
	var b strings.Builder
	b.WriteString(bold(style, "SmartRental | revisión de cartera") + "\n\n")
	for _, ev := range evs {
		switch {
		case ev.Failed():
			b.WriteString(fmt.Sprintf("• %s: %s\n", text(style, ev.Name), text(style, ev.FailureKind)))
		default:
			b.WriteString(fmt.Sprintf("• %s: TIR %s → %s\n", text(style, ev.Name), Percent(*ev.IRR), ev.Verdict))
		}
	}
	return b.String()
}

// FormatHistory renders stored evaluations, newest first.
func FormatHistory(rows []recorder.Summary) string {
	if len(rows) == 0 {
		return "Sin evaluaciones registradas"
	}
	var b strings.Builder
	for _, r := range rows {
		irr := "n/d"
		if r.IRR != nil {
			irr = Percent(*r.IRR)
		}
		status := string(r.Verdict)
		if r.FailureKind != "" {
			status = r.FailureKind
		}
		b.WriteString(fmt.Sprintf("%s  %-20s %12s  TIR %9s  %s\n",
			r.EvaluatedAt.Format("2006-01-02 15:04"), r.Name, Money(r.NightlyPrice), irr, status))
	}
	return b.String()
}
