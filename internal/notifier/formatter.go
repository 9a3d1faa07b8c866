package notifier

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
)

// FormatPerformance renders the performance summary shown after each cycle
// and in the daily report.
func FormatPerformance(title string, s model.PerformanceSummary, at time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", title, at.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Initial balance: %s\n", s.InitialBalance.StringFixed(4)))
	b.WriteString(fmt.Sprintf("Current balance: %s\n", s.Balance.StringFixed(4)))
	b.WriteString(fmt.Sprintf("Daily return: %+.2f%%\n", s.DailyReturnPct))
	b.WriteString(fmt.Sprintf("Total return: %+.2f%%\n", s.TotalReturnPct))
	b.WriteString(fmt.Sprintf("Daily P/L: %s\n", signed(s.DailyProfitLoss, 6)))
	b.WriteString(fmt.Sprintf("Active positions: %d\n", s.OpenPositions))
	b.WriteString(fmt.Sprintf("Win rate: %.1f%% (%d trades)\n", s.WinRatePct, s.Trades))
	b.WriteString(fmt.Sprintf("Max drawdown: %.2f%%\n", s.MaxDrawdownPct))
	return b.String()
}

// FormatBuy announces an opened position.
func FormatBuy(pos model.Position, d model.Decision) string {
	var b strings.Builder
	b.WriteString("🟢 <b>BUY</b>\n\n")
	b.WriteString(fmt.Sprintf("Price: %s\n", price(pos.EntryPrice)))
	b.WriteString(fmt.Sprintf("Size: %s\n", pos.Size.StringFixed(6)))
	b.WriteString(fmt.Sprintf("Cost: %s\n", pos.Cost().StringFixed(4)))
	b.WriteString(fmt.Sprintf("Stop loss: %s | Take profit: %s\n",
		price(pos.StopLossPrice), price(pos.TakeProfitPrice)))
	b.WriteString(fmt.Sprintf("Reason: %s\n", html.EscapeString(d.Reason)))
	return b.String()
}

// FormatSell announces a closed trade with its realized result.
func FormatSell(trade model.ClosedTrade) string {
	var b strings.Builder
	icon := "🔴"
	if trade.Won() {
		icon = "✅"
	}
	b.WriteString(fmt.Sprintf("%s <b>SELL</b> (%s)\n\n", icon, trade.Reason))
	b.WriteString(fmt.Sprintf("Entry: %s → Exit: %s\n",
		price(trade.Position.EntryPrice), price(trade.ExitPrice)))
	b.WriteString(fmt.Sprintf("Size: %s\n", trade.Position.Size.StringFixed(6)))
	b.WriteString(fmt.Sprintf("Profit: %s (%s%%)\n", signed(trade.Profit, 6), signed(trade.ProfitPct, 2)))
	if trade.Confirmation.Simulated {
		b.WriteString("(simulated)\n")
	}
	return b.String()
}

// FormatPositions lists open positions, oldest first.
func FormatPositions(positions []model.Position) string {
	if len(positions) == 0 {
		return "📦 No open positions"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Open positions (%d)</b>\n\n", len(positions)))
	for i, p := range positions {
		b.WriteString(fmt.Sprintf("%d. %s @ %s | SL %s | TP %s | %s\n",
			i+1, p.Size.StringFixed(6), price(p.EntryPrice),
			price(p.StopLossPrice), price(p.TakeProfitPrice),
			p.OpenedAt.Format("01-02 15:04")))
	}
	return b.String()
}

// FormatFailure reports a failed cycle.
func FormatFailure(err error) string {
	var b strings.Builder
	b.WriteString("⚠️ <b>Cycle failed</b>\n\n")
	b.WriteString(fmt.Sprintf("Kind: %s\n", model.KindOf(err)))
	var ee *model.ExecutionError
	if errors.As(err, &ee) {
		b.WriteString(fmt.Sprintf("Order: %s (%s)\n", ee.Side, ee.Reason))
	}
	b.WriteString(fmt.Sprintf("Error: %s\n", html.EscapeString(err.Error())))
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("🤖 <b>Commands</b>\n\n")
	b.WriteString("/status - performance summary\n")
	b.WriteString("/positions - open positions\n")
	b.WriteString("/help - this message\n")
	return b.String()
}

func signed(v decimal.Decimal, places int32) string {
	if v.IsNegative() {
		return v.StringFixed(places)
	}
	return "+" + v.StringFixed(places)
}

// price keeps four decimals for prices of 0.1 and above and extends the
// precision for smaller prices so at least four significant digits remain.
func price(v decimal.Decimal) string {
	places := int32(4)
	a := v.Abs()
	for places < 18 && !a.IsZero() && a.LessThan(decimal.New(1, 3-places)) {
		places++
	}
	return v.StringFixed(places)
}
