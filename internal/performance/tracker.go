package performance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Tracker owns the PerformanceState aggregate. It is not safe for concurrent
// use; the bot serializes access.
type Tracker struct {
	state model.PerformanceState
}

// NewTracker initializes balances from the configured initial balance.
func NewTracker(initial decimal.Decimal, now time.Time) *Tracker {
	return &Tracker{state: model.PerformanceState{
		InitialBalance:  initial,
		Balance:         initial,
		PeakBalance:     initial,
		DayStartBalance: initial,
		DailyProfitLoss: decimal.Zero,
		LastDayReset:    StartOfDay(now),
	}}
}

// State returns a copy of the current state.
func (t *Tracker) State() model.PerformanceState {
	return t.state
}

// Balance returns the current quote balance.
func (t *Tracker) Balance() decimal.Decimal {
	return t.state.Balance
}

// StartOfDay returns midnight of the calendar day of now, in now's location.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// ResetDaily starts a new trading day when now falls on a later calendar day
// than the last reset. It reports whether a reset happened.
func (t *Tracker) ResetDaily(now time.Time) bool {
	day := StartOfDay(now)
	if !day.After(t.state.LastDayReset) {
		return false
	}
	t.state.DayStartBalance = t.state.Balance
	t.state.DailyProfitLoss = decimal.Zero
	t.state.LastDayReset = day
	return true
}

// Debit removes amount from the balance.
func (t *Tracker) Debit(amount decimal.Decimal) {
	t.state.Balance = t.state.Balance.Sub(amount)
}

// Credit adds amount to the balance.
func (t *Tracker) Credit(amount decimal.Decimal) {
	t.state.Balance = t.state.Balance.Add(amount)
}

// RecordClose updates win/loss counters and daily P/L for a realized profit.
// Break-even trades count as losses.
func (t *Tracker) RecordClose(profit decimal.Decimal) {
	t.state.DailyProfitLoss = t.state.DailyProfitLoss.Add(profit)
	if profit.IsPositive() {
		t.state.WinningTrades++
		t.state.ConsecutiveLosses = 0
		return
	}
	t.state.LosingTrades++
	t.state.ConsecutiveLosses++
}

// ObserveBalance refreshes the peak balance, the current drawdown and the
// running maximum drawdown. Called after every trade attempt.
func (t *Tracker) ObserveBalance() {
	if t.state.Balance.GreaterThan(t.state.PeakBalance) {
		t.state.PeakBalance = t.state.Balance
	}
	t.state.CurrentDrawdown = 0
	if t.state.PeakBalance.IsPositive() {
		t.state.CurrentDrawdown = t.state.PeakBalance.Sub(t.state.Balance).
			Div(t.state.PeakBalance).InexactFloat64()
	}
	if t.state.CurrentDrawdown > t.state.MaxDrawdownObserved {
		t.state.MaxDrawdownObserved = t.state.CurrentDrawdown
	}
}

// DailyReturnPct is (balance/dayStartBalance - 1) * 100.
func (t *Tracker) DailyReturnPct() float64 {
	return returnPct(t.state.Balance, t.state.DayStartBalance)
}

// TotalReturnPct is (balance/initialBalance - 1) * 100.
func (t *Tracker) TotalReturnPct() float64 {
	return returnPct(t.state.Balance, t.state.InitialBalance)
}

// WinRatePct is the share of winning closed trades, 0 when nothing was closed.
func (t *Tracker) WinRatePct() float64 {
	total := t.state.WinningTrades + t.state.LosingTrades
	if total == 0 {
		return 0
	}
	return float64(t.state.WinningTrades) / float64(total) * 100
}

// MaxDrawdownPct is the running maximum drawdown in percent.
func (t *Tracker) MaxDrawdownPct() float64 {
	return t.state.MaxDrawdownObserved * 100
}

// Summary collects the derived metrics for display.
func (t *Tracker) Summary(openPositions int) model.PerformanceSummary {
	return model.PerformanceSummary{
		InitialBalance:  t.state.InitialBalance,
		Balance:         t.state.Balance,
		DailyReturnPct:  t.DailyReturnPct(),
		TotalReturnPct:  t.TotalReturnPct(),
		DailyProfitLoss: t.state.DailyProfitLoss,
		OpenPositions:   openPositions,
		WinRatePct:      t.WinRatePct(),
		MaxDrawdownPct:  t.MaxDrawdownPct(),
		Trades:          t.state.WinningTrades + t.state.LosingTrades,
	}
}

func returnPct(balance, base decimal.Decimal) float64 {
	if !base.IsPositive() {
		return 0
	}
	return balance.Div(base).Sub(decimal.NewFromInt(1)).Mul(hundred).InexactFloat64()
}
