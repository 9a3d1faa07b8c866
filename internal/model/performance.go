package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PerformanceState is the single mutable aggregate of account performance.
type PerformanceState struct {
	InitialBalance      decimal.Decimal
	Balance             decimal.Decimal
	PeakBalance         decimal.Decimal
	DayStartBalance     decimal.Decimal
	DailyProfitLoss     decimal.Decimal
	WinningTrades       int
	LosingTrades        int
	ConsecutiveLosses   int
	CurrentDrawdown     float64
	MaxDrawdownObserved float64
	LastDayReset        time.Time
}

// PerformanceSummary holds read-only derived metrics for display.
type PerformanceSummary struct {
	InitialBalance  decimal.Decimal
	Balance         decimal.Decimal
	DailyReturnPct  float64
	TotalReturnPct  float64
	DailyProfitLoss decimal.Decimal
	OpenPositions   int
	WinRatePct      float64
	MaxDrawdownPct  float64
	Trades          int
}
