package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is an open long position owned by the portfolio manager.
type Position struct {
	ID              string
	EntryPrice      decimal.Decimal
	Size            decimal.Decimal
	OpenedAt        time.Time
	StopLossPrice   decimal.Decimal
	TakeProfitPrice decimal.Decimal
}

// Cost is the quote amount debited when the position was opened.
func (p Position) Cost() decimal.Decimal {
	return p.Size.Mul(p.EntryPrice)
}

// CloseReason records why a position was closed.
type CloseReason string

const (
	CloseSignal     CloseReason = "SIGNAL"
	CloseStopLoss   CloseReason = "STOP_LOSS"
	CloseTakeProfit CloseReason = "TAKE_PROFIT"
)

// ClosedTrade is the realized result of closing a position.
type ClosedTrade struct {
	Position     Position
	ExitPrice    decimal.Decimal
	Proceeds     decimal.Decimal
	Profit       decimal.Decimal
	ProfitPct    decimal.Decimal
	ClosedAt     time.Time
	Reason       CloseReason
	Confirmation Confirmation
}

// Won reports whether the trade realized a strictly positive profit.
func (t ClosedTrade) Won() bool {
	return t.Profit.IsPositive()
}
