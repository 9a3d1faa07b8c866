package recorder

import (
	"time"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
)

// CycleEvent holds the outcome of one trading cycle.
type CycleEvent struct {
	At        time.Time
	Decision  model.Decision
	MidPrice  float64
	Balance   float64
	Positions int
	Drawdown  float64
	ErrorKind string // empty on success
	Error     string
}

// TradeEvent records a filled buy or sell.
type TradeEvent struct {
	At          time.Time
	Side        model.Side
	PositionID  string
	Price       string
	Size        string
	Amount      string // cost for buys, proceeds for sells
	Profit      string // empty for buys
	ProfitPct   float64
	CloseReason string
	OrderID     string
	Simulated   bool
}

// DailySummary records the performance snapshot sent at the end of a day.
type DailySummary struct {
	At      time.Time
	Summary model.PerformanceSummary
}

// Recorder persists a write-only journal of the bot's activity.
type Recorder interface {
	RecordCycle(evt *CycleEvent) error
	RecordTrade(evt *TradeEvent) error
	RecordDailySummary(evt *DailySummary) error
	Close() error
}

// BuyEvent builds the journal entry for an opened position.
func BuyEvent(pos model.Position) *TradeEvent {
	return &TradeEvent{
		At:         pos.OpenedAt,
		Side:       model.SideBuy,
		PositionID: pos.ID,
		Price:      pos.EntryPrice.String(),
		Size:       pos.Size.String(),
		Amount:     pos.Cost().String(),
	}
}

// SellEvent builds the journal entry for a closed trade.
func SellEvent(trade model.ClosedTrade) *TradeEvent {
	return &TradeEvent{
		At:          trade.ClosedAt,
		Side:        model.SideSell,
		PositionID:  trade.Position.ID,
		Price:       trade.ExitPrice.String(),
		Size:        trade.Position.Size.String(),
		Amount:      trade.Proceeds.String(),
		Profit:      trade.Profit.String(),
		ProfitPct:   trade.ProfitPct.InexactFloat64(),
		CloseReason: string(trade.Reason),
		OrderID:     trade.Confirmation.OrderID,
		Simulated:   trade.Confirmation.Simulated,
	}
}
