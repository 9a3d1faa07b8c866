package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
)

// Input is everything the generator looks at for one cycle.
type Input struct {
	Snapshot        model.MarketSnapshot
	Metrics         model.Metrics
	Balance         decimal.Decimal
	DayStartBalance decimal.Decimal
	CurrentDrawdown float64
}

// Evaluate emits one decision from scratch; it keeps no memory of earlier cycles.
func Evaluate(p Params, in Input) model.Decision {
	m := in.Metrics
	m.Spread = in.Snapshot.Spread.InexactFloat64()
	m.Volume = in.Snapshot.Volume.InexactFloat64()

	// Step a: gates that must all pass before any trade
	if !m.RSIDefined {
		return model.Hold(ReasonInsufficientRSI, m)
	}
	if !sufficientLiquidity(p, m.Volume, m.VolumeMA) {
		return model.Hold(ReasonLowLiquidity, m)
	}
	if !acceptableSpread(p, in.Snapshot.Spread, in.Snapshot.MidPrice) {
		return model.Hold(ReasonWideSpread, m)
	}
	if !withinDrawdown(p, in.CurrentDrawdown) {
		return model.Hold(ReasonDrawdownHalt, m)
	}
	if !belowDailyTarget(p, in.Balance, in.DayStartBalance) {
		return model.Hold(ReasonDailyTarget, m)
	}

	// Step b: first matching rule wins
	price := in.Snapshot.MidPrice
	switch {
	case m.RSI < p.RSIOversold && m.Volatility > p.MinVolatility:
		return model.Decision{Action: model.ActionBuy, Price: price, Reason: describe(ReasonBuy, m.RSI), Metrics: m}
	case m.RSI > p.RSIOverbought:
		return model.Decision{Action: model.ActionSell, Price: price, Reason: describe(ReasonSell, m.RSI), Metrics: m}
	case m.RSI < p.RSIOversold:
		return model.Hold(describe(ReasonLowVolatility, m.RSI), m)
	default:
		return model.Hold(describe(ReasonNoSignal, m.RSI), m)
	}
}
