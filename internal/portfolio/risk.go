package portfolio

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// RiskParams controls position sizing and the optional exit and capacity
// policies.
type RiskParams struct {
	StopLossPct             float64
	TakeProfitPct           float64
	RiskFraction            float64
	VolatilityScale         float64
	MinVolatilityAdjustment float64
	MaxPositions            int
	// EnforceMaxPositions rejects new buys once MaxPositions are open.
	EnforceMaxPositions bool
	// EnforceExits closes positions whose stop-loss or take-profit is crossed.
	EnforceExits bool
}

// DefaultRiskParams mirrors the stock configuration. TakeProfitPct is
// normally derived from strategy.Params at startup.
func DefaultRiskParams() RiskParams {
	return RiskParams{
		StopLossPct:             0.02,
		TakeProfitPct:           0.0255568,
		RiskFraction:            0.1,
		VolatilityScale:         10,
		MinVolatilityAdjustment: 0.1,
		MaxPositions:            3,
	}
}

func (r RiskParams) Validate() error {
	if r.StopLossPct <= 0 || r.StopLossPct >= 1 {
		return fmt.Errorf("stop_loss_pct (%f) must be in (0, 1)", r.StopLossPct)
	}
	if r.TakeProfitPct <= 0 {
		return fmt.Errorf("take profit percentage (%f) must be positive", r.TakeProfitPct)
	}
	if r.RiskFraction <= 0 || r.RiskFraction > 1 {
		return fmt.Errorf("risk_fraction (%f) must be in (0, 1]", r.RiskFraction)
	}
	if r.VolatilityScale < 0 {
		return fmt.Errorf("volatility_scale must not be negative")
	}
	if r.MinVolatilityAdjustment <= 0 || r.MinVolatilityAdjustment > 1 {
		return fmt.Errorf("min_volatility_adjustment (%f) must be in (0, 1]", r.MinVolatilityAdjustment)
	}
	if r.EnforceMaxPositions && r.MaxPositions <= 0 {
		return fmt.Errorf("max_positions must be positive when enforced")
	}
	return nil
}

// VolatilityAdjustment shrinks exposure as volatility rises:
// clamp(1 - volatility*scale, minAdjustment, 1).
func (r RiskParams) VolatilityAdjustment(volatility float64) float64 {
	adj := 1 - volatility*r.VolatilityScale
	return math.Max(r.MinVolatilityAdjustment, math.Min(1, adj))
}

// PositionSize returns balance*riskFraction*adjustment/price in base units.
func (r RiskParams) PositionSize(balance, price decimal.Decimal, volatility float64) decimal.Decimal {
	if !price.IsPositive() || !balance.IsPositive() {
		return decimal.Zero
	}
	quote := balance.
		Mul(decimal.NewFromFloat(r.RiskFraction)).
		Mul(decimal.NewFromFloat(r.VolatilityAdjustment(volatility)))
	return quote.Div(price)
}

// StopLoss is price*(1-stopLossPct).
func (r RiskParams) StopLoss(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromFloat(1 - r.StopLossPct))
}

// TakeProfit is price*(1+takeProfitPct).
func (r RiskParams) TakeProfit(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromFloat(1 + r.TakeProfitPct))
}
