package strategy

import (
	"fmt"
	"math"
)

// Params holds the signal thresholds and the daily compounding target.
type Params struct {
	RSIPeriod            int
	RSIOversold          float64
	RSIOverbought        float64
	VolatilityPeriod     int
	MinVolatility        float64
	VolumeFactor         float64
	MaxSpreadRatio       float64
	DailyTargetReturn    float64
	IntervalsPerDay      int
	TakeProfitMultiplier float64
	// MaxDrawdownHalt forces Hold while the current drawdown exceeds it. 0 disables.
	MaxDrawdownHalt float64
}

// DefaultParams returns the stock 50%-per-day compounding configuration.
func DefaultParams() Params {
	return Params{
		RSIPeriod:            7,
		RSIOversold:          30,
		RSIOverbought:        70,
		VolatilityPeriod:     20,
		MinVolatility:        0.001,
		VolumeFactor:         0.8,
		MaxSpreadRatio:       0.003,
		DailyTargetReturn:    0.50,
		IntervalsPerDay:      24,
		TakeProfitMultiplier: 1.5,
	}
}

// Validate checks the thresholds are usable.
func (p Params) Validate() error {
	if p.RSIPeriod <= 0 {
		return fmt.Errorf("rsi_period must be positive")
	}
	if p.RSIOversold >= p.RSIOverbought {
		return fmt.Errorf("rsi_oversold (%.1f) must be below rsi_overbought (%.1f)", p.RSIOversold, p.RSIOverbought)
	}
	if p.VolatilityPeriod <= 0 {
		return fmt.Errorf("volatility_period must be positive")
	}
	if p.IntervalsPerDay <= 0 {
		return fmt.Errorf("intervals_per_day must be positive")
	}
	if p.DailyTargetReturn <= 0 {
		return fmt.Errorf("daily_target_return must be positive")
	}
	if p.MaxSpreadRatio <= 0 {
		return fmt.Errorf("max_spread_ratio must be positive")
	}
	if p.MaxDrawdownHalt < 0 || p.MaxDrawdownHalt > 1 {
		return fmt.Errorf("max_drawdown_halt (%f) must be between 0 and 1", p.MaxDrawdownHalt)
	}
	return nil
}

// RequiredReturnPerTrade is the per-interval return that compounds to the
// daily target over IntervalsPerDay intervals.
func (p Params) RequiredReturnPerTrade() float64 {
	return math.Pow(1+p.DailyTargetReturn, 1/float64(p.IntervalsPerDay)) - 1
}

// TakeProfitPercentage is derived once at startup from the daily target.
func (p Params) TakeProfitPercentage() float64 {
	return p.RequiredReturnPerTrade() * p.TakeProfitMultiplier
}
