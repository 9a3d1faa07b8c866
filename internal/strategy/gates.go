package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	ReasonNoMarketData    = "no market data"
	ReasonInsufficientRSI = "insufficient history for RSI"
	ReasonLowLiquidity    = "insufficient liquidity"
	ReasonWideSpread      = "spread too wide"
	ReasonDrawdownHalt    = "max drawdown limit exceeded"
	ReasonDailyTarget     = "daily target reached"
	ReasonLowVolatility   = "RSI oversold but volatility below threshold"
	ReasonNoSignal        = "no clear trading signal"
	ReasonBuy             = "RSI oversold with sufficient volatility"
	ReasonSell            = "RSI overbought condition"
)

// sufficientLiquidity requires volume above VolumeFactor times its moving average.
func sufficientLiquidity(p Params, volume, volumeMA float64) bool {
	return volume > volumeMA*p.VolumeFactor
}

// acceptableSpread requires spread below MaxSpreadRatio of the mid price.
func acceptableSpread(p Params, spread, midPrice decimal.Decimal) bool {
	limit := midPrice.Mul(decimal.NewFromFloat(p.MaxSpreadRatio))
	return spread.LessThan(limit)
}

// DailyReturn is balance/dayStartBalance - 1; 0 when there is no day start balance.
func DailyReturn(balance, dayStart decimal.Decimal) float64 {
	if !dayStart.IsPositive() {
		return 0
	}
	return balance.Div(dayStart).Sub(decimal.NewFromInt(1)).InexactFloat64()
}

// belowDailyTarget permits trading only until the daily target is met.
func belowDailyTarget(p Params, balance, dayStart decimal.Decimal) bool {
	return DailyReturn(balance, dayStart) < p.DailyTargetReturn
}

func withinDrawdown(p Params, drawdown float64) bool {
	return p.MaxDrawdownHalt <= 0 || drawdown <= p.MaxDrawdownHalt
}

func describe(reason string, rsi float64) string {
	return fmt.Sprintf("%s (RSI=%.1f)", reason, rsi)
}
