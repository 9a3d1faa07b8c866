package calculator

import "github.com/kiyogawa/solana-dex-bot/internal/model"

// Compute derives all indicators from the retained history.
func Compute(prices, volumes []float64, rsiPeriod, volatilityPeriod int) model.Metrics {
	rsi, ok := CalculateRSI(prices, rsiPeriod)
	return model.Metrics{
		RSI:        rsi,
		RSIDefined: ok,
		Volatility: CalculateVolatility(prices, volatilityPeriod),
		VolumeMA:   VolumeMovingAverage(volumes),
	}
}
