package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultVolatilityPeriod is the minimum history length before volatility is reported.
const DefaultVolatilityPeriod = 20

// CalculateVolatility returns the population standard deviation of simple
// returns over the whole price series. The period only gates the minimum
// series length; shorter series report 0.
func CalculateVolatility(prices []float64, period int) float64 {
	if len(prices) < period || len(prices) < 2 {
		return 0
	}
	returns := SimpleReturns(prices)
	_, std := stat.PopMeanStdDev(returns, nil)
	if math.IsNaN(std) || std < 0 {
		return 0
	}
	return std
}

// SimpleReturns computes (p[i]-p[i-1])/p[i-1] for consecutive prices.
// Transitions from a non-positive price are reported as 0.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 {
			continue
		}
		returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
	}
	return returns
}
