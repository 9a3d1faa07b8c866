package calculator

// CalculateRSI computes the RSI over the last `period` price transitions using
// simple (unsmoothed) averages of gains and losses.
// Requires at least period+1 prices; ok is false when the RSI is undefined.
func CalculateRSI(prices []float64, period int) (rsi float64, ok bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}

	var gains, losses float64
	n := len(prices)
	for i := n - period; i < n; i++ {
		change := prices[i] - prices[i-1]
		if change >= 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100.0, true
	}
	rs := avgGain / avgLoss
	rsi = 100.0 - 100.0/(1.0+rs)
	return clamp(rsi, 0, 100), true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
