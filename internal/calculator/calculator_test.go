package calculator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateRSI(t *testing.T) {
	type test struct {
		prices  []float64
		period  int
		ok      bool
		rsi     float64
		epsilon float64
	}

	tests := map[string]test{
		"insufficient-history": {
			prices: []float64{1, 2, 3},
			period: 3,
			ok:     false,
		},
		"all-gains": {
			prices: []float64{1, 2, 3, 4},
			period: 3,
			ok:     true,
			rsi:    100,
		},
		"flat": {
			prices: []float64{5, 5, 5, 5},
			period: 3,
			ok:     true,
			rsi:    100,
		},
		"all-losses": {
			prices: []float64{100, 98, 96, 94, 92, 90, 88, 86},
			period: 7,
			ok:     true,
			rsi:    0,
		},
		"losses-with-flat": {
			prices: []float64{10, 10, 9, 9},
			period: 3,
			ok:     true,
			rsi:    0,
		},
		"balanced": {
			prices: []float64{10, 11, 10, 11, 10},
			period: 4,
			ok:     true,
			rsi:    50,
		},
		"only-last-period-counts": {
			// the early crash is outside the 2-transition window
			prices:  []float64{100, 10, 11, 12},
			period:  2,
			ok:      true,
			rsi:     100,
			epsilon: 0,
		},
		"mixed": {
			// gains 2+1=3, losses 1 => rs=3 => 75
			prices:  []float64{10, 12, 11, 12},
			period:  3,
			ok:      true,
			rsi:     75,
			epsilon: 1e-9,
		},
		"zero-period": {
			prices: []float64{1, 2},
			period: 0,
			ok:     false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rsi, ok := CalculateRSI(tt.prices, tt.period)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.InDelta(t, tt.rsi, rsi, tt.epsilon)
		})
	}
}

func TestCalculateRSI_Bounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		prices := make([]float64, 50)
		p := 100.0
		for j := range prices {
			p *= 1 + (rng.Float64()-0.5)*0.1
			prices[j] = p
		}
		rsi, ok := CalculateRSI(prices, 7)
		require.True(t, ok)
		assert.GreaterOrEqual(t, rsi, 0.0)
		assert.LessOrEqual(t, rsi, 100.0)
	}
}

func TestCalculateVolatility(t *testing.T) {
	constant := make([]float64, 30)
	for i := range constant {
		constant[i] = 42
	}
	assert.Equal(t, 0.0, CalculateVolatility(constant, DefaultVolatilityPeriod))

	// shorter than period
	assert.Equal(t, 0.0, CalculateVolatility([]float64{1, 2, 3}, DefaultVolatilityPeriod))

	// returns of +10% and -10% alternate: population std dev is exactly 0.1
	alternating := []float64{100}
	for i := 0; i < 20; i++ {
		last := alternating[len(alternating)-1]
		if i%2 == 0 {
			alternating = append(alternating, last*1.1)
		} else {
			alternating = append(alternating, last/1.1)
		}
	}
	vol := CalculateVolatility(alternating, DefaultVolatilityPeriod)
	assert.Greater(t, vol, 0.09)
	assert.Less(t, vol, 0.1)
}

func TestCalculateVolatility_UsesWholeHistory(t *testing.T) {
	// a shock at the start must still be visible with a small period
	prices := []float64{100, 200, 200, 200, 200}
	full := CalculateVolatility(prices, 2)
	tail := CalculateVolatility(prices[1:], 2)
	assert.Greater(t, full, 0.0)
	assert.Equal(t, 0.0, tail)
}

func TestCalculateVolatility_NonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		prices := make([]float64, 25)
		for j := range prices {
			prices[j] = 1 + rng.Float64()*1000
		}
		vol := CalculateVolatility(prices, DefaultVolatilityPeriod)
		assert.False(t, math.IsNaN(vol))
		assert.GreaterOrEqual(t, vol, 0.0)
	}
}

func TestVolumeMovingAverage(t *testing.T) {
	assert.Equal(t, 0.0, VolumeMovingAverage(nil))
	assert.Equal(t, 2.0, VolumeMovingAverage([]float64{1, 2, 3}))
}

func TestCompute(t *testing.T) {
	m := Compute([]float64{100, 98, 96, 94, 92, 90, 88, 86}, []float64{1, 1, 1, 1, 1, 1, 1, 1}, 7, DefaultVolatilityPeriod)
	assert.True(t, m.RSIDefined)
	assert.Equal(t, 0.0, m.RSI)
	assert.Equal(t, 0.0, m.Volatility)
	assert.Equal(t, 1.0, m.VolumeMA)
}
