package model

// Metrics holds the indicator values a decision was based on.
type Metrics struct {
	RSI        float64
	RSIDefined bool
	Volatility float64
	Spread     float64
	Volume     float64
	VolumeMA   float64
}
