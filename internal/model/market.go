package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is one retained observation used to derive indicators.
type PriceSample struct {
	Price  decimal.Decimal
	Volume decimal.Decimal
}

// MarketSnapshot is the per-cycle view of the market produced by a collector.
type MarketSnapshot struct {
	MidPrice decimal.Decimal
	Spread   decimal.Decimal
	Volume   decimal.Decimal
	At       time.Time
}

// Sample converts the snapshot into a history sample.
func (s MarketSnapshot) Sample() PriceSample {
	return PriceSample{Price: s.MidPrice, Volume: s.Volume}
}

// Validate rejects snapshots that cannot be traded on.
func (s MarketSnapshot) Validate() error {
	if !s.MidPrice.IsPositive() {
		return fmt.Errorf("%w: mid price %s must be positive", ErrNoMarketData, s.MidPrice)
	}
	if s.Spread.IsNegative() {
		return fmt.Errorf("%w: negative spread %s", ErrNoMarketData, s.Spread)
	}
	if s.Volume.IsNegative() {
		return fmt.Errorf("%w: negative volume %s", ErrNoMarketData, s.Volume)
	}
	return nil
}
