package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order sent to the venue.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Order is a limit order request handed to an executor.
type Order struct {
	ClientID string
	Market   string
	Side     Side
	Price    decimal.Decimal
	Size     decimal.Decimal
}

// Notional is price times size.
func (o Order) Notional() decimal.Decimal {
	return o.Price.Mul(o.Size)
}

// Confirmation is returned by an executor once an order is settled.
type Confirmation struct {
	OrderID     string
	Signature   string
	Simulated   bool
	ConfirmedAt time.Time
}
