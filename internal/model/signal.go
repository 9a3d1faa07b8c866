package model

import "github.com/shopspring/decimal"

// Action is the discrete outcome of one decision cycle.
type Action string

const (
	ActionHold Action = "hold"
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Decision is produced fresh every cycle and never retained.
type Decision struct {
	Action  Action
	Price   decimal.Decimal
	Reason  string
	Metrics Metrics
}

// Hold builds a hold decision with the given reason.
func Hold(reason string, m Metrics) Decision {
	return Decision{Action: ActionHold, Price: decimal.Zero, Reason: reason, Metrics: m}
}
