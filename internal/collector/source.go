package collector

import (
	"context"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
)

// Source defines the interface for acquiring the current market view.
// Implementations return an error wrapping model.ErrNoMarketData when no
// two-sided market exists.
type Source interface {
	Snapshot(ctx context.Context) (model.MarketSnapshot, error)
	Name() string
}
