package executor

import (
	"context"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
)

// Executor submits an order and blocks until it is confirmed or has failed.
// Failures wrap model.ErrOrderExpired, model.ErrInsufficientFunds or
// model.ErrOrderRejected inside a *model.ExecutionError.
type Executor interface {
	Submit(ctx context.Context, order model.Order) (model.Confirmation, error)
	Name() string
}
