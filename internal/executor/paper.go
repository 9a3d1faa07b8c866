package executor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
)

// PaperExecutor confirms every order immediately without touching a venue.
// Used in simulation mode.
type PaperExecutor struct {
	mu     sync.Mutex
	orders []model.Order
	now    func() time.Time
}

// NewPaperExecutor creates a simulation executor.
func NewPaperExecutor() *PaperExecutor {
	return &PaperExecutor{now: time.Now}
}

func (p *PaperExecutor) Name() string { return "paper" }

// Submit records the order and returns a simulated confirmation.
func (p *PaperExecutor) Submit(ctx context.Context, order model.Order) (model.Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return model.Confirmation{}, model.NewExecutionError(order.Side, err)
	}
	if !order.Size.IsPositive() || !order.Price.IsPositive() {
		return model.Confirmation{}, model.NewExecutionError(order.Side, model.ErrOrderRejected)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, order)

	id := order.ClientID
	if id == "" {
		id = uuid.NewString()
	}
	return model.Confirmation{
		OrderID:     id,
		Signature:   "paper-" + id,
		Simulated:   true,
		ConfirmedAt: p.now(),
	}, nil
}

// Orders returns a copy of every order submitted so far.
func (p *PaperExecutor) Orders() []model.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Order, len(p.orders))
	copy(out, p.orders)
	return out
}
