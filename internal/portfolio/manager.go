package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/kiyogawa/solana-dex-bot/internal/executor"
	"github.com/kiyogawa/solana-dex-bot/internal/model"
	"github.com/kiyogawa/solana-dex-bot/internal/performance"
)

var hundred = decimal.NewFromInt(100)

// Manager opens and closes positions through an executor and books the
// resulting cash flows on the performance tracker. Orders are submitted
// before any state changes, so a failed order leaves balance and positions
// untouched. It is not safe for concurrent use.
type Manager struct {
	risk      RiskParams
	market    string
	exec      executor.Executor
	perf      *performance.Tracker
	positions []model.Position
}

// NewManager creates a Manager trading market through exec.
func NewManager(risk RiskParams, market string, exec executor.Executor, perf *performance.Tracker) *Manager {
	return &Manager{risk: risk, market: market, exec: exec, perf: perf}
}

// Positions returns a copy of the open positions, oldest first.
func (m *Manager) Positions() []model.Position {
	out := make([]model.Position, len(m.positions))
	copy(out, m.positions)
	return out
}

// OpenCount is the number of open positions.
func (m *Manager) OpenCount() int {
	return len(m.positions)
}

// Open sizes and buys a new position at price.
func (m *Manager) Open(ctx context.Context, price decimal.Decimal, volatility float64, now time.Time) (model.Position, error) {
	defer m.perf.ObserveBalance()

	if m.risk.EnforceMaxPositions && len(m.positions) >= m.risk.MaxPositions {
		return model.Position{}, fmt.Errorf("%d open: %w", len(m.positions), model.ErrPositionLimit)
	}

	balance := m.perf.Balance()
	size := m.risk.PositionSize(balance, price, volatility)
	if !size.IsPositive() {
		return model.Position{}, model.NewExecutionError(model.SideBuy,
			fmt.Errorf("balance %s at price %s: %w", balance, price, model.ErrInsufficientFunds))
	}
	cost := size.Mul(price)
	if cost.GreaterThan(balance) {
		return model.Position{}, model.NewExecutionError(model.SideBuy,
			fmt.Errorf("cost %s exceeds balance %s: %w", cost, balance, model.ErrInsufficientFunds))
	}

	order := model.Order{
		ClientID: uuid.NewString(),
		Market:   m.market,
		Side:     model.SideBuy,
		Price:    price,
		Size:     size,
	}
	if _, err := m.submit(ctx, order); err != nil {
		return model.Position{}, err
	}

	pos := model.Position{
		ID:              uuid.NewString(),
		EntryPrice:      price,
		Size:            size,
		OpenedAt:        now,
		StopLossPrice:   m.risk.StopLoss(price),
		TakeProfitPrice: m.risk.TakeProfit(price),
	}
	m.perf.Debit(cost)
	m.positions = append(m.positions, pos)

	log.Info().
		Str("id", pos.ID).
		Str("price", price.String()).
		Str("size", size.StringFixed(6)).
		Str("cost", cost.StringFixed(6)).
		Str("stop_loss", pos.StopLossPrice.String()).
		Str("take_profit", pos.TakeProfitPrice.String()).
		Msg("position opened")
	return pos, nil
}

// Close sells the oldest open position at price.
func (m *Manager) Close(ctx context.Context, price decimal.Decimal, now time.Time) (model.ClosedTrade, error) {
	defer m.perf.ObserveBalance()

	if len(m.positions) == 0 {
		return model.ClosedTrade{}, model.ErrNoOpenPosition
	}
	return m.closeAt(ctx, 0, price, model.CloseSignal, now)
}

// CheckExits closes every position whose stop-loss or take-profit is crossed
// by price. It does nothing unless EnforceExits is set, and stops at the
// first failed order.
func (m *Manager) CheckExits(ctx context.Context, price decimal.Decimal, now time.Time) ([]model.ClosedTrade, error) {
	if !m.risk.EnforceExits {
		return nil, nil
	}
	defer m.perf.ObserveBalance()

	var closed []model.ClosedTrade
	for i := 0; i < len(m.positions); {
		pos := m.positions[i]
		var reason model.CloseReason
		switch {
		case price.LessThanOrEqual(pos.StopLossPrice):
			reason = model.CloseStopLoss
		case price.GreaterThanOrEqual(pos.TakeProfitPrice):
			reason = model.CloseTakeProfit
		default:
			i++
			continue
		}
		trade, err := m.closeAt(ctx, i, price, reason, now)
		if err != nil {
			return closed, err
		}
		closed = append(closed, trade)
	}
	return closed, nil
}

func (m *Manager) closeAt(ctx context.Context, idx int, price decimal.Decimal, reason model.CloseReason, now time.Time) (model.ClosedTrade, error) {
	pos := m.positions[idx]
	order := model.Order{
		ClientID: uuid.NewString(),
		Market:   m.market,
		Side:     model.SideSell,
		Price:    price,
		Size:     pos.Size,
	}
	conf, err := m.submit(ctx, order)
	if err != nil {
		return model.ClosedTrade{}, err
	}

	proceeds := pos.Size.Mul(price)
	profit := price.Sub(pos.EntryPrice).Mul(pos.Size)
	trade := model.ClosedTrade{
		Position:     pos,
		ExitPrice:    price,
		Proceeds:     proceeds,
		Profit:       profit,
		ProfitPct:    price.Div(pos.EntryPrice).Sub(decimal.NewFromInt(1)).Mul(hundred),
		ClosedAt:     now,
		Reason:       reason,
		Confirmation: conf,
	}

	m.perf.Credit(proceeds)
	m.perf.RecordClose(profit)
	m.positions = append(m.positions[:idx:idx], m.positions[idx+1:]...)

	log.Info().
		Str("id", pos.ID).
		Str("reason", string(reason)).
		Str("entry", pos.EntryPrice.String()).
		Str("exit", price.String()).
		Str("profit", profit.StringFixed(6)).
		Str("profit_pct", trade.ProfitPct.StringFixed(2)).
		Msg("position closed")
	return trade, nil
}

func (m *Manager) submit(ctx context.Context, order model.Order) (model.Confirmation, error) {
	conf, err := m.exec.Submit(ctx, order)
	if err == nil {
		return conf, nil
	}
	var ee *model.ExecutionError
	if !errors.As(err, &ee) {
		err = model.NewExecutionError(order.Side, err)
	}
	return model.Confirmation{}, err
}
