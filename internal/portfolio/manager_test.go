package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
	"github.com/kiyogawa/solana-dex-bot/internal/performance"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// fakeExecutor confirms orders unless an error is queued.
type fakeExecutor struct {
	orders []model.Order
	errs   []error
}

func (f *fakeExecutor) Name() string { return "fake" }

func (f *fakeExecutor) Submit(_ context.Context, o model.Order) (model.Confirmation, error) {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return model.Confirmation{}, err
		}
	}
	f.orders = append(f.orders, o)
	return model.Confirmation{OrderID: o.ClientID, ConfirmedAt: now}, nil
}

func newManager(risk RiskParams, balance float64) (*Manager, *fakeExecutor, *performance.Tracker) {
	exec := &fakeExecutor{}
	perf := performance.NewTracker(d(balance), now)
	return NewManager(risk, "SOL-USDC", exec, perf), exec, perf
}

func TestRiskParams_PositionSize(t *testing.T) {
	type test struct {
		balance    float64
		price      float64
		volatility float64
		want       float64
	}

	risk := DefaultRiskParams()
	tests := map[string]test{
		"calm-market":         {balance: 1, price: 100, volatility: 0, want: 0.001},
		"half-adjustment":     {balance: 1, price: 100, volatility: 0.05, want: 0.0005},
		"floor-adjustment":    {balance: 1, price: 100, volatility: 0.5, want: 0.0001},
		"negative-vol-capped": {balance: 2, price: 10, volatility: -1, want: 0.02},
		"zero-balance":        {balance: 0, price: 100, volatility: 0, want: 0},
		"non-positive-price":  {balance: 1, price: 0, volatility: 0, want: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := risk.PositionSize(d(tt.balance), d(tt.price), tt.volatility)
			assert.InDelta(t, tt.want, got.InexactFloat64(), 1e-12)
		})
	}
}

func TestManager_Open(t *testing.T) {
	m, exec, perf := newManager(DefaultRiskParams(), 1)

	pos, err := m.Open(context.Background(), d(100), 0, now)
	require.NoError(t, err)

	assert.NotEmpty(t, pos.ID)
	assert.True(t, pos.Size.Equal(d(0.001)))
	assert.True(t, pos.StopLossPrice.Equal(d(98)))
	assert.InDelta(t, 100*(1+DefaultRiskParams().TakeProfitPct), pos.TakeProfitPrice.InexactFloat64(), 1e-9)
	assert.True(t, perf.Balance().Equal(d(0.9)))
	assert.Equal(t, 1, m.OpenCount())

	require.Len(t, exec.orders, 1)
	assert.Equal(t, model.SideBuy, exec.orders[0].Side)
	assert.Equal(t, "SOL-USDC", exec.orders[0].Market)
}

func TestManager_BuyThenSellSamePriceNetsZero(t *testing.T) {
	m, _, perf := newManager(DefaultRiskParams(), 1)

	_, err := m.Open(context.Background(), d(123.456), 0.0123, now)
	require.NoError(t, err)
	trade, err := m.Close(context.Background(), d(123.456), now)
	require.NoError(t, err)

	assert.True(t, perf.Balance().Equal(d(1)), "balance %s", perf.Balance())
	assert.True(t, trade.Profit.IsZero())
	assert.Equal(t, model.CloseSignal, trade.Reason)
	assert.Equal(t, 0, m.OpenCount())
	// break-even counts as a loss
	assert.Equal(t, 1, perf.State().LosingTrades)
}

func TestManager_CloseFIFO(t *testing.T) {
	m, _, perf := newManager(DefaultRiskParams(), 10)
	ctx := context.Background()

	first, err := m.Open(ctx, d(100), 0, now)
	require.NoError(t, err)
	second, err := m.Open(ctx, d(90), 0, now)
	require.NoError(t, err)

	trade, err := m.Close(ctx, d(110), now)
	require.NoError(t, err)
	assert.Equal(t, first.ID, trade.Position.ID)
	assert.True(t, trade.Profit.Equal(d(10).Mul(first.Size)))
	assert.InDelta(t, 10.0, trade.ProfitPct.InexactFloat64(), 1e-9)

	remaining := m.Positions()
	require.Len(t, remaining, 1)
	assert.Equal(t, second.ID, remaining[0].ID)

	s := perf.State()
	assert.Equal(t, 1, s.WinningTrades)
	assert.Equal(t, 0, s.ConsecutiveLosses)
}

func TestManager_WinResetsConsecutiveLosses(t *testing.T) {
	m, _, perf := newManager(DefaultRiskParams(), 10)
	ctx := context.Background()

	for _, exit := range []float64{95, 96} {
		_, err := m.Open(ctx, d(100), 0, now)
		require.NoError(t, err)
		_, err = m.Close(ctx, d(exit), now)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, perf.State().ConsecutiveLosses)

	_, err := m.Open(ctx, d(100), 0, now)
	require.NoError(t, err)
	_, err = m.Close(ctx, d(105), now)
	require.NoError(t, err)

	s := perf.State()
	assert.Equal(t, 1, s.WinningTrades)
	assert.Equal(t, 2, s.LosingTrades)
	assert.Equal(t, 0, s.ConsecutiveLosses)
}

func TestManager_CloseWithoutPosition(t *testing.T) {
	m, exec, perf := newManager(DefaultRiskParams(), 1)

	_, err := m.Close(context.Background(), d(100), now)
	assert.ErrorIs(t, err, model.ErrNoOpenPosition)
	assert.Empty(t, exec.orders)
	assert.True(t, perf.Balance().Equal(d(1)))
}

func TestManager_FailedOrderLeavesStateUntouched(t *testing.T) {
	type test struct {
		err    error
		reason model.FailureReason
	}

	tests := map[string]test{
		"expired": {
			err:    model.NewExecutionError(model.SideBuy, model.ErrOrderExpired),
			reason: model.FailureExpired,
		},
		"insufficient-funds": {
			err:    model.NewExecutionError(model.SideBuy, model.ErrInsufficientFunds),
			reason: model.FailureInsufficientFunds,
		},
		"plain-error": {
			err:    errors.New("connection reset"),
			reason: model.FailureOther,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			m, exec, perf := newManager(DefaultRiskParams(), 1)
			exec.errs = []error{tt.err}

			_, err := m.Open(context.Background(), d(100), 0, now)
			require.Error(t, err)
			var ee *model.ExecutionError
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, tt.reason, ee.Reason)
			assert.True(t, perf.Balance().Equal(d(1)))
			assert.Equal(t, 0, m.OpenCount())
		})
	}

	t.Run("sell", func(t *testing.T) {
		m, exec, perf := newManager(DefaultRiskParams(), 1)
		_, err := m.Open(context.Background(), d(100), 0, now)
		require.NoError(t, err)
		before := perf.State()

		exec.errs = []error{model.NewExecutionError(model.SideSell, model.ErrOrderExpired)}
		_, err = m.Close(context.Background(), d(120), now)
		require.Error(t, err)
		assert.Equal(t, 1, m.OpenCount())
		assert.True(t, perf.Balance().Equal(before.Balance))
		assert.Equal(t, 0, perf.State().WinningTrades)
	})
}

func TestManager_InsufficientFunds(t *testing.T) {
	m, exec, _ := newManager(DefaultRiskParams(), 0)

	_, err := m.Open(context.Background(), d(100), 0, now)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)
	assert.Empty(t, exec.orders)
}

func TestManager_MaxPositionsPolicy(t *testing.T) {
	ctx := context.Background()

	risk := DefaultRiskParams()
	risk.MaxPositions = 2

	// off by default: positions keep accumulating
	m, _, _ := newManager(risk, 10)
	for i := 0; i < 4; i++ {
		_, err := m.Open(ctx, d(100), 0, now)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, m.OpenCount())

	risk.EnforceMaxPositions = true
	m, exec, _ := newManager(risk, 10)
	for i := 0; i < 2; i++ {
		_, err := m.Open(ctx, d(100), 0, now)
		require.NoError(t, err)
	}
	_, err := m.Open(ctx, d(100), 0, now)
	assert.ErrorIs(t, err, model.ErrPositionLimit)
	assert.Len(t, exec.orders, 2)
}

func TestManager_CheckExits(t *testing.T) {
	ctx := context.Background()

	risk := DefaultRiskParams()
	m, _, _ := newManager(risk, 10)
	_, err := m.Open(ctx, d(100), 0, now)
	require.NoError(t, err)

	// disabled: stop-loss is metadata only
	closed, err := m.CheckExits(ctx, d(50), now)
	require.NoError(t, err)
	assert.Empty(t, closed)
	assert.Equal(t, 1, m.OpenCount())

	risk.EnforceExits = true
	m, _, perf := newManager(risk, 10)
	low, err := m.Open(ctx, d(100), 0, now)
	require.NoError(t, err)
	high, err := m.Open(ctx, d(80), 0, now)
	require.NoError(t, err)

	// 98 is the stop of the first position and above the take-profit of the second
	closed, err = m.CheckExits(ctx, d(98), now)
	require.NoError(t, err)
	require.Len(t, closed, 2)
	assert.Equal(t, low.ID, closed[0].Position.ID)
	assert.Equal(t, model.CloseStopLoss, closed[0].Reason)
	assert.Equal(t, high.ID, closed[1].Position.ID)
	assert.Equal(t, model.CloseTakeProfit, closed[1].Reason)
	assert.Equal(t, 0, m.OpenCount())
	assert.Equal(t, 1, perf.State().WinningTrades)
	assert.Equal(t, 1, perf.State().LosingTrades)
}

func TestManager_DrawdownTrackedAfterTrades(t *testing.T) {
	m, _, perf := newManager(DefaultRiskParams(), 1)
	ctx := context.Background()

	_, err := m.Open(ctx, d(100), 0, now)
	require.NoError(t, err)
	_, err = m.Close(ctx, d(50), now)
	require.NoError(t, err)

	s := perf.State()
	// drawdown is measured on cash: the 0.1 stake counted while open, half came back
	assert.InDelta(t, 0.05, s.CurrentDrawdown, 1e-12)
	assert.InDelta(t, 0.1, s.MaxDrawdownObserved, 1e-12)
	assert.True(t, s.PeakBalance.Equal(d(1)))
}

func TestRiskParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultRiskParams().Validate())

	bad := DefaultRiskParams()
	bad.RiskFraction = 1.5
	assert.Error(t, bad.Validate())

	bad = DefaultRiskParams()
	bad.EnforceMaxPositions = true
	bad.MaxPositions = 0
	assert.Error(t, bad.Validate())
}
