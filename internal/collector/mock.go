package collector

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
)

// MockSource returns controllable data for simulation and testing. Scripted
// snapshots are served in order; once they run out it falls back to a
// seeded random walk around Price.
type MockSource struct {
	mu        sync.Mutex
	Script    []model.MarketSnapshot
	Errors    []error
	Price     float64
	SpreadBps float64
	Volume    float64
	rng       *rand.Rand
	calls     int
}

// NewMockSource creates a random-walk source starting at price.
func NewMockSource(price float64, seed int64) *MockSource {
	return &MockSource{
		Price:     price,
		SpreadBps: 5,
		Volume:    1000,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (m *MockSource) Name() string { return "mock" }

// Snapshot returns the next scripted snapshot, a scripted error, or a
// random-walk step. Errors[i], when non-nil, takes precedence on call i.
func (m *MockSource) Snapshot(ctx context.Context) (model.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.MarketSnapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++
	if i < len(m.Errors) && m.Errors[i] != nil {
		return model.MarketSnapshot{}, m.Errors[i]
	}
	if i < len(m.Script) {
		return m.Script[i], nil
	}
	return m.step(), nil
}

// Calls reports how many snapshots were requested.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockSource) step() model.MarketSnapshot {
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(1))
	}
	if m.Price <= 0 {
		m.Price = 100
	}
	m.Price *= 1 + m.rng.NormFloat64()*0.01
	mid := decimal.NewFromFloat(m.Price).Round(6)
	spread := mid.Mul(decimal.NewFromFloat(m.SpreadBps / 10000)).Round(6)
	volume := decimal.NewFromFloat(m.Volume * (0.5 + m.rng.Float64())).Round(3)
	return model.MarketSnapshot{
		MidPrice: mid,
		Spread:   spread,
		Volume:   volume,
		At:       time.Now(),
	}
}

// Snap builds a snapshot from float inputs.
func Snap(price, spread, volume float64) model.MarketSnapshot {
	return model.MarketSnapshot{
		MidPrice: decimal.NewFromFloat(price),
		Spread:   decimal.NewFromFloat(spread),
		Volume:   decimal.NewFromFloat(volume),
		At:       time.Now(),
	}
}
