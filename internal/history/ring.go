package history

import (
	"github.com/shopspring/decimal"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
)

// DefaultCapacity is the number of samples retained by the bot.
const DefaultCapacity = 50

// Ring is a fixed-capacity FIFO of price samples. The oldest sample is
// overwritten once the ring is full.
type Ring struct {
	buf  []model.PriceSample
	head int // index of the oldest sample
	size int
}

// NewRing creates a ring holding at most capacity samples.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]model.PriceSample, capacity)}
}

// Push appends a sample and returns the evicted one, if any.
func (r *Ring) Push(s model.PriceSample) (model.PriceSample, bool) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = s
		r.size++
		return model.PriceSample{}, false
	}
	evicted := r.buf[r.head]
	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
	return evicted, true
}

// Len returns the number of retained samples.
func (r *Ring) Len() int { return r.size }

// Cap returns the ring capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// At returns the i-th retained sample, 0 being the oldest.
func (r *Ring) At(i int) model.PriceSample {
	return r.buf[(r.head+i)%len(r.buf)]
}

// Samples returns the retained samples in insertion order.
func (r *Ring) Samples() []model.PriceSample {
	out := make([]model.PriceSample, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.At(i)
	}
	return out
}

// Prices returns the retained prices in insertion order.
func (r *Ring) Prices() []float64 {
	return r.project(func(s model.PriceSample) decimal.Decimal { return s.Price })
}

// Volumes returns the retained volumes in insertion order.
func (r *Ring) Volumes() []float64 {
	return r.project(func(s model.PriceSample) decimal.Decimal { return s.Volume })
}

// Reset drops every sample.
func (r *Ring) Reset() {
	r.head, r.size = 0, 0
}

func (r *Ring) project(field func(model.PriceSample) decimal.Decimal) []float64 {
	out := make([]float64, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = field(r.At(i)).InexactFloat64()
	}
	return out
}
