package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
)

type fakeRunner struct {
	mu        sync.Mutex
	starts    []time.Time
	errs      []error
	stopAfter int
	cancel    context.CancelFunc
	running   bool
	overlap   bool
	summaries int
}

func (f *fakeRunner) RunCycle(_ context.Context) error {
	f.mu.Lock()
	if f.running {
		f.overlap = true
	}
	f.running = true
	i := len(f.starts)
	f.starts = append(f.starts, time.Now())
	f.mu.Unlock()

	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	if len(f.starts) >= f.stopAfter {
		f.cancel()
	}
	if i < len(f.errs) {
		return f.errs[i]
	}
	return nil
}

func (f *fakeRunner) DailySummary(_ context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries++
}

func TestNewScheduler_InvalidSpecs(t *testing.T) {
	_, err := NewScheduler(&fakeRunner{}, "hourly", "0 0 0 * * *", time.Second)
	assert.Error(t, err)

	_, err = NewScheduler(&fakeRunner{}, "@every 1h", "not a cron", time.Second)
	assert.Error(t, err)

	for _, spec := range []string{"@every 1h", "0 * * * *", "0 0 * * * *", "@hourly"} {
		_, err = NewScheduler(&fakeRunner{}, spec, "0 0 0 * * *", time.Second)
		assert.NoError(t, err, spec)
	}
}

func TestScheduler_RunsSequentially(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeRunner{stopAfter: 2, cancel: cancel}

	// @every is rounded up to whole seconds
	s, err := NewScheduler(r, "@every 1s", "@daily", time.Hour)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, s.Run(ctx))

	require.Len(t, r.starts, 2)
	assert.False(t, r.overlap)
	// first cycle runs immediately
	assert.Less(t, r.starts[0].Sub(start), 15*time.Millisecond)
	// the next run lands on the following whole second
	assert.False(t, r.starts[1].Truncate(time.Second).Equal(r.starts[0].Truncate(time.Second)))
}

func TestScheduler_CooldownAfterFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeRunner{
		stopAfter: 2,
		cancel:    cancel,
		errs:      []error{errors.New("boom")},
	}

	// the cadence would wait an hour; the failure uses the short cooldown
	s, err := NewScheduler(r, "@every 1h", "@daily", 10*time.Millisecond)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("second cycle did not run after cooldown")
	}
	assert.Len(t, r.starts, 2)
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeRunner{stopAfter: 1000, cancel: func() {}}

	s, err := NewScheduler(r, "@every 1h", "@daily", time.Hour)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.starts) == 1
	}, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_SummaryJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &fakeRunner{stopAfter: 1000, cancel: func() {}}

	s, err := NewScheduler(r, "@every 1h", "@every 1s", time.Hour)
	require.NoError(t, err)
	go func() { _ = s.Run(ctx) }()

	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.summaries > 0
	}, 3*time.Second, 10*time.Millisecond)
}

func TestRetryable(t *testing.T) {
	cycleErr := func(kind model.ErrorKind, err error) error {
		return &model.CycleError{Kind: kind, Stage: "buy", Err: err}
	}

	tests := map[string]struct {
		err  error
		want bool
	}{
		"expired":            {err: cycleErr(model.KindExecution, model.NewExecutionError(model.SideBuy, model.ErrOrderExpired)), want: true},
		"rejected":           {err: cycleErr(model.KindExecution, model.NewExecutionError(model.SideSell, model.ErrOrderRejected)), want: true},
		"insufficient-funds": {err: cycleErr(model.KindExecution, model.NewExecutionError(model.SideBuy, model.ErrInsufficientFunds)), want: false},
		"internal":           {err: cycleErr(model.KindInternal, errors.New("panic: boom")), want: false},
		"untyped":            {err: errors.New("boom"), want: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}
