package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/kiyogawa/solana-dex-bot/internal/calculator"
	"github.com/kiyogawa/solana-dex-bot/internal/collector"
	"github.com/kiyogawa/solana-dex-bot/internal/executor"
	"github.com/kiyogawa/solana-dex-bot/internal/history"
	"github.com/kiyogawa/solana-dex-bot/internal/metrics"
	"github.com/kiyogawa/solana-dex-bot/internal/model"
	"github.com/kiyogawa/solana-dex-bot/internal/notifier"
	"github.com/kiyogawa/solana-dex-bot/internal/performance"
	"github.com/kiyogawa/solana-dex-bot/internal/portfolio"
	"github.com/kiyogawa/solana-dex-bot/internal/recorder"
	"github.com/kiyogawa/solana-dex-bot/internal/strategy"
)

const (
	outcomeOK = "ok"

	resultOK      = "ok"
	resultSkipped = "skipped"
)

// Notifier delivers operator messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options configures a Bot.
type Options struct {
	Market         string
	InitialBalance decimal.Decimal
	Strategy       strategy.Params
	Risk           portfolio.RiskParams
	HistorySize    int
	NotifyRetries  int
}

// view is the state published at the end of every cycle for readers on
// other goroutines.
type view struct {
	summary   model.PerformanceSummary
	positions []model.Position
	decision  model.Decision
	at        time.Time
}

// Bot runs the decision pipeline: daily reset, market snapshot, indicators,
// signal, trade. One cycle runs at a time.
type Bot struct {
	mu        sync.Mutex
	opts      Options
	source    collector.Source
	history   *history.Ring
	perf      *performance.Tracker
	portfolio *portfolio.Manager
	recorder  recorder.Recorder
	notifier  Notifier
	now       func() time.Time

	viewMu sync.RWMutex
	view   view
}

// New creates a Bot with fresh in-memory state.
func New(opts Options, src collector.Source, exec executor.Executor, rec recorder.Recorder, n Notifier) *Bot {
	return newBot(opts, src, exec, rec, n, time.Now)
}

func newBot(opts Options, src collector.Source, exec executor.Executor, rec recorder.Recorder, n Notifier, now func() time.Time) *Bot {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if n == nil {
		n = notifier.NewNoopNotifier()
	}
	perf := performance.NewTracker(opts.InitialBalance, now())
	b := &Bot{
		opts:      opts,
		source:    src,
		history:   history.NewRing(opts.HistorySize),
		perf:      perf,
		portfolio: portfolio.NewManager(opts.Risk, opts.Market, exec, perf),
		recorder:  rec,
		notifier:  n,
		now:       now,
	}
	b.publish(model.Hold("not started", model.Metrics{}), now())
	return b
}

// RunCycle executes one full decision cycle. Missing market data yields a
// Hold and a nil error. Execution failures and internal faults abort the
// cycle with a *model.CycleError after any partial trade state has been
// left untouched.
func (b *Bot) RunCycle(ctx context.Context) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := b.now()
	decision := model.Hold(strategy.ReasonNoMarketData, model.Metrics{})
	var snap model.MarketSnapshot
	outcome := outcomeOK

	defer func() {
		if r := recover(); r != nil {
			err = &model.CycleError{Kind: model.KindInternal, Stage: "cycle", Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			outcome = string(model.KindOf(err))
		}
		b.afterCycle(ctx, start, snap, decision, outcome, err)
	}()

	if b.perf.ResetDaily(start) {
		log.Info().Str("day_start_balance", b.perf.Balance().String()).Msg("daily stats reset")
	}

	snap, err = b.snapshot(ctx)
	if err != nil {
		log.Warn().Err(err).Str("source", b.source.Name()).Msg("market data unavailable, holding")
		outcome = string(model.KindDataUnavailable)
		return nil
	}

	b.history.Push(snap.Sample())
	p := b.opts.Strategy
	m := calculator.Compute(b.history.Prices(), b.history.Volumes(), p.RSIPeriod, p.VolatilityPeriod)
	state := b.perf.State()
	decision = strategy.Evaluate(p, strategy.Input{
		Snapshot:        snap,
		Metrics:         m,
		Balance:         state.Balance,
		DayStartBalance: state.DayStartBalance,
		CurrentDrawdown: state.CurrentDrawdown,
	})
	log.Info().
		Str("action", string(decision.Action)).
		Str("reason", decision.Reason).
		Str("price", snap.MidPrice.String()).
		Float64("rsi", decision.Metrics.RSI).
		Float64("volatility", decision.Metrics.Volatility).
		Float64("volume", decision.Metrics.Volume).
		Float64("volume_ma", decision.Metrics.VolumeMA).
		Msg("decision")

	if err := b.checkExits(ctx, snap.MidPrice, start); err != nil {
		return err
	}

	switch decision.Action {
	case model.ActionBuy:
		return b.buy(ctx, decision, start)
	case model.ActionSell:
		return b.sell(ctx, decision, start)
	}
	return nil
}

func (b *Bot) snapshot(ctx context.Context) (model.MarketSnapshot, error) {
	snap, err := b.source.Snapshot(ctx)
	if err != nil {
		return model.MarketSnapshot{}, err
	}
	if err := snap.Validate(); err != nil {
		return model.MarketSnapshot{}, err
	}
	if snap.At.IsZero() {
		snap.At = b.now()
	}
	return snap, nil
}

func (b *Bot) buy(ctx context.Context, d model.Decision, now time.Time) error {
	pos, err := b.portfolio.Open(ctx, d.Price, d.Metrics.Volatility, now)
	if errors.Is(err, model.ErrPositionLimit) {
		log.Info().Err(err).Msg("buy skipped")
		metrics.Trades.WithLabelValues(string(model.SideBuy), resultSkipped).Inc()
		return nil
	}
	if err != nil {
		metrics.Trades.WithLabelValues(string(model.SideBuy), string(model.ReasonOf(err))).Inc()
		return &model.CycleError{Kind: model.KindOf(err), Stage: "buy", Err: err}
	}

	metrics.Trades.WithLabelValues(string(model.SideBuy), resultOK).Inc()
	b.record(b.recorder.RecordTrade(recorder.BuyEvent(pos)), "trade")
	b.notify(ctx, notifier.FormatBuy(pos, d))
	return nil
}

func (b *Bot) sell(ctx context.Context, d model.Decision, now time.Time) error {
	trade, err := b.portfolio.Close(ctx, d.Price, now)
	if errors.Is(err, model.ErrNoOpenPosition) {
		log.Info().Msg("sell signal with no open position, nothing to close")
		metrics.Trades.WithLabelValues(string(model.SideSell), resultSkipped).Inc()
		return nil
	}
	if err != nil {
		metrics.Trades.WithLabelValues(string(model.SideSell), string(model.ReasonOf(err))).Inc()
		return &model.CycleError{Kind: model.KindOf(err), Stage: "sell", Err: err}
	}
	b.closed(ctx, trade)
	return nil
}

func (b *Bot) checkExits(ctx context.Context, price decimal.Decimal, now time.Time) error {
	trades, err := b.portfolio.CheckExits(ctx, price, now)
	for _, trade := range trades {
		b.closed(ctx, trade)
	}
	if err != nil {
		metrics.Trades.WithLabelValues(string(model.SideSell), string(model.ReasonOf(err))).Inc()
		return &model.CycleError{Kind: model.KindOf(err), Stage: "exit", Err: err}
	}
	return nil
}

func (b *Bot) closed(ctx context.Context, trade model.ClosedTrade) {
	metrics.Trades.WithLabelValues(string(model.SideSell), resultOK).Inc()
	b.record(b.recorder.RecordTrade(recorder.SellEvent(trade)), "trade")
	b.notify(ctx, notifier.FormatSell(trade))
}

func (b *Bot) afterCycle(ctx context.Context, start time.Time, snap model.MarketSnapshot, d model.Decision, outcome string, err error) {
	summary := b.perf.Summary(b.portfolio.OpenCount())
	state := b.perf.State()

	metrics.Cycles.WithLabelValues(outcome).Inc()
	metrics.Decisions.WithLabelValues(string(d.Action)).Inc()
	metrics.Balance.Set(state.Balance.InexactFloat64())
	metrics.OpenPositions.Set(float64(summary.OpenPositions))
	metrics.Drawdown.Set(state.CurrentDrawdown)
	if d.Metrics.RSIDefined {
		metrics.LastRSI.Set(d.Metrics.RSI)
	}
	metrics.CycleDuration.Observe(b.now().Sub(start).Seconds())

	evt := &recorder.CycleEvent{
		At:        start,
		Decision:  d,
		MidPrice:  snap.MidPrice.InexactFloat64(),
		Balance:   state.Balance.InexactFloat64(),
		Positions: summary.OpenPositions,
		Drawdown:  state.CurrentDrawdown,
	}
	if err != nil {
		evt.ErrorKind = string(model.KindOf(err))
		evt.Error = err.Error()
		b.notify(ctx, notifier.FormatFailure(err))
	}
	b.record(b.recorder.RecordCycle(evt), "cycle")

	log.Info().
		Str("outcome", outcome).
		Str("initial_balance", summary.InitialBalance.String()).
		Str("balance", summary.Balance.StringFixed(6)).
		Float64("daily_return_pct", summary.DailyReturnPct).
		Float64("total_return_pct", summary.TotalReturnPct).
		Str("daily_pl", summary.DailyProfitLoss.StringFixed(6)).
		Int("open_positions", summary.OpenPositions).
		Float64("win_rate_pct", summary.WinRatePct).
		Float64("max_drawdown_pct", summary.MaxDrawdownPct).
		Msg("performance")

	b.publish(d, start)
}

func (b *Bot) publish(d model.Decision, at time.Time) {
	v := view{
		summary:   b.perf.Summary(b.portfolio.OpenCount()),
		positions: b.portfolio.Positions(),
		decision:  d,
		at:        at,
	}
	b.viewMu.Lock()
	b.view = v
	b.viewMu.Unlock()
}

func (b *Bot) record(err error, what string) {
	if err != nil {
		log.Error().Err(err).Str("record", what).Msg("journal write failed")
	}
}

func (b *Bot) notify(ctx context.Context, text string) {
	if err := b.notifier.SendWithRetry(ctx, text, b.opts.NotifyRetries); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}

// Summary returns the performance summary as of the last completed cycle.
func (b *Bot) Summary() model.PerformanceSummary {
	b.viewMu.RLock()
	defer b.viewMu.RUnlock()
	return b.view.summary
}

// Positions returns the open positions as of the last completed cycle.
func (b *Bot) Positions() []model.Position {
	b.viewMu.RLock()
	defer b.viewMu.RUnlock()
	out := make([]model.Position, len(b.view.positions))
	copy(out, b.view.positions)
	return out
}

// LastDecision returns the decision of the last completed cycle.
func (b *Bot) LastDecision() model.Decision {
	b.viewMu.RLock()
	defer b.viewMu.RUnlock()
	return b.view.decision
}

// DailySummary sends and journals the performance summary. Registered as
// the end-of-day cron job.
func (b *Bot) DailySummary(ctx context.Context) {
	b.mu.Lock()
	now := b.now()
	summary := b.perf.Summary(b.portfolio.OpenCount())
	b.mu.Unlock()

	log.Info().Msg("sending daily summary")
	b.notify(ctx, notifier.FormatPerformance("Daily summary", summary, now))
	b.record(b.recorder.RecordDailySummary(&recorder.DailySummary{At: now, Summary: summary}), "daily summary")
}
