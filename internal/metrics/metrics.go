package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	Cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexbot_cycles_total",
			Help: "Trading cycles run, by outcome (ok, data_unavailable, execution, internal).",
		},
		[]string{"outcome"},
	)

	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexbot_decisions_total",
			Help: "Signal decisions, by action.",
		},
		[]string{"action"},
	)

	Trades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexbot_trades_total",
			Help: "Trade attempts, by side and result.",
		},
		[]string{"side", "result"},
	)

	Balance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dexbot_balance",
			Help: "Current quote balance.",
		},
	)

	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dexbot_positions_open",
			Help: "Current number of open positions.",
		},
	)

	Drawdown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dexbot_drawdown_ratio",
			Help: "Current drawdown from the peak balance.",
		},
	)

	LastRSI = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dexbot_rsi",
			Help: "RSI computed on the last cycle.",
		},
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dexbot_cycle_duration_seconds",
			Help:    "Wall time of one trading cycle.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(Cycles, Decisions, Trades, Balance, OpenPositions, Drawdown, LastRSI, CycleDuration)
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
