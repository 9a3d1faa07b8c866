package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/kiyogawa/solana-dex-bot/internal/bot"
	"github.com/kiyogawa/solana-dex-bot/internal/collector"
	"github.com/kiyogawa/solana-dex-bot/internal/config"
	"github.com/kiyogawa/solana-dex-bot/internal/executor"
	"github.com/kiyogawa/solana-dex-bot/internal/metrics"
	"github.com/kiyogawa/solana-dex-bot/internal/notifier"
	"github.com/kiyogawa/solana-dex-bot/internal/recorder"
	"github.com/kiyogawa/solana-dex-bot/internal/scheduler"
)

// commandNotifier is a notifier that can also receive operator commands.
type commandNotifier interface {
	bot.Notifier
	StartPolling(ctx context.Context, handler notifier.CommandHandler)
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load config
	cfgPath := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	if cfg.Trading.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	balance, _ := cfg.InitialBalance()
	sp := cfg.StrategyParams()
	risk := cfg.RiskParams()

	log.Info().
		Str("market", cfg.Venue.Market).
		Bool("simulation", cfg.Trading.Simulation).
		Str("initial_balance", balance.String()).
		Float64("required_return_per_trade", sp.RequiredReturnPerTrade()).
		Float64("take_profit_pct", risk.TakeProfitPct).
		Bool("enforce_max_positions", risk.EnforceMaxPositions).
		Bool("enforce_exits", risk.EnforceExits).
		Float64("max_drawdown_halt", sp.MaxDrawdownHalt).
		Msg("solana dex bot starting")

	// Market data
	var src collector.Source
	if cfg.Venue.RPCURL != "" {
		src = collector.NewVenueSource(cfg.Venue.RPCURL, cfg.Venue.Market, cfg.Proxy)
	} else {
		src = collector.NewMockSource(100, time.Now().UnixNano())
	}
	log.Info().Str("source", src.Name()).Msg("market data source")

	// Order execution
	var exec executor.Executor
	if cfg.Trading.Simulation {
		exec = executor.NewPaperExecutor()
	} else {
		exec = executor.NewVenueExecutor(executor.VenueOptions{
			Endpoint:        cfg.Venue.RPCURL,
			Market:          cfg.Venue.Market,
			ProgramID:       cfg.Venue.ProgramID,
			ProxyURL:        cfg.Proxy,
			ConfirmAttempts: cfg.Executor.ConfirmAttempts,
			ConfirmDelay:    cfg.Executor.ConfirmDelay,
			ConfirmTimeout:  cfg.Executor.ConfirmTimeout,
		})
	}
	log.Info().Str("executor", exec.Name()).Msg("order executor")

	// Notifications
	var tn commandNotifier = notifier.NewNoopNotifier()
	if cfg.Telegram.BotToken != "" {
		t, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if err != nil {
			log.Warn().Err(err).Msg("init telegram notifier failed, notifications disabled")
		} else {
			tn = t
		}
	}

	// Journal
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	b := bot.New(bot.Options{
		Market:         cfg.Venue.Market,
		InitialBalance: balance,
		Strategy:       sp,
		Risk:           risk,
		HistorySize:    cfg.Strategy.HistorySize,
		NotifyRetries:  cfg.Telegram.MaxRetries,
	}, src, exec, rec, tn)

	sched, err := scheduler.NewScheduler(b, cfg.Schedule.Cadence, cfg.Schedule.SummaryCron, cfg.Schedule.Cooldown)
	if err != nil {
		log.Fatal().Err(err).Msg("init scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(ctx)
	})
	g.Go(func() error {
		tn.StartPolling(ctx, b.HandleCommand)
		return nil
	})
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return metrics.Serve(ctx, cfg.Metrics.Addr)
		})
	}

	log.Info().Str("cadence", cfg.Schedule.Cadence).Msg("bot is running, press Ctrl+C to stop")
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("bot exited with error")
		rec.Close()
		os.Exit(1)
	}
	log.Info().Msg("bot stopped")
}
