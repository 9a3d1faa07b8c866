package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/kiyogawa/solana-dex-bot/internal/portfolio"
	"github.com/kiyogawa/solana-dex-bot/internal/scheduler"
	"github.com/kiyogawa/solana-dex-bot/internal/strategy"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Venue struct {
		RPCURL    string `yaml:"rpc_url"`
		Market    string `yaml:"market"`
		ProgramID string `yaml:"program_id"`
	} `yaml:"venue"`
	Trading struct {
		InitialBalance string `yaml:"initial_balance"`
		Simulation     bool   `yaml:"simulation"`
		Debug          bool   `yaml:"debug"`
	} `yaml:"trading"`
	Strategy struct {
		RSIPeriod         int     `yaml:"rsi_period"`
		RSIOversold       float64 `yaml:"rsi_oversold"`
		RSIOverbought     float64 `yaml:"rsi_overbought"`
		VolatilityPeriod  int     `yaml:"volatility_period"`
		MinVolatility     float64 `yaml:"min_volatility"`
		VolumeFactor      float64 `yaml:"volume_factor"`
		MaxSpreadRatio    float64 `yaml:"max_spread_ratio"`
		DailyTargetReturn float64 `yaml:"daily_target_return"`
		IntervalsPerDay   int     `yaml:"intervals_per_day"`
		HistorySize       int     `yaml:"history_size"`
	} `yaml:"strategy"`
	Risk struct {
		StopLossPct             float64 `yaml:"stop_loss_pct"`
		TakeProfitMultiplier    float64 `yaml:"take_profit_multiplier"`
		RiskFraction            float64 `yaml:"risk_fraction"`
		VolatilityScale         float64 `yaml:"volatility_scale"`
		MinVolatilityAdjustment float64 `yaml:"min_volatility_adjustment"`
		MaxPositions            int     `yaml:"max_positions"`
		EnforceMaxPositions     bool    `yaml:"enforce_max_positions"`
		EnforceExits            bool    `yaml:"enforce_exits"`
		MaxDrawdownHalt         float64 `yaml:"max_drawdown_halt"`
	} `yaml:"risk"`
	Schedule struct {
		Cadence     string        `yaml:"cadence"`
		Cooldown    time.Duration `yaml:"cooldown"`
		SummaryCron string        `yaml:"summary_cron"`
	} `yaml:"schedule"`
	Executor struct {
		ConfirmAttempts int           `yaml:"confirm_attempts"`
		ConfirmDelay    time.Duration `yaml:"confirm_delay"`
		ConfirmTimeout  time.Duration `yaml:"confirm_timeout"`
	} `yaml:"executor"`
	Telegram struct {
		BotToken   string `yaml:"bot_token"`
		ChatID     string `yaml:"chat_id"`
		MaxRetries int    `yaml:"max_retries"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Default returns a Config holding every default value.
func Default() *Config {
	cfg := &Config{}
	cfg.Trading.InitialBalance = "1"

	sp := strategy.DefaultParams()
	cfg.Strategy.RSIPeriod = sp.RSIPeriod
	cfg.Strategy.RSIOversold = sp.RSIOversold
	cfg.Strategy.RSIOverbought = sp.RSIOverbought
	cfg.Strategy.VolatilityPeriod = sp.VolatilityPeriod
	cfg.Strategy.MinVolatility = sp.MinVolatility
	cfg.Strategy.VolumeFactor = sp.VolumeFactor
	cfg.Strategy.MaxSpreadRatio = sp.MaxSpreadRatio
	cfg.Strategy.DailyTargetReturn = sp.DailyTargetReturn
	cfg.Strategy.IntervalsPerDay = sp.IntervalsPerDay
	cfg.Strategy.HistorySize = 50

	rp := portfolio.DefaultRiskParams()
	cfg.Risk.StopLossPct = rp.StopLossPct
	cfg.Risk.TakeProfitMultiplier = sp.TakeProfitMultiplier
	cfg.Risk.RiskFraction = rp.RiskFraction
	cfg.Risk.VolatilityScale = rp.VolatilityScale
	cfg.Risk.MinVolatilityAdjustment = rp.MinVolatilityAdjustment
	cfg.Risk.MaxPositions = rp.MaxPositions

	cfg.Schedule.Cadence = "@every 1h"
	cfg.Schedule.Cooldown = time.Minute
	cfg.Schedule.SummaryCron = "0 0 0 * * *"

	cfg.Executor.ConfirmAttempts = 30
	cfg.Executor.ConfirmDelay = 2 * time.Second
	cfg.Executor.ConfirmTimeout = 60 * time.Second

	cfg.Telegram.MaxRetries = 3
	return cfg
}

// Load reads config from a YAML file on top of the defaults, loads .env if
// present, then applies environment variable overrides. A missing file is
// allowed. Keys present in the file win over defaults, including zeros.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	_ = godotenv.Load()

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Venue.RPCURL, "SOLANA_RPC_URL")
	setStr(&cfg.Venue.Market, "MARKET_ADDRESS")
	setStr(&cfg.Trading.InitialBalance, "INITIAL_BALANCE")
	setBool(&cfg.Trading.Simulation, "SIMULATION_MODE")
	setBool(&cfg.Trading.Debug, "DEBUG")
	setStr(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setStr(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setStr(&cfg.Database.SQLitePath, "SQLITE_PATH")
	setStr(&cfg.Metrics.Addr, "METRICS_ADDR")
	setStr(&cfg.Schedule.Cadence, "CADENCE")
	setStr(&cfg.Proxy, "HTTPS_PROXY")
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if !c.Trading.Simulation {
		if c.Venue.RPCURL == "" {
			return fmt.Errorf("venue.rpc_url is required outside simulation mode")
		}
		if c.Venue.Market == "" {
			return fmt.Errorf("venue.market is required outside simulation mode")
		}
	}
	balance, err := c.InitialBalance()
	if err != nil {
		return err
	}
	if !balance.IsPositive() {
		return fmt.Errorf("trading.initial_balance must be positive")
	}
	if c.Strategy.HistorySize <= c.Strategy.RSIPeriod {
		return fmt.Errorf("strategy.history_size (%d) must exceed rsi_period (%d)", c.Strategy.HistorySize, c.Strategy.RSIPeriod)
	}
	if err := c.StrategyParams().Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if err := c.RiskParams().Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Telegram.ChatID != "" {
		if _, err := strconv.ParseInt(c.Telegram.ChatID, 10, 64); err != nil {
			return fmt.Errorf("telegram.chat_id must be numeric: %w", err)
		}
	}
	if _, err := scheduler.Parser.Parse(c.Schedule.Cadence); err != nil {
		return fmt.Errorf("schedule.cadence %q: %w", c.Schedule.Cadence, err)
	}
	if _, err := scheduler.Parser.Parse(c.Schedule.SummaryCron); err != nil {
		return fmt.Errorf("schedule.summary_cron %q: %w", c.Schedule.SummaryCron, err)
	}
	if c.Schedule.Cooldown <= 0 {
		return fmt.Errorf("schedule.cooldown must be positive")
	}
	return nil
}

// InitialBalance parses trading.initial_balance.
func (c *Config) InitialBalance() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Trading.InitialBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("trading.initial_balance %q: %w", c.Trading.InitialBalance, err)
	}
	return d, nil
}

// StrategyParams converts the strategy section.
func (c *Config) StrategyParams() strategy.Params {
	return strategy.Params{
		RSIPeriod:            c.Strategy.RSIPeriod,
		RSIOversold:          c.Strategy.RSIOversold,
		RSIOverbought:        c.Strategy.RSIOverbought,
		VolatilityPeriod:     c.Strategy.VolatilityPeriod,
		MinVolatility:        c.Strategy.MinVolatility,
		VolumeFactor:         c.Strategy.VolumeFactor,
		MaxSpreadRatio:       c.Strategy.MaxSpreadRatio,
		DailyTargetReturn:    c.Strategy.DailyTargetReturn,
		IntervalsPerDay:      c.Strategy.IntervalsPerDay,
		TakeProfitMultiplier: c.Risk.TakeProfitMultiplier,
		MaxDrawdownHalt:      c.Risk.MaxDrawdownHalt,
	}
}

// RiskParams converts the risk section. The take-profit percentage is
// derived from the strategy's daily target.
func (c *Config) RiskParams() portfolio.RiskParams {
	return portfolio.RiskParams{
		StopLossPct:             c.Risk.StopLossPct,
		TakeProfitPct:           c.StrategyParams().TakeProfitPercentage(),
		RiskFraction:            c.Risk.RiskFraction,
		VolatilityScale:         c.Risk.VolatilityScale,
		MinVolatilityAdjustment: c.Risk.MinVolatilityAdjustment,
		MaxPositions:            c.Risk.MaxPositions,
		EnforceMaxPositions:     c.Risk.EnforceMaxPositions,
		EnforceExits:            c.Risk.EnforceExits,
	}
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
