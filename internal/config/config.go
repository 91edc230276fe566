package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"SmartRental/internal/model"
	"SmartRental/internal/oracle"
)

// DefaultPath is read when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Assumptions model.EconomicAssumptions `yaml:"assumptions"`
	Solver      model.SolverOptions       `yaml:"solver"`
	Oracle      struct {
		Kind       string        `yaml:"kind"`
		MinPrice   float64       `yaml:"min_price"`
		MaxPrice   float64       `yaml:"max_price"`
		Seed       uint64        `yaml:"seed"`
		BaseURL    string        `yaml:"base_url"`
		APIKey     string        `yaml:"api_key"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxRetries int           `yaml:"max_retries"`
		RedisAddr  string        `yaml:"redis_addr"`
		CacheTTL   time.Duration `yaml:"cache_ttl"`
	} `yaml:"oracle"`
	Server struct {
		Addr              string        `yaml:"addr"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
		ReadTimeout       time.Duration `yaml:"read_timeout"`
		WriteTimeout      time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		WatchCron   string `yaml:"watch_cron"`
		Concurrency int    `yaml:"concurrency"`
		StateFile   string `yaml:"state_file"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log       LogConfig               `yaml:"log"`
	Watchlist []model.WatchedProperty `yaml:"watchlist"`
	Proxy     string                  `yaml:"proxy"`
}

// LogConfig selects the zap logger flavour.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Assumptions = model.DefaultAssumptions()
	cfg.Solver = model.DefaultSolverOptions()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, eris.Wrap(err, "parse config")
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("ORACLE_KIND"); v != "" {
		cfg.Oracle.Kind = v
	}
	if v := os.Getenv("ORACLE_BASE_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
	if v := os.Getenv("ORACLE_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Oracle.RedisAddr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("TARGET_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Assumptions.TargetRate = rate
		}
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CRON_WATCH"); v != "" {
		cfg.Schedule.WatchCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Assumptions.Terminal.Mode == "" {
		cfg.Assumptions.Terminal.Mode = model.TerminalNone
	}
	if cfg.Oracle.Kind == "" {
		cfg.Oracle.Kind = oracle.KindStochastic
	}
	if cfg.Oracle.MinPrice == 0 {
		cfg.Oracle.MinPrice = 50
	}
	if cfg.Oracle.MaxPrice == 0 {
		cfg.Oracle.MaxPrice = 300
	}
	if cfg.Oracle.Timeout == 0 {
		cfg.Oracle.Timeout = 10 * time.Second
	}
	if cfg.Oracle.MaxRetries == 0 {
		cfg.Oracle.MaxRetries = 2
	}
	if cfg.Oracle.CacheTTL == 0 {
		cfg.Oracle.CacheTTL = 24 * time.Hour
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RequestsPerSecond == 0 {
		cfg.Server.RequestsPerSecond = 5
	}
	if cfg.Server.Burst == 0 {
		cfg.Server.Burst = 10
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Schedule.WatchCron == "" {
		cfg.Schedule.WatchCron = "0 0 8 * * 1"
	}
	if cfg.Schedule.Concurrency == 0 {
		cfg.Schedule.Concurrency = 4
	}
	if cfg.Schedule.StateFile == "" {
		cfg.Schedule.StateFile = "data/watch_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/smartrental.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	return cfg, nil
}

// Validate checks the values every command depends on.
func (c *Config) Validate() error {
	if c.Assumptions.HorizonYears < 1 {
		return eris.New("assumptions.horizon_years must be positive")
	}
	if !c.Assumptions.Terminal.Mode.Valid() {
		return eris.Errorf("assumptions.terminal.mode %q is not one of none, final_period, extra_period", c.Assumptions.Terminal.Mode)
	}
	if c.Solver.MaxIterations < 1 {
		return eris.New("solver.max_iterations must be positive")
	}
	if c.Solver.Tolerance <= 0 {
		return eris.New("solver.tolerance must be positive")
	}
	if c.Solver.InitialGuess <= -1 {
		return eris.New("solver.initial_guess must be greater than -1")
	}
	switch c.Oracle.Kind {
	case oracle.KindStochastic:
		if c.Oracle.MinPrice <= 0 || c.Oracle.MaxPrice <= c.Oracle.MinPrice {
			return eris.New("oracle.min_price must be positive and below oracle.max_price")
		}
	case oracle.KindRemote:
		if c.Oracle.BaseURL == "" {
			return eris.New("oracle.base_url is required for the remote oracle")
		}
	default:
		return eris.Errorf("oracle.kind %q is not one of stochastic, remote", c.Oracle.Kind)
	}
	if c.Server.RequestsPerSecond < 0 || c.Server.Burst < 0 {
		return eris.New("server rate limits must not be negative")
	}
	return nil
}

// ValidateWatch adds the checks specific to the watch command.
func (c *Config) ValidateWatch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Watchlist) == 0 {
		return eris.New("watchlist is empty")
	}
	for i, w := range c.Watchlist {
		if w.Name == "" {
			return eris.Errorf("watchlist[%d].name is required", i)
		}
	}
	return nil
}

// OracleOptions translates the oracle section for oracle.New.
func (c *Config) OracleOptions() oracle.Options {
	return oracle.Options{
		Kind:       c.Oracle.Kind,
		MinPrice:   c.Oracle.MinPrice,
		MaxPrice:   c.Oracle.MaxPrice,
		Seed:       c.Oracle.Seed,
		BaseURL:    c.Oracle.BaseURL,
		APIKey:     c.Oracle.APIKey,
		Proxy:      c.Proxy,
		Timeout:    c.Oracle.Timeout,
		MaxRetries: c.Oracle.MaxRetries,
		RedisAddr:  c.Oracle.RedisAddr,
		CacheTTL:   c.Oracle.CacheTTL,
	}
}

// InitLogger builds the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
