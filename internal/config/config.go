package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PriceTicker/internal/model"
)

// Config holds all application configuration.
type Config struct {
	FetchIntervalMS int    `yaml:"fetch_interval_ms"`
	TickIntervalMS  int    `yaml:"tick_interval_ms"`
	DataSource      string `yaml:"data_source"`
	API             struct {
		Host             string `yaml:"host"`
		Port             int    `yaml:"port"`
		RequestTimeoutMS int    `yaml:"request_timeout_ms"`
		TLSInsecure      *bool  `yaml:"tls_insecure"`
		Proxy            string `yaml:"proxy"`
	} `yaml:"api"`
	Selection struct {
		Base  string   `yaml:"base"`
		Quote string   `yaml:"quote"`
		Coins []string `yaml:"coins"`
		Fiats []string `yaml:"fiats"`
	} `yaml:"selection"`
	GPIO struct {
		ButtonPath  string `yaml:"button_path"`
		PosLEDPath  string `yaml:"pos_led_path"`
		NegLEDPath  string `yaml:"neg_led_path"`
		InfoLEDPath string `yaml:"info_led_path"`
		ActiveLow   bool   `yaml:"active_low"`
	} `yaml:"gpio"`
	Web struct {
		Addr        string `yaml:"addr"`
		CheckOrigin bool   `yaml:"check_origin"`
	} `yaml:"web"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Proxy    string `yaml:"proxy"`
	} `yaml:"telegram"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTLSec   int    `yaml:"ttl_sec"`
	} `yaml:"redis"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		RefreshCron   string `yaml:"refresh_cron"`
		HeartbeatCron string `yaml:"heartbeat_cron"`
	} `yaml:"schedule"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// DefaultPath is used when neither --config nor CONFIG_PATH is set.
const DefaultPath = "configs/config.yaml"

// Load reads .env and the YAML file, then applies environment variable
// overrides and defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	setInt := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setInt(&c.FetchIntervalMS, "FETCH_INTERVAL_MS")
	setString(&c.DataSource, "TICKER_DATA_SOURCE")
	setString(&c.API.Host, "TICKER_API_HOST")
	setInt(&c.API.Port, "TICKER_API_PORT")
	setInt(&c.API.RequestTimeoutMS, "TICKER_REQUEST_TIMEOUT_MS")
	setString(&c.API.Proxy, "TICKER_PROXY")
	if v := os.Getenv("TICKER_TLS_INSECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.API.TLSInsecure = &b
		}
	}
	setString(&c.Selection.Base, "TICKER_BASE")
	setString(&c.Selection.Quote, "TICKER_QUOTE")
	setString(&c.Web.Addr, "WEB_ADDR")
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.Telegram.Proxy, "HTTPS_PROXY")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Schedule.RefreshCron, "CRON_REFRESH")
	setString(&c.Schedule.HeartbeatCron, "CRON_HEARTBEAT")
	setString(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.FetchIntervalMS == 0 {
		c.FetchIntervalMS = 30000
	}
	if c.TickIntervalMS == 0 {
		c.TickIntervalMS = 100
	}
	if c.DataSource == "" {
		c.DataSource = "gemini"
	}
	if c.API.Host == "" {
		c.API.Host = "api.gemini.com"
	}
	if c.API.Port == 0 {
		c.API.Port = 443
	}
	if c.API.RequestTimeoutMS == 0 {
		c.API.RequestTimeoutMS = 5000
	}
	if c.API.TLSInsecure == nil {
		insecure := true
		c.API.TLSInsecure = &insecure
	}
	if c.Selection.Base == "" {
		c.Selection.Base = "DOGE"
	}
	if c.Selection.Quote == "" {
		c.Selection.Quote = "USD"
	}
	if len(c.Selection.Coins) == 0 {
		c.Selection.Coins = []string{"DOGE", "BTC", "LTC"}
	}
	if len(c.Selection.Fiats) == 0 {
		c.Selection.Fiats = []string{"USD", "EUR", "GBP", "RUB", "SGD"}
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8080"
	}
	if c.Redis.TTLSec == 0 {
		c.Redis.TTLSec = 300
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/ticker.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Selection.Base = strings.ToUpper(c.Selection.Base)
	c.Selection.Quote = strings.ToUpper(c.Selection.Quote)
	for i := range c.Selection.Coins {
		c.Selection.Coins[i] = strings.ToUpper(c.Selection.Coins[i])
	}
	for i := range c.Selection.Fiats {
		c.Selection.Fiats[i] = strings.ToUpper(c.Selection.Fiats[i])
	}
}

// Insecure reports whether the API certificate is left unverified.
func (c *Config) Insecure() bool {
	return c.API.TLSInsecure == nil || *c.API.TLSInsecure
}

// Validate checks option ranges and required pairs of fields.
func (c *Config) Validate() error {
	if c.FetchIntervalMS < 1000 {
		return fmt.Errorf("fetch_interval_ms must be at least 1000, got %d", c.FetchIntervalMS)
	}
	if c.TickIntervalMS <= 0 {
		return fmt.Errorf("tick_interval_ms must be positive")
	}
	if c.API.RequestTimeoutMS <= 0 {
		return fmt.Errorf("api.request_timeout_ms must be positive")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}
	switch c.DataSource {
	case "gemini", "mock":
	default:
		return fmt.Errorf("data_source must be gemini or mock, got %q", c.DataSource)
	}
	if _, err := model.NewPriceQuery(c.Selection.Base, c.Selection.Quote); err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	for _, coin := range c.Selection.Coins {
		if err := model.ValidSymbol(coin); err != nil {
			return fmt.Errorf("selection.coins: %w", err)
		}
	}
	for _, fiat := range c.Selection.Fiats {
		if err := model.ValidSymbol(fiat); err != nil {
			return fmt.Errorf("selection.fiats: %w", err)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
