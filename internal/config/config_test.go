package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_PATH", "FETCH_INTERVAL_MS", "TICKER_DATA_SOURCE", "TICKER_API_HOST",
		"TICKER_API_PORT", "TICKER_REQUEST_TIMEOUT_MS", "TICKER_PROXY", "HTTPS_PROXY", "TICKER_TLS_INSECURE", "TICKER_BASE", "TICKER_QUOTE",
		"WEB_ADDR", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "REDIS_ADDR", "REDIS_PASSWORD",
		"SQLITE_PATH", "CRON_REFRESH", "CRON_HEARTBEAT", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FetchIntervalMS != 30000 || cfg.TickIntervalMS != 100 {
		t.Errorf("intervals: %d %d", cfg.FetchIntervalMS, cfg.TickIntervalMS)
	}
	if cfg.API.Host != "api.gemini.com" || cfg.API.Port != 443 || cfg.API.RequestTimeoutMS != 5000 {
		t.Errorf("api: %+v", cfg.API)
	}
	if !cfg.Insecure() {
		t.Error("tls_insecure should default to true")
	}
	if cfg.DataSource != "gemini" {
		t.Errorf("data source: %q", cfg.DataSource)
	}
	if cfg.Selection.Base != "DOGE" || cfg.Selection.Quote != "USD" {
		t.Errorf("selection: %s/%s", cfg.Selection.Base, cfg.Selection.Quote)
	}
	if strings.Join(cfg.Selection.Fiats, ",") != "USD,EUR,GBP,RUB,SGD" {
		t.Errorf("fiats: %v", cfg.Selection.Fiats)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
fetch_interval_ms: 60000
data_source: mock
api:
  tls_insecure: false
  request_timeout_ms: 2000
selection:
  base: btc
  quote: eur
  coins: [btc, eth]
telegram:
  bot_token: file-token
  chat_id: "1"
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TICKER_QUOTE", "gbp")
	t.Setenv("TICKER_PROXY", "socks5://127.0.0.1:1080")
	t.Setenv("HTTPS_PROXY", "http://127.0.0.1:3128")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FetchIntervalMS != 60000 || cfg.DataSource != "mock" || cfg.API.RequestTimeoutMS != 2000 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Insecure() {
		t.Error("explicit tls_insecure: false should be kept")
	}
	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("env override: %q", cfg.Telegram.BotToken)
	}
	if cfg.Selection.Base != "BTC" || cfg.Selection.Quote != "GBP" {
		t.Errorf("selection: %s/%s", cfg.Selection.Base, cfg.Selection.Quote)
	}
	if strings.Join(cfg.Selection.Coins, ",") != "BTC,ETH" {
		t.Errorf("coins: %v", cfg.Selection.Coins)
	}
	if cfg.API.Proxy != "socks5://127.0.0.1:1080" {
		t.Errorf("api proxy: %q", cfg.API.Proxy)
	}
	if cfg.Telegram.Proxy != "http://127.0.0.1:3128" {
		t.Errorf("telegram proxy: %q", cfg.Telegram.Proxy)
	}
}

func TestLoad_ConfigPathEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeConfig(t, "web:\n  addr: \":9090\"\n"))
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Web.Addr != ":9090" {
		t.Errorf("addr: %q", cfg.Web.Addr)
	}
}

func TestLoad_APIEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TICKER_API_PORT", "8443")
	t.Setenv("TICKER_REQUEST_TIMEOUT_MS", "2500")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.Port != 8443 || cfg.API.RequestTimeoutMS != 2500 {
		t.Errorf("api: port %d timeout %d", cfg.API.Port, cfg.API.RequestTimeoutMS)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeConfig(t, "fetch_interval_ms: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short interval", func(c *Config) { c.FetchIntervalMS = 500 }, "fetch_interval_ms"},
		{"bad source", func(c *Config) { c.DataSource = "yahoo" }, "data_source"},
		{"bad port", func(c *Config) { c.API.Port = 70000 }, "api.port"},
		{"bad pair", func(c *Config) { c.Selection.Quote = "E" }, "selection"},
		{"bad coin", func(c *Config) { c.Selection.Coins = []string{"DOGE", "DO GE"} }, "selection.coins"},
		{"bad fiat", func(c *Config) { c.Selection.Fiats = []string{"USD", "€"} }, "selection.fiats"},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "x" }, "telegram"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			tc.mutate(cfg)
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("got %v, want error mentioning %q", err, tc.want)
			}
		})
	}
}
