package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"PriceTicker/internal/display"
	"PriceTicker/internal/model"
	"PriceTicker/internal/trigger"
)

const telegramAPI = "https://api.telegram.org"

// TelegramBot lets a single chat control the ticker through bot commands.
type TelegramBot struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client

	Selector *trigger.Selector
	Status   Status
	Refresh  func()
}

// NewTelegramBot creates a bot with optional proxy support.
func NewTelegramBot(botToken, chatID, proxyURL string) *TelegramBot {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramBot{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  telegramAPI,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Send sends a message to the configured chat.
func (t *TelegramBot) Send(text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBase, t.BotToken)
	payload := map[string]string{
		"chat_id": t.ChatID,
		"text":    text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := t.Client.Post(apiURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramBot) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.Send(text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Warn().Err(err).Int("attempt", i+1).Dur("backoff", backoff).Msg("telegram send failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

const telegramHelp = "Commands:\n" +
	"/price - refresh now\n" +
	"/pair BASE QUOTE - select a pair\n" +
	"/coin BASE - change coin\n" +
	"/currency QUOTE - change currency\n" +
	"/state - show the current price"

// HandleCommand processes a command and returns the reply.
func (t *TelegramBot) HandleCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return telegramHelp
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]
	cur := t.Selector.Current()

	switch cmd {
	case "/price", "/refresh":
		if t.Refresh != nil {
			t.Refresh()
		}
		return "Refreshing " + cur.String()
	case "/pair":
		if len(args) == 1 {
			args = strings.SplitN(args[0], "/", 2)
		}
		if len(args) != 2 {
			return "Usage: /pair BASE QUOTE"
		}
		return t.selectPair(args[0], args[1])
	case "/coin":
		if len(args) != 1 {
			return "Usage: /coin BASE"
		}
		return t.selectPair(args[0], cur.Quote)
	case "/currency":
		if len(args) != 1 {
			return "Usage: /currency QUOTE"
		}
		return t.selectPair(cur.Base, args[0])
	case "/state":
		return t.describeState()
	default:
		return telegramHelp
	}
}

func (t *TelegramBot) selectPair(base, quote string) string {
	q, err := model.NewPriceQuery(base, quote)
	if err != nil {
		return "Invalid pair: " + err.Error()
	}
	t.Selector.Select(q)
	return "Selected " + q.String()
}

func (t *TelegramBot) describeState() string {
	q := t.Status.Query()
	s, ok := t.Status.LastKnown()
	if !ok {
		return q.String() + ": no price yet"
	}
	return fmt.Sprintf("%s: %s %s (%s)", q, display.CurrencySymbol(q.Quote), display.FormatPrice(q.Quote, s), s.ChangeDisplay())
}
