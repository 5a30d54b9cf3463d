package remote

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"PriceTicker/internal/model"
	"PriceTicker/internal/trigger"
)

var dogeUSD = model.PriceQuery{Base: "DOGE", Quote: "USD"}

func newSelector() *trigger.Selector {
	return trigger.NewSelector([]string{"DOGE", "BTC", "LTC"}, []string{"USD", "EUR"}, dogeUSD)
}

type fakeStatus struct {
	q      model.PriceQuery
	sample *model.PriceSample
}

func (f *fakeStatus) Query() model.PriceQuery { return f.q }

func (f *fakeStatus) LastKnown() (model.PriceSample, bool) {
	if f.sample == nil {
		return model.PriceSample{}, false
	}
	return *f.sample, true
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readStates(t *testing.T, conn *websocket.Conn) State {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg StatesMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msg.States) != 1 {
		t.Fatalf("states: got %d", len(msg.States))
	}
	return msg.States[0]
}

func TestHub_GetCurrentStates(t *testing.T) {
	sel := newSelector()
	hub := NewHub(sel, false)
	srv := httptest.NewServer(NewRouter(hub, &fakeStatus{q: dogeUSD}))
	defer srv.Close()

	conn := dialHub(t, srv)
	if err := conn.WriteMessage(websocket.TextMessage, []byte("getCurrentStates")); err != nil {
		t.Fatal(err)
	}
	st := readStates(t, conn)
	if st.Sender != "ticker" || st.CurrentCrypto != "DOGE" || st.CurrentCurrency != "USD" {
		t.Errorf("got %+v", st)
	}
}

func TestHub_ClientSelectionIsBroadcast(t *testing.T) {
	sel := newSelector()
	var mu sync.Mutex
	var selected []model.PriceQuery
	sel.Subscribe(func(q model.PriceQuery) {
		mu.Lock()
		selected = append(selected, q)
		mu.Unlock()
	})
	hub := NewHub(sel, false)
	srv := httptest.NewServer(NewRouter(hub, &fakeStatus{q: dogeUSD}))
	defer srv.Close()

	a := dialHub(t, srv)
	b := dialHub(t, srv)
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	msg := `{"states":[{"sender":"client","currentCurrency":"eur","currentCrypto":"btc"}]}`
	if err := a.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatal(err)
	}
	for _, c := range []*websocket.Conn{a, b} {
		st := readStates(t, c)
		if st.CurrentCrypto != "BTC" || st.CurrentCurrency != "EUR" {
			t.Errorf("broadcast: got %+v", st)
		}
	}
	if got := sel.Current(); got.Base != "BTC" || got.Quote != "EUR" {
		t.Errorf("selector: got %v", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(selected) != 1 {
		t.Errorf("subscribers notified %d times", len(selected))
	}
}

func TestHub_IgnoresOwnAndInvalidMessages(t *testing.T) {
	sel := newSelector()
	hub := NewHub(sel, false)

	hub.handleMessage([]byte(`{"states":[{"sender":"ticker","currentCurrency":"EUR","currentCrypto":"BTC"}]}`))
	hub.handleMessage([]byte(`{"states":[{"sender":"client","currentCurrency":"E","currentCrypto":"BTC"}]}`))
	hub.handleMessage([]byte(`not json`))
	if got := sel.Current(); got != dogeUSD {
		t.Errorf("selection changed to %v", got)
	}
}

func TestRouter_HealthAndState(t *testing.T) {
	hub := NewHub(newSelector(), false)
	status := &fakeStatus{q: dogeUSD}
	srv := httptest.NewServer(NewRouter(hub, status))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
		t.Errorf("health: %d %s", resp.StatusCode, body)
	}

	get := func() map[string]any {
		resp, err := http.Get(srv.URL + "/api/state")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var m map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
			t.Fatal(err)
		}
		return m
	}

	m := get()
	if m["base"] != "DOGE" || m["quote"] != "USD" {
		t.Errorf("state: %v", m)
	}
	if _, ok := m["price"]; ok {
		t.Error("price should be omitted before the first fetch")
	}

	status.sample = &model.PriceSample{Price: "0.12345", PercentChange24h: 0.0321}
	m = get()
	if m["price"] != "0.12345" || m["change"] != "3.21%" {
		t.Errorf("state: %v", m)
	}
}

func newTestBot(sel *trigger.Selector, status Status) (*TelegramBot, *int) {
	refreshed := 0
	bot := NewTelegramBot("token", "42", "")
	bot.Selector = sel
	bot.Status = status
	bot.Refresh = func() { refreshed++ }
	return bot, &refreshed
}

func TestTelegram_HandleCommand(t *testing.T) {
	sel := newSelector()
	status := &fakeStatus{q: dogeUSD}
	bot, refreshed := newTestBot(sel, status)

	if reply := bot.HandleCommand("/price"); !strings.Contains(reply, "DOGE/USD") || *refreshed != 1 {
		t.Errorf("/price: %q refreshed=%d", reply, *refreshed)
	}
	if reply := bot.HandleCommand("/pair btc eur"); reply != "Selected BTC/EUR" {
		t.Errorf("/pair: %q", reply)
	}
	if reply := bot.HandleCommand("/coin ltc"); reply != "Selected LTC/EUR" {
		t.Errorf("/coin: %q", reply)
	}
	if reply := bot.HandleCommand("/currency gbp"); reply != "Selected LTC/GBP" {
		t.Errorf("/currency: %q", reply)
	}
	if reply := bot.HandleCommand("/pair@PriceTickerBot DOGE/USD"); reply != "Selected DOGE/USD" {
		t.Errorf("/pair with bot suffix: %q", reply)
	}
	if reply := bot.HandleCommand("/pair DOGE"); !strings.HasPrefix(reply, "Usage") {
		t.Errorf("/pair usage: %q", reply)
	}
	if reply := bot.HandleCommand("/coin $$"); !strings.HasPrefix(reply, "Invalid pair") {
		t.Errorf("/coin invalid: %q", reply)
	}
	if reply := bot.HandleCommand("/state"); reply != "DOGE/USD: no price yet" {
		t.Errorf("/state empty: %q", reply)
	}
	status.sample = &model.PriceSample{Price: "0.12345", PercentChange24h: -0.005}
	if reply := bot.HandleCommand("/state"); reply != "DOGE/USD: $ 0.12345 (-0.50%)" {
		t.Errorf("/state: %q", reply)
	}
	if reply := bot.HandleCommand("/unknown"); !strings.HasPrefix(reply, "Commands:") {
		t.Errorf("help: %q", reply)
	}
}

func TestTelegram_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/sendMessage" {
			t.Errorf("path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	bot, _ := newTestBot(newSelector(), &fakeStatus{q: dogeUSD})
	bot.APIBase = srv.URL
	if err := bot.Send("hello"); err != nil {
		t.Fatal(err)
	}
	if got["chat_id"] != "42" || got["text"] != "hello" {
		t.Errorf("payload: %v", got)
	}
}

func TestTelegram_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	bot, _ := newTestBot(newSelector(), &fakeStatus{q: dogeUSD})
	bot.APIBase = srv.URL
	if err := bot.Send("hello"); err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected status error, got %v", err)
	}
}
