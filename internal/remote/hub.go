package remote

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"PriceTicker/internal/model"
	"PriceTicker/internal/trigger"
)

const (
	getCurrentStates = "getCurrentStates"
	senderClient     = "client"
	senderTicker     = "ticker"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	maxMessage = 512
)

// StatesMessage is the remote-control wire format shared with the web UI.
type StatesMessage struct {
	States []State `json:"states"`
}

type State struct {
	Sender          string `json:"sender"`
	CurrentCurrency string `json:"currentCurrency"`
	CurrentCrypto   string `json:"currentCrypto"`
}

// Hub serves the WebSocket remote control. Clients may ask for the current
// pair or select a new one; every change is broadcast to all clients.
type Hub struct {
	selector *trigger.Selector
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*wsClient
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewHub creates a hub bound to the selector and subscribes to its changes.
func NewHub(sel *trigger.Selector, checkOrigin bool) *Hub {
	h := &Hub{
		selector: sel,
		clients:  make(map[string]*wsClient),
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
	if !checkOrigin {
		h.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	sel.Subscribe(h.Broadcast)
	return h
}

// ServeHTTP upgrades the request and runs the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	c := &wsClient{id: uuid.New().String(), conn: conn, send: make(chan []byte, 16)}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	log.Info().Str("client_id", c.id).Str("remote", r.RemoteAddr).Msg("websocket client connected")

	go h.writePump(c)
	h.readPump(c)
}

// Broadcast sends the current states for q to every client.
func (h *Hub) Broadcast(q model.PriceQuery) {
	data, err := json.Marshal(statesFor(q))
	if err != nil {
		log.Error().Err(err).Msg("marshal states")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("client_id", c.id).Msg("websocket client send channel full, dropping message")
		}
	}
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.remove(c)
	}
}

func statesFor(q model.PriceQuery) StatesMessage {
	return StatesMessage{States: []State{{
		Sender:          senderTicker,
		CurrentCurrency: q.Quote,
		CurrentCrypto:   q.Base,
	}}}
}

// handleMessage applies one text frame from a client.
func (h *Hub) handleMessage(data []byte) {
	if strings.TrimSpace(string(data)) == getCurrentStates {
		h.Broadcast(h.selector.Current())
		return
	}

	var msg StatesMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Msg("decode websocket message")
		return
	}
	if len(msg.States) == 0 || msg.States[0].Sender != senderClient {
		return
	}
	st := msg.States[0]
	q, err := model.NewPriceQuery(st.CurrentCrypto, st.CurrentCurrency)
	if err != nil {
		log.Warn().Err(err).Msg("invalid selection from websocket client")
		return
	}
	h.selector.Select(q)
}

func (h *Hub) remove(c *wsClient) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c.id)
		h.mu.Unlock()
		close(c.send)
		c.conn.Close()
		log.Info().Str("client_id", c.id).Msg("websocket client disconnected")
	})
}

func (h *Hub) readPump(c *wsClient) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("client_id", c.id).Msg("unexpected websocket close error")
			}
			return
		}
		if mt == websocket.TextMessage {
			h.handleMessage(data)
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(c)
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
