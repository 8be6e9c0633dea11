package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/technosupport/ts-console/internal/metrics"
	"github.com/technosupport/ts-console/internal/middleware"
	"github.com/technosupport/ts-console/internal/prefs"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by middleware.CORS
	},
}

// wsMessage is both directions of the preference socket. Clients send
// {"type":"set","key":...,"value":...}; the server sends "hello" once with
// the current overlay and "change" for writes made by other clients.
type wsMessage struct {
	Type    string         `json:"type"`
	Origin  string         `json:"origin,omitempty"`
	Key     string         `json:"key,omitempty"`
	Value   string         `json:"value,omitempty"`
	Overlay *prefs.Overlay `json:"overlay,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type wsClient struct {
	scope  string
	origin string
	send   chan wsMessage
}

// PrefsHub relays preference changes to every connected console of the same
// operator except the one that made the change.
type PrefsHub struct {
	prefs *prefs.Service

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

func NewPrefsHub(p *prefs.Service) *PrefsHub {
	return &PrefsHub{prefs: p, clients: make(map[*wsClient]struct{})}
}

// Start subscribes to the store's change feed and relays it until ctx is
// done. The subscription is live when Start returns.
func (h *PrefsHub) Start(ctx context.Context) error {
	changes, err := h.prefs.Store().Subscribe(ctx)
	if err != nil {
		return err
	}
	go h.run(ctx, changes)
	return nil
}

func (h *PrefsHub) run(ctx context.Context, changes <-chan prefs.Change) {
	log.Info().Msg("prefs hub started")
	defer log.Info().Msg("prefs hub stopped")
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			h.dispatch(c)
		}
	}
}

func (h *PrefsHub) dispatch(c prefs.Change) {
	msg := wsMessage{Type: "change", Origin: c.Origin, Key: c.Key, Value: c.Value}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		if cl.scope != c.Scope || (c.Origin != "" && cl.origin == c.Origin) {
			continue
		}
		select {
		case cl.send <- msg:
		default:
			log.Warn().Str("origin", cl.origin).Msg("prefs client too slow, dropping change")
		}
	}
}

func (h *PrefsHub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.PrefSubscribers.Inc()
}

func (h *PrefsHub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		metrics.PrefSubscribers.Dec()
	}
	h.mu.Unlock()
}

// Clients is the number of connected sockets.
func (h *PrefsHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS GET /api/v1/prefs/ws?token=...&origin=...
func (h *PrefsHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	origin := r.URL.Query().Get("origin")
	if origin == "" {
		origin = uuid.New().String()
	}

	overlay, err := h.prefs.Load(r.Context(), ac.OperatorID, true)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("prefs websocket upgrade failed")
		return
	}

	c := &wsClient{scope: ac.OperatorID, origin: origin, send: make(chan wsMessage, wsSendBuffer)}
	h.register(c)
	h.reply(c, wsMessage{Type: "hello", Origin: origin, Overlay: &overlay})
	log.Debug().Str("operator", ac.OperatorID).Str("origin", origin).Msg("prefs websocket connected")

	go h.writePump(conn, c)
	h.readPump(conn, c)
}

func (h *PrefsHub) readPump(conn *websocket.Conn, c *wsClient) {
	defer func() {
		h.unregister(c)
		conn.Close()
	}()
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("origin", c.origin).Msg("prefs websocket read failed")
			}
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "set" {
			h.reply(c, wsMessage{Type: "error", Error: "expected {\"type\":\"set\",\"key\",\"value\"}"})
			continue
		}

		if !prefs.IsOverlayKey(msg.Key) {
			h.reply(c, wsMessage{Type: "error", Key: msg.Key, Error: prefs.ErrUnknownKey.Error()})
			continue
		}
		on, err := prefs.ParseValue(msg.Value)
		if err != nil {
			h.reply(c, wsMessage{Type: "error", Key: msg.Key, Value: msg.Value, Error: err.Error()})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), wsWriteWait)
		o, err := h.prefs.Toggle(ctx, c.scope, msg.Key, on, c.origin)
		cancel()
		if err != nil {
			h.reply(c, wsMessage{Type: "error", Key: msg.Key, Error: err.Error()})
			continue
		}
		metrics.PrefChangesTotal.WithLabelValues(msg.Key).Inc()
		h.reply(c, wsMessage{Type: "ack", Key: msg.Key, Value: msg.Value, Overlay: &o})
	}
}

// reply queues msg for c alone unless c has already gone.
func (h *PrefsHub) reply(c *wsClient, msg wsMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *PrefsHub) writePump(conn *websocket.Conn, c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
