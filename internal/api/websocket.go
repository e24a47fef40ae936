package api

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"territory-arena/internal/config"
	"territory-arena/internal/game"
	"territory-arena/internal/metrics"
	"territory-arena/internal/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
)

// WebSocketHub accepts player connections and bridges them to the engine.
// Each connection gets a reader goroutine that turns frames into commands
// and a writer goroutine that drains its send queue.
type WebSocketHub struct {
	engine      EngineInterface
	limits      config.LimitsConfig
	upgrader    websocket.Upgrader
	connLimiter *ConnLimiter

	mu      sync.Mutex
	clients map[string]*wsClient
	closed  bool
	wg      sync.WaitGroup
}

// NewWebSocketHub creates a hub. It starts nothing until a connection
// arrives.
func NewWebSocketHub(engine EngineInterface, limits config.LimitsConfig, origins OriginPolicy) *WebSocketHub {
	h := &WebSocketHub{
		engine:      engine,
		limits:      limits,
		connLimiter: NewConnLimiter(limits.MaxWSConnectionsPerIP),
		clients:     make(map[string]*wsClient),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if origins.AllowRequest(r) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", r.Header.Get("Origin"))
			metrics.RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// wsClient is one player's socket. It implements game.Conn.
type wsClient struct {
	id      string
	ip      string
	conn    *websocket.Conn
	codec   protocol.Codec
	limiter *rate.Limiter

	send      chan protocol.Message
	done      chan struct{}
	closeOnce sync.Once
}

// Send queues msg for the writer. A full queue drops the message; the
// periodic full-state broadcast resynchronises the client.
func (c *wsClient) Send(msg protocol.Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		metrics.RecordWSMessage("dropped")
		return false
	}
}

func (c *wsClient) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleWebSocket upgrades a request into a player session. The optional
// query parameter codec=msgpack selects binary frames.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= h.limits.MaxWSConnections {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		metrics.RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.connLimiter.Acquire(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		metrics.RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.connLimiter.Release(ip)
		return
	}

	joined := false
	c := &wsClient{
		id:      uuid.NewString(),
		ip:      ip,
		conn:    conn,
		codec:   protocol.CodecFor(r.URL.Query().Get("codec")),
		limiter: rate.NewLimiter(rate.Limit(h.limits.MessagesPerSecond), h.limits.MessageBurst),
		send:    make(chan protocol.Message, h.limits.SendBuffer),
		done:    make(chan struct{}),
	}
	if !h.register(c) {
		h.connLimiter.Release(ip)
		h.reject(c, websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer func() {
		if !joined {
			h.wg.Done()
		}
	}()

	if err := h.engine.Connect(c.id, c); err != nil {
		reason := "join refused"
		if errors.Is(err, game.ErrServerFull) || errors.Is(err, game.ErrWorldFull) {
			metrics.RecordConnectionRejected("player_limit")
			reason = err.Error()
		}
		log.Printf("⚠️ Player %s from %s refused: %v", c.id, ip, err)
		h.unregister(c)
		h.reject(c, websocket.CloseTryAgainLater, reason)
		return
	}

	log.Printf("📱 Client %s connected from %s (%s)", c.id, ip, c.codec.Name())
	joined = true
	go h.serve(c)
}

// serve runs one session until both pumps have exited.
func (h *WebSocketHub) serve(c *wsClient) {
	defer h.wg.Done()
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(c)
	}()
	h.readPump(c)
	<-writerDone
}

// register tracks c and counts it in wg; the session releases wg when
// it ends.
func (h *WebSocketHub) register(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	h.wg.Add(1)
	metrics.UpdateWSConnections(len(h.clients))
	return true
}

func (h *WebSocketHub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	h.connLimiter.Release(c.ip)
	metrics.UpdateWSConnections(len(h.clients))
}

// reject closes a connection that never joined the game.
func (h *WebSocketHub) reject(c *wsClient, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.conn.Close()
}

// readPump decodes inbound frames into engine commands until the socket
// fails, then removes the player.
func (h *WebSocketHub) readPump(c *wsClient) {
	defer func() {
		h.engine.Disconnect(c.id)
		c.Close()
		h.unregister(c)
		log.Printf("📱 Client %s disconnected (%d remaining)", c.id, h.ClientCount())
	}()

	c.conn.SetReadLimit(h.limits.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️ WebSocket read from %s: %v", c.id, err)
			}
			return
		}
		metrics.RecordWSMessage("in")

		if !c.limiter.Allow() {
			metrics.RecordCommandDropped("rate_limit")
			continue
		}
		frame, err := c.codec.Decode(data)
		if err != nil {
			metrics.RecordCommandDropped("decode")
			continue
		}
		cmd, err := game.DecodeCommand(c.id, frame)
		if err != nil {
			if errors.Is(err, game.ErrUnknownEvent) {
				metrics.RecordCommandDropped("unknown")
			} else {
				metrics.RecordCommandDropped("decode")
			}
			continue
		}
		h.engine.Submit(cmd)
	}
}

// writePump is the only goroutine that writes to c.conn after the join.
func (h *WebSocketHub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			data, err := c.codec.Encode(msg)
			if err != nil {
				log.Printf("⚠️ Encode %s for %s: %v", msg.Event, c.id, err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(c.codec.FrameType(), data); err != nil {
				return
			}
			metrics.RecordWSMessage("out")

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// Close disconnects every client and waits for their goroutines.
func (h *WebSocketHub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	h.wg.Wait()
}
