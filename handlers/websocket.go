package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"pmo-bot/middleware"
	"pmo-bot/models"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 256
)

// TurnProcessor runs chat turns that arrive over the socket.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, conversationID string, sender models.Identity, text string) models.BotReplyPayload
	ProcessJoin(ctx context.Context, conversationID string, joined []models.Identity) models.BotReplyPayload
}

type UserLookup interface {
	GetUserByID(id string) (*models.User, error)
}

type Client struct {
	hub             *Hub
	conn            *websocket.Conn
	send            chan []byte
	user            models.Identity
	conversations   map[string]bool
	conversationsMu sync.RWMutex
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	unregister chan *Client
	done       chan struct{}
	stopped    bool
	auth       *middleware.Authenticator
	users      UserLookup
	turns      TurnProcessor
	upgrader   websocket.Upgrader
	mu         sync.RWMutex
}

func NewHub(auth *middleware.Authenticator, users UserLookup, allowedOrigins []string) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		unregister: make(chan *Client, 16),
		done:       make(chan struct{}),
		auth:       auth,
		users:      users,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// SetTurnProcessor wires the bot in. It must be called before serving.
func (h *Hub) SetTurnProcessor(p TurnProcessor) {
	h.turns = p
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin.
		return origin == "" || set[origin]
	}
}

func (h *Hub) Run(ctx context.Context) {
	log.Printf("[WS HUB] Hub started and running")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			log.Printf("[WS HUB] Hub stopped")
			return

		case client := <-h.unregister:
			h.mu.Lock()
			wasPresent := false
			if _, ok := h.clients[client]; ok {
				wasPresent = true
				delete(h.clients, client)
				close(client.send)
			}
			clientCount := len(h.clients)
			h.mu.Unlock()

			if wasPresent {
				log.Printf("[WS HUB] Client unregistered: %s (total clients: %d)", client.user.ID, clientCount)
			}

		case message := <-h.broadcast:
			sent, total := h.deliver(message, func(*Client) bool { return true })

			var wsMsg models.WSMessage
			if json.Unmarshal(message, &wsMsg) == nil {
				log.Printf("[WS HUB] Broadcast type '%s' sent to %d/%d clients", wsMsg.Type, sent, total)
			}
		}
	}
}

// deliver queues data on every client accepted by match. Clients whose send
// buffer is full are dropped.
func (h *Hub) deliver(data []byte, match func(*Client) bool) (sent, total int) {
	var staleClients []*Client
	h.mu.RLock()
	total = len(h.clients)
	for client := range h.clients {
		if !match(client) {
			continue
		}
		select {
		case client.send <- data:
			sent++
		default:
			log.Printf("[WS] Client %s buffer full - marking as stale", client.user.ID)
			staleClients = append(staleClients, client)
		}
	}
	h.mu.RUnlock()

	if len(staleClients) > 0 {
		h.mu.Lock()
		for _, client := range staleClients {
			if _, ok := h.clients[client]; ok {
				close(client.send)
				delete(h.clients, client)
			}
		}
		h.mu.Unlock()
	}
	return sent, total
}

// BroadcastToConversation sends msg to every client subscribed to the
// conversation.
func (h *Hub) BroadcastToConversation(conversationID string, msg models.WSMessage) int {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WS] BroadcastToConversation marshal error for type '%s': %v", msg.Type, err)
		return 0
	}

	sent, _ := h.deliver(data, func(c *Client) bool { return c.isSubscribed(conversationID) })
	log.Printf("[WS] BroadcastToConversation %s type=%s sent to %d clients", conversationID, msg.Type, sent)
	return sent
}

// BroadcastAll queues msg for every connected client. It returns false if the
// hub has stopped.
func (h *Hub) BroadcastAll(msg models.WSMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WS] BroadcastAll marshal error for type '%s': %v", msg.Type, err)
		return false
	}

	select {
	case h.broadcast <- data:
		return true
	case <-h.done:
		return false
	}
}

// addClient registers synchronously so that replies to the client's first
// message can already find it.
func (h *Hub) addClient(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.clients[client] = true
	log.Printf("[WS HUB] Client registered: %s (total clients: %d)", client.user.ID, len(h.clients))
	return true
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		log.Printf("[WS] Connection rejected - no token provided from %s", r.RemoteAddr)
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		log.Printf("[WS] Connection rejected - invalid token from %s: %v", r.RemoteAddr, err)
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(claims.UserID)
	if err != nil {
		log.Printf("[WS] Connection rejected - unknown user %s: %v", claims.UserID, err)
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error for user %s: %v", claims.UserID, err)
		return
	}

	client := &Client{
		hub:           h,
		conn:          conn,
		send:          make(chan []byte, sendBuffer),
		user:          user.Identity(),
		conversations: make(map[string]bool),
	}

	// Written directly so it is always the first frame the client sees.
	connected, _ := json.Marshal(models.WSMessage{
		Type:    models.WSTypeConnected,
		Payload: map[string]any{"message": "connected", "user": client.user},
	})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, connected); err != nil {
		log.Printf("[WS] Failed to send connected message to %s: %v", client.user.ID, err)
		conn.Close()
		return
	}

	if !h.addClient(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

type wsIncoming struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type conversationRef struct {
	ConversationID string `json:"conversation_id"`
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[WS] Unexpected close error for client %s: %v", c.user.ID, err)
			}
			break
		}

		var in wsIncoming
		if err := json.Unmarshal(message, &in); err != nil {
			log.Printf("[WS] Failed to unmarshal message from client %s: %v", c.user.ID, err)
			c.sendError("invalid message")
			continue
		}

		log.Printf("[WS] <<< Received message type '%s' from client %s", in.Type, c.user.ID)
		c.handle(in)
	}
}

func (c *Client) handle(in wsIncoming) {
	ctx := context.Background()

	switch in.Type {
	case models.WSTypeSubscribe:
		var ref conversationRef
		if json.Unmarshal(in.Payload, &ref) != nil || ref.ConversationID == "" {
			c.sendError("conversation_id required")
			return
		}
		c.subscribe(ref.ConversationID)
		log.Printf("[WS] Client %s subscribed to conversation %s", c.user.ID, ref.ConversationID)
		if c.hub.turns != nil {
			reply := c.hub.turns.ProcessJoin(ctx, ref.ConversationID, []models.Identity{c.user})
			c.sendJSON(models.WSMessage{Type: models.WSTypeWelcome, Payload: reply})
		}

	case models.WSTypeUnsubscribe:
		var ref conversationRef
		if json.Unmarshal(in.Payload, &ref) != nil || ref.ConversationID == "" {
			c.sendError("conversation_id required")
			return
		}
		c.conversationsMu.Lock()
		delete(c.conversations, ref.ConversationID)
		c.conversationsMu.Unlock()
		log.Printf("[WS] Client %s unsubscribed from conversation %s", c.user.ID, ref.ConversationID)

	case models.WSTypeTurn:
		var turn models.TurnPayload
		if json.Unmarshal(in.Payload, &turn) != nil || turn.ConversationID == "" {
			c.sendError("conversation_id and text required")
			return
		}
		if c.hub.turns == nil {
			c.sendError("bot unavailable")
			return
		}
		// The reply is fanned out to subscribers, so the sender must be one.
		c.subscribe(turn.ConversationID)
		c.hub.turns.ProcessTurn(ctx, turn.ConversationID, c.user, turn.Text)

	default:
		log.Printf("[WS] Unknown message type '%s' from client %s", in.Type, c.user.ID)
		c.sendError("unknown message type: " + in.Type)
	}
}

func (c *Client) subscribe(conversationID string) {
	c.conversationsMu.Lock()
	c.conversations[conversationID] = true
	c.conversationsMu.Unlock()
}

func (c *Client) isSubscribed(conversationID string) bool {
	c.conversationsMu.RLock()
	defer c.conversationsMu.RUnlock()
	return c.conversations[conversationID]
}

func (c *Client) sendError(message string) {
	c.sendJSON(models.WSMessage{Type: models.WSTypeError, Payload: map[string]string{"message": message}})
}

// sendJSON queues a message for this client only.
func (c *Client) sendJSON(msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.hub.deliver(data, func(other *Client) bool { return other == c })
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for client %s: %v", c.user.ID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping failed for client %s: %v", c.user.ID, err)
				return
			}
		}
	}
}
