// Package gateway implements the Client Gateway (spec.md §4.6/§6.1): a
// websocket transport with a JSON event codec in front of the table
// layer. Every inbound event funnels into the matching table.Session
// method; outbound table.OutboundEvent values are JSON-encoded and
// pushed to the originating socket's write pump.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/feltstack/holdem/poker"
	"github.com/feltstack/holdem/table"
)

const (
	readLimit      = 65536
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	writeWait      = 10 * time.Second
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TokenVerifier is the subset of the Directory Service the gateway's
// auth handshake depends on. The concrete HTTP-backed implementation
// lives in the directory package; gateway only depends on this
// interface so it never imports a transport concern.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (userID, displayName string, err error)
}

// TableSource resolves tableId/communityId references to a live
// table.Session, creating or reusing tables as join_table requires.
type TableSource interface {
	Get(tableID string) (*table.Session, bool)
	TableForCommunity(communityID string) (*table.Session, error)
}

// Connection is one authenticated websocket client.
type Connection struct {
	ID          string
	UserID      string
	DisplayName string
	Conn        *websocket.Conn
	Send        chan []byte
	LastPing    time.Time

	mu      sync.Mutex
	session *table.Session
}

// Gateway tracks every live connection and routes outbound events by
// userId. It is the Broadcaster the table package's Session actors
// call into.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	byUser      map[string]*Connection
	nextConnID  uint64

	auth   TokenVerifier
	tables TableSource
}

// New creates a Gateway. auth verifies the bearer token presented at
// connection time; tables resolves join_table(communityId) requests.
func New(auth TokenVerifier, tables TableSource) *Gateway {
	return &Gateway{
		connections: make(map[string]*Connection),
		byUser:      make(map[string]*Connection),
		auth:        auth,
		tables:      tables,
	}
}

// HandleWebSocket upgrades the request after verifying its bearer
// credential token (spec.md §6.1); on failure it refuses with an
// Authentication-kind JSON error and never upgrades the connection.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing credential token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	userID, displayName, err := g.auth.VerifyToken(ctx, token)
	cancel()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credential token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	connID := fmt.Sprintf("conn_%d", g.nextConnID)
	c := &Connection{
		ID:          connID,
		UserID:      userID,
		DisplayName: displayName,
		Conn:        conn,
		Send:        make(chan []byte, sendBufferSize),
		LastPing:    time.Now(),
	}
	g.connections[connID] = c
	g.byUser[userID] = c
	g.mu.Unlock()

	log.Printf("[Gateway] client connected: %s (user=%s), total=%d", connID, userID, len(g.connections))

	c.deliver(OutboundMessage{Kind: table.EventConnected, Payload: table.ConnectedPayload{SocketID: connID, Message: "connected"}})

	go g.writePump(c)
	go g.readPump(c)
}

func (g *Gateway) readPump(c *Connection) {
	defer func() {
		g.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] read error from %s: %v", c.ID, err)
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		g.handleMessage(c, data)
	}

	g.handleSocketClosed(c)
}

func (g *Gateway) writePump(c *Connection) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) handleMessage(c *Connection, data []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.sendError("invalid message format")
		return
	}

	switch env.Type {
	case inboundJoinTable:
		g.handleJoinTable(c, env)
	case inboundAction:
		g.handleAction(c, env)
	case inboundChat:
		g.handleChat(c, env)
	case inboundLeaveTable:
		g.handleLeaveTable(c)
	default:
		c.sendError(fmt.Sprintf("unknown event type %q", env.Type))
	}
}

func (g *Gateway) handleJoinTable(c *Connection, env inboundEnvelope) {
	var payload joinTablePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		c.sendError("invalid join_table payload")
		return
	}
	sess, err := g.tables.TableForCommunity(payload.CommunityID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.setSession(sess)
	if err := sess.MarkConnected(c.UserID, c.ID); err != nil {
		c.sendError(err.Error())
	}
}

func (g *Gateway) handleAction(c *Connection, env inboundEnvelope) {
	sess := c.getSession()
	if sess == nil {
		c.sendError("not in a table")
		return
	}
	var payload actionPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		c.sendError("invalid action payload")
		return
	}
	kind, err := parseActionKind(payload.Kind)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if err := sess.SubmitAction(c.UserID, kind, payload.Amount); err != nil {
		c.sendError(err.Error())
	}
}

func (g *Gateway) handleChat(c *Connection, env inboundEnvelope) {
	sess := c.getSession()
	if sess == nil {
		c.sendError("not in a table")
		return
	}
	var payload chatPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		c.sendError("invalid chat payload")
		return
	}
	sess.Chat(c.UserID, c.DisplayName, payload.Text)
}

func (g *Gateway) handleLeaveTable(c *Connection) {
	sess := c.getSession()
	if sess == nil {
		return
	}
	if err := sess.Leave(c.UserID); err != nil {
		c.sendError(err.Error())
		return
	}
	c.setSession(nil)
}

// handleSocketClosed implements the low-level "disconnect" event of
// §4.6: the transport dropping is itself the event, not a client
// message. The seat is not released here; MarkDisconnected only starts
// the reconnect-grace clock (§4.4).
func (g *Gateway) handleSocketClosed(c *Connection) {
	sess := c.getSession()
	if sess == nil {
		return
	}
	if err := sess.MarkDisconnected(c.UserID); err != nil {
		log.Printf("[Gateway] markDisconnected failed for %s: %v", c.UserID, err)
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.connections, c.ID)
	if g.byUser[c.UserID] == c {
		delete(g.byUser, c.UserID)
	}
	log.Printf("[Gateway] client disconnected: %s, total=%d", c.ID, len(g.connections))
}

// Deliver is a table.Broadcaster: it looks up userID's current
// connection and queues the outbound event for its write pump. A
// user with no live connection is a silent no-op.
func (g *Gateway) Deliver(userID string, evt table.OutboundEvent) {
	g.mu.RLock()
	c := g.byUser[userID]
	g.mu.RUnlock()
	if c == nil {
		return
	}
	c.deliver(OutboundMessage{Kind: evt.Kind, Payload: evt.Payload})
}

func (c *Connection) deliver(msg OutboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Gateway] failed to encode outbound event %s for %s: %v", msg.Kind, c.ID, err)
		return
	}
	select {
	case c.Send <- data:
	default:
		// Slow/dead reader: drop rather than block the actor that
		// produced this event.
	}
}

func (c *Connection) sendError(msg string) {
	c.deliver(OutboundMessage{Kind: table.EventError, Payload: table.ErrorPayload{Message: msg}})
}

func (c *Connection) setSession(s *table.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func (c *Connection) getSession() *table.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func parseActionKind(s string) (poker.ActionKind, error) {
	switch s {
	case "fold":
		return poker.ActionFold, nil
	case "check":
		return poker.ActionCheck, nil
	case "call":
		return poker.ActionCall, nil
	case "bet":
		return poker.ActionBet, nil
	case "raise":
		return poker.ActionRaise, nil
	case "all_in", "all-in":
		return poker.ActionAllIn, nil
	default:
		return 0, fmt.Errorf("unknown action kind %q", s)
	}
}

func bearerToken(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg})
}
