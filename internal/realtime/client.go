package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"annotate-backend/internal/shared/metrics"
	"annotate-backend/internal/shared/telemetry"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
	sendBuffer     = 64
)

// Client is one live websocket connection with a verified identity. A user
// may hold several clients at once (multiple tabs); each joins channels
// independently.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	send chan []byte
	// closed marks send as closed; guarded by the hub mutex. The read pump
	// can outlive a drop by the hub, so nothing may touch send without
	// holding the mutex and checking this flag first.
	closed bool

	// channels the client has joined; guarded by the hub mutex.
	channels map[string]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		userID:   userID,
		send:     make(chan []byte, sendBuffer),
		channels: make(map[string]struct{}),
	}
}

// closeSendLocked signals the write pump to shut the connection down. The
// hub mutex must be held.
func (c *Client) closeSendLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump consumes inbound frames until the connection drops, then detaches
// the client from the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
		metrics.DecWSConnections()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				telemetry.Warn("realtime.read", map[string]any{
					"user_id": c.userID,
					"err":     err.Error(),
				})
			}
			return
		}
		c.handle(message)
	}
}

// handle dispatches one inbound frame.
func (c *Client) handle(message []byte) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		return
	}
	if env.DocumentID == "" {
		return
	}

	switch env.Event {
	case eventJoinDocument:
		if !c.hub.Join(c, env.DocumentID) {
			return
		}
		if ack, err := encodeEvent(env.DocumentID, eventJoinedDocument, map[string]string{"documentId": env.DocumentID}); err == nil {
			c.hub.deliver(c, ack)
		}
	case eventLeaveDocument:
		c.hub.Leave(c, env.DocumentID)
	case eventUserCursor:
		// Presence relays carry the verified identity, not whatever the
		// client claimed, and never echo back to the sender.
		var in cursorPayload
		if len(env.Payload) > 0 {
			_ = json.Unmarshal(env.Payload, &in)
		}
		c.hub.PublishExcept(env.DocumentID, eventUserCursor, cursorPayload{
			UserID:    c.userID,
			Selection: in.Selection,
		}, c)
	}
}

// writePump drains the send buffer to the connection and keeps it alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
