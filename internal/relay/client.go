package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/pkg/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 25 * time.Second
	pongWait   = 60 * time.Second
	maxFrame   = 4096
)

// Client is one websocket connection. It may be joined to several rooms.
type Client struct {
	id     string
	userID string // authenticated user, "" when the relay is open
	send   chan []byte
	rooms  map[string]struct{} // guarded by Hub.mu

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(userID string, buffer int) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		send:   make(chan []byte, buffer),
		rooms:  make(map[string]struct{}),
		done:   make(chan struct{}),
	}
}

// enqueue never blocks; it reports false when the frame was dropped.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Serve runs the connection until the peer disconnects or ctx ends. When
// userID is non-empty the client may only register for that room.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, userID string) {
	c := newClient(userID, h.sendBuffer)
	metrics.RelayConnections.Inc()
	log.Debugf("client %s connected (user %q)", c.id, userID)

	defer func() {
		h.Leave(c)
		c.close()
		_ = conn.Close()
		metrics.RelayConnections.Dec()
		log.Debugf("client %s disconnected", c.id)
	}()

	go h.writePump(ctx, conn, c)
	h.readPump(conn, c)
}

func (h *Hub) readPump(conn *websocket.Conn, c *Client) {
	conn.SetReadLimit(maxFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			if isDecodeError(err) {
				h.reply(c, EventError, map[string]string{"message": "malformed frame"})
				continue
			}
			return
		}
		switch f.Event {
		case EventRegister:
			h.register(c, f.Data)
		default:
			h.reply(c, EventError, map[string]string{"message": "unknown event " + f.Event})
		}
	}
}

func (h *Hub) register(c *Client, data json.RawMessage) {
	var room string
	if err := json.Unmarshal(data, &room); err != nil || room == "" {
		h.reply(c, EventError, map[string]string{"message": "register expects a user id"})
		return
	}
	if c.userID != "" && c.userID != room {
		h.reply(c, EventError, map[string]string{"message": "cannot register for another user"})
		return
	}
	h.Join(c, room)
	log.Infof("client %s registered to room %s", c.id, room)
	h.reply(c, EventRegistered, room)
}

func (h *Hub) reply(c *Client, event string, payload interface{}) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return
	}
	if !c.enqueue(frame) {
		metrics.RelayDropped.WithLabelValues(event).Inc()
	}
}

func (h *Hub) writePump(ctx context.Context, conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case frame := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			_ = conn.Close()
			return
		case <-c.done:
			return
		}
	}
}

func isDecodeError(err error) bool {
	switch err.(type) {
	case *json.SyntaxError, *json.UnmarshalTypeError:
		return true
	}
	return false
}
