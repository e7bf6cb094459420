package relay

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/campusconecto/campusconecto/backend/api/pkg/logger"
	"github.com/campusconecto/campusconecto/backend/api/pkg/metrics"
	"github.com/google/uuid"
)

// Event names pushed to clients.
const (
	EventNotification = "notification"
	EventNewMessage   = "newMessage"
	EventFriendAdded  = "friendAdded"
	EventError        = "error"
	EventRegistered   = "registered"
	EventRegister     = "register"
)

var log = logger.For("relay")

// Frame is the wire envelope in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encodeFrame(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// Publisher forwards locally emitted events to other instances.
type Publisher interface {
	Publish(ctx context.Context, room, event string, data json.RawMessage) error
}

// Hub maps rooms (user ids) to connected clients. Delivery is best effort:
// a client whose send buffer is full misses the event.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]struct{}
	sendBuffer int
	instanceID string
	publisher  Publisher
}

func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		sendBuffer: sendBuffer,
		instanceID: uuid.NewString(),
	}
}

// InstanceID identifies this hub on the fan-out channel.
func (h *Hub) InstanceID() string { return h.instanceID }

// SetPublisher enables multi-instance fan-out.
func (h *Hub) SetPublisher(p Publisher) {
	h.mu.Lock()
	h.publisher = p
	h.mu.Unlock()
}

// Join adds c to room.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.rooms[room]
	if set == nil {
		set = make(map[*Client]struct{})
		h.rooms[room] = set
	}
	set[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Leave removes c from every room it joined.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range c.rooms {
		if set := h.rooms[room]; set != nil {
			delete(set, c)
			if len(set) == 0 {
				delete(h.rooms, room)
			}
		}
		delete(c.rooms, room)
	}
}

// RoomSize returns the number of clients in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Emit sends event to every client in room, on this instance and, when a
// publisher is set, on the others.
func (h *Hub) Emit(ctx context.Context, room, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("encode %s payload: %v", event, err)
		return
	}
	h.deliver(room, event, data)
	metrics.RelayEmitted.WithLabelValues(event, "local").Inc()

	h.mu.RLock()
	pub := h.publisher
	h.mu.RUnlock()
	if pub != nil {
		if err := pub.Publish(ctx, room, event, data); err != nil {
			log.Warnf("publish %s to %s: %v", event, room, err)
		}
	}
}

func (h *Hub) deliver(room, event string, data json.RawMessage) {
	frame, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		log.Errorf("encode %s frame: %v", event, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if !c.enqueue(frame) {
			metrics.RelayDropped.WithLabelValues(event).Inc()
			log.Debugf("dropped %s for client %s in room %s", event, c.id, room)
		}
	}
}

// deliverRemote handles an event received from another instance.
func (h *Hub) deliverRemote(room, event string, data json.RawMessage) {
	h.deliver(room, event, data)
	metrics.RelayEmitted.WithLabelValues(event, "remote").Inc()
}
