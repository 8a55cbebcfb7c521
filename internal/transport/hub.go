// Package transport connects websocket clients to the coordinator: a topic
// hub for fan-out and a read/write loop pair per connection.
package transport

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/G4briel-Rodrigues/xadrez-novo/internal/obslog"
)

const sendBuffer = 32

// Hub is the publish/subscribe fabric. Each room name is one topic; a
// connection may sit in any number of topics. Slow consumers drop frames
// rather than stall the publisher.
type Hub struct {
	mu     sync.RWMutex
	conns  map[uuid.UUID]chan []byte
	topics map[string]map[uuid.UUID]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns:  make(map[uuid.UUID]chan []byte),
		topics: make(map[string]map[uuid.UUID]struct{}),
	}
}

// Register creates the outbound queue for a new connection.
func (h *Hub) Register(id uuid.UUID) chan []byte {
	ch := make(chan []byte, sendBuffer)
	h.mu.Lock()
	h.conns[id] = ch
	h.mu.Unlock()
	return ch
}

// Remove drops the connection from every topic and closes its queue. Safe to
// call once per connection, after the read loop has ended.
func (h *Hub) Remove(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.conns[id]
	if !ok {
		return
	}
	delete(h.conns, id)
	for _, members := range h.topics {
		delete(members, id)
	}
	close(ch)
}

func (h *Hub) Subscribe(topic string, id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[id]; !ok {
		return
	}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[uuid.UUID]struct{})
	}
	h.topics[topic][id] = struct{}{}
}

func (h *Hub) Unsubscribe(topic string, id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.topics[topic], id)
}

// Publish sends event to every subscriber of topic.
func (h *Hub) Publish(topic string, event any) {
	data, ok := encode(event)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range h.topics[topic] {
		h.push(id, data)
	}
}

// PublishAll sends event to every connection regardless of topic.
func (h *Hub) PublishAll(event any) {
	data, ok := encode(event)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range h.conns {
		h.push(id, data)
	}
}

// SendTo sends event to one connection.
func (h *Hub) SendTo(id uuid.UUID, event any) {
	data, ok := encode(event)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.push(id, data)
}

// push assumes the read lock is held.
func (h *Hub) push(id uuid.UUID, data []byte) {
	ch, ok := h.conns[id]
	if !ok {
		return
	}
	select {
	case ch <- data:
	default:
		obslog.L().Warn("slow_consumer_drop", zap.String("conn", id.String()))
	}
}

func encode(event any) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		obslog.L().Error("event_encode_error", zap.Error(err))
		return nil, false
	}
	return data, true
}
