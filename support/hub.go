package support

import (
	"encoding/json"
	"sync"
)

// Hub fans reclamation updates out to live subscribers, keyed by ticket
// id. Delivery is best effort: a subscriber that cannot keep up has its
// message dropped rather than blocking the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[*Subscriber]struct{}
}

type Subscriber struct {
	Send chan []byte
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[*Subscriber]struct{})}
}

func (h *Hub) Subscribe(ticketID int64) *Subscriber {
	sub := &Subscriber{Send: make(chan []byte, 16)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[ticketID] == nil {
		h.subs[ticketID] = make(map[*Subscriber]struct{})
	}
	h.subs[ticketID][sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(ticketID int64, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[ticketID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, ticketID)
		}
	}
	close(sub.Send)
}

// Publish sends an update to every subscriber of the ticket.
func (h *Hub) Publish(ticketID int64, update any) {
	body, err := json.Marshal(update)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[ticketID] {
		select {
		case sub.Send <- body:
		default:
		}
	}
}

// Subscribers reports the current subscriber count for a ticket.
func (h *Hub) Subscribers(ticketID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[ticketID])
}
