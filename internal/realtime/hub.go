// Package realtime fans the current product list out to connected
// websocket observers and accepts product create/delete events from
// them.
package realtime

import (
	"context"
	"encoding/json"

	"storefront-api/internal/domain"
	"storefront-api/internal/repository"

	"go.uber.org/zap"
)

// Event names on the wire.
const (
	EventProductList   = "products:list"
	EventProductCreate = "product:create"
	EventProductDelete = "product:delete"
	EventAck           = "ack"
)

type message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ack struct {
	Event string      `json:"event"`
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Hub tracks connected clients and broadcasts product list refreshes.
// It is handed to handlers as an explicit dependency, never a package
// singleton.
type Hub struct {
	products   repository.ProductRepository
	logger     *zap.Logger
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

// NewHub creates a hub over the given product repository.
func NewHub(products repository.ProductRepository, logger *zap.Logger) *Hub {
	return &Hub{
		products:   products,
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 8),
	}
}

// Run owns the client set; it must run in its own goroutine for the
// lifetime of the server.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow consumer; drop it rather than stall the hub
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

func (h *Hub) productListMessage(ctx context.Context) ([]byte, error) {
	products, err := h.products.List(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(products)
	if err != nil {
		return nil, err
	}
	return json.Marshal(message{Event: EventProductList, Data: data})
}

// PublishProducts broadcasts the refreshed product list to every
// connected client. HTTP handlers call this after each product
// mutation.
func (h *Hub) PublishProducts(ctx context.Context) {
	msg, err := h.productListMessage(ctx)
	if err != nil {
		h.logger.Error("Failed to build product list broadcast", zap.Error(err))
		return
	}
	h.broadcast <- msg
}

// handleEvent runs a client-originated event against the repository and
// returns the acknowledgement for the sender. A successful mutation also
// triggers the list broadcast.
func (h *Hub) handleEvent(ctx context.Context, msg message) ack {
	switch msg.Event {
	case EventProductCreate:
		in, err := domain.DecodeProductInput(msg.Data)
		if err != nil {
			return ack{Event: EventAck, OK: false, Error: err.Error()}
		}
		created, err := h.products.Create(ctx, in)
		if err != nil {
			return ack{Event: EventAck, OK: false, Error: err.Error()}
		}
		h.PublishProducts(ctx)
		return ack{Event: EventAck, OK: true, Data: created}

	case EventProductDelete:
		var id string
		if err := json.Unmarshal(msg.Data, &id); err != nil {
			return ack{Event: EventAck, OK: false, Error: "invalid product id"}
		}
		deleted, err := h.products.Delete(ctx, domain.ID(id))
		if err != nil {
			return ack{Event: EventAck, OK: false, Error: err.Error()}
		}
		h.PublishProducts(ctx)
		return ack{Event: EventAck, OK: true, Data: deleted}

	default:
		return ack{Event: EventAck, OK: false, Error: "unknown event: " + msg.Event}
	}
}
