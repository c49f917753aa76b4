package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"storefront-api/internal/domain"
	"storefront-api/internal/repository"
)

type wireMessage struct {
	Event string          `json:"event"`
	OK    *bool           `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func newTestHub(t *testing.T) (*Hub, repository.ProductRepository, *httptest.Server) {
	t.Helper()
	products := repository.NewFileProductRepository(filepath.Join(t.TempDir(), "products.json"))
	hub := NewHub(products, zap.NewNop())
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)
	return hub, products, server
}

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWire(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg wireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("invalid wire message %q: %v", raw, err)
	}
	return msg
}

// readUntil reads messages until one with the given event arrives.
func readUntil(t *testing.T, conn *websocket.Conn, event string) wireMessage {
	t.Helper()
	for i := 0; i < 5; i++ {
		msg := readWire(t, conn)
		if msg.Event == event {
			return msg
		}
	}
	t.Fatalf("never received %q", event)
	return wireMessage{}
}

func seedProduct(t *testing.T, products repository.ProductRepository, code string) *domain.Product {
	t.Helper()
	created, err := products.Create(context.Background(), &domain.ProductInput{
		Title:       "product " + code,
		Description: "seeded",
		Code:        code,
		Price:       10,
		Status:      true,
		Stock:       3,
		Category:    "general",
		Thumbnails:  []string{},
	})
	if err != nil {
		t.Fatalf("seed create failed: %v", err)
	}
	return created
}

func TestConnectPushesCurrentProductList(t *testing.T) {
	_, products, server := newTestHub(t)
	seedProduct(t, products, "WS-1")

	conn := dialHub(t, server)

	msg := readWire(t, conn)
	if msg.Event != EventProductList {
		t.Fatalf("expected initial %q, got %q", EventProductList, msg.Event)
	}

	var list []domain.Product
	if err := json.Unmarshal(msg.Data, &list); err != nil {
		t.Fatalf("invalid list payload: %v", err)
	}
	if len(list) != 1 || list[0].Code != "WS-1" {
		t.Fatalf("unexpected initial list: %+v", list)
	}
}

func TestCreateEventAcksAndBroadcasts(t *testing.T) {
	_, _, server := newTestHub(t)

	sender := dialHub(t, server)
	observer := dialHub(t, server)

	// Drain the initial lists.
	readUntil(t, sender, EventProductList)
	readUntil(t, observer, EventProductList)

	create := `{"event": "product:create", "data": {
		"title": "Socket Lamp",
		"description": "created over the socket",
		"code": "WS-NEW",
		"price": 25,
		"status": true,
		"stock": 4,
		"category": "lighting",
		"thumbnails": []
	}}`
	if err := sender.WriteMessage(websocket.TextMessage, []byte(create)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	ackMsg := readUntil(t, sender, EventAck)
	if ackMsg.OK == nil || !*ackMsg.OK {
		t.Fatalf("expected successful ack, got %+v", ackMsg)
	}
	var created domain.Product
	if err := json.Unmarshal(ackMsg.Data, &created); err != nil {
		t.Fatalf("invalid ack payload: %v", err)
	}
	if created.Code != "WS-NEW" || created.ID == "" {
		t.Fatalf("unexpected created product: %+v", created)
	}

	list := readUntil(t, observer, EventProductList)
	var products []domain.Product
	if err := json.Unmarshal(list.Data, &products); err != nil {
		t.Fatalf("invalid broadcast payload: %v", err)
	}
	if len(products) != 1 || products[0].Code != "WS-NEW" {
		t.Fatalf("observer did not see the new product: %+v", products)
	}
}

func TestDeleteEventBroadcastsEmptiedList(t *testing.T) {
	_, products, server := newTestHub(t)
	created := seedProduct(t, products, "WS-DEL")

	conn := dialHub(t, server)
	readUntil(t, conn, EventProductList)

	del := `{"event": "product:delete", "data": "` + created.ID.String() + `"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(del)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	ackMsg := readUntil(t, conn, EventAck)
	if ackMsg.OK == nil || !*ackMsg.OK {
		t.Fatalf("expected successful ack, got %+v", ackMsg)
	}

	list := readUntil(t, conn, EventProductList)
	var remaining []domain.Product
	if err := json.Unmarshal(list.Data, &remaining); err != nil {
		t.Fatalf("invalid broadcast payload: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected empty list after delete, got %+v", remaining)
	}
}

func TestInvalidEventsAreRejected(t *testing.T) {
	_, _, server := newTestHub(t)

	conn := dialHub(t, server)
	readUntil(t, conn, EventProductList)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"event": "unknown:event"}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	ackMsg := readUntil(t, conn, EventAck)
	if ackMsg.OK != nil && *ackMsg.OK {
		t.Fatalf("unknown event must fail, got %+v", ackMsg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"event": "product:create", "data": {"title": 1}}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	ackMsg = readUntil(t, conn, EventAck)
	if ackMsg.OK != nil && *ackMsg.OK {
		t.Fatalf("invalid create must fail, got %+v", ackMsg)
	}
	if ackMsg.Error == "" {
		t.Fatal("failed ack must carry an error message")
	}
}
